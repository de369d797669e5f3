package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"partystream/internal/domain"
)

type DJProfileRepository struct {
	db *gorm.DB
}

func NewDJProfileRepository(db *gorm.DB) *DJProfileRepository {
	return &DJProfileRepository{db: db}
}

// Genres and languages are stored as JSON-encoded string arrays; the
// search filters match with LIKE on the encoded value, which is enough
// for exact element lookup on both Postgres and SQLite.
type djProfileModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	UserID     int64     `gorm:"column:user_id;uniqueIndex"`
	StageName  string    `gorm:"column:stage_name"`
	Bio        string    `gorm:"column:bio;type:text"`
	HourlyRate float64   `gorm:"column:hourly_rate"`
	Genres     string    `gorm:"column:genres;type:text"`
	Languages  string    `gorm:"column:languages;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (djProfileModel) TableName() string { return "dj_profiles" }

func toDomainDJProfile(m djProfileModel) *domain.DJProfile {
	p := &domain.DJProfile{
		ID:         m.ID,
		UserID:     m.UserID,
		StageName:  m.StageName,
		Bio:        m.Bio,
		HourlyRate: m.HourlyRate,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	_ = json.Unmarshal([]byte(m.Genres), &p.Genres)
	_ = json.Unmarshal([]byte(m.Languages), &p.Languages)
	return p
}

func toDJProfileModel(p *domain.DJProfile) djProfileModel {
	genres, _ := json.Marshal(p.Genres)
	languages, _ := json.Marshal(p.Languages)
	return djProfileModel{
		ID:         p.ID,
		UserID:     p.UserID,
		StageName:  p.StageName,
		Bio:        p.Bio,
		HourlyRate: p.HourlyRate,
		Genres:     string(genres),
		Languages:  string(languages),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (r *DJProfileRepository) Create(ctx context.Context, p *domain.DJProfile) error {
	m := toDJProfileModel(p)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*p = *toDomainDJProfile(m)
	return nil
}

func (r *DJProfileRepository) Update(ctx context.Context, p *domain.DJProfile) error {
	m := toDJProfileModel(p)
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*p = *toDomainDJProfile(m)
	return nil
}

func (r *DJProfileRepository) GetByID(ctx context.Context, id int64) (*domain.DJProfile, error) {
	var m djProfileModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainDJProfile(m), nil
}

func (r *DJProfileRepository) GetByUserID(ctx context.Context, userID int64) (*domain.DJProfile, error) {
	var m djProfileModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainDJProfile(m), nil
}

func (r *DJProfileRepository) List(ctx context.Context, limit, offset int) ([]domain.DJProfile, error) {
	var ms []djProfileModel
	tx := r.db.WithContext(ctx).Order("id").Limit(limit).Offset(offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.DJProfile, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainDJProfile(m))
	}
	return out, nil
}

// SearchFilter narrows the public profile listing. Zero values mean
// "no constraint".
type SearchFilter struct {
	Genre    string
	Language string
	MinRate  float64
	MaxRate  float64
}

func (r *DJProfileRepository) Search(ctx context.Context, f SearchFilter, limit, offset int) ([]domain.DJProfile, error) {
	q := r.db.WithContext(ctx).Model(&djProfileModel{})
	if f.Genre != "" {
		enc, _ := json.Marshal(f.Genre)
		q = q.Where("genres LIKE ?", "%"+string(enc)+"%")
	}
	if f.Language != "" {
		enc, _ := json.Marshal(f.Language)
		q = q.Where("languages LIKE ?", "%"+string(enc)+"%")
	}
	if f.MinRate > 0 {
		q = q.Where("hourly_rate >= ?", f.MinRate)
	}
	if f.MaxRate > 0 {
		q = q.Where("hourly_rate <= ?", f.MaxRate)
	}

	var ms []djProfileModel
	tx := q.Order("hourly_rate").Limit(limit).Offset(offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.DJProfile, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainDJProfile(m))
	}
	return out, nil
}
