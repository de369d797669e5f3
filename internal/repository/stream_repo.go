package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"partystream/internal/domain"
)

type StreamRepository struct {
	db *gorm.DB
}

func NewStreamRepository(db *gorm.DB) *StreamRepository {
	return &StreamRepository{db: db}
}

type streamModel struct {
	ID          int64      `gorm:"column:id;primaryKey"`
	BookingID   int64      `gorm:"column:booking_id;index"`
	DJProfileID int64      `gorm:"column:dj_profile_id;index"`
	HostID      int64      `gorm:"column:host_id"`
	Status      string     `gorm:"column:status;index"`
	ChannelID   string     `gorm:"column:channel_id"`
	StreamKey   string     `gorm:"column:stream_key"`
	IngestURL   string     `gorm:"column:ingest_url"`
	PlaybackURL string     `gorm:"column:playback_url"`
	ViewersPeak int        `gorm:"column:viewers_peak"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	EndedAt     *time.Time `gorm:"column:ended_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (streamModel) TableName() string { return "streams" }

func toDomainStream(m streamModel) *domain.Stream {
	return &domain.Stream{
		ID:          m.ID,
		BookingID:   m.BookingID,
		DJProfileID: m.DJProfileID,
		HostID:      m.HostID,
		Status:      domain.StreamStatus(m.Status),
		ChannelID:   m.ChannelID,
		StreamKey:   m.StreamKey,
		IngestURL:   m.IngestURL,
		PlaybackURL: m.PlaybackURL,
		ViewersPeak: m.ViewersPeak,
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toStreamModel(s *domain.Stream) streamModel {
	return streamModel{
		ID:          s.ID,
		BookingID:   s.BookingID,
		DJProfileID: s.DJProfileID,
		HostID:      s.HostID,
		Status:      string(s.Status),
		ChannelID:   s.ChannelID,
		StreamKey:   s.StreamKey,
		IngestURL:   s.IngestURL,
		PlaybackURL: s.PlaybackURL,
		ViewersPeak: s.ViewersPeak,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (r *StreamRepository) Create(ctx context.Context, s *domain.Stream) error {
	m := toStreamModel(s)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*s = *toDomainStream(m)
	return nil
}

func (r *StreamRepository) GetByID(ctx context.Context, id int64) (*domain.Stream, error) {
	var m streamModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainStream(m), nil
}

// HasLiveForBooking reports whether a stream in a non-terminal state
// (created or active) already occupies the booking.
func (r *StreamRepository) HasLiveForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&streamModel{}).
		Where("booking_id = ?", bookingID).
		Where("status IN ?", []string{string(domain.StreamCreated), string(domain.StreamActive)}).
		Count(&cnt)
	if tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}

func (r *StreamRepository) UpdateStatus(ctx context.Context, id int64, status domain.StreamStatus, startedAt, endedAt *time.Time) error {
	updates := map[string]any{"status": string(status), "updated_at": time.Now().UTC()}
	if startedAt != nil {
		updates["started_at"] = startedAt
	}
	if endedAt != nil {
		updates["ended_at"] = endedAt
	}
	return r.db.WithContext(ctx).Model(&streamModel{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateViewersPeak raises the high-water mark; it never lowers it.
func (r *StreamRepository) UpdateViewersPeak(ctx context.Context, id int64, viewers int) error {
	return r.db.WithContext(ctx).Model(&streamModel{}).
		Where("id = ? AND viewers_peak < ?", id, viewers).
		Update("viewers_peak", viewers).Error
}

func (r *StreamRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&streamModel{}, id).Error
}

func (r *StreamRepository) ListByDJProfile(ctx context.Context, djProfileID int64, limit, offset int) ([]domain.Stream, error) {
	var ms []streamModel
	tx := r.db.WithContext(ctx).Where("dj_profile_id = ?", djProfileID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Stream, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainStream(m))
	}
	return out, nil
}
