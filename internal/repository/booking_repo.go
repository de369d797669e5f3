package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"partystream/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	HostID        int64      `gorm:"column:host_id;index"`
	DJProfileID   int64      `gorm:"column:dj_profile_id;index"`
	StartTime     time.Time  `gorm:"column:start_time"`
	EndTime       time.Time  `gorm:"column:end_time"`
	DurationHours float64    `gorm:"column:duration_hours"`
	TotalAmount   float64    `gorm:"column:total_amount"`
	Status        string     `gorm:"column:status;index"`
	PaymentStatus string     `gorm:"column:payment_status"`
	Notes         *string    `gorm:"column:notes;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
	CancelledAt   *time.Time `gorm:"column:cancelled_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var notes string
	if m.Notes != nil {
		notes = *m.Notes
	}

	return &domain.Booking{
		ID:            m.ID,
		HostID:        m.HostID,
		DJProfileID:   m.DJProfileID,
		StartTime:     m.StartTime,
		EndTime:       m.EndTime,
		DurationHours: m.DurationHours,
		TotalAmount:   m.TotalAmount,
		Status:        domain.BookingStatus(m.Status),
		PaymentStatus: domain.BookingPaymentStatus(m.PaymentStatus),
		Notes:         notes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CancelledAt:   m.CancelledAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var notes *string
	if b.Notes != "" {
		v := b.Notes
		notes = &v
	}

	return bookingModel{
		ID:            b.ID,
		HostID:        b.HostID,
		DJProfileID:   b.DJProfileID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		DurationHours: b.DurationHours,
		TotalAmount:   b.TotalAmount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		Notes:         notes,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		CancelledAt:   b.CancelledAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Save(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

// HasConfirmedOverlap reports whether a confirmed booking for the same
// DJ profile overlaps [start,end]. Boundary-touching intervals count as
// overlapping. Pending holds are deliberately ignored: the DJ's
// confirmation is the actual lock on a slot.
func (r *BookingRepository) HasConfirmedOverlap(ctx context.Context, djProfileID int64, start, end time.Time, excludeID int64) (bool, error) {
	var cnt int64
	q := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("dj_profile_id = ?", djProfileID).
		Where("status = ?", string(domain.BookingConfirmed)).
		Where("start_time <= ? AND end_time >= ?", end, start)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if tx := q.Count(&cnt); tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	updates := map[string]any{"status": string(status), "updated_at": time.Now().UTC()}
	if status == domain.BookingCancelled {
		now := time.Now().UTC()
		updates["cancelled_at"] = &now
	}
	return r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id).Updates(updates).Error
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.BookingPaymentStatus) error {
	return r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id).
		Updates(map[string]any{"payment_status": string(status), "updated_at": time.Now().UTC()}).Error
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID int64, limit, offset int) ([]domain.Booking, error) {
	var ms []bookingModel
	tx := r.db.WithContext(ctx).Where("host_id = ?", hostID).
		Order("start_time DESC").Limit(limit).Offset(offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) ListByDJProfile(ctx context.Context, djProfileID int64, limit, offset int) ([]domain.Booking, error) {
	var ms []bookingModel
	tx := r.db.WithContext(ctx).Where("dj_profile_id = ?", djProfileID).
		Order("start_time DESC").Limit(limit).Offset(offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	var ms []bookingModel
	tx := r.db.WithContext(ctx).Order("start_time DESC").Limit(limit).Offset(offset).Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBookings(ms), nil
}

func toDomainBookings(ms []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out
}
