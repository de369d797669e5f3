package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"partystream/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	BookingID     int64      `gorm:"column:booking_id;index"`
	Amount        float64    `gorm:"column:amount"`
	ServiceFee    float64    `gorm:"column:service_fee"`
	TotalCharged  float64    `gorm:"column:total_charged"`
	Status        string     `gorm:"column:status;index"`
	IntentID      string     `gorm:"column:intent_id;index"`
	CustomerID    string     `gorm:"column:customer_id"`
	FailureReason *string    `gorm:"column:failure_reason"`
	PaidAt        *time.Time `gorm:"column:paid_at"`
	RefundedAt    *time.Time `gorm:"column:refunded_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string { return "payments" }

func toDomainPayment(m paymentModel) *domain.Payment {
	var reason string
	if m.FailureReason != nil {
		reason = *m.FailureReason
	}
	return &domain.Payment{
		ID:            m.ID,
		BookingID:     m.BookingID,
		Amount:        m.Amount,
		ServiceFee:    m.ServiceFee,
		TotalCharged:  m.TotalCharged,
		Status:        domain.PaymentStatus(m.Status),
		IntentID:      m.IntentID,
		CustomerID:    m.CustomerID,
		FailureReason: reason,
		PaidAt:        m.PaidAt,
		RefundedAt:    m.RefundedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toPaymentModel(p *domain.Payment) paymentModel {
	var reason *string
	if p.FailureReason != "" {
		v := p.FailureReason
		reason = &v
	}
	return paymentModel{
		ID:            p.ID,
		BookingID:     p.BookingID,
		Amount:        p.Amount,
		ServiceFee:    p.ServiceFee,
		TotalCharged:  p.TotalCharged,
		Status:        string(p.Status),
		IntentID:      p.IntentID,
		CustomerID:    p.CustomerID,
		FailureReason: reason,
		PaidAt:        p.PaidAt,
		RefundedAt:    p.RefundedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	m := toPaymentModel(p)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*p = *toDomainPayment(m)
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var m paymentModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	var m paymentModel
	tx := r.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var ms []paymentModel
	tx := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at DESC").Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	out := make([]domain.Payment, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainPayment(m))
	}
	return out, nil
}

func (r *PaymentRepository) HasSucceededForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("booking_id = ? AND status = ?", bookingID, string(domain.PaymentSucceeded)).
		Count(&cnt)
	if tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}

// MarkSucceededIdempotent flips the payment matching the intent to
// succeeded and reports whether this call changed anything. A webhook
// replay therefore becomes a no-op with changed=false.
func (r *PaymentRepository) MarkSucceededIdempotent(ctx context.Context, intentID string, paidAt time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("intent_id = ? AND status <> ?", intentID, string(domain.PaymentSucceeded)).
		Updates(map[string]any{
			"status":     string(domain.PaymentSucceeded),
			"paid_at":    paidAt,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, intentID, reason string) error {
	return r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("intent_id = ?", intentID).
		Updates(map[string]any{
			"status":         string(domain.PaymentFailed),
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *PaymentRepository) MarkRefunded(ctx context.Context, id int64, refundedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      string(domain.PaymentRefunded),
			"refunded_at": refundedAt,
			"updated_at":  time.Now().UTC(),
		}).Error
}
