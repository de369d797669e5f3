package payment

import (
	"context"
	"time"

	"partystream/internal/domain"
	"partystream/internal/payments"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	HasSucceededForBooking(ctx context.Context, bookingID int64) (bool, error)
	MarkSucceededIdempotent(ctx context.Context, intentID string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, intentID, reason string) error
	MarkRefunded(ctx context.Context, id int64, refundedAt time.Time) error
}

type bookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type bookingWriter interface {
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.BookingPaymentStatus) error
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type profileReader interface {
	GetByID(ctx context.Context, id int64) (*domain.DJProfile, error)
}

// provider is the slice of the hosted payments API the lifecycle needs.
type provider interface {
	EnsureCustomer(ctx context.Context, email, name string) (string, error)
	CreateIntent(ctx context.Context, customerID string, amountCents int64, currency string, metadata map[string]string) (*payments.Intent, error)
	RefundIntent(ctx context.Context, intentID string, amountCents int64, reason string) (*payments.Refund, error)
	VerifySignature(payload []byte, header string) error
}
