package booking

import (
	"context"
	"time"

	"partystream/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Update(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	HasConfirmedOverlap(ctx context.Context, djProfileID int64, start, end time.Time, excludeID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	ListByHost(ctx context.Context, hostID int64, limit, offset int) ([]domain.Booking, error)
	ListByDJProfile(ctx context.Context, djProfileID int64, limit, offset int) ([]domain.Booking, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Booking, error)
}

type ProfileReader interface {
	GetByID(ctx context.Context, id int64) (*domain.DJProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.DJProfile, error)
}
