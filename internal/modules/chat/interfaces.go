package chat

import (
	"context"

	"partystream/internal/domain"
)

type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListByBooking(ctx context.Context, bookingID int64, limit, offset int) ([]domain.ChatMessage, error)
}

type bookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type profileReader interface {
	GetByID(ctx context.Context, id int64) (*domain.DJProfile, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
