package stream

import (
	"context"
	"time"

	"partystream/internal/domain"
	"partystream/internal/streaming"
)

type StreamRepository interface {
	Create(ctx context.Context, s *domain.Stream) error
	GetByID(ctx context.Context, id int64) (*domain.Stream, error)
	HasLiveForBooking(ctx context.Context, bookingID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status domain.StreamStatus, startedAt, endedAt *time.Time) error
	UpdateViewersPeak(ctx context.Context, id int64, viewers int) error
	Delete(ctx context.Context, id int64) error
}

type bookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type bookingStatusWriter interface {
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error
}

type profileReader interface {
	GetByID(ctx context.Context, id int64) (*domain.DJProfile, error)
}

// liveAPI is the slice of the managed live-video service the lifecycle
// needs; tests substitute a fake.
type liveAPI interface {
	CreateChannel(ctx context.Context, name string) (*streaming.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	GetHealth(ctx context.Context, channelID string) (*streaming.Health, error)
}
