package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"partystream/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	maxMessageLength    = 4000
)

type Service struct {
	messages MessageRepository
	bookings bookingReader
	profiles profileReader
	users    userReader

	loggerf func(format string, args ...interface{})
	now     func() time.Time
}

func NewService(
	messages MessageRepository,
	bookings bookingReader,
	profiles profileReader,
	users userReader,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		messages: messages,
		bookings: bookings,
		profiles: profiles,
		users:    users,
		loggerf:  loggerf,
		now:      time.Now,
	}
}

// Authorize reports whether the caller may enter a booking's room:
// the booking's host, its DJ, or an admin.
func (s *Service) Authorize(ctx context.Context, bookingID, callerID int64, role domain.Role) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if role == domain.RoleAdmin || b.HostID == callerID {
		return nil
	}
	profile, err := s.profiles.GetByID(ctx, b.DJProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		s.loggerf("level=error msg=dj profile lookup failed booking_id=%d profile_id=%d err=%v", bookingID, b.DJProfileID, err)
		return err
	}
	if profile.UserID == callerID {
		return nil
	}
	return ErrForbidden
}

// SendMessage persists a message to the booking's append-only log and
// returns it with the sender's display name attached.
func (s *Service) SendMessage(ctx context.Context, bookingID, senderID int64, role domain.Role, content string) (*domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxMessageLength {
		return nil, ErrValidation
	}

	if err := s.Authorize(ctx, bookingID, senderID, role); err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		BookingID: bookingID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if sender, err := s.users.GetByID(ctx, senderID); err == nil {
		msg.SenderName = sender.Name
	}
	return msg, nil
}

// History returns the room's messages oldest first.
func (s *Service) History(ctx context.Context, bookingID, callerID int64, role domain.Role, limit, offset int) ([]domain.ChatMessage, error) {
	if err := s.Authorize(ctx, bookingID, callerID, role); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.ListByBooking(ctx, bookingID, limit, offset)
}
