package booking

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"partystream/internal/domain"
)

type Service struct {
	bookings BookingRepository
	profiles ProfileReader
	now      func() time.Time
}

func NewService(bookings BookingRepository, profiles ProfileReader) *Service {
	return &Service{
		bookings: bookings,
		profiles: profiles,
		now:      time.Now,
	}
}

// CreateBooking validates the requested slot, prices it from the DJ's
// hourly rate and persists a pending hold. Conflicts are checked only
// against confirmed bookings: pending holds on the same slot may
// coexist, the DJ's confirmation is the actual lock.
func (s *Service) CreateBooking(ctx context.Context, hostID int64, req CreateBookingRequest) (*domain.Booking, error) {
	if err := s.validateRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, req.DJProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	overlap, err := s.bookings.HasConfirmedOverlap(ctx, profile.ID, req.StartTime, req.EndTime, 0)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrConflict
	}

	duration := req.EndTime.Sub(req.StartTime).Hours()

	b := &domain.Booking{
		HostID:        hostID,
		DJProfileID:   profile.ID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DurationHours: duration,
		TotalAmount:   round2(duration * profile.HourlyRate),
		Status:        domain.BookingPending,
		PaymentStatus: domain.BookingPaymentPending,
		Notes:         req.Notes,
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return b, nil
}

// UpdateBooking lets the booking's host (or an admin) patch notes and
// times. Time changes re-validate, re-run the conflict check excluding
// the booking itself and recompute duration and amount.
func (s *Service) UpdateBooking(ctx context.Context, id, callerID int64, role domain.Role, req UpdateBookingRequest) (*domain.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if role != domain.RoleAdmin && b.HostID != callerID {
		return nil, ErrForbidden
	}
	if b.Terminal() {
		return nil, ErrConflict
	}

	if req.Notes != nil {
		b.Notes = *req.Notes
	}

	if req.StartTime != nil || req.EndTime != nil {
		start, end := b.StartTime, b.EndTime
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		if err := s.validateRange(start, end); err != nil {
			return nil, err
		}

		overlap, err := s.bookings.HasConfirmedOverlap(ctx, b.DJProfileID, start, end, b.ID)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, ErrConflict
		}

		profile, err := s.profiles.GetByID(ctx, b.DJProfileID)
		if err != nil {
			return nil, err
		}

		b.StartTime = start
		b.EndTime = end
		b.DurationHours = end.Sub(start).Hours()
		b.TotalAmount = round2(b.DurationHours * profile.HourlyRate)
	}

	if err := s.bookings.Update(ctx, b); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return b, nil
}

// UpdateStatus drives the booking state machine. The unknown-status
// check runs before any authorization so a malformed request is always
// a validation error, never a forbidden one.
func (s *Service) UpdateStatus(ctx context.Context, id, callerID int64, role domain.Role, newStatus domain.BookingStatus) (*domain.Booking, error) {
	if !domain.ValidBookingStatus(newStatus) {
		return nil, ErrValidation
	}

	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.transitionAllowed(ctx, b, callerID, role, newStatus)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	switch newStatus {
	case domain.BookingCancelled:
		if b.Terminal() {
			return nil, ErrConflict
		}
	case domain.BookingConfirmed:
		if b.Status != domain.BookingPending {
			return nil, ErrConflict
		}
	case domain.BookingCompleted:
		if b.Terminal() {
			return nil, ErrConflict
		}
	}

	if err := s.bookings.UpdateStatus(ctx, b.ID, newStatus); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return s.bookings.GetByID(ctx, b.ID)
}

func (s *Service) transitionAllowed(ctx context.Context, b *domain.Booking, callerID int64, role domain.Role, target domain.BookingStatus) (bool, error) {
	if role == domain.RoleAdmin {
		return target != domain.BookingPending, nil
	}

	switch target {
	case domain.BookingCancelled:
		if b.HostID == callerID {
			return true, nil
		}
		return s.isBookingDJ(ctx, b, callerID)
	case domain.BookingConfirmed:
		return s.isBookingDJ(ctx, b, callerID)
	default:
		// completed is admin-only on this path (the normal route is the
		// stream-end cascade); pending is reachable only at creation.
		return false, nil
	}
}

func (s *Service) isBookingDJ(ctx context.Context, b *domain.Booking, userID int64) (bool, error) {
	profile, err := s.profiles.GetByID(ctx, b.DJProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return profile.UserID == userID, nil
}

func (s *Service) GetBooking(ctx context.Context, id, callerID int64, role domain.Role) (*domain.Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if role == domain.RoleAdmin || b.HostID == callerID {
		return b, nil
	}
	isDJ, err := s.isBookingDJ(ctx, b, callerID)
	if err != nil {
		return nil, err
	}
	if !isDJ {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListBookings returns the caller's side of the ledger: hosts see their
// own bookings, DJs the bookings against their profile, admins all.
func (s *Service) ListBookings(ctx context.Context, callerID int64, role domain.Role, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	switch role {
	case domain.RoleAdmin:
		return s.bookings.ListAll(ctx, limit, offset)
	case domain.RoleDJ:
		profile, err := s.profiles.GetByUserID(ctx, callerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []domain.Booking{}, nil
			}
			return nil, err
		}
		return s.bookings.ListByDJProfile(ctx, profile.ID, limit, offset)
	default:
		return s.bookings.ListByHost(ctx, callerID, limit, offset)
	}
}

func (s *Service) getBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrValidation
	}
	if !end.After(start) {
		return ErrValidation
	}
	if !start.After(s.now()) {
		return ErrValidation
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// isExclusionViolation recognizes the Postgres constraints that
// backstop the service-level checks under concurrent requests.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return false
}
