package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"partystream/internal/domain"
)

type Service struct {
	streams  StreamRepository
	bookings bookingReader
	bkStatus bookingStatusWriter
	profiles profileReader
	live     liveAPI
	loggerf  func(format string, args ...interface{})
	now      func() time.Time
}

func NewService(
	streams StreamRepository,
	bookings bookingReader,
	bkStatus bookingStatusWriter,
	profiles profileReader,
	live liveAPI,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		streams:  streams,
		bookings: bookings,
		bkStatus: bkStatus,
		profiles: profiles,
		live:     live,
		loggerf:  loggerf,
		now:      time.Now,
	}
}

// CreateStream provisions a channel for a confirmed booking. Only the
// booking's DJ (or an admin) may create it, and only one live stream
// may occupy a booking at a time.
func (s *Service) CreateStream(ctx context.Context, callerID int64, role domain.Role, bookingID int64) (*domain.Stream, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.Status != domain.BookingConfirmed {
		return nil, ErrValidation
	}

	if role != domain.RoleAdmin {
		isDJ, err := s.isBookingDJ(ctx, b, callerID)
		if err != nil {
			return nil, err
		}
		if !isDJ {
			return nil, ErrForbidden
		}
	}

	live, err := s.streams.HasLiveForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if live {
		return nil, ErrConflict
	}

	ch, err := s.live.CreateChannel(ctx, fmt.Sprintf("booking-%d", bookingID))
	if err != nil {
		s.loggerf("level=error msg=channel provisioning failed booking_id=%d caller_id=%d err=%v", bookingID, callerID, err)
		return nil, ErrExternal
	}

	st := &domain.Stream{
		BookingID:   bookingID,
		DJProfileID: b.DJProfileID,
		HostID:      b.HostID,
		Status:      domain.StreamCreated,
		ChannelID:   ch.ID,
		StreamKey:   ch.StreamKey,
		IngestURL:   ch.IngestURL,
		PlaybackURL: ch.PlaybackURL,
		ViewersPeak: 0,
	}

	if err := s.streams.Create(ctx, st); err != nil {
		if isUniqueViolation(err) {
			// Lost the race to another create; tear the channel down so
			// the provider does not accumulate orphans.
			if derr := s.live.DeleteChannel(ctx, ch.ID); derr != nil {
				s.loggerf("level=warn msg=orphan channel teardown failed channel_id=%s err=%v", ch.ID, derr)
			}
			return nil, ErrConflict
		}
		return nil, err
	}
	return st, nil
}

// StartStream flips created→active. DJ or admin only.
func (s *Service) StartStream(ctx context.Context, id, callerID int64, role domain.Role) (*domain.Stream, error) {
	st, err := s.getStream(ctx, id)
	if err != nil {
		return nil, err
	}

	if role != domain.RoleAdmin {
		isDJ, err := s.isStreamDJ(ctx, st, callerID)
		if err != nil {
			return nil, err
		}
		if !isDJ {
			return nil, ErrForbidden
		}
	}

	if st.Status != domain.StreamCreated {
		return nil, ErrConflict
	}

	now := s.now().UTC()
	if err := s.streams.UpdateStatus(ctx, st.ID, domain.StreamActive, &now, nil); err != nil {
		return nil, err
	}
	return s.streams.GetByID(ctx, st.ID)
}

// EndStream flips active→ended. DJ, host or admin may end; before the
// transition the live viewer count is fetched best-effort to raise the
// peak. A DJ- or admin-initiated end cascades the booking to completed;
// a host-initiated end does not (deliberate asymmetry, the DJ owns the
// "service was delivered" signal).
func (s *Service) EndStream(ctx context.Context, id, callerID int64, role domain.Role) (*domain.Stream, error) {
	st, err := s.getStream(ctx, id)
	if err != nil {
		return nil, err
	}

	isDJ := false
	if role != domain.RoleAdmin {
		isDJ, err = s.isStreamDJ(ctx, st, callerID)
		if err != nil {
			return nil, err
		}
		if !isDJ && st.HostID != callerID {
			return nil, ErrForbidden
		}
	}

	if st.Status != domain.StreamActive {
		return nil, ErrConflict
	}

	if h, err := s.live.GetHealth(ctx, st.ChannelID); err != nil {
		s.loggerf("level=warn msg=viewer count fetch failed stream_id=%d channel_id=%s err=%v", st.ID, st.ChannelID, err)
	} else if h.ViewerCount > st.ViewersPeak {
		if err := s.streams.UpdateViewersPeak(ctx, st.ID, h.ViewerCount); err != nil {
			s.loggerf("level=warn msg=viewers peak update failed stream_id=%d err=%v", st.ID, err)
		}
	}

	now := s.now().UTC()
	if err := s.streams.UpdateStatus(ctx, st.ID, domain.StreamEnded, nil, &now); err != nil {
		return nil, err
	}

	if role == domain.RoleAdmin || isDJ {
		if err := s.bkStatus.UpdateStatus(ctx, st.BookingID, domain.BookingCompleted); err != nil {
			s.loggerf("level=error msg=booking completion cascade failed booking_id=%d stream_id=%d err=%v", st.BookingID, st.ID, err)
		}
	}

	return s.streams.GetByID(ctx, st.ID)
}

// GetStream returns the role-filtered view. Only the DJ ever sees the
// ingest credentials; live metrics are merged in best-effort while the
// stream is active.
func (s *Service) GetStream(ctx context.Context, id, callerID int64, role domain.Role) (*StreamView, error) {
	st, err := s.getStream(ctx, id)
	if err != nil {
		return nil, err
	}

	isDJ, err := s.isStreamDJ(ctx, st, callerID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && !isDJ && st.HostID != callerID {
		return nil, ErrForbidden
	}

	view := &StreamView{Stream: st}
	if isDJ {
		view.StreamKey = st.StreamKey
		view.IngestURL = st.IngestURL
	}

	if st.Status == domain.StreamActive {
		if h, err := s.live.GetHealth(ctx, st.ChannelID); err != nil {
			s.loggerf("level=warn msg=health fetch failed stream_id=%d channel_id=%s err=%v", st.ID, st.ChannelID, err)
		} else {
			viewers := h.ViewerCount
			view.LiveViewers = &viewers
			view.Health = h.State
			if viewers > st.ViewersPeak {
				if err := s.streams.UpdateViewersPeak(ctx, st.ID, viewers); err != nil {
					s.loggerf("level=warn msg=viewers peak update failed stream_id=%d err=%v", st.ID, err)
				}
			}
		}
	}

	return view, nil
}

// DeleteStream is admin-only housekeeping and refuses to touch an
// active stream. External teardown is best-effort: a provider failure
// must not leave the local record stuck forever.
func (s *Service) DeleteStream(ctx context.Context, id, callerID int64, role domain.Role) error {
	if role != domain.RoleAdmin {
		return ErrForbidden
	}

	st, err := s.getStream(ctx, id)
	if err != nil {
		return err
	}
	if st.Status == domain.StreamActive {
		return ErrConflict
	}

	if st.ChannelID != "" {
		if err := s.live.DeleteChannel(ctx, st.ChannelID); err != nil {
			s.loggerf("level=warn msg=channel teardown failed stream_id=%d channel_id=%s caller_id=%d err=%v", st.ID, st.ChannelID, callerID, err)
		}
	}

	return s.streams.Delete(ctx, st.ID)
}

func (s *Service) getStream(ctx context.Context, id int64) (*domain.Stream, error) {
	st, err := s.streams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *Service) isStreamDJ(ctx context.Context, st *domain.Stream, userID int64) (bool, error) {
	profile, err := s.profiles.GetByID(ctx, st.DJProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return profile.UserID == userID, nil
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
