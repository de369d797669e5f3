package payment

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"gorm.io/gorm"

	"partystream/internal/domain"
	"partystream/internal/payments"
)

type Service struct {
	payments PaymentRepository
	bookings bookingReader
	bkWriter bookingWriter
	users    userReader
	profiles profileReader
	provider provider

	feePercent float64
	loggerf    func(format string, args ...interface{})
	now        func() time.Time
}

func NewService(
	paymentRepo PaymentRepository,
	bookings bookingReader,
	bkWriter bookingWriter,
	users userReader,
	profiles profileReader,
	prov provider,
	feePercent float64,
	loggerf func(format string, args ...interface{}),
) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		payments:   paymentRepo,
		bookings:   bookings,
		bkWriter:   bkWriter,
		users:      users,
		profiles:   profiles,
		provider:   prov,
		feePercent: feePercent,
		loggerf:    loggerf,
		now:        time.Now,
	}
}

// CreateIntent opens a payment for a booking: service fee on top of the
// booking amount, a provider intent for the sum, and a local pending
// payment row. A booking that already has a succeeded payment cannot be
// paid again.
func (s *Service) CreateIntent(ctx context.Context, callerID int64, role domain.Role, bookingID int64) (*CreateIntentResponse, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if role != domain.RoleAdmin && b.HostID != callerID {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
		return nil, ErrConflict
	}

	paid, err := s.payments.HasSucceededForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, ErrConflict
	}

	fee := round2(b.TotalAmount * s.feePercent / 100)
	total := round2(b.TotalAmount + fee)

	host, err := s.users.GetByID(ctx, b.HostID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.provider.EnsureCustomer(ctx, host.Email, host.Name)
	if err != nil {
		s.loggerf("level=error msg=customer creation failed booking_id=%d host_id=%d err=%v", bookingID, b.HostID, err)
		return nil, ErrExternal
	}

	intent, err := s.provider.CreateIntent(ctx, customerID, toCents(total), "usd", map[string]string{
		"booking_id": strconv.FormatInt(bookingID, 10),
	})
	if err != nil {
		s.loggerf("level=error msg=intent creation failed booking_id=%d err=%v", bookingID, err)
		return nil, ErrExternal
	}

	p := &domain.Payment{
		BookingID:    bookingID,
		Amount:       b.TotalAmount,
		ServiceFee:   fee,
		TotalCharged: total,
		Status:       domain.PaymentPending,
		IntentID:     intent.ID,
		CustomerID:   customerID,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	return &CreateIntentResponse{Payment: p, ClientSecret: intent.ClientSecret}, nil
}

// HandleWebhook reconciles asynchronous provider callbacks. The
// signature check fails closed; after it passes, processing problems
// are logged but never surfaced, so the provider does not retry-storm
// the endpoint. Replays are idempotent.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if err := s.provider.VerifySignature(payload, sigHeader); err != nil {
		s.loggerf("level=warn msg=webhook signature rejected err=%v", err)
		return err
	}

	ev, err := payments.ParseEvent(payload)
	if err != nil {
		s.loggerf("level=warn msg=webhook payload unparseable err=%v", err)
		return nil
	}

	switch ev.Type {
	case payments.EventIntentSucceeded:
		s.applySucceeded(ctx, ev.Data.Object.ID)
	case payments.EventIntentFailed:
		reason := ev.Data.Object.LastPaymentError
		if reason == "" {
			reason = ev.Data.Object.CancellationReason
		}
		if err := s.payments.MarkFailed(ctx, ev.Data.Object.ID, reason); err != nil {
			s.loggerf("level=error msg=mark failed errored intent_id=%s err=%v", ev.Data.Object.ID, err)
		}
	default:
		s.loggerf("level=info msg=webhook event ignored type=%s", ev.Type)
	}
	return nil
}

func (s *Service) applySucceeded(ctx context.Context, intentID string) {
	p, err := s.payments.GetByIntentID(ctx, intentID)
	if err != nil {
		// Unknown intent: acknowledged and dropped so the provider
		// stops redelivering.
		s.loggerf("level=warn msg=webhook for unknown intent intent_id=%s err=%v", intentID, err)
		return
	}

	changed, err := s.payments.MarkSucceededIdempotent(ctx, intentID, s.now().UTC())
	if err != nil {
		s.loggerf("level=error msg=mark succeeded errored intent_id=%s err=%v", intentID, err)
		return
	}
	if !changed {
		s.loggerf("level=info msg=webhook replay ignored intent_id=%s", intentID)
		return
	}

	if err := s.bkWriter.UpdatePaymentStatus(ctx, p.BookingID, domain.BookingPaymentPaid); err != nil {
		s.loggerf("level=error msg=booking payment status update failed booking_id=%d err=%v", p.BookingID, err)
	}

	b, err := s.bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		s.loggerf("level=error msg=booking lookup failed after payment booking_id=%d err=%v", p.BookingID, err)
		return
	}
	if b.Status == domain.BookingPending {
		if err := s.bkWriter.UpdateStatus(ctx, b.ID, domain.BookingConfirmed); err != nil {
			s.loggerf("level=error msg=auto confirmation failed booking_id=%d err=%v", b.ID, err)
		}
	}
}

// Refund issues a provider refund (full amount unless one is given),
// marks the payment and booking refunded, and cancels the booking
// unless it already completed.
func (s *Service) Refund(ctx context.Context, paymentID int64, amount float64, reason string) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.IntentID == "" {
		return nil, ErrValidation
	}
	if p.Status == domain.PaymentRefunded {
		return nil, ErrConflict
	}
	if amount < 0 || amount > p.TotalCharged {
		return nil, ErrValidation
	}

	if _, err := s.provider.RefundIntent(ctx, p.IntentID, toCents(amount), reason); err != nil {
		s.loggerf("level=error msg=refund failed payment_id=%d intent_id=%s err=%v", p.ID, p.IntentID, err)
		return nil, ErrExternal
	}

	if err := s.payments.MarkRefunded(ctx, p.ID, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.bkWriter.UpdatePaymentStatus(ctx, p.BookingID, domain.BookingPaymentRefunded); err != nil {
		s.loggerf("level=error msg=booking payment status update failed booking_id=%d err=%v", p.BookingID, err)
	}

	b, err := s.bookings.GetByID(ctx, p.BookingID)
	if err == nil && b.Status != domain.BookingCompleted {
		if err := s.bkWriter.UpdateStatus(ctx, b.ID, domain.BookingCancelled); err != nil {
			s.loggerf("level=error msg=booking cancellation after refund failed booking_id=%d err=%v", b.ID, err)
		}
	}

	return s.payments.GetByID(ctx, p.ID)
}

// ListForBooking returns a booking's payments to its participants.
func (s *Service) ListForBooking(ctx context.Context, bookingID, callerID int64, role domain.Role) ([]domain.Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if role != domain.RoleAdmin && b.HostID != callerID {
		profile, err := s.profiles.GetByID(ctx, b.DJProfileID)
		if err != nil || profile.UserID != callerID {
			return nil, ErrForbidden
		}
	}

	return s.payments.ListByBooking(ctx, bookingID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}
