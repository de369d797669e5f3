package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"partystream/internal/domain"
	"partystream/internal/payments"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	if p != nil {
		p.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*domain.Payment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) HasSucceededForBooking(ctx context.Context, bookingID int64) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) MarkSucceededIdempotent(ctx context.Context, intentID string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, intentID, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, intentID, reason string) error {
	args := m.Called(ctx, intentID, reason)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkRefunded(ctx context.Context, id int64, refundedAt time.Time) error {
	args := m.Called(ctx, id, refundedAt)
	return args.Error(0)
}

// MockBookingStore covers both the reader and writer slices.
type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingStore) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockBookingStore) UpdatePaymentStatus(ctx context.Context, id int64, status domain.BookingPaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockProfileReader struct {
	mock.Mock
}

func (m *MockProfileReader) GetByID(ctx context.Context, id int64) (*domain.DJProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DJProfile), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	args := m.Called(ctx, email, name)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) CreateIntent(ctx context.Context, customerID string, amountCents int64, currency string, metadata map[string]string) (*payments.Intent, error) {
	args := m.Called(ctx, customerID, amountCents, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *MockProvider) RefundIntent(ctx context.Context, intentID string, amountCents int64, reason string) (*payments.Refund, error) {
	args := m.Called(ctx, intentID, amountCents, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Refund), args.Error(1)
}

func (m *MockProvider) VerifySignature(payload []byte, header string) error {
	args := m.Called(payload, header)
	return args.Error(0)
}

type paymentFixture struct {
	payments *MockPaymentRepository
	bookings *MockBookingStore
	users    *MockUserReader
	profiles *MockProfileReader
	provider *MockProvider
	svc      *Service
}

func newFixture() *paymentFixture {
	f := &paymentFixture{
		payments: new(MockPaymentRepository),
		bookings: new(MockBookingStore),
		users:    new(MockUserReader),
		profiles: new(MockProfileReader),
		provider: new(MockProvider),
	}
	f.svc = NewService(f.payments, f.bookings, f.bookings, f.users, f.profiles, f.provider, 10, nil)
	f.svc.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func confirmedBooking() *domain.Booking {
	return &domain.Booking{
		ID: 3, HostID: 7, DJProfileID: 5,
		TotalAmount: 100,
		Status:      domain.BookingConfirmed,
	}
}

func TestService_CreateIntent_AddsServiceFee(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(3)).Return(confirmedBooking(), nil)
	f.payments.On("HasSucceededForBooking", mock.Anything, int64(3)).Return(false, nil)
	f.users.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Email: "host@example.com", Name: "Host"}, nil)
	f.provider.On("EnsureCustomer", mock.Anything, "host@example.com", "Host").Return("cus_1", nil)
	f.provider.On("CreateIntent", mock.Anything, "cus_1", int64(11000), "usd", mock.Anything).
		Return(&payments.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil)
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)

	res, err := f.svc.CreateIntent(context.Background(), 7, domain.RoleHost, 3)

	assert.NoError(t, err)
	assert.Equal(t, 100.0, res.Payment.Amount)
	assert.Equal(t, 10.0, res.Payment.ServiceFee)
	assert.Equal(t, 110.0, res.Payment.TotalCharged)
	assert.Equal(t, domain.PaymentPending, res.Payment.Status)
	assert.Equal(t, "pi_1", res.Payment.IntentID)
	assert.Equal(t, "pi_1_secret", res.ClientSecret)
}

func TestService_CreateIntent_OnlyBookingHost(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(3)).Return(confirmedBooking(), nil)

	_, err := f.svc.CreateIntent(context.Background(), 99, domain.RoleHost, 3)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_CreateIntent_RejectsTerminalBooking(t *testing.T) {
	f := newFixture()

	b := confirmedBooking()
	b.Status = domain.BookingCancelled
	f.bookings.On("GetByID", mock.Anything, int64(3)).Return(b, nil)

	_, err := f.svc.CreateIntent(context.Background(), 7, domain.RoleHost, 3)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_CreateIntent_RejectsAlreadyPaid(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(3)).Return(confirmedBooking(), nil)
	f.payments.On("HasSucceededForBooking", mock.Anything, int64(3)).Return(true, nil)

	_, err := f.svc.CreateIntent(context.Background(), 7, domain.RoleHost, 3)
	assert.ErrorIs(t, err, ErrConflict)
	f.provider.AssertNotCalled(t, "CreateIntent")
}

func TestService_CreateIntent_ProviderFailure(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(3)).Return(confirmedBooking(), nil)
	f.payments.On("HasSucceededForBooking", mock.Anything, int64(3)).Return(false, nil)
	f.users.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Email: "host@example.com"}, nil)
	f.provider.On("EnsureCustomer", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	_, err := f.svc.CreateIntent(context.Background(), 7, domain.RoleHost, 3)
	assert.ErrorIs(t, err, ErrExternal)
	f.payments.AssertNotCalled(t, "Create")
}

func TestService_HandleWebhook_BadSignatureFailsClosed(t *testing.T) {
	f := newFixture()

	payload := []byte(`{"type":"payment_intent.succeeded"}`)
	f.provider.On("VerifySignature", payload, "bad").Return(payments.ErrInvalidSignature)

	err := f.svc.HandleWebhook(context.Background(), payload, "bad")
	assert.ErrorIs(t, err, payments.ErrInvalidSignature)
	f.payments.AssertNotCalled(t, "MarkSucceededIdempotent")
}

func TestService_HandleWebhook_SucceededConfirmsPendingBooking(t *testing.T) {
	f := newFixture()

	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded"}}}`)
	f.provider.On("VerifySignature", payload, "sig").Return(nil)
	f.payments.On("GetByIntentID", mock.Anything, "pi_1").
		Return(&domain.Payment{ID: 9, BookingID: 3, IntentID: "pi_1", Status: domain.PaymentPending}, nil)
	f.payments.On("MarkSucceededIdempotent", mock.Anything, "pi_1", mock.Anything).Return(true, nil)
	f.bookings.On("UpdatePaymentStatus", mock.Anything, int64(3), domain.BookingPaymentPaid).Return(nil)
	f.bookings.On("GetByID", mock.Anything, int64(3)).
		Return(&domain.Booking{ID: 3, Status: domain.BookingPending}, nil)
	f.bookings.On("UpdateStatus", mock.Anything, int64(3), domain.BookingConfirmed).Return(nil)

	err := f.svc.HandleWebhook(context.Background(), payload, "sig")
	assert.NoError(t, err)
	f.bookings.AssertCalled(t, "UpdateStatus", mock.Anything, int64(3), domain.BookingConfirmed)
}

func TestService_HandleWebhook_ReplayIsIdempotent(t *testing.T) {
	f := newFixture()

	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	f.provider.On("VerifySignature", payload, "sig").Return(nil)
	f.payments.On("GetByIntentID", mock.Anything, "pi_1").
		Return(&domain.Payment{ID: 9, BookingID: 3, IntentID: "pi_1", Status: domain.PaymentSucceeded}, nil)
	f.payments.On("MarkSucceededIdempotent", mock.Anything, "pi_1", mock.Anything).Return(false, nil)

	err := f.svc.HandleWebhook(context.Background(), payload, "sig")
	assert.NoError(t, err)
	f.bookings.AssertNotCalled(t, "UpdatePaymentStatus")
	f.bookings.AssertNotCalled(t, "UpdateStatus")
}

func TestService_HandleWebhook_UnknownIntentAcknowledged(t *testing.T) {
	f := newFixture()

	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_ghost"}}}`)
	f.provider.On("VerifySignature", payload, "sig").Return(nil)
	f.payments.On("GetByIntentID", mock.Anything, "pi_ghost").Return(nil, gorm.ErrRecordNotFound)

	err := f.svc.HandleWebhook(context.Background(), payload, "sig")
	assert.NoError(t, err)
	f.payments.AssertNotCalled(t, "MarkSucceededIdempotent")
}

func TestService_HandleWebhook_FailedRecordsReason(t *testing.T) {
	f := newFixture()

	payload := []byte(`{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","last_payment_error":"card_declined"}}}`)
	f.provider.On("VerifySignature", payload, "sig").Return(nil)
	f.payments.On("MarkFailed", mock.Anything, "pi_1", "card_declined").Return(nil)

	err := f.svc.HandleWebhook(context.Background(), payload, "sig")
	assert.NoError(t, err)
	f.payments.AssertCalled(t, "MarkFailed", mock.Anything, "pi_1", "card_declined")
}

func TestService_HandleWebhook_UnknownTypeIgnored(t *testing.T) {
	f := newFixture()

	payload := []byte(`{"type":"charge.updated","data":{"object":{"id":"ch_1"}}}`)
	f.provider.On("VerifySignature", payload, "sig").Return(nil)

	err := f.svc.HandleWebhook(context.Background(), payload, "sig")
	assert.NoError(t, err)
	f.payments.AssertNotCalled(t, "MarkFailed")
	f.payments.AssertNotCalled(t, "MarkSucceededIdempotent")
}

func TestService_Refund_CancelsNonCompletedBooking(t *testing.T) {
	f := newFixture()

	p := &domain.Payment{ID: 9, BookingID: 3, IntentID: "pi_1", Status: domain.PaymentSucceeded, TotalCharged: 110}
	f.payments.On("GetByID", mock.Anything, int64(9)).Return(p, nil)
	f.provider.On("RefundIntent", mock.Anything, "pi_1", int64(0), "requested_by_customer").
		Return(&payments.Refund{ID: "re_1", Status: "succeeded"}, nil)
	f.payments.On("MarkRefunded", mock.Anything, int64(9), mock.Anything).Return(nil)
	f.bookings.On("UpdatePaymentStatus", mock.Anything, int64(3), domain.BookingPaymentRefunded).Return(nil)
	f.bookings.On("GetByID", mock.Anything, int64(3)).
		Return(&domain.Booking{ID: 3, Status: domain.BookingConfirmed}, nil)
	f.bookings.On("UpdateStatus", mock.Anything, int64(3), domain.BookingCancelled).Return(nil)

	_, err := f.svc.Refund(context.Background(), 9, 0, "requested_by_customer")
	assert.NoError(t, err)
	f.bookings.AssertCalled(t, "UpdateStatus", mock.Anything, int64(3), domain.BookingCancelled)
}

func TestService_Refund_CompletedBookingStaysCompleted(t *testing.T) {
	f := newFixture()

	p := &domain.Payment{ID: 9, BookingID: 3, IntentID: "pi_1", Status: domain.PaymentSucceeded, TotalCharged: 110}
	f.payments.On("GetByID", mock.Anything, int64(9)).Return(p, nil)
	f.provider.On("RefundIntent", mock.Anything, "pi_1", int64(0), "").
		Return(&payments.Refund{ID: "re_1"}, nil)
	f.payments.On("MarkRefunded", mock.Anything, int64(9), mock.Anything).Return(nil)
	f.bookings.On("UpdatePaymentStatus", mock.Anything, int64(3), domain.BookingPaymentRefunded).Return(nil)
	f.bookings.On("GetByID", mock.Anything, int64(3)).
		Return(&domain.Booking{ID: 3, Status: domain.BookingCompleted}, nil)

	_, err := f.svc.Refund(context.Background(), 9, 0, "")
	assert.NoError(t, err)
	f.bookings.AssertNotCalled(t, "UpdateStatus")
}

func TestService_Refund_AlreadyRefunded(t *testing.T) {
	f := newFixture()

	p := &domain.Payment{ID: 9, BookingID: 3, IntentID: "pi_1", Status: domain.PaymentRefunded, TotalCharged: 110}
	f.payments.On("GetByID", mock.Anything, int64(9)).Return(p, nil)

	_, err := f.svc.Refund(context.Background(), 9, 0, "")
	assert.ErrorIs(t, err, ErrConflict)
	f.provider.AssertNotCalled(t, "RefundIntent")
}

func TestService_Refund_AmountAboveChargeRejected(t *testing.T) {
	f := newFixture()

	p := &domain.Payment{ID: 9, BookingID: 3, IntentID: "pi_1", Status: domain.PaymentSucceeded, TotalCharged: 110}
	f.payments.On("GetByID", mock.Anything, int64(9)).Return(p, nil)

	_, err := f.svc.Refund(context.Background(), 9, 500, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_ListForBooking_ParticipantsOnly(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(3)).Return(confirmedBooking(), nil)
	f.profiles.On("GetByID", mock.Anything, int64(5)).Return(&domain.DJProfile{ID: 5, UserID: 42}, nil)
	f.payments.On("ListByBooking", mock.Anything, int64(3)).Return([]domain.Payment{{ID: 9}}, nil)

	got, err := f.svc.ListForBooking(context.Background(), 3, 42, domain.RoleDJ)
	assert.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.ListForBooking(context.Background(), 3, 99, domain.RoleHost)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(11000), toCents(110))
	assert.Equal(t, int64(10050), toCents(100.5))
	assert.Equal(t, int64(33), toCents(0.33))
}
