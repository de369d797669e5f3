package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// BookingPaymentStatus tracks money separately from the booking status;
// the two axes are cross-referenced by business rules, not merged into
// a single state machine.
type BookingPaymentStatus string

const (
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentFailed   BookingPaymentStatus = "failed"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

type Booking struct {
	ID            int64                `json:"id"`
	HostID        int64                `json:"host_id"`
	DJProfileID   int64                `json:"dj_profile_id"`
	StartTime     time.Time            `json:"start_time"`
	EndTime       time.Time            `json:"end_time"`
	DurationHours float64              `json:"duration_hours"`
	TotalAmount   float64              `json:"total_amount"`
	Status        BookingStatus        `json:"status"`
	PaymentStatus BookingPaymentStatus `json:"payment_status"`
	Notes         string               `json:"notes,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`

	Host      *User      `json:"host,omitempty"`
	DJProfile *DJProfile `json:"dj_profile,omitempty"`
}

// Terminal reports whether the booking can no longer change status.
func (b *Booking) Terminal() bool {
	return b.Status == BookingCancelled || b.Status == BookingCompleted
}
