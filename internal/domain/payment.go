package domain

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

type Payment struct {
	ID        int64   `json:"id"`
	BookingID int64   `json:"booking_id"`
	Amount    float64 `json:"amount"`
	// ServiceFee is the platform commission charged on top of Amount.
	ServiceFee   float64       `json:"service_fee"`
	TotalCharged float64       `json:"total_charged"`
	Status       PaymentStatus `json:"status"`

	// References into the external payments provider.
	IntentID   string `json:"intent_id"`
	CustomerID string `json:"-"`

	FailureReason string     `json:"failure_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
