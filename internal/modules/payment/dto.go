package payment

import "partystream/internal/domain"

type CreateIntentRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

type CreateIntentResponse struct {
	Payment      *domain.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret"`
}

type RefundRequest struct {
	// Amount defaults to the full original charge when omitted.
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}
