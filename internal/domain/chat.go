package domain

import "time"

// ChatMessage is one entry in a booking's append-only message log.
// Ordering is persisted timestamp order; no editing or deletion.
type ChatMessage struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"booking_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
