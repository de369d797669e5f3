package stream

import "partystream/internal/domain"

type CreateStreamRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// StreamView is the role-filtered read model: ingest credentials are
// present only for the stream's DJ, live metrics only while active and
// only when the provider answered.
type StreamView struct {
	*domain.Stream

	StreamKey string `json:"stream_key,omitempty"`
	IngestURL string `json:"ingest_url,omitempty"`

	LiveViewers *int   `json:"live_viewers,omitempty"`
	Health      string `json:"health,omitempty"`
}
