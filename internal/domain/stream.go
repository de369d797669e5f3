package domain

import "time"

type StreamStatus string

const (
	StreamCreated StreamStatus = "created"
	StreamActive  StreamStatus = "active"
	StreamEnded   StreamStatus = "ended"
	StreamFailed  StreamStatus = "failed"
)

// Live reports whether the stream still occupies its booking. At most one
// stream in a live state may exist per booking.
func (s StreamStatus) Live() bool {
	return s == StreamCreated || s == StreamActive
}

type Stream struct {
	ID          int64        `json:"id"`
	BookingID   int64        `json:"booking_id"`
	DJProfileID int64        `json:"dj_profile_id"`
	HostID      int64        `json:"host_id"`
	Status      StreamStatus `json:"status"`

	// References into the managed live-video service.
	ChannelID   string `json:"channel_id"`
	StreamKey   string `json:"-"`
	IngestURL   string `json:"-"`
	PlaybackURL string `json:"playback_url"`

	// ViewersPeak is a monotonic high-water mark, updated best-effort
	// from the provider's live session metrics.
	ViewersPeak int        `json:"viewers_peak"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
