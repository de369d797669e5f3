package booking

import "time"

type CreateBookingRequest struct {
	DJProfileID int64     `json:"dj_profile_id" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Notes       string    `json:"notes"`
}

// UpdateBookingRequest patches a booking; nil fields are left alone.
// Changing either endpoint re-runs validation and the conflict check.
type UpdateBookingRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Notes     *string    `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
