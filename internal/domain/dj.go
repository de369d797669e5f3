package domain

import "time"

// DJProfile is the bookable side of a dj-role user. Exactly one profile
// exists per dj user; HourlyRate drives booking price calculation.
type DJProfile struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	StageName  string    `json:"stage_name"`
	Bio        string    `json:"bio,omitempty"`
	HourlyRate float64   `json:"hourly_rate"`
	Genres     []string  `json:"genres"`
	Languages  []string  `json:"languages"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	User *User `json:"user,omitempty"`
}
