package dj

type UpsertProfileRequest struct {
	StageName  string   `json:"stage_name" binding:"required"`
	Bio        string   `json:"bio"`
	HourlyRate float64  `json:"hourly_rate" binding:"required,gt=0"`
	Genres     []string `json:"genres"`
	Languages  []string `json:"languages"`
}

type SearchQuery struct {
	Genre    string  `form:"genre"`
	Language string  `form:"language"`
	MinRate  float64 `form:"min_rate"`
	MaxRate  float64 `form:"max_rate"`
	Limit    int     `form:"limit"`
	Offset   int     `form:"offset"`
}
