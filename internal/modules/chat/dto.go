package chat

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

type HistoryQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}
