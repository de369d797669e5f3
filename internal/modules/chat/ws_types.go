package chat

import "partystream/internal/domain"

type WSClientMessage struct {
	Type      string `json:"type"`
	BookingID int64  `json:"booking_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type WSServerMessage struct {
	Type         string              `json:"type"`
	BookingID    int64               `json:"booking_id,omitempty"`
	Message      *domain.ChatMessage `json:"message,omitempty"`
	UserID       int64               `json:"user_id,omitempty"`
	ErrorCode    string              `json:"code,omitempty"`
	ErrorMessage string              `json:"error,omitempty"`
}

func NewJoinedEvent(bookingID, userID int64) *WSServerMessage {
	return &WSServerMessage{Type: "joined", BookingID: bookingID, UserID: userID}
}

func NewLeftEvent(bookingID, userID int64) *WSServerMessage {
	return &WSServerMessage{Type: "left", BookingID: bookingID, UserID: userID}
}

func NewMessageEvent(bookingID int64, msg *domain.ChatMessage) *WSServerMessage {
	return &WSServerMessage{Type: "message", BookingID: bookingID, Message: msg}
}

func NewPongEvent() *WSServerMessage {
	return &WSServerMessage{Type: "pong"}
}

func NewErrorEvent(code, message string) *WSServerMessage {
	return &WSServerMessage{Type: "error", ErrorCode: code, ErrorMessage: message}
}
