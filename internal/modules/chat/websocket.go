package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"partystream/internal/domain"
	"partystream/internal/pkg/jwt"
)

const maxMsgSize = 512 * 1024 // 512 KB

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS layer for the REST surface;
	// socket clients authenticate with the token instead.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub        *Hub
	jwtService *jwt.Service
	service    *Service
}

func NewWSHandler(hub *Hub, jwtService *jwt.Service, service *Service) *WSHandler {
	return &WSHandler{
		hub:        hub,
		jwtService: jwtService,
		service:    service,
	}
}

// HandleWebSocket serves GET /ws/chat?token=JWT. Browsers cannot set
// headers on a socket handshake, so the token travels as a query param.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required. Use ?token=YOUR_JWT_TOKEN"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("level=error msg=websocket upgrade failed err=%v", err)
		return
	}

	client := h.hub.Register(conn, claims.UserID)
	defer h.hub.Unregister(client)

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	h.readLoop(conn, client, domain.Role(claims.Role))
}

// readLoop owns all reads. Replies never touch the connection directly;
// they go through the client's send queue so the write pump stays the
// single writer.
func (h *WSHandler) readLoop(conn *websocket.Conn, client *Client, role domain.Role) {
	for {
		_, rawMsg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("level=warn msg=websocket read failed user_id=%d err=%v", client.userID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg WSClientMessage
		if err := json.Unmarshal(rawMsg, &msg); err != nil {
			h.sendError(client, "INVALID_JSON", "Failed to parse message")
			continue
		}

		switch msg.Type {
		case "join":
			h.handleJoin(client, role, msg)
		case "leave":
			h.handleLeave(client, msg)
		case "message":
			h.handleMessage(client, role, msg)
		case "ping":
			client.Send(NewPongEvent())
		default:
			h.sendError(client, "UNKNOWN_TYPE", "Unknown message type: "+msg.Type)
		}
	}
}

func (h *WSHandler) handleJoin(client *Client, role domain.Role, msg WSClientMessage) {
	if msg.BookingID <= 0 {
		h.sendError(client, "INVALID_BOOKING", "booking_id is required")
		return
	}

	if err := h.service.Authorize(context.Background(), msg.BookingID, client.userID, role); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.sendError(client, "NOT_FOUND", "Booking not found")
		case errors.Is(err, ErrForbidden):
			h.sendError(client, "FORBIDDEN", "You are not a participant of this booking")
		default:
			h.sendError(client, "JOIN_FAILED", "Failed to join room")
		}
		return
	}

	h.hub.Join(msg.BookingID, client)
	h.hub.Broadcast(msg.BookingID, NewJoinedEvent(msg.BookingID, client.userID))
}

func (h *WSHandler) handleLeave(client *Client, msg WSClientMessage) {
	if msg.BookingID <= 0 {
		return
	}
	h.hub.Leave(msg.BookingID, client)
	h.hub.Broadcast(msg.BookingID, NewLeftEvent(msg.BookingID, client.userID))
}

func (h *WSHandler) handleMessage(client *Client, role domain.Role, msg WSClientMessage) {
	if msg.BookingID <= 0 {
		h.sendError(client, "INVALID_BOOKING", "booking_id is required")
		return
	}
	if msg.Content == "" {
		h.sendError(client, "EMPTY_CONTENT", "content is required")
		return
	}

	newMsg, err := h.service.SendMessage(context.Background(), msg.BookingID, client.userID, role, msg.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			h.sendError(client, "INVALID_CONTENT", "Message content is invalid")
		case errors.Is(err, ErrForbidden):
			h.sendError(client, "FORBIDDEN", "You are not a participant of this booking")
		case errors.Is(err, ErrNotFound):
			h.sendError(client, "NOT_FOUND", "Booking not found")
		default:
			h.sendError(client, "SEND_FAILED", "Failed to send message")
		}
		return
	}

	h.hub.Broadcast(msg.BookingID, NewMessageEvent(msg.BookingID, newMsg))
}

func (h *WSHandler) sendError(client *Client, code, message string) {
	client.Send(NewErrorEvent(code, message))
}
