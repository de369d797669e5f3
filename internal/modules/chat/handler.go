package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"partystream/internal/domain"
	"partystream/internal/pkg/response"
)

type Handler struct {
	service *Service
	hub     *Hub
}

func NewHandler(service *Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	chatGroup := rg.Group("/chat")
	{
		chatGroup.GET("/bookings/:id/messages", h.History)
		chatGroup.POST("/bookings/:id/messages", h.SendMessage)
	}
}

func (h *Handler) History(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking ID")
		return
	}

	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	msgs, err := h.service.History(c.Request.Context(), bookingID, c.GetInt64("user_id"), callerRole(c), q.Limit, q.Offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage is the REST fallback for clients without a socket. The
// message is persisted first; room fan-out is best effort.
func (h *Handler) SendMessage(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking ID")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Message content is required")
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), bookingID, c.GetInt64("user_id"), callerRole(c), req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.hub.Broadcast(bookingID, NewMessageEvent(bookingID, msg))

	response.Success(c, http.StatusCreated, gin.H{"message": msg})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid message")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this booking")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process chat request")
	}
}

func callerRole(c *gin.Context) domain.Role {
	return domain.Role(c.GetString("role"))
}
