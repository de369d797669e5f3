package stream

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
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/streams", h.Create)
	rg.GET("/streams/:id", h.Get)
	rg.PATCH("/streams/:id/start", h.Start)
	rg.PATCH("/streams/:id/end", h.End)
	rg.DELETE("/streams/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	st, err := h.service.CreateStream(c.Request.Context(), c.GetInt64("user_id"), callerRole(c), req.BookingID)
	if err != nil {
		h.writeError(c, err, "Failed to create stream")
		return
	}

	// The creating DJ gets the ingest material in the create response.
	view := &StreamView{Stream: st, StreamKey: st.StreamKey, IngestURL: st.IngestURL}
	response.Success(c, http.StatusCreated, gin.H{"stream": view})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := streamID(c)
	if !ok {
		return
	}

	view, err := h.service.GetStream(c.Request.Context(), id, c.GetInt64("user_id"), callerRole(c))
	if err != nil {
		h.writeError(c, err, "Failed to load stream")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stream": view})
}

func (h *Handler) Start(c *gin.Context) {
	id, ok := streamID(c)
	if !ok {
		return
	}

	st, err := h.service.StartStream(c.Request.Context(), id, c.GetInt64("user_id"), callerRole(c))
	if err != nil {
		h.writeError(c, err, "Failed to start stream")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stream": st})
}

func (h *Handler) End(c *gin.Context) {
	id, ok := streamID(c)
	if !ok {
		return
	}

	st, err := h.service.EndStream(c.Request.Context(), id, c.GetInt64("user_id"), callerRole(c))
	if err != nil {
		h.writeError(c, err, "Failed to end stream")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stream": st})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := streamID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteStream(c.Request.Context(), id, c.GetInt64("user_id"), callerRole(c)); err != nil {
		h.writeError(c, err, "Failed to delete stream")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func streamID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid stream ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Booking is not ready for streaming")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Stream or booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to do this")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "CONFLICT", "Stream state does not allow this operation")
	case errors.Is(err, ErrExternal):
		response.Error(c, http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR", "Streaming provider is unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func callerRole(c *gin.Context) domain.Role {
	return domain.Role(c.GetString("role"))
}
