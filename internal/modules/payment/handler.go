package payment

import (
	"errors"
	"io"
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

// RegisterWebhookRoute is public; the signature header is the only
// authentication the provider offers.
func (h *Handler) RegisterWebhookRoute(rg *gin.RouterGroup) {
	rg.POST("/payments/webhook", h.Webhook)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	rg.POST("/payments/create-intent", h.CreateIntent)
	rg.GET("/payments/booking/:bookingId", h.ListForBooking)
	rg.POST("/payments/:id/refund", adminOnly, h.Refund)
}

func (h *Handler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	res, err := h.service.CreateIntent(c.Request.Context(), c.GetInt64("user_id"), callerRole(c), req.BookingID)
	if err != nil {
		h.writeError(c, err, "Failed to create payment intent")
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Webhook always acknowledges once the signature verifies; anything
// else would make the provider retry-storm the endpoint.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unreadable payload")
		return
	}

	sig := c.GetHeader("Webhook-Signature")
	if sig == "" {
		sig = c.GetHeader("Stripe-Signature")
	}

	if err := h.service.HandleWebhook(c.Request.Context(), payload, sig); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid signature")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) Refund(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment ID")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err.Error())
		return
	}

	p, err := h.service.Refund(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		h.writeError(c, err, "Failed to refund payment")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) ListForBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("bookingId"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking ID")
		return
	}

	payments, err := h.service.ListForBooking(c.Request.Context(), bookingID, c.GetInt64("user_id"), callerRole(c))
	if err != nil {
		h.writeError(c, err, "Failed to list payments")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Payment or booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to do this")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "CONFLICT", "Booking cannot be paid in its current state")
	case errors.Is(err, ErrExternal):
		response.Error(c, http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR", "Payment provider is unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func callerRole(c *gin.Context) domain.Role {
	return domain.Role(c.GetString("role"))
}
