package handlers

import (
	"net/http"

	"example.com/registrar/internal/api/middleware"
	"example.com/registrar/internal/services"
	"example.com/registrar/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles payment history and refund HTTP requests
type PaymentHandler struct {
	registrations *services.RegistrationService
	tracer        tracing.Tracer
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(registrations *services.RegistrationService, tracer tracing.Tracer) *PaymentHandler {
	return &PaymentHandler{
		registrations: registrations,
		tracer:        tracer,
	}
}

// RefundRequest represents an admin refund request
type RefundRequest struct {
	RegistrationID uuid.UUID `json:"registration_id" binding:"required"`
	Amount         float64   `json:"amount" binding:"required"`
}

// ListOwnPayments returns the calling user's payments with summary stats
func (h *PaymentHandler) ListOwnPayments(c *gin.Context) {
	claims, _ := middleware.GetClaims(c)

	payments, stats, err := h.registrations.GetPayments(c, &claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "stats": stats})
}

// ListAllPayments returns every payment with summary stats
func (h *PaymentHandler) ListAllPayments(c *gin.Context) {
	payments, stats, err := h.registrations.GetPayments(c, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "stats": stats})
}

// Refund refunds a completed payment and releases the seat
func (h *PaymentHandler) Refund(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-refund")
	defer h.tracer.EndTransaction(txn)

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, _ := middleware.GetClaims(c)
	h.tracer.AddAttribute(txn, "registration_id", req.RegistrationID.String())

	reg, err := h.registrations.RefundRegistration(c, claims.UserID, req.RegistrationID, req.Amount)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// RegisterRoutes registers the handler's routes
func (h *PaymentHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.GET("/payments", h.ListOwnPayments)
	admin.GET("/payments", h.ListAllPayments)
	admin.POST("/payments/refund", h.Refund)
}
