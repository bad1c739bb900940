package handlers

import (
	"net/http"

	"example.com/registrar/internal/api/middleware"
	"example.com/registrar/internal/gateway"
	"example.com/registrar/internal/services"
	"example.com/registrar/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegistrationHandler handles registration lifecycle HTTP requests
type RegistrationHandler struct {
	registrations *services.RegistrationService
	tracer        tracing.Tracer
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations *services.RegistrationService, tracer tracing.Tracer) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		tracer:        tracer,
	}
}

// RegisterRequest represents an event sign-up request. Payment fields are
// required for paid events and ignored for free ones.
type RegisterRequest struct {
	Amount  float64              `json:"amount"`
	Payment *gateway.CardDetails `json:"payment"`
}

// DecideRequest represents an admin approve/reject request
type DecideRequest struct {
	RegistrationID uuid.UUID `json:"registration_id" binding:"required"`
	Decision       string    `json:"decision" binding:"required"`
	Message        string    `json:"message"`
}

// Register signs the calling user up for an event
func (h *RegistrationHandler) Register(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-register")
	defer h.tracer.EndTransaction(txn)

	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	// The body is optional: free events need none
	var req RegisterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	claims, _ := middleware.GetClaims(c)
	h.tracer.AddAttribute(txn, "event_id", eventID.String())

	reg, err := h.registrations.CreateRegistration(c, claims.UserID, eventID, req.Payment, req.Amount)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reg)
}

// ListOwn returns the calling user's registrations
func (h *RegistrationHandler) ListOwn(c *gin.Context) {
	claims, _ := middleware.GetClaims(c)

	regs, err := h.registrations.GetUserRegistrations(c, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}

// ListByStatus returns registrations in a given approval status for review
func (h *RegistrationHandler) ListByStatus(c *gin.Context) {
	regs, err := h.registrations.ListByStatus(c, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}

// Decide applies an approve/reject decision to a pending registration
func (h *RegistrationHandler) Decide(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-decide-registration")
	defer h.tracer.EndTransaction(txn)

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, _ := middleware.GetClaims(c)
	h.tracer.AddAttribute(txn, "registration_id", req.RegistrationID.String())
	h.tracer.AddAttribute(txn, "decision", req.Decision)

	reg, err := h.registrations.DecideRegistration(c, claims.UserID, req.RegistrationID, req.Decision, req.Message)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// RegisterRoutes registers the handler's routes
func (h *RegistrationHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.POST("/events/:eventId/register", h.Register)
	authed.GET("/registrations", h.ListOwn)
	admin.GET("/registrations", h.ListByStatus)
	admin.POST("/registrations/decide", h.Decide)
}
