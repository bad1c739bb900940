package handlers

import (
	"net/http"
	"time"

	"example.com/registrar/internal/api/middleware"
	"example.com/registrar/internal/services"
	"example.com/registrar/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	events *services.EventService
	tracer tracing.Tracer
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService, tracer tracing.Tracer) *EventHandler {
	return &EventHandler{
		events: events,
		tracer: tracer,
	}
}

// CreateEventRequest represents an event creation request
type CreateEventRequest struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description" binding:"required"`
	Date            time.Time `json:"date" binding:"required"`
	Time            string    `json:"time" binding:"required"`
	Location        string    `json:"location" binding:"required"`
	Image           *string   `json:"image"`
	MaxParticipants int       `json:"max_participants"`
	IsFree          *bool     `json:"is_free" binding:"required"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
}

// CreateEvent creates a new event owned by the calling admin
func (h *EventHandler) CreateEvent(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-event")
	defer h.tracer.EndTransaction(txn)

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, _ := middleware.GetClaims(c)
	input := services.CreateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Time:            req.Time,
		Location:        req.Location,
		Image:           req.Image,
		MaxParticipants: req.MaxParticipants,
		IsFree:          *req.IsFree,
		Price:           req.Price,
		Currency:        req.Currency,
	}

	event, err := h.events.CreateEvent(c, claims.UserID, input)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// ListEvents returns all active events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.events.ListActiveEvents(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEvent returns a single event by id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.events.GetEvent(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// ListOwnEvents returns events created by the calling admin
func (h *EventHandler) ListOwnEvents(c *gin.Context) {
	claims, _ := middleware.GetClaims(c)

	events, err := h.events.ListEventsByCreator(c, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// RegisterRoutes registers the handler's routes
func (h *EventHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/events", h.ListEvents)
	public.GET("/events/:eventId", h.GetEvent)
	admin.POST("/events", h.CreateEvent)
	admin.GET("/events", h.ListOwnEvents)
}
