package handlers

import (
	"net/http"
	"time"

	"example.com/registrar/internal/api/middleware"
	"example.com/registrar/internal/services"
	"example.com/registrar/internal/tracing"

	"github.com/gin-gonic/gin"
)

const dateQueryLayout = "2006-01-02"

// AnalyticsHandler handles reporting and dashboard HTTP requests
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	tracer    tracing.Tracer
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *services.AnalyticsService, tracer tracing.Tracer) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		tracer:    tracer,
	}
}

// GetAnalytics returns the aggregate report, optionally bounded by
// start_date and end_date query parameters (YYYY-MM-DD)
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-analytics")
	defer h.tracer.EndTransaction(txn)

	var from, to *time.Time
	if start := c.Query("start_date"); start != "" {
		parsed, err := time.Parse(dateQueryLayout, start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		from = &parsed
	}
	if end := c.Query("end_date"); end != "" {
		parsed, err := time.Parse(dateQueryLayout, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		// Include the whole end day
		bounded := parsed.Add(24*time.Hour - time.Nanosecond)
		to = &bounded
	}
	if (from == nil) != (to == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date must be provided together"})
		return
	}

	report, err := h.analytics.GetAnalytics(c, from, to)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetAdminDashboard returns the admin landing view
func (h *AnalyticsHandler) GetAdminDashboard(c *gin.Context) {
	claims, _ := middleware.GetClaims(c)

	dashboard, err := h.analytics.GetAdminDashboard(c, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetUserDashboard returns the calling user's landing view
func (h *AnalyticsHandler) GetUserDashboard(c *gin.Context) {
	claims, _ := middleware.GetClaims(c)

	dashboard, err := h.analytics.GetUserDashboard(c, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// RegisterRoutes registers the handler's routes
func (h *AnalyticsHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.GET("/dashboard", h.GetUserDashboard)
	admin.GET("/dashboard", h.GetAdminDashboard)
	admin.GET("/analytics", h.GetAnalytics)
}
