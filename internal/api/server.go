package api

import (
	"context"
	"net/http"
	"time"

	"example.com/registrar/config"
	"example.com/registrar/internal/api/handlers"
	"example.com/registrar/internal/api/middleware"
	"example.com/registrar/internal/auth"
	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/services"
	"example.com/registrar/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services bundles the domain services the server exposes
type Services struct {
	Users         *services.UserService
	Events        *services.EventService
	Registrations *services.RegistrationService
	Analytics     *services.AnalyticsService
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	services   Services
	tokens     *auth.TokenManager
	metrics    *metrics.Metrics
	tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, svcs Services, tokens *auth.TokenManager, m *metrics.Metrics, tracer tracing.Tracer) *Server {
	server := &Server{
		config:   cfg,
		services: svcs,
		tokens:   tokens,
		metrics:  m,
		tracer:   tracer,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(s.metrics))

	metricsHandler := handlers.NewMetricsHandler(s.metrics, s.tracer)
	metricsHandler.RegisterRoutes(router)

	public := router.Group("/api")
	authed := router.Group("/api", middleware.RequireAuth(s.tokens))
	admin := router.Group("/api/admin", middleware.RequireAuth(s.tokens), middleware.RequireAdmin())

	handlers.NewAuthHandler(s.services.Users, s.tracer).RegisterRoutes(public)
	handlers.NewEventHandler(s.services.Events, s.tracer).RegisterRoutes(public, admin)
	handlers.NewRegistrationHandler(s.services.Registrations, s.tracer).RegisterRoutes(authed, admin)
	handlers.NewPaymentHandler(s.services.Registrations, s.tracer).RegisterRoutes(authed, admin)
	handlers.NewAnalyticsHandler(s.services.Analytics, s.tracer).RegisterRoutes(authed, admin)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
