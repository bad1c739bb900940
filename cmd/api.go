package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/registrar/config"
	"example.com/registrar/internal/api"
	"example.com/registrar/internal/auth"
	"example.com/registrar/internal/cache"
	"example.com/registrar/internal/gateway"
	"example.com/registrar/internal/messaging"
	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/repositories"
	"example.com/registrar/internal/search"
	"example.com/registrar/internal/services"
	"example.com/registrar/internal/tracing"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for events, registrations, payments and analytics`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
		redisCache, _ = cache.NewRedisCache(config.RedisConfig{Enabled: false})
	}
	defer redisCache.Close()

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.Disabled()
	}

	metricsCollector := metrics.NewMetrics()

	// Repositories
	userRepo := repositories.NewUserRepository(db, readOnlyDB)
	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	registrationRepo := repositories.NewRegistrationRepository(db, readOnlyDB)

	// Optional backends: the API runs without them, just with reduced features
	var notifier services.Notifier
	if busClient, err := messaging.NewServiceBusClient(cfg.Azure, "api"); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus client, continuing without notifications")
	} else {
		notifier = busClient
		defer busClient.Close()
	}

	var indexer services.PaymentIndexer
	if elasticClient, err := search.NewElasticClient(cfg.Elastic); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without payment indexing")
	} else {
		indexer = elasticClient
	}

	paymentGateway := gateway.New(cfg.Gateway)
	tokens := auth.NewTokenManager(cfg.Auth)

	svcs := api.Services{
		Users:  services.NewUserService(userRepo, tokens, cfg.Auth, metricsCollector),
		Events: services.NewEventService(eventRepo, redisCache, metricsCollector, tracer),
		Registrations: services.NewRegistrationService(
			eventRepo, registrationRepo, paymentGateway,
			notifier, indexer, redisCache, metricsCollector, tracer,
		),
		Analytics: services.NewAnalyticsService(
			userRepo, eventRepo, registrationRepo,
			redisCache, metricsCollector, tracer,
		),
	}

	server := api.NewServer(cfg, svcs, tokens, metricsCollector, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			stop()
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
