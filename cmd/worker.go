package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/registrar/config"
	"example.com/registrar/internal/cache"
	"example.com/registrar/internal/messaging"
	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/repositories"
	"example.com/registrar/internal/services"
	"example.com/registrar/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to deliver registration notifications and sweep past events`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

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

	eventRepo := repositories.NewEventRepository(db, readOnlyDB)
	eventService := services.NewEventService(eventRepo, redisCache, metricsCollector, tracer)
	notificationService := services.NewNotificationService(metricsCollector)

	processor, err := messaging.NewProcessor(cfg.Azure)
	if err != nil {
		return err
	}
	defer processor.Close()

	// Consume registration notifications from the queue
	g.Go(func() error {
		log.Info().Str("queue", cfg.Azure.QueueName).Msg("Starting notification processor")
		return processor.ProcessMessages(ctx, notificationService.HandleMessage)
	})

	// Periodically mark past events as completed
	g.Go(func() error {
		log.Info().Dur("interval", cfg.Worker.SweepInterval).Msg("Starting event sweep job")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.SweepInterval),
			gocron.NewTask(func() {
				if _, err := eventService.CompletePastEvents(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to sweep past events")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
