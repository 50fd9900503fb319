package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"salonbook-backend/config"
	"salonbook-backend/controllers"
	"salonbook-backend/events"
	"salonbook-backend/metrics"
	"salonbook-backend/repository"
	"salonbook-backend/routes"
	"salonbook-backend/services"
	"salonbook-backend/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger("salonbook-backend", cfg.Logging.Level)
	slog.SetDefault(logger)
	gin.SetMode(cfg.Server.GinMode)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := config.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	store, err := openStore(cfg.Database, logger)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	slots, err := services.NewSlotSet(cfg.Booking.Open, cfg.Booking.Close, cfg.Booking.SlotStep)
	if err != nil {
		return fmt.Errorf("booking hours: %w", err)
	}
	calendar := services.Calendar{
		Slots:     slots,
		ClosedDay: cfg.Booking.ClosedDay,
		Location:  cfg.Booking.Timezone,
		Now:       time.Now,
	}

	catalog := services.NewCatalog(store, logger)
	directory := services.NewDirectory(store, logger)
	reporting := services.NewReporting(store, calendar)

	if cfg.Booking.SeedCatalog {
		n, err := catalog.SeedDefaults(ctx)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if n > 0 {
			logger.Info("seeded service catalog", "services", n)
		}
	}

	var sender services.SMSSender = services.NoopSender{}
	if cfg.Twilio.Enabled() {
		sender = services.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
	} else {
		logger.Warn("twilio not configured, reminders are logged but not sent")
	}
	reminders := services.NewReminderService(store, sender, calendar, bookingMetrics, logger)
	if err := reminders.StartScheduler(cfg.Twilio.ReminderCron); err != nil {
		return err
	}

	sinks := []events.Sink{events.LogSink{Logger: logger}, reminders}
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, logger)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		sinks = append(sinks, kafkaPublisher)
	}

	dispatcher := events.NewDispatcher(events.DispatcherConfig{}, bookingMetrics, logger, sinks...)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	go dispatcher.Run(dispatchCtx)

	scheduler := services.NewScheduler(store, directory, calendar, logger,
		services.WithEventPublisher(dispatcher),
		services.WithMetrics(bookingMetrics),
	)

	checks := []controllers.ReadyCheck{{Name: "store", Check: store.Ping}}
	var limiter utils.RateLimiter
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = utils.NewRedisRateLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window, "salonbook:bookings")
		checks = append(checks, controllers.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	} else {
		limiter = utils.NewMemoryRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	r := routes.SetupRouter(routes.Dependencies{
		Catalog:     catalog,
		Directory:   directory,
		Scheduler:   scheduler,
		Reporting:   reporting,
		Reminders:   reminders,
		Registry:    registry,
		RateLimiter: limiter,
		FailOpen:    cfg.RateLimit.FailOpen,
		CORSOrigins: cfg.Server.CORSOrigins,
		ReadyChecks: checks,
		Logger:      logger,
	})
	if gin.Mode() == gin.DebugMode {
		printRoutes(r)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           otelhttp.NewHandler(r, "salonbook-http"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server failed", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	select {
	case <-reminders.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("reminder job still running at shutdown")
	}
	stopDispatch()
	select {
	case <-dispatcher.Done():
	case <-shutdownCtx.Done():
		logger.Warn("event queue not drained at shutdown")
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka close", "err", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close", "err", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", "err", err)
	}
	return nil
}

// openStore uses Postgres when DB_URL is set and process memory otherwise.
func openStore(cfg config.DatabaseConfig, logger *slog.Logger) (repository.Store, error) {
	if cfg.URL == "" {
		logger.Warn("DB_URL not set, using in-memory store")
		return repository.NewMemoryStore(), nil
	}
	db, err := config.ConnectDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	store := repository.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("connected to database")
	return store, nil
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
