package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/leadrail/lead-api/config"
	"github.com/leadrail/lead-api/internal/email"
	"github.com/leadrail/lead-api/internal/repository/postgres"
	eventService "github.com/leadrail/lead-api/internal/service/event"
	"github.com/leadrail/lead-api/internal/service/fanout"
	"github.com/leadrail/lead-api/internal/service/followup"
	notificationService "github.com/leadrail/lead-api/internal/service/notification"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/messaging/redis"
	"github.com/leadrail/lead-api/pkg/metrics"
	"github.com/leadrail/lead-api/pkg/worker"
)

// WorkerEnv carries deployment overrides for the worker process.
type WorkerEnv struct {
	HealthPort   int           `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
	PollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
}

func setupHealthCheck(port int, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		addr := fmt.Sprintf(":%d", port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var env WorkerEnv
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to process environment")
	}

	appLogger := logger.NewLogger(nil)
	m := metrics.NewMetrics("lead_worker")

	db, err := postgres.NewDB(cfg.Database.ToPostgresConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewBroker(cfg.Redis.ToBrokerConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(baseRepo)
	leadRepo := postgres.NewLeadRepository(baseRepo)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)
	triggerRepo := postgres.NewTriggerRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox poller
	eventSvc := eventService.NewService(outboxRepo, broker, appLogger, m)
	pollInterval := cfg.Outbox.PollInterval
	if env.PollInterval > 0 {
		pollInterval = env.PollInterval
	}
	processor := worker.NewOutboxProcessor(eventSvc, worker.OutboxProcessorConfig{
		PollInterval: pollInterval,
	}, appLogger)
	go processor.Start(ctx)

	// Fanout consumer
	snapshotLoader := fanout.NewSnapshotLoader(userRepo, leadRepo)
	notificationSvc := notificationService.NewService(notificationRepo, fanout.NewEngine(), snapshotLoader, broker, appLogger, m)
	if err := notificationSvc.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start notification consumer")
	}

	// Follow-up sweep
	emailSvc := email.NewService(&email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	alerter := email.NewMissedFollowUpAlerter(emailSvc, userRepo)
	scheduler := followup.NewScheduler(followup.SchedulerConfig{
		Spec:        cfg.Scheduler.SweepSpec,
		LeadTimeout: cfg.Scheduler.LeadTimeout,
	}, leadRepo, triggerRepo, notificationRepo, alerter, appLogger, m)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start follow-up scheduler")
	}

	setupHealthCheck(env.HealthPort, appLogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down worker")
	scheduler.Stop()
	cancel()
}
