package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/leadrail/lead-api/config"
	"github.com/leadrail/lead-api/internal/handler"
	authHandler "github.com/leadrail/lead-api/internal/handler/auth"
	leadHandler "github.com/leadrail/lead-api/internal/handler/lead"
	notificationHandler "github.com/leadrail/lead-api/internal/handler/notification"
	staffHandler "github.com/leadrail/lead-api/internal/handler/staff"
	"github.com/leadrail/lead-api/internal/middleware"
	"github.com/leadrail/lead-api/internal/repository/postgres"
	"github.com/leadrail/lead-api/internal/router"
	authService "github.com/leadrail/lead-api/internal/service/auth"
	eventService "github.com/leadrail/lead-api/internal/service/event"
	"github.com/leadrail/lead-api/internal/service/fanout"
	leadService "github.com/leadrail/lead-api/internal/service/lead"
	notificationService "github.com/leadrail/lead-api/internal/service/notification"
	staffService "github.com/leadrail/lead-api/internal/service/staff"
	"github.com/leadrail/lead-api/pkg/auth"
	"github.com/leadrail/lead-api/pkg/logger"
	"github.com/leadrail/lead-api/pkg/messaging/redis"
	"github.com/leadrail/lead-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	m := metrics.NewMetrics("lead_api")

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

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(baseRepo)
	leadRepo := postgres.NewLeadRepository(baseRepo)
	customerRepo := postgres.NewCustomerRepository(baseRepo)
	settingRepo := postgres.NewSettingRepository(baseRepo)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	eventSvc := eventService.NewService(outboxRepo, broker, appLogger, m)
	leadSvc := leadService.NewService(leadRepo, userRepo, customerRepo, settingRepo, eventSvc, appLogger, m)
	staffSvc := staffService.NewService(userRepo)
	authSvc := authService.NewService(userRepo, jwtService)
	snapshotLoader := fanout.NewSnapshotLoader(userRepo, leadRepo)
	notificationSvc := notificationService.NewService(notificationRepo, fanout.NewEngine(), snapshotLoader, broker, appLogger, m)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	h := handler.NewHandler(db, broker)
	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		leadHandler.NewHandler(leadSvc),
		staffHandler.NewHandler(staffSvc, authMiddleware),
		notificationHandler.NewHandler(notificationSvc),
		h,
		router.Config{
			RateLimit: rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst: cfg.RateLimit.Burst,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	appLogger.Info("api server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
