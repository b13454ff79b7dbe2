package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinicdesk-backend/internal/api/rest"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/infrastructure/config"
	"github.com/clinicdesk/clinicdesk-backend/internal/infrastructure/database"
	"github.com/clinicdesk/clinicdesk-backend/internal/infrastructure/events"
	"github.com/clinicdesk/clinicdesk-backend/internal/infrastructure/repository"
	"github.com/clinicdesk/clinicdesk-backend/internal/infrastructure/telemetry"
	"github.com/clinicdesk/clinicdesk-backend/internal/metrics"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to set up database logger: %v", err)
	}
	defer zapLogger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("failed to resolve clinic timezone", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, &cfg.Database, zapLogger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	registry, err := metrics.NewRegistry("clinicdesk")
	if err != nil {
		logger.Error("failed to create metrics registry", "error", err)
		os.Exit(1)
	}

	db := pool.DB()
	patients := repository.NewPatientRepository(db)
	employees := repository.NewEmployeeRepository(db)
	checks := repository.NewCheckRepository(db)
	payments := repository.NewPaymentRepository(db)

	svc := ledger.NewService(ledger.Dependencies{
		Reports:          repository.NewReportRepository(db),
		Payments:         payments,
		Patients:         patients,
		Employees:        employees,
		Checks:           checks,
		Appointments:     repository.NewAppointmentRepository(db),
		CheckingAccounts: repository.NewCheckingAccountRepository(db),
		Notifier:         events.NewRedisNotifier(redisClient, cfg.Clinic.PaymentChannel),
		Metrics:          registry,
		Logger:           logger,
		Location:         loc,
	})

	handler := rest.NewHandler(svc, payment.NewFactory(),
		patients, employees, checks, payments, logger)
	server := rest.NewServer(&cfg.Server, handler, registry, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
