package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	_ "github.com/lib/pq"

	httpapi "lendhub-backend/internal/api/http"
	"lendhub-backend/internal/config"
	"lendhub-backend/internal/jobs"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/metrics"
	"lendhub-backend/internal/repository/postgres"
	"lendhub-backend/internal/scheduler"
	"lendhub-backend/internal/security"
	"lendhub-backend/internal/service"
	"lendhub-backend/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting LendHub backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	tokenVerifier := security.NewTokenVerifier(cfg.Auth.SessionSecret, cfg.Auth.Issuer)
	webhookVerifier, err := security.NewWebhookVerifier(
		cfg.Webhook.SigningSecret,
		time.Duration(cfg.Webhook.ToleranceSeconds)*time.Second,
	)
	if err != nil {
		log.Fatalf("Failed to initialize webhook verifier: %v", err)
	}

	var docStorage storage.DocumentStorage
	if cfg.Storage.Type == "" || cfg.Storage.Type == "local" {
		logger.Info("Using local document storage", "upload_dir", cfg.Storage.UploadDir)
		docStorage, err = storage.NewLocalStorage(cfg.Storage.BaseURL, cfg.Storage.UploadDir)
		if err != nil {
			log.Fatalf("Failed to initialize document storage: %v", err)
		}
	} else {
		log.Fatalf("Storage type %q not yet implemented", cfg.Storage.Type)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector("lendhub")
	if err := collector.Register(registry); err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	emailSvc := service.NewSendGridEmailService(
		cfg.SendGrid.APIKey,
		cfg.SendGrid.FromEmail,
		cfg.SendGrid.FromName,
	)

	userSvc := service.NewUserService(store.UserRepository)
	accountSvc := service.NewAccountService(store.AccountRepository, store.NotificationRepository)
	cardSvc := service.NewCardService(store.CardRepository, store.NotificationRepository)
	applicationSvc := service.NewLoanApplicationService(
		store.LoanApplicationRepository,
		store.LoanRepository,
		store.UserRepository,
		store.NotificationRepository,
		docStorage,
		emailSvc,
	)
	loanSvc := service.NewLoanService(
		store.LoanRepository,
		store.PaymentRepository,
		store.UserRepository,
		store.NotificationRepository,
		emailSvc,
		collector,
	)
	paymentSvc := service.NewPaymentService(
		store.PaymentRepository,
		store.LoanRepository,
		store.UserRepository,
		store.NotificationRepository,
		emailSvc,
		collector,
	)
	noteSvc := service.NewNotificationService(store.NotificationRepository)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Users:         userSvc,
		Accounts:      accountSvc,
		Cards:         cardSvc,
		Applications:  applicationSvc,
		Loans:         loanSvc,
		Payments:      paymentSvc,
		Notifications: noteSvc,
		TokenVerifier: tokenVerifier,
		Webhook:       webhookVerifier,
		Collector:     collector,
		Registry:      registry,
	})

	jobRunner := jobs.NewJobRunner(paymentSvc, cfg, collector)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
