package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	httpapi "tenant-portal-backend/internal/api/http"
	"tenant-portal-backend/internal/config"
	"tenant-portal-backend/internal/jobs"
	"tenant-portal-backend/internal/logger"
	"tenant-portal-backend/internal/notify"
	"tenant-portal-backend/internal/paylock"
	"tenant-portal-backend/internal/receipt"
	"tenant-portal-backend/internal/repository/postgres"
	"tenant-portal-backend/internal/scheduler"
	"tenant-portal-backend/internal/security"
	"tenant-portal-backend/internal/service"
	"tenant-portal-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Tenant Portal Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "run_scheduler", cfg.Server.RunScheduler)
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("Failed to apply schema", "error", err)
			log.Fatalf("Failed to apply schema: %v", err)
		}
		logger.Info("Database schema applied")
	}

	// Initialize Repositories
	store := postgres.NewStore(db, cfg.QueryTimeout())

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Submission lock: shared through redis when configured
	locker := paylock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to reach redis", "addr", cfg.Redis.Addr, "error", err)
			log.Fatalf("Failed to reach redis: %v", err)
		}
		locker = paylock.NewRedisLocker(rdb, time.Duration(cfg.Redis.LockTTLSeconds)*time.Second)
		logger.Info("Using redis submission lock", "addr", cfg.Redis.Addr)
	} else {
		logger.Info("Using in-process submission lock")
	}

	// Push delivery: websocket hub, plus FCM topics when configured
	hub := notify.NewHub(cfg.PushWriteTimeout())
	publishers := notify.Fanout{hub}
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := notify.NewFCMPublisher(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize FCM", "error", err)
			log.Fatalf("Failed to initialize FCM: %v", err)
		}
		publishers = append(publishers, fcm)
		logger.Info("FCM push delivery enabled", "project_id", cfg.Firebase.ProjectID)
	}
	mailer := notify.NewMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, cfg.Billing.Currency)

	// Initialize Storage Service
	archive, err := storage.New(ctx, storage.Config{Type: cfg.Storage.Type, UploadDir: cfg.Storage.UploadDir, Bucket: cfg.Storage.Bucket})
	if err != nil {
		logger.Error("Failed to initialize receipt storage", "type", cfg.Storage.Type, "error", err)
		log.Fatalf("Failed to initialize receipt storage: %v", err)
	}
	logger.Info("Receipt storage ready", "type", cfg.Storage.Type)

	// Initialize Services
	loc := cfg.Location()
	rentalSvc := service.NewRentalService(store.RentalRepository, store.HouseRepository, store.UserRepository, nil, loc)
	billingSvc := service.NewBillingService(store.RentalRepository, nil, loc)
	houseSvc := service.NewHouseService(store.HouseRepository)
	paymentSvc := service.NewPaymentService(
		store.PaymentRepository,
		store.RentalRepository,
		store.UserRepository,
		locker,
		publishers,
		mailer,
		service.PaymentConfig{PhoneRegion: cfg.Billing.PhoneRegion, Location: loc},
	)
	theme := receipt.SanitizeTheme(receipt.Theme{
		Text:       cfg.Billing.ReceiptTheme.Text,
		Background: cfg.Billing.ReceiptTheme.Background,
		Muted:      cfg.Billing.ReceiptTheme.Muted,
		Border:     cfg.Billing.ReceiptTheme.Border,
	})
	receiptSvc := service.NewReceiptService(
		store.PaymentRepository,
		store.HouseRepository,
		store.UserRepository,
		archive,
		receipt.NewPDFRenderer(theme),
		receipt.Options{Currency: cfg.Billing.Currency, Company: cfg.Billing.ReceiptCompany},
	)

	// Optional in-process scheduler
	if cfg.Server.RunScheduler {
		cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(billingSvc, cfg))
		if err != nil {
			logger.Error("Failed to register cron jobs", "error", err)
			log.Fatalf("Failed to register cron jobs: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	handler := httpapi.NewRouter(httpapi.Deps{
		Payments:       paymentSvc,
		Rentals:        rentalSvc,
		Houses:         houseSvc,
		Receipts:       receiptSvc,
		Hub:            hub,
		Tokens:         tokenManager,
		DB:             store,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
