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

	grpcapi "rental-marketplace-backend/internal/api/grpc"
	httpapi "rental-marketplace-backend/internal/api/http"
	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/pdf"
	"rental-marketplace-backend/internal/repository/postgres"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"
	"rental-marketplace-backend/internal/storage"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Marketplace Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress(), "environment", cfg.Server.Environment)
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	repos := store.Repos()

	tokens := security.NewTokenManager(cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute)

	denylist := security.NewNoopDenylist()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		denylist = security.NewRedisDenylist(rdb)
		logger.Info("Token denylist backed by redis", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("Redis not configured, logout will not revoke access tokens")
	}

	files, err := storage.NewLocalFileStore(cfg.Storage.BaseURL, cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}
	logger.Info("Using local file storage", "upload_dir", cfg.Storage.UploadDir)

	email := service.NewEmailSender(cfg.Email)
	logger.Info("Email provider", "provider", cfg.Email.Provider)

	var push service.PushSender = service.NoopPushSender{}
	if cfg.Push.Enabled {
		push, err = service.NewFCMPushSender(context.Background(), cfg.Push.CredentialsFile)
		if err != nil {
			return fmt.Errorf("failed to initialize push notifications: %w", err)
		}
		logger.Info("Push notifications enabled")
	}

	stock := service.NewStockService()
	reservations := service.NewReservationService(repos, store, stock, email)
	services := httpapi.Services{
		Auth:          service.NewAuthService(store.UserRepository, tokens, denylist),
		Users:         service.NewUserService(store.UserRepository),
		Products:      service.NewProductService(store.ProductRepository, files),
		RentalRequest: service.NewRentalRequestService(repos, store, cfg.Billing),
		Reservations:  reservations,
		Deliveries:    service.NewDeliveryService(repos, store, reservations),
		Invoices:      service.NewInvoiceService(repos, store, cfg.Billing, pdf.NewInvoiceRenderer("Rental Marketplace"), email),
		Notifications: service.NewNotificationService(store.NotificationRepository, store.SettingsRepository, email, push, cfg.Billing.ScheduledBatchSize),
		Settings:      service.NewSettingsService(store.SettingsRepository),
		Wishlist:      service.NewWishlistService(store.WishlistRepository, store.ProductRepository),
		Reports:       service.NewReportService(repos, cfg.Billing.LowStockThreshold),
	}

	handler := httpapi.NewRouter(cfg, services, httpapi.Deps{
		Tokens:   tokens,
		Denylist: denylist,
		Files:    files,
		Ping:     db.PingContext,
	})

	httpServer := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	health := grpcapi.NewHealthServer(db.PingContext)
	grpcServer := grpcapi.NewServer(health)
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GetGRPCAddress(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go health.Watch(ctx, 15*time.Second)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server error, shutting down", "error", err)
	}

	health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server exited gracefully")
	return nil
}
