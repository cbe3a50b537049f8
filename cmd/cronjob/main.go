package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	_ "github.com/lib/pq"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/events"
	"rental-marketplace-backend/internal/jobs"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/pdf"
	"rental-marketplace-backend/internal/repository/postgres"
	"rental-marketplace-backend/internal/scheduler"
	"rental-marketplace-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'update-late-fees', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Marketplace Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	repos := store.Repos()

	// Outbound channels
	email := service.NewEmailSender(cfg.Email)
	var push service.PushSender = service.NoopPushSender{}
	if cfg.Push.Enabled {
		push, err = service.NewFCMPushSender(context.Background(), cfg.Push.CredentialsFile)
		if err != nil {
			log.Fatalf("Failed to initialize push notifications: %v", err)
		}
	}

	publisher := events.NewLogPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("Relaying outbox events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	jobServices := &jobs.Services{
		Notifications: service.NewNotificationService(store.NotificationRepository, store.SettingsRepository, email, push, cfg.Billing.ScheduledBatchSize),
		Invoices:      service.NewInvoiceService(repos, store, cfg.Billing, pdf.NewInvoiceRenderer("Rental Marketplace"), email),
	}
	jobRunner := jobs.NewJobRunner(jobServices, store.OutboxRepository, publisher, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := jobRunner.RunOnce(*runOnce); err != nil {
			logger.Error("Unknown job name", "job", *runOnce)
			printJobs(jobRunner)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

func printJobs(jobRunner *jobs.JobRunner) {
	names := make([]string, 0, len(jobRunner.Jobs())+1)
	for name := range jobRunner.Jobs() {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("Available jobs:\n")
	for _, name := range append(names, "all") {
		fmt.Printf("  - %s\n", name)
	}
}
