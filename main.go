// Package main provides the main entry point for the review invitation service
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StevenOng97/backend-saas/app/handlers"
	"github.com/StevenOng97/backend-saas/app/router"
	"github.com/StevenOng97/backend-saas/app/services"
	"github.com/StevenOng97/backend-saas/app/worker"
	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/config"
	"github.com/StevenOng97/backend-saas/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting review invitation service...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeRedis initializes the Redis client and verifies connectivity
func initializeRedis(cfg config.CacheConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeRedis(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	inviteRepo := repository.NewInviteRepository(db)
	smsLogRepo := repository.NewSmsLogRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewSmsTemplateRepository(db)
	transactor := repository.NewGormTransactor(db)

	// Initialize services
	var smsSender businessflow.SMSSender
	if cfg.Twilio.AccountSID == "mock" {
		smsSender = services.NewMockSMSService()
	} else {
		smsSender = services.NewTwilioClient(cfg.Twilio)
	}
	var mailer services.MailService
	if cfg.SendGrid.APIKey == "mock" {
		mailer = services.NewMockMailService()
	} else {
		mailer = services.NewSendGridMailService(cfg.SendGrid)
	}
	notifier := services.NewNotificationService(mailer, log.Default())
	quota := services.NewQuotaService(rc, cfg.Quota.MonthlyInviteLimit)

	// Initialize the dispatch queue. The handler is bound through a
	// closure because the flows it calls need the queue as their enqueuer.
	workerLogger := worker.NewWorkerLogger(cfg.Logging.WorkerDir)
	var dispatcher *worker.Dispatcher
	queue := worker.NewQueue(rc, worker.QueueOptions{
		KeyPrefix:         cfg.Queue.KeyPrefix,
		Concurrency:       cfg.Queue.Concurrency,
		MaxAttempts:       cfg.Queue.MaxAttempts,
		BackoffBase:       cfg.Queue.BackoffBase,
		PromoteInterval:   cfg.Queue.PromoteInterval,
		VisibilityTimeout: cfg.Queue.VisibilityTimeout,
		DeadLetterLimit:   int64(cfg.Queue.DeadLetterLimit),
	}, func(ctx context.Context, job *worker.Job) error {
		return dispatcher.Handle(ctx, job)
	}, workerLogger)

	// Initialize flows
	inviteFlow := businessflow.NewInviteFlow(inviteRepo, customerRepo, businessRepo, transactor, queue, quota)
	dispatchFlow := businessflow.NewDispatchFlow(inviteRepo, customerRepo, businessRepo, templateRepo, smsLogRepo, smsSender, cfg.Frontend.BaseURL)
	deliveryFlow := businessflow.NewDeliveryFlow(smsLogRepo, inviteRepo, customerRepo, transactor)
	ratingFlow := businessflow.NewRatingFlow(inviteRepo, ratingRepo, feedbackRepo, customerRepo, userRepo, transactor, notifier)
	feedbackFlow := businessflow.NewFeedbackQueryFlow(feedbackRepo, businessRepo)
	registrationFlow := businessflow.NewRegistrationCheckFlow(businessRepo, customerRepo, userRepo, queue, notifier)

	dispatcher = worker.NewDispatcher(dispatchFlow, registrationFlow, workerLogger)
	queue.OnExhausted(dispatcher.HandleExhausted)

	// Start queue workers
	stopQueue := queue.Start(context.Background())
	stopFuncs = append(stopFuncs, stopQueue)

	// Start the pending-invite sweeper that repairs the persist-then-enqueue gap
	sweeper := worker.NewPendingSweeper(inviteRepo, queue, workerLogger, cfg.Sweeper.Interval, cfg.Sweeper.MinAge)
	stopSweeper := sweeper.Start(context.Background())
	stopFuncs = append(stopFuncs, stopSweeper)

	// Initialize handlers
	inviteHandler := handlers.NewInviteHandler(inviteFlow)
	rateHandler := handlers.NewRateHandler(ratingFlow, feedbackFlow)
	webhookHandler := handlers.NewWebhookHandler(deliveryFlow)
	healthHandler := handlers.NewHealthHandler(db, rc, queue)
	businessHandler := handlers.NewBusinessHandler(registrationFlow)

	// Initialize router
	appRouter := router.NewFiberRouter(cfg, inviteHandler, rateHandler, webhookHandler, healthHandler, businessHandler)

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
