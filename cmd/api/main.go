package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/eclinicgh/telehealth-platform/cmd/mainconfig"
	"github.com/eclinicgh/telehealth-platform/internal/api/router"
	appconfig "github.com/eclinicgh/telehealth-platform/internal/config"
	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/events"
	"github.com/eclinicgh/telehealth-platform/internal/messaging"
	"github.com/eclinicgh/telehealth-platform/internal/notify"
	"github.com/eclinicgh/telehealth-platform/internal/observability/metrics"
	"github.com/eclinicgh/telehealth-platform/internal/prescriptions"
	"github.com/eclinicgh/telehealth-platform/internal/scheduling"
	"github.com/eclinicgh/telehealth-platform/internal/symptomcheck"
	notifyworker "github.com/eclinicgh/telehealth-platform/internal/worker/notify"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting telehealth-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	// Stores
	userStore := directory.NewDynamoStore(dynamoClient, cfg.UsersTable, logger)
	apptStore := scheduling.NewDynamoStore(dynamoClient, cfg.AppointmentsTable, cfg.SlotClaimsTable, logger)
	rxStore := prescriptions.NewDynamoStore(dynamoClient, cfg.PrescriptionsTable, logger)
	chatStore := messaging.NewDynamoStore(dynamoClient, cfg.MessagesTable, logger)

	// Lifecycle event queue: SQS in deployment, in-memory with an inline
	// worker in development.
	var queue events.Queue
	if cfg.UseMemoryQueue {
		queue = events.NewMemoryQueue(256)
		logger.Warn("using in-memory event queue; notifications run inline")
	} else {
		queue = events.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
	}
	publisher := events.NewPublisher(queue, logger)

	bookingMetrics := metrics.NewBookingMetrics(nil)

	// Booking orchestrator
	schedOpts := []scheduling.Option{
		scheduling.WithPublisher(publisher),
		scheduling.WithMetrics(bookingMetrics),
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		schedOpts = append(schedOpts, scheduling.WithSlotHolder(scheduling.NewRedisSlotHolder(redisClient, cfg.SlotHoldTTL)))
		logger.Info("redis slot holds enabled", "addr", cfg.RedisAddr)
	}
	schedService := scheduling.NewService(apptStore, userStore, logger, schedOpts...)

	// Chat
	chatHub := messaging.NewHub(logger)
	chatService := messaging.NewService(chatStore, userStore, apptStore, chatHub, logger)
	chatHub.Bind(chatService)

	// Symptom checker
	var symptomHandler *symptomcheck.Handler
	if cfg.GeminiAPIKey != "" {
		llm, err := symptomcheck.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer llm.Close()
		symptomHandler = symptomcheck.NewHandler(symptomcheck.NewService(llm, bookingMetrics, logger), logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set; symptom checker disabled")
	}

	// Inline notification worker for the in-memory queue.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.UseMemoryQueue {
		sender := notify.BuildEmailSender(cfg, awsCfg, logger)
		notifyService := notify.NewService(sender, userStore, logger)
		worker := notifyworker.New(queue, notifyService, cfg.WorkerCount, logger)
		go worker.Run(workerCtx)
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:               logger,
		DirectoryHandler:     directory.NewHandler(userStore, logger),
		SchedulingHandler:    scheduling.NewHandler(schedService, logger),
		PrescriptionsHandler: prescriptions.NewHandler(rxStore, userStore, logger),
		MessagingHandler:     messaging.NewHandler(chatService, logger),
		ChatHub:              chatHub,
		SymptomCheckHandler:  symptomHandler,
		MetricsHandler:       promhttp.Handler(),
		AuthJWTSecret:        cfg.AuthJWTSecret,
		CORSAllowedOrigins:   cfg.CORSOrigins,
		RateLimitPerSec:      cfg.RateLimitRPS,
		RateLimitBurst:       cfg.RateLimitBurst,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopWorker()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
