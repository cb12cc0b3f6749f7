package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/eclinicgh/telehealth-platform/cmd/mainconfig"
	appconfig "github.com/eclinicgh/telehealth-platform/internal/config"
	"github.com/eclinicgh/telehealth-platform/internal/directory"
	"github.com/eclinicgh/telehealth-platform/internal/events"
	"github.com/eclinicgh/telehealth-platform/internal/notify"
	notifyworker "github.com/eclinicgh/telehealth-platform/internal/worker/notify"
	"github.com/eclinicgh/telehealth-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting telehealth-platform notification worker",
		"env", cfg.Env,
		"concurrency", cfg.WorkerCount,
	)

	if cfg.UseMemoryQueue {
		logger.Error("notification worker cannot run with USE_MEMORY_QUEUE=true; the API process runs inline workers instead")
		os.Exit(1)
	}
	if cfg.NotifyQueueURL == "" {
		logger.Error("NOTIFY_QUEUE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	userStore := directory.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.UsersTable, logger)
	queue := events.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
	sender := notify.BuildEmailSender(cfg, awsCfg, logger)
	service := notify.NewService(sender, userStore, logger)
	worker := notifyworker.New(queue, service, cfg.WorkerCount, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		cancel()
	}()

	worker.Run(ctx)
	logger.Info("worker stopped")
}
