package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/internal/adapter/repository"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/events"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/queue"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-pipeline/internal/usecase/dispatch"
	"github.com/johnquangdev/meeting-pipeline/internal/usecase/pipeline"
	pkgai "github.com/johnquangdev/meeting-pipeline/pkg/ai"
	"github.com/johnquangdev/meeting-pipeline/pkg/config"
)

// The worker consumes the Redis job queue filled by the API when
// DISPATCH_MODE=queue.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	for _, w := range cfg.Warnings() {
		log.Printf("⚠️  %s", w)
	}

	var logger *zap.Logger
	if cfg.Server.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(ctx, cfg, 30*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	store, err := storage.Open(ctx, &cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	transcriber := pkgai.NewTranscriber(&cfg.Transcription)
	summarizer := pkgai.NewSummarizer(&cfg.Summarization, &cfg.Transcription.Groq, &cfg.Transcription.OpenAI)
	if err := transcriber.Ready(); err != nil {
		logger.Warn("⚠️ Transcription provider not ready", zap.String("provider", transcriber.Name()), zap.Error(err))
	}
	if err := summarizer.Ready(); err != nil {
		logger.Warn("⚠️ Summarization provider not ready", zap.String("provider", summarizer.Name()), zap.Error(err))
	}

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	processor := pipeline.NewService(
		repository.NewMeetingRepository(db),
		store,
		transcriber,
		summarizer,
		publisher,
		&cfg.Pipeline,
		logger,
	)

	q := queue.NewRedisQueue(redisClient, cfg.Dispatch.QueueName, cfg.Dispatch.JobTimeout+cfg.Dispatch.LeaseGrace)
	worker := dispatch.NewQueueWorker(q, processor, dispatch.WorkerOptions{
		Workers:      cfg.Dispatch.Workers,
		JobTimeout:   cfg.Dispatch.JobTimeout,
		ReapInterval: cfg.Dispatch.ReapInterval,
	}, logger)

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Worker stopped: %v", err)
	}
	log.Println("✅ Worker stopped gracefully")
}
