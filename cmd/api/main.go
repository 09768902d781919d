package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/meeting-pipeline/pkg/validator"

	"github.com/johnquangdev/meeting-pipeline/internal/adapter/handler"
	"github.com/johnquangdev/meeting-pipeline/internal/adapter/repository"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/events"
	httpmw "github.com/johnquangdev/meeting-pipeline/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/queue"
	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-pipeline/internal/usecase/dispatch"
	meetingUsecase "github.com/johnquangdev/meeting-pipeline/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-pipeline/internal/usecase/pipeline"
	pkgai "github.com/johnquangdev/meeting-pipeline/pkg/ai"
	"github.com/johnquangdev/meeting-pipeline/pkg/config"
	"github.com/johnquangdev/meeting-pipeline/pkg/jwt"
)

// @title           Meeting Pipeline API
// @version         1.0
// @description     Upload meeting recordings, get transcripts, summaries and action items

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	for _, w := range cfg.Warnings() {
		log.Printf("⚠️  %s", w)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Set-Cookie", "Cookie"},
		AllowCredentials: true,
	}))

	ctx := context.Background()

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Apply migrations only when explicitly enabled in config.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE and run scripts/migrate.go instead.")
		}
		if err := database.AutoMigrate(db, cfg); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; run scripts/migrate.go to manage the schema")
	}

	// Initialize storage
	log.Printf("🗄️  Opening %s storage...", cfg.Storage.Backend)
	store, err := storage.Open(ctx, &cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	meetingRepo := repository.NewMeetingRepository(db)
	actionItemRepo := repository.NewActionItemRepository(db)

	// Initialize AI providers
	log.Println("🤖 Initializing AI providers...")
	transcriber := pkgai.NewTranscriber(&cfg.Transcription)
	summarizer := pkgai.NewSummarizer(&cfg.Summarization, &cfg.Transcription.Groq, &cfg.Transcription.OpenAI)
	logger.Info("🤖 AI providers selected",
		zap.String("transcription", transcriber.Name()),
		zap.String("summarization", summarizer.Name()),
	)

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	processor := pipeline.NewService(meetingRepo, store, transcriber, summarizer, publisher, &cfg.Pipeline, logger)

	// Initialize dispatcher
	log.Printf("📮 Initializing %s dispatcher...", cfg.Dispatch.Mode)
	var dispatcher dispatch.Dispatcher
	switch cfg.Dispatch.Mode {
	case "queue":
		redisClient, err := cache.NewRedisClient(ctx, cfg, 30*time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		q := queue.NewRedisQueue(redisClient, cfg.Dispatch.QueueName, cfg.Dispatch.JobTimeout+cfg.Dispatch.LeaseGrace)
		dispatcher = dispatch.NewQueueDispatcher(q, cfg.Dispatch.EnqueueMaxElapsed, logger)
		log.Println("📮 Meetings are processed by cmd/worker")
	default:
		bg := dispatch.NewBackgroundDispatcher(processor, &cfg.Dispatch, logger)
		if err := bg.Start(cfg.Dispatch.Workers); err != nil {
			log.Fatalf("Failed to start background dispatcher: %v", err)
		}
		dispatcher = bg
	}

	meetingService := meetingUsecase.NewMeetingService(
		meetingRepo,
		actionItemRepo,
		store,
		dispatcher,
		transcriber,
		summarizer,
		meetingUsecase.Options{
			Folder:         cfg.Storage.Folder,
			MaxUploadBytes: cfg.Server.UploadMaxBytes,
		},
		logger,
	)
	meetingHandler := handler.NewMeetingHandler(meetingService, cfg.Server.UploadMaxBytes, logger)

	// Initialize JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, meetingHandler, httpmw.EchoAuth(jwtManager))
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	// Let in-process pipeline runs finish within the same deadline
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Printf("⚠️  Dispatcher did not drain: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Server.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
