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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"github.com/joho/godotenv"

	"storyreel-server/internal/config"
	"storyreel-server/internal/database"
	"storyreel-server/internal/handler"
	"storyreel-server/internal/messaging"
	"storyreel-server/internal/provider"
	"storyreel-server/internal/repository"
	"storyreel-server/internal/service"
	"storyreel-server/internal/storage"
	"storyreel-server/pkg/logger"
)

func main() {
	// Standard log for the earliest failures, before zap exists.
	log.Println("Starting pipeline server...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()
	sugar.Infow("Logger initialized", "logLevel", cfg.LogLevel)

	// --- PostgreSQL ---
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	dbPool, err := database.NewDBPool(ctx, database.PoolConfig{
		DSN:             cfg.GetDSN(),
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBIdleTime,
	})
	cancel()
	if err != nil {
		sugar.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	if err := database.RunMigrations(cfg.GetDSN()); err != nil {
		sugar.Fatalf("Failed to run database migrations: %v", err)
	}
	sugar.Info("Database migrations applied")

	// --- RabbitMQ ---
	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		sugar.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitConn.Close()

	publisher, err := messaging.NewRabbitMQEventPublisher(rabbitConn, cfg.PipelineEventExchange)
	if err != nil {
		sugar.Fatalf("Failed to create event publisher: %v", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			sugar.Errorf("Failed to close event publisher: %v", err)
		}
	}()

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		sugar.Fatalf("Failed to connect to Redis: %v", err)
	}
	pingCancel()
	sugar.Info("Connected to Redis")

	// --- Providers ---
	retry := provider.RetryPolicy{
		MaxAttempts: cfg.ProviderMaxAttempts,
		BaseDelay:   cfg.ProviderBaseDelay,
		MaxDelay:    cfg.ProviderMaxDelay,
	}
	imageProvider, err := provider.NewImageProvider(provider.ImageConfig{
		APIKey:  cfg.ImageAPIKey,
		BaseURL: cfg.ImageBaseURL,
		Model:   cfg.ImageModel,
		Timeout: cfg.ImageTimeout,
		Retry:   retry,
	}, zapLogger)
	if err != nil {
		sugar.Fatalf("Failed to create image provider: %v", err)
	}
	speechProvider, err := provider.NewSpeechProvider(provider.SpeechConfig{
		ServerURL: cfg.TTSServerURL,
		Voice:     cfg.TTSVoice,
		Timeout:   cfg.TTSTimeout,
		Retry:     retry,
	}, zapLogger)
	if err != nil {
		sugar.Fatalf("Failed to create speech provider: %v", err)
	}
	renderBackend, err := provider.NewRenderBackend(provider.RenderConfig{
		BaseURL:   cfg.RenderBackendURL,
		AuthToken: cfg.RenderAuthToken,
		Timeout:   cfg.RenderTimeout,
	}, zapLogger)
	if err != nil {
		sugar.Fatalf("Failed to create render backend: %v", err)
	}

	mediaStore, err := storage.NewFileMediaStore(cfg.MediaSavePath, cfg.MediaPublicBaseURL, zapLogger)
	if err != nil {
		sugar.Fatalf("Failed to create media store: %v", err)
	}

	// --- Repositories ---
	projectRepo := repository.NewPgProjectRepository(dbPool)
	childRepo := repository.NewPgChildRepository(dbPool)
	promptRepo := repository.NewPgPromptRepository(dbPool)
	assetRepo := repository.NewPgAssetRepository(dbPool)
	genJobRepo := repository.NewPgGenerationJobRepository(dbPool)
	videoJobRepo := repository.NewPgVideoJobRepository(dbPool)
	approvedVideoRepo := repository.NewPgApprovedVideoRepository(dbPool)
	moderationRepo := repository.NewPgModerationRepository(dbPool)
	assignmentRepo := repository.NewPgAssignmentRepository(dbPool)
	libraryRepo := repository.NewPgLibraryAssetRepository(dbPool)
	claimLease := repository.NewRedisClaimLease(redisClient, zapLogger)

	// --- Services ---
	promptService := service.NewPromptService(projectRepo, childRepo, promptRepo, publisher, zapLogger)
	generationService := service.NewGenerationService(
		projectRepo, promptRepo, assetRepo, genJobRepo, libraryRepo,
		imageProvider, speechProvider, mediaStore, publisher,
		cfg.GenerateConcurrency, zapLogger,
	)
	readinessService := service.NewReadinessService(projectRepo, assetRepo, zapLogger)
	reviewService := service.NewReviewService(projectRepo, assetRepo, readinessService, publisher, zapLogger)
	projectService := service.NewProjectService(projectRepo, assetRepo, zapLogger)
	renderService := service.NewRenderService(
		projectRepo, assetRepo, videoJobRepo, approvedVideoRepo, moderationRepo,
		readinessService, renderBackend, publisher, zapLogger,
	)
	moderationService := service.NewModerationService(
		moderationRepo, approvedVideoRepo, claimLease, cfg.ClaimLeaseTTL, publisher, zapLogger,
	)
	assignmentService := service.NewAssignmentService(assignmentRepo, childRepo, zapLogger)

	h := handler.NewPipelineHandler(
		promptService, generationService, reviewService, readinessService,
		projectService, renderService, moderationService, assignmentService,
		zapLogger,
	)

	// --- HTTP server (gin) ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.ZapLoggingMiddleware(zapLogger))

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	h.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		sugar.Infof("Pipeline server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("HTTP server error: %v", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("Shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Server shutdown error: %v", err)
	}

	sugar.Info("Server stopped")
}

func connectRabbitMQ(uri string, logger *zap.Logger) (*amqp.Connection, error) {
	var connection *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		connection, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Connected to RabbitMQ")
			go func() {
				notifyClose := make(chan *amqp.Error)
				connection.NotifyClose(notifyClose)
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection lost", zap.Error(closeErr))
				}
			}()
			return connection, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			zap.Error(err),
			zap.Int("retry", i+1),
			zap.Duration("delay", retryDelay),
		)
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}
