package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fitweek/planner/internal/ai"
	"fitweek/planner/internal/api"
	"fitweek/planner/internal/cache"
	"fitweek/planner/internal/config"
	"fitweek/planner/internal/logger"
	"fitweek/planner/internal/outbox"
	"fitweek/planner/internal/repository/mongo"
	"fitweek/planner/internal/service"
	"fitweek/planner/internal/storage"
)

// @title FitWeek Planner API
// @version 1.0
// @description API for AI-generated weekly workout and meal plans, completion tracking and streaks.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("could not load config", "error", err.Error())
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	slog.Info("starting fitweek planner server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		slog.Error("could not connect to MongoDB", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		slog.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			slog.Error("failed to disconnect MongoDB", "error", err.Error())
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	slog.Info("database connection established")

	// --- Ensure Indexes ---
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("weekly_plans"))
		mongo.EnsureCompletionIndexes(ctx, appDB.Collection("daily_completions"))
		slog.Info("index creation process completed")
	}()

	// --- Local Plan Cache ---
	var planCache cache.PlanCache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.PlanTTL)
		if err != nil {
			slog.Error("could not connect to Redis", "addr", cfg.Redis.Addr, "error", err.Error())
			os.Exit(1)
		}
		defer redisCache.Close()
		planCache = redisCache
		slog.Info("using Redis plan cache", "addr", cfg.Redis.Addr)
	} else {
		planCache = cache.NewMemoryCache()
		slog.Info("using in-memory plan cache")
	}

	// --- Archive Storage ---
	archiveStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err.Error())
		os.Exit(1)
	}

	// --- AI Client ---
	limiter := ai.NewTokenBucket(cfg.AI.RateLimitCapacity, cfg.AI.RateLimitWindow)
	aiClient, err := ai.NewClient(context.Background(), ai.ClientConfig{
		APIKey:            cfg.AI.APIKey,
		Model:             cfg.AI.Model,
		GenerationTimeout: cfg.AI.GenerationTimeout,
		ChatTimeout:       cfg.AI.ChatTimeout,
		MaxAttempts:       cfg.AI.MaxAttempts,
		RetryBaseDelay:    cfg.AI.RetryBaseDelay,
	}, limiter)
	if err != nil {
		slog.Error("failed to initialize AI client", "error", err.Error())
		os.Exit(1)
	}
	defer aiClient.Close()
	generator := ai.NewGenerator(aiClient)

	// --- Initialize Repositories ---
	planRepo := mongo.NewMongoPlanRepository(appDB)
	completionRepo := mongo.NewMongoCompletionRepository(appDB)
	userRepo := mongo.NewMongoUserRepository(appDB)

	// --- Outbox ---
	syncOutbox := outbox.New(256, 5, 30*time.Second)
	syncOutbox.Register(outbox.KindPlanUpsert, service.PlanUpsertHandler(planCache, planRepo))
	syncOutbox.Register(outbox.KindArchiveExport, service.ArchiveExportHandler(planRepo, archiveStorage))
	syncOutbox.Start()
	defer syncOutbox.Close()

	// --- Initialize Services ---
	planService := service.NewPlanService(generator, aiClient, planRepo, planCache, syncOutbox, archiveStorage)
	trackingService := service.NewTrackingService(completionRepo, userRepo, planRepo, planCache, planService)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, planService, trackingService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // generation calls are slow
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("server starting", "address", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen and serve failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		slog.Error("server forced to shutdown", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("server exiting")
}
