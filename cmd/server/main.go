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

	"blogtwin-backend/internal/cache"
	"blogtwin-backend/internal/config"
	"blogtwin-backend/internal/database"
	"blogtwin-backend/internal/handlers"
	"blogtwin-backend/internal/llm"
	"blogtwin-backend/internal/middleware"
	"blogtwin-backend/internal/queue"
	"blogtwin-backend/internal/repository"
	"blogtwin-backend/internal/router"
	"blogtwin-backend/internal/services"
	"blogtwin-backend/internal/websocket"
	"blogtwin-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting BlogTwin Backend...")
	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, os.DirFS("migrations")); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	styleProfileRepo := repository.NewStyleProfileRepo(pool)
	generationLogRepo := repository.NewGenerationLogRepo(pool)
	publishRepo := repository.NewPublishRepo(pool)

	// ──── Step 5: Initialize Cache and Request Queue ────
	responseCache := cache.New(cache.NewRedisStore(redisClients.Cache, cfg.CacheKeyPrefix), cfg.CacheDefaultTTL)
	responseCache.StartSweeper(cfg.CacheSweepInterval)
	log.Printf("✓ Cache ready (ttl %s, sweep every %s)", cfg.CacheDefaultTTL, cfg.CacheSweepInterval)

	throttler := queue.NewThrottler(queue.Config{
		MinInterval:  cfg.QueueMinInterval,
		MaxPerMinute: cfg.QueueMaxPerMinute,
		CallTimeout:  cfg.LLMCallTimeout,
	})
	log.Printf("✓ Request queue ready (%s apart, %d/min)", cfg.QueueMinInterval, cfg.QueueMaxPerMinute)

	// ──── Step 6: Initialize LLM Provider ────
	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("✗ LLM provider initialization failed: %v", err)
	}
	defer closeProvider()
	log.Printf("✓ LLM provider %s initialized (text %s, vision %s)", provider.Name(), cfg.LLMTextModel, cfg.LLMVisionModel)

	llmClient := llm.NewClient(provider, responseCache, llm.Config{
		Pricing: llm.Pricing{
			PromptPer1K:     cfg.LLMPromptPricePer1K,
			CompletionPer1K: cfg.LLMCompletionPricePer1K,
		},
		CharsPerToken: cfg.LLMCharsPerToken,
		Lang:          cfg.ContentLanguage,
	}, generationLogRepo)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	// Progress goes through Redis so every instance's hub sees it; this
	// instance's hub delivers directly if the publish fails.
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	notifier := services.NewRedisNotifier(redisClients.Cache, wsHub)
	styleService := services.NewStyleService(llmClient, throttler, styleProfileRepo, responseCache, cfg.ContentLanguage)
	contentService := services.NewContentService(llmClient, throttler, styleService, notifier, cfg.ContentLanguage)
	publishService := services.NewPublishService(publishRepo)
	importer := services.NewPostImporter()

	// ──── Initialize Handlers ────
	generationHandler := handlers.NewGenerationHandler(contentService)
	styleHandler := handlers.NewStyleHandler(styleService, importer)
	publishHandler := handlers.NewPublishHandler(publishService)
	usageHandler := handlers.NewUsageHandler(generationLogRepo, throttler, responseCache)

	// ──── Step 7: Start Scheduled Publish Dispatcher ────
	dispatcher := worker.NewDispatcher(publishRepo, publishService, notifier, cfg.PublishDispatchInterval)
	dispatcher.Start()
	log.Printf("✓ Publish dispatcher started (every %s)", cfg.PublishDispatchInterval)

	// ──── Step 8: Start HTTP Server ────
	generateLimiter := middleware.NewRateLimiter(cfg.GenerateRateLimitPerMinute, time.Minute)
	r := router.New(
		jwtAuth,
		generateLimiter,
		generationHandler,
		styleHandler,
		publishHandler,
		usageHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// Generation waits in the queue and then on the provider
		WriteTimeout: cfg.LLMCallTimeout + 60*time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		dispatcher.Stop()
		throttler.Clear()
		generateLimiter.Stop()
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		responseCache.Stop()
	}()

	log.Printf("✓ BlogTwin Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, func(), error) {
	if cfg.LLMProvider == "gemini" {
		p, err := llm.NewGeminiProvider(ctx, llm.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			TextModel:   cfg.LLMTextModel,
			VisionModel: cfg.LLMVisionModel,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}

	p, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		TextModel:   cfg.LLMTextModel,
		VisionModel: cfg.LLMVisionModel,
	})
	if err != nil {
		return nil, nil, err
	}
	return p, func() {}, nil
}
