package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"fundmatch/ai-fund-matcher/internal/cache"
	"fundmatch/ai-fund-matcher/internal/config"
	"fundmatch/ai-fund-matcher/internal/handlers"
	"fundmatch/ai-fund-matcher/internal/logger"
	"fundmatch/ai-fund-matcher/internal/repositories"
	"fundmatch/ai-fund-matcher/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	zapLogger, err := logger.New(cfg.Server.Env != "development", cfg.Server.Env == "development")
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	programRepo := repositories.NewProgramRepository(db)
	ledgerRepo := repositories.NewCostLedgerRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize shared cache
	sharedCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Redis cache initialized successfully")

	// Initialize Gemini AI
	llm, err := services.NewGeminiClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Initialize Qdrant knowledge base (optional)
	var knowledge services.KnowledgeService
	if cfg.Qdrant.URL != "" {
		knowledge, err = services.NewKnowledgeService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}
		if err := knowledge.InitCollection(); err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
		}
		log.Println("✅ Qdrant initialized successfully")
	} else {
		log.Println("⚠️ QDRANT_URL not set, chat runs without guideline retrieval")
	}

	// Initialize resilience layer
	breaker := services.NewCircuitBreaker(sharedCache, services.BreakerConfig{
		FailureThreshold: cfg.AI.BreakerFailureThreshold,
		Window:           cfg.AI.BreakerWindow,
		CoolDown:         cfg.AI.BreakerCoolDown,
	}, zapLogger)

	limiter := services.NewRateLimiter(sharedCache, map[services.QuotaPlan]int{
		services.PlanFree: cfg.RateLimit.FreePerDay,
		services.PlanPro:  cfg.RateLimit.ProPerDay,
		services.PlanTeam: cfg.RateLimit.TeamPerDay,
	})

	costLedger := services.NewCostLedger(ledgerRepo, sharedCache, cfg.AI.InputCostPer1K, cfg.AI.OutputCostPer1K)
	transcripts := services.NewTranscriptStore(sharedCache, cfg.AI.ExplanationTTL)

	orchestrator := services.NewOrchestrator(
		llm,
		sharedCache,
		breaker,
		limiter,
		costLedger,
		transcripts,
		knowledge,
		zapLogger,
		services.OrchestratorConfig{
			UpstreamTimeout:     cfg.AI.UpstreamTimeout,
			MaxOutputTokens:     int32(cfg.AI.MaxOutputTokens),
			ExplanationTTL:      cfg.AI.ExplanationTTL,
			DailyBudgetMicroUSD: int64(cfg.AI.DailyBudgetUSD * 1e6),
		},
	)
	log.Println("✅ AI orchestrator initialized successfully")

	scorer := services.NewBatchScorer(cfg.Scoring.PoolSize)

	// Initialize handlers
	matchHandler := handlers.NewMatchHandler(orgRepo, programRepo, scorer)
	explanationHandler := handlers.NewExplanationHandler(orgRepo, programRepo, orchestrator)
	chatHandler := handlers.NewChatHandler(orgRepo, programRepo, orchestrator)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AI Fund Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Identity, X-Plan",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// API endpoints
	api.Post("/matches", matchHandler.HandleMatch)
	api.Get("/matches/:programID/explanation", explanationHandler.HandleExplanation)
	api.Post("/matches/:programID/chat", chatHandler.HandleChat)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "AI Fund Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/matches",
				"GET /api/v1/matches/:programID/explanation",
				"POST /api/v1/matches/:programID/chat",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
