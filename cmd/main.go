package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/search"
	"rag-chat-platform/internal/storage"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/middleware"
	"rag-chat-platform/routes"
	"rag-chat-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	// Tracing
	shutdownTracer, err := telemetry.InitTracer("rag-chat-platform")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer shutdownTracer()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Printf("Metrics disabled: %v", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Redis backs the rewrite cache and the task queue
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Gemini client
	ctx := context.Background()
	geminiClient, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingModel, cfg.GeminiTier)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	var embedder ai.Embedder
	if cfg.EmbeddingsEnabled {
		embedder = geminiClient
	}

	// Search index and blob corpus
	searchService := search.NewAtlasSearchService(
		db.Collection("passages"), cfg.SearchIndexName, cfg.VectorIndexName,
		cfg.VectorDimensions, cfg.RemovalPageSize)
	corpus := storage.NewMongoBlobStore(db.Collection(cfg.CorpusCollection))

	// Query pipeline
	rewriter := services.NewQueryRewriter(geminiClient, rdb, time.Duration(cfg.RewriteCacheTTL)*time.Second)
	synthesizer := services.NewAnswerSynthesizer(geminiClient)
	followups := services.NewFollowupGenerator(geminiClient)
	orchestrator := services.NewChatOrchestrator(
		rewriter, searchService, synthesizer, followups, embedder, metrics, cfg.CitationBaseURL)

	sessionStore := services.NewMongoSessionStore(db.Collection("chat_sessions"))
	history := services.NewHistoryService(sessionStore)
	pinned := services.NewPinnedQueryService(db.Collection("pinned_queries"))

	// Asynq client for handing uploads to the worker
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer asynqClient.Close()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("rag-chat-platform"))
	router.Use(middleware.RequestIDMiddleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Initialize middleware and routes
	authMiddleware := middleware.NewAuthMiddleware(cfg)
	routes.SetupChatRoutes(router, cfg, orchestrator, history, sessionStore, pinned, authMiddleware)
	routes.SetupDocumentRoutes(router, cfg, corpus, asynqClient, authMiddleware)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
