package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/queue"
	"rag-chat-platform/internal/search"
	"rag-chat-platform/internal/storage"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

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

	// Initialize Gemini client
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

	searchService := search.NewAtlasSearchService(
		db.Collection("passages"), cfg.SearchIndexName, cfg.VectorIndexName,
		cfg.VectorDimensions, cfg.RemovalPageSize)
	corpus := storage.NewMongoBlobStore(db.Collection(cfg.CorpusCollection))

	embedService := services.NewDocumentEmbedService(
		services.NewDocumentSplitter(), embedder, searchService, corpus, cfg.SearchIndexName, "")
	if err := embedService.EnsureSearchIndex(ctx); err != nil {
		log.Printf("Search index setup failed, continuing: %v", err)
	}
	removal := services.NewRemovalService(searchService, corpus,
		time.Duration(cfg.RemovalDelayMillis)*time.Millisecond)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task failed: %s, error: %v", task.Type(), err)
			}),
		},
	)

	// Create task processor
	processor := queue.NewTaskProcessor(embedService, removal, corpus, metrics)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestDocument, processor.IngestDocument)
	mux.HandleFunc(queue.TaskRemoveDocument, processor.RemoveDocument)

	// Periodic sweep re-enqueues documents whose ingestion failed
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	sweeper := queue.NewRetrySweeper(corpus, asynqClient)
	scheduler := queue.NewScheduler()
	if err := scheduler.ScheduleCron("retry-sweep", cfg.RetrySweepCron, func() error {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		return sweeper.Sweep(sweepCtx)
	}); err != nil {
		log.Printf("Retry sweep disabled: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Starting worker...")
	log.Printf("   Concurrency: %d", cfg.WorkerConcurrency)
	log.Printf("   Redis: %s", cfg.RedisURL)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
