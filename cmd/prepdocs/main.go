package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/search"
	"rag-chat-platform/internal/storage"
	"rag-chat-platform/services"
)

// prepdocs bulk-loads local documents into the corpus and the search index,
// or takes them back out again.
//
//	prepdocs ./docs/*.pdf
//	prepdocs -category benefits ./docs/*.pdf
//	prepdocs -remove Benefit_Options.pdf
//	prepdocs -removeall
func main() {
	var (
		category  = flag.String("category", "", "category tag for ingested passages")
		noVectors = flag.String("novectors", "", "set to any value to index text-only")
		remove    = flag.String("remove", "", "remove one document by file name")
		removeAll = flag.Bool("removeall", false, "remove every document")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	ctx := context.Background()

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(disconnectCtx)
	}()
	db := mongoClient.Database(cfg.DBName)

	searchService := search.NewAtlasSearchService(
		db.Collection("passages"), cfg.SearchIndexName, cfg.VectorIndexName,
		cfg.VectorDimensions, cfg.RemovalPageSize)
	corpus := storage.NewMongoBlobStore(db.Collection(cfg.CorpusCollection))

	if *remove != "" || *removeAll {
		removal := services.NewRemovalService(searchService, corpus,
			time.Duration(cfg.RemovalDelayMillis)*time.Millisecond)
		target := *remove
		if *removeAll {
			target = ""
		}
		if err := removal.RemoveDocument(ctx, target); err != nil {
			log.Fatal("Removal failed:", err)
		}
		log.Println("Removal complete")
		return
	}

	patterns := flag.Args()
	if len(patterns) == 0 {
		log.Fatal("No files given; pass file paths or glob patterns")
	}

	var embedder ai.Embedder
	if cfg.EmbeddingsEnabled && *noVectors == "" {
		geminiClient, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingModel, cfg.GeminiTier)
		if err != nil {
			log.Fatal("Failed to initialize Gemini client:", err)
		}
		defer geminiClient.Close()
		embedder = geminiClient
	}

	embedService := services.NewDocumentEmbedService(
		services.NewDocumentSplitter(), embedder, searchService, corpus,
		cfg.SearchIndexName, *category)
	if err := embedService.EnsureSearchIndex(ctx); err != nil {
		log.Fatal("Search index setup failed:", err)
	}

	files, err := collectFiles(patterns)
	if err != nil {
		log.Fatal("Failed to read input files:", err)
	}
	log.Printf("Ingesting %d file(s)", len(files))

	batch := services.NewBatchIngestService(embedService, corpus,
		cfg.IngestBatchSize, time.Duration(cfg.IngestWaitSeconds)*time.Second)
	if err := batch.IngestFiles(ctx, files); err != nil {
		var batchErr *services.IngestBatchError
		if errors.As(err, &batchErr) {
			for _, failure := range batchErr.Failures {
				log.Printf("FAILED %s: %v", failure.File, failure.Err)
			}
			log.Fatalf("Ingestion finished with %d failure(s)", len(batchErr.Failures))
		}
		log.Fatal("Ingestion failed:", err)
	}

	log.Println("Ingestion complete")
}

func collectFiles(patterns []string) ([]services.NamedFile, error) {
	var files []services.NamedFile
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			files = append(files, services.NamedFile{Name: path, Data: data})
		}
	}
	return files, nil
}
