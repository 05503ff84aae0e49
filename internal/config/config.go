package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI        string
	DBName          string
	Port            string
	GinMode         string
	CORSOrigins     []string
	JWTSecret       string
	CitationBaseURL string

	// Gemini
	GeminiAPIKey   string
	GeminiModel    string
	GeminiTier     string
	EmbeddingModel string

	// Search index
	SearchIndexName   string
	VectorIndexName   string
	VectorDimensions  int
	EmbeddingsEnabled bool

	// Blob corpus
	CorpusCollection string

	// Ingestion batching
	IngestBatchSize    int
	IngestWaitSeconds  int
	RemovalPageSize    int
	RemovalDelayMillis int

	// Redis
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Query rewrite cache TTL, seconds. Zero disables the cache.
	RewriteCacheTTL int

	// Worker
	WorkerConcurrency int
	RetrySweepCron    string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017/rag_chat"),
		DBName:          getEnv("DB_NAME", "rag_chat"),
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		CORSOrigins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CitationBaseURL: getEnv("CITATION_BASE_URL", "/documents/content"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:     getEnv("GEMINI_TIER", "free"),
		EmbeddingModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		SearchIndexName:   getEnv("SEARCH_INDEX_NAME", "passages_text"),
		VectorIndexName:   getEnv("VECTOR_INDEX_NAME", "passages_vector"),
		VectorDimensions:  getEnvInt("VECTOR_DIM", 768),
		EmbeddingsEnabled: getEnvBool("EMBEDDINGS_ENABLED", true),

		CorpusCollection: getEnv("CORPUS_COLLECTION", "corpus_blobs"),

		IngestBatchSize:    getEnvInt("INGEST_BATCH_SIZE", 25),
		IngestWaitSeconds:  getEnvInt("INGEST_WAIT_SECONDS", 30),
		RemovalPageSize:    getEnvInt("REMOVAL_PAGE_SIZE", 1000),
		RemovalDelayMillis: getEnvInt("REMOVAL_DELAY_MS", 2000),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RewriteCacheTTL: getEnvInt("REWRITE_CACHE_TTL", 600),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 20),
		RetrySweepCron:    getEnv("RETRY_SWEEP_CRON", "*/15 * * * *"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
