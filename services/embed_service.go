package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/search"
	"rag-chat-platform/internal/storage"
	"rag-chat-platform/models"
)

// upsertBatchSize bounds one index write.
const upsertBatchSize = 100

// PageExtractor is the document-analysis collaborator of the ingestion
// pipeline.
type PageExtractor interface {
	ExtractPages(data []byte, fileName string) ([]models.Page, error)
}

// DocumentEmbedService converts one raw document into indexed passages and
// per-page text artifacts. When no embedder is configured passages are
// indexed text-only; that is a supported mode, not a degraded one.
type DocumentEmbedService struct {
	splitter  PageExtractor
	embedder  ai.Embedder
	index     search.Service
	corpus    storage.BlobStore
	indexName string
	category  string
}

func NewDocumentEmbedService(
	splitter PageExtractor,
	embedder ai.Embedder,
	index search.Service,
	corpus storage.BlobStore,
	indexName string,
	category string,
) *DocumentEmbedService {
	return &DocumentEmbedService{
		splitter:  splitter,
		embedder:  embedder,
		index:     index,
		corpus:    corpus,
		indexName: indexName,
		category:  category,
	}
}

// EnsureSearchIndex creates the passage index schema if absent. Idempotent.
func (s *DocumentEmbedService) EnsureSearchIndex(ctx context.Context) error {
	if err := s.index.EnsureIndex(ctx, s.indexName); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// EmbedDocument splits the document, optionally embeds every page, upserts
// the passage records and uploads the per-page text artifacts. The source
// blob's processing-status metadata is updated either way.
func (s *DocumentEmbedService) EmbedDocument(ctx context.Context, data []byte, fileName string) error {
	err := s.embedDocument(ctx, data, fileName)

	status := models.StatusSucceeded
	if err != nil {
		status = models.StatusFailed
	}
	if metaErr := s.corpus.SetMetadata(ctx, filepath.Base(fileName), map[string]string{
		models.MetadataKeyStatus:        string(status),
		models.MetadataKeyEmbeddingType: s.embeddingType(),
	}); metaErr != nil && err == nil {
		logger.Warn("failed to set processing status", "file", fileName, "error", metaErr)
	}

	return err
}

func (s *DocumentEmbedService) embedDocument(ctx context.Context, data []byte, fileName string) error {
	pages, err := s.splitter.ExtractPages(data, fileName)
	if err != nil {
		return err
	}

	sourceFile := filepath.Base(fileName)
	records := make([]models.PassageRecord, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		record := models.PassageRecord{
			ID:         PassageID(sourceFile, page.Number),
			Content:    page.Text,
			Category:   s.category,
			SourcePage: SourcePageName(sourceFile, page.Number),
			SourceFile: sourceFile,
		}
		if s.embedder != nil {
			vector, err := s.embedder.EmbedText(ctx, page.Text)
			if err != nil {
				if errors.Is(err, ai.ErrUnavailable) {
					return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
				}
				return fmt.Errorf("failed to embed page %d of %s: %w", page.Number, sourceFile, err)
			}
			record.Embedding = vector
		}
		records = append(records, record)
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.index.Upsert(ctx, records[start:end]); err != nil {
			return pipelineError(ErrIndexUnavailable, err)
		}
	}

	for _, page := range pages {
		name := PageBlobName(sourceFile, page.Number)
		if err := s.corpus.Upload(ctx, name, []byte(page.Text), "text/plain"); err != nil {
			return fmt.Errorf("failed to upload page artifact %s: %w", name, err)
		}
	}

	logger.Info("document embedded",
		"file", sourceFile, "pages", len(pages), "embedding", s.embeddingType())
	return nil
}

func (s *DocumentEmbedService) embeddingType() string {
	if s.embedder != nil {
		return "vector"
	}
	return "text"
}
