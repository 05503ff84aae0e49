package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/storage"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/services"
)

const (
	TaskIngestDocument = "document:ingest"
	TaskRemoveDocument = "document:remove"
)

type IngestPayload struct {
	BlobName string `json:"blob_name"`
}

type RemovePayload struct {
	FileName string `json:"file_name"`
}

// Task creators
func NewIngestTask(blobName string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{BlobName: blobName})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

func NewRemoveTask(fileName string) (*asynq.Task, error) {
	payload, err := json.Marshal(RemovePayload{FileName: fileName})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskRemoveDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// TaskProcessor hosts the queue-side halves of the ingestion and removal
// pipelines.
type TaskProcessor struct {
	embedService *services.DocumentEmbedService
	removal      *services.RemovalService
	corpus       storage.BlobStore
	metrics      *telemetry.Metrics
}

func NewTaskProcessor(embedService *services.DocumentEmbedService, removal *services.RemovalService, corpus storage.BlobStore, metrics *telemetry.Metrics) *TaskProcessor {
	return &TaskProcessor{
		embedService: embedService,
		removal:      removal,
		corpus:       corpus,
		metrics:      metrics,
	}
}

// IngestDocument reads the raw blob back from the corpus store and runs it
// through splitting, embedding and indexing. Unsupported file types are not
// retried; they will not become supported on the next attempt.
func (p *TaskProcessor) IngestDocument(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("ingesting document", "blob", payload.BlobName)
	start := time.Now()

	data, err := p.corpus.Read(ctx, payload.BlobName)
	if err != nil {
		return fmt.Errorf("failed to read blob %s: %w", payload.BlobName, err)
	}

	if err := p.embedService.EmbedDocument(ctx, data, payload.BlobName); err != nil {
		if p.metrics != nil {
			p.metrics.RecordDocumentIngested("failed", time.Since(start).Seconds())
		}
		if errors.Is(err, services.ErrUnsupportedFileType) {
			logger.Error("unsupported document type, not retrying", "blob", payload.BlobName, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if p.metrics != nil {
		p.metrics.RecordDocumentIngested("success", time.Since(start).Seconds())
	}
	return nil
}

// RemoveDocument deletes a document's blobs and indexed passages.
func (p *TaskProcessor) RemoveDocument(ctx context.Context, t *asynq.Task) error {
	var payload RemovePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("removing document", "file", payload.FileName)
	return p.removal.RemoveDocument(ctx, payload.FileName)
}
