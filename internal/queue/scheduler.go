package queue

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"

	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/storage"
	"rag-chat-platform/models"
)

// Scheduler runs periodic maintenance jobs alongside the task worker.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &Scheduler{scheduler: s}
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ScheduleCron registers a job on a cron expression.
func (s *Scheduler) ScheduleCron(tag, cronExpr string, job func() error) error {
	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(func() {
		if err := job(); err != nil {
			logger.Error("scheduled job failed", "tag", tag, "error", err)
		}
	})
	return err
}

// RetrySweeper re-enqueues documents whose last ingestion attempt failed.
// Transient model or index outages otherwise leave documents stuck in the
// Failed state until someone re-uploads them.
type RetrySweeper struct {
	corpus storage.BlobStore
	client *asynq.Client
}

func NewRetrySweeper(corpus storage.BlobStore, client *asynq.Client) *RetrySweeper {
	return &RetrySweeper{corpus: corpus, client: client}
}

func (r *RetrySweeper) Sweep(ctx context.Context) error {
	blobs, err := r.corpus.List(ctx, "")
	if err != nil {
		return err
	}

	swept := 0
	for _, blob := range blobs {
		if models.DocumentProcessingStatus(blob.Metadata[models.MetadataKeyStatus]) != models.StatusFailed {
			continue
		}
		task, err := NewIngestTask(blob.Name)
		if err != nil {
			return err
		}
		if _, err := r.client.Enqueue(task); err != nil {
			return err
		}
		swept++
	}

	if swept > 0 {
		logger.Info("retry sweep re-enqueued failed documents", "count", swept)
	}
	return nil
}
