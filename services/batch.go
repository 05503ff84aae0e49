package services

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/storage"
)

// DocumentIngestor is the per-document half of the batch pipeline.
type DocumentIngestor interface {
	EmbedDocument(ctx context.Context, data []byte, fileName string) error
}

// NamedFile is one raw document handed to a batch run.
type NamedFile struct {
	Name string
	Data []byte
}

// BatchIngestService pushes many documents through ingestion in fixed-size
// chunks. Files inside a chunk run concurrently; chunks run one after another
// with a pause in between to stay under upstream rate limits. Per-file
// failures are collected and raised together once every chunk has finished.
type BatchIngestService struct {
	ingestor  DocumentIngestor
	corpus    storage.BlobStore
	chunkSize int
	delay     time.Duration
}

func NewBatchIngestService(ingestor DocumentIngestor, corpus storage.BlobStore, chunkSize int, delay time.Duration) *BatchIngestService {
	if chunkSize <= 0 {
		chunkSize = 25
	}
	return &BatchIngestService{
		ingestor:  ingestor,
		corpus:    corpus,
		chunkSize: chunkSize,
		delay:     delay,
	}
}

// IngestFiles uploads every file's raw blob and runs it through ingestion.
// The returned error is an *IngestBatchError when any file failed; files that
// succeeded are not rolled back.
func (s *BatchIngestService) IngestFiles(ctx context.Context, files []NamedFile) error {
	var (
		mu       sync.Mutex
		failures []FileError
	)

	for start := 0; start < len(files); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(files) {
			end = len(files)
		}
		chunk := files[start:end]

		var wg sync.WaitGroup
		for _, file := range chunk {
			wg.Add(1)
			go func(file NamedFile) {
				defer wg.Done()
				if err := s.ingestOne(ctx, file); err != nil {
					mu.Lock()
					failures = append(failures, FileError{File: file.Name, Err: err})
					mu.Unlock()
				}
			}(file)
		}
		wg.Wait()

		logger.Info("batch chunk processed", "from", start, "to", end, "total", len(files))
		if end < len(files) {
			if err := wait(ctx, s.delay); err != nil {
				return err
			}
		}
	}

	if len(failures) > 0 {
		return &IngestBatchError{Failures: failures}
	}
	return nil
}

func (s *BatchIngestService) ingestOne(ctx context.Context, file NamedFile) error {
	name := filepath.Base(file.Name)
	contentType := http.DetectContentType(file.Data)
	if err := s.corpus.Upload(ctx, name, file.Data, contentType); err != nil {
		return err
	}
	return s.ingestor.EmbedDocument(ctx, file.Data, name)
}
