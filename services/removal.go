package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/search"
	"rag-chat-platform/internal/storage"
)

// RemovalService takes documents back out of the platform: the raw blob, the
// per-page text artifacts and every passage indexed from them. Index deletes
// are paged and polled because the search indexes apply writes with eventual
// consistency.
type RemovalService struct {
	index  search.Service
	corpus storage.BlobStore
	delay  time.Duration
}

func NewRemovalService(index search.Service, corpus storage.BlobStore, delay time.Duration) *RemovalService {
	return &RemovalService{index: index, corpus: corpus, delay: delay}
}

// RemoveDocument deletes one source file everywhere. An empty fileName removes
// the entire corpus; the empty name is passed through to the index so its
// match-everything filter applies.
func (s *RemovalService) RemoveDocument(ctx context.Context, fileName string) error {
	if err := s.removeBlobs(ctx, fileName); err != nil {
		return err
	}
	sourceFile := ""
	if fileName != "" {
		sourceFile = filepath.Base(fileName)
	}
	return s.removeFromIndex(ctx, sourceFile)
}

func (s *RemovalService) removeBlobs(ctx context.Context, fileName string) error {
	prefix := ""
	if fileName != "" {
		base := filepath.Base(fileName)
		prefix = strings.TrimSuffix(base, filepath.Ext(base))
	}

	blobs, err := s.corpus.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("failed to list blobs: %w", err)
	}

	removed := 0
	for _, blob := range blobs {
		if fileName != "" && !s.belongsTo(blob.Name, fileName) {
			continue
		}
		if err := s.corpus.Delete(ctx, blob.Name); err != nil {
			return fmt.Errorf("failed to delete blob %s: %w", blob.Name, err)
		}
		removed++
	}
	logger.Info("blobs removed", "file", fileName, "count", removed)
	return nil
}

// belongsTo accepts the source blob itself and its page artifacts. The page
// artifact pattern is "{base}-{page}.txt".
func (s *RemovalService) belongsTo(blobName, fileName string) bool {
	base := filepath.Base(fileName)
	if blobName == base {
		return true
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	rest := strings.TrimPrefix(blobName, stem+"-")
	if rest == blobName || !strings.HasSuffix(rest, ".txt") {
		return false
	}
	page := strings.TrimSuffix(rest, ".txt")
	for _, r := range page {
		if r < '0' || r > '9' {
			return false
		}
	}
	return page != ""
}

// removeFromIndex deletes passage pages until a round comes back empty. The
// wait between rounds gives the index time to make earlier deletes visible.
func (s *RemovalService) removeFromIndex(ctx context.Context, sourceFile string) error {
	for {
		deleted, err := s.index.DeleteBySourceFile(ctx, sourceFile)
		if err != nil {
			return pipelineError(ErrIndexUnavailable, err)
		}
		if deleted == 0 {
			return nil
		}
		logger.Info("index passages removed", "file", sourceFile, "count", deleted)
		if err := wait(ctx, s.delay); err != nil {
			return err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
