package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/search"
	"rag-chat-platform/internal/storage"
	"rag-chat-platform/models"
)

// fakeCompleter replays scripted results and records every request it saw.
type fakeCompleter struct {
	mu       sync.Mutex
	results  []ai.CompletionResult
	errs     []error
	requests []ai.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req ai.CompletionRequest) (ai.CompletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.requests)
	f.requests = append(f.requests, req)
	if call < len(f.errs) && f.errs[call] != nil {
		return ai.CompletionResult{}, f.errs[call]
	}
	if call < len(f.results) {
		return f.results[call], nil
	}
	return ai.CompletionResult{}, fmt.Errorf("unexpected completion call %d", call)
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeSearch records queries and upserts; deleteCounts scripts the paged
// removal responses.
type fakeSearch struct {
	passages     []models.RetrievedPassage
	queryErr     error
	lastQuery    string
	lastVector   []float32
	lastOpts     search.Options
	queries      int
	upserted     []models.PassageRecord
	upsertErr    error
	deleteCounts []int
	deleteCalls  int
	deleteFiles  []string
}

func (f *fakeSearch) EnsureIndex(_ context.Context, _ string) error { return nil }

func (f *fakeSearch) Query(_ context.Context, query string, vector []float32, opts search.Options) ([]models.RetrievedPassage, error) {
	f.queries++
	f.lastQuery = query
	f.lastVector = vector
	f.lastOpts = opts
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.passages, nil
}

func (f *fakeSearch) Upsert(_ context.Context, records []models.PassageRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *fakeSearch) DeleteBySourceFile(_ context.Context, sourceFile string) (int, error) {
	f.deleteFiles = append(f.deleteFiles, sourceFile)
	if f.deleteCalls < len(f.deleteCounts) {
		n := f.deleteCounts[f.deleteCalls]
		f.deleteCalls++
		return n, nil
	}
	f.deleteCalls++
	return 0, nil
}

// memBlobStore is an in-memory storage.BlobStore.
type memBlobStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	types    map[string]string
	metadata map[string]map[string]string
	deleted  []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{
		blobs:    map[string][]byte{},
		types:    map[string]string{},
		metadata: map[string]map[string]string{},
	}
}

func (s *memBlobStore) List(_ context.Context, prefix string) ([]storage.BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var infos []storage.BlobInfo
	for name, data := range s.blobs {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		infos = append(infos, storage.BlobInfo{
			Name:        name,
			ContentType: s.types[name],
			Size:        int64(len(data)),
			Metadata:    s.metadata[name],
		})
	}
	return infos, nil
}

func (s *memBlobStore) Read(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", name)
	}
	return data, nil
}

func (s *memBlobStore) Upload(_ context.Context, name string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = data
	s.types[name] = contentType
	return nil
}

func (s *memBlobStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, name)
	delete(s.metadata, name)
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *memBlobStore) SetMetadata(_ context.Context, name string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metadata[name] == nil {
		s.metadata[name] = map[string]string{}
	}
	for k, v := range metadata {
		s.metadata[name][k] = v
	}
	return nil
}

// fakeExtractor returns canned pages regardless of input.
type fakeExtractor struct {
	pages []models.Page
	err   error
}

func (f *fakeExtractor) ExtractPages(_ []byte, _ string) ([]models.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}
