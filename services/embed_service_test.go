package services

import (
	"context"
	"errors"
	"testing"

	"rag-chat-platform/models"
)

func fourPages() []models.Page {
	return []models.Page{
		{Number: 0, Text: "page zero"},
		{Number: 1, Text: "page one"},
		{Number: 2, Text: "page two"},
		{Number: 3, Text: "page three"},
	}
}

func TestEmbedDocumentIndexesEveryPage(t *testing.T) {
	index := &fakeSearch{}
	corpus := newMemBlobStore()
	embedder := &fakeEmbedder{vector: []float32{0.5, 0.5}}
	svc := NewDocumentEmbedService(&fakeExtractor{pages: fourPages()}, embedder, index, corpus, "passages", "benefits")

	if err := svc.EmbedDocument(context.Background(), []byte("raw"), "guide.pdf"); err != nil {
		t.Fatal(err)
	}

	if len(index.upserted) != 4 {
		t.Fatalf("upserted %d records, want 4", len(index.upserted))
	}
	for i, rec := range index.upserted {
		if rec.ID != PassageID("guide.pdf", i) {
			t.Errorf("record %d id = %q", i, rec.ID)
		}
		if rec.SourceFile != "guide.pdf" {
			t.Errorf("record %d sourcefile = %q", i, rec.SourceFile)
		}
		if rec.SourcePage != SourcePageName("guide.pdf", i) {
			t.Errorf("record %d sourcepage = %q", i, rec.SourcePage)
		}
		if rec.Category != "benefits" {
			t.Errorf("record %d category = %q", i, rec.Category)
		}
		if len(rec.Embedding) != 2 {
			t.Errorf("record %d embedding dims = %d", i, len(rec.Embedding))
		}
	}
	if embedder.calls != 4 {
		t.Errorf("embedder calls = %d", embedder.calls)
	}

	for i := 0; i < 4; i++ {
		name := PageBlobName("guide.pdf", i)
		data, err := corpus.Read(context.Background(), name)
		if err != nil {
			t.Fatalf("page artifact %s missing: %v", name, err)
		}
		if string(data) != fourPages()[i].Text {
			t.Errorf("artifact %s = %q", name, data)
		}
	}

	meta := corpus.metadata["guide.pdf"]
	if got := meta[models.MetadataKeyStatus]; got != string(models.StatusSucceeded) {
		t.Errorf("status metadata = %q", got)
	}
	if got := meta[models.MetadataKeyEmbeddingType]; got != "vector" {
		t.Errorf("embedding type = %q", got)
	}
}

func TestEmbedDocumentTextOnlyMode(t *testing.T) {
	index := &fakeSearch{}
	corpus := newMemBlobStore()
	svc := NewDocumentEmbedService(&fakeExtractor{pages: fourPages()}, nil, index, corpus, "passages", "")

	if err := svc.EmbedDocument(context.Background(), []byte("raw"), "guide.pdf"); err != nil {
		t.Fatal(err)
	}

	for i, rec := range index.upserted {
		if rec.Embedding != nil {
			t.Errorf("record %d has an embedding in text-only mode", i)
		}
	}
	if got := corpus.metadata["guide.pdf"][models.MetadataKeyEmbeddingType]; got != "text" {
		t.Errorf("embedding type = %q", got)
	}
}

func TestEmbedDocumentIdempotentIDs(t *testing.T) {
	index := &fakeSearch{}
	corpus := newMemBlobStore()
	svc := NewDocumentEmbedService(&fakeExtractor{pages: fourPages()}, nil, index, corpus, "passages", "")

	for run := 0; run < 2; run++ {
		if err := svc.EmbedDocument(context.Background(), []byte("raw"), "guide.pdf"); err != nil {
			t.Fatal(err)
		}
	}

	// Both runs must emit identical IDs so the second overwrites the first.
	if len(index.upserted) != 8 {
		t.Fatalf("upserted %d records", len(index.upserted))
	}
	for i := 0; i < 4; i++ {
		if index.upserted[i].ID != index.upserted[i+4].ID {
			t.Errorf("re-ingestion changed id %q -> %q", index.upserted[i].ID, index.upserted[i+4].ID)
		}
	}
}

func TestEmbedDocumentFailureMarksFailed(t *testing.T) {
	index := &fakeSearch{upsertErr: errors.New("index down")}
	corpus := newMemBlobStore()
	svc := NewDocumentEmbedService(&fakeExtractor{pages: fourPages()}, nil, index, corpus, "passages", "")

	err := svc.EmbedDocument(context.Background(), []byte("raw"), "guide.pdf")
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
	if got := corpus.metadata["guide.pdf"][models.MetadataKeyStatus]; got != string(models.StatusFailed) {
		t.Errorf("status metadata = %q, want Failed", got)
	}
}

func TestEmbedDocumentUnsupportedType(t *testing.T) {
	corpus := newMemBlobStore()
	svc := NewDocumentEmbedService(NewDocumentSplitter(), nil, &fakeSearch{}, corpus, "passages", "")

	err := svc.EmbedDocument(context.Background(), []byte("data"), "notes.md")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}
