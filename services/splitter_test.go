package services

import (
	"errors"
	"testing"
)

func TestPassageIDDeterministic(t *testing.T) {
	a := PassageID("Benefit_Options.pdf", 2)
	b := PassageID("Benefit_Options.pdf", 2)
	if a != b {
		t.Fatalf("same input produced different IDs: %q vs %q", a, b)
	}
	if a != "Benefit_Options-2" {
		t.Errorf("id = %q", a)
	}
}

func TestPassageIDSanitizesName(t *testing.T) {
	id := PassageID("Q3 report (final).pdf", 0)
	if id != "Q3_report__final_-0" {
		t.Errorf("id = %q", id)
	}
}

func TestPassageIDDistinctPages(t *testing.T) {
	if PassageID("a.pdf", 0) == PassageID("a.pdf", 1) {
		t.Error("different pages produced the same ID")
	}
	if PassageID("a.pdf", 0) == PassageID("b.pdf", 0) {
		t.Error("different files produced the same ID")
	}
}

func TestPageBlobName(t *testing.T) {
	if got := PageBlobName("Benefit_Options.pdf", 3); got != "Benefit_Options-3.txt" {
		t.Errorf("blob name = %q", got)
	}
	if got := PageBlobName("/tmp/docs/guide.docx", 0); got != "guide-0.txt" {
		t.Errorf("blob name = %q", got)
	}
}

func TestSourcePageName(t *testing.T) {
	if got := SourcePageName("Benefit_Options.pdf", 2); got != "Benefit_Options.pdf#2" {
		t.Errorf("source page = %q", got)
	}
}

func TestExtractPagesUnsupportedType(t *testing.T) {
	splitter := NewDocumentSplitter()
	_, err := splitter.ExtractPages([]byte("hello"), "notes.md")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestExtractPagesHTML(t *testing.T) {
	html := `<html><head><style>body{color:red}</style></head>
<body><script>alert(1)</script>
<h1>Plan overview</h1>
<p>The deductible is $500.</p>
</body></html>`

	splitter := NewDocumentSplitter()
	pages, err := splitter.ExtractPages([]byte(html), "plan.html")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	if pages[0].Number != 0 {
		t.Errorf("page number = %d", pages[0].Number)
	}
	text := pages[0].Text
	if text != "Plan overview The deductible is $500." {
		t.Errorf("text = %q", text)
	}
}

func TestExtractPagesEmptyHTML(t *testing.T) {
	splitter := NewDocumentSplitter()
	pages, err := splitter.ExtractPages([]byte("<html><body></body></html>"), "empty.html")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 0 {
		t.Errorf("pages = %d, want 0 for a document with no text", len(pages))
	}
}

func TestNormalizeText(t *testing.T) {
	if got := normalizeText("  a \n\t b   c "); got != "a b c" {
		t.Errorf("normalized = %q", got)
	}
}
