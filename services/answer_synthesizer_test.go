package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/models"
)

func TestSourceBlockOrderAndFormat(t *testing.T) {
	passages := []models.RetrievedPassage{
		{Title: "a.pdf#0", Content: "first"},
		{Title: "b.pdf#1", Content: "second"},
		{Title: "c.pdf#2", Content: "third"},
	}
	block := SourceBlock(passages)
	want := "a.pdf#0:first\rb.pdf#1:second\rc.pdf#2:third"
	if block != want {
		t.Errorf("source block = %q, want %q", block, want)
	}
}

func TestSourceBlockEmpty(t *testing.T) {
	if got := SourceBlock(nil); got != "no source available." {
		t.Errorf("empty source block = %q", got)
	}
}

func TestSynthesizeStrictJSON(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: `{"answer": "It is $500 [a.pdf#0].", "thoughts": "Found in a.pdf."}`, TotalTokens: 30},
	}}
	synth := NewAnswerSynthesizer(completer)

	result, err := synth.Synthesize(context.Background(), nil, "What is the deductible?",
		[]models.RetrievedPassage{{Title: "a.pdf#0", Content: "deductible $500"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Answer != "It is $500 [a.pdf#0]." {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.Thoughts != "Found in a.pdf." {
		t.Errorf("thoughts = %q", result.Thoughts)
	}
	if result.Tokens != 30 {
		t.Errorf("tokens = %d", result.Tokens)
	}

	req := completer.requests[0]
	if req.MaxTokens != 1024 {
		t.Errorf("max tokens = %d, want 1024", req.MaxTokens)
	}
	if req.Temperature != 0.5 {
		t.Errorf("default temperature = %v, want 0.5", req.Temperature)
	}
	if !strings.Contains(req.UserPrompt, "a.pdf#0:deductible $500") {
		t.Errorf("prompt missing source block: %q", req.UserPrompt)
	}
}

func TestSynthesizeTemperatureOverride(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: `{"answer": "ok", "thoughts": ""}`},
	}}
	synth := NewAnswerSynthesizer(completer)

	temp := float32(0.1)
	if _, err := synth.Synthesize(context.Background(), nil, "q", nil, &temp); err != nil {
		t.Fatal(err)
	}
	if completer.requests[0].Temperature != 0.1 {
		t.Errorf("temperature = %v", completer.requests[0].Temperature)
	}
}

func TestSynthesizeFencedJSONFallback(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: "```json\n{\"answer\": \"Fenced answer\", \"thoughts\": \"t\"}\n```"},
	}}
	synth := NewAnswerSynthesizer(completer)

	result, err := synth.Synthesize(context.Background(), nil, "q", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Answer != "Fenced answer" {
		t.Errorf("answer = %q", result.Answer)
	}
}

func TestSynthesizeUnparseableOutput(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: "I cannot answer that in JSON, sorry.", TotalTokens: 12},
	}}
	synth := NewAnswerSynthesizer(completer)

	result, err := synth.Synthesize(context.Background(), nil, "q", nil, nil)
	if !errors.Is(err, ErrAnswerParsingFailed) {
		t.Fatalf("expected ErrAnswerParsingFailed, got %v", err)
	}
	// Tokens were spent even though the output was unusable.
	if result.Tokens != 12 {
		t.Errorf("tokens = %d", result.Tokens)
	}
}

func TestSynthesizeNoSourcePlaceholderInPrompt(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: `{"answer": "I don't know", "thoughts": "no sources"}`},
	}}
	synth := NewAnswerSynthesizer(completer)

	if _, err := synth.Synthesize(context.Background(), nil, "q", nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(completer.requests[0].UserPrompt, "no source available.") {
		t.Errorf("prompt missing placeholder: %q", completer.requests[0].UserPrompt)
	}
}

func TestSynthesizeMissingThoughtsFails(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: `{"answer": "The deductible is $500."}`},
	}}
	synth := NewAnswerSynthesizer(completer)

	_, err := synth.Synthesize(context.Background(), nil, "q", nil, nil)
	if !errors.Is(err, ErrAnswerParsingFailed) {
		t.Fatalf("payload without thoughts must fail parsing, got %v", err)
	}
}

func TestSynthesizeEmptyThoughtsAllowed(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: `{"answer": "ok", "thoughts": ""}`},
	}}
	synth := NewAnswerSynthesizer(completer)

	result, err := synth.Synthesize(context.Background(), nil, "q", nil, nil)
	if err != nil {
		t.Fatalf("present-but-empty thoughts must parse: %v", err)
	}
	if result.Answer != "ok" {
		t.Errorf("answer = %q", result.Answer)
	}
}

func TestSynthesizeModelUnavailable(t *testing.T) {
	completer := &fakeCompleter{errs: []error{ai.ErrUnavailable}}
	synth := NewAnswerSynthesizer(completer)

	_, err := synth.Synthesize(context.Background(), nil, "q", nil, nil)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
