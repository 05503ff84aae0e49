package services

import (
	"context"
	"errors"
	"testing"

	"rag-chat-platform/internal/ai"
)

func TestGenerateFollowups(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: `["What is the co-pay?", "What is the deductible?", "Is dental covered?"]`, TotalTokens: 15},
	}}
	gen := NewFollowupGenerator(completer)

	questions, tokens, err := gen.Generate(context.Background(), "q", "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 3 {
		t.Fatalf("questions = %d", len(questions))
	}
	if tokens != 15 {
		t.Errorf("tokens = %d", tokens)
	}
}

func TestGenerateFollowupsFencedArray(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: "Here you go:\n```json\n[\"one?\", \"two?\"]\n```"},
	}}
	gen := NewFollowupGenerator(completer)

	questions, _, err := gen.Generate(context.Background(), "q", "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 2 {
		t.Fatalf("questions = %v", questions)
	}
}

func TestGenerateFollowupsUnparseableDegrades(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: "Sorry, no list today.", TotalTokens: 4},
	}}
	gen := NewFollowupGenerator(completer)

	questions, tokens, err := gen.Generate(context.Background(), "q", "a")
	if err != nil {
		t.Fatalf("unparseable follow-ups must not fail the turn: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("questions = %v, want none", questions)
	}
	if tokens != 4 {
		t.Errorf("tokens = %d", tokens)
	}
}

func TestGenerateFollowupsModelUnavailable(t *testing.T) {
	completer := &fakeCompleter{errs: []error{ai.ErrUnavailable}}
	gen := NewFollowupGenerator(completer)

	_, _, err := gen.Generate(context.Background(), "q", "a")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestGenerateFollowupsDropsBlankEntries(t *testing.T) {
	completer := &fakeCompleter{results: []ai.CompletionResult{
		{Text: `["keep me", "", "   "]`},
	}}
	gen := NewFollowupGenerator(completer)

	questions, _, err := gen.Generate(context.Background(), "q", "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 || questions[0] != "keep me" {
		t.Errorf("questions = %v", questions)
	}
}
