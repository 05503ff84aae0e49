package ai

import (
	"context"
	"errors"

	"rag-chat-platform/models"
)

// ErrUnavailable is returned when the model backend cannot be reached, for
// example while the circuit breaker is open. Callers are expected to retry;
// the pipeline never retries internally.
var ErrUnavailable = errors.New("model backend unavailable")

// CompletionRequest is one chat-completion call.
type CompletionRequest struct {
	System      string
	History     []models.ChatMessage
	UserPrompt  string
	Temperature float32
	MaxTokens   int32
}

// CompletionResult carries the raw model text plus usage metadata.
// TotalTokens is 0 when the backend reports no usage.
type CompletionResult struct {
	Text        string
	TotalTokens int
}

// Completer is the language-model dependency of the query pipeline.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// Embedder computes vector embeddings for text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
