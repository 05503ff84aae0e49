package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/models"
)

const rewriteSystemPrompt = `You are a helpful AI assistant, generate search query for followup question.
Make your respond simple and precise. Return the query only, do not return any other text.
e.g.
Northwind Health Plus AND standard plan.
standard plan AND dental AND employee benefit.`

// QueryRewriter turns the latest user question, in the context of the
// conversation so far, into a keyword search query. Results are cached in
// Redis keyed by a hash of the question; cache failures never fail the
// rewrite, the model is simply asked again.
type QueryRewriter struct {
	completer ai.Completer
	cache     *redis.Client
	ttl       time.Duration
}

func NewQueryRewriter(completer ai.Completer, cache *redis.Client, ttl time.Duration) *QueryRewriter {
	return &QueryRewriter{completer: completer, cache: cache, ttl: ttl}
}

// RewriteQuery returns the search query for the question plus the tokens the
// model spent producing it. A cached hit costs zero tokens.
func (r *QueryRewriter) RewriteQuery(ctx context.Context, history []models.ChatMessage, question string) (string, int, error) {
	cacheKey := rewriteCacheKey(question)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			return cached, 0, nil
		}
	}

	result, err := r.completer.Complete(ctx, ai.CompletionRequest{
		System:      rewriteSystemPrompt,
		History:     history,
		UserPrompt:  fmt.Sprintf("Generate search query for: %s", question),
		Temperature: 0,
		MaxTokens:   100,
	})
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return "", 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return "", 0, pipelineError(ErrQueryGenerationFailed, err)
	}

	query := strings.TrimSpace(result.Text)
	if query == "" {
		return "", result.TotalTokens, ErrQueryGenerationFailed
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey, query, r.ttl).Err(); err != nil {
			logger.Debug("rewrite cache write failed", "error", err)
		}
	}
	return query, result.TotalTokens, nil
}

func rewriteCacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "rewrite:" + hex.EncodeToString(sum[:])
}
