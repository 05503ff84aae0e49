package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/search"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/models"
)

// Rewriter turns a question plus conversation into a search query.
type Rewriter interface {
	RewriteQuery(ctx context.Context, history []models.ChatMessage, question string) (string, int, error)
}

// Synthesizer produces the grounded answer for a question.
type Synthesizer interface {
	Synthesize(ctx context.Context, history []models.ChatMessage, question string, passages []models.RetrievedPassage, temperature *float32) (SynthesizedAnswer, error)
}

// FollowupSuggester proposes follow-up questions after an answer.
type FollowupSuggester interface {
	Generate(ctx context.Context, question, answer string) ([]string, int, error)
}

// ChatOrchestrator runs the retrieve-then-generate pipeline: rewrite the
// question into a search query, retrieve passages, synthesize a grounded
// answer and optionally suggest follow-ups. Stages run strictly in that
// order and any stage failure aborts the turn.
type ChatOrchestrator struct {
	rewriter        Rewriter
	retriever       search.Service
	synthesizer     Synthesizer
	followups       FollowupSuggester
	embedder        ai.Embedder
	metrics         *telemetry.Metrics
	citationBaseURL string
}

func NewChatOrchestrator(
	rewriter Rewriter,
	retriever search.Service,
	synthesizer Synthesizer,
	followups FollowupSuggester,
	embedder ai.Embedder,
	metrics *telemetry.Metrics,
	citationBaseURL string,
) *ChatOrchestrator {
	return &ChatOrchestrator{
		rewriter:        rewriter,
		retriever:       retriever,
		synthesizer:     synthesizer,
		followups:       followups,
		embedder:        embedder,
		metrics:         metrics,
		citationBaseURL: citationBaseURL,
	}
}

// ReplyAsync answers the latest user question in the request history.
// The history must contain at least one user message; that is validated
// before any model call is made.
func (o *ChatOrchestrator) ReplyAsync(ctx context.Context, history []models.ChatMessage, overrides models.RequestOverrides) (models.ChatAppResponse, error) {
	tracer := otel.Tracer("rag-chat-platform")
	ctx, span := tracer.Start(ctx, "chat.reply", trace.WithAttributes(
		attribute.String("retrieval_mode", string(overrides.RetrievalMode)),
		attribute.Int("history_length", len(history)),
	))
	defer span.End()

	start := time.Now()

	question, priorHistory, err := latestUserQuestion(history)
	if err != nil {
		return models.ChatAppResponse{}, err
	}

	mode := overrides.RetrievalMode
	if mode == "" {
		mode = models.RetrievalModeHybrid
	}

	totalTokens := 0

	var vector []float32
	if mode != models.RetrievalModeText && o.embedder != nil {
		vector, err = o.embedder.EmbedText(ctx, question)
		if err != nil {
			return models.ChatAppResponse{}, pipelineError(ErrModelUnavailable, err)
		}
	}

	query := ""
	if mode != models.RetrievalModeVector {
		var rewriteTokens int
		query, rewriteTokens, err = o.rewriter.RewriteQuery(ctx, priorHistory, question)
		if err != nil {
			return models.ChatAppResponse{}, err
		}
		totalTokens += rewriteTokens
	}

	passages, err := o.retriever.Query(ctx, query, vector, search.Options{
		Top:              overrides.Top,
		ExcludeCategory:  overrides.ExcludeCategory,
		SemanticRanker:   overrides.SemanticRanker,
		SemanticCaptions: overrides.SemanticCaptions,
	})
	if err != nil {
		return models.ChatAppResponse{}, pipelineError(ErrIndexUnavailable, err)
	}

	answer, err := o.synthesizer.Synthesize(ctx, priorHistory, question, passages, overrides.Temperature)
	totalTokens += answer.Tokens
	if err != nil {
		return models.ChatAppResponse{}, err
	}

	var followups []string
	if overrides.SuggestFollowupQuestions && o.followups != nil {
		var followupTokens int
		followups, followupTokens, err = o.followups.Generate(ctx, question, answer.Answer)
		if err != nil {
			return models.ChatAppResponse{}, err
		}
		totalTokens += followupTokens
	}

	if o.metrics != nil {
		o.metrics.RecordChatRequest("success", time.Since(start).Seconds())
		o.metrics.RecordTokensUsed(int64(totalTokens), "gemini")
	}
	logger.Info("chat turn completed",
		"mode", string(mode), "passages", len(passages), "tokens", totalTokens)

	return models.ChatAppResponse{
		Choices: []models.ResponseChoice{{
			Index: 0,
			Message: models.ChatMessage{
				Role:        models.RoleAssistant,
				Content:     answer.Answer,
				TotalTokens: totalTokens,
			},
			Context: models.ResponseContext{
				DataPoints:        passages,
				FollowupQuestions: followups,
				Thoughts: []models.Thoughts{
					{Title: "Searched for", Description: query},
					{Title: "Thoughts", Description: answer.Thoughts},
				},
			},
			CitationBaseURL: o.citationBaseURL,
		}},
	}, nil
}

// latestUserQuestion returns the newest user message and the history that
// precedes it.
func latestUserQuestion(history []models.ChatMessage) (string, []models.ChatMessage, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsUser() {
			return history[i].Content, history[:i], nil
		}
	}
	return "", nil, ErrNoUserQuestion
}
