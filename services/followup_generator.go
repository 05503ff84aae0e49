package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/models"
)

const followupSystemPrompt = `You are a helpful AI assistant`

const followupPromptTemplate = `Generate three follow-up question based on the answer you just generated.
# Answer
%s

# Format of the response
Return the follow-up question as a json string list.
e.g.
[
    "What is the deductible?",
    "What is the co-pay?",
    "What is the out-of-pocket maximum?"
]`

// FollowupGenerator proposes follow-up questions for the answer just given.
// Follow-ups are a convenience, not part of the answer contract, so an output
// the generator cannot parse degrades to no suggestions instead of failing
// the whole turn.
type FollowupGenerator struct {
	completer ai.Completer
}

func NewFollowupGenerator(completer ai.Completer) *FollowupGenerator {
	return &FollowupGenerator{completer: completer}
}

func (g *FollowupGenerator) Generate(ctx context.Context, question, answer string) ([]string, int, error) {
	result, err := g.completer.Complete(ctx, ai.CompletionRequest{
		System: followupSystemPrompt,
		History: []models.ChatMessage{
			{Role: models.RoleUser, Content: question},
			{Role: models.RoleAssistant, Content: answer},
		},
		UserPrompt:  fmt.Sprintf(followupPromptTemplate, answer),
		Temperature: 0,
		MaxTokens:   256,
	})
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return nil, 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return nil, 0, err
	}

	questions, err := parseFollowupJSON(result.Text)
	if err != nil {
		logger.Warn("follow-up parsing failed, continuing without suggestions", "error", err)
		return nil, result.TotalTokens, nil
	}
	return questions, result.TotalTokens, nil
}

func parseFollowupJSON(text string) ([]string, error) {
	var questions []string
	if err := json.Unmarshal([]byte(text), &questions); err == nil {
		return compactStrings(questions), nil
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &questions); err == nil {
			return compactStrings(questions), nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrFollowupParsingFailed, truncate(text, 200))
}

func compactStrings(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
