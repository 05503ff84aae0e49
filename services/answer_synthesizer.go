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

const answerSystemPrompt = `You are a system assistant who helps the company employees with their questions. Be brief in your answers.
Answer ONLY with the facts listed in the list of sources below. If there isn't enough information below, say you don't know. Do not generate answers that don't use the sources below. Each source has a name followed by colon and the actual information, always include the source name for each fact you use in the response. Use square brackets to reference the source, e.g. [info1.txt]. Don't combine sources, list each source separately, e.g. [info1.txt][info2.pdf].

Your answer needs to be a json object with the following format.
{
    "answer": // the answer to the question, add a source reference to the end of each sentence. e.g. Apple is a fruit [reference1.pdf][reference2.pdf]. If no source available, put the answer as I don't know.
    "thoughts": // brief thoughts on how you came up with the answer, e.g. what sources you used, what you thought about, etc.
}`

const (
	noSourcePlaceholder = "no source available."
	defaultTemperature  = float32(0.5)
	answerMaxTokens     = int32(1024)
)

// SynthesizedAnswer is one grounded answer with the model's reasoning notes.
type SynthesizedAnswer struct {
	Answer   string
	Thoughts string
	Tokens   int
}

// AnswerSynthesizer produces a grounded answer from the retrieved passages.
type AnswerSynthesizer struct {
	completer ai.Completer
}

func NewAnswerSynthesizer(completer ai.Completer) *AnswerSynthesizer {
	return &AnswerSynthesizer{completer: completer}
}

// Synthesize asks the model to answer the question from the passages only.
// A nil temperature means the default. The passages are rendered in the exact
// order given; when there are none the placeholder block is sent instead so
// the model says it does not know rather than improvise.
func (a *AnswerSynthesizer) Synthesize(
	ctx context.Context,
	history []models.ChatMessage,
	question string,
	passages []models.RetrievedPassage,
	temperature *float32,
) (SynthesizedAnswer, error) {
	temp := defaultTemperature
	if temperature != nil {
		temp = *temperature
	}

	prompt := fmt.Sprintf("## Source ##\n%s\n## End ##\n\nYour answer needs to be a json object with answer and thoughts field.\nDon't put your answer between ```json and ```, return the json string directly. e.g {\"answer\": \"I don't know\", \"thoughts\": \"I don't know\"}", SourceBlock(passages))

	result, err := a.completer.Complete(ctx, ai.CompletionRequest{
		System:      answerSystemPrompt,
		History:     append(append([]models.ChatMessage{}, history...), models.ChatMessage{Role: models.RoleUser, Content: question}),
		UserPrompt:  prompt,
		Temperature: temp,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return SynthesizedAnswer{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return SynthesizedAnswer{}, err
	}

	answer, thoughts, err := parseAnswerJSON(result.Text)
	if err != nil {
		return SynthesizedAnswer{Tokens: result.TotalTokens}, err
	}
	return SynthesizedAnswer{Answer: answer, Thoughts: thoughts, Tokens: result.TotalTokens}, nil
}

// SourceBlock renders retrieved passages as "title:content" lines joined by
// carriage returns, the shape the answer prompt teaches the model to cite.
func SourceBlock(passages []models.RetrievedPassage) string {
	if len(passages) == 0 {
		return noSourcePlaceholder
	}
	lines := make([]string, len(passages))
	for i, p := range passages {
		lines[i] = p.Title + ":" + p.Content
	}
	return strings.Join(lines, "\r")
}

// Pointer fields distinguish an absent key from an empty value; both answer
// and thoughts must be present.
type answerPayload struct {
	Answer   *string `json:"answer"`
	Thoughts *string `json:"thoughts"`
}

// parseAnswerJSON decodes the model output strictly first, then falls back to
// carving the outermost JSON object out of surrounding prose or code fences.
// Models wrap JSON in fences often enough that the fallback earns its keep.
func parseAnswerJSON(text string) (string, string, error) {
	if answer, thoughts, ok := decodeAnswer(text); ok {
		return answer, thoughts, nil
	}

	if candidate := extractJSONObject(text); candidate != "" {
		if answer, thoughts, ok := decodeAnswer(candidate); ok {
			logger.Debug("answer parsed via fallback extraction")
			return answer, thoughts, nil
		}
	}

	return "", "", fmt.Errorf("%w: %q", ErrAnswerParsingFailed, truncate(text, 200))
}

func decodeAnswer(text string) (string, string, bool) {
	var payload answerPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return "", "", false
	}
	if payload.Answer == nil || *payload.Answer == "" || payload.Thoughts == nil {
		return "", "", false
	}
	return *payload.Answer, *payload.Thoughts, true
}

// extractJSONObject returns the substring from the first '{' to the last '}',
// which covers fenced and prose-wrapped outputs.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
