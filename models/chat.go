// models/chat.go
package models

import "time"

// Message roles understood by the pipeline and the model backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// RetrievalMode selects how passages are looked up for a question.
type RetrievalMode string

const (
	RetrievalModeHybrid RetrievalMode = "hybrid"
	RetrievalModeText   RetrievalMode = "text"
	RetrievalModeVector RetrievalMode = "vector"
)

// ChatMessage is one turn of conversation history. Immutable once created.
type ChatMessage struct {
	Role        string `bson:"role" json:"role"`
	Content     string `bson:"content" json:"content"`
	TotalTokens int    `bson:"total_tokens" json:"totalTokens"`
}

// IsUser reports whether the message was authored by the end user.
func (m ChatMessage) IsUser() bool { return m.Role == RoleUser }

// UserQuestion is a question as the user asked it.
type UserQuestion struct {
	Question string    `bson:"question" json:"question"`
	AskedOn  time.Time `bson:"asked_on" json:"askedOn"`
}

// ChatTurn pairs a question with the response it produced. Response is nil
// while the answer is still in flight. Turns carry a surrogate ID so session
// upserts never depend on value equality of the question itself.
type ChatTurn struct {
	ID       string           `bson:"turn_id" json:"id"`
	Question UserQuestion     `bson:"question" json:"question"`
	Response *ChatAppResponse `bson:"response,omitempty" json:"response,omitempty"`
}

// ChatHistorySession is a persisted conversation. Turns are ordered by ask
// time; appending is the only mutation.
type ChatHistorySession struct {
	ID          string     `bson:"_id" json:"id"`
	UserID      string     `bson:"user_id" json:"userId"`
	Title       string     `bson:"title" json:"title"`
	TotalTokens int        `bson:"total_tokens" json:"totalTokens"`
	Turns       []ChatTurn `bson:"turns" json:"turns"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updatedAt"`
}

// RetrievedPassage is the slice of an indexed passage surfaced to answer
// synthesis and returned to the caller as supporting content.
type RetrievedPassage struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Thoughts describes how the model arrived at an answer.
type Thoughts struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ResponseContext carries everything around the answer itself.
type ResponseContext struct {
	DataPoints        []RetrievedPassage `json:"dataPoints"`
	FollowupQuestions []string           `json:"followupQuestions"`
	Thoughts          []Thoughts         `json:"thoughts"`
}

// ResponseChoice is one candidate answer. The pipeline always produces
// exactly one.
type ResponseChoice struct {
	Index           int             `json:"index"`
	Message         ChatMessage     `json:"message"`
	Context         ResponseContext `json:"context"`
	CitationBaseURL string          `json:"citationBaseUrl"`
}

// ChatAppResponse is the complete result of one pipeline run. Immutable after
// construction; the orchestrator is its only producer.
type ChatAppResponse struct {
	Choices []ResponseChoice `json:"choices"`
}

// RequestOverrides tune a single chat request.
type RequestOverrides struct {
	Top                      int           `json:"top"`
	Temperature              *float32      `json:"temperature,omitempty"`
	RetrievalMode            RetrievalMode `json:"retrievalMode"`
	ExcludeCategory          string        `json:"excludeCategory,omitempty"`
	SemanticCaptions         bool          `json:"semanticCaptions"`
	SemanticRanker           bool          `json:"semanticRanker"`
	SuggestFollowupQuestions bool          `json:"suggestFollowupQuestions"`
}

// ChatRequest is the wire request for POST /chat.
type ChatRequest struct {
	History   []ChatMessage    `json:"history" binding:"required"`
	Overrides RequestOverrides `json:"overrides"`
	SessionID string           `json:"sessionId,omitempty"`
}

// PinnedQuery is a user-curated shortcut question. Its lifecycle is
// independent of chat sessions.
type PinnedQuery struct {
	ID     string       `bson:"_id" json:"id"`
	UserID string       `bson:"user_id" json:"userId"`
	Query  UserQuestion `bson:"query" json:"query"`
}
