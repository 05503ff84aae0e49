package services

import (
	"context"
	"errors"
	"testing"

	"rag-chat-platform/models"
)

func sampleResponse(tokens int) *models.ChatAppResponse {
	return &models.ChatAppResponse{
		Choices: []models.ResponseChoice{{
			Message: models.ChatMessage{
				Role:        models.RoleAssistant,
				Content:     "an answer",
				TotalTokens: tokens,
			},
		}},
	}
}

func TestRecordTurnCreatesSession(t *testing.T) {
	store := NewMemorySessionStore()
	svc := NewHistoryService(store)

	session, err := svc.RecordTurn(context.Background(), "user-1", "", "What is my deductible?", sampleResponse(50))
	if err != nil {
		t.Fatal(err)
	}
	if session.ID == "" {
		t.Error("session has no ID")
	}
	if session.Title != "What is my deductible?" {
		t.Errorf("title = %q", session.Title)
	}
	if len(session.Turns) != 1 {
		t.Fatalf("turns = %d", len(session.Turns))
	}
	if session.Turns[0].ID == "" {
		t.Error("turn has no ID")
	}
	if session.TotalTokens != 50 {
		t.Errorf("total tokens = %d", session.TotalTokens)
	}
}

func TestRecordTurnAppendsAndAccumulates(t *testing.T) {
	store := NewMemorySessionStore()
	svc := NewHistoryService(store)
	ctx := context.Background()

	first, err := svc.RecordTurn(ctx, "user-1", "", "first?", sampleResponse(10))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.RecordTurn(ctx, "user-1", first.ID, "second?", sampleResponse(20))
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("second turn opened a new session")
	}
	if len(second.Turns) != 2 {
		t.Fatalf("turns = %d", len(second.Turns))
	}
	if second.TotalTokens != 30 {
		t.Errorf("total tokens = %d, want 30", second.TotalTokens)
	}
	if second.Title != "first?" {
		t.Errorf("title changed to %q", second.Title)
	}
	if second.Turns[0].ID == second.Turns[1].ID {
		t.Error("turn IDs are not unique")
	}
}

func TestMemoryStoreScopesToUser(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := &models.ChatHistorySession{ID: "s1", UserID: "owner"}
	if err := store.Upsert(ctx, session); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(ctx, "intruder", "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign session lookup returned %v", err)
	}
	if err := store.Delete(ctx, "intruder", "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("foreign session delete returned %v", err)
	}
	if _, err := store.Get(ctx, "owner", "s1"); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	svc := NewHistoryService(store)

	session, err := svc.RecordTurn(ctx, "user-1", "", "q?", sampleResponse(5))
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Get(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Turns[0].Question.Question != "q?" {
		t.Errorf("question = %q", loaded.Turns[0].Question.Question)
	}
	if loaded.Turns[0].Response == nil {
		t.Fatal("response not persisted")
	}
	if loaded.Turns[0].Response.Choices[0].Message.Content != "an answer" {
		t.Errorf("answer = %q", loaded.Turns[0].Response.Choices[0].Message.Content)
	}

	sessions, err := store.List(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("listed %d sessions", len(sessions))
	}

	if err := store.Delete(ctx, "user-1", session.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "user-1", session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("deleted session still found: %v", err)
	}
}
