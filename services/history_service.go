package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rag-chat-platform/models"
)

// ErrSessionNotFound is returned for lookups of unknown or foreign sessions.
var ErrSessionNotFound = errors.New("chat session not found")

// SessionStore persists chat history. All operations are scoped to one user;
// a session belonging to someone else behaves like a missing one.
type SessionStore interface {
	Upsert(ctx context.Context, session *models.ChatHistorySession) error
	Get(ctx context.Context, userID, sessionID string) (*models.ChatHistorySession, error)
	List(ctx context.Context, userID string) ([]models.ChatHistorySession, error)
	Delete(ctx context.Context, userID, sessionID string) error
}

// HistoryService records finished chat turns into sessions.
type HistoryService struct {
	store SessionStore
}

func NewHistoryService(store SessionStore) *HistoryService {
	return &HistoryService{store: store}
}

// RecordTurn appends a completed turn to the session, creating the session
// when sessionID is empty. The session title is the first question asked.
func (s *HistoryService) RecordTurn(ctx context.Context, userID, sessionID, question string, response *models.ChatAppResponse) (*models.ChatHistorySession, error) {
	var session *models.ChatHistorySession
	if sessionID != "" {
		existing, err := s.store.Get(ctx, userID, sessionID)
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		session = existing
	}
	if session == nil {
		session = &models.ChatHistorySession{
			ID:     uuid.NewString(),
			UserID: userID,
			Title:  question,
		}
	}

	session.Turns = append(session.Turns, models.ChatTurn{
		ID:       uuid.NewString(),
		Question: models.UserQuestion{Question: question, AskedOn: time.Now()},
		Response: response,
	})
	for _, choice := range response.Choices {
		session.TotalTokens += choice.Message.TotalTokens
	}
	session.UpdatedAt = time.Now()

	if err := s.store.Upsert(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// MongoSessionStore keeps sessions in a Mongo collection, one document per
// session.
type MongoSessionStore struct {
	collection *mongo.Collection
}

func NewMongoSessionStore(collection *mongo.Collection) *MongoSessionStore {
	return &MongoSessionStore{collection: collection}
}

func (s *MongoSessionStore) Upsert(ctx context.Context, session *models.ChatHistorySession) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": session.ID, "user_id": session.UserID},
		session,
		options.Replace().SetUpsert(true))
	return err
}

func (s *MongoSessionStore) Get(ctx context.Context, userID, sessionID string) (*models.ChatHistorySession, error) {
	var session models.ChatHistorySession
	err := s.collection.FindOne(ctx, bson.M{"_id": sessionID, "user_id": userID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MongoSessionStore) List(ctx context.Context, userID string) ([]models.ChatHistorySession, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []models.ChatHistorySession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *MongoSessionStore) Delete(ctx context.Context, userID, sessionID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": sessionID, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// MemorySessionStore is the in-process store used when no database is
// configured, and by tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatHistorySession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]*models.ChatHistorySession{}}
}

func (s *MemorySessionStore) Upsert(_ context.Context, session *models.ChatHistorySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	copied.Turns = append([]models.ChatTurn(nil), session.Turns...)
	s.sessions[session.ID] = &copied
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, userID, sessionID string) (*models.ChatHistorySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	copied := *session
	copied.Turns = append([]models.ChatTurn(nil), session.Turns...)
	return &copied, nil
}

func (s *MemorySessionStore) List(_ context.Context, userID string) ([]models.ChatHistorySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sessions []models.ChatHistorySession
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, *session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
