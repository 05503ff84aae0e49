package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rag-chat-platform/models"
)

// ErrPinnedQueryNotFound is returned for lookups of unknown or foreign pins.
var ErrPinnedQueryNotFound = errors.New("pinned query not found")

// PinnedQueryService manages the user's saved shortcut questions. Pins live
// outside chat sessions; deleting a session never touches them.
type PinnedQueryService struct {
	collection *mongo.Collection
}

func NewPinnedQueryService(collection *mongo.Collection) *PinnedQueryService {
	return &PinnedQueryService{collection: collection}
}

func (s *PinnedQueryService) Pin(ctx context.Context, userID, question string) (*models.PinnedQuery, error) {
	pin := &models.PinnedQuery{
		ID:     uuid.NewString(),
		UserID: userID,
		Query:  models.UserQuestion{Question: question, AskedOn: time.Now()},
	}
	if _, err := s.collection.InsertOne(ctx, pin); err != nil {
		return nil, err
	}
	return pin, nil
}

func (s *PinnedQueryService) List(ctx context.Context, userID string) ([]models.PinnedQuery, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.M{"query.asked_on": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pins []models.PinnedQuery
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

func (s *PinnedQueryService) Unpin(ctx context.Context, userID, pinID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": pinID, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrPinnedQueryNotFound
	}
	return nil
}
