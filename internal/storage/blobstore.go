// Package storage abstracts the object store holding raw documents and the
// normalized per-page text artifacts produced by ingestion.
package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BlobInfo describes one stored blob.
type BlobInfo struct {
	Name        string
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// BlobStore is the object-store collaborator.
type BlobStore interface {
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Upload(ctx context.Context, name string, data []byte, contentType string) error
	Delete(ctx context.Context, name string) error
	SetMetadata(ctx context.Context, name string, metadata map[string]string) error
}

// Size is stored alongside the payload so List can report it without
// projecting the payload itself.
type blobDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	ContentType string             `bson:"content_type"`
	Size        int64              `bson:"size"`
	Data        primitive.Binary   `bson:"data"`
	Metadata    map[string]string  `bson:"metadata,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d blobDocument) info() BlobInfo {
	return BlobInfo{
		Name:        d.Name,
		ContentType: d.ContentType,
		Size:        d.Size,
		Metadata:    d.Metadata,
	}
}

// MongoBlobStore keeps blobs in a Mongo collection, one document per blob,
// addressed by name.
type MongoBlobStore struct {
	collection *mongo.Collection
}

func NewMongoBlobStore(collection *mongo.Collection) *MongoBlobStore {
	return &MongoBlobStore{collection: collection}
}

func (s *MongoBlobStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	filter := bson.M{}
	if prefix != "" {
		filter["name"] = bson.M{"$regex": "^" + regexEscape(prefix)}
	}

	cursor, err := s.collection.Find(ctx, filter,
		options.Find().SetSort(bson.M{"name": 1}).SetProjection(bson.M{"data": 0}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var infos []BlobInfo
	for cursor.Next(ctx) {
		var doc blobDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		infos = append(infos, doc.info())
	}
	return infos, cursor.Err()
}

func (s *MongoBlobStore) Read(ctx context.Context, name string) ([]byte, error) {
	var doc blobDocument
	if err := s.collection.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Data.Data, nil
}

func (s *MongoBlobStore) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	update := bson.M{
		"$set": bson.M{
			"name":         name,
			"content_type": contentType,
			"size":         int64(len(data)),
			"data":         primitive.Binary{Data: data},
			"updated_at":   time.Now(),
		},
	}
	_, err := s.collection.UpdateOne(ctx, bson.M{"name": name}, update,
		options.Update().SetUpsert(true))
	return err
}

func (s *MongoBlobStore) Delete(ctx context.Context, name string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"name": name})
	return err
}

func (s *MongoBlobStore) SetMetadata(ctx context.Context, name string, metadata map[string]string) error {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range metadata {
		set["metadata."+k] = v
	}
	_, err := s.collection.UpdateOne(ctx, bson.M{"name": name}, bson.M{"$set": set})
	return err
}

func regexEscape(s string) string {
	escaped := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '*', '+', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, s[i])
	}
	return string(escaped)
}
