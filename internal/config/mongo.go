package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createIndexes(client *mongo.Client, cfg *Config) error {
	db := client.Database(cfg.DBName)

	// Sessions: list is always scoped to one user, newest first.
	sessionsCollection := db.Collection("chat_sessions")
	sessionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	}
	if _, err := sessionsCollection.Indexes().CreateMany(context.Background(), sessionIndexes); err != nil {
		return err
	}

	// Pinned queries are looked up per user.
	pinnedCollection := db.Collection("pinned_queries")
	pinnedIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}
	if _, err := pinnedCollection.Indexes().CreateMany(context.Background(), pinnedIndexes); err != nil {
		return err
	}

	// Passages are removed by sourcefile filter during corpus removal.
	passagesCollection := db.Collection("passages")
	passageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "sourcefile", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}
	if _, err := passagesCollection.Indexes().CreateMany(context.Background(), passageIndexes); err != nil {
		return err
	}

	// Corpus blobs are addressed by name.
	corpusCollection := db.Collection(cfg.CorpusCollection)
	corpusIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := corpusCollection.Indexes().CreateMany(context.Background(), corpusIndexes); err != nil {
		return err
	}

	return nil
}
