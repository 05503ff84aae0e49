package search

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rag-chat-platform/models"
)

const defaultTop = 3

// AtlasSearchService implements Service on a MongoDB Atlas collection using
// $search for text queries and $vectorSearch for vector queries. Hybrid
// queries run both and interleave the results.
type AtlasSearchService struct {
	collection       *mongo.Collection
	textIndexName    string
	vectorIndexName  string
	vectorDimensions int
	pageSize         int
}

func NewAtlasSearchService(collection *mongo.Collection, textIndex, vectorIndex string, vectorDimensions, removalPageSize int) *AtlasSearchService {
	if removalPageSize <= 0 {
		removalPageSize = 1000
	}
	return &AtlasSearchService{
		collection:       collection,
		textIndexName:    textIndex,
		vectorIndexName:  vectorIndex,
		vectorDimensions: vectorDimensions,
		pageSize:         removalPageSize,
	}
}

// EnsureIndex creates the text and vector search indexes if absent. The field
// set is fixed: id, content, category, sourcepage, sourcefile, embedding.
func (s *AtlasSearchService) EnsureIndex(ctx context.Context, name string) error {
	view := s.collection.SearchIndexes()

	existing := map[string]bool{}
	cursor, err := view.List(ctx, nil)
	if err == nil {
		var specs []bson.M
		if err := cursor.All(ctx, &specs); err == nil {
			for _, spec := range specs {
				if n, ok := spec["name"].(string); ok {
					existing[n] = true
				}
			}
		}
	}

	if !existing[s.textIndexName] {
		definition := bson.M{
			"mappings": bson.M{
				"dynamic": false,
				"fields": bson.M{
					"content":    bson.M{"type": "string"},
					"category":   bson.M{"type": "token"},
					"sourcepage": bson.M{"type": "token"},
					"sourcefile": bson.M{"type": "token"},
				},
			},
		}
		_, err := view.CreateOne(ctx, mongo.SearchIndexModel{
			Definition: definition,
			Options:    options.SearchIndexes().SetName(s.textIndexName),
		})
		if err != nil {
			return fmt.Errorf("failed to create text search index: %w", err)
		}
	}

	if !existing[s.vectorIndexName] {
		definition := bson.M{
			"fields": bson.A{
				bson.M{
					"type":          "vector",
					"path":          "embedding",
					"numDimensions": s.vectorDimensions,
					"similarity":    "cosine",
				},
				bson.M{"type": "filter", "path": "category"},
				bson.M{"type": "filter", "path": "sourcefile"},
			},
		}
		_, err := view.CreateOne(ctx, mongo.SearchIndexModel{
			Definition: definition,
			Options:    options.SearchIndexes().SetName(s.vectorIndexName).SetType("vectorSearch"),
		})
		if err != nil {
			return fmt.Errorf("failed to create vector search index: %w", err)
		}
	}

	return nil
}

func (s *AtlasSearchService) Query(ctx context.Context, query string, vector []float32, opts Options) ([]models.RetrievedPassage, error) {
	top := opts.Top
	if top < 1 {
		top = defaultTop
	}

	var vectorRecords, textRecords []models.PassageRecord
	var err error

	if len(vector) > 0 {
		vectorRecords, err = s.vectorQuery(ctx, vector, top, opts.ExcludeCategory)
		if err != nil {
			return nil, err
		}
	}
	if query != "" {
		textRecords, err = s.textQuery(ctx, query, top, opts.ExcludeCategory)
		if err != nil {
			return nil, err
		}
	}

	return mergeRanked(vectorRecords, textRecords, top), nil
}

// mergeRanked alternates between the two rankings, dropping duplicates, so
// neither retrieval arm can crowd the other out of a hybrid result.
func mergeRanked(vector, text []models.PassageRecord, top int) []models.RetrievedPassage {
	seen := map[string]bool{}
	passages := make([]models.RetrievedPassage, 0, top)

	add := func(rec models.PassageRecord) {
		if seen[rec.ID] {
			return
		}
		seen[rec.ID] = true
		passages = append(passages, models.RetrievedPassage{Title: rec.SourcePage, Content: rec.Content})
	}

	for i := 0; i < len(vector) || i < len(text); i++ {
		if len(passages) >= top {
			break
		}
		if i < len(vector) {
			add(vector[i])
		}
		if len(passages) >= top {
			break
		}
		if i < len(text) {
			add(text[i])
		}
	}
	return passages
}

func (s *AtlasSearchService) vectorQuery(ctx context.Context, vector []float32, top int, excludeCategory string) ([]models.PassageRecord, error) {
	stage := bson.M{
		"index":         s.vectorIndexName,
		"path":          "embedding",
		"queryVector":   vector,
		"numCandidates": top * 10,
		"limit":         top,
	}
	if excludeCategory != "" {
		stage["filter"] = bson.M{"category": bson.M{"$ne": excludeCategory}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: stage}},
	}
	return s.runPipeline(ctx, pipeline)
}

func (s *AtlasSearchService) textQuery(ctx context.Context, query string, top int, excludeCategory string) ([]models.PassageRecord, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$search", Value: bson.M{
			"index": s.textIndexName,
			"text": bson.M{
				"query": query,
				"path":  "content",
			},
		}}},
	}
	if excludeCategory != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"category": bson.M{"$ne": excludeCategory},
		}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$limit", Value: top}})

	return s.runPipeline(ctx, pipeline)
}

func (s *AtlasSearchService) runPipeline(ctx context.Context, pipeline mongo.Pipeline) ([]models.PassageRecord, error) {
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.PassageRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Upsert bulk-writes records keyed by _id so re-ingestion overwrites.
func (s *AtlasSearchService) Upsert(ctx context.Context, records []models.PassageRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		doc := bson.M{
			"content":    rec.Content,
			"category":   rec.Category,
			"sourcepage": rec.SourcePage,
			"sourcefile": rec.SourceFile,
		}
		if len(rec.Embedding) > 0 {
			doc["embedding"] = rec.Embedding
		}
		batch = append(batch, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": rec.ID}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}

	_, err := s.collection.BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(false))
	return err
}

func (s *AtlasSearchService) DeleteBySourceFile(ctx context.Context, sourceFile string) (int, error) {
	filter := bson.M{}
	if sourceFile != "" {
		filter["sourcefile"] = sourceFile
	}

	findOpts := options.Find().
		SetLimit(int64(s.pageSize)).
		SetProjection(bson.M{"_id": 1})

	cursor, err := s.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return 0, err
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}

	result, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return int(result.DeletedCount), nil
}
