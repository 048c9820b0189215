package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taleweave/taleweave/pkg/memory/model"
)

// MongoStore implements VectorStore on MongoDB. Atlas deployments with a
// vector search index get the accelerated $vectorSearch path; everything
// else falls back to fetching same-dimensionality documents and ranking
// by cosine distance in process.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *log.Logger
}

const mongoCloseTimeout = 5 * time.Second

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		return nil, errors.New("mongo collection name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     log.With("component", "mongo-store"),
	}, nil
}

func (ms *MongoStore) EnsureReady(ctx context.Context) error {
	return ms.client.Ping(ctx, nil)
}

func (ms *MongoStore) Insert(ctx context.Context, rec model.MemoryRecord) (string, error) {
	if len(rec.Embedding) == 0 {
		return "", ErrEmptyEmbedding
	}
	if rec.Owner == "" {
		return "", ErrNoOwner
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Importance = model.ClampImportance(rec.Importance)
	rec.Distance = 0

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	doc := bson.M{
		"_id":        rec.ID,
		"owner":      rec.Owner,
		"kind":       string(rec.Kind),
		"dims":       len(rec.Embedding),
		"embedding":  float64Embedding(rec.Embedding),
		"payload":    string(payload),
		"created_at": rec.CreatedAt,
	}
	if _, err := ms.collection.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (ms *MongoStore) Query(ctx context.Context, embedding []float32, k int) ([]model.MemoryRecord, error) {
	if k <= 0 || len(embedding) == 0 {
		return nil, nil
	}
	records, err := ms.queryVectorSearch(ctx, embedding, k)
	if err == nil {
		return records, nil
	}
	ms.logger.Warn("$vectorSearch unavailable, scanning", "err", err)
	return ms.queryScan(ctx, embedding, k)
}

// queryVectorSearch uses the Atlas vector index. Oversampling candidates
// improves recall on the approximate path.
func (ms *MongoStore) queryVectorSearch(ctx context.Context, embedding []float32, k int) ([]model.MemoryRecord, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: "vector_index"},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: float64Embedding(embedding)},
			{Key: "numCandidates", Value: int64(k * 10)},
			{Key: "limit", Value: int64(k)},
			{Key: "filter", Value: bson.D{{Key: "dims", Value: len(embedding)}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "payload", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
	cursor, err := ms.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.MemoryRecord
	for cursor.Next(ctx) {
		var row struct {
			Payload string  `bson:"payload"`
			Score   float64 `bson:"score"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		var rec model.MemoryRecord
		if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		// Atlas reports similarity in [0,1]; convert to cosine distance.
		rec.Distance = 1 - row.Score
		records = append(records, rec)
	}
	return records, cursor.Err()
}

func (ms *MongoStore) queryScan(ctx context.Context, embedding []float32, k int) ([]model.MemoryRecord, error) {
	cursor, err := ms.collection.Find(ctx, bson.M{"dims": len(embedding)})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.MemoryRecord
	for cursor.Next(ctx) {
		var row struct {
			Payload string `bson:"payload"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		var rec model.MemoryRecord
		if err := json.Unmarshal([]byte(row.Payload), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		dist, ok := model.CosineDistance(embedding, rec.Embedding)
		if !ok {
			continue
		}
		rec.Distance = dist
		records = append(records, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	sortByDistance(records)
	if len(records) > k {
		records = records[:k]
	}
	return records, nil
}

func (ms *MongoStore) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	res, err := ms.collection.DeleteMany(ctx, bson.M{"owner": owner})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

// Close disconnects the underlying client.
func (ms *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

func float64Embedding(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
