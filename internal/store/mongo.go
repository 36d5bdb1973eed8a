package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yuwenq/etsylens/internal/types"
)

// MongoSink mirrors run-log rows into a MongoDB collection, so fetch outcomes
// can be queried across runs without parsing summary CSVs.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoSink connects to MongoDB and returns a run-log sink.
func NewMongoSink(uri, database, collection string, logger *slog.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_sink"),
	}, nil
}

func (s *MongoSink) Append(row types.AttemptLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := map[string]any{
		"time":      row.Time,
		"channel":   string(row.Channel),
		"query_id":  row.QueryID,
		"prompt":    row.Prompt,
		"rank":      row.Rank,
		"url":       row.URL,
		"url_slug":  row.URLSlug,
		"status":    string(row.Status),
		"md_path":   row.Paths.Markdown,
		"html_path": row.Paths.HTML,
		"json_path": row.Paths.JSON,
		"attempt":   row.Attempts,
		"elapsed_s": row.Elapsed.Seconds(),
	}
	if row.SearchURL != "" {
		doc["search_url"] = row.SearchURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	s.count++
	return nil
}

func (s *MongoSink) Close() error {
	s.logger.Info("mongo sink closing", "total_rows", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
