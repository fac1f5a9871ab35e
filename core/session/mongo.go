package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions selects the database and collection used for sessions.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

type mongoDoc struct {
	ID        string    `bson:"_id"`
	Service   string    `bson:"service"`
	ChatID    int64     `bson:"chat_id"`
	Sub       string    `bson:"sub,omitempty"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per key, the key string being the document id.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the sessions collection.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, errors.New("session: mongo uri is empty")
	}
	if opts.Database == "" {
		opts.Database = "arrbot"
	}
	if opts.Collection == "" {
		opts.Collection = "sessions"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("session: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("session: mongo ping: %w", err)
	}
	col := client.Database(opts.Database).Collection(opts.Collection)
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{bson.E{Key: "service", Value: 1}, bson.E{Key: "chat_id", Value: 1}},
	})
	return &MongoStore{client: client, col: col}, nil
}

// Put replaces the document for key.
func (s *MongoStore) Put(ctx context.Context, key Key, data []byte) error {
	doc := mongoDoc{
		ID:        key.String(),
		Service:   key.Service,
		ChatID:    key.ChatID,
		Sub:       key.Sub,
		Payload:   string(data),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("session: mongo put %s: %w", key, err)
	}
	return nil
}

// Get returns the payload for key.
func (s *MongoStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	var doc mongoDoc
	err := s.col.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: mongo get %s: %w", key, err)
	}
	return []byte(doc.Payload), true, nil
}

// Clear deletes the document for key.
func (s *MongoStore) Clear(ctx context.Context, key Key) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": key.String()}); err != nil {
		return fmt.Errorf("session: mongo delete %s: %w", key, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
