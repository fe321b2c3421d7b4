// Package mongo keeps ledger collections in MongoDB, one document per
// ledger collection.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sealedger/internal/core/store"
)

// DefaultCollection is the Mongo collection holding ledger documents.
const DefaultCollection = "ledger_collections"

// Compile-time check that Store implements store.BatchStore.
var _ store.BatchStore = (*Store)(nil)

type document struct {
	Name      string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	Count     int       `bson:"count"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store implements store.BatchStore on MongoDB.
// A batch is a single ordered bulk write; it is atomic per ledger collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect opens a client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return New(client, dbName, DefaultCollection), nil
}

// New wraps an existing client.
func New(client *mongo.Client, dbName, collection string) *Store {
	return &Store{
		client: client,
		coll:   client.Database(dbName).Collection(collection),
	}
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": collection}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	records, err := store.DecodePayload(doc.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return records, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, collection string, records []json.RawMessage) error {
	return s.SaveBatch(ctx, map[string][]json.RawMessage{collection: records})
}

// SaveBatch implements store.BatchStore.
func (s *Store) SaveBatch(ctx context.Context, collections map[string][]json.RawMessage) error {
	if len(collections) == 0 {
		return nil
	}
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(names))
	for _, name := range names {
		payload, err := store.EncodePayload(collections[name])
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		doc := document{Name: name, Payload: payload, Count: len(collections[name]), UpdatedAt: now}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": name}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("bulk write %v: %w", names, err)
	}
	return nil
}

// Ping checks the server connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close implements store.Closer.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
