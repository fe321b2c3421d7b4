// Package store defines the persistence boundary of the ledger.
// A store knows nothing about record shapes: it loads and replaces whole
// collections of JSON documents keyed by collection name.
package store

import (
	"context"
	"encoding/json"
)

// Store loads and saves full collections.
type Store interface {
	// Load returns every record of the collection in insertion order.
	// A collection that was never saved loads as empty.
	Load(ctx context.Context, collection string) ([]json.RawMessage, error)

	// Save replaces the collection with records.
	Save(ctx context.Context, collection string, records []json.RawMessage) error
}

// BatchStore can replace several collections atomically.
// The transaction manager prefers it when a command touched more than one collection.
type BatchStore interface {
	Store
	SaveBatch(ctx context.Context, collections map[string][]json.RawMessage) error
}

// Closer is implemented by stores holding connections.
type Closer interface {
	Close(ctx context.Context) error
}

// EncodePayload marshals a collection as a JSON array.
func EncodePayload(records []json.RawMessage) ([]byte, error) {
	if records == nil {
		records = []json.RawMessage{}
	}
	return json.Marshal(records)
}

// DecodePayload is the inverse of EncodePayload. An empty payload is an empty collection.
func DecodePayload(payload []byte) ([]json.RawMessage, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, err
	}
	return records, nil
}
