// Package cache provides in-process caches used by the HTTP layer.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sealedger/internal/core/apperror"
)

// IdempotencyStatus is the lifecycle of a key.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// stalePending is how long an unfinished request holds its key.
const stalePending = time.Minute

type idempotencyRecord struct {
	operation   string
	requestHash string
	status      IdempotencyStatus
	response    []byte
	statusCode  int
	contentType string
	updatedAt   time.Time
	expiresAt   time.Time
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore remembers responses of mutating requests by key.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]*idempotencyRecord
}

// NewIdempotencyStore creates a store keeping keys for ttl.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		ttl:     ttl,
		now:     time.Now,
		records: make(map[string]*idempotencyRecord),
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *IdempotencyStore) WithClock(now func() time.Time) *IdempotencyStore {
	s.now = now
	return s
}

// AcquireKey attempts to acquire an idempotency key.
// Returns:
//   - (nil, nil) if the key was acquired
//   - (replay, nil) if the operation already finished
//   - (nil, error) if the key is in flight or was used for another request
func (s *IdempotencyStore) AcquireKey(_ context.Context, key, operation, requestHash string) (*IdempotencyReplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[key]
	if !ok || now.After(rec.expiresAt) {
		s.records[key] = &idempotencyRecord{
			operation:   operation,
			requestHash: requestHash,
			status:      IdempotencyStatusPending,
			updatedAt:   now,
			expiresAt:   now.Add(s.ttl),
		}
		return nil, nil
	}

	if rec.operation != operation || rec.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_operation", rec.operation).
			WithDetail("request_operation", operation)
	}

	switch rec.status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return &IdempotencyReplay{
			StatusCode:  normalizeReplayStatus(rec.statusCode),
			ContentType: normalizeReplayContentType(rec.contentType),
			Body:        rec.response,
		}, nil
	default:
		// A request that never finished (crashed handler) gives the key up.
		if now.Sub(rec.updatedAt) > stalePending {
			rec.updatedAt = now
			return nil, nil
		}
		return nil, apperror.NewIdempotencyConflict(key)
	}
}

// CompleteKey stores a successful response.
func (s *IdempotencyStore) CompleteKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	body, err := marshalResponse(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	s.finish(key, IdempotencyStatusSuccess, statusCode, contentType, body)
	return nil
}

// FailKey stores an error response.
func (s *IdempotencyStore) FailKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	body, err := marshalResponse(response)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	s.finish(key, IdempotencyStatusFailed, statusCode, contentType, body)
	return nil
}

func (s *IdempotencyStore) finish(key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return
	}
	rec.status = status
	rec.statusCode = statusCode
	rec.contentType = contentType
	rec.response = body
	rec.updatedAt = s.now()
}

// CleanupExpired drops expired keys and returns how many were removed.
func (s *IdempotencyStore) CleanupExpired(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for key, rec := range s.records {
		if now.After(rec.expiresAt) {
			delete(s.records, key)
			n++
		}
	}
	return n
}

// RunCleanup removes expired keys every interval until ctx is done.
func (s *IdempotencyStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired(ctx)
		}
	}
}

func marshalResponse(response any) ([]byte, error) {
	if response == nil {
		return nil, nil
	}
	return json.Marshal(response)
}

func normalizeReplayStatus(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

func normalizeReplayContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}
