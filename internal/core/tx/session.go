package tx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sealedger/internal/core/entity"
	"sealedger/internal/core/store"
)

var (
	// ErrNoSession is returned when a repository is used outside RunInTransaction/ReadOnly.
	ErrNoSession = errors.New("no active transaction in context")
	// ErrReadOnly is returned when a read-only transaction tries to modify a collection.
	ErrReadOnly = errors.New("transaction is read-only")
)

// sessionKey is the context key for the active session.
type sessionKey struct{}

type table interface {
	isDirty() bool
	encode() ([]json.RawMessage, error)
}

// Session is the unit of work of one transaction.
// Each collection is loaded at most once and decoded into a typed table.
type Session struct {
	store    store.Store
	readOnly bool
	tables   map[string]table
	order    []string
	onCommit []func(ctx context.Context)
}

// NewSession starts a unit of work over s.
func NewSession(s store.Store, readOnly bool) *Session {
	return &Session{
		store:    s,
		readOnly: readOnly,
		tables:   make(map[string]table),
	}
}

// WithSession stores the session in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the active session, or nil.
func SessionFrom(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return s
	}
	return nil
}

// ReadOnly reports whether the session refuses writes.
func (s *Session) ReadOnly() bool { return s.readOnly }

// AfterCommit registers fn to run once the session commits successfully.
// Callbacks are dropped when the transaction rolls back.
func (s *Session) AfterCommit(fn func(ctx context.Context)) {
	s.onCommit = append(s.onCommit, fn)
}

// AfterCommit registers fn on the session in ctx. Without a session fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if s := SessionFrom(ctx); s != nil {
		s.AfterCommit(fn)
		return
	}
	fn(ctx)
}

// Dirty returns the names of collections modified in this session.
func (s *Session) Dirty() []string {
	var names []string
	for _, name := range s.order {
		if s.tables[name].isDirty() {
			names = append(names, name)
		}
	}
	return names
}

// Commit writes every modified collection. Stores implementing
// store.BatchStore receive all collections in one call.
func (s *Session) Commit(ctx context.Context) error {
	if s.readOnly {
		return nil
	}
	batch := make(map[string][]json.RawMessage)
	for _, name := range s.Dirty() {
		records, err := s.tables[name].encode()
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		batch[name] = records
	}
	if len(batch) > 0 {
		if err := s.flush(ctx, batch); err != nil {
			return err
		}
	}
	for _, fn := range s.onCommit {
		fn(ctx)
	}
	return nil
}

func (s *Session) flush(ctx context.Context, batch map[string][]json.RawMessage) error {
	if bs, ok := s.store.(store.BatchStore); ok {
		return bs.SaveBatch(ctx, batch)
	}
	for _, name := range s.order {
		records, ok := batch[name]
		if !ok {
			continue
		}
		if err := s.store.Save(ctx, name, records); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	return nil
}

// Table returns the typed rows of a collection for the session in ctx,
// loading them from the store on first use.
func Table[T entity.Entity](ctx context.Context, collection string) (*Rows[T], error) {
	s := SessionFrom(ctx)
	if s == nil {
		return nil, ErrNoSession
	}
	if t, ok := s.tables[collection]; ok {
		rows, ok := t.(*Rows[T])
		if !ok {
			return nil, fmt.Errorf("collection %s opened with conflicting record types", collection)
		}
		return rows, nil
	}

	raw, err := s.store.Load(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	rows, err := decodeRows[T](collection, raw, s.readOnly)
	if err != nil {
		return nil, err
	}
	s.tables[collection] = rows
	s.order = append(s.order, collection)
	return rows, nil
}
