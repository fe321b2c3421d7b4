package tx

import (
	"encoding/json"
	"fmt"

	"sealedger/internal/core/entity"
)

// Rows is an insertion-ordered, id-indexed collection (arena + index).
// Records reference each other by id only.
type Rows[T entity.Entity] struct {
	name     string
	items    []T
	index    map[string]int
	dirty    bool
	readOnly bool
}

func decodeRows[T entity.Entity](name string, raw []json.RawMessage, readOnly bool) (*Rows[T], error) {
	r := &Rows[T]{
		name:     name,
		items:    make([]T, 0, len(raw)),
		index:    make(map[string]int, len(raw)),
		readOnly: readOnly,
	}
	for i, data := range raw {
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", name, i, err)
		}
		r.index[item.GetID()] = len(r.items)
		r.items = append(r.items, item)
	}
	return r, nil
}

// Name is the collection name.
func (r *Rows[T]) Name() string { return r.name }

// Len returns the number of records.
func (r *Rows[T]) Len() int { return len(r.items) }

// Get returns the record with the given id.
func (r *Rows[T]) Get(id string) (T, bool) {
	i, ok := r.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return r.items[i], true
}

// All returns a copy of the record slice in insertion order.
func (r *Rows[T]) All() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Filter returns records matching pred in insertion order.
func (r *Rows[T]) Filter(pred func(T) bool) []T {
	var out []T
	for _, item := range r.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Append adds records at the end. Callers check id uniqueness.
func (r *Rows[T]) Append(items ...T) error {
	if r.readOnly {
		return ErrReadOnly
	}
	for _, item := range items {
		r.index[item.GetID()] = len(r.items)
		r.items = append(r.items, item)
	}
	if len(items) > 0 {
		r.dirty = true
	}
	return nil
}

// Replace swaps the record with the same id in place.
// It reports false when no such record exists.
func (r *Rows[T]) Replace(item T) (bool, error) {
	if r.readOnly {
		return false, ErrReadOnly
	}
	i, ok := r.index[item.GetID()]
	if !ok {
		return false, nil
	}
	r.items[i] = item
	r.dirty = true
	return true, nil
}

// RemoveWhere deletes every record matching pred and returns how many were removed.
func (r *Rows[T]) RemoveWhere(pred func(T) bool) (int, error) {
	if r.readOnly {
		return 0, ErrReadOnly
	}
	kept := r.items[:0]
	removed := 0
	for _, item := range r.items {
		if pred(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	if removed == 0 {
		return 0, nil
	}
	// Clear the tail so removed records can be collected.
	for i := len(kept); i < len(r.items); i++ {
		var zero T
		r.items[i] = zero
	}
	r.items = kept
	r.reindex()
	r.dirty = true
	return removed, nil
}

func (r *Rows[T]) reindex() {
	r.index = make(map[string]int, len(r.items))
	for i, item := range r.items {
		r.index[item.GetID()] = i
	}
}

func (r *Rows[T]) isDirty() bool { return r.dirty }

func (r *Rows[T]) encode() ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(r.items))
	for _, item := range r.items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode %s record %s: %w", r.name, item.GetID(), err)
		}
		out = append(out, data)
	}
	return out, nil
}
