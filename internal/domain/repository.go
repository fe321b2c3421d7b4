// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"fmt"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/tx"
)

// --- Filter & Pagination ---

// ListFilter contains common paging options for list operations.
type ListFilter struct {
	// IDs filters by specific IDs
	IDs []string

	// Pagination (Limit 0 means everything)
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 0}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Paginate cuts items according to the filter.
func Paginate[T any](items []T, f ListFilter) ListResult[T] {
	total := len(items)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	page := items[start:end]
	if page == nil {
		page = []T{}
	}
	return ListResult[T]{Items: page, TotalCount: int64(total), Limit: f.Limit, Offset: f.Offset}
}

// --- Repository ---

// Repository gives typed access to one collection of the active transaction.
// All methods require a transaction in ctx (see tx.Manager).
type Repository[T entity.Entity] struct {
	collection string
	entityName string
}

// NewRepository creates a repository over a collection.
// entityName is used in NotFound errors.
func NewRepository[T entity.Entity](collection, entityName string) *Repository[T] {
	return &Repository[T]{collection: collection, entityName: entityName}
}

// Collection returns the collection name.
func (r *Repository[T]) Collection() string { return r.collection }

// EntityName returns the entity name used in errors.
func (r *Repository[T]) EntityName() string { return r.entityName }

func (r *Repository[T]) rows(ctx context.Context) (*tx.Rows[T], error) {
	rows, err := tx.Table[T](ctx, r.collection)
	if err != nil {
		return nil, apperror.NewStorage(r.collection, err)
	}
	return rows, nil
}

// Get returns the record or a NotFound error.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	rows, err := r.rows(ctx)
	if err != nil {
		return zero, err
	}
	item, ok := rows.Get(id)
	if !ok {
		return zero, apperror.NewNotFound(r.entityName, id)
	}
	return item, nil
}

// GetMany returns records in the order of ids. Any missing id is a NotFound error.
func (r *Repository[T]) GetMany(ctx context.Context, ids []string) ([]T, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		item, ok := rows.Get(id)
		if !ok {
			return nil, apperror.NewNotFound(r.entityName, id)
		}
		out = append(out, item)
	}
	return out, nil
}

// Exists checks if a record with the given id exists.
func (r *Repository[T]) Exists(ctx context.Context, id string) (bool, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return false, err
	}
	_, ok := rows.Get(id)
	return ok, nil
}

// MustExist returns NotFound when the id is unknown.
func (r *Repository[T]) MustExist(ctx context.Context, id string) error {
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound(r.entityName, id)
	}
	return nil
}

// List returns every record in insertion order.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, err
	}
	return rows.All(), nil
}

// Find returns records matching pred in insertion order.
func (r *Repository[T]) Find(ctx context.Context, pred func(T) bool) ([]T, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return nil, err
	}
	return rows.Filter(pred), nil
}

// Insert appends new records. Reusing an id is a Duplicate error.
func (r *Repository[T]) Insert(ctx context.Context, items ...T) error {
	rows, err := r.rows(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := item.GetID()
		if id == "" {
			return apperror.NewInternal(fmt.Errorf("insert %s without id", r.entityName))
		}
		if _, ok := rows.Get(id); ok {
			return apperror.NewDuplicate(r.entityName, "id", id)
		}
		if _, ok := seen[id]; ok {
			return apperror.NewDuplicate(r.entityName, "id", id)
		}
		seen[id] = struct{}{}
	}
	if err := rows.Append(items...); err != nil {
		return apperror.NewStorage(r.collection, err)
	}
	return nil
}

// Put replaces an existing record. Unknown ids are a NotFound error.
func (r *Repository[T]) Put(ctx context.Context, items ...T) error {
	rows, err := r.rows(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		ok, err := rows.Replace(item)
		if err != nil {
			return apperror.NewStorage(r.collection, err)
		}
		if !ok {
			return apperror.NewNotFound(r.entityName, item.GetID())
		}
	}
	return nil
}

// Delete removes records by id and returns how many were removed.
func (r *Repository[T]) Delete(ctx context.Context, ids ...string) (int, error) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.DeleteWhere(ctx, func(item T) bool {
		_, ok := set[item.GetID()]
		return ok
	})
}

// DeleteWhere removes every record matching pred.
func (r *Repository[T]) DeleteWhere(ctx context.Context, pred func(T) bool) (int, error) {
	rows, err := r.rows(ctx)
	if err != nil {
		return 0, err
	}
	n, err := rows.RemoveWhere(pred)
	if err != nil {
		return 0, apperror.NewStorage(r.collection, err)
	}
	return n, nil
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
// Delete hooks run inside the deleting transaction so cascades commit atomically.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) { r.On(BeforeCreate, hook) }

// OnAfterCreate registers a hook to run after create.
func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T]) { r.On(AfterCreate, hook) }

// OnBeforeUpdate registers a hook to run before update.
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) { r.On(BeforeUpdate, hook) }

// OnBeforeDelete registers a hook to run before delete.
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) { r.On(BeforeDelete, hook) }

// OnAfterDelete registers a hook to run after delete.
func (r *HookRegistry[T]) OnAfterDelete(hook Hook[T]) { r.On(AfterDelete, hook) }
