package domain

import (
	"context"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/pkg/logger"
)

// CatalogService provides business logic for catalog entities.
// Every command runs in one transaction, hooks included, so cascades
// registered as delete hooks commit or roll back together with the delete.
type CatalogService[T entity.Assignable] struct {
	deps  Deps
	repo  *Repository[T]
	hooks *HookRegistry[T]

	// entityName for error messages
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Assignable] struct {
	Deps       Deps
	Repo       *Repository[T]
	EntityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Assignable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	name := cfg.EntityName
	if name == "" {
		name = cfg.Repo.EntityName()
	}
	return &CatalogService[T]{
		deps:       cfg.Deps,
		repo:       cfg.Repo,
		hooks:      NewHookRegistry[T](),
		entityName: name,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Repo returns the underlying repository.
func (s *CatalogService[T]) Repo() *Repository[T] {
	return s.repo
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	// If entity already returns structured AppError, keep it.
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

// Create validates and stores a new entity. An empty id is generated.
func (s *CatalogService[T]) Create(ctx context.Context, item T) (T, error) {
	if item.GetID() == "" {
		item.SetID(s.deps.NewID())
	}
	if err := item.Validate(ctx); err != nil {
		return item, s.normalizeValidationErr(err)
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeCreate, item); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, item); err != nil {
			return err
		}
		return s.hooks.Run(ctx, AfterCreate, item)
	})
	if err != nil {
		return item, err
	}

	logger.Info(ctx, s.entityName+" created", "id", item.GetID())
	return item, nil
}

// Get retrieves entity by ID.
func (s *CatalogService[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Get(ctx, id)
		return err
	})
	return out, err
}

// List retrieves entities with paging.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	var out ListResult[T]
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		items, err := s.listFiltered(ctx, filter)
		if err != nil {
			return err
		}
		out = Paginate(items, filter)
		return nil
	})
	return out, err
}

func (s *CatalogService[T]) listFiltered(ctx context.Context, filter ListFilter) ([]T, error) {
	if len(filter.IDs) == 0 {
		return s.repo.List(ctx)
	}
	set := make(map[string]struct{}, len(filter.IDs))
	for _, id := range filter.IDs {
		set[id] = struct{}{}
	}
	return s.repo.Find(ctx, func(item T) bool {
		_, ok := set[item.GetID()]
		return ok
	})
}

// Update replaces an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, item T) error {
	if err := item.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.MustExist(ctx, item.GetID()); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, item); err != nil {
			return err
		}
		if err := s.repo.Put(ctx, item); err != nil {
			return err
		}
		return s.hooks.Run(ctx, AfterUpdate, item)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, s.entityName+" updated", "id", item.GetID())
	return nil
}

// Delete removes an entity and runs its cascades.
func (s *CatalogService[T]) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

// DeleteMany removes several entities atomically. Any unknown id fails the whole command.
func (s *CatalogService[T]) DeleteMany(ctx context.Context, ids []string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.repo.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.hooks.Run(ctx, BeforeDelete, item); err != nil {
				return err
			}
		}
		if _, err := s.repo.Delete(ctx, ids...); err != nil {
			return err
		}
		for _, item := range items {
			if err := s.hooks.Run(ctx, AfterDelete, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, s.entityName+" deleted", "ids", ids)
	return nil
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		ok, err = s.repo.Exists(ctx, id)
		return err
	})
	return ok, err
}
