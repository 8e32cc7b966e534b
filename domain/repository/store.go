package repository

import "context"

// Store is the persistence contract shared by all domain stores. Concrete
// stores add entity-specific lookups on top; the option set in this package
// expresses the common filters.
type Store[T any] interface {
	// Save creates or updates an entity and returns the persisted form.
	Save(ctx context.Context, entity T) (T, error)

	// Find retrieves entities matching the given options.
	Find(ctx context.Context, options ...Option) ([]T, error)

	// FindOne retrieves a single entity matching the given options.
	FindOne(ctx context.Context, options ...Option) (T, error)

	// Exists checks whether any entity matches the given options.
	Exists(ctx context.Context, options ...Option) (bool, error)

	// Count returns the number of entities matching the given options.
	Count(ctx context.Context, options ...Option) (int64, error)

	// Delete removes an entity.
	Delete(ctx context.Context, entity T) error
}
