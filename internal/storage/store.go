package storage

import (
	"context"

	"taskmind/internal/models"
)

// Store is the boundary to the task persistence service. Every operation is
// scoped to an owner; no transactional guarantees hold across calls and each
// one is independently fallible.
type Store interface {
	// EnsureSchema creates the backing table if it does not exist yet.
	// It is idempotent and issued once per process.
	EnsureSchema(ctx context.Context) error

	List(ctx context.Context, owner string) ([]models.Task, error)
	Create(ctx context.Context, task models.Task) error
	Update(ctx context.Context, owner, id string, fields map[string]any) error
	Delete(ctx context.Context, owner, id string) error

	Close() error
}
