// Package store persists principals. The Postgres implementation is the real
// one; the in-memory implementation mirrors its observable semantics for
// tests and must stay behaviorally in sync.
package store

import (
	"context"

	"github.com/google/uuid"

	"arcanalyse/internal/user/models"
)

// MaxListLimit bounds user pagination. Default page size is the handler's call.
const MaxListLimit = 200

// Store is the user repository surface consumed by handlers and the seeder.
//
// Error contract: FindBy* return sentinel.ErrNotFound for absent or
// soft-deleted rows (FindByIDAny sees through soft deletion); Create returns
// sentinel.ErrConflict when the normalized email collides with a non-deleted
// principal; Update rejects unknown columns with a bad-request domain error
// before touching storage.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDAny(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmailCI(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int, desc bool) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, u *models.User, attrs map[string]any) error
}
