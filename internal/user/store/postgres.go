package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"arcanalyse/internal/entity"
	"arcanalyse/internal/user/models"
	"arcanalyse/pkg/platform/sentinel"
	"arcanalyse/pkg/platform/tx"
)

// Constraints whose violation means "this identity already exists":
// the case-insensitive unique index on lower(email), and the primary key,
// which concurrent bootstrap attempts with the fixed system id collide on.
// Conflict classification keys on these names, never on error text.
const (
	emailUniqueConstraint = "uq_app_user_email_ci"
	primaryKeyConstraint  = "app_user_pkey"
)

// Postgres is the production user store, built on the generic repository.
type Postgres struct {
	db   *sql.DB
	repo *entity.Repository[*models.User]
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		db: db,
		repo: entity.NewRepository(db, func() *models.User { return &models.User{} },
			entity.WithMaxLimit(MaxListLimit)),
	}
}

// Create inserts the user, normalizing the email first. A case-insensitive
// email collision with a live row surfaces as sentinel.ErrConflict; the
// index is the authority because check-then-insert is racy under concurrent
// writers.
func (s *Postgres) Create(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	if err := s.repo.Create(ctx, u); err != nil {
		if entity.IsUniqueViolation(err, emailUniqueConstraint) ||
			entity.IsUniqueViolation(err, primaryKeyConstraint) {
			return sentinel.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

// FindByIDAny is the administrative fetch: soft-deleted rows are visible.
func (s *Postgres) FindByIDAny(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.GetAny(ctx, id)
}

// FindByEmailCI looks a principal up by case-insensitive email, excluding
// soft-deleted rows. Both sides are normalized in the query: legacy or
// externally inserted rows may not be stored lowercase.
func (s *Postgres) FindByEmailCI(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	query := `
		SELECT id, email, password_hash, created_at, updated_at, deleted_at, created_by_id, updated_by_id
		FROM app_user
		WHERE lower(email) = lower($1) AND deleted_at IS NULL
	`
	row := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, email)
	if err := row.Scan(u.Fields()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *Postgres) List(ctx context.Context, limit, offset int, desc bool) ([]*models.User, error) {
	return s.repo.List(ctx, limit, offset, "created_at", desc)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Postgres) Update(ctx context.Context, u *models.User, attrs map[string]any) error {
	return s.repo.Update(ctx, u, attrs)
}
