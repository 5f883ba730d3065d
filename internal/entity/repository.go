package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"arcanalyse/pkg/platform/sentinel"
	"arcanalyse/pkg/platform/tx"

	dErrors "arcanalyse/pkg/domain-errors"
)

// DefaultMaxLimit bounds List page sizes unless overridden per repository.
const DefaultMaxLimit = 100

// Repository provides generic CRUD over one entity type. It hides SQL from
// endpoint logic but deliberately does not own transaction boundaries: every
// statement joins the context transaction when one is present (pkg/platform/tx),
// so multi-step flows like the system-user bootstrap stay atomic.
type Repository[E Entity] struct {
	db        *sql.DB
	newEntity func() E

	table      string
	columns    []string
	pkColumn   string
	softDelete bool
	updatedAt  bool
	maxLimit   int
}

// Option configures a Repository.
type Option func(*settings)

type settings struct {
	maxLimit int
}

// WithMaxLimit overrides the page size ceiling.
func WithMaxLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// NewRepository builds a repository for the entity type produced by newEntity.
// Capabilities (soft delete, updated_at stamping) are derived from the type
// once here, not per row.
func NewRepository[E Entity](db *sql.DB, newEntity func() E, opts ...Option) *Repository[E] {
	s := settings{maxLimit: DefaultMaxLimit}
	for _, opt := range opts {
		opt(&s)
	}

	proto := newEntity()
	columns := proto.Columns()
	_, soft := any(proto).(SoftDeletable)

	return &Repository[E]{
		db:         db,
		newEntity:  newEntity,
		table:      proto.Table(),
		columns:    columns,
		pkColumn:   columns[0],
		softDelete: soft,
		updatedAt:  slices.Contains(columns, "updated_at"),
		maxLimit:   s.maxLimit,
	}
}

// Get fetches one entity by primary key. Soft-deleted rows are invisible
// through this path: the row may exist, but the result is ErrNotFound.
func (r *Repository[E]) Get(ctx context.Context, id any) (E, error) {
	return r.get(ctx, id, r.softDelete)
}

// GetAny is the administrative fetch: it bypasses the soft-delete filter and
// returns the row regardless of deleted_at.
func (r *Repository[E]) GetAny(ctx context.Context, id any) (E, error) {
	return r.get(ctx, id, false)
}

func (r *Repository[E]) get(ctx context.Context, id any, filterDeleted bool) (E, error) {
	var zero E

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		strings.Join(r.columns, ", "), r.table, r.pkColumn)
	if filterDeleted {
		query += " AND deleted_at IS NULL"
	}

	e := r.newEntity()
	row := tx.QuerierFrom(ctx, r.db).QueryRowContext(ctx, query, id)
	if err := row.Scan(e.Fields()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, sentinel.ErrNotFound
		}
		return zero, fmt.Errorf("get %s: %w", r.table, err)
	}
	return e, nil
}

// List pages over non-deleted rows with a stable order. orderBy names a
// column ("" defaults to the primary key); desc flips the direction. The
// primary key is always appended as a tiebreaker so advancing the offset
// never repeats or skips rows under equal sort keys.
func (r *Repository[E]) List(ctx context.Context, limit, offset int, orderBy string, desc bool) ([]E, error) {
	if limit < 1 || limit > r.maxLimit {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("limit must be between 1 and %d", r.maxLimit))
	}
	if offset < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "offset must not be negative")
	}
	if orderBy == "" {
		orderBy = r.pkColumn
	}
	if !slices.Contains(r.columns, orderBy) {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("unknown sort column %q", orderBy))
	}

	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(r.columns, ", "), r.table)
	if r.softDelete {
		query += " WHERE deleted_at IS NULL"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, %s ASC LIMIT $1 OFFSET $2",
		orderBy, direction, r.pkColumn)

	rows, err := tx.QuerierFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()

	var out []E
	for rows.Next() {
		e := r.newEntity()
		if err := rows.Scan(e.Fields()...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table, err)
	}
	return out, nil
}

// Count returns the number of non-deleted rows.
func (r *Repository[E]) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT count(*) FROM %s", r.table)
	if r.softDelete {
		query += " WHERE deleted_at IS NULL"
	}

	var n int
	if err := tx.QuerierFrom(ctx, r.db).QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	return n, nil
}

// Create inserts the entity and refreshes it with storage-generated values
// (id, timestamps) via RETURNING. The unit of work is committed by the
// caller; raw constraint violations propagate for the caller to classify.
func (r *Repository[E]) Create(ctx context.Context, e E) error {
	cols := e.InsertColumns()
	vals := e.InsertValues()
	if len(cols) != len(vals) {
		return fmt.Errorf("create %s: %d insert columns but %d values", r.table, len(cols), len(vals))
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		r.table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(r.columns, ", "),
	)

	row := tx.QuerierFrom(ctx, r.db).QueryRowContext(ctx, query, vals...)
	if err := row.Scan(e.Fields()...); err != nil {
		return fmt.Errorf("create %s: %w", r.table, err)
	}
	return nil
}

// Update applies a column-to-value mapping onto the stored row and refreshes
// the entity with persistence-layer defaults (updated_at). Unknown columns
// and primary key rewrites are rejected before any storage call. Soft delete
// is an Update of deleted_at; that policy decision belongs to the caller.
func (r *Repository[E]) Update(ctx context.Context, e E, attrs map[string]any) error {
	if len(attrs) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "no attributes to update")
	}
	for col := range attrs {
		if col == r.pkColumn {
			return dErrors.New(dErrors.CodeBadRequest, "primary key is immutable")
		}
		if !slices.Contains(r.columns, col) {
			return dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("unknown column %q for table %s", col, r.table))
		}
	}

	// Deterministic statement text for identical attribute sets.
	cols := make([]string, 0, len(attrs))
	for col := range attrs {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, attrs[col])
	}
	if r.updatedAt {
		if _, explicit := attrs["updated_at"]; !explicit {
			sets = append(sets, "updated_at = now()")
		}
	}
	args = append(args, e.PrimaryKey())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		r.table,
		strings.Join(sets, ", "),
		r.pkColumn, len(args),
		strings.Join(r.columns, ", "),
	)

	row := tx.QuerierFrom(ctx, r.db).QueryRowContext(ctx, query, args...)
	if err := row.Scan(e.Fields()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	return nil
}

// Delete removes the row permanently. Distinct from soft delete, which is an
// Update setting deleted_at.
func (r *Repository[E]) Delete(ctx context.Context, e E) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", r.table, r.pkColumn)
	res, err := tx.QuerierFrom(ctx, r.db).ExecContext(ctx, query, e.PrimaryKey())
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// MaxLimit exposes the page ceiling so handlers can report it.
func (r *Repository[E]) MaxLimit() int { return r.maxLimit }
