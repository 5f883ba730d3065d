// Package entity defines the contracts persisted record types implement and
// the generic repository that provides uniform data access over them.
package entity

// Entity is implemented by every persisted record type. Implementations are
// pointer types; the repository scans query results into Fields directly.
//
// Conventions:
//   - Columns lists every column, primary key first.
//   - Fields returns scan destinations in the same order as Columns.
//   - InsertColumns/InsertValues list only the columns sent on INSERT;
//     storage-generated columns (ids, timestamps) are omitted so the
//     database applies its defaults. Both are computed per instance, so an
//     entity with a pre-assigned primary key may include it.
type Entity interface {
	Table() string
	Columns() []string
	Fields() []any
	PrimaryKey() any
	InsertColumns() []string
	InsertValues() []any
}

// SoftDeletable marks entity types carrying a deleted_at column. The
// repository filters rows where deleted_at is set out of Get and List;
// lookup-style entities never implement this.
type SoftDeletable interface {
	Entity
	SoftDeleted() bool
}
