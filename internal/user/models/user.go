package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the principal entity: the actor every audited row references as
// creator and last modifier.
//
// Invariants:
//   - Email is stored lowercase; uniqueness is case-insensitive among
//     non-deleted rows (enforced by the uq_app_user_email_ci index).
//   - ID is immutable after creation.
//   - CreatedByID/UpdatedByID may be nil only inside the bootstrap
//     transaction that creates the system user; once set they never revert
//     to nil.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
	CreatedByID  *uuid.UUID `json:"created_by_id"`
	UpdatedByID  *uuid.UUID `json:"updated_by_id"`
}

func (u *User) Table() string { return "app_user" }

func (u *User) Columns() []string {
	return []string{"id", "email", "password_hash", "created_at", "updated_at", "deleted_at", "created_by_id", "updated_by_id"}
}

func (u *User) Fields() []any {
	return []any{&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt, &u.CreatedByID, &u.UpdatedByID}
}

func (u *User) PrimaryKey() any { return u.ID }

// InsertColumns omits the id when unset so the database generates one; the
// system user is the one row created with a pre-assigned id.
func (u *User) InsertColumns() []string {
	cols := []string{"email", "password_hash", "created_by_id", "updated_by_id"}
	if u.ID != uuid.Nil {
		return append([]string{"id"}, cols...)
	}
	return cols
}

func (u *User) InsertValues() []any {
	vals := []any{u.Email, u.PasswordHash, u.CreatedByID, u.UpdatedByID}
	if u.ID != uuid.Nil {
		return append([]any{u.ID}, vals...)
	}
	return vals
}

func (u *User) SoftDeleted() bool { return u.DeletedAt != nil }

// SelfReferencing reports whether both audit references point at the user
// itself. Only ever true for the system user.
func (u *User) SelfReferencing() bool {
	return u.CreatedByID != nil && *u.CreatedByID == u.ID &&
		u.UpdatedByID != nil && *u.UpdatedByID == u.ID
}

// NormalizeEmail canonicalizes an email for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
