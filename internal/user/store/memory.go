package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"arcanalyse/internal/user/models"
	"arcanalyse/pkg/platform/sentinel"

	dErrors "arcanalyse/pkg/domain-errors"
)

// Memory is the in-memory user store used by unit tests. It reproduces the
// Postgres store's observable behavior: case-insensitive email uniqueness
// among live rows, soft-delete filtering, stamped timestamps, and validation
// of update columns before any mutation.
type Memory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
	clock func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[uuid.UUID]*models.User),
		clock: time.Now,
	}
}

func (s *Memory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = models.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.DeletedAt == nil && strings.EqualFold(existing.Email, u.Email) {
			return sentinel.ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	} else if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrConflict
	}

	now := s.clock()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = clone(u)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, sentinel.ErrNotFound
	}
	return clone(u), nil
}

func (s *Memory) FindByIDAny(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(u), nil
}

func (s *Memory) FindByEmailCI(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) List(_ context.Context, limit, offset int, desc bool) ([]*models.User, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, dErrors.New(dErrors.CodeBadRequest, "limit out of range")
	}
	if offset < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "offset must not be negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	live := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.DeletedAt == nil {
			live = append(live, clone(u))
		}
	}
	sort.Slice(live, func(i, j int) bool {
		a, b := live[i], live[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		// Primary key tiebreaker keeps the order stable across pages.
		return a.ID.String() < b.ID.String()
	})

	if offset >= len(live) {
		return nil, nil
	}
	end := offset + limit
	if end > len(live) {
		end = len(live)
	}
	return live[offset:end], nil
}

func (s *Memory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, u := range s.users {
		if u.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *Memory) Update(_ context.Context, u *models.User, attrs map[string]any) error {
	if len(attrs) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "no attributes to update")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}

	// Validate every column before applying any, matching the SQL store's
	// reject-before-storage behavior.
	for col := range attrs {
		switch col {
		case "email", "password_hash", "deleted_at", "created_by_id", "updated_by_id":
		case "id":
			return dErrors.New(dErrors.CodeBadRequest, "primary key is immutable")
		default:
			return dErrors.New(dErrors.CodeBadRequest, "unknown column "+col)
		}
	}

	for col, val := range attrs {
		switch col {
		case "email":
			stored.Email = val.(string)
		case "password_hash":
			stored.PasswordHash = val.(string)
		case "deleted_at":
			stored.DeletedAt = toTimePtr(val)
		case "created_by_id":
			stored.CreatedByID = toUUIDPtr(val)
		case "updated_by_id":
			stored.UpdatedByID = toUUIDPtr(val)
		}
	}
	stored.UpdatedAt = s.clock()

	*u = *clone(stored)
	return nil
}

func clone(u *models.User) *models.User {
	c := *u
	if u.DeletedAt != nil {
		t := *u.DeletedAt
		c.DeletedAt = &t
	}
	if u.CreatedByID != nil {
		id := *u.CreatedByID
		c.CreatedByID = &id
	}
	if u.UpdatedByID != nil {
		id := *u.UpdatedByID
		c.UpdatedByID = &id
	}
	return &c
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case nil:
		return nil
	case time.Time:
		return &v
	case *time.Time:
		return v
	}
	return nil
}

func toUUIDPtr(val any) *uuid.UUID {
	switch v := val.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return &v
	case *uuid.UUID:
		return v
	}
	return nil
}
