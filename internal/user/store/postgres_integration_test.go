//go:build integration

package store_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"arcanalyse/internal/user/models"
	"arcanalyse/internal/user/store"
	"arcanalyse/pkg/platform/sentinel"
	"arcanalyse/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "app_user")
	s.Require().NoError(err)
}

func newTestUser(email string) *models.User {
	return &models.User{
		Email:        email,
		PasswordHash: "$argon2id$fake-hash-for-tests",
	}
}

func (s *PostgresStoreSuite) TestCreatePopulatesGeneratedFields() {
	ctx := context.Background()

	u := newTestUser("Roundtrip@Example.COM")
	s.Require().NoError(s.store.Create(ctx, u))

	s.NotEqual(uuid.Nil, u.ID, "database should assign the primary key")
	s.Equal("roundtrip@example.com", u.Email, "email should be normalized before insert")
	s.False(u.CreatedAt.IsZero())
	s.False(u.UpdatedAt.IsZero())
	s.Nil(u.DeletedAt)
	s.Nil(u.CreatedByID)

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, found.Email)
	s.Equal(u.PasswordHash, found.PasswordHash)
}

func (s *PostgresStoreSuite) TestCaseInsensitiveUniqueness() {
	ctx := context.Background()
	base := "CaseTest" + strings.ReplaceAll(uuid.NewString(), "-", "") + "@example.com"

	s.Require().NoError(s.store.Create(ctx, newTestUser(base)))

	for _, email := range []string{
		strings.ToUpper(base),
		strings.ToLower(base),
	} {
		err := s.store.Create(ctx, newTestUser(email))
		s.ErrorIs(err, sentinel.ErrConflict, "email %q should conflict with %q", email, base)
	}

	// Lookup works with any casing.
	found, err := s.store.FindByEmailCI(ctx, strings.ToUpper(base))
	s.Require().NoError(err)
	s.Equal(strings.ToLower(base), found.Email)
}

// TestConcurrentSameEmail verifies that concurrent creates of one email
// produce exactly one row; all losers see the conflict sentinel.
func (s *PostgresStoreSuite) TestConcurrentSameEmail() {
	ctx := context.Background()
	email := "race-" + uuid.NewString() + "@example.com"
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := s.store.Create(ctx, newTestUser(email))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}

	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict error")

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestSoftDeleteVisibility() {
	ctx := context.Background()

	u := newTestUser("ghost@example.com")
	s.Require().NoError(s.store.Create(ctx, u))
	s.Require().NoError(s.store.Update(ctx, u, map[string]any{"deleted_at": time.Now()}))

	_, err := s.store.FindByID(ctx, u.ID)
	s.ErrorIs(err, sentinel.ErrNotFound, "default reads exclude soft-deleted rows")

	_, err = s.store.FindByEmailCI(ctx, "ghost@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	found, err := s.store.FindByIDAny(ctx, u.ID)
	s.Require().NoError(err, "administrative read sees soft-deleted rows")
	s.NotNil(found.DeletedAt)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(0, count)

	// The partial unique index only guards live rows, so the email is free
	// for re-registration.
	s.NoError(s.store.Create(ctx, newTestUser("ghost@example.com")))
}

func (s *PostgresStoreSuite) TestListPaginationIsStable() {
	ctx := context.Background()
	const total = 7

	for i := 0; i < total; i++ {
		s.Require().NoError(s.store.Create(ctx, newTestUser(uuid.NewString()+"@example.com")))
	}

	seen := make(map[uuid.UUID]bool)
	for offset := 0; offset < total; offset += 3 {
		page, err := s.store.List(ctx, 3, offset, false)
		s.Require().NoError(err)
		for _, u := range page {
			s.False(seen[u.ID], "pages must not overlap")
			seen[u.ID] = true
		}
	}
	s.Len(seen, total, "pages must cover every row")

	// Descending order flips the first page.
	asc, err := s.store.List(ctx, total, 0, false)
	s.Require().NoError(err)
	desc, err := s.store.List(ctx, total, 0, true)
	s.Require().NoError(err)
	s.Equal(asc[0].ID, desc[total-1].ID)
}

func (s *PostgresStoreSuite) TestAuditReferencesEnforced() {
	ctx := context.Background()

	actor := newTestUser("actor@example.com")
	s.Require().NoError(s.store.Create(ctx, actor))

	u := newTestUser("audited@example.com")
	u.CreatedByID = &actor.ID
	u.UpdatedByID = &actor.ID
	s.Require().NoError(s.store.Create(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.CreatedByID)
	s.Equal(actor.ID, *found.CreatedByID)

	// A dangling audit reference is rejected by the foreign key.
	bogus := uuid.New()
	bad := newTestUser("dangling@example.com")
	bad.CreatedByID = &bogus
	s.Error(s.store.Create(ctx, bad))
}

func (s *PostgresStoreSuite) TestNotFoundError() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByEmailCI(ctx, "nobody@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
