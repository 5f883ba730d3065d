package seed

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"arcanalyse/internal/platform/metrics"
	"arcanalyse/internal/user/models"
	"arcanalyse/internal/user/store"
	"arcanalyse/pkg/platform/tx"
)

type SeederSuite struct {
	suite.Suite
	users  *store.Memory
	seeder *Seeder
	ctx    context.Context
}

func TestSeederSuite(t *testing.T) {
	suite.Run(t, new(SeederSuite))
}

var testMetrics = metrics.New(prometheus.NewRegistry())

func (s *SeederSuite) SetupTest() {
	s.users = store.NewMemory()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.seeder = New(s.users, tx.NopRunner{}, logger, testMetrics)
	s.ctx = context.Background()
}

func (s *SeederSuite) TestFirstRunCreatesSelfReferencingUser() {
	res, err := s.seeder.Run(s.ctx)
	s.Require().NoError(err)

	s.True(res.Created)
	s.Equal(SystemUserID, res.UserID)
	s.Equal(SystemUserEmail, res.Email)

	u, err := s.users.FindByID(s.ctx, SystemUserID)
	s.Require().NoError(err)
	s.Require().NotNil(u.CreatedByID)
	s.Require().NotNil(u.UpdatedByID)
	s.Equal(u.ID, *u.CreatedByID)
	s.Equal(u.ID, *u.UpdatedByID)
	s.NotEmpty(u.PasswordHash)
}

func (s *SeederSuite) TestSecondRunIsIdempotent() {
	first, err := s.seeder.Run(s.ctx)
	s.Require().NoError(err)
	s.True(first.Created)

	second, err := s.seeder.Run(s.ctx)
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal(first.UserID, second.UserID)

	n, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *SeederSuite) TestSelfHealsDriftedAuditReferences() {
	_, err := s.seeder.Run(s.ctx)
	s.Require().NoError(err)

	// Simulate drift: point both references at some other principal.
	other := uuid.New()
	u, err := s.users.FindByID(s.ctx, SystemUserID)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Update(s.ctx, u, map[string]any{
		"created_by_id": other,
		"updated_by_id": other,
	}))

	res, err := s.seeder.Run(s.ctx)
	s.Require().NoError(err)
	s.False(res.Created)

	healed, err := s.users.FindByID(s.ctx, SystemUserID)
	s.Require().NoError(err)
	s.True(healed.SelfReferencing())
}

func (s *SeederSuite) TestFindsRowLeftWithoutFixedID() {
	// A partial historical run may have produced a system row under a
	// generated id; the email fallback must find it instead of inserting a
	// duplicate.
	stray := &models.User{Email: SystemUserEmail, PasswordHash: "hash"}
	s.Require().NoError(s.users.Create(s.ctx, stray))

	res, err := s.seeder.Run(s.ctx)
	s.Require().NoError(err)
	s.False(res.Created)
	s.Equal(stray.ID, res.UserID)

	healed, err := s.users.FindByID(s.ctx, stray.ID)
	s.Require().NoError(err)
	s.True(healed.SelfReferencing())

	n, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}
