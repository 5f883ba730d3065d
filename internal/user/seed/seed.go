// Package seed establishes the system user: the well-known principal stamped
// as creator/modifier on rows no human actor wrote. Its own audit columns
// must reference itself, a row that does not exist yet at insert time, so
// creation is a two-phase write inside one transaction.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"arcanalyse/internal/platform/metrics"
	"arcanalyse/internal/secrets"
	"arcanalyse/internal/user/models"
	"arcanalyse/internal/user/store"
	"arcanalyse/pkg/platform/sentinel"
	"arcanalyse/pkg/platform/tx"
)

// The system user's identity is fixed and known in advance. The primary key
// uniqueness constraint is what makes concurrent bootstrap attempts collapse
// onto the idempotent update path instead of producing two system rows.
const (
	SystemUserIDStr = "00000000-0000-0000-0000-000000000001"
	SystemUserEmail = "system@arcanalyse.local"
)

// SystemUserID is the fixed primary key of the system user.
var SystemUserID = uuid.MustParse(SystemUserIDStr)

// Result reports one bootstrap invocation.
type Result struct {
	Created bool
	UserID  uuid.UUID
	Email   string
}

// Seeder performs the idempotent system-user bootstrap. Safe to run on every
// process start.
type Seeder struct {
	users   store.Store
	runner  tx.Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(users store.Store, runner tx.Runner, logger *slog.Logger, m *metrics.Metrics) *Seeder {
	return &Seeder{users: users, runner: runner, logger: logger, metrics: m}
}

// Run looks the system user up by primary key (then by normalized email, in
// case a prior partial run left a row without the fixed id), self-heals its
// audit references if they drifted, and otherwise creates it: insert with
// null audit references, then update both to the row's own id. Everything
// happens in one unit of work, so no reader outside the transaction ever
// observes the half-initialized row.
//
// If a concurrent invocation wins the insert race, our insert fails the
// uniqueness constraint, the transaction rolls back, and one retry goes
// through the found/self-heal path.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	result, err := s.runOnce(ctx)
	if errors.Is(err, sentinel.ErrConflict) {
		s.logger.InfoContext(ctx, "system user insert lost a bootstrap race, retrying as update",
			"user_id", SystemUserIDStr)
		result, err = s.runOnce(ctx)
	}

	switch {
	case err != nil:
		s.metrics.RecordSeedRun("error")
		return Result{}, fmt.Errorf("seed system user: %w", err)
	case result.Created:
		s.metrics.RecordSeedRun("created")
		s.logger.InfoContext(ctx, "system user created",
			"user_id", result.UserID, "email", result.Email)
	default:
		s.metrics.RecordSeedRun("existing")
		s.logger.InfoContext(ctx, "system user already present",
			"user_id", result.UserID, "email", result.Email)
	}
	return result, nil
}

func (s *Seeder) runOnce(ctx context.Context) (Result, error) {
	var result Result
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.users.FindByIDAny(ctx, SystemUserID)
		if errors.Is(err, sentinel.ErrNotFound) {
			existing, err = s.users.FindByEmailCI(ctx, SystemUserEmail)
		}

		switch {
		case err == nil:
			if !existing.SelfReferencing() {
				// Drift is corrected silently; it is not an error condition.
				if err := s.users.Update(ctx, existing, map[string]any{
					"created_by_id": existing.ID,
					"updated_by_id": existing.ID,
				}); err != nil {
					return err
				}
				s.logger.InfoContext(ctx, "system user audit references self-healed",
					"user_id", existing.ID)
			}
			result = Result{Created: false, UserID: existing.ID, Email: existing.Email}
			return nil

		case errors.Is(err, sentinel.ErrNotFound):
			// Fall through to creation.

		default:
			return err
		}

		// The account never logs in; the password exists only so the row
		// satisfies the schema with a real, unguessable credential.
		password, err := secrets.GeneratePassword(32)
		if err != nil {
			return err
		}
		hash, err := secrets.Hash(password)
		if err != nil {
			return err
		}

		u := &models.User{
			ID:           SystemUserID,
			Email:        SystemUserEmail,
			PasswordHash: hash,
			// The only legitimate moment for null audit references: the
			// principal they must point at is this very row.
			CreatedByID: nil,
			UpdatedByID: nil,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		if err := s.users.Update(ctx, u, map[string]any{
			"created_by_id": u.ID,
			"updated_by_id": u.ID,
		}); err != nil {
			return err
		}

		result = Result{Created: true, UserID: u.ID, Email: u.Email}
		return nil
	})
	return result, err
}
