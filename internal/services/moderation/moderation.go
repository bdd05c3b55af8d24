// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package moderation moves testimonies out of the pending state. Callers
// must already hold the admin role.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/godfactor/internal/models"
	"codeberg.org/oliverandrich/godfactor/internal/repository"
)

// ErrInvalidTransition is returned when a testimony is no longer pending.
var ErrInvalidTransition = errors.New("testimony is not pending")

type Service struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListPending returns the testimonies awaiting a decision.
func (s *Service) ListPending(ctx context.Context) ([]models.Testimony, error) {
	return s.repo.ListPendingTestimonies(ctx)
}

// Approve publishes a pending testimony and records who approved it and when.
func (s *Service) Approve(ctx context.Context, id, approverID int64) (*models.Testimony, error) {
	var approved *models.Testimony
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		err := tx.ApprovePendingTestimony(ctx, id, approverID, s.now())
		if errors.Is(err, repository.ErrNotFound) {
			return notPending(ctx, tx, id)
		}
		if err != nil {
			return fmt.Errorf("failed to approve testimony: %w", err)
		}

		approved, err = tx.GetTestimonyByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("testimony_approved", "testimony_id", id, "approver_id", approverID)
	return approved, nil
}

// Reject deletes a pending testimony. The reason is written to the log only.
func (s *Service) Reject(ctx context.Context, id, moderatorID int64, reason string) error {
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		err := tx.DeletePendingTestimony(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return notPending(ctx, tx, id)
		}
		if err != nil {
			return fmt.Errorf("failed to reject testimony: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("testimony_rejected", "testimony_id", id, "moderator_id", moderatorID, "reason", reason)
	return nil
}

// notPending tells a missing testimony apart from one that has left the
// pending state.
func notPending(ctx context.Context, tx *repository.Repository, id int64) error {
	t, err := tx.GetTestimonyByID(ctx, id)
	if err != nil {
		return err
	}
	slog.Warn("testimony_transition_refused", "testimony_id", id, "state", t.ApprovalState)
	return ErrInvalidTransition
}
