// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ledger records reactions to posts and prayer registrations. It
// allows at most one reaction per subject and user and keeps each prayer's
// counter equal to its number of registrations.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/godfactor/internal/models"
	"codeberg.org/oliverandrich/godfactor/internal/repository"
)

var (
	ErrDuplicateInteraction = errors.New("already responded")
	ErrInvalidKind          = errors.New("invalid reaction kind")
	ErrInvalidSubject       = errors.New("invalid subject type")
)

// Outcome is the result of a recorded reaction. Count is the new prayer
// counter and is zero for posts.
type Outcome struct {
	Kind  models.ReactionKind `json:"kind,omitempty"`
	Count int64               `json:"count"`
}

type Service struct {
	repo *repository.Repository
}

func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// RegisterReaction records one reaction by userID to a subject. The
// duplicate check, the insert and the prayer counter increment commit
// together or not at all.
func (s *Service) RegisterReaction(ctx context.Context, subject models.SubjectType, subjectID, userID int64, kind models.ReactionKind) (Outcome, error) {
	if subject != models.SubjectPost && subject != models.SubjectPrayer {
		return Outcome{}, ErrInvalidSubject
	}
	if !kind.ValidFor(subject) {
		return Outcome{}, ErrInvalidKind
	}

	var out Outcome
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := subjectExists(ctx, tx, subject, subjectID); err != nil {
			return err
		}

		exists, err := tx.HasReaction(ctx, subject, subjectID, userID)
		if err != nil {
			return fmt.Errorf("failed to check reaction: %w", err)
		}
		if exists {
			return ErrDuplicateInteraction
		}

		if err := tx.CreateReaction(ctx, subject, subjectID, userID, kind); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateInteraction
			}
			return fmt.Errorf("failed to record reaction: %w", err)
		}

		out.Kind = kind
		if subject == models.SubjectPrayer {
			out.Count, err = tx.IncrementPrayerCount(ctx, subjectID)
			if err != nil {
				return fmt.Errorf("failed to increment prayer count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateInteraction) {
			slog.Info("reaction_duplicate", "subject", subject, "subject_id", subjectID, "user_id", userID)
		}
		return Outcome{}, err
	}

	if subject == models.SubjectPrayer {
		slog.Info("prayer_registered", "prayer_id", subjectID, "user_id", userID, "count", out.Count)
	} else {
		slog.Info("post_response_recorded", "post_id", subjectID, "user_id", userID, "kind", kind)
	}
	return out, nil
}

func subjectExists(ctx context.Context, tx *repository.Repository, subject models.SubjectType, id int64) error {
	var err error
	switch subject {
	case models.SubjectPost:
		_, err = tx.GetPostByID(ctx, id)
	case models.SubjectPrayer:
		_, err = tx.GetPrayerByID(ctx, id)
	}
	return err
}

// RespondToPost records a post response and returns the stored kind.
func (s *Service) RespondToPost(ctx context.Context, postID, userID int64, kind models.ReactionKind) (models.ReactionKind, error) {
	out, err := s.RegisterReaction(ctx, models.SubjectPost, postID, userID, kind)
	if err != nil {
		return "", err
	}
	return out.Kind, nil
}

// Pray registers userID as praying for a request and returns the new count.
func (s *Service) Pray(ctx context.Context, prayerID, userID int64) (int64, error) {
	out, err := s.RegisterReaction(ctx, models.SubjectPrayer, prayerID, userID, models.KindNone)
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

// CountReactions returns the number of reactions per kind.
func (s *Service) CountReactions(ctx context.Context, subject models.SubjectType, subjectID int64) (map[models.ReactionKind]int64, error) {
	return s.repo.CountReactions(ctx, subject, subjectID)
}

// ListRecentReactions returns the newest reactions to a subject.
func (s *Service) ListRecentReactions(ctx context.Context, subject models.SubjectType, subjectID int64, limit int) ([]models.Reaction, error) {
	return s.repo.ListRecentReactions(ctx, subject, subjectID, limit)
}
