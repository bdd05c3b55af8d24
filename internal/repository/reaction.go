// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/godfactor/internal/models"
)

// reactionTable maps a subject type to its table and subject column.
func reactionTable(subject models.SubjectType) (table, column string, err error) {
	switch subject {
	case models.SubjectPost:
		return "post_responses", "post_id", nil
	case models.SubjectPrayer:
		return "prayer_responses", "prayer_id", nil
	default:
		return "", "", fmt.Errorf("unknown subject type %q", subject)
	}
}

// kindColumn is the select expression for the reaction kind.
func kindColumn(subject models.SubjectType) string {
	if subject == models.SubjectPost {
		return "r.response_type"
	}
	return "''"
}

// HasReaction reports whether the user already reacted to the subject.
func (r *Repository) HasReaction(ctx context.Context, subject models.SubjectType, subjectID, userID int64) (bool, error) {
	table, column, err := reactionTable(subject)
	if err != nil {
		return false, err
	}
	var exists bool
	err = r.q.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE `+column+` = ? AND user_id = ?)`,
		subjectID, userID)
	return exists, err
}

// CreateReaction inserts a reaction record. A second record for the same
// (subject, user) fails with ErrDuplicate.
func (r *Repository) CreateReaction(ctx context.Context, subject models.SubjectType, subjectID, userID int64, kind models.ReactionKind) error {
	var err error
	switch subject {
	case models.SubjectPost:
		_, err = r.q.ExecContext(ctx,
			`INSERT INTO post_responses (post_id, user_id, response_type) VALUES (?, ?, ?)`,
			subjectID, userID, kind)
	case models.SubjectPrayer:
		_, err = r.q.ExecContext(ctx,
			`INSERT INTO prayer_responses (prayer_id, user_id) VALUES (?, ?)`,
			subjectID, userID)
	default:
		return fmt.Errorf("unknown subject type %q", subject)
	}
	return wrapError(err)
}

// CountReactions returns the number of reactions per kind for a subject.
// Prayer registrations are counted under the empty kind.
func (r *Repository) CountReactions(ctx context.Context, subject models.SubjectType, subjectID int64) (map[models.ReactionKind]int64, error) {
	table, column, err := reactionTable(subject)
	if err != nil {
		return nil, err
	}

	if subject == models.SubjectPrayer {
		var n int64
		if err := r.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table+` WHERE `+column+` = ?`, subjectID); err != nil {
			return nil, err
		}
		return map[models.ReactionKind]int64{models.KindNone: n}, nil
	}

	var rows []struct {
		Kind  models.ReactionKind `db:"kind"`
		Count int64               `db:"count"`
	}
	err = r.q.SelectContext(ctx, &rows,
		`SELECT response_type AS kind, COUNT(*) AS count
		 FROM `+table+`
		 WHERE `+column+` = ?
		 GROUP BY response_type`, subjectID)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ReactionKind]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

// ListRecentReactions returns the newest reactions to a subject.
func (r *Repository) ListRecentReactions(ctx context.Context, subject models.SubjectType, subjectID int64, limit int) ([]models.Reaction, error) {
	table, column, err := reactionTable(subject)
	if err != nil {
		return nil, err
	}

	reactions := []models.Reaction{}
	err = r.q.SelectContext(ctx, &reactions,
		`SELECT r.id, ? AS subject_type, r.`+column+` AS subject_id, r.user_id,
		        `+kindColumn(subject)+` AS kind, r.created_at, u.name AS user_name
		 FROM `+table+` r
		 JOIN users u ON r.user_id = u.id
		 WHERE r.`+column+` = ?
		 ORDER BY r.created_at DESC, r.id DESC
		 LIMIT ?`, subject, subjectID, limit)
	if err != nil {
		return nil, err
	}
	return reactions, nil
}
