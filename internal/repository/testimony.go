// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/godfactor/internal/models"
)

const testimonyColumns = `t.id, t.user_id, t.title, t.content, t.category, t.anonymous,
	t.approval_state, t.approved_by, t.approved_at, t.created_at`

// CreateTestimony creates a pending testimony.
func (r *Repository) CreateTestimony(ctx context.Context, t *models.Testimony) (*models.Testimony, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO testimonies (user_id, title, content, category, anonymous, approval_state)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Title, t.Content, t.Category, t.Anonymous, models.StatePending)
	if err != nil {
		return nil, wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetTestimonyByID(ctx, id)
}

// GetTestimonyByID retrieves a testimony by ID.
func (r *Repository) GetTestimonyByID(ctx context.Context, id int64) (*models.Testimony, error) {
	var t models.Testimony
	if err := r.q.GetContext(ctx, &t, `SELECT `+testimonyColumns+` FROM testimonies t WHERE t.id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &t, nil
}

// ListApprovedTestimonies returns the most recently approved testimonies.
func (r *Repository) ListApprovedTestimonies(ctx context.Context, limit int) ([]models.Testimony, error) {
	testimonies := []models.Testimony{}
	err := r.q.SelectContext(ctx, &testimonies,
		`SELECT `+testimonyColumns+`, COALESCE(u.name, '') AS user_name
		 FROM testimonies t
		 LEFT JOIN users u ON t.user_id = u.id
		 WHERE t.approval_state = ?
		 ORDER BY t.approved_at DESC, t.id DESC
		 LIMIT ?`, models.StateApproved, limit)
	if err != nil {
		return nil, err
	}
	return testimonies, nil
}

// ListPendingTestimonies returns the moderation queue, newest first.
func (r *Repository) ListPendingTestimonies(ctx context.Context) ([]models.Testimony, error) {
	testimonies := []models.Testimony{}
	err := r.q.SelectContext(ctx, &testimonies,
		`SELECT `+testimonyColumns+`, u.name AS user_name, u.email AS user_email
		 FROM testimonies t
		 JOIN users u ON t.user_id = u.id
		 WHERE t.approval_state = ?
		 ORDER BY t.created_at DESC, t.id DESC`, models.StatePending)
	if err != nil {
		return nil, err
	}
	return testimonies, nil
}

// ApprovePendingTestimony moves a pending testimony to approved. It returns
// ErrNotFound when no pending testimony with that ID exists.
func (r *Repository) ApprovePendingTestimony(ctx context.Context, id, approverID int64, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE testimonies SET approval_state = ?, approved_by = ?, approved_at = ?
		 WHERE id = ? AND approval_state = ?`,
		models.StateApproved, approverID, at.UTC(), id, models.StatePending)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeletePendingTestimony removes a pending testimony. It returns ErrNotFound
// when no pending testimony with that ID exists.
func (r *Repository) DeletePendingTestimony(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM testimonies WHERE id = ? AND approval_state = ?`, id, models.StatePending)
	if err != nil {
		return err
	}
	return affected(res)
}
