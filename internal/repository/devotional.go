// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"

	"codeberg.org/oliverandrich/godfactor/internal/models"
)

const devotionalColumns = `id, title, scripture, reflection, prayer, action_step, date, created_at`

// CreateDevotional creates a devotional. Only one devotional may exist per
// date; a second one fails with ErrDuplicate.
func (r *Repository) CreateDevotional(ctx context.Context, d *models.Devotional) (*models.Devotional, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO devotionals (title, scripture, reflection, prayer, action_step, date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.Title, d.Scripture, d.Reflection, d.Prayer, d.ActionStep, d.Date)
	if err != nil {
		return nil, wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var created models.Devotional
	if err := r.q.GetContext(ctx, &created, `SELECT `+devotionalColumns+` FROM devotionals WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &created, nil
}

// GetDevotionalForDate returns the devotional scheduled for date (YYYY-MM-DD),
// falling back to the most recent one.
func (r *Repository) GetDevotionalForDate(ctx context.Context, date string) (*models.Devotional, error) {
	var d models.Devotional
	err := r.q.GetContext(ctx, &d, `SELECT `+devotionalColumns+` FROM devotionals WHERE date = ?`, date)
	if err == nil {
		return &d, nil
	}
	if wrapped := wrapError(err); !errors.Is(wrapped, ErrNotFound) {
		return nil, wrapped
	}

	err = r.q.GetContext(ctx, &d, `SELECT `+devotionalColumns+` FROM devotionals ORDER BY date DESC LIMIT 1`)
	if err != nil {
		return nil, wrapError(err)
	}
	return &d, nil
}

// ListDevotionals returns the latest devotionals by date.
func (r *Repository) ListDevotionals(ctx context.Context, limit int) ([]models.Devotional, error) {
	devotionals := []models.Devotional{}
	err := r.q.SelectContext(ctx, &devotionals,
		`SELECT `+devotionalColumns+` FROM devotionals ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return devotionals, nil
}
