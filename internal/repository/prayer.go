// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/godfactor/internal/models"
)

const prayerColumns = `id, user_id, content, prayer_count, answered, created_at`

// CreatePrayer creates a prayer request with a zero counter.
func (r *Repository) CreatePrayer(ctx context.Context, userID int64, content string) (*models.Prayer, error) {
	res, err := r.q.ExecContext(ctx, `INSERT INTO prayers (user_id, content) VALUES (?, ?)`, userID, content)
	if err != nil {
		return nil, wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetPrayerByID(ctx, id)
}

// GetPrayerByID retrieves a prayer request by ID.
func (r *Repository) GetPrayerByID(ctx context.Context, id int64) (*models.Prayer, error) {
	var prayer models.Prayer
	if err := r.q.GetContext(ctx, &prayer, `SELECT `+prayerColumns+` FROM prayers WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &prayer, nil
}

// ListOpenPrayers returns the newest unanswered prayer requests.
func (r *Repository) ListOpenPrayers(ctx context.Context, limit int) ([]models.Prayer, error) {
	prayers := []models.Prayer{}
	err := r.q.SelectContext(ctx, &prayers,
		`SELECT p.id, p.user_id, p.content, p.prayer_count, p.answered, p.created_at, u.name AS user_name
		 FROM prayers p
		 JOIN users u ON p.user_id = u.id
		 WHERE p.answered = 0
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return prayers, nil
}

// IncrementPrayerCount adds one to a prayer's counter and returns the new
// value. Only the interaction ledger calls this, inside the transaction that
// inserts the matching prayer response.
func (r *Repository) IncrementPrayerCount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.q.GetContext(ctx, &count,
		`UPDATE prayers SET prayer_count = prayer_count + 1 WHERE id = ? RETURNING prayer_count`, id)
	if err != nil {
		return 0, wrapError(err)
	}
	return count, nil
}
