// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/godfactor/internal/models"
)

// CreatePost creates a post.
func (r *Repository) CreatePost(ctx context.Context, userID int64, content string, anonymous bool) (*models.Post, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO posts (user_id, content, anonymous) VALUES (?, ?, ?)`,
		userID, content, anonymous)
	if err != nil {
		return nil, wrapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetPostByID(ctx, id)
}

// GetPostByID retrieves a post by ID.
func (r *Repository) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := r.q.GetContext(ctx, &post,
		`SELECT id, user_id, content, anonymous, created_at FROM posts WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &post, nil
}

// ListRecentPosts returns the newest posts with their author names.
func (r *Repository) ListRecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.q.SelectContext(ctx, &posts,
		`SELECT p.id, p.user_id, p.content, p.anonymous, p.created_at, u.name AS user_name
		 FROM posts p
		 JOIN users u ON p.user_id = u.id
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return posts, nil
}
