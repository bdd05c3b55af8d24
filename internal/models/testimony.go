// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// ApprovalState of a testimony. Rejected testimonies are deleted, so there
// is no rejected state.
type ApprovalState string

const (
	StatePending  ApprovalState = "pending"
	StateApproved ApprovalState = "approved"
)

// Category of a testimony.
type Category string

const (
	CategorySalvation   Category = "salvation"
	CategoryHealing     Category = "healing"
	CategoryProvision   Category = "provision"
	CategoryPeace       Category = "peace"
	CategoryDeliverance Category = "deliverance"
	CategoryOther       Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategorySalvation,
	CategoryHealing,
	CategoryProvision,
	CategoryPeace,
	CategoryDeliverance,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Testimony struct { //nolint:govet // fieldalignment not critical for models
	ID            int64         `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"user_id"`
	Title         string        `db:"title" json:"title"`
	Content       string        `db:"content" json:"content"`
	Category      Category      `db:"category" json:"category"`
	Anonymous     bool          `db:"anonymous" json:"anonymous"`
	ApprovalState ApprovalState `db:"approval_state" json:"approval_state"`
	ApprovedBy    *int64        `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UserName      string        `db:"user_name" json:"user_name,omitempty"`
	UserEmail     string        `db:"user_email" json:"user_email,omitempty"`
}
