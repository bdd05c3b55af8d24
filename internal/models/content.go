// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// DateLayout is the format of Devotional.Date.
const DateLayout = "2006-01-02"

type Devotional struct { //nolint:govet // fieldalignment not critical for models
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Scripture  string    `db:"scripture" json:"scripture"`
	Reflection string    `db:"reflection" json:"reflection"`
	Prayer     string    `db:"prayer" json:"prayer"`
	ActionStep string    `db:"action_step" json:"action_step"`
	Date       string    `db:"date" json:"date"` // YYYY-MM-DD
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Post is a short community message. UserName is filled by list queries.
type Post struct { //nolint:govet // fieldalignment not critical for models
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	Anonymous bool      `db:"anonymous" json:"anonymous"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UserName  string    `db:"user_name" json:"user_name,omitempty"`
}

// Prayer is a prayer request. PrayerCount is maintained by the interaction ledger.
type Prayer struct { //nolint:govet // fieldalignment not critical for models
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Content     string    `db:"content" json:"content"`
	PrayerCount int64     `db:"prayer_count" json:"prayer_count"`
	Answered    bool      `db:"answered" json:"answered"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UserName    string    `db:"user_name" json:"user_name,omitempty"`
}
