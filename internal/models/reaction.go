// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// SubjectType names what a reaction targets.
type SubjectType string

const (
	SubjectPost   SubjectType = "post"
	SubjectPrayer SubjectType = "prayer"
)

// ReactionKind is the response a user gives to a post. Prayer
// registrations carry no kind.
type ReactionKind string

const (
	KindNone     ReactionKind = ""
	KindPraying  ReactionKind = "praying"
	KindAmen     ReactionKind = "amen"
	KindThankYou ReactionKind = "thankyou"
)

// PostReactionKinds lists the kinds valid for posts.
var PostReactionKinds = []ReactionKind{KindPraying, KindAmen, KindThankYou}

// ValidFor reports whether k may be recorded against the subject type.
func (k ReactionKind) ValidFor(subject SubjectType) bool {
	switch subject {
	case SubjectPost:
		for _, known := range PostReactionKinds {
			if k == known {
				return true
			}
		}
		return false
	case SubjectPrayer:
		return k == KindNone
	default:
		return false
	}
}

// Reaction is one recorded response by a user to a post or prayer request.
// At most one exists per (subject type, subject, user).
type Reaction struct { //nolint:govet // fieldalignment not critical for models
	ID          int64        `db:"id" json:"id"`
	SubjectType SubjectType  `db:"subject_type" json:"subject_type"`
	SubjectID   int64        `db:"subject_id" json:"subject_id"`
	UserID      int64        `db:"user_id" json:"user_id"`
	Kind        ReactionKind `db:"kind" json:"kind,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UserName    string       `db:"user_name" json:"user_name,omitempty"`
}
