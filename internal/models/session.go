package models

import "time"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

type Session struct {
	ID        int64         `db:"id"`
	UserID    int64         `db:"user_id"`
	StartedAt time.Time     `db:"started_at"`
	EndedAt   *time.Time    `db:"ended_at"` // nil while active
	Status    SessionStatus `db:"status"`
}

// SessionSummary is one row of a user's session listing.
type SessionSummary struct {
	Session
	CommentaryCount int64 `db:"commentary_count"`
}
