package models

import "time"

type FrameUpload struct {
	ID        int64     `db:"id"`
	SessionID int64     `db:"session_id"`
	ObjectKey string    `db:"object_key"` // key in the frame bucket
	CreatedAt time.Time `db:"created_at"`
}
