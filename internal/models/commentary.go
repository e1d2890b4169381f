package models

import "time"

// Commentary rows are produced by the upstream commentator pipeline and only read here.
type Commentary struct {
	ID               int64     `db:"id"`
	SessionID        int64     `db:"session_id"`
	CommentatorModel string    `db:"commentator_model"`
	SceneDescription string    `db:"scene_description"`
	CommentaryText   string    `db:"commentary_text"`
	AudioURL         *string   `db:"audio_url"`
	CreatedAt        time.Time `db:"created_at"`
}
