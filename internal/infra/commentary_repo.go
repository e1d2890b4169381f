package infra

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/models"
)

type PostgresCommentaryRepo struct {
	q querier
}

func (r *PostgresCommentaryRepo) ListBySession(ctx context.Context, sessionID int64) ([]models.Commentary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, commentator_model, scene_description,
		       commentary_text, audio_url, created_at
		FROM commentaries
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list commentaries: %w", err)
	}
	defer rows.Close()

	var out []models.Commentary
	for rows.Next() {
		var c models.Commentary
		if err := rows.Scan(
			&c.ID,
			&c.SessionID,
			&c.CommentatorModel,
			&c.SceneDescription,
			&c.CommentaryText,
			&c.AudioURL,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan commentary: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list commentaries: %w", err)
	}
	return out, nil
}
