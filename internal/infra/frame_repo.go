package infra

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/models"
)

type PostgresFrameRepo struct {
	q querier
}

func (r *PostgresFrameRepo) Insert(ctx context.Context, sessionID int64, objectKey string) (*models.FrameUpload, error) {
	query := `
		INSERT INTO frame_uploads (session_id, object_key)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	f := models.FrameUpload{SessionID: sessionID, ObjectKey: objectKey}
	if err := r.q.QueryRow(ctx, query, sessionID, objectKey).Scan(&f.ID, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert frame upload: %w", err)
	}
	return &f, nil
}
