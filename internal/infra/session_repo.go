package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/models"
	"github.com/jackc/pgx/v5"
)

type PostgresSessionRepo struct {
	q querier
}

const sessionColumns = `id, user_id, started_at, ended_at, status`

func scanSession(row pgx.Row, s *models.Session, extra ...any) error {
	var status string
	dest := append([]any{&s.ID, &s.UserID, &s.StartedAt, &s.EndedAt, &status}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	s.Status = models.SessionStatus(status)
	return nil
}

func (r *PostgresSessionRepo) Insert(ctx context.Context, userID int64) (*models.Session, error) {
	query := `
		INSERT INTO sessions (user_id, status)
		VALUES ($1, 'active')
		RETURNING ` + sessionColumns

	var s models.Session
	if err := scanSession(r.q.QueryRow(ctx, query, userID), &s); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &s, nil
}

func (r *PostgresSessionRepo) End(ctx context.Context, sessionID, ownerID int64) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET ended_at = now(), status = 'ended'
		WHERE id = $1
		  AND status = 'active'
		  AND ($2::bigint = 0 OR user_id = $2)
		RETURNING ` + sessionColumns

	var s models.Session
	err := scanSession(r.q.QueryRow(ctx, query, sessionID, ownerID), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("end session: %w", err)
	}
	return &s, nil
}

func (r *PostgresSessionRepo) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1
	`

	var s models.Session
	err := scanSession(r.q.QueryRow(ctx, query, sessionID), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	return &s, nil
}

func (r *PostgresSessionRepo) ListByUser(ctx context.Context, userID int64) ([]models.SessionSummary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.id, s.user_id, s.started_at, s.ended_at, s.status,
		       COUNT(c.id) AS commentary_count
		FROM sessions s
		LEFT JOIN commentaries c ON c.session_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		if err := scanSession(rows, &s.Session, &s.CommentaryCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}
