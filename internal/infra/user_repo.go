package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/models"
	"github.com/jackc/pgx/v5"
)

type PostgresUserRepo struct {
	q querier
}

func (r *PostgresUserRepo) InsertIgnore(ctx context.Context, subject string) error {
	query := `
		INSERT INTO users (external_subject)
		VALUES ($1)
		ON CONFLICT (external_subject) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, query, subject); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	query := `
		SELECT id, external_subject
		FROM users
		WHERE external_subject = $1
	`

	var u models.User
	err := r.q.QueryRow(ctx, query, subject).Scan(&u.ID, &u.ExternalSubject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by subject: %w", err)
	}
	return &u, nil
}
