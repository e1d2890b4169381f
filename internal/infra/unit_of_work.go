package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/ports"
	"github.com/jackc/pgx/v5"
	"go.uber.org/multierr"
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresUnitOfWork struct {
	db TxBeginner
}

func NewPostgresUnitOfWork(db TxBeginner) ports.UnitOfWork {
	return &PostgresUnitOfWork{db: db}
}

// Do acquires a connection for one transaction and always hands it back to the
// pool. Rollback after a successful commit is a no-op in pgx.
func (u *PostgresUnitOfWork) Do(ctx context.Context, fn func(repos ports.Repositories) error) (err error) {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		// rollback must still reach the server when the request context is gone
		rbCtx := context.WithoutCancel(ctx)
		if p := recover(); p != nil {
			_ = tx.Rollback(rbCtx)
			panic(p)
		}
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(rbCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(repositoriesFor(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func repositoriesFor(q querier) ports.Repositories {
	return ports.Repositories{
		Users:      &PostgresUserRepo{q: q},
		Sessions:   &PostgresSessionRepo{q: q},
		Frames:     &PostgresFrameRepo{q: q},
		Commentary: &PostgresCommentaryRepo{q: q},
	}
}
