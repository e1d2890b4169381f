package domain

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/ports"
)

// ResolveOrCreateUser maps a subject to its internal id, creating the user on first sight.
// Concurrent first requests for one subject converge on the same row through the
// unique constraint behind InsertIgnore.
func ResolveOrCreateUser(ctx context.Context, users ports.UserRepository, subject string) (int64, error) {
	if subject == "" {
		return 0, ErrUnauthorized
	}
	if err := users.InsertIgnore(ctx, subject); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	u, err := users.GetBySubject(ctx, subject)
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return 0, fmt.Errorf("user %q missing after insert", subject)
	}
	return u.ID, nil
}

// LookupUser resolves a subject without writing. Unknown subjects are ErrNotFound.
func LookupUser(ctx context.Context, users ports.UserRepository, subject string) (int64, error) {
	if subject == "" {
		return 0, ErrUnauthorized
	}
	u, err := users.GetBySubject(ctx, subject)
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return 0, fmt.Errorf("%w: user", ErrNotFound)
	}
	return u.ID, nil
}
