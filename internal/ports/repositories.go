package ports

import (
	"context"

	"github.com/Vovarama1992/nexcast/internal/models"
)

type UserRepository interface {
	// InsertIgnore creates the user if the subject is unseen and is a no-op otherwise.
	InsertIgnore(ctx context.Context, subject string) error
	// GetBySubject returns nil, nil when no user carries the subject.
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
}

type SessionRepository interface {
	Insert(ctx context.Context, userID int64) (*models.Session, error)
	// End closes an active session. ownerID == 0 skips the ownership filter.
	// The returned session is nil when no row was updated.
	End(ctx context.Context, sessionID, ownerID int64) (*models.Session, error)
	GetByID(ctx context.Context, sessionID int64) (*models.Session, error)
	ListByUser(ctx context.Context, userID int64) ([]models.SessionSummary, error)
}

type FrameRepository interface {
	Insert(ctx context.Context, sessionID int64, objectKey string) (*models.FrameUpload, error)
}

type CommentaryRepository interface {
	ListBySession(ctx context.Context, sessionID int64) ([]models.Commentary, error)
}

// Repositories is the set of repositories bound to one transaction.
type Repositories struct {
	Users      UserRepository
	Sessions   SessionRepository
	Frames     FrameRepository
	Commentary CommentaryRepository
}

// UnitOfWork scopes relational work to a single transaction. Do commits when fn
// returns nil and rolls back otherwise; the connection is released on every path.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos Repositories) error) error
}
