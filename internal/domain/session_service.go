package domain

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/nexcast/internal/models"
	"github.com/Vovarama1992/nexcast/internal/ports"
)

type sessionService struct {
	uow          ports.UnitOfWork
	requireOwner bool
}

// NewSessionService builds the session lifecycle manager. With requireOwner unset,
// End accepts anonymous callers and closes any session by id.
func NewSessionService(uow ports.UnitOfWork, requireOwner bool) ports.SessionService {
	return &sessionService{
		uow:          uow,
		requireOwner: requireOwner,
	}
}

func (s *sessionService) Start(ctx context.Context, subject string) (*models.Session, error) {
	if subject == "" {
		return nil, ErrUnauthorized
	}

	var sess *models.Session
	err := s.uow.Do(ctx, func(r ports.Repositories) error {
		userID, err := ResolveOrCreateUser(ctx, r.Users, subject)
		if err != nil {
			return err
		}
		sess, err = r.Sessions.Insert(ctx, userID)
		return err
	})
	if err != nil {
		return nil, persistence("start session", err)
	}
	return sess, nil
}

func (s *sessionService) End(ctx context.Context, sessionID int64, subject string) (*models.Session, error) {
	if sessionID <= 0 {
		return nil, fmt.Errorf("%w: session_id required", ErrBadRequest)
	}
	if subject == "" && s.requireOwner {
		return nil, ErrUnauthorized
	}

	var sess *models.Session
	err := s.uow.Do(ctx, func(r ports.Repositories) error {
		var ownerID int64
		if subject != "" {
			id, err := LookupUser(ctx, r.Users, subject)
			if err != nil {
				return err
			}
			ownerID = id
		}

		ended, err := r.Sessions.End(ctx, sessionID, ownerID)
		if err != nil {
			return err
		}
		if ended != nil {
			sess = ended
			return nil
		}

		// Nothing updated: absent, foreign, or already ended.
		cur, err := r.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if cur == nil || (ownerID != 0 && cur.UserID != ownerID) {
			return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
		}
		if cur.Status == models.SessionEnded {
			return fmt.Errorf("%w: session %d already ended", ErrConflict, sessionID)
		}
		return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	})
	if err != nil {
		return nil, persistence("end session", err)
	}
	return sess, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID int64, subject string) (*models.Session, error) {
	if subject == "" {
		return nil, ErrUnauthorized
	}

	var sess *models.Session
	err := s.uow.Do(ctx, func(r ports.Repositories) error {
		var err error
		sess, err = ownedSession(ctx, r, sessionID, subject)
		return err
	})
	if err != nil {
		return nil, persistence("get session", err)
	}
	return sess, nil
}

// ownedSession answers ErrNotFound both for missing sessions and for sessions of
// other users so callers cannot probe for foreign ids.
func ownedSession(ctx context.Context, r ports.Repositories, sessionID int64, subject string) (*models.Session, error) {
	userID, err := LookupUser(ctx, r.Users, subject)
	if err != nil {
		return nil, err
	}
	sess, err := r.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	return sess, nil
}
