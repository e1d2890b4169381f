package domain

import (
	"context"
	"errors"

	"github.com/Vovarama1992/nexcast/internal/models"
	"github.com/Vovarama1992/nexcast/internal/ports"
)

type historyService struct {
	uow ports.UnitOfWork
}

func NewHistoryService(uow ports.UnitOfWork) ports.HistoryService {
	return &historyService{uow: uow}
}

// ListSessions returns the caller's sessions, newest first. A subject that never
// started a session simply has none.
func (s *historyService) ListSessions(ctx context.Context, subject string) ([]models.SessionSummary, error) {
	if subject == "" {
		return nil, ErrUnauthorized
	}

	sessions := []models.SessionSummary{}
	err := s.uow.Do(ctx, func(r ports.Repositories) error {
		userID, err := LookupUser(ctx, r.Users, subject)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		list, err := r.Sessions.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if list != nil {
			sessions = list
		}
		return nil
	})
	if err != nil {
		return nil, persistence("list sessions", err)
	}
	return sessions, nil
}

// SessionHistory returns commentaries in chronological order after the ownership check.
func (s *historyService) SessionHistory(ctx context.Context, sessionID int64, subject string) ([]models.Commentary, error) {
	if subject == "" {
		return nil, ErrUnauthorized
	}

	commentaries := []models.Commentary{}
	err := s.uow.Do(ctx, func(r ports.Repositories) error {
		if _, err := ownedSession(ctx, r, sessionID, subject); err != nil {
			return err
		}
		list, err := r.Commentary.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if list != nil {
			commentaries = list
		}
		return nil
	})
	if err != nil {
		return nil, persistence("session history", err)
	}
	return commentaries, nil
}
