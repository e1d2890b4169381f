package ports

import (
	"context"

	"github.com/Vovarama1992/nexcast/internal/models"
)

type SessionService interface {
	Start(ctx context.Context, subject string) (*models.Session, error)
	End(ctx context.Context, sessionID int64, subject string) (*models.Session, error)
	Get(ctx context.Context, sessionID int64, subject string) (*models.Session, error)
}

type FrameService interface {
	// Ingest takes a base64 payload as sent by HTTP clients.
	Ingest(ctx context.Context, sessionID int64, frameData string) (*models.FrameUpload, error)
	IngestBytes(ctx context.Context, sessionID int64, raw []byte) (*models.FrameUpload, error)
}

type HistoryService interface {
	ListSessions(ctx context.Context, subject string) ([]models.SessionSummary, error)
	SessionHistory(ctx context.Context, sessionID int64, subject string) ([]models.Commentary, error)
}
