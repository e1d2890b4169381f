package domain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vovarama1992/nexcast/internal/models"
	"github.com/Vovarama1992/nexcast/internal/ports"
)

const (
	frameContentType = "image/jpeg"
	// keyAttempts bounds retries when two frames of one session land on the same microsecond.
	keyAttempts = 3
)

type FrameService struct {
	uow   ports.UnitOfWork
	store ports.ObjectStore
	now   func() time.Time
}

func NewFrameService(uow ports.UnitOfWork, store ports.ObjectStore) *FrameService {
	return &FrameService{
		uow:   uow,
		store: store,
		now:   time.Now,
	}
}

// Ingest decodes a base64 frame and stores it. Nothing touches storage when the
// payload is malformed.
func (s *FrameService) Ingest(ctx context.Context, sessionID int64, frameData string) (*models.FrameUpload, error) {
	if sessionID <= 0 || frameData == "" {
		return nil, fmt.Errorf("%w: session_id and frame_data required", ErrBadRequest)
	}
	raw, err := DecodeFrame(frameData)
	if err != nil {
		return nil, err
	}
	return s.IngestBytes(ctx, sessionID, raw)
}

// IngestBytes writes the object first and the metadata row second. A failed insert
// leaves an orphaned object behind, which no row references.
func (s *FrameService) IngestBytes(ctx context.Context, sessionID int64, raw []byte) (*models.FrameUpload, error) {
	if sessionID <= 0 {
		return nil, fmt.Errorf("%w: session_id required", ErrBadRequest)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrBadRequest)
	}

	key, err := s.putFrame(ctx, sessionID, raw)
	if err != nil {
		return nil, err
	}

	var frame *models.FrameUpload
	err = s.uow.Do(ctx, func(r ports.Repositories) error {
		var err error
		frame, err = r.Frames.Insert(ctx, sessionID, key)
		return err
	})
	if err != nil {
		return nil, persistence("insert frame "+key, err)
	}
	return frame, nil
}

func (s *FrameService) putFrame(ctx context.Context, sessionID int64, raw []byte) (string, error) {
	at := s.now()
	for attempt := 1; ; attempt++ {
		key := ObjectKey(sessionID, at)
		err := s.store.Put(ctx, key, frameContentType, raw)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ports.ErrObjectExists) || attempt == keyAttempts {
			return "", fmt.Errorf("%w: put %s: %w", ErrStorage, key, err)
		}
		at = at.Add(time.Microsecond)
	}
}

// ObjectKey builds frames/{session}/{YYYYMMDD_HHMMSS_micro}.jpg in UTC.
func ObjectKey(sessionID int64, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("frames/%d/%s_%06d.jpg",
		sessionID,
		at.Format("20060102_150405"),
		at.Nanosecond()/int(time.Microsecond),
	)
}

var frameEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeFrame accepts padded or unpadded base64 in either alphabet, optionally
// wrapped in a data: URL as produced by canvas.toDataURL.
func DecodeFrame(frameData string) ([]byte, error) {
	payload := strings.TrimSpace(frameData)
	if strings.HasPrefix(payload, "data:") {
		i := strings.Index(payload, ";base64,")
		if i < 0 {
			return nil, fmt.Errorf("%w: frame_data data URL is not base64", ErrBadRequest)
		}
		payload = payload[i+len(";base64,"):]
	}

	for _, enc := range frameEncodings {
		raw, err := enc.DecodeString(payload)
		if err == nil && len(raw) > 0 {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: frame_data is not valid base64", ErrBadRequest)
}
