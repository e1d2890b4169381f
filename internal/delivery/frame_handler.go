package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/nexcast/internal/ports"
)

type FrameHandler struct {
	frames ports.FrameService
	log    *logger.ZapLogger
}

func NewFrameHandler(frames ports.FrameService, log *logger.ZapLogger) *FrameHandler {
	return &FrameHandler{
		frames: frames,
		log:    log,
	}
}

// POST /frame/upload
func (h *FrameHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID flexID `json:"session_id"`
		FrameData string `json:"frame_data"` // base64
	}
	if err := decodeBody(w, r, &req); err != nil {
		Fail(w, r, h.log, "upload frame", err)
		return
	}

	frame, err := h.frames.Ingest(r.Context(), int64(req.SessionID), req.FrameData)
	if err != nil {
		Fail(w, r, h.log, "upload frame", err)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "frame uploaded",
		Fields: map[string]any{
			"sessionID": frame.SessionID,
			"frameID":   frame.ID,
			"key":       frame.ObjectKey,
		},
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"frame_id":   frame.ID,
		"object_key": frame.ObjectKey,
		"s3_key":     frame.ObjectKey, // name used by the first API clients
		"status":     "uploaded",
	})
}
