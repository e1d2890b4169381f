package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/nexcast/internal/ports"
)

// StreamCloser drops live frame streams of a session once it ends.
type StreamCloser interface {
	CloseSession(sessionID int64)
}

type SessionHandler struct {
	sessions ports.SessionService
	streams  StreamCloser
	log      *logger.ZapLogger
}

func NewSessionHandler(sessions ports.SessionService, streams StreamCloser, log *logger.ZapLogger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		streams:  streams,
		log:      log,
	}
}

type sessionStateResponse struct {
	SessionID int64      `json:"session_id"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// POST /session/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Start(r.Context(), SubjectFrom(r.Context()))
	if err != nil {
		Fail(w, r, h.log, "start session", err)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "session started",
		Fields:  map[string]any{"sessionID": sess.ID, "userID": sess.UserID},
	})

	writeJSON(w, http.StatusCreated, sessionStateResponse{
		SessionID: sess.ID,
		Status:    string(sess.Status),
		StartedAt: sess.StartedAt,
		EndedAt:   sess.EndedAt,
	})
}

// POST /session/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID flexID `json:"session_id"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		Fail(w, r, h.log, "end session", err)
		return
	}

	sess, err := h.sessions.End(r.Context(), int64(req.SessionID), SubjectFrom(r.Context()))
	if err != nil {
		Fail(w, r, h.log, "end session", err)
		return
	}
	if h.streams != nil {
		h.streams.CloseSession(sess.ID)
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "session ended",
		Fields:  map[string]any{"sessionID": sess.ID},
	})

	writeJSON(w, http.StatusOK, sessionStateResponse{
		SessionID: sess.ID,
		Status:    string(sess.Status),
		StartedAt: sess.StartedAt,
		EndedAt:   sess.EndedAt,
	})
}
