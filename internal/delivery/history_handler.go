package delivery

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/nexcast/internal/domain"
	"github.com/Vovarama1992/nexcast/internal/ports"
	"github.com/go-chi/chi/v5"
)

type HistoryHandler struct {
	history ports.HistoryService
	log     *logger.ZapLogger
}

func NewHistoryHandler(history ports.HistoryService, log *logger.ZapLogger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		log:     log,
	}
}

type sessionSummaryResponse struct {
	SessionID       int64      `json:"session_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	Status          string     `json:"status"`
	CommentaryCount int64      `json:"commentary_count"`
}

type commentaryResponse struct {
	ID               int64     `json:"id"`
	CommentatorModel string    `json:"commentator_model"`
	SceneDescription string    `json:"scene_description"`
	CommentaryText   string    `json:"commentary_text"`
	AudioURL         *string   `json:"audio_url"`
	CreatedAt        time.Time `json:"created_at"`
}

// GET /history/list
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.history.ListSessions(r.Context(), SubjectFrom(r.Context()))
	if err != nil {
		Fail(w, r, h.log, "list sessions", err)
		return
	}

	out := make([]sessionSummaryResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummaryResponse{
			SessionID:       s.ID,
			StartedAt:       s.StartedAt,
			EndedAt:         s.EndedAt,
			Status:          string(s.Status),
			CommentaryCount: s.CommentaryCount,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// GET /history/{sessionID}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	subject := SubjectFrom(r.Context())
	if subject == "" {
		Fail(w, r, h.log, "session history", domain.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "Session not found")
		return
	}

	commentaries, err := h.history.SessionHistory(r.Context(), id, subject)
	if err != nil {
		Fail(w, r, h.log, "session history", err)
		return
	}

	out := make([]commentaryResponse, 0, len(commentaries))
	for _, c := range commentaries {
		out = append(out, commentaryResponse{
			ID:               c.ID,
			CommentatorModel: c.CommentatorModel,
			SceneDescription: c.SceneDescription,
			CommentaryText:   c.CommentaryText,
			AudioURL:         c.AudioURL,
			CreatedAt:        c.CreatedAt,
		})
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "session history fetched",
		Fields: map[string]any{
			"sessionID": id,
			"count":     len(out),
		},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":   id,
		"commentaries": out,
	})
}
