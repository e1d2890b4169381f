package ws

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/nexcast/internal/delivery"
	"github.com/Vovarama1992/nexcast/internal/domain"
	"github.com/Vovarama1992/nexcast/internal/models"
	"github.com/Vovarama1992/nexcast/internal/ports"
	"github.com/gorilla/websocket"
)

const maxFrameBytes = 16 << 20

type frameAck struct {
	Status    string `json:"status"`
	FrameID   int64  `json:"frame_id,omitempty"`
	ObjectKey string `json:"object_key,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// FrameStreamHandler serves GET /frame/stream?session_id=N. Every binary message
// is one frame and gets one JSON ack, in order.
type FrameStreamHandler struct {
	hub      *Hub
	sessions ports.SessionService
	frames   ports.FrameService
	log      *logger.ZapLogger
}

func NewFrameStreamHandler(hub *Hub, sessions ports.SessionService, frames ports.FrameService, log *logger.ZapLogger) *FrameStreamHandler {
	return &FrameStreamHandler{
		hub:      hub,
		sessions: sessions,
		frames:   frames,
		log:      log,
	}
}

func (h *FrameStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := strconv.ParseInt(r.URL.Query().Get("session_id"), 10, 64)
	if err != nil || sessionID <= 0 {
		delivery.Fail(w, r, h.log, "frame stream", fmt.Errorf("%w: session_id required", domain.ErrBadRequest))
		return
	}

	sess, err := h.sessions.Get(ctx, sessionID, delivery.SubjectFrom(ctx))
	if err != nil {
		delivery.Fail(w, r, h.log, "frame stream", err)
		return
	}
	if sess.Status == models.SessionEnded {
		delivery.Fail(w, r, h.log, "frame stream", fmt.Errorf("%w: session %d already ended", domain.ErrConflict, sessionID))
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "websocket upgrade failed", Error: err})
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	h.hub.Register(sessionID, conn)
	defer h.hub.Unregister(sessionID, conn)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Log(logger.LogEntry{
					Level:   "warn",
					Message: "frame stream read failed",
					Error:   err,
					Fields:  map[string]any{"sessionID": sessionID},
				})
			}
			return
		}

		var ack frameAck
		if mt != websocket.BinaryMessage {
			ack = frameAck{Status: "error", Error: "bad_request", Message: "binary frames only"}
		} else {
			ack = h.ingest(r, sessionID, data)
		}
		if err := conn.WriteJSON(ack); err != nil {
			return
		}
	}
}

func (h *FrameStreamHandler) ingest(r *http.Request, sessionID int64, data []byte) frameAck {
	frame, err := h.frames.IngestBytes(r.Context(), sessionID, data)
	if err != nil {
		status, reason, message := delivery.Classify(err)
		h.log.Log(logger.LogEntry{
			Level:   logLevel(status),
			Message: "stream frame failed",
			Error:   err,
			Fields:  map[string]any{"sessionID": sessionID, "reason": reason},
		})
		return frameAck{Status: "error", Error: reason, Message: message}
	}
	return frameAck{Status: "uploaded", FrameID: frame.ID, ObjectKey: frame.ObjectKey}
}

// logLevel keeps client mistakes out of the error log.
func logLevel(status int) string {
	if status >= http.StatusInternalServerError {
		return "error"
	}
	return "warn"
}
