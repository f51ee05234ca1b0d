// -----------------------------------------------------------------------
// WebSocket Handler - Streams job snapshots to subscribed clients
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams job state snapshots over a websocket.
type WebSocketHandler struct {
	store  interfaces.JobStore
	logger arbor.ILogger
}

// NewWebSocketHandler creates a new websocket handler.
func NewWebSocketHandler(store interfaces.JobStore, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		store:  store,
		logger: logger,
	}
}

// HandleJobSocket upgrades the connection and streams snapshots for one job
// until the job reaches a terminal state or the client disconnects.
// GET /ws/jobs/{id}
func (h *WebSocketHandler) HandleJobSocket(w http.ResponseWriter, r *http.Request, jobID string) {
	updates, err := h.store.Subscribe(r.Context(), jobID)
	if err != nil {
		h.logger.Warn().Err(err).Str("job_id", jobID).Msg("WebSocket subscribe failed")
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.Debug().Str("job_id", jobID).Msg("WebSocket client subscribed")

	// Drain reads so close frames and pings are processed.
	go func() {
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	for snapshot := range updates {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(snapshot); err != nil {
			h.logger.Debug().Err(err).Str("job_id", jobID).Msg("WebSocket client gone")
			return
		}
	}

	// Channel closed: the job is terminal, tell the client we are done.
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}
