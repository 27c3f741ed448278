// Package network - control.go
// Control API: REST access to the shared session for clients that do not
// hold a websocket, such as dashboards and scripted tests.
package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/platform/logger"
)

// ControlHandler exposes the session snapshot and accepts actions over HTTP.
type ControlHandler struct {
	sink   ActionSink
	source SnapshotSource
	hub    *Hub
	logger *logger.Logger
}

// NewControlHandler creates a control handler. hub may be nil.
func NewControlHandler(sink ActionSink, source SnapshotSource, hub *Hub, log *logger.Logger) *ControlHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &ControlHandler{
		sink:   sink,
		source: source,
		hub:    hub,
		logger: log,
	}
}

// HandleSnapshot returns the latest published session state.
// GET /api/session
func (ch *ControlHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ch.source.Snapshot())
}

// HandleAction queues a player action.
// POST /api/session/actions {"type":"CLOSE_POPUP","popup_id":3}
func (ch *ControlHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	var action PlayerAction
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&action); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ch.submit(w, action, actorFromRequest(r))
}

// HandleRestart starts a fresh session.
// POST /api/session/restart
func (ch *ControlHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	ch.submit(w, PlayerAction{Type: string(engine.InputRestart)}, actorFromRequest(r))
}

// HandleStatus returns a compact view for health checks and dashboards.
// GET /api/status
func (ch *ControlHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snap := ch.source.Snapshot()
	clients := 0
	if ch.hub != nil {
		clients = ch.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":   snap.SessionID,
		"elapsed_text": snap.ElapsedText,
		"heat":         snap.Heat,
		"game_over":    snap.GameOver,
		"popups":       len(snap.Popups),
		"online_count": clients,
		"timestamp":    time.Now().Unix(),
	})
}

// RegisterRoutes sets up the control API routes.
func (ch *ControlHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/session", ch.HandleSnapshot)
	r.Post("/api/session/actions", ch.HandleAction)
	r.Post("/api/session/restart", ch.HandleRestart)
	r.Get("/api/status", ch.HandleStatus)
}

func (ch *ControlHandler) submit(w http.ResponseWriter, action PlayerAction, actorID string) {
	in, ok := action.Input(actorID)
	if !ok {
		writeError(w, "Invalid action", http.StatusBadRequest)
		return
	}
	if !ch.sink.Submit(in) {
		writeError(w, "Input queue full", http.StatusServiceUnavailable)
		return
	}
	ch.logger.Event("CONTROL_"+action.Type, actorID, "queued")
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"queued":  action.Type,
	})
}

func actorFromRequest(r *http.Request) string {
	if id := r.Header.Get("X-Actor-ID"); id != "" {
		return id
	}
	return "http:" + r.RemoteAddr
}
