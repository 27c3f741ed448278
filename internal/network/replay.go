// Package network - replay.go
// Replay API: JSON export of the session event history and run statistics.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/events"
	"github.com/samwiegames/overheat/internal/infra/storage"
	"github.com/samwiegames/overheat/internal/platform/logger"
)

// RecapSource rebuilds run statistics from persisted events.
// *storage.Reconstructor satisfies it.
type RecapSource interface {
	RebuildSession(ctx context.Context, sessionID string) (*storage.SessionRecap, error)
	GenerateRecap(ctx context.Context, sessionID string, since float64) ([]storage.RecapEvent, error)
}

// RankedRun is one leaderboard row.
type RankedRun struct {
	SessionID    string  `json:"session_id"`
	Survived     float64 `json:"survived"`
	SurvivedText string  `json:"survived_text"`
}

// LeaderboardFunc returns the n longest finished runs, best first.
type LeaderboardFunc func(ctx context.Context, n int) ([]RankedRun, error)

// ReplayHandler serves the event history of the running server.
type ReplayHandler struct {
	eventLog    *events.EventLog
	recaps      RecapSource
	leaderboard LeaderboardFunc
	logger      *logger.Logger
}

// NewReplayHandler creates a replay handler. recaps and leaderboard are
// optional; their routes answer 501 when nil.
func NewReplayHandler(el *events.EventLog, recaps RecapSource, leaderboard LeaderboardFunc, log *logger.Logger) *ReplayHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &ReplayHandler{
		eventLog:    el,
		recaps:      recaps,
		leaderboard: leaderboard,
		logger:      log,
	}
}

// ReplayResponse is the API response for a replay query.
type ReplayResponse struct {
	SessionID   string             `json:"session_id,omitempty"`
	TotalEvents int                `json:"total_events"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	LastSeq     int64              `json:"last_seq"`
	Events      []events.GameEvent `json:"events"`
}

// HandleReplay returns the retained events, optionally filtered.
// GET /api/replay?session=XXX&type=POPUP_CLOSED&since=SEQ
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session")
	eventType := q.Get("type")

	var since int64
	if s := q.Get("since"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			writeError(w, "Invalid since", http.StatusBadRequest)
			return
		}
		since = n
	}

	filterDesc := ""
	if eventType != "" {
		filterDesc = "type=" + eventType
	}

	replayEvents := make([]events.GameEvent, 0)
	for _, e := range rh.eventLog.Since(since) {
		if sessionID != "" && e.SessionID != sessionID {
			continue
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		replayEvents = append(replayEvents, e)
	}

	rh.logger.Event("REPLAY", "AUDIENCE", "Session:"+sessionID+" Events:"+strconv.Itoa(len(replayEvents)))

	writeJSON(w, http.StatusOK, ReplayResponse{
		SessionID:   sessionID,
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		LastSeq:     rh.eventLog.LastSeq(),
		Events:      replayEvents,
	})
}

// HandleEventDetail returns a single event.
// GET /api/replay/event?event_id=XXX
func (rh *ReplayHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		writeError(w, "Missing event_id", http.StatusBadRequest)
		return
	}

	for _, e := range rh.eventLog.Replay() {
		if e.ID == eventID {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, "Event not found", http.StatusNotFound)
}

// HandleStats returns per-type event counts from the in-memory log.
// GET /api/stats?session=XXX
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")

	all := rh.eventLog.Replay()
	if sessionID != "" {
		all = rh.eventLog.GetBySession(sessionID)
	}

	counts := make(map[string]int)
	sessions := make(map[string]bool)
	for _, e := range all {
		counts[string(e.Type)]++
		sessions[e.SessionID] = true
	}
	dropped, failed := rh.eventLog.Stats()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at":    time.Now().Format(time.RFC3339),
		"total_events":    len(all),
		"sessions":        len(sessions),
		"by_type":         counts,
		"persist_dropped": dropped,
		"persist_failed":  failed,
	})
}

// HandleRecap rebuilds a run from the persisted ledger.
// GET /api/recap?session=XXX&since=SIMTIME
func (rh *ReplayHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if rh.recaps == nil {
		writeError(w, "Event persistence disabled", http.StatusNotImplemented)
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		writeError(w, "Missing session", http.StatusBadRequest)
		return
	}
	var since float64
	if s := r.URL.Query().Get("since"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, "Invalid since", http.StatusBadRequest)
			return
		}
		since = f
	}

	recap, err := rh.recaps.RebuildSession(r.Context(), sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		rh.logger.Error("recap failed: " + err.Error())
		writeError(w, "Recap failed", http.StatusInternalServerError)
		return
	}
	timeline, err := rh.recaps.GenerateRecap(r.Context(), sessionID, since)
	if err != nil {
		rh.logger.Error("recap timeline failed: " + err.Error())
		writeError(w, "Recap failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recap":         recap,
		"survived_text": engine.FormatTime(recap.Survived),
		"catch_rate":    recap.CatchRate(),
		"timeline":      timeline,
	})
}

// HandleLeaderboard returns the longest runs.
// GET /api/leaderboard?n=10
func (rh *ReplayHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if rh.leaderboard == nil {
		writeError(w, "Leaderboard disabled", http.StatusNotImplemented)
		return
	}
	n := 10
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 || v > 100 {
			writeError(w, "n must be between 1 and 100", http.StatusBadRequest)
			return
		}
		n = v
	}

	runs, err := rh.leaderboard(r.Context(), n)
	if err != nil {
		rh.logger.Error("leaderboard failed: " + err.Error())
		writeError(w, "Leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}
	for i := range runs {
		runs[i].SurvivedText = engine.FormatTime(runs[i].Survived)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/replay", rh.HandleReplay)
	r.Get("/api/replay/event", rh.HandleEventDetail)
	r.Get("/api/stats", rh.HandleStats)
	r.Get("/api/recap", rh.HandleRecap)
	r.Get("/api/leaderboard", rh.HandleLeaderboard)
}

// writeError sends an error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON sends a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
