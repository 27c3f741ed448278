// Package storage - reconstructor.go
// Session recap: rebuilds the statistics of a run from the event ledger.
package storage

import (
	"context"
	"fmt"
)

// Reconstructor rebuilds session statistics from the event log. Used by the
// stats API and the post-game recap screen.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new recap builder.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// SessionRecap is what a finished (or running) session looks like when
// replayed from its events.
type SessionRecap struct {
	SessionID        string         `json:"session_id"`
	GameOver         bool           `json:"game_over"`
	Reason           string         `json:"reason,omitempty"`
	Survived         float64        `json:"survived"`
	PopupsSpawned    int            `json:"popups_spawned"`
	PopupsClosed     map[string]int `json:"popups_closed"` // By outcome
	PopupsExpired    int            `json:"popups_expired"`
	PopupsCleared    int            `json:"popups_cleared"`
	PowerupsSpawned  int            `json:"powerups_spawned"`
	PowerupsCaught   int            `json:"powerups_caught"`
	PowerupsMissed   int            `json:"powerups_missed"`
	PowerupsConsumed map[string]int `json:"powerups_consumed"` // By kind
	NetCloseHeat     float64        `json:"net_close_heat"`
}

// CatchRate returns caught / spawned tokens, or 0 when none spawned.
func (r SessionRecap) CatchRate() float64 {
	if r.PowerupsSpawned == 0 {
		return 0
	}
	return float64(r.PowerupsCaught) / float64(r.PowerupsSpawned)
}

// RecapEvent is a simplified event for the recap screen.
type RecapEvent struct {
	SimTime   float64 `json:"sim_time"`
	EventType string  `json:"event_type"`
	Summary   string  `json:"summary"` // Human-readable description
	Impact    string  `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// RebuildSession folds every stored event of a session into a recap.
func (r *Reconstructor) RebuildSession(ctx context.Context, sessionID string) (*SessionRecap, error) {
	events, err := r.eventRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for session: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}

	recap := &SessionRecap{
		SessionID:        sessionID,
		PopupsClosed:     map[string]int{},
		PowerupsConsumed: map[string]int{},
	}
	for _, e := range events {
		r.applyEvent(recap, e)
	}
	return recap, nil
}

// GenerateRecap lists the notable events of a session from a sim time on.
// Spawns are left out; they are noise on a recap screen.
func (r *Reconstructor) GenerateRecap(ctx context.Context, sessionID string, since float64) ([]RecapEvent, error) {
	events, err := r.eventRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var recap []RecapEvent
	for _, e := range events {
		if e.SimTime < since {
			continue
		}
		if e.EventType == "POPUP_SPAWNED" || e.EventType == "POWERUP_SPAWNED" {
			continue
		}
		recap = append(recap, RecapEvent{
			SimTime:   e.SimTime,
			EventType: e.EventType,
			Summary:   r.summarizeEvent(e),
			Impact:    r.determineImpact(e),
		})
	}
	return recap, nil
}

// applyEvent folds one event into the recap.
func (r *Reconstructor) applyEvent(recap *SessionRecap, e GameEvent) {
	if e.SimTime > recap.Survived {
		recap.Survived = e.SimTime
	}

	switch e.EventType {
	case "POPUP_SPAWNED":
		recap.PopupsSpawned++
	case "POPUP_CLOSED":
		recap.PopupsClosed[payloadString(e, "outcome")]++
		recap.NetCloseHeat += payloadFloat(e, "heat_delta")
	case "POPUP_EXPIRED":
		recap.PopupsExpired++
	case "POPUPS_CLEARED":
		recap.PopupsCleared += int(payloadFloat(e, "cleared"))
	case "POWERUP_SPAWNED":
		recap.PowerupsSpawned++
	case "POWERUP_CAUGHT":
		recap.PowerupsCaught++
	case "POWERUP_MISSED":
		recap.PowerupsMissed++
	case "POWERUP_CONSUMED":
		recap.PowerupsConsumed[payloadString(e, "kind")]++
	case "GAME_OVER":
		recap.GameOver = true
		recap.Reason = payloadString(e, "reason")
		recap.Survived = payloadFloat(e, "survived")
	}
}

// summarizeEvent creates a human-readable summary.
func (r *Reconstructor) summarizeEvent(e GameEvent) string {
	switch e.EventType {
	case "POPUP_CLOSED":
		switch payloadString(e, "outcome") {
		case "CLOSED_BOMB":
			return "Closed a bomb popup. It ran hotter."
		case "CLOSED_CASCADE":
			return "Closed a cascade popup. More popups opened."
		}
		return "Closed a popup."
	case "POPUP_EXPIRED":
		return "A popup went away on its own."
	case "POPUPS_CLEARED":
		return fmt.Sprintf("Cleared %d popups.", int(payloadFloat(e, "cleared")))
	case "POWERUP_CAUGHT":
		return "Caught a " + payloadString(e, "kind") + " power-up."
	case "POWERUP_MISSED":
		return "Missed a " + payloadString(e, "kind") + " power-up."
	case "POWERUP_CONSUMED":
		return "Used " + payloadString(e, "kind") + "."
	case "FREEZE_ENDED":
		return "Freeze wore off."
	case "OVERHEATED", "GAME_OVER":
		if reason := payloadString(e, "reason"); reason != "" {
			return reason
		}
		return "The machine overheated."
	case "SESSION_STARTED":
		return "Session started."
	default:
		return "Something happened."
	}
}

// determineImpact classifies the event impact.
func (r *Reconstructor) determineImpact(e GameEvent) string {
	switch e.EventType {
	case "POPUP_CLOSED":
		if payloadString(e, "outcome") == "CLOSED_NORMAL" {
			return "POSITIVE"
		}
		return "NEGATIVE"
	case "POWERUP_CAUGHT", "POWERUP_CONSUMED", "POPUPS_CLEARED":
		return "POSITIVE"
	case "POWERUP_MISSED", "OVERHEATED", "GAME_OVER":
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}

func payloadString(e GameEvent, key string) string {
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return ""
}

func payloadFloat(e GameEvent, key string) float64 {
	if f, ok := e.Payload[key].(float64); ok {
		return f
	}
	return 0
}
