// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the engine pure.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// GameEvent mirrors the engine event structure for persistence.
// Payloads are stored as JSON and read back as generic maps.
type GameEvent struct {
	Seq       int64                  `json:"seq" db:"seq"`
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	SimTime   float64                `json:"sim_time" db:"sim_time"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetBySessionID retrieves all events of a session in emission order.
	GetBySessionID(ctx context.Context, sessionID string) ([]GameEvent, error)

	// GetByActorID retrieves the events of a session caused by an actor.
	GetByActorID(ctx context.Context, sessionID, actorID string) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, sessionID string, eventType string) ([]GameEvent, error)
}

// SessionRecord is one run as kept in the sessions table.
type SessionRecord struct {
	ID        string     `json:"id" db:"id"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	Survived  float64    `json:"survived" db:"survived_seconds"`
	Reason    string     `json:"reason,omitempty" db:"reason"`
}

// Finished reports whether the run reached game over.
func (r SessionRecord) Finished() bool { return r.EndedAt != nil }

// SessionRepository keeps the history of runs.
type SessionRepository interface {
	RecordStart(ctx context.Context, sessionID string, startedAt time.Time) error
	RecordFinish(ctx context.Context, sessionID string, endedAt time.Time, survived float64, reason string) error
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)
	// Top returns the n longest finished runs.
	Top(ctx context.Context, n int) ([]SessionRecord, error)
}
