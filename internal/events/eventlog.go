// Package events provides the session event log: an append-only record of
// everything the simulation did, consumed by the websocket hub, the replay
// API and the persistence layer.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samwiegames/overheat/internal/platform/metrics"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeSessionStarted  EventType = "SESSION_STARTED"
	EventTypeSessionReset    EventType = "SESSION_RESET"
	EventTypePopupSpawned    EventType = "POPUP_SPAWNED"
	EventTypePopupClosed     EventType = "POPUP_CLOSED"
	EventTypePopupExpired    EventType = "POPUP_EXPIRED"
	EventTypePopupsCleared   EventType = "POPUPS_CLEARED"
	EventTypePowerupSpawned  EventType = "POWERUP_SPAWNED"
	EventTypePowerupCaught   EventType = "POWERUP_CAUGHT"
	EventTypePowerupMissed   EventType = "POWERUP_MISSED"
	EventTypePowerupConsumed EventType = "POWERUP_CONSUMED"
	EventTypeFreezeEnded     EventType = "FREEZE_ENDED"
	EventTypeOverheated      EventType = "OVERHEATED"
	EventTypeGameOver        EventType = "GAME_OVER"
)

// DefaultCapacity bounds how many events the in-memory log retains.
const DefaultCapacity = 10000

// GameEvent represents an immutable record of something that happened in a session.
type GameEvent struct {
	Seq       int64       `json:"seq" msgpack:"seq"`
	ID        string      `json:"id" msgpack:"id"`
	SessionID string      `json:"session_id" msgpack:"session_id"`
	Timestamp time.Time   `json:"timestamp" msgpack:"timestamp"`
	SimTime   float64     `json:"sim_time" msgpack:"sim_time"` // Seconds survived when it happened
	Type      EventType   `json:"type" msgpack:"type"`
	ActorID   string      `json:"actor_id" msgpack:"actor_id"` // "player" or "system"
	Payload   interface{} `json:"payload" msgpack:"payload"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events. Old events are
// dropped once Capacity is exceeded; sequence numbers keep increasing so
// pollers using Since never see a gap they cannot detect.
type EventLog struct {
	mu       sync.RWMutex
	events   []GameEvent
	nextSeq  int64
	capacity int

	persister EventPersister
	pending   chan GameEvent
	done      chan struct{}
	closeOnce sync.Once
	dropped   int64
	failed    int64
}

// NewEventLog creates a new event log with an optional persister. When a
// persister is given, events are written through by a single background
// worker in append order; call Close to flush it.
func NewEventLog(persister EventPersister) *EventLog {
	return NewEventLogWithCapacity(persister, DefaultCapacity, 1024)
}

// NewEventLogWithCapacity is NewEventLog with explicit retention and
// persistence buffer sizes.
func NewEventLogWithCapacity(persister EventPersister, capacity, buffer int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	el := &EventLog{
		events:    make([]GameEvent, 0, 64),
		capacity:  capacity,
		persister: persister,
	}
	if persister != nil {
		if buffer <= 0 {
			buffer = 1
		}
		el.pending = make(chan GameEvent, buffer)
		el.done = make(chan struct{})
		go el.persistLoop()
	}
	return el
}

func (el *EventLog) persistLoop() {
	defer close(el.done)
	for e := range el.pending {
		start := time.Now()
		err := el.persister.Append(e)
		metrics.RecordEventWrite(time.Since(start), err)
		if err != nil {
			el.mu.Lock()
			el.failed++
			el.mu.Unlock()
		}
	}
}

// Append adds a new event to the log, filling in ID, Seq and Timestamp when
// they are empty. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) GameEvent {
	el.mu.Lock()
	el.nextSeq++
	event.Seq = el.nextSeq
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	el.events = append(el.events, event)
	if over := len(el.events) - el.capacity; over > 0 {
		el.events = append(el.events[:0:0], el.events[over:]...)
	}

	if el.pending != nil {
		select {
		case el.pending <- event:
		default:
			el.dropped++
		}
	}
	el.mu.Unlock()
	return event
}

// Since returns every retained event with a sequence number greater than seq.
func (el *EventLog) Since(seq int64) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	if len(el.events) == 0 || el.events[len(el.events)-1].Seq <= seq {
		return nil
	}
	start := 0
	if first := el.events[0].Seq; seq >= first {
		start = int(seq - first + 1)
	}
	out := make([]GameEvent, len(el.events)-start)
	copy(out, el.events[start:])
	return out
}

// GetBySession returns all retained events of one session.
func (el *EventLog) GetBySession(sessionID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the retained history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// LastSeq returns the sequence number of the newest event, or 0.
func (el *EventLog) LastSeq() int64 {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.nextSeq
}

// Stats reports persistence health: events dropped because the write-through
// buffer was full, and events the persister rejected.
func (el *EventLog) Stats() (dropped, failed int64) {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.dropped, el.failed
}

// Close stops the persistence worker after flushing queued events. Appends
// after Close are kept in memory only.
func (el *EventLog) Close() {
	el.closeOnce.Do(func() {
		el.mu.Lock()
		ch := el.pending
		el.pending = nil
		el.mu.Unlock()
		if ch == nil {
			return
		}
		close(ch)
		<-el.done
	})
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
