package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samwiegames/overheat/internal/events"
)

// Persister translates log events to storage events and writes them
// through an EventRepository. It satisfies events.EventPersister.
type Persister struct {
	repo    EventRepository
	timeout time.Duration
}

// NewPersister wraps repo; every write gets its own timeout.
func NewPersister(repo EventRepository, timeout time.Duration) *Persister {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Persister{repo: repo, timeout: timeout}
}

func (p *Persister) Append(event events.GameEvent) error {
	payload, err := toPayloadMap(event.Payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.repo.Append(ctx, GameEvent{
		Seq:       event.Seq,
		ID:        event.ID,
		SessionID: event.SessionID,
		Timestamp: event.Timestamp,
		SimTime:   event.SimTime,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		Payload:   payload,
	})
}

// toPayloadMap normalizes any payload struct to the generic map shape read
// back from storage.
func toPayloadMap(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return map[string]interface{}{}, nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return m, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]interface{}{"value": string(raw)}, nil
	}
	return out, nil
}
