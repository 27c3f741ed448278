package events

import (
	"errors"
	"sync"
	"testing"
)

type recordingPersister struct {
	mu     sync.Mutex
	events []GameEvent
	fail   bool
}

func (p *recordingPersister) Append(e GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("disk full")
	}
	p.events = append(p.events, e)
	return nil
}

func TestAppendAssignsSequenceAndID(t *testing.T) {
	el := NewEventLog(nil)

	a := el.Append(GameEvent{Type: EventTypePopupSpawned})
	b := el.Append(GameEvent{Type: EventTypePopupClosed})

	if a.Seq != 1 || b.Seq != 2 {
		t.Fatalf("seqs = %d,%d want 1,2", a.Seq, b.Seq)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() {
		t.Error("expected timestamp to be filled")
	}
}

func TestSinceReturnsOnlyNewerEvents(t *testing.T) {
	el := NewEventLog(nil)
	for i := 0; i < 5; i++ {
		el.Append(GameEvent{Type: EventTypePopupSpawned})
	}

	got := el.Since(3)
	if len(got) != 2 || got[0].Seq != 4 || got[1].Seq != 5 {
		t.Fatalf("Since(3) = %+v", got)
	}
	if el.Since(5) != nil {
		t.Error("Since(last) should be empty")
	}
	if len(el.Since(0)) != 5 {
		t.Error("Since(0) should return everything")
	}
}

func TestCapacityDropsOldestButKeepsSequence(t *testing.T) {
	el := NewEventLogWithCapacity(nil, 3, 0)
	for i := 0; i < 5; i++ {
		el.Append(GameEvent{Type: EventTypePopupSpawned})
	}

	all := el.Replay()
	if len(all) != 3 || all[0].Seq != 3 {
		t.Fatalf("retained = %+v, want seq 3..5", all)
	}
	if got := el.Since(1); len(got) != 3 {
		t.Fatalf("Since(1) after trim = %d events, want 3", len(got))
	}
	if el.LastSeq() != 5 {
		t.Fatalf("LastSeq = %d, want 5", el.LastSeq())
	}
}

func TestPersisterReceivesEventsInOrder(t *testing.T) {
	p := &recordingPersister{}
	el := NewEventLog(p)
	for i := 0; i < 20; i++ {
		el.Append(GameEvent{Type: EventTypePopupSpawned, SessionID: "s1"})
	}
	el.Close()

	if len(p.events) != 20 {
		t.Fatalf("persisted %d events, want 20", len(p.events))
	}
	for i, e := range p.events {
		if e.Seq != int64(i+1) {
			t.Fatalf("event %d has seq %d", i, e.Seq)
		}
	}
}

func TestPersisterFailuresAreCounted(t *testing.T) {
	p := &recordingPersister{fail: true}
	el := NewEventLog(p)
	el.Append(GameEvent{Type: EventTypeGameOver})
	el.Close()

	if _, failed := el.Stats(); failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
}

func TestGetBySession(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(GameEvent{SessionID: "a"})
	el.Append(GameEvent{SessionID: "b"})
	el.Append(GameEvent{SessionID: "a"})

	if got := el.GetBySession("a"); len(got) != 2 {
		t.Fatalf("GetBySession(a) = %d events, want 2", len(got))
	}
}
