package engine

import (
	"github.com/samwiegames/overheat/internal/domain/popup"
)

// PopupSystem owns the set of active popups and their lifecycle:
// Spawned -> (UserClosed | AutoExpired | Cleared). Each removal yields a
// typed outcome for the session to act on; nothing else is called back.
type PopupSystem struct {
	active  map[popup.ID]*popup.Popup
	order   []popup.ID // Spawn order, for stable presentation
	pending []popup.ID // Close requests waiting for the next tick
	nextID  popup.ID
}

// NewPopupSystem creates an empty lifecycle manager.
func NewPopupSystem() *PopupSystem {
	return &PopupSystem{
		active: make(map[popup.ID]*popup.Popup),
	}
}

// Reset drops every popup and pending close. IDs keep counting, so a close
// aimed at a popup of an earlier run never matches a new one.
func (ps *PopupSystem) Reset() {
	ps.active = make(map[popup.ID]*popup.Popup)
	ps.order = nil
	ps.pending = nil
}

// Count returns the number of active popups.
func (ps *PopupSystem) Count() int {
	return len(ps.active)
}

// Get returns a copy of an active popup.
func (ps *PopupSystem) Get(id popup.ID) (popup.Popup, bool) {
	p, ok := ps.active[id]
	if !ok {
		return popup.Popup{}, false
	}
	return *p, true
}

// Active returns copies of the active popups in spawn order.
func (ps *PopupSystem) Active() []popup.Popup {
	out := make([]popup.Popup, 0, len(ps.order))
	for _, id := range ps.order {
		out = append(out, *ps.active[id])
	}
	return out
}

// Add registers a freshly spawned popup and assigns its ID.
func (ps *PopupSystem) Add(p popup.Popup) popup.Popup {
	ps.nextID++
	p.ID = ps.nextID
	stored := p
	ps.active[p.ID] = &stored
	ps.order = append(ps.order, p.ID)
	return p
}

// RequestClose queues a user close for the next tick. Unknown or already
// queued IDs are ignored.
func (ps *PopupSystem) RequestClose(id popup.ID) bool {
	if _, ok := ps.active[id]; !ok {
		return false
	}
	for _, q := range ps.pending {
		if q == id {
			return false
		}
	}
	ps.pending = append(ps.pending, id)
	return true
}

// ResolveCloses removes every popup with a queued close. It must run before
// Expire in a tick so a popup closed and expiring together counts as closed.
func (ps *PopupSystem) ResolveCloses() []popup.Outcome {
	if len(ps.pending) == 0 {
		return nil
	}
	outcomes := make([]popup.Outcome, 0, len(ps.pending))
	for _, id := range ps.pending {
		p, ok := ps.remove(id)
		if !ok {
			continue
		}
		outcomes = append(outcomes, popup.Outcome{Popup: p, Kind: popup.ClosedOutcome(p.Kind)})
	}
	ps.pending = ps.pending[:0]
	return outcomes
}

// Expire removes popups whose auto-despawn deadline is at or before now.
func (ps *PopupSystem) Expire(now float64) []popup.Outcome {
	var outcomes []popup.Outcome
	for _, id := range append([]popup.ID(nil), ps.order...) {
		if !ps.active[id].ExpiredAt(now) {
			continue
		}
		p, _ := ps.remove(id)
		outcomes = append(outcomes, popup.Outcome{Popup: p, Kind: popup.OutcomeAutoExpired})
	}
	return outcomes
}

// ClearAll removes every active popup as a neutral removal and drops queued
// closes.
func (ps *PopupSystem) ClearAll() []popup.Outcome {
	outcomes := make([]popup.Outcome, 0, len(ps.order))
	for _, id := range ps.order {
		outcomes = append(outcomes, popup.Outcome{Popup: *ps.active[id], Kind: popup.OutcomeCleared})
	}
	ps.active = make(map[popup.ID]*popup.Popup)
	ps.order = ps.order[:0]
	ps.pending = ps.pending[:0]
	return outcomes
}

func (ps *PopupSystem) remove(id popup.ID) (popup.Popup, bool) {
	p, ok := ps.active[id]
	if !ok {
		return popup.Popup{}, false
	}
	delete(ps.active, id)
	for i, o := range ps.order {
		if o == id {
			ps.order = append(ps.order[:i], ps.order[i+1:]...)
			break
		}
	}
	return *p, true
}
