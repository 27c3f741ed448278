// Package popup defines the ad popup entity and its lifecycle outcomes.
// This package is PURE and must NOT import any infrastructure packages.
package popup

// Kind represents the variant of an ad popup. The kind is tagged at
// creation time and drives the closure effect.
type Kind string

const (
	KindNormal  Kind = "NORMAL"  // Cools the machine a little when closed
	KindBomb    Kind = "BOMB"    // Closing it costs heat
	KindCascade Kind = "CASCADE" // Closing it spawns follow-on popups
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNormal, KindBomb, KindCascade:
		return true
	}
	return false
}

// ID identifies a popup within one session. IDs are never reused.
type ID int64

// Position is the popup centre relative to the centre of the spawn area.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Popup is a closable on-screen obstacle.
type Popup struct {
	ID          ID       `json:"id"`
	Kind        Kind     `json:"kind"`
	Position    Position `json:"position"`
	HalfWidth   float64  `json:"half_width"`
	HalfHeight  float64  `json:"half_height"`
	SpawnedAt   float64  `json:"spawned_at"`
	AutoDespawn bool     `json:"auto_despawn"`
	DespawnAt   float64  `json:"despawn_at,omitempty"` // Absolute sim time, valid iff AutoDespawn
}

// ExpiredAt reports whether the popup's auto-despawn deadline has passed.
func (p Popup) ExpiredAt(now float64) bool {
	return p.AutoDespawn && now >= p.DespawnAt
}

// OutcomeKind is the terminal lifecycle state a popup reached.
type OutcomeKind string

const (
	OutcomeClosedNormal  OutcomeKind = "CLOSED_NORMAL"
	OutcomeClosedBomb    OutcomeKind = "CLOSED_BOMB"
	OutcomeClosedCascade OutcomeKind = "CLOSED_CASCADE"
	OutcomeAutoExpired   OutcomeKind = "AUTO_EXPIRED"
	OutcomeCleared       OutcomeKind = "CLEARED" // Removed by a Clear power-up
)

// UserClosed reports whether the outcome came from an explicit close.
func (o OutcomeKind) UserClosed() bool {
	switch o {
	case OutcomeClosedNormal, OutcomeClosedBomb, OutcomeClosedCascade:
		return true
	}
	return false
}

// Outcome pairs a removed popup with the way it left the active set.
type Outcome struct {
	Popup Popup       `json:"popup"`
	Kind  OutcomeKind `json:"kind"`
}

// ClosedOutcome maps a popup kind to its user-close outcome.
func ClosedOutcome(k Kind) OutcomeKind {
	switch k {
	case KindBomb:
		return OutcomeClosedBomb
	case KindCascade:
		return OutcomeClosedCascade
	default:
		return OutcomeClosedNormal
	}
}
