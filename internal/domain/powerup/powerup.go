// Package powerup defines power-up kinds and the stored inventory.
// This package is PURE and must NOT import any infrastructure packages.
package powerup

import "fmt"

// Kind represents a catchable power-up.
type Kind string

const (
	KindFreeze Kind = "FREEZE" // Suppresses passive heating for a while
	KindCool   Kind = "COOL"   // Instant heat reduction
	KindClear  Kind = "CLEAR"  // Removes every popup and resets the ramp
)

// Kinds lists every power-up kind in display order.
var Kinds = []Kind{KindFreeze, KindCool, KindClear}

// ParseKind converts a wire string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindFreeze, KindCool, KindClear:
		return k, nil
	}
	return "", fmt.Errorf("unknown power-up kind %q", s)
}

// Inventory holds per-kind counts of caught, unconsumed power-ups.
type Inventory struct {
	Freeze int `json:"freeze"`
	Cool   int `json:"cool"`
	Clear  int `json:"clear"`
}

func (inv *Inventory) slot(k Kind) *int {
	switch k {
	case KindFreeze:
		return &inv.Freeze
	case KindCool:
		return &inv.Cool
	case KindClear:
		return &inv.Clear
	}
	return nil
}

// Count returns the stored amount of k.
func (inv *Inventory) Count(k Kind) int {
	if s := inv.slot(k); s != nil {
		return *s
	}
	return 0
}

// Add stores one more power-up of kind k.
func (inv *Inventory) Add(k Kind) {
	if s := inv.slot(k); s != nil {
		*s++
	}
}

// Take removes one power-up of kind k. It returns false and leaves the
// inventory untouched when none is stored.
func (inv *Inventory) Take(k Kind) bool {
	s := inv.slot(k)
	if s == nil || *s <= 0 {
		return false
	}
	*s--
	return true
}
