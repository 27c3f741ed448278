// Package autoplay drives sessions with scripted players. The same Player
// decides from a Snapshot whether it runs in-process (the balance simulator)
// or over a websocket (the load bot).
package autoplay

import (
	"math/rand"
	"sort"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
	"github.com/samwiegames/overheat/internal/engine"
)

// Profile describes how a scripted player behaves.
type Profile struct {
	Name            string  `yaml:"name"`
	ClosesPerSecond float64 `yaml:"closes_per_second"` // Click budget
	ReactionTime    float64 `yaml:"reaction_time"`     // Seconds a popup is on screen before it can be closed
	AvoidBombs      bool    `yaml:"avoid_bombs"`
	CatchSkill      float64 `yaml:"catch_skill"` // Chance to press catch while a token crosses the zone
	UseItems        bool    `yaml:"use_items"`
}

// Built-in profiles.
var (
	Idle   = Profile{Name: "idle"}
	Casual = Profile{Name: "casual", ClosesPerSecond: 1, ReactionTime: 0.8, CatchSkill: 0.4, UseItems: true}
	Expert = Profile{Name: "expert", ClosesPerSecond: 3, ReactionTime: 0.3, AvoidBombs: true, CatchSkill: 0.9, UseItems: true}
)

// Profiles lists the built-in profiles by name.
var Profiles = map[string]Profile{
	Idle.Name:   Idle,
	Casual.Name: Casual,
	Expert.Name: Expert,
}

// Player turns snapshots into inputs.
type Player struct {
	profile Profile
	rng     *rand.Rand

	budget      float64
	lastElapsed float64
	session     string
	tokenSeen   bool
	closed      map[popup.ID]bool
}

// NewPlayer creates a player. rng drives the catch rolls.
func NewPlayer(profile Profile, rng *rand.Rand) *Player {
	return &Player{profile: profile, rng: rng, closed: make(map[popup.ID]bool)}
}

// Profile returns the player's profile.
func (p *Player) Profile() Profile { return p.profile }

// Decide returns the inputs the player would send after seeing snap.
func (p *Player) Decide(snap engine.Snapshot) []engine.Input {
	if snap.GameOver {
		return nil
	}
	if snap.SessionID != p.session {
		p.session = snap.SessionID
		p.budget = 0
		p.lastElapsed = 0
		p.tokenSeen = false
		p.closed = make(map[popup.ID]bool)
	}

	dt := snap.Elapsed - p.lastElapsed
	p.lastElapsed = snap.Elapsed
	if dt > 0 {
		p.budget += dt * p.profile.ClosesPerSecond
		if limit := 1 + p.profile.ClosesPerSecond; p.budget > limit {
			p.budget = limit
		}
	}

	var inputs []engine.Input
	inputs = append(inputs, p.closePopups(snap)...)
	if in, ok := p.catch(snap); ok {
		inputs = append(inputs, in)
	}
	if in, ok := p.useItem(snap); ok {
		inputs = append(inputs, in)
	}
	return inputs
}

// closePopups closes the oldest visible popups while the click budget lasts.
func (p *Player) closePopups(snap engine.Snapshot) []engine.Input {
	popups := append([]popup.Popup(nil), snap.Popups...)
	sort.Slice(popups, func(i, j int) bool { return popups[i].SpawnedAt < popups[j].SpawnedAt })

	var inputs []engine.Input
	for _, pp := range popups {
		if p.budget < 1 {
			break
		}
		if p.closed[pp.ID] || snap.Elapsed-pp.SpawnedAt < p.profile.ReactionTime {
			continue
		}
		if p.profile.AvoidBombs && pp.Kind == popup.KindBomb {
			continue
		}
		p.budget--
		p.closed[pp.ID] = true
		inputs = append(inputs, engine.Input{Kind: engine.InputClosePopup, ActorID: p.profile.Name, PopupID: pp.ID})
	}
	return inputs
}

// catch rolls once per token, the first time it is seen inside the zone.
func (p *Player) catch(snap engine.Snapshot) (engine.Input, bool) {
	if snap.Token == nil {
		p.tokenSeen = false
		return engine.Input{}, false
	}
	if p.tokenSeen || !snap.Token.InZone {
		return engine.Input{}, false
	}
	p.tokenSeen = true
	if p.rng.Float64() >= p.profile.CatchSkill {
		return engine.Input{}, false
	}
	return engine.Input{Kind: engine.InputCatch, ActorID: p.profile.Name}, true
}

func (p *Player) useItem(snap engine.Snapshot) (engine.Input, bool) {
	if !p.profile.UseItems {
		return engine.Input{}, false
	}
	inv := snap.Inventory
	var kind powerup.Kind
	switch {
	case snap.HeatNormalized >= 0.8 && inv.Count(powerup.KindCool) > 0:
		kind = powerup.KindCool
	case len(snap.Popups) >= 6 && inv.Count(powerup.KindClear) > 0:
		kind = powerup.KindClear
	case snap.HeatNormalized >= 0.6 && !snap.Frozen && inv.Count(powerup.KindFreeze) > 0:
		kind = powerup.KindFreeze
	default:
		return engine.Input{}, false
	}
	return engine.Input{Kind: engine.InputConsume, ActorID: p.profile.Name, Powerup: kind}, true
}
