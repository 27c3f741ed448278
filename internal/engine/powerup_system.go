package engine

import (
	"math"
	"math/rand"

	"github.com/samwiegames/overheat/internal/domain/powerup"
)

// Token is the single catchable power-up travelling along the lane from
// the positive edge to the negative one.
type Token struct {
	Kind      powerup.Kind `json:"kind"`
	Offset    float64      `json:"offset"`
	Speed     float64      `json:"speed"`
	Rotation  float64      `json:"rotation"`
	SpawnedAt float64      `json:"spawned_at"`
}

// PowerupResult reports what the mini-game did during one tick.
type PowerupResult struct {
	Spawned *Token       // A token entered the lane
	Caught  bool         // A catch attempt landed inside the zone
	Whiffed bool         // A catch attempt missed the zone; the token is gone
	Missed  bool         // The token left the lane untouched
	Kind    powerup.Kind // Kind of the token that ended, if any
	Offset  float64      // Lane offset where it ended
}

// PowerupSystem runs the catch mini-game. Idle phase: a randomized delay
// counts down. Active phase: one token moves across the lane until a catch
// attempt or until it leaves. The idle countdown is frozen while a token is
// out, so at most one token exists at a time.
type PowerupSystem struct {
	rng *rand.Rand

	chanceCool  float64
	chanceClear float64
	minDelay    float64
	maxDelay    float64
	minSpeed    float64
	maxSpeed    float64
	catchHalf   float64
	rotateSpeed float64

	laneHalf     float64
	startX       float64
	endX         float64
	plateauRight float64

	timer     float64
	nextDelay float64
	token     *Token
	catches   []float64 // Pending catch attempt timestamps
}

// NewPowerupSystem creates the mini-game and draws the first delay.
func NewPowerupSystem(t Tuning, rng *rand.Rand) *PowerupSystem {
	laneHalf := t.LaneWidth / 2
	ps := &PowerupSystem{
		rng:          rng,
		chanceCool:   t.ChanceCool,
		chanceClear:  t.ChanceClear,
		minDelay:     t.MinPowerupDelay,
		maxDelay:     t.MaxPowerupDelay,
		minSpeed:     t.MinPowerupSpeed,
		maxSpeed:     t.MaxPowerupSpeed,
		catchHalf:    t.CatchZoneHalfWidth,
		rotateSpeed:  t.RotateSpeed,
		laneHalf:     laneHalf,
		startX:       laneHalf + t.LaneEdgeMargin,
		endX:         -(laneHalf + t.LaneEdgeMargin),
		plateauRight: laneHalf - t.LaneWidth*t.EdgeFadeFraction,
	}
	ps.nextDelay = rangeFloat(rng, ps.minDelay, ps.maxDelay)
	return ps
}

// Active reports whether a token is in the lane.
func (ps *PowerupSystem) Active() bool { return ps.token != nil }

// Token returns a copy of the in-flight token.
func (ps *PowerupSystem) Token() (Token, bool) {
	if ps.token == nil {
		return Token{}, false
	}
	return *ps.token, true
}

// NextDelay returns the idle delay currently being counted down.
func (ps *PowerupSystem) NextDelay() float64 { return ps.nextDelay }

// IdleTimer returns the seconds counted toward NextDelay.
func (ps *PowerupSystem) IdleTimer() float64 { return ps.timer }

// Lane returns the spawn edge and the exit edge offsets.
func (ps *PowerupSystem) Lane() (startX, endX float64) { return ps.startX, ps.endX }

// QueueCatch records a catch attempt made at sim time ts. It is evaluated on
// the next tick; attempts while no token is out are dropped.
func (ps *PowerupSystem) QueueCatch(ts float64) bool {
	if ps.token == nil {
		return false
	}
	ps.catches = append(ps.catches, ts)
	return true
}

// Opacity returns the token's alpha for a given lane offset: fully visible
// on the central plateau, fading in from the spawn edge and out toward the
// exit edge.
func (ps *PowerupSystem) Opacity(x float64) float64 {
	plateauLeft := -ps.plateauRight
	switch {
	case x > ps.plateauRight:
		return inverseLerp(ps.startX, ps.plateauRight, x)
	case x < plateauLeft:
		return inverseLerp(ps.endX, plateauLeft, x)
	default:
		return 1
	}
}

// Tick advances the mini-game by dt seconds ending at now and credits inv
// on a successful catch.
func (ps *PowerupSystem) Tick(dt, now float64, inv *powerup.Inventory) PowerupResult {
	var res PowerupResult

	if ps.token == nil {
		ps.catches = ps.catches[:0]
		ps.timer += dt
		if ps.timer >= ps.nextDelay {
			res.Spawned = ps.spawn(now)
		}
		return res
	}

	tok := ps.token
	tok.Offset -= tok.Speed * dt
	tok.Rotation = math.Mod(tok.Rotation+ps.rotateSpeed*dt, 360)

	// Catch attempts are judged before the lane exit check.
	for _, ts := range ps.catches {
		if ts < tok.SpawnedAt {
			continue
		}
		res.Kind, res.Offset = tok.Kind, tok.Offset
		if math.Abs(tok.Offset) <= ps.catchHalf {
			inv.Add(tok.Kind)
			res.Caught = true
		} else {
			res.Whiffed = true
		}
		ps.end()
		return res
	}
	ps.catches = ps.catches[:0]

	if tok.Offset <= ps.endX {
		res.Kind, res.Offset = tok.Kind, tok.Offset
		res.Missed = true
		ps.end()
	}
	return res
}

// Reset returns the mini-game to a fresh idle phase.
func (ps *PowerupSystem) Reset() {
	ps.token = nil
	ps.catches = ps.catches[:0]
	ps.timer = 0
	ps.nextDelay = rangeFloat(ps.rng, ps.minDelay, ps.maxDelay)
}

func (ps *PowerupSystem) spawn(now float64) *Token {
	ps.timer = 0
	ps.nextDelay = rangeFloat(ps.rng, ps.minDelay, ps.maxDelay)

	ps.token = &Token{
		Kind:      ps.pickKind(),
		Offset:    ps.startX,
		Speed:     rangeFloat(ps.rng, ps.minSpeed, ps.maxSpeed),
		SpawnedAt: now,
	}
	t := *ps.token
	return &t
}

func (ps *PowerupSystem) pickKind() powerup.Kind {
	r := ps.rng.Float64()
	if r < ps.chanceClear {
		return powerup.KindClear
	}
	if r < ps.chanceClear+ps.chanceCool {
		return powerup.KindCool
	}
	return powerup.KindFreeze
}

func (ps *PowerupSystem) end() {
	ps.token = nil
	ps.catches = ps.catches[:0]
}
