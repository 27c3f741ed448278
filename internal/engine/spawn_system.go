package engine

import (
	"math/rand"

	"github.com/samwiegames/overheat/internal/domain/popup"
)

// DifficultyCurve maps difficulty time to a spawn interval.
type DifficultyCurve struct {
	BaseInterval  float64
	MinInterval   float64
	RampPerSecond float64
}

// Interval returns max(MinInterval, BaseInterval - RampPerSecond*t).
func (c DifficultyCurve) Interval(difficultyTime float64) float64 {
	if difficultyTime < 0 {
		difficultyTime = 0
	}
	iv := c.BaseInterval - c.RampPerSecond*difficultyTime
	if iv < c.MinInterval {
		return c.MinInterval
	}
	return iv
}

// SpawnSystem emits popups on a shrinking interval at random positions
// inside the popup area.
type SpawnSystem struct {
	curve   DifficultyCurve
	kinds   []PopupKindTuning
	areaW   float64
	areaH   float64
	padding float64
	rng     *rand.Rand
	timer   float64
}

// NewSpawnSystem creates a scheduler from tuning.
func NewSpawnSystem(t Tuning, rng *rand.Rand) *SpawnSystem {
	return &SpawnSystem{
		curve: DifficultyCurve{
			BaseInterval:  t.BaseSpawnInterval,
			MinInterval:   t.MinSpawnInterval,
			RampPerSecond: t.DifficultyRampPerSecond,
		},
		kinds:   append([]PopupKindTuning(nil), t.PopupKinds...),
		areaW:   t.AreaWidth,
		areaH:   t.AreaHeight,
		padding: t.SpawnPadding,
		rng:     rng,
	}
}

// Curve exposes the difficulty curve.
func (ss *SpawnSystem) Curve() DifficultyCurve { return ss.curve }

// Timer returns the seconds accumulated toward the next spawn.
func (ss *SpawnSystem) Timer() float64 { return ss.timer }

// Tick advances the spawn timer and returns a new popup when the current
// interval has elapsed. The popup has no ID yet. Nothing happens after game
// over.
func (ss *SpawnSystem) Tick(dt, difficultyTime, now float64, gameOver bool) (popup.Popup, bool) {
	if gameOver {
		return popup.Popup{}, false
	}
	ss.timer += dt
	if ss.timer < ss.curve.Interval(difficultyTime) {
		return popup.Popup{}, false
	}
	ss.timer = 0

	kt := ss.kinds[ss.rng.Intn(len(ss.kinds))]
	return ss.place(kt, now), true
}

// SpawnKind creates a popup of a specific kind outside the regular schedule.
// The first configured size for that kind is used; unknown kinds fall back
// to the first entry.
func (ss *SpawnSystem) SpawnKind(k popup.Kind, now float64) popup.Popup {
	kt := ss.kinds[0]
	for _, c := range ss.kinds {
		if c.Kind == k {
			kt = c
			break
		}
	}
	kt.Kind = k
	return ss.place(kt, now)
}

// Bounds returns the largest |x| and |y| a popup of the given half extent
// may be centred at. Popups larger than the area are pinned to the centre.
func (ss *SpawnSystem) Bounds(halfW, halfH float64) (maxX, maxY float64) {
	maxX = ss.areaW/2 - halfW - ss.padding
	maxY = ss.areaH/2 - halfH - ss.padding
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	return maxX, maxY
}

// SnapInside clamps a popup's position back into the spawn bounds.
func (ss *SpawnSystem) SnapInside(p popup.Popup) popup.Popup {
	maxX, maxY := ss.Bounds(p.HalfWidth, p.HalfHeight)
	p.Position.X = clamp(p.Position.X, -maxX, maxX)
	p.Position.Y = clamp(p.Position.Y, -maxY, maxY)
	return p
}

// Reset clears the spawn timer.
func (ss *SpawnSystem) Reset() {
	ss.timer = 0
}

func (ss *SpawnSystem) place(kt PopupKindTuning, now float64) popup.Popup {
	maxX, maxY := ss.Bounds(kt.HalfWidth, kt.HalfHeight)
	p := popup.Popup{
		Kind: kt.Kind,
		Position: popup.Position{
			X: rangeFloat(ss.rng, -maxX, maxX),
			Y: rangeFloat(ss.rng, -maxY, maxY),
		},
		HalfWidth:  kt.HalfWidth,
		HalfHeight: kt.HalfHeight,
		SpawnedAt:  now,
	}
	if kt.Lifetime > 0 {
		p.AutoDespawn = true
		p.DespawnAt = now + kt.Lifetime
	}
	return p
}
