package engine

import (
	"math/rand"
	"testing"

	"github.com/samwiegames/overheat/internal/domain/powerup"
)

// fixedLaneTuning spawns a token after exactly 1s moving at 300 units/s.
// The lane runs from 510 to -510 and the catch zone is [-60, 60].
func fixedLaneTuning(kind powerup.Kind) Tuning {
	t := DefaultTuning()
	t.MinPowerupDelay, t.MaxPowerupDelay = 1, 1
	t.MinPowerupSpeed, t.MaxPowerupSpeed = 300, 300
	t.ChanceCool, t.ChanceClear = 0, 0
	switch kind {
	case powerup.KindCool:
		t.ChanceCool = 1
	case powerup.KindClear:
		t.ChanceClear = 1
	}
	return t
}

type laneRun struct {
	ps  *PowerupSystem
	inv powerup.Inventory
	now float64
}

func newLaneRun(kind powerup.Kind) *laneRun {
	return &laneRun{ps: NewPowerupSystem(fixedLaneTuning(kind), rand.New(rand.NewSource(1)))}
}

func (r *laneRun) tick() PowerupResult {
	r.now += 0.25
	return r.ps.Tick(0.25, r.now, &r.inv)
}

// spawn ticks until the token appears.
func (r *laneRun) spawn(t *testing.T) Token {
	t.Helper()
	for i := 0; i < 8; i++ {
		if res := r.tick(); res.Spawned != nil {
			return *res.Spawned
		}
	}
	t.Fatal("Expected a token to spawn within 2s")
	return Token{}
}

func TestPowerupSpawnsAfterDelay(t *testing.T) {
	r := newLaneRun(powerup.KindFreeze)
	tok := r.spawn(t)

	if r.now != 1.0 {
		t.Errorf("Expected spawn at t=1, got %v", r.now)
	}
	if tok.Offset != 510 || tok.Speed != 300 || tok.SpawnedAt != 1.0 {
		t.Errorf("Unexpected token %+v", tok)
	}
	if tok.Kind != powerup.KindFreeze {
		t.Errorf("Expected FREEZE, got %s", tok.Kind)
	}
	if !r.ps.Active() {
		t.Error("Expected mini-game to be active")
	}
}

func TestPowerupCatchInsideZone(t *testing.T) {
	r := newLaneRun(powerup.KindCool)
	r.spawn(t)

	// Five ticks bring the token to 135; the sixth lands on 60.
	for i := 0; i < 5; i++ {
		r.tick()
	}
	if !r.ps.QueueCatch(r.now) {
		t.Fatal("Expected catch to be queued while a token is out")
	}
	res := r.tick()

	if !res.Caught {
		t.Fatalf("Expected catch at offset 60, got %+v", res)
	}
	if r.inv.Count(powerup.KindCool) != 1 {
		t.Errorf("Expected exactly one COOL stored, got %+v", r.inv)
	}
	if r.ps.Active() {
		t.Error("Expected token to end on catch")
	}

	// A second press after the token is gone changes nothing.
	if r.ps.QueueCatch(r.now) {
		t.Error("Expected catch without a token to be dropped")
	}
	r.tick()
	if r.inv.Count(powerup.KindCool) != 1 {
		t.Errorf("Expected inventory unchanged, got %+v", r.inv)
	}
}

func TestPowerupCatchOutsideZoneWhiffs(t *testing.T) {
	r := newLaneRun(powerup.KindClear)
	r.spawn(t)
	r.ps.QueueCatch(r.now)

	res := r.tick()
	if !res.Whiffed || res.Caught {
		t.Fatalf("Expected a whiff at offset 435, got %+v", res)
	}
	if r.inv != (powerup.Inventory{}) {
		t.Errorf("Expected empty inventory, got %+v", r.inv)
	}
	if r.ps.Active() {
		t.Error("Expected token to end on a whiff")
	}
}

func TestPowerupMissLeavesInventory(t *testing.T) {
	r := newLaneRun(powerup.KindFreeze)
	r.spawn(t)

	var res PowerupResult
	for i := 0; i < 20 && !res.Missed; i++ {
		res = r.tick()
	}
	if !res.Missed {
		t.Fatal("Expected the token to leave the lane")
	}
	if res.Offset > -510 {
		t.Errorf("Expected exit past -510, got %v", res.Offset)
	}
	if r.inv != (powerup.Inventory{}) {
		t.Errorf("Expected inventory unchanged on a miss, got %+v", r.inv)
	}
	if r.ps.IdleTimer() != 0 {
		t.Errorf("Expected idle timer to restart at 0, got %v", r.ps.IdleTimer())
	}
}

func TestPowerupStaleCatchIgnored(t *testing.T) {
	r := newLaneRun(powerup.KindFreeze)
	r.spawn(t)
	r.ps.QueueCatch(0.5)

	res := r.tick()
	if res.Caught || res.Whiffed {
		t.Fatalf("Expected attempt from before the spawn to be ignored, got %+v", res)
	}
	if !r.ps.Active() {
		t.Error("Expected token to keep moving")
	}
}

func TestPowerupOnlyOneTokenAtATime(t *testing.T) {
	r := newLaneRun(powerup.KindFreeze)
	r.spawn(t)
	for i := 0; i < 12; i++ {
		if res := r.tick(); res.Spawned != nil {
			t.Fatal("Expected no spawn while a token is out")
		}
	}
}

func TestPowerupKindSelection(t *testing.T) {
	for _, k := range powerup.Kinds {
		r := newLaneRun(k)
		if tok := r.spawn(t); tok.Kind != k {
			t.Errorf("Expected %s, got %s", k, tok.Kind)
		}
	}
}

func TestPowerupKindDistribution(t *testing.T) {
	ps := NewPowerupSystem(DefaultTuning(), rand.New(rand.NewSource(99)))
	counts := map[powerup.Kind]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[ps.pickKind()]++
	}
	want := map[powerup.Kind]float64{
		powerup.KindFreeze: 0.5,
		powerup.KindCool:   0.35,
		powerup.KindClear:  0.15,
	}
	for k, p := range want {
		got := float64(counts[k]) / n
		if got < p-0.02 || got > p+0.02 {
			t.Errorf("%s: expected ~%.2f, got %.3f", k, p, got)
		}
	}
}

func TestPowerupOpacity(t *testing.T) {
	ps := NewPowerupSystem(DefaultTuning(), rand.New(rand.NewSource(1)))
	tests := []struct {
		x    float64
		want float64
	}{
		{510, 0},
		{367.5, 0.5},
		{225, 1},
		{0, 1},
		{-225, 1},
		{-510, 0},
	}
	for _, tt := range tests {
		if got := ps.Opacity(tt.x); !approx(got, tt.want) {
			t.Errorf("Opacity(%v): expected %v, got %v", tt.x, tt.want, got)
		}
	}
}
