package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/samwiegames/overheat/internal/domain/popup"
)

func TestDifficultyCurve(t *testing.T) {
	c := NewSpawnSystem(DefaultTuning(), rand.New(rand.NewSource(1))).Curve()

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 1.2},
		{50, 1.0},
		{150, 0.6},
		{400, 0.6},
		{-10, 1.2},
	}
	for _, tt := range tests {
		if got := c.Interval(tt.t); !approx(got, tt.want) {
			t.Errorf("Interval(%v): expected %v, got %v", tt.t, tt.want, got)
		}
	}
}

func TestSpawnCadence(t *testing.T) {
	ss := NewSpawnSystem(DefaultTuning(), rand.New(rand.NewSource(7)))

	spawned := 0
	now := 0.0
	for i := 0; i < 40; i++ {
		now += 0.125
		if _, ok := ss.Tick(0.125, 0, now, false); ok {
			spawned++
		}
	}
	// 5 seconds at a 1.2s interval, timer resets on spawn.
	if spawned != 4 {
		t.Errorf("Expected 4 spawns in 5s, got %d", spawned)
	}
}

func TestSpawnStopsAfterGameOver(t *testing.T) {
	ss := NewSpawnSystem(DefaultTuning(), rand.New(rand.NewSource(7)))
	for i := 0; i < 100; i++ {
		if _, ok := ss.Tick(1, 0, float64(i), true); ok {
			t.Fatal("Expected no spawns after game over")
		}
	}
}

func TestSpawnPositionsInsideBounds(t *testing.T) {
	tun := DefaultTuning()
	ss := NewSpawnSystem(tun, rand.New(rand.NewSource(42)))

	for i := 0; i < 500; i++ {
		p, ok := ss.Tick(tun.BaseSpawnInterval, 0, float64(i), false)
		if !ok {
			t.Fatalf("Expected a spawn on tick %d", i)
		}
		if !p.Kind.Valid() {
			t.Fatalf("Unexpected kind %q", p.Kind)
		}
		maxX := tun.AreaWidth/2 - p.HalfWidth - tun.SpawnPadding
		maxY := tun.AreaHeight/2 - p.HalfHeight - tun.SpawnPadding
		if math.Abs(p.Position.X) > maxX || math.Abs(p.Position.Y) > maxY {
			t.Fatalf("Popup %+v outside bounds (%v, %v)", p.Position, maxX, maxY)
		}
	}
}

func TestSpawnLifetimeSetsDeadline(t *testing.T) {
	tun := DefaultTuning()
	tun.PopupKinds = []PopupKindTuning{{Kind: popup.KindBomb, HalfWidth: 10, HalfHeight: 10, Lifetime: 6}}
	ss := NewSpawnSystem(tun, rand.New(rand.NewSource(1)))

	p, ok := ss.Tick(2, 0, 3, false)
	if !ok {
		t.Fatal("Expected a spawn")
	}
	if !p.AutoDespawn || p.DespawnAt != 9 {
		t.Errorf("Expected auto-despawn at 9, got %v/%v", p.AutoDespawn, p.DespawnAt)
	}
}

func TestSpawnOversizedPopupPinnedToCentre(t *testing.T) {
	tun := DefaultTuning()
	tun.PopupKinds = []PopupKindTuning{{Kind: popup.KindNormal, HalfWidth: 5000, HalfHeight: 5000}}
	ss := NewSpawnSystem(tun, rand.New(rand.NewSource(3)))

	p, _ := ss.Tick(2, 0, 0, false)
	if p.Position.X != 0 || p.Position.Y != 0 {
		t.Errorf("Expected oversized popup at the centre, got %+v", p.Position)
	}
}

func TestSnapInside(t *testing.T) {
	ss := NewSpawnSystem(DefaultTuning(), rand.New(rand.NewSource(1)))
	p := popup.Popup{HalfWidth: 100, HalfHeight: 50, Position: popup.Position{X: 2000, Y: -2000}}

	got := ss.SnapInside(p)
	if got.Position.X != 530 || got.Position.Y != -300 {
		t.Errorf("Expected (530, -300), got %+v", got.Position)
	}
}

func TestSpawnKindUsesMatchingSize(t *testing.T) {
	ss := NewSpawnSystem(DefaultTuning(), rand.New(rand.NewSource(1)))
	p := ss.SpawnKind(popup.KindCascade, 4)
	if p.Kind != popup.KindCascade || p.HalfWidth != 140 {
		t.Errorf("Expected cascade popup with half width 140, got %+v", p)
	}
	if p.AutoDespawn {
		t.Error("Expected cascade popup to be persistent")
	}
}
