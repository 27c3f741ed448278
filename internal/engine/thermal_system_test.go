package engine

import (
	"math"
	"math/rand"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestThermalAccumulation(t *testing.T) {
	ts := NewThermalSystem(DefaultTuning())

	step := ts.Tick(1.0, 3, 1.0)

	// 1.5 base + 3 * 0.15 per popup
	if !approx(step.Delta, 1.95) {
		t.Errorf("Expected delta 1.95, got %v", step.Delta)
	}
	if !approx(ts.Value(), 31.95) {
		t.Errorf("Expected heat 31.95, got %v", ts.Value())
	}
	if step.Overheated {
		t.Error("Did not expect overheat")
	}
}

func TestThermalClampsAndSignalsOnce(t *testing.T) {
	tun := DefaultTuning()
	tun.StartHeat = 99.5
	ts := NewThermalSystem(tun)

	step := ts.Tick(1.0, 0, 1.0)
	if !step.Overheated {
		t.Fatal("Expected overheat when crossing max")
	}
	if ts.Value() != 100 {
		t.Errorf("Expected heat clamped to 100, got %v", ts.Value())
	}
	if !approx(step.Delta, 0.5) {
		t.Errorf("Expected applied delta 0.5, got %v", step.Delta)
	}

	for i := 0; i < 5; i++ {
		if ts.Tick(1.0, 2, float64(2+i)).Overheated {
			t.Fatalf("Overheated signalled again on tick %d while pinned at max", i)
		}
	}

	// Leaving max and coming back re-arms the edge.
	ts.OnPopupClosed()
	if !ts.Tick(1.0, 0, 10).Overheated {
		t.Error("Expected a new overheat after dropping below max")
	}
}

func TestThermalNeverNegative(t *testing.T) {
	tun := DefaultTuning()
	tun.StartHeat = 0.5
	ts := NewThermalSystem(tun)

	step := ts.OnPopupClosed()
	if ts.Value() != 0 {
		t.Errorf("Expected heat clamped at 0, got %v", ts.Value())
	}
	if !approx(step.Delta, -0.5) {
		t.Errorf("Expected clamped delta -0.5, got %v", step.Delta)
	}
	ts.ApplyDelta(-15)
	if ts.Value() != 0 {
		t.Errorf("Expected heat to stay at 0, got %v", ts.Value())
	}
}

func TestThermalFreezeWindow(t *testing.T) {
	ts := NewThermalSystem(DefaultTuning())
	ts.SuppressBaseRate(6, 0)

	ended := 0
	now := 0.0
	for i := 0; i < 24; i++ {
		now += 0.25
		step := ts.Tick(0.25, 0, now)
		if step.FreezeEnded {
			ended++
		}
		if i < 23 && ts.BaseRate(now) != 0 {
			t.Fatalf("Expected base rate suppressed at t=%v", now)
		}
	}
	if !approx(ts.Value(), 30) {
		t.Errorf("Expected no base heating during freeze, got %v", ts.Value())
	}
	if ended != 1 {
		t.Errorf("Expected FreezeEnded exactly once, got %d", ended)
	}
	if ts.BaseRate(now) != 1.5 {
		t.Errorf("Expected base rate restored to 1.5, got %v", ts.BaseRate(now))
	}

	// No drift after restore.
	ts.Tick(1.0, 0, now+1)
	if !approx(ts.Value(), 31.5) {
		t.Errorf("Expected 31.5 after a normal second, got %v", ts.Value())
	}
}

func TestThermalFreezePartialTick(t *testing.T) {
	ts := NewThermalSystem(DefaultTuning())
	ts.SuppressBaseRate(0.5, 0)

	step := ts.Tick(1.0, 0, 1.0)
	if !step.FreezeEnded {
		t.Error("Expected freeze to end inside the tick")
	}
	// Only the unfrozen half second heats.
	if !approx(step.Delta, 0.75) {
		t.Errorf("Expected delta 0.75, got %v", step.Delta)
	}
}

func TestThermalFreezeRestart(t *testing.T) {
	ts := NewThermalSystem(DefaultTuning())
	ts.SuppressBaseRate(6, 0)
	ts.Tick(4, 0, 4)
	ts.SuppressBaseRate(6, 4)

	if frozen, until := ts.Suppressed(9); !frozen || until != 10 {
		t.Errorf("Expected freeze until 10, got frozen=%v until=%v", frozen, until)
	}
	ts.Tick(5, 0, 9)
	if !approx(ts.Value(), 30) {
		t.Errorf("Expected no heating through restarted window, got %v", ts.Value())
	}
	step := ts.Tick(1, 0, 10)
	if !step.FreezeEnded {
		t.Error("Expected freeze to end at 10")
	}
}

func TestThermalPopupTermIgnoresFreeze(t *testing.T) {
	ts := NewThermalSystem(DefaultTuning())
	ts.SuppressBaseRate(6, 0)
	ts.Tick(1, 4, 1)
	if !approx(ts.Value(), 30.6) {
		t.Errorf("Expected only popup heat (0.6), got %v", ts.Value()-30)
	}
}

func TestThermalReadouts(t *testing.T) {
	ts := NewThermalSystem(DefaultTuning())
	if !approx(ts.Normalized(), 0.3) {
		t.Errorf("Expected normalized 0.3, got %v", ts.Normalized())
	}
	if !approx(ts.Fahrenheit(), 86) {
		t.Errorf("Expected 86F, got %v", ts.Fahrenheit())
	}
}

func TestThermalRateIncreasesWithPopups(t *testing.T) {
	tests := []struct {
		name       string
		dt         float64
		fewer      int
		more       int
		freezeTill float64 // 0 means no freeze
	}{
		{"none vs one", 0.1, 0, 1, 0},
		{"one vs two", 0.25, 1, 2, 0},
		{"small frame", 1.0 / 60, 4, 5, 0},
		{"many popups", 0.5, 10, 30, 0},
		{"inside freeze", 0.2, 0, 1, 5},
		{"freeze ends mid tick", 0.2, 2, 3, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewThermalSystem(DefaultTuning())
			b := NewThermalSystem(DefaultTuning())
			if tt.freezeTill > 0 {
				a.SuppressBaseRate(tt.freezeTill, 0)
				b.SuppressBaseRate(tt.freezeTill, 0)
			}
			da := a.Tick(tt.dt, tt.fewer, tt.dt).Delta
			db := b.Tick(tt.dt, tt.more, tt.dt).Delta
			if db <= da {
				t.Errorf("Expected %d popups to heat more than %d, got %v <= %v", tt.more, tt.fewer, db, da)
			}
		})
	}
}

func TestThermalStaysInBoundsUnderRandomOps(t *testing.T) {
	tests := []struct {
		name  string
		seed  int64
		start float64
		max   float64
	}{
		{"defaults", 1, 30, 100},
		{"near zero", 2, 0, 100},
		{"near max", 3, 99, 100},
		{"small range", 4, 1, 5},
		{"large range", 5, 500, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tun := DefaultTuning()
			tun.StartHeat, tun.MaxHeat = tt.start, tt.max
			ts := NewThermalSystem(tun)
			rng := rand.New(rand.NewSource(tt.seed))

			now := 0.0
			for i := 0; i < 2000; i++ {
				before := ts.Value()
				var step ThermalStep
				switch rng.Intn(4) {
				case 0:
					dt := rng.Float64() * 0.25
					now += dt
					step = ts.Tick(dt, rng.Intn(40), now)
				case 1:
					step = ts.OnPopupClosed()
				case 2:
					step = ts.ApplyDelta(rng.Float64()*60 - 40)
				case 3:
					ts.SuppressBaseRate(rng.Float64()*6, now)
				}

				v := ts.Value()
				if v < 0 || v > ts.Max() {
					t.Fatalf("Op %d: heat %v left [0, %v]", i, v, ts.Max())
				}
				if !approx(v-before, step.Delta) {
					t.Fatalf("Op %d: reported delta %v, heat moved %v", i, step.Delta, v-before)
				}
				if step.Overheated && v != ts.Max() {
					t.Fatalf("Op %d: overheat signalled at %v", i, v)
				}
			}
		})
	}
}
