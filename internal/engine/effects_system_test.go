package engine

import (
	"testing"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
)

type difficultyProbe struct{ resets int }

func (d *difficultyProbe) ResetDifficulty() { d.resets++ }

func newEffectsFixture() (*EffectsSystem, *ThermalSystem, *PopupSystem, *powerup.Inventory, *difficultyProbe) {
	tun := DefaultTuning()
	th := NewThermalSystem(tun)
	ps := NewPopupSystem()
	inv := &powerup.Inventory{}
	d := &difficultyProbe{}
	return NewEffectsSystem(tun, th, ps, inv, d), th, ps, inv, d
}

func TestConsumeWithEmptyInventoryIsNoOp(t *testing.T) {
	es, th, ps, _, d := newEffectsFixture()
	ps.Add(popup.Popup{Kind: popup.KindNormal})

	for _, k := range powerup.Kinds {
		if res := es.Consume(k, 0); res.Applied {
			t.Errorf("%s: expected not applied with an empty inventory", k)
		}
	}
	if th.Value() != 30 {
		t.Errorf("Expected heat unchanged, got %v", th.Value())
	}
	if frozen, _ := th.Suppressed(0); frozen {
		t.Error("Expected no freeze")
	}
	if ps.Count() != 1 || d.resets != 0 {
		t.Error("Expected popups and difficulty untouched")
	}
}

func TestConsumeFreeze(t *testing.T) {
	es, th, _, inv, _ := newEffectsFixture()
	inv.Add(powerup.KindFreeze)

	res := es.ConsumeFreeze(10)
	if !res.Applied || res.FreezeUntil != 16 {
		t.Fatalf("Expected freeze until 16, got %+v", res)
	}
	if inv.Count(powerup.KindFreeze) != 0 {
		t.Errorf("Expected freeze taken from inventory, got %+v", inv)
	}
	if th.BaseRate(12) != 0 {
		t.Error("Expected base rate suppressed")
	}
}

func TestConsumeCoolClampsAtZero(t *testing.T) {
	es, th, _, inv, _ := newEffectsFixture()
	inv.Add(powerup.KindCool)
	inv.Add(powerup.KindCool)
	inv.Add(powerup.KindCool)

	es.ConsumeCool()
	if th.Value() != 15 {
		t.Errorf("Expected 15 after one cool, got %v", th.Value())
	}
	es.ConsumeCool()
	res := es.ConsumeCool()
	if th.Value() != 0 {
		t.Errorf("Expected heat clamped at 0, got %v", th.Value())
	}
	if !res.Applied || res.HeatDelta != 0 {
		t.Errorf("Expected applied with zero effective delta, got %+v", res)
	}
	if inv.Count(powerup.KindCool) != 0 {
		t.Errorf("Expected all cools spent, got %+v", inv)
	}
}

func TestConsumeClear(t *testing.T) {
	es, th, ps, inv, d := newEffectsFixture()
	inv.Add(powerup.KindClear)
	for i := 0; i < 4; i++ {
		ps.Add(popup.Popup{Kind: popup.KindNormal})
	}

	res := es.ConsumeClear()
	if !res.Applied || len(res.Cleared) != 4 {
		t.Fatalf("Expected 4 cleared popups, got %+v", res)
	}
	if ps.Count() != 0 {
		t.Errorf("Expected no popups left, got %d", ps.Count())
	}
	if th.Value() != 30 {
		t.Errorf("Expected clear to have no thermal effect, got %v", th.Value())
	}
	if d.resets != 1 {
		t.Errorf("Expected difficulty reset once, got %d", d.resets)
	}
}
