package engine

import (
	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
)

// DifficultyResetter is implemented by whoever owns the difficulty clock.
type DifficultyResetter interface {
	ResetDifficulty()
}

// EffectResult describes an applied power-up.
type EffectResult struct {
	Kind        powerup.Kind
	Applied     bool
	HeatDelta   float64
	FreezeUntil float64
	Cleared     []popup.Outcome
}

// EffectsSystem spends stored power-ups. Every consumption takes one from
// the inventory first and only then applies the effect; an empty slot makes
// the call a no-op reported as not applied.
type EffectsSystem struct {
	thermal    *ThermalSystem
	popups     *PopupSystem
	inventory  *powerup.Inventory
	difficulty DifficultyResetter

	freezeDuration float64
	coolAmount     float64
}

// NewEffectsSystem wires the applier to the components it mutates.
func NewEffectsSystem(t Tuning, thermal *ThermalSystem, popups *PopupSystem, inv *powerup.Inventory, difficulty DifficultyResetter) *EffectsSystem {
	return &EffectsSystem{
		thermal:        thermal,
		popups:         popups,
		inventory:      inv,
		difficulty:     difficulty,
		freezeDuration: t.FreezeDuration,
		coolAmount:     t.CoolAmount,
	}
}

// Consume dispatches on kind.
func (es *EffectsSystem) Consume(k powerup.Kind, now float64) EffectResult {
	switch k {
	case powerup.KindFreeze:
		return es.ConsumeFreeze(now)
	case powerup.KindCool:
		return es.ConsumeCool()
	case powerup.KindClear:
		return es.ConsumeClear()
	}
	return EffectResult{Kind: k}
}

// ConsumeFreeze suppresses passive heating for the freeze duration,
// restarting the window if one is already running.
func (es *EffectsSystem) ConsumeFreeze(now float64) EffectResult {
	res := EffectResult{Kind: powerup.KindFreeze}
	if !es.inventory.Take(powerup.KindFreeze) {
		return res
	}
	es.thermal.SuppressBaseRate(es.freezeDuration, now)
	res.Applied = true
	res.FreezeUntil = now + es.freezeDuration
	return res
}

// ConsumeCool removes a fixed amount of heat.
func (es *EffectsSystem) ConsumeCool() EffectResult {
	res := EffectResult{Kind: powerup.KindCool}
	if !es.inventory.Take(powerup.KindCool) {
		return res
	}
	res.Applied = true
	res.HeatDelta = es.thermal.ApplyDelta(-es.coolAmount).Delta
	return res
}

// ConsumeClear destroys every active popup without thermal effects and
// restarts the difficulty ramp.
func (es *EffectsSystem) ConsumeClear() EffectResult {
	res := EffectResult{Kind: powerup.KindClear}
	if !es.inventory.Take(powerup.KindClear) {
		return res
	}
	res.Applied = true
	res.Cleared = es.popups.ClearAll()
	es.difficulty.ResetDifficulty()
	return res
}
