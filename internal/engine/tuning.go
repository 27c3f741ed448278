package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/samwiegames/overheat/internal/domain/popup"
)

// ErrInvalidTuning wraps every configuration error reported by Validate.
var ErrInvalidTuning = errors.New("invalid tuning")

// PopupKindTuning describes one spawnable popup variant. Listing a kind
// several times makes it proportionally more likely.
type PopupKindTuning struct {
	Kind       popup.Kind `yaml:"kind" json:"kind"`
	HalfWidth  float64    `yaml:"half_width" json:"half_width"`
	HalfHeight float64    `yaml:"half_height" json:"half_height"`
	Lifetime   float64    `yaml:"lifetime" json:"lifetime"` // Seconds before auto-despawn; 0 disables it
}

// Tuning holds every gameplay constant of a session. Units are seconds and
// area units (the popup area is centred on the origin).
type Tuning struct {
	// Thermal model
	StartHeat         float64 `yaml:"start_heat"`
	MaxHeat           float64 `yaml:"max_heat"`
	BaseHeatPerSecond float64 `yaml:"base_heat_per_second"`
	HeatPerPopup      float64 `yaml:"heat_per_popup"` // Per active popup, per second
	HeatOnClose       float64 `yaml:"heat_on_close"`  // Must be <= 0

	// Closure policy for special popups
	BombCloseDelta    float64 `yaml:"bomb_close_delta"`
	CascadeSpawnCount int     `yaml:"cascade_spawn_count"`

	// Spawning
	AreaWidth               float64           `yaml:"area_width"`
	AreaHeight              float64           `yaml:"area_height"`
	SpawnPadding            float64           `yaml:"spawn_padding"`
	BaseSpawnInterval       float64           `yaml:"base_spawn_interval"`
	MinSpawnInterval        float64           `yaml:"min_spawn_interval"`
	DifficultyRampPerSecond float64           `yaml:"difficulty_ramp_per_second"`
	PopupKinds              []PopupKindTuning `yaml:"popup_kinds"`

	// Power-up mini-game
	ChanceCool         float64 `yaml:"chance_cool"`
	ChanceClear        float64 `yaml:"chance_clear"` // Freeze takes the remainder
	MinPowerupDelay    float64 `yaml:"min_powerup_delay"`
	MaxPowerupDelay    float64 `yaml:"max_powerup_delay"`
	MinPowerupSpeed    float64 `yaml:"min_powerup_speed"`
	MaxPowerupSpeed    float64 `yaml:"max_powerup_speed"`
	LaneWidth          float64 `yaml:"lane_width"`
	LaneEdgeMargin     float64 `yaml:"lane_edge_margin"` // Tokens start and end this far outside the lane
	CatchZoneHalfWidth float64 `yaml:"catch_zone_half_width"`
	EdgeFadeFraction   float64 `yaml:"edge_fade_fraction"`
	RotateSpeed        float64 `yaml:"rotate_speed"` // Degrees per second, presentation only

	// Power-up effects
	FreezeDuration float64 `yaml:"freeze_duration"`
	CoolAmount     float64 `yaml:"cool_amount"`

	// Clock
	MaxTickDelta float64 `yaml:"max_tick_delta"`

	GameOverReason string `yaml:"game_over_reason"`
}

// DefaultTuning returns the shipped balance.
func DefaultTuning() Tuning {
	return Tuning{
		StartHeat:         30,
		MaxHeat:           100,
		BaseHeatPerSecond: 1.5,
		HeatPerPopup:      0.15,
		HeatOnClose:       -1,

		BombCloseDelta:    4,
		CascadeSpawnCount: 2,

		AreaWidth:               1280,
		AreaHeight:              720,
		SpawnPadding:            10,
		BaseSpawnInterval:       1.2,
		MinSpawnInterval:        0.6,
		DifficultyRampPerSecond: 0.004,
		PopupKinds: []PopupKindTuning{
			{Kind: popup.KindNormal, HalfWidth: 160, HalfHeight: 110},
			{Kind: popup.KindNormal, HalfWidth: 120, HalfHeight: 90},
			{Kind: popup.KindNormal, HalfWidth: 180, HalfHeight: 60, Lifetime: 8},
			{Kind: popup.KindBomb, HalfWidth: 110, HalfHeight: 80, Lifetime: 6},
			{Kind: popup.KindCascade, HalfWidth: 140, HalfHeight: 100},
		},

		ChanceCool:         0.35,
		ChanceClear:        0.15,
		MinPowerupDelay:    4,
		MaxPowerupDelay:    11,
		MinPowerupSpeed:    260,
		MaxPowerupSpeed:    620,
		LaneWidth:          900,
		LaneEdgeMargin:     60,
		CatchZoneHalfWidth: 60,
		EdgeFadeFraction:   0.25,
		RotateSpeed:        220,

		FreezeDuration: 6,
		CoolAmount:     15,

		MaxTickDelta: 0.25,

		GameOverReason: "your pc overheated!",
	}
}

// Validate checks the tuning for configuration errors. Every problem is
// reported, joined, and wrapped with ErrInvalidTuning.
func (t Tuning) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for name, v := range t.floatFields() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad("%s must be finite, got %v", name, v)
		}
	}

	if t.MaxHeat <= 0 {
		bad("max_heat must be positive, got %v", t.MaxHeat)
	}
	// A session starting saturated could never overheat.
	if t.StartHeat < 0 || t.StartHeat >= t.MaxHeat {
		bad("start_heat must be within [0, max_heat), got %v", t.StartHeat)
	}
	if t.BaseHeatPerSecond < 0 || t.HeatPerPopup < 0 {
		bad("heat rates must be non-negative")
	}
	if t.HeatOnClose > 0 {
		bad("heat_on_close must be <= 0, got %v", t.HeatOnClose)
	}
	if t.CascadeSpawnCount < 0 {
		bad("cascade_spawn_count must be non-negative, got %d", t.CascadeSpawnCount)
	}

	if t.AreaWidth <= 0 || t.AreaHeight <= 0 {
		bad("area dimensions must be positive, got %vx%v", t.AreaWidth, t.AreaHeight)
	}
	if t.SpawnPadding < 0 {
		bad("spawn_padding must be non-negative")
	}
	if t.MinSpawnInterval <= 0 {
		bad("min_spawn_interval must be positive, got %v", t.MinSpawnInterval)
	}
	if t.MinSpawnInterval > t.BaseSpawnInterval {
		bad("min_spawn_interval %v exceeds base_spawn_interval %v", t.MinSpawnInterval, t.BaseSpawnInterval)
	}
	if t.DifficultyRampPerSecond < 0 {
		bad("difficulty_ramp_per_second must be non-negative")
	}
	if len(t.PopupKinds) == 0 {
		bad("popup_kinds must not be empty")
	}
	for i, k := range t.PopupKinds {
		if !k.Kind.Valid() {
			bad("popup_kinds[%d]: unknown kind %q", i, k.Kind)
		}
		if k.HalfWidth < 0 || k.HalfHeight < 0 || k.Lifetime < 0 {
			bad("popup_kinds[%d]: sizes and lifetime must be non-negative", i)
		}
	}

	if t.ChanceCool < 0 || t.ChanceClear < 0 || t.ChanceCool+t.ChanceClear > 1 {
		bad("chance_cool + chance_clear must be within [0, 1]")
	}
	if t.MinPowerupDelay < 0 || t.MinPowerupDelay > t.MaxPowerupDelay {
		bad("power-up delay range [%v, %v] is invalid", t.MinPowerupDelay, t.MaxPowerupDelay)
	}
	if t.MinPowerupSpeed <= 0 || t.MinPowerupSpeed > t.MaxPowerupSpeed {
		bad("power-up speed range [%v, %v] is invalid", t.MinPowerupSpeed, t.MaxPowerupSpeed)
	}
	if t.LaneWidth <= 0 {
		bad("lane_width must be positive")
	}
	if t.LaneEdgeMargin < 0 || t.CatchZoneHalfWidth < 0 {
		bad("lane_edge_margin and catch_zone_half_width must be non-negative")
	}
	if t.EdgeFadeFraction < 0 || t.EdgeFadeFraction >= 0.5 {
		bad("edge_fade_fraction must be within [0, 0.5), got %v", t.EdgeFadeFraction)
	}

	if t.FreezeDuration < 0 || t.CoolAmount < 0 {
		bad("freeze_duration and cool_amount must be non-negative")
	}
	if t.MaxTickDelta <= 0 {
		bad("max_tick_delta must be positive")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTuning, errors.Join(errs...))
}

func (t Tuning) floatFields() map[string]float64 {
	fields := map[string]float64{
		"start_heat":                 t.StartHeat,
		"max_heat":                   t.MaxHeat,
		"base_heat_per_second":       t.BaseHeatPerSecond,
		"heat_per_popup":             t.HeatPerPopup,
		"heat_on_close":              t.HeatOnClose,
		"bomb_close_delta":           t.BombCloseDelta,
		"area_width":                 t.AreaWidth,
		"area_height":                t.AreaHeight,
		"spawn_padding":              t.SpawnPadding,
		"base_spawn_interval":        t.BaseSpawnInterval,
		"min_spawn_interval":         t.MinSpawnInterval,
		"difficulty_ramp_per_second": t.DifficultyRampPerSecond,
		"chance_cool":                t.ChanceCool,
		"chance_clear":               t.ChanceClear,
		"min_powerup_delay":          t.MinPowerupDelay,
		"max_powerup_delay":          t.MaxPowerupDelay,
		"min_powerup_speed":          t.MinPowerupSpeed,
		"max_powerup_speed":          t.MaxPowerupSpeed,
		"lane_width":                 t.LaneWidth,
		"lane_edge_margin":           t.LaneEdgeMargin,
		"catch_zone_half_width":      t.CatchZoneHalfWidth,
		"edge_fade_fraction":         t.EdgeFadeFraction,
		"rotate_speed":               t.RotateSpeed,
		"freeze_duration":            t.FreezeDuration,
		"cool_amount":                t.CoolAmount,
		"max_tick_delta":             t.MaxTickDelta,
	}
	for i, k := range t.PopupKinds {
		fields[fmt.Sprintf("popup_kinds[%d].half_width", i)] = k.HalfWidth
		fields[fmt.Sprintf("popup_kinds[%d].half_height", i)] = k.HalfHeight
		fields[fmt.Sprintf("popup_kinds[%d].lifetime", i)] = k.Lifetime
	}
	return fields
}
