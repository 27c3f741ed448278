package engine

import (
	"fmt"
	"math"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
)

// TokenView is the presentation state of the in-flight power-up token.
type TokenView struct {
	Kind     powerup.Kind `json:"kind" msgpack:"kind"`
	Offset   float64      `json:"offset" msgpack:"offset"`
	Opacity  float64      `json:"opacity" msgpack:"opacity"`
	Rotation float64      `json:"rotation" msgpack:"rotation"`
	InZone   bool         `json:"in_zone" msgpack:"in_zone"`
}

// Snapshot is a read-only view of a session, safe to hand to other
// goroutines.
type Snapshot struct {
	SessionID string `json:"session_id" msgpack:"session_id"`

	Heat           float64 `json:"heat" msgpack:"heat"`
	MaxHeat        float64 `json:"max_heat" msgpack:"max_heat"`
	HeatNormalized float64 `json:"heat_normalized" msgpack:"heat_normalized"`
	HeatFahrenheit float64 `json:"heat_fahrenheit" msgpack:"heat_fahrenheit"`
	BaseRate       float64 `json:"base_rate" msgpack:"base_rate"`
	Frozen         bool    `json:"frozen" msgpack:"frozen"`
	FreezeLeft     float64 `json:"freeze_left,omitempty" msgpack:"freeze_left,omitempty"`

	Popups        []popup.Popup `json:"popups" msgpack:"popups"`
	SpawnInterval float64       `json:"spawn_interval" msgpack:"spawn_interval"`

	Token     *TokenView        `json:"token,omitempty" msgpack:"token,omitempty"`
	Inventory powerup.Inventory `json:"inventory" msgpack:"inventory"`

	Elapsed     float64 `json:"elapsed" msgpack:"elapsed"`
	ElapsedText string  `json:"elapsed_text" msgpack:"elapsed_text"`
	BestTime    float64 `json:"best_time" msgpack:"best_time"`
	BestText    string  `json:"best_text" msgpack:"best_text"`

	GameOver bool             `json:"game_over" msgpack:"game_over"`
	Summary  *GameOverSummary `json:"summary,omitempty" msgpack:"summary,omitempty"`
}

// Snapshot captures the current session state.
func (s *Session) Snapshot() Snapshot {
	now := s.elapsedTime
	frozen, until := s.thermal.Suppressed(now)

	snap := Snapshot{
		SessionID:      s.id,
		Heat:           s.thermal.Value(),
		MaxHeat:        s.thermal.Max(),
		HeatNormalized: s.thermal.Normalized(),
		HeatFahrenheit: s.thermal.Fahrenheit(),
		BaseRate:       s.thermal.BaseRate(now),
		Frozen:         frozen,
		Popups:         s.popups.Active(),
		SpawnInterval:  s.SpawnInterval(),
		Inventory:      s.inventory,
		Elapsed:        s.elapsedTime,
		ElapsedText:    FormatTime(s.elapsedTime),
		BestTime:       s.bestTime,
		BestText:       FormatTime(s.bestTime),
		GameOver:       s.isGameOver,
	}
	if frozen {
		snap.FreezeLeft = until - now
	}
	if tok, ok := s.powerups.Token(); ok {
		snap.Token = &TokenView{
			Kind:     tok.Kind,
			Offset:   tok.Offset,
			Opacity:  s.powerups.Opacity(tok.Offset),
			Rotation: tok.Rotation,
			InZone:   math.Abs(tok.Offset) <= s.tuning.CatchZoneHalfWidth,
		}
	}
	if s.summary != nil {
		sum := *s.summary
		snap.Summary = &sum
	}
	return snap
}

// FormatTime renders seconds as zero-padded mm:ss, truncating fractions.
// Minutes are not capped at 59.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
