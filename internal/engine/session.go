package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
	"github.com/samwiegames/overheat/internal/events"
	"github.com/samwiegames/overheat/internal/platform/logger"
	"github.com/samwiegames/overheat/internal/platform/metrics"
)

// Actor IDs stamped on emitted events.
const (
	ActorPlayer = "player"
	ActorSystem = "system"
)

// BestTimeStore is the persistence collaborator for the best survival time.
// It is read once when the session is created and written in the background
// whenever a run beats the record.
type BestTimeStore interface {
	ReadBestTime(ctx context.Context) (float64, error)
	WriteBestTime(ctx context.Context, seconds float64) error
}

// SessionHistory optionally records every finished run.
type SessionHistory interface {
	RecordStart(ctx context.Context, sessionID string, startedAt time.Time) error
	RecordFinish(ctx context.Context, sessionID string, endedAt time.Time, survived float64, reason string) error
}

// Deps are the collaborators of a session. Only Store is commonly set; every
// field has a working zero value.
type Deps struct {
	Store        BestTimeStore
	History      SessionHistory
	Events       *events.EventLog
	Logger       *logger.Logger
	Rand         *rand.Rand
	Context      context.Context
	StoreTimeout time.Duration
	RecordBuffer int // Store and history writes queued off the tick
}

// GameOverSummary is handed to presentation when the session ends.
type GameOverSummary struct {
	SessionID    string  `json:"session_id"`
	Reason       string  `json:"reason"`
	Survived     float64 `json:"survived"`
	SurvivedText string  `json:"survived_text"`
	BestTime     float64 `json:"best_time"`
	NewBest      bool    `json:"new_best"`
}

// PopupPayload is attached to popup lifecycle events.
type PopupPayload struct {
	PopupID   popup.ID          `json:"popup_id"`
	Kind      popup.Kind        `json:"kind"`
	Outcome   popup.OutcomeKind `json:"outcome,omitempty"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	HeatDelta float64           `json:"heat_delta,omitempty"`
}

// PowerupPayload is attached to mini-game and consumption events.
type PowerupPayload struct {
	Kind      powerup.Kind `json:"kind"`
	Offset    float64      `json:"offset,omitempty"`
	Speed     float64      `json:"speed,omitempty"`
	Applied   bool         `json:"applied,omitempty"`
	HeatDelta float64      `json:"heat_delta,omitempty"`
	Cleared   int          `json:"cleared,omitempty"`
}

// Session is one run of the game: Running until the heat saturates, then
// GameOver for good. It owns the thermal model, the popup set and the
// inventory; the power-up mini-game owns its token. All methods must be
// called from one goroutine.
type Session struct {
	tuning Tuning
	deps   Deps
	log    *logger.Logger

	id             string
	elapsedTime    float64
	difficultyTime float64
	isGameOver     bool
	bestTime       float64
	summary        *GameOverSummary

	thermal   *ThermalSystem
	popups    *PopupSystem
	spawner   *SpawnSystem
	powerups  *PowerupSystem
	effects   *EffectsSystem
	inventory powerup.Inventory

	cascadeQueue []popup.Kind

	rec *recorder // nil without Store and History
}

// NewSession validates the tuning, reads the best time and starts a run.
// Call Close when done with a session that has a Store or History.
func NewSession(t Tuning, deps Deps) (*Session, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.PopupKinds = append([]PopupKindTuning(nil), t.PopupKinds...)

	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.StoreTimeout <= 0 {
		deps.StoreTimeout = 2 * time.Second
	}

	s := &Session{tuning: t, deps: deps, log: deps.Logger}
	s.bestTime = s.readBestTime()
	if deps.Store != nil || deps.History != nil {
		s.rec = newRecorder(deps.Context, deps.StoreTimeout, deps.RecordBuffer, deps.Logger)
	}
	s.start()
	return s, nil
}

func (s *Session) start() {
	s.id = uuid.NewString()
	s.elapsedTime = 0
	s.difficultyTime = 0
	s.isGameOver = false
	s.summary = nil
	s.cascadeQueue = nil
	s.inventory = powerup.Inventory{}

	s.thermal = NewThermalSystem(s.tuning)
	if s.popups == nil {
		s.popups = NewPopupSystem()
	} else {
		s.popups.Reset()
	}
	s.spawner = NewSpawnSystem(s.tuning, s.deps.Rand)
	s.powerups = NewPowerupSystem(s.tuning, s.deps.Rand)
	s.effects = NewEffectsSystem(s.tuning, s.thermal, s.popups, &s.inventory, s)

	if history := s.deps.History; history != nil {
		id, startedAt := s.id, time.Now()
		s.rec.submit("record session start", func(ctx context.Context) error {
			return history.RecordStart(ctx, id, startedAt)
		})
	}

	metrics.SessionsStarted.Inc()
	s.emit(events.EventTypeSessionStarted, ActorSystem, map[string]interface{}{
		"best_time": s.bestTime,
		"heat":      s.thermal.Value(),
	})
	s.log.Infof("session %s started (best %s)", s.id, FormatTime(s.bestTime))
}

// Reset reinitializes every component to its creation defaults under a new
// session ID. It is the only way out of GameOver. The best time carries
// over without touching the store; popup IDs keep counting.
func (s *Session) Reset() {
	old := s.id
	s.start()
	s.emit(events.EventTypeSessionReset, ActorPlayer, map[string]string{"previous_session": old})
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Elapsed returns the survived time in seconds.
func (s *Session) Elapsed() float64 { return s.elapsedTime }

// DifficultyTime returns the seconds fed into the difficulty curve.
func (s *Session) DifficultyTime() float64 { return s.difficultyTime }

// IsGameOver reports whether the session has ended.
func (s *Session) IsGameOver() bool { return s.isGameOver }

// BestTime returns the best survival time known to this session.
func (s *Session) BestTime() float64 { return s.bestTime }

// Summary returns the game-over summary, or nil while running.
func (s *Session) Summary() *GameOverSummary { return s.summary }

// Heat returns the current heat value.
func (s *Session) Heat() float64 { return s.thermal.Value() }

// Inventory returns a copy of the stored power-ups.
func (s *Session) Inventory() powerup.Inventory { return s.inventory }

// ActivePopups returns the open popups in spawn order.
func (s *Session) ActivePopups() []popup.Popup { return s.popups.Active() }

// SpawnInterval returns the spawn interval for the current difficulty.
func (s *Session) SpawnInterval() float64 {
	return s.spawner.Curve().Interval(s.difficultyTime)
}

// ResetDifficulty restarts the difficulty ramp.
func (s *Session) ResetDifficulty() {
	s.difficultyTime = 0
}

// ClosePopup queues a user close for the popup. Unknown IDs are a no-op.
func (s *Session) ClosePopup(id popup.ID) bool {
	if s.isGameOver {
		return false
	}
	return s.popups.RequestClose(id)
}

// CatchAttempt queues a catch action made at sim time ts.
func (s *Session) CatchAttempt(ts float64) bool {
	if s.isGameOver {
		return false
	}
	return s.powerups.QueueCatch(ts)
}

// Catch queues a catch action stamped with the current sim time.
func (s *Session) Catch() bool {
	return s.CatchAttempt(s.elapsedTime)
}

// ConsumePowerup spends one stored power-up. Applied is false when none of
// that kind is stored or the session is over.
func (s *Session) ConsumePowerup(k powerup.Kind) EffectResult {
	if s.isGameOver {
		return EffectResult{Kind: k}
	}
	res := s.effects.Consume(k, s.elapsedTime)
	payload := PowerupPayload{Kind: k, Applied: res.Applied, HeatDelta: res.HeatDelta, Cleared: len(res.Cleared)}
	if !res.Applied {
		s.log.Event(string(events.EventTypePowerupConsumed), ActorPlayer, fmt.Sprintf("no %s stored", k))
		return res
	}
	metrics.PowerupsConsumed.WithLabelValues(string(k)).Inc()
	s.emit(events.EventTypePowerupConsumed, ActorPlayer, payload)
	if len(res.Cleared) > 0 {
		s.emit(events.EventTypePopupsCleared, ActorPlayer, payload)
	}
	return res
}

// Tick advances the simulation by dt seconds. Within a tick: pending closes,
// then expiry, then heat, then the power-up lane, then spawning. A popup
// spawned this tick does not heat until the next one. It returns the summary
// on the tick that ends the session and nil otherwise.
func (s *Session) Tick(dt float64) *GameOverSummary {
	if s.isGameOver {
		return nil
	}
	dt = sanitizeDelta(dt, s.tuning.MaxTickDelta)
	s.elapsedTime += dt
	s.difficultyTime += dt
	now := s.elapsedTime

	overheated := false
	for _, out := range s.popups.ResolveCloses() {
		overheated = s.applyOutcome(out) || overheated
	}
	for _, out := range s.popups.Expire(now) {
		overheated = s.applyOutcome(out) || overheated
	}

	step := s.thermal.Tick(dt, s.popups.Count(), now)
	overheated = step.Overheated || overheated
	if step.FreezeEnded {
		s.emit(events.EventTypeFreezeEnded, ActorSystem, nil)
	}

	s.handlePowerup(s.powerups.Tick(dt, now, &s.inventory))

	if overheated {
		return s.finish()
	}

	for _, k := range s.cascadeQueue {
		s.addPopup(s.spawner.SpawnKind(k, now))
	}
	s.cascadeQueue = s.cascadeQueue[:0]
	if p, ok := s.spawner.Tick(dt, s.difficultyTime, now, s.isGameOver); ok {
		s.addPopup(p)
	}
	return nil
}

func (s *Session) applyOutcome(out popup.Outcome) bool {
	p := out.Popup
	payload := PopupPayload{PopupID: p.ID, Kind: p.Kind, Outcome: out.Kind, X: p.Position.X, Y: p.Position.Y}

	var step ThermalStep
	switch out.Kind {
	case popup.OutcomeClosedNormal:
		step = s.thermal.OnPopupClosed()
	case popup.OutcomeClosedBomb:
		step = s.thermal.ApplyDelta(s.tuning.BombCloseDelta)
	case popup.OutcomeClosedCascade:
		step = s.thermal.OnPopupClosed()
		for i := 0; i < s.tuning.CascadeSpawnCount; i++ {
			s.cascadeQueue = append(s.cascadeQueue, popup.KindNormal)
		}
	case popup.OutcomeAutoExpired:
		metrics.PopupsRemoved.WithLabelValues(string(p.Kind), string(out.Kind)).Inc()
		s.emit(events.EventTypePopupExpired, ActorSystem, payload)
		return false
	}

	payload.HeatDelta = step.Delta
	metrics.PopupsRemoved.WithLabelValues(string(p.Kind), string(out.Kind)).Inc()
	s.emit(events.EventTypePopupClosed, ActorPlayer, payload)
	return step.Overheated
}

func (s *Session) handlePowerup(res PowerupResult) {
	switch {
	case res.Spawned != nil:
		s.emit(events.EventTypePowerupSpawned, ActorSystem, PowerupPayload{
			Kind: res.Spawned.Kind, Offset: res.Spawned.Offset, Speed: res.Spawned.Speed,
		})
	case res.Caught:
		metrics.PowerupsResolved.WithLabelValues(string(res.Kind), "caught").Inc()
		s.emit(events.EventTypePowerupCaught, ActorPlayer, PowerupPayload{Kind: res.Kind, Offset: res.Offset})
	case res.Whiffed:
		metrics.PowerupsResolved.WithLabelValues(string(res.Kind), "whiffed").Inc()
		s.emit(events.EventTypePowerupMissed, ActorPlayer, PowerupPayload{Kind: res.Kind, Offset: res.Offset})
	case res.Missed:
		metrics.PowerupsResolved.WithLabelValues(string(res.Kind), "missed").Inc()
		s.emit(events.EventTypePowerupMissed, ActorSystem, PowerupPayload{Kind: res.Kind, Offset: res.Offset})
	}
}

func (s *Session) addPopup(p popup.Popup) {
	p = s.popups.Add(p)
	metrics.PopupsSpawned.WithLabelValues(string(p.Kind)).Inc()
	s.emit(events.EventTypePopupSpawned, ActorSystem, PopupPayload{
		PopupID: p.ID, Kind: p.Kind, X: p.Position.X, Y: p.Position.Y,
	})
}

func (s *Session) finish() *GameOverSummary {
	s.isGameOver = true
	s.emit(events.EventTypeOverheated, ActorSystem, map[string]float64{"heat": s.thermal.Value()})

	newBest := s.elapsedTime > s.bestTime
	if newBest {
		s.bestTime = s.elapsedTime
		s.writeBestTime(s.bestTime)
	}

	s.summary = &GameOverSummary{
		SessionID:    s.id,
		Reason:       s.tuning.GameOverReason,
		Survived:     s.elapsedTime,
		SurvivedText: FormatTime(s.elapsedTime),
		BestTime:     s.bestTime,
		NewBest:      newBest,
	}

	if history := s.deps.History; history != nil {
		id, endedAt, survived, reason := s.id, time.Now(), s.elapsedTime, s.summary.Reason
		s.rec.submit("record session finish", func(ctx context.Context) error {
			return history.RecordFinish(ctx, id, endedAt, survived, reason)
		})
	}

	metrics.GameOvers.Inc()
	metrics.SurvivalSeconds.Observe(s.elapsedTime)
	s.emit(events.EventTypeGameOver, ActorSystem, *s.summary)
	s.log.Infof("session %s over: %s, survived %s", s.id, s.summary.Reason, s.summary.SurvivedText)

	summary := *s.summary
	return &summary
}

func (s *Session) readBestTime() float64 {
	if s.deps.Store == nil {
		return s.bestTime
	}
	ctx, cancel := context.WithTimeout(s.deps.Context, s.deps.StoreTimeout)
	defer cancel()
	best, err := s.deps.Store.ReadBestTime(ctx)
	if err != nil {
		s.log.Warn("failed to read best time, starting from 0: " + err.Error())
		return 0
	}
	if best < 0 {
		return 0
	}
	return best
}

func (s *Session) writeBestTime(v float64) {
	store := s.deps.Store
	if store == nil {
		return
	}
	s.rec.submit("write best time", func(ctx context.Context) error {
		return store.WriteBestTime(ctx, v)
	})
}

// Flush blocks until queued store and history writes have finished.
func (s *Session) Flush() {
	if s.rec != nil {
		s.rec.flush()
	}
}

// Close flushes queued writes and stops the background writer. Writes
// submitted afterwards are dropped.
func (s *Session) Close() {
	if s.rec != nil {
		s.rec.close()
	}
}

func (s *Session) emit(t events.EventType, actor string, payload interface{}) {
	s.log.Event(string(t), actor, fmt.Sprintf("t=%.2f", s.elapsedTime))
	if s.deps.Events == nil {
		return
	}
	s.deps.Events.Append(events.GameEvent{
		SessionID: s.id,
		SimTime:   s.elapsedTime,
		Type:      t,
		ActorID:   actor,
		Payload:   payload,
	})
}
