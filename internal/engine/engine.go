package engine

import (
	"context"
	"sync"
	"time"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/domain/powerup"
	"github.com/samwiegames/overheat/internal/platform/logger"
	"github.com/samwiegames/overheat/internal/platform/metrics"
)

// InputKind names a player action accepted by the engine.
type InputKind string

const (
	InputClosePopup InputKind = "CLOSE_POPUP"
	InputCatch      InputKind = "CATCH"
	InputConsume    InputKind = "CONSUME"
	InputRestart    InputKind = "RESTART"
)

// Input is one queued player action.
type Input struct {
	Kind    InputKind
	ActorID string
	PopupID popup.ID
	Powerup powerup.Kind
}

// DefaultInputBuffer is the input queue capacity when none is configured.
const DefaultInputBuffer = 256

// Options configures an Engine.
type Options struct {
	InputBuffer int
	TickRate    time.Duration
	Logger      *logger.Logger
}

// Engine is the central orchestrator between a single-threaded Session and
// its concurrent collaborators. Any goroutine may Submit inputs or read a
// Snapshot; only the ticker goroutine (or a test calling Step) advances the
// session.
type Engine struct {
	session *Session
	logger  *logger.Logger
	ticker  *Ticker
	inputs  chan Input
	stopped chan struct{} // Closed when the ticker goroutine returns

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewEngine wraps a session.
func NewEngine(session *Session, opts Options) *Engine {
	if opts.InputBuffer <= 0 {
		opts.InputBuffer = DefaultInputBuffer
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	e := &Engine{
		session:  session,
		logger:   opts.Logger,
		inputs:   make(chan Input, opts.InputBuffer),
		snapshot: session.Snapshot(),
	}
	e.ticker = NewTicker(e, opts.TickRate, opts.Logger)
	return e
}

// Start spawns the ticker.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("starting game engine")
	e.stopped = make(chan struct{})
	go func() {
		defer close(e.stopped)
		e.ticker.Start(ctx)
	}()
}

// Stop halts the ticker, waits for the current step to finish and flushes
// the session's pending store writes.
func (e *Engine) Stop() {
	e.ticker.Stop()
	if e.stopped != nil {
		<-e.stopped
	}
	e.session.Close()
}

// Ticker exposes the frame driver.
func (e *Engine) Ticker() *Ticker { return e.ticker }

// Submit queues an input for the next step. It never blocks and reports
// false when the queue is full.
func (e *Engine) Submit(in Input) bool {
	select {
	case e.inputs <- in:
		return true
	default:
		metrics.InputsDropped.Inc()
		return false
	}
}

// Step drains queued inputs, advances the session by dt and publishes a new
// snapshot.
func (e *Engine) Step(dt float64) {
	start := time.Now()

	e.drain()
	e.session.Tick(dt)
	snap := e.session.Snapshot()

	e.mu.Lock()
	e.snapshot = snap
	e.mu.Unlock()

	metrics.TickDuration.Observe(time.Since(start).Seconds())
	metrics.Heat.Set(snap.Heat)
	metrics.ActivePopups.Set(float64(len(snap.Popups)))
}

// Snapshot returns the most recently published session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

func (e *Engine) drain() {
	for {
		select {
		case in := <-e.inputs:
			e.apply(in)
		default:
			return
		}
	}
}

func (e *Engine) apply(in Input) {
	metrics.InputsProcessed.WithLabelValues(string(in.Kind)).Inc()
	switch in.Kind {
	case InputClosePopup:
		e.session.ClosePopup(in.PopupID)
	case InputCatch:
		e.session.Catch()
	case InputConsume:
		e.session.ConsumePowerup(in.Powerup)
	case InputRestart:
		e.session.Reset()
	default:
		e.logger.Warn("ignoring unknown input kind: " + string(in.Kind))
	}
}
