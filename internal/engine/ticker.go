package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samwiegames/overheat/internal/platform/logger"
)

// DefaultTickRate is the real-time period between frames.
const DefaultTickRate = time.Second / 60

// Stepper advances a simulation by dt seconds.
type Stepper interface {
	Step(dt float64)
}

// Ticker manages the game loop heartbeat. It measures wall-clock time
// between frames and hands it to the stepper as dt; it knows nothing about
// heat or popups.
type Ticker struct {
	stepper    Stepper
	logger     *logger.Logger
	rate       time.Duration
	tickNumber atomic.Int64
	last       time.Time
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewTicker creates a new frame driver. A non-positive rate selects
// DefaultTickRate.
func NewTicker(stepper Stepper, rate time.Duration, log *logger.Logger) *Ticker {
	if rate <= 0 {
		rate = DefaultTickRate
	}
	return &Ticker{
		stepper:  stepper,
		logger:   log,
		rate:     rate,
		stopChan: make(chan struct{}),
	}
}

// Rate returns the frame period.
func (t *Ticker) Rate() time.Duration { return t.rate }

// TickNumber returns how many frames have been stepped.
func (t *Ticker) TickNumber() int64 { return t.tickNumber.Load() }

// Start begins the game loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Infof("ticker started at %v per frame", t.rate)

	ticker := time.NewTicker(t.rate)
	defer ticker.Stop()
	t.last = time.Now()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("ticker stopped by context")
			return
		case <-t.stopChan:
			t.logger.Info("ticker stopped manually")
			return
		case now := <-ticker.C:
			t.tick(now)
		}
	}
}

// Stop gracefully stops the ticker. It is safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

func (t *Ticker) tick(now time.Time) {
	dt := now.Sub(t.last).Seconds()
	t.last = now
	t.tickNumber.Add(1)
	t.stepper.Step(dt)
}
