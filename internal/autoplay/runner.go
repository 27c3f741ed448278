package autoplay

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/events"
	"github.com/samwiegames/overheat/internal/infra/storage"
	"github.com/samwiegames/overheat/internal/platform/logger"
)

// Options configures a batch of simulated runs.
type Options struct {
	Tuning      engine.Tuning
	Profile     Profile
	Runs        int
	Dt          float64 // Fixed step in seconds
	MaxDuration float64 // Runs still alive at this sim time are cut off
	Seed        int64   // Run i uses Seed+i
	Store       engine.BestTimeStore
	Logger      *logger.Logger
}

// RunResult summarizes one simulated session.
type RunResult struct {
	SessionID string  `json:"session_id"`
	Survived  float64 `json:"survived"`
	GameOver  bool    `json:"game_over"`
	Closed    int     `json:"closed"`
	Expired   int     `json:"expired"`
	Caught    int     `json:"caught"`
	Missed    int     `json:"missed"`
	Consumed  int     `json:"consumed"`
}

// Report aggregates a batch of runs.
type Report struct {
	Profile   string      `json:"profile"`
	Runs      []RunResult `json:"runs"`
	Mean      float64     `json:"mean"`
	Median    float64     `json:"median"`
	P90       float64     `json:"p90"`
	Min       float64     `json:"min"`
	Max       float64     `json:"max"`
	Survivors int         `json:"survivors"` // Runs cut off at MaxDuration
	BestTime  float64     `json:"best_time"`
}

// Run plays opts.Runs sessions back to back through an Engine. Every run
// has its own seeded RNG so a batch is reproducible.
func Run(ctx context.Context, opts Options) (Report, error) {
	if opts.Runs <= 0 {
		return Report{}, errors.New("runs must be positive")
	}
	if opts.Dt <= 0 {
		opts.Dt = 1.0 / 60
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 600
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryBestTimeStore(0)
	}

	report := Report{Profile: opts.Profile.Name}
	for i := 0; i < opts.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, best, err := runOne(ctx, opts, opts.Seed+int64(i))
		if err != nil {
			return report, fmt.Errorf("run %d: %w", i, err)
		}
		report.Runs = append(report.Runs, res)
		report.BestTime = best
		opts.Logger.Event("SIM_RUN", opts.Profile.Name, fmt.Sprintf("run %d survived %s", i, engine.FormatTime(res.Survived)))
	}
	report.summarize()
	return report, nil
}

func runOne(ctx context.Context, opts Options, seed int64) (RunResult, float64, error) {
	rng := rand.New(rand.NewSource(seed))
	log := events.NewEventLog(nil)
	session, err := engine.NewSession(opts.Tuning, engine.Deps{
		Store:   opts.Store,
		Events:  log,
		Logger:  opts.Logger,
		Rand:    rng,
		Context: ctx,
	})
	if err != nil {
		return RunResult{}, 0, err
	}
	// The next run reads the best time this one writes.
	defer session.Close()
	eng := engine.NewEngine(session, engine.Options{Logger: opts.Logger})
	player := NewPlayer(opts.Profile, rand.New(rand.NewSource(seed^0x5eed)))

	snap := eng.Snapshot()
	for !snap.GameOver && snap.Elapsed < opts.MaxDuration {
		for _, in := range player.Decide(snap) {
			eng.Submit(in)
		}
		eng.Step(opts.Dt)
		snap = eng.Snapshot()
	}

	res := RunResult{SessionID: snap.SessionID, Survived: snap.Elapsed, GameOver: snap.GameOver}
	for _, e := range log.GetBySession(snap.SessionID) {
		switch e.Type {
		case events.EventTypePopupClosed:
			res.Closed++
		case events.EventTypePopupExpired:
			res.Expired++
		case events.EventTypePowerupCaught:
			res.Caught++
		case events.EventTypePowerupMissed:
			res.Missed++
		case events.EventTypePowerupConsumed:
			res.Consumed++
		}
	}
	return res, session.BestTime(), nil
}

func (r *Report) summarize() {
	if len(r.Runs) == 0 {
		return
	}
	times := make([]float64, len(r.Runs))
	var total float64
	for i, run := range r.Runs {
		times[i] = run.Survived
		total += run.Survived
		if !run.GameOver {
			r.Survivors++
		}
	}
	sort.Float64s(times)
	n := len(times)
	r.Mean = total / float64(n)
	r.Min = times[0]
	r.Max = times[n-1]
	r.P90 = times[int(0.9*float64(n-1))]
	if n%2 == 1 {
		r.Median = times[n/2]
	} else {
		r.Median = (times[n/2-1] + times[n/2]) / 2
	}
}
