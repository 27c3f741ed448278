package engine

import (
	"context"
	"sync"
	"time"

	"github.com/samwiegames/overheat/internal/platform/logger"
)

// DefaultRecordBuffer is the number of store writes that may wait for the
// recorder before new ones are dropped.
const DefaultRecordBuffer = 64

type recordJob struct {
	name string
	run  func(ctx context.Context) error
}

// recorder runs best-time and history writes on one background goroutine,
// in submission order, so a slow store never holds up a tick.
type recorder struct {
	ctx     context.Context
	timeout time.Duration
	log     *logger.Logger

	mu      sync.Mutex
	jobs    chan recordJob
	pending sync.WaitGroup
	done    chan struct{}
	closed  bool
}

func newRecorder(ctx context.Context, timeout time.Duration, buffer int, log *logger.Logger) *recorder {
	if buffer <= 0 {
		buffer = DefaultRecordBuffer
	}
	r := &recorder{
		ctx:     ctx,
		timeout: timeout,
		log:     log,
		jobs:    make(chan recordJob, buffer),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *recorder) loop() {
	defer close(r.done)
	for job := range r.jobs {
		ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
		if err := job.run(ctx); err != nil {
			r.log.Warn("failed to " + job.name + ": " + err.Error())
		}
		cancel()
		r.pending.Done()
	}
}

// submit queues a write without blocking. It reports false when the
// recorder is closed or its buffer is full.
func (r *recorder) submit(name string, run func(ctx context.Context) error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.log.Warn("recorder closed, dropped " + name)
		return false
	}
	r.pending.Add(1)
	select {
	case r.jobs <- recordJob{name: name, run: run}:
		return true
	default:
		r.pending.Done()
		r.log.Warn("recorder buffer full, dropped " + name)
		return false
	}
}

// flush waits until every queued write has run.
func (r *recorder) flush() {
	r.pending.Wait()
}

// close flushes queued writes and stops the worker. It is safe to call more
// than once.
func (r *recorder) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()
	<-r.done
}
