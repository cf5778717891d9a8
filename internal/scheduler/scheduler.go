// Package scheduler runs repeating tasks on a fixed interval with explicit
// cancellation handles. The ticker source is injectable so tests can drive
// ticks without real timers.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of repeated work. Tasks for a given handle never run
// concurrently with themselves; a slow task delays its next tick.
type Task func(ctx context.Context)

// Ticker abstracts time.Ticker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a ticker for the given interval.
type TickerFactory func(interval time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Scheduler manages repeating tasks.
type Scheduler struct {
	newTicker TickerFactory
	quit      chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	stopped   bool
}

// New creates a scheduler backed by real timers.
func New() *Scheduler {
	return NewWithTicker(func(interval time.Duration) Ticker {
		return realTicker{t: time.NewTicker(interval)}
	})
}

// NewWithTicker creates a scheduler with a custom ticker source.
func NewWithTicker(factory TickerFactory) *Scheduler {
	return &Scheduler{
		newTicker: factory,
		quit:      make(chan struct{}),
	}
}

// Handle cancels one scheduled task.
type Handle struct {
	cancel chan struct{}
	once   sync.Once
}

// Stop cancels the task. Safe to call more than once; the task's current
// run, if any, completes first.
func (h *Handle) Stop() {
	h.once.Do(func() { close(h.cancel) })
}

// Schedule runs task every interval until the handle or the scheduler is
// stopped, or ctx is cancelled.
func (s *Scheduler) Schedule(ctx context.Context, interval time.Duration, task Task) *Handle {
	handle := &Handle{cancel: make(chan struct{})}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := s.newTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C():
				task(ctx)
			case <-handle.cancel:
				return
			case <-s.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return handle
}

// Stop cancels every scheduled task and waits for in-progress runs to
// finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.quit)
	s.mu.Unlock()

	s.wg.Wait()
}
