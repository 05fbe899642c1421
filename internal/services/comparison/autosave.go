package comparison

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/metrics"
)

// SaveFunc pushes the current state to the backend.
type SaveFunc func(ctx context.Context) error

// Autosaver coalesces bursts of Schedule calls into a single save that runs
// once the delay has passed without another call. Saves never overlap.
type Autosaver struct {
	delay   time.Duration
	save    SaveFunc
	onError func(error)
	log     *zap.Logger
	metrics *metrics.Recorder

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool

	saveMu sync.Mutex
}

// NewAutosaver returns an Autosaver calling save. onError may be nil.
func NewAutosaver(delay time.Duration, save SaveFunc, onError func(error), log *zap.Logger, m *metrics.Recorder) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Autosaver{delay: delay, save: save, onError: onError, log: log, metrics: m}
}

// Schedule marks the state dirty and restarts the debounce timer.
func (a *Autosaver) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() {
		_ = a.run(context.Background())
	})
}

// Pending reports whether a save is waiting to run.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Flush runs a pending save now and returns its error. It is a no-op when
// nothing is pending.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	return a.run(ctx)
}

// Stop cancels the timer and rejects further scheduling. A pending save is
// discarded; call Flush first to keep it.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = false
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autosaver) run(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	if !a.pending {
		a.mu.Unlock()
		return nil
	}
	a.pending = false
	a.mu.Unlock()

	err := a.save(ctx)
	a.metrics.AutosaveResult(err)
	if err != nil {
		a.log.Warn("autosave failed", zap.Error(err))
		if a.onError != nil {
			a.onError(err)
		}
		return err
	}
	a.log.Debug("autosave complete")
	return nil
}
