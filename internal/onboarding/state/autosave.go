package state

import (
	"context"
	"sync"
	"time"

	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/common/metrics"
	"partner-onboarding/internal/models"
)

// Autosaver coalesces rapid edits into one persistence write. Each Schedule
// cancels the pending write and arms a new one; after the debounce window
// passes with no further edits, the latest snapshot is persisted. Last
// debounced snapshot wins; no stricter ordering is guaranteed.
type Autosaver struct {
	store ProgressStore
	delay time.Duration
	log   logger.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending *models.SavedProgress
	stopped bool
}

// NewAutosaver creates a debounced writer over the given store.
func NewAutosaver(store ProgressStore, delay time.Duration, log logger.Logger) *Autosaver {
	return &Autosaver{
		store: store,
		delay: delay,
		log:   log.WithFields(map[string]interface{}{"component": "autosaver"}),
	}
}

// Schedule replaces any pending write with a new one for this snapshot.
func (a *Autosaver) Schedule(progress *models.SavedProgress) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}

	a.pending = progress
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	progress := a.pending
	a.pending = nil
	a.mu.Unlock()

	if progress == nil {
		return
	}
	a.write(progress)
}

// Flush persists any pending snapshot immediately, cancelling the timer.
// Called before submission and at shutdown.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	progress := a.pending
	a.pending = nil
	a.mu.Unlock()

	if progress != nil {
		a.write(progress)
	}
}

// Stop cancels any pending write and prevents further scheduling.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}

func (a *Autosaver) write(progress *models.SavedProgress) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.store.Save(ctx, progress); err != nil {
		// Autosave failures are not surfaced to the user; the next edit
		// schedules another attempt.
		a.log.Warn("progress snapshot failed", map[string]interface{}{
			"step":  progress.Step,
			"error": err.Error(),
		})
		return
	}
	metrics.AutosaveWrites.Inc()
}
