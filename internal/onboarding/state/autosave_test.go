package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/models"
)

// countingStore records every envelope handed to Save.
type countingStore struct {
	mu       sync.Mutex
	saved    []*models.SavedProgress
	failWith error
}

func (c *countingStore) Load(ctx context.Context) (*models.SavedProgress, error) { return nil, nil }

func (c *countingStore) Save(ctx context.Context, progress *models.SavedProgress) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.saved = append(c.saved, progress)
	return nil
}

func (c *countingStore) Clear(ctx context.Context) error { return nil }

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.saved)
}

func (c *countingStore) last() *models.SavedProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.saved) == 0 {
		return nil
	}
	return c.saved[len(c.saved)-1]
}

func progressAtStep(step int) *models.SavedProgress {
	st := models.NewFormState()
	st.CurrentStep = step
	return &models.SavedProgress{FormData: st, Step: step, SavedAt: time.Now().UTC()}
}

func TestAutosaver_DebouncesRapidEdits(t *testing.T) {
	store := &countingStore{}
	saver := NewAutosaver(store, 30*time.Millisecond, logger.NewNoOpLogger())
	defer saver.Stop()

	// Ten edits inside one debounce window collapse into a single write
	// carrying the final snapshot.
	for i := 0; i < 10; i++ {
		saver.Schedule(progressAtStep(i))
	}

	assert.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
	require.NotNil(t, store.last())
	assert.Equal(t, 9, store.last().Step)

	// And stays at one write with no further edits.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, store.count())
}

func TestAutosaver_SeparatedEditsEachPersist(t *testing.T) {
	store := &countingStore{}
	saver := NewAutosaver(store, 10*time.Millisecond, logger.NewNoOpLogger())
	defer saver.Stop()

	saver.Schedule(progressAtStep(1))
	assert.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 2*time.Millisecond)

	saver.Schedule(progressAtStep(2))
	assert.Eventually(t, func() bool { return store.count() == 2 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, 2, store.last().Step)
}

func TestAutosaver_FlushWritesImmediately(t *testing.T) {
	store := &countingStore{}
	saver := NewAutosaver(store, time.Hour, logger.NewNoOpLogger())
	defer saver.Stop()

	saver.Schedule(progressAtStep(5))
	assert.Equal(t, 0, store.count())

	saver.Flush()
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 5, store.last().Step)

	// Flush with nothing pending is a no-op.
	saver.Flush()
	assert.Equal(t, 1, store.count())
}

func TestAutosaver_StopCancelsPending(t *testing.T) {
	store := &countingStore{}
	saver := NewAutosaver(store, 10*time.Millisecond, logger.NewNoOpLogger())

	saver.Schedule(progressAtStep(3))
	saver.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, store.count())

	// Scheduling after Stop is ignored.
	saver.Schedule(progressAtStep(4))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, store.count())
}

func TestAutosaver_WriteFailureIsSwallowed(t *testing.T) {
	store := &countingStore{failWith: assert.AnError}
	saver := NewAutosaver(store, 5*time.Millisecond, logger.NewNoOpLogger())
	defer saver.Stop()

	saver.Schedule(progressAtStep(2))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, store.count())

	// The next edit schedules another attempt.
	store.mu.Lock()
	store.failWith = nil
	store.mu.Unlock()
	saver.Schedule(progressAtStep(3))
	assert.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 2*time.Millisecond)
}
