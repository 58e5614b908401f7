package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/models"
	"partner-onboarding/internal/onboarding/schema"
)

// ProgressStore persists the saved-progress envelope under one fixed key per
// applicant. A nil envelope from Load means no saved session exists.
type ProgressStore interface {
	Load(ctx context.Context) (*models.SavedProgress, error)
	Save(ctx context.Context, progress *models.SavedProgress) error
	Clear(ctx context.Context) error
}

// Snapshot wraps the current aggregate in a saved-progress envelope. The
// aggregate is never mutated in place, so the envelope can hold the pointer
// until the debounced write fires.
func Snapshot(form *models.FormState) *models.SavedProgress {
	return &models.SavedProgress{
		FormData: form,
		Step:     form.CurrentStep,
		SavedAt:  time.Now().UTC(),
	}
}

// envelopeSchema guards restores against malformed envelopes. Envelopes that
// fail the shape check, or that name a step outside the registry, are treated
// as corrupt and the session falls back to an empty draft at step 0.
const envelopeSchema = `{
	"type": "object",
	"required": ["formData", "step", "savedAt"],
	"properties": {
		"formData": {"type": "object"},
		"step": {"type": "integer", "minimum": 0},
		"savedAt": {"type": "string"}
	}
}`

var envelopeSchemaLoader = gojsonschema.NewStringLoader(envelopeSchema)

// RedisProgressStore stores envelopes in Redis with a TTL bounding how long
// an interrupted session survives.
type RedisProgressStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	mu          sync.Mutex
	lastWritten []byte
}

// NewRedisProgressStore creates a store for one applicant's progress. The
// key is namespaced by the applicant so two sessions can never collide.
func NewRedisProgressStore(client *redis.Client, keyPrefix, applicantID string, ttl time.Duration) *RedisProgressStore {
	return &RedisProgressStore{
		client: client,
		key:    fmt.Sprintf("%s:%s", keyPrefix, applicantID),
		ttl:    ttl,
	}
}

// Load fetches and validates the stored envelope. Missing key returns
// (nil, nil); a corrupt envelope returns a PROGRESS_CORRUPT error.
func (s *RedisProgressStore) Load(ctx context.Context) (*models.SavedProgress, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result, err := gojsonschema.Validate(envelopeSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, stderrors.NewProgressCorruptError(err.Error())
	}
	if !result.Valid() {
		return nil, stderrors.NewProgressCorruptError(fmt.Sprintf("envelope failed schema check: %v", result.Errors()))
	}

	var progress models.SavedProgress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil, stderrors.NewProgressCorruptError(err.Error())
	}
	if progress.FormData == nil || !schema.ValidStep(progress.Step) {
		return nil, stderrors.NewProgressCorruptError(fmt.Sprintf("step %d is not a known step", progress.Step))
	}

	// Secrets never restore, whatever an old envelope may carry.
	progress.FormData.Password = ""
	progress.FormData.OTPCode = ""

	return &progress, nil
}

// Save writes the envelope. Consecutive snapshots of an unchanged form are
// skipped; the comparison covers the form and step only, since every
// snapshot stamps a fresh SavedAt.
func (s *RedisProgressStore) Save(ctx context.Context, progress *models.SavedProgress) error {
	raw, err := json.Marshal(progress)
	if err != nil {
		return stderrors.NewProgressWriteFailedError(err)
	}

	fingerprint, err := json.Marshal(struct {
		FormData *models.FormState `json:"formData"`
		Step     int               `json:"step"`
	}{progress.FormData, progress.Step})
	if err != nil {
		return stderrors.NewProgressWriteFailedError(err)
	}

	s.mu.Lock()
	unchanged := s.lastWritten != nil && string(s.lastWritten) == string(fingerprint)
	s.mu.Unlock()
	if unchanged {
		return nil
	}

	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return stderrors.NewProgressWriteFailedError(err)
	}

	s.mu.Lock()
	s.lastWritten = fingerprint
	s.mu.Unlock()
	return nil
}

// Clear removes the envelope; called once after successful submission.
func (s *RedisProgressStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastWritten = nil
	s.mu.Unlock()
	return nil
}
