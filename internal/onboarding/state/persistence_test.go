package state

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redismock "github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/models"
	"partner-onboarding/internal/onboarding/schema"
)

// ==========================
// Test Helpers
// ==========================

func newTestStore(t *testing.T) (*RedisProgressStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisProgressStore(client, "onboarding:progress", "applicant-1", 30*24*time.Hour), mr
}

func sampleProgress() *models.SavedProgress {
	st := models.NewFormState()
	st.Country = schema.CountryNG
	st.Category = schema.CategoryInstaller
	st.LegalName = "Acme Solar Ltd"
	st.CurrentStep = 4
	return &models.SavedProgress{FormData: st, Step: 4, SavedAt: time.Now().UTC()}
}

// ==========================
// Round Trip Tests
// ==========================

func TestRedisProgressStore_SaveAndLoad(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleProgress()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 4, loaded.Step)
	assert.Equal(t, "Acme Solar Ltd", loaded.FormData.LegalName)
	assert.Equal(t, schema.CountryNG, loaded.FormData.Country)
}

func TestRedisProgressStore_LoadMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisProgressStore_SecretsNeverPersistOrRestore(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	progress := sampleProgress()
	progress.FormData.Password = "hunter2hunter2"
	progress.FormData.OTPCode = "123456"
	require.NoError(t, store.Save(ctx, progress))

	raw, err := mr.Get("onboarding:progress:applicant-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "hunter2hunter2")
	assert.NotContains(t, raw, "123456")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.FormData.Password)
	assert.Empty(t, loaded.FormData.OTPCode)
}

func TestRedisProgressStore_KeyNamespacedPerApplicant(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	alpha := NewRedisProgressStore(client, "onboarding:progress", "alpha", time.Hour)
	beta := NewRedisProgressStore(client, "onboarding:progress", "beta", time.Hour)

	progress := sampleProgress()
	require.NoError(t, alpha.Save(ctx, progress))

	loaded, err := beta.Load(ctx)
	assert.NoError(t, err)
	assert.Nil(t, loaded, "sessions must not read each other's progress")
}

func TestRedisProgressStore_TTLSet(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), sampleProgress()))

	ttl := mr.TTL("onboarding:progress:applicant-1")
	assert.Equal(t, 30*24*time.Hour, ttl)
}

// ==========================
// Corruption Tests
// ==========================

func TestRedisProgressStore_CorruptEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"missing formData", `{"step": 2, "savedAt": "2026-09-01T10:00:00Z"}`},
		{"step out of range", `{"formData": {}, "step": 99, "savedAt": "2026-09-01T10:00:00Z"}`},
		{"negative step", `{"formData": {}, "step": -1, "savedAt": "2026-09-01T10:00:00Z"}`},
		{"step wrong type", `{"formData": {}, "step": "four", "savedAt": "2026-09-01T10:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mr := newTestStore(t)
			require.NoError(t, mr.Set("onboarding:progress:applicant-1", tt.raw))

			loaded, err := store.Load(context.Background())
			assert.Nil(t, loaded)
			require.Error(t, err)
			assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeProgressCorrupt))
		})
	}
}

// ==========================
// Write Dedup and Failure Tests
// ==========================

func TestRedisProgressStore_UnchangedFormSkipsWrite(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisProgressStore(client, "onboarding:progress", "applicant-1", time.Hour)
	ctx := context.Background()

	st := models.NewFormState()
	st.Country = schema.CountryNG
	st.LegalName = "Acme Solar Ltd"
	st.CurrentStep = 4

	first := Snapshot(st)
	raw, err := json.Marshal(first)
	require.NoError(t, err)
	mock.ExpectSet("onboarding:progress:applicant-1", raw, time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, first))

	// A later snapshot of the same form carries a newer timestamp but no
	// field changes; it must not hit redis again.
	second := Snapshot(st)
	second.SavedAt = first.SavedAt.Add(time.Minute)
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, mock.ExpectationsWereMet())

	// An actual edit writes again.
	edited := *st
	edited.LegalName = "Acme Solar Limited"
	third := Snapshot(&edited)
	raw, err = json.Marshal(third)
	require.NoError(t, err)
	mock.ExpectSet("onboarding:progress:applicant-1", raw, time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, third))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisProgressStore_WriteFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisProgressStore(client, "onboarding:progress", "applicant-1", time.Hour)

	progress := sampleProgress()
	raw, err := json.Marshal(progress)
	require.NoError(t, err)

	mock.ExpectSet("onboarding:progress:applicant-1", raw, time.Hour).SetErr(assert.AnError)

	err = store.Save(context.Background(), progress)
	require.Error(t, err)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeProgressWriteFailed))
}

func TestRedisProgressStore_Clear(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleProgress()))
	require.NoError(t, store.Clear(ctx))

	assert.False(t, mr.Exists("onboarding:progress:applicant-1"))

	// After a clear the same snapshot writes again.
	require.NoError(t, store.Save(ctx, sampleProgress()))
	assert.True(t, mr.Exists("onboarding:progress:applicant-1"))
}

// ==========================
// Snapshot Tests
// ==========================

func TestSnapshot(t *testing.T) {
	st := models.NewFormState()
	st.CurrentStep = 6
	st.LegalName = "Acme Solar Ltd"

	progress := Snapshot(st)
	assert.Equal(t, 6, progress.Step)
	assert.Same(t, st, progress.FormData)
	assert.False(t, progress.SavedAt.IsZero())
}
