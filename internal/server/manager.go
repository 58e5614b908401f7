// Package server exposes the onboarding session over HTTP. Handlers stay
// thin; everything stateful lives in the session engine.
package server

import (
	"context"
	"sync"

	"partner-onboarding/internal/onboarding"
)

// SessionFactory builds a fully wired session for one applicant.
type SessionFactory func(applicantID string) *onboarding.Session

// Manager hands out one session per applicant, creating and restoring it on
// first use. Sessions live for the process lifetime; saved progress in redis
// is what survives restarts.
type Manager struct {
	factory SessionFactory

	mu       sync.Mutex
	sessions map[string]*onboarding.Session
}

func NewManager(factory SessionFactory) *Manager {
	return &Manager{
		factory:  factory,
		sessions: make(map[string]*onboarding.Session),
	}
}

// Get returns the applicant's session, creating it from saved progress when
// seen for the first time.
func (m *Manager) Get(ctx context.Context, applicantID string) *onboarding.Session {
	m.mu.Lock()
	session, ok := m.sessions[applicantID]
	if !ok {
		session = m.factory(applicantID)
		m.sessions[applicantID] = session
	}
	m.mu.Unlock()

	if !ok {
		session.Restore(ctx)
	}
	return session
}
