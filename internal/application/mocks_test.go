package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
)

// mockRecordSystem implements driven.RecordSystem with a canned answer and
// records every request it receives.
type mockRecordSystem struct {
	mu       sync.Mutex
	resp     *driven.UpstreamResponse
	err      error
	pingErr  error
	requests []driven.UpstreamRequest
}

func (m *mockRecordSystem) Do(_ context.Context, req driven.UpstreamRequest) (*driven.UpstreamResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m *mockRecordSystem) Ping(_ context.Context) error { return m.pingErr }

func (m *mockRecordSystem) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mockSessionStore is an in-memory driven.SessionStore.
type mockSessionStore struct {
	mu        sync.Mutex
	sessions  map[string]model.Session
	createErr error
	getErr    error
	sweeps    int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[string]model.Session{}}
}

func (m *mockSessionStore) Create(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStore) Get(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	var n int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *mockSessionStore) sweepCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweeps
}

func jsonResponse(status int, body string) *driven.UpstreamResponse {
	return &driven.UpstreamResponse{Status: status, ContentType: "application/json", Body: []byte(body)}
}

func textResponse(status int, contentType, body string) *driven.UpstreamResponse {
	return &driven.UpstreamResponse{Status: status, ContentType: contentType, Body: []byte(body)}
}
