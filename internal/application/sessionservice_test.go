package application_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fdagency/portal/internal/application"
	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_IssueCookieMode(t *testing.T) {
	records := &mockRecordSystem{resp: jsonResponse(http.StatusOK, `[]`)}
	svc := application.NewSessionService(records, nil, time.Hour, time.Minute)

	value, err := svc.Issue(context.Background(), "alice", "pw123")

	require.NoError(t, err)
	assert.Equal(t, "YWxpY2U6cHcxMjM=", value)
	require.Equal(t, 1, records.calls())
	probe := records.requests[0]
	assert.Equal(t, http.MethodGet, probe.Method)
	assert.Equal(t, "/api/inventory", probe.Path)
	assert.Equal(t, "Basic YWxpY2U6cHcxMjM=", probe.Credential.AuthorizationHeader())
	assert.True(t, probe.StatusOnly, "the login probe only needs the status")
	assert.False(t, svc.ServerSide())
}

func TestSessionService_IssueRejected(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			records := &mockRecordSystem{resp: textResponse(status, "text/plain", "nope")}
			store := newMockSessionStore()
			svc := application.NewSessionService(records, store, time.Hour, time.Minute)

			value, err := svc.Issue(context.Background(), "alice", "wrong")

			assert.ErrorIs(t, err, application.ErrAuthenticationFailed)
			assert.Empty(t, value)
			assert.Equal(t, 1, records.calls(), "the probe is never retried")
			assert.Zero(t, store.len())
		})
	}
}

func TestSessionService_IssueMissingFields(t *testing.T) {
	records := &mockRecordSystem{resp: jsonResponse(http.StatusOK, `[]`)}
	svc := application.NewSessionService(records, nil, time.Hour, time.Minute)

	_, err := svc.Issue(context.Background(), "alice", "")

	assert.ErrorIs(t, err, model.ErrEmptyCredential)
	assert.Zero(t, records.calls())
}

func TestSessionService_IssueUnreachable(t *testing.T) {
	records := &mockRecordSystem{err: driven.ErrUpstreamUnreachable}
	svc := application.NewSessionService(records, nil, time.Hour, time.Minute)

	_, err := svc.Issue(context.Background(), "alice", "pw123")

	assert.ErrorIs(t, err, driven.ErrUpstreamUnreachable)
	assert.NotErrorIs(t, err, application.ErrAuthenticationFailed)
}

func TestSessionService_ServerMode(t *testing.T) {
	records := &mockRecordSystem{resp: jsonResponse(http.StatusOK, `[]`)}
	store := newMockSessionStore()
	svc := application.NewSessionService(records, store, time.Hour, time.Minute)
	ctx := context.Background()

	id, err := svc.Issue(ctx, "alice", "pw123")

	require.NoError(t, err)
	assert.True(t, svc.ServerSide())
	assert.Len(t, id, 64)
	assert.NotContains(t, id, "YWxpY2U6cHcxMjM=")

	stored, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, time.Hour, stored.ExpiresAt.Sub(stored.CreatedAt))

	cred, err := svc.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Basic YWxpY2U6cHcxMjM=", cred.AuthorizationHeader())

	require.NoError(t, svc.Revoke(ctx, id))
	cred, err = svc.Resolve(ctx, id)
	require.NoError(t, err)
	assert.True(t, cred.IsZero())
}

func TestSessionService_ServerModeStoreFailure(t *testing.T) {
	records := &mockRecordSystem{resp: jsonResponse(http.StatusOK, `[]`)}
	store := newMockSessionStore()
	store.createErr = errors.New("disk full")
	svc := application.NewSessionService(records, store, time.Hour, time.Minute)

	_, err := svc.Issue(context.Background(), "alice", "pw123")

	assert.Error(t, err)
}

func TestSessionService_ResolveCookieMode(t *testing.T) {
	svc := application.NewSessionService(&mockRecordSystem{}, nil, time.Hour, time.Minute)

	cred, err := svc.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, cred.IsZero())

	cred, err = svc.Resolve(context.Background(), "YWxpY2U6cHcxMjM=")
	require.NoError(t, err)
	assert.Equal(t, "Basic YWxpY2U6cHcxMjM=", cred.AuthorizationHeader())
}

func TestSessionService_ResolveUnknownOrExpired(t *testing.T) {
	store := newMockSessionStore()
	cred, err := model.NewCredential("alice", "pw123")
	require.NoError(t, err)
	store.sessions["old"] = model.Session{ID: "old", Credential: cred, ExpiresAt: time.Now().Add(-time.Minute)}
	svc := application.NewSessionService(&mockRecordSystem{}, store, time.Hour, time.Minute)

	got, err := svc.Resolve(context.Background(), "unknown")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = svc.Resolve(context.Background(), "old")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestSessionService_ResolveStoreError(t *testing.T) {
	store := newMockSessionStore()
	store.getErr = errors.New("db closed")
	svc := application.NewSessionService(&mockRecordSystem{}, store, time.Hour, time.Minute)

	_, err := svc.Resolve(context.Background(), "abc")
	assert.Error(t, err)
}

func TestSessionService_RevokeIdempotent(t *testing.T) {
	svc := application.NewSessionService(&mockRecordSystem{}, newMockSessionStore(), time.Hour, time.Minute)

	assert.NoError(t, svc.Revoke(context.Background(), ""))
	assert.NoError(t, svc.Revoke(context.Background(), "never-issued"))
	assert.NoError(t, svc.Revoke(context.Background(), "never-issued"))

	cookieSvc := application.NewSessionService(&mockRecordSystem{}, nil, time.Hour, time.Minute)
	assert.NoError(t, cookieSvc.Revoke(context.Background(), "YWxpY2U6cHcxMjM="))
}

func TestSessionService_StartSweepsUntilCanceled(t *testing.T) {
	store := newMockSessionStore()
	cred, err := model.NewCredential("alice", "pw123")
	require.NoError(t, err)
	store.sessions["old"] = model.Session{ID: "old", Credential: cred, ExpiresAt: time.Now().Add(-time.Minute)}
	svc := application.NewSessionService(&mockRecordSystem{}, store, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.sweepCount() > 0 && store.len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSessionService_StartWithoutStoreReturns(t *testing.T) {
	svc := application.NewSessionService(&mockRecordSystem{}, nil, time.Hour, time.Minute)

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return immediately without a store")
	}
}
