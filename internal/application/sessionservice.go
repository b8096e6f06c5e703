// Package application contains use-case orchestration services.
package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
)

// ErrAuthenticationFailed is returned by Issue when the record system rejects
// the login probe.
var ErrAuthenticationFailed = errors.New("authentication failed")

// probePath is a protected record-system endpoint used to verify a login.
const probePath = "/api/inventory"

const sessionIDBytes = 32

// SessionService issues, resolves and revokes browser session credentials.
//
// With a nil store the cookie value is the Basic-Auth token itself. With a
// store the cookie carries an opaque session id and the token stays server-side.
type SessionService struct {
	records       driven.RecordSystem
	store         driven.SessionStore
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

// NewSessionService creates a SessionService. store may be nil for
// cookie-held credentials; ttl and sweepInterval only apply with a store.
func NewSessionService(records driven.RecordSystem, store driven.SessionStore, ttl, sweepInterval time.Duration) *SessionService {
	return &SessionService{
		records:       records,
		store:         store,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           time.Now,
	}
}

// ServerSide reports whether credentials are held in a server-side store.
func (s *SessionService) ServerSide() bool {
	return s.store != nil
}

// TTL returns the absolute lifetime of server-side sessions.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue verifies username/password with one probe call against the record
// system and returns the value to place in the session cookie. The probe is
// never retried.
func (s *SessionService) Issue(ctx context.Context, username, password string) (string, error) {
	cred, err := model.NewCredential(username, password)
	if err != nil {
		return "", err
	}

	resp, err := s.records.Do(ctx, driven.UpstreamRequest{
		Method:     http.MethodGet,
		Path:       probePath,
		Credential: cred,
		StatusOnly: true,
	})
	if err != nil {
		return "", err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return "", fmt.Errorf("%w: probe returned %d", ErrAuthenticationFailed, resp.Status)
	}

	if s.store == nil {
		return cred.Token(), nil
	}

	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	sess := model.Session{
		ID:         id,
		Credential: cred,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return id, nil
}

// Resolve maps a cookie value back to its credential. A missing, unknown or
// expired session yields the zero Credential and no error: the caller is
// simply unauthenticated.
func (s *SessionService) Resolve(ctx context.Context, cookieValue string) (model.Credential, error) {
	if cookieValue == "" {
		return model.Credential{}, nil
	}

	if s.store == nil {
		return model.CredentialFromToken(cookieValue), nil
	}

	sess, err := s.store.Get(ctx, cookieValue)
	if err != nil {
		return model.Credential{}, fmt.Errorf("resolve session: %w", err)
	}
	if sess == nil || sess.Expired(s.now()) {
		return model.Credential{}, nil
	}

	return sess.Credential, nil
}

// Revoke forgets the session behind cookieValue. It is idempotent; revoking
// an absent session succeeds.
func (s *SessionService) Revoke(ctx context.Context, cookieValue string) error {
	if s.store == nil || cookieValue == "" {
		return nil
	}

	if err := s.store.Delete(ctx, cookieValue); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Start runs the expired-session sweeper until ctx is canceled. It returns
// immediately when credentials are cookie-held.
func (s *SessionService) Start(ctx context.Context) {
	if s.store == nil {
		return
	}

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionService) sweep(ctx context.Context) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		slog.Error("session sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("expired sessions removed", "count", n)
	}
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
