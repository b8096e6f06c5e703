// Package redis implements the server-side SessionStore on Redis. Session
// expiry is delegated to key TTLs.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fdagency/portal/internal/adapter/driven/sealer"
	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

const keyPrefix = "portal:session:"

// record is the JSON value stored under each session key.
type record struct {
	Credential string `json:"credential"`
	CreatedAt  int64  `json:"created_at"`
	ExpiresAt  int64  `json:"expires_at"`
}

// SessionRepo is the Redis implementation of the SessionStore port interface.
type SessionRepo struct {
	client *redis.Client
	sealer *sealer.Sealer
	now    func() time.Time
}

// NewSessionRepo creates a SessionRepo on an already-connected client.
func NewSessionRepo(client *redis.Client, s *sealer.Sealer) *SessionRepo {
	return &SessionRepo{client: client, sealer: s, now: time.Now}
}

// Connect opens a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func sessionKey(id string) string {
	return keyPrefix + sealer.Digest(id)
}

// Create stores a new session with a TTL matching its expiry. SETNX keeps ids unique.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("create session: already expired at %s", s.ExpiresAt.Format(time.RFC3339))
	}

	key := sessionKey(s.ID)
	sealed, err := r.sealer.Seal(s.Credential.Token(), key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(record{
		Credential: sealed,
		CreatedAt:  s.CreatedAt.UnixMilli(),
		ExpiresAt:  s.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return errors.New("create session: id already exists")
	}
	return nil
}

// Get returns the session for id, or (nil, nil) if the key is gone.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	key := sessionKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	expiresAt := time.UnixMilli(rec.ExpiresAt).UTC()
	if !r.now().Before(expiresAt) {
		return nil, nil
	}

	token, err := r.sealer.Open(rec.Credential, key)
	if err != nil {
		return nil, fmt.Errorf("open session credential: %w", err)
	}

	return &model.Session{
		ID:         id,
		Credential: model.CredentialFromToken(token),
		CreatedAt:  time.UnixMilli(rec.CreatedAt).UTC(),
		ExpiresAt:  expiresAt,
	}, nil
}

// Delete removes the session for id.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts expired keys itself.
func (r *SessionRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
