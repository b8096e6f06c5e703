package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fdagency/portal/internal/adapter/driven/sealer"
	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionStore port interface.
// Rows are keyed by the SHA-256 digest of the session id and the credential
// is sealed with AES-256-GCM, bound to that digest.
type SessionRepo struct {
	db     *DB
	sealer *sealer.Sealer
	now    func() time.Time
}

// NewSessionRepo creates a new SessionRepo backed by the given DB.
func NewSessionRepo(db *DB, s *sealer.Sealer) *SessionRepo {
	return &SessionRepo{db: db, sealer: s, now: time.Now}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	digest := sealer.Digest(s.ID)

	sealed, err := r.sealer.Seal(s.Credential.Token(), digest)
	if err != nil {
		return err
	}

	const query = `INSERT INTO sessions (id_digest, credential, created_at, expires_at) VALUES (?, ?, ?, ?)`
	_, err = r.db.Writer.ExecContext(ctx, query, digest, sealed, s.CreatedAt.UnixMilli(), s.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns the live session for id, or (nil, nil) if it is missing or expired.
func (r *SessionRepo) Get(ctx context.Context, id string) (*model.Session, error) {
	digest := sealer.Digest(id)

	const query = `SELECT credential, created_at, expires_at FROM sessions WHERE id_digest = ? AND expires_at > ?`
	var (
		sealed             string
		createdAt, expires int64
	)
	err := r.db.Reader.QueryRowContext(ctx, query, digest, r.now().UnixMilli()).Scan(&sealed, &createdAt, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	token, err := r.sealer.Open(sealed, digest)
	if err != nil {
		return nil, fmt.Errorf("open session credential: %w", err)
	}

	return &model.Session{
		ID:         id,
		Credential: model.CredentialFromToken(token),
		CreatedAt:  time.UnixMilli(createdAt).UTC(),
		ExpiresAt:  time.UnixMilli(expires).UTC(),
	}, nil
}

// Delete removes the session for id.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sessions WHERE id_digest = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, sealer.Digest(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges every session that expired at or before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= ?`
	res, err := r.db.Writer.ExecContext(ctx, query, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
