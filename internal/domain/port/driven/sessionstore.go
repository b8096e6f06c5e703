package driven

import (
	"context"
	"errors"
	"time"

	"github.com/fdagency/portal/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by SessionStore operations when
// PORTAL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set PORTAL_SECRET_KEY")

// SessionStore defines the driven port for server-side session persistence.
// Adapters seal the credential at rest and key records by a digest of the
// session id, never the id itself.
type SessionStore interface {
	// Create stores a new session. The session id must be unique.
	Create(ctx context.Context, s model.Session) error

	// Get returns the session for id, or (nil, nil) if none exists or it has expired.
	Get(ctx context.Context, id string) (*model.Session, error)

	// Delete removes the session for id. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired purges sessions that expired at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
