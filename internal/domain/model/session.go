package model

import "time"

// Session is a server-side record that maps an opaque session id to the
// credential it was issued for. Only used when sessions are kept server-side.
type Session struct {
	ID         string
	Credential Credential
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is past its absolute expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
