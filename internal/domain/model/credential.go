package model

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
)

// ErrEmptyCredential is returned when a username or password is missing.
var ErrEmptyCredential = errors.New("username and password are required")

// basicScheme is the Authorization scheme the record system accepts.
const basicScheme = "Basic "

// Credential is the opaque Basic-Auth token for one browser session:
// base64("username:password"). Its String method is redacted so the value
// cannot leak through logging by accident.
type Credential struct {
	token string
}

// NewCredential builds the Basic-Auth token from a username and password.
// Both must be non-empty.
func NewCredential(username, password string) (Credential, error) {
	if username == "" || password == "" {
		return Credential{}, ErrEmptyCredential
	}
	raw := username + ":" + password
	return Credential{token: base64.StdEncoding.EncodeToString([]byte(raw))}, nil
}

// CredentialFromToken wraps an already-encoded token, e.g. one read back from
// a cookie. An empty token yields the zero Credential.
func CredentialFromToken(token string) Credential {
	return Credential{token: strings.TrimSpace(token)}
}

// Token returns the base64 token as stored in the session cookie.
func (c Credential) Token() string {
	return c.token
}

// IsZero reports whether the credential is absent.
func (c Credential) IsZero() bool {
	return c.token == ""
}

// AuthorizationHeader returns the value for the Authorization request header.
func (c Credential) AuthorizationHeader() string {
	return basicScheme + c.token
}

// String implements fmt.Stringer without exposing the token.
func (c Credential) String() string {
	if c.IsZero() {
		return "Credential(none)"
	}
	return "Credential(redacted)"
}

// LogValue implements slog.LogValuer so the token never reaches log output.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}
