package driven

import (
	"context"
	"errors"

	"github.com/fdagency/portal/internal/domain/model"
)

var (
	// ErrUpstreamUnreachable is returned when the record system cannot be
	// reached at all (DNS, connection refused, reset).
	ErrUpstreamUnreachable = errors.New("record system unreachable")

	// ErrUpstreamTimeout is returned when the record system does not answer
	// within the configured upstream timeout.
	ErrUpstreamTimeout = errors.New("record system timed out")

	// ErrUpstreamResponseTooLarge is returned when a response body exceeds
	// the size the adapter is willing to buffer.
	ErrUpstreamResponseTooLarge = errors.New("record system response too large")
)

// UpstreamRequest is one call against the record system.
type UpstreamRequest struct {
	Method string
	// Path is relative to the record system base URL, e.g. "/api/people/7".
	Path string
	// RawQuery is the already-encoded query string without the leading '?'.
	RawQuery string
	// Body is forwarded verbatim as application/json when non-nil.
	Body       []byte
	Credential model.Credential
	// StatusOnly skips reading the response body; only Status is filled.
	StatusOnly bool
}

// UpstreamResponse is the raw record-system answer.
type UpstreamResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// RecordSystem defines the driven port for the external record system.
// Implementations never retry and never interpret status codes: any HTTP
// answer is returned as an UpstreamResponse. Transport failures are reported
// as ErrUpstreamUnreachable or ErrUpstreamTimeout, an oversized body as
// ErrUpstreamResponseTooLarge; a cancelled ctx is reported as ctx.Err().
type RecordSystem interface {
	Do(ctx context.Context, req UpstreamRequest) (*UpstreamResponse, error)

	// Ping checks that the record system answers HTTP at all, regardless of status.
	Ping(ctx context.Context) error
}
