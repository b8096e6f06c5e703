package model

// PersonKind is the discriminator the record system writes into each person
// record's "type" field.
type PersonKind string

const (
	PersonKindClient   PersonKind = "CLIENT"
	PersonKindEmployee PersonKind = "EMPLOYEE"
)

// ErrorClass names the client-facing failure classes the proxy can produce.
type ErrorClass string

const (
	ErrorClassUnauthenticated      ErrorClass = "unauthenticated"
	ErrorClassAuthenticationFailed ErrorClass = "authentication_failed"
	ErrorClassUpstream             ErrorClass = "upstream_error"
	ErrorClassUnreachable          ErrorClass = "upstream_unreachable"
	ErrorClassTimeout              ErrorClass = "upstream_timeout"
	ErrorClassMalformed            ErrorClass = "malformed_response"
)
