package quic

import "github.com/qcore/quicendpoint/internal/qerr"

// Re-exported so callers outside this module never need to import the
// internal qerr package directly, mirroring the teacher's errors.go
// type-alias block.
type (
	TransportError   = qerr.TransportError
	ApplicationError = qerr.ApplicationError
	IdleTimeoutError = qerr.IdleTimeoutError
)

type (
	TransportErrorCode   = qerr.TransportErrorCode
	ApplicationErrorCode = qerr.ApplicationErrorCode
)

const (
	NoError                 = qerr.NoError
	InternalError           = qerr.InternalError
	FlowControlError        = qerr.FlowControlError
	ProtocolViolation       = qerr.ProtocolViolation
	TransportParameterError = qerr.TransportParameterError
	VersionNegotiationError = qerr.VersionNegotiationError
)

// ErrClosedConnection is returned by operations attempted against a
// connection that has already reached the closed state.
var ErrClosedConnection = qerr.ErrClosedConnection

// ConnError is the sum type any internal handler returns to signal that
// the connection must close (spec.md §3's "Connection error" entity). It
// is always a *TransportError, an *ApplicationError, or an
// *IdleTimeoutError (which wraps a NO_ERROR *TransportError).
type ConnError = error

// NewTransportError constructs a locally-raised transport-class
// ConnError.
func NewTransportError(code TransportErrorCode, msg string) *TransportError {
	return qerr.NewTransportError(code, msg)
}
