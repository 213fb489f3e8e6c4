// Package qerr defines the QUIC connection-error taxonomy: transport and
// application errors, and the local non-fatal receive-drain signals.
// Grounded on quic-go's internal/qerr/error_codes.go.
package qerr

import (
	"errors"
	"fmt"
)

// TransportErrorCode is one of the 16-bit transport error codes spec.md §7
// names. Only the subset this core raises or forwards is enumerated;
// others still round-trip through String() via the default case.
type TransportErrorCode uint64

const (
	NoError                 TransportErrorCode = 0x0
	InternalError           TransportErrorCode = 0x1
	FlowControlError        TransportErrorCode = 0x3
	ProtocolViolation       TransportErrorCode = 0xa
	TransportParameterError TransportErrorCode = 0x8
	VersionNegotiationError TransportErrorCode = 0x11
)

func (c TransportErrorCode) String() string {
	switch c {
	case NoError:
		return "NO_ERROR"
	case InternalError:
		return "INTERNAL_ERROR"
	case FlowControlError:
		return "FLOW_CONTROL_ERROR"
	case ProtocolViolation:
		return "PROTOCOL_VIOLATION"
	case TransportParameterError:
		return "TRANSPORT_PARAMETER_ERROR"
	case VersionNegotiationError:
		return "VERSION_NEGOTIATION_ERROR"
	default:
		return fmt.Sprintf("unknown transport error code: %#x", uint64(c))
	}
}

// ApplicationErrorCode is an opaque application-defined 16-bit code,
// surfaced by APPLICATION_CLOSE frames.
type ApplicationErrorCode uint64

// ErrClosedConnection is the sentinel errors.Is targets compose against,
// mirroring the teacher's net.ErrClosed composition in errors_go116.go.
var ErrClosedConnection = errors.New("qerr: connection closed")

// TransportError is a connection error of class Transport (spec.md §3's
// Connection error entity).
type TransportError struct {
	ErrorCode    TransportErrorCode
	ErrorMessage string
	FrameType    uint64 // 0 if no specific frame triggered this error
	Remote       bool   // true if this error was received from the peer, not raised locally
}

func (e *TransportError) Error() string {
	if e.ErrorMessage == "" {
		return e.ErrorCode.String()
	}
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.ErrorMessage)
}

func (e *TransportError) Is(target error) bool {
	if _, ok := target.(*TransportError); ok {
		return true
	}
	return target == ErrClosedConnection
}

// ApplicationError is a connection error of class Application.
type ApplicationError struct {
	ErrorCode    ApplicationErrorCode
	ErrorMessage string
	Remote       bool
}

func (e *ApplicationError) Error() string {
	if e.ErrorMessage == "" {
		return fmt.Sprintf("application error %#x", uint64(e.ErrorCode))
	}
	return fmt.Sprintf("application error %#x: %s", uint64(e.ErrorCode), e.ErrorMessage)
}

func (e *ApplicationError) Is(target error) bool {
	if _, ok := target.(*ApplicationError); ok {
		return true
	}
	return target == ErrClosedConnection
}

// NewTransportError builds a locally-raised transport error. FrameType
// (spec.md §7's "triggering-frame type") is left 0; a caller that knows
// the triggering frame sets it on the returned value.
func NewTransportError(code TransportErrorCode, msg string) *TransportError {
	return &TransportError{ErrorCode: code, ErrorMessage: msg}
}

// PeerTransportError wraps a transport error code received from the peer
// in a CONNECTION_CLOSE frame.
func PeerTransportError(code TransportErrorCode, msg string) *TransportError {
	return &TransportError{ErrorCode: code, ErrorMessage: msg, Remote: true}
}

// PeerApplicationError wraps an application error code received from the
// peer in an APPLICATION_CLOSE frame.
func PeerApplicationError(code ApplicationErrorCode, msg string) *ApplicationError {
	return &ApplicationError{ErrorCode: code, ErrorMessage: msg, Remote: true}
}

// IdleTimeoutError is returned when the connection transitions to draining
// because of an idle timeout; spec.md §4.1 models this as NO_ERROR rather
// than a distinct error class, so it embeds one.
type IdleTimeoutError struct{ *TransportError }

func NewIdleTimeoutError() *IdleTimeoutError {
	return &IdleTimeoutError{&TransportError{ErrorCode: NoError, ErrorMessage: "Idle Timeout"}}
}

func (e *IdleTimeoutError) Is(target error) bool {
	if _, ok := target.(*IdleTimeoutError); ok {
		return true
	}
	return target == ErrClosedConnection
}

// RecvResult tags the outcome of dequeuing a packet from the receive
// queue (C2). These never propagate as a ConnectionError; they only
// control the receive-drain loop per spec.md §7.
type RecvResult uint8

const (
	RecvSuccess RecvResult = iota
	RecvNoPacket
	RecvNotReady
	RecvIgnored
	RecvUnsupported
	RecvFailed
)

func (r RecvResult) String() string {
	switch r {
	case RecvSuccess:
		return "Success"
	case RecvNoPacket:
		return "NoPacket"
	case RecvNotReady:
		return "NotReady"
	case RecvIgnored:
		return "Ignored"
	case RecvUnsupported:
		return "Unsupported"
	case RecvFailed:
		return "Failed"
	default:
		return "unknown"
	}
}

// ContinueDraining reports whether the receive-drain loop (spec.md §4.2)
// should keep dequeuing after seeing this result.
func (r RecvResult) ContinueDraining() bool {
	return r == RecvSuccess || r == RecvIgnored
}
