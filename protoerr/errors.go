// Package protoerr defines the error taxonomy shared by every protocol
// package in this module. All five kinds are fatal to the session that
// raises them: callers must not retry within the same session, and any
// keys or RNG state belonging to that session must be zeroized (see
// Zeroize).
package protoerr

import "fmt"

// Kind tags which of the five error classes an error belongs to.
type Kind int

const (
	// Transport covers short reads, oversize frames, and malformed framing.
	Transport Kind = iota
	// Decode covers messages that fail to parse: unknown tag, field out of range.
	Decode
	// Protocol covers a message that doesn't match the current state, a
	// value outside its statistical bound, or an OT verification failure.
	Protocol
	// Crypto covers decryption failure or key mismatch.
	Crypto
	// Invariant covers an internal consistency check failing: a bug, or an
	// adversarial peer.
	Invariant
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Decode:
		return "decode"
	case Protocol:
		return "protocol"
	case Crypto:
		return "crypto"
	case Invariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is a session-fatal error tagged with its Kind.
type Error struct {
	Kind Kind
	Op   string // component/operation that raised it, e.g. "lsic.A.Run"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error wrapping a plain error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is New with a formatted message.
func Errorf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err is a protoerr.Error of the given Kind.
func Is(err error, kind Kind) bool {
	pe, ok := err.(*Error)
	return ok && pe.Kind == kind
}

// Zeroize overwrites every byte slice with zeros. Call it on any secret
// material (RNG seeds, ephemeral keys, label tables) owned by a session
// that is aborting, per spec §5 "Cancellation & timeouts".
func Zeroize(bufs ...[]byte) {
	for _, b := range bufs {
		for i := range b {
			b[i] = 0
		}
	}
}
