// Package session implements the generic 2PC session state machine shared
// by every protocol in this module (§3 "Protocol session", §5 "Session
// lifecycle & cancellation"): a role (Owner/Helper), a monotonically
// enforced step sequence, a per-session source of randomness, and
// zeroization of session secrets on abort.
//
// Grounded on the teacher's session/session.go: Session.sequenceCheck's
// "seen-messages" monotonic check and session_manager's destroy-channel
// idiom are kept verbatim in spirit, generalized from TLSNotary's fixed
// 36-message handshake to an arbitrary sequence of protocol runs (this
// module's sessions run exactly one sub-protocol end to end, so the
// sequence enforced is "Run must be called at most once, after which the
// session is done").
package session

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/ciphermed/mpccompare/protoerr"
	"github.com/ciphermed/mpccompare/utils"
)

// NewSid generates a random session identifier for callers (the CLI
// driver, ad hoc tooling) that have no natural external id to key a
// session by, mirroring the teacher's use of utils.RandString for
// per-session storage directory names.
func NewSid() string {
	return utils.RandString()
}

// Role identifies which side of a 2PC protocol a session plays.
type Role int

const (
	RoleOwner Role = iota
	RoleHelper
)

func (r Role) String() string {
	if r == RoleOwner {
		return "owner"
	}
	return "helper"
}

// Protocol is anything this session can drive to completion. Every
// back end in lsic/dgk/gccompare/enccompare/argmax/csswitch satisfies
// this with its own Run method.
type Protocol interface {
	Run() error
}

// Session wraps one run of a Protocol with sequencing, panic-to-abort
// recovery, and secret zeroization, matching the teacher's
// sequenceCheck/DestroyChan idiom generalized to this module's
// single-shot (not 36-step) protocols.
type Session struct {
	// Sid identifies this session to its SessionManager.
	Sid string
	// Role records which side of the 2PC protocol this session plays.
	Role Role
	// Rand is a randomness source owned by this session (crypto/rand.Reader
	// by default). Nothing in this module reads it: the back-end packages
	// draw from crypto/rand directly, so substituting it does not change
	// their randomness.
	Rand io.Reader
	// DestroyChan is used to signal the owning SessionManager that this
	// session should be torn down, exactly as the teacher's
	// session.DestroyChan/session_manager.monitorDestroyChan pair works.
	DestroyChan chan string

	mu      sync.Mutex
	started bool
	done    bool
	secrets [][]byte
}

// New constructs a session. destroyChan may be nil if the caller manages
// lifecycle itself (e.g. in tests).
func New(sid string, role Role, destroyChan chan string) *Session {
	return &Session{
		Sid:         sid,
		Role:        role,
		Rand:        rand.Reader,
		DestroyChan: destroyChan,
	}
}

// TrackSecret registers a buffer to be zeroized when the session aborts
// or finishes, mirroring the teacher's practice of keeping TLS key
// shares (cwkShare, civShare, ...) as session fields so they can be
// wiped rather than left to the garbage collector.
func (s *Session) TrackSecret(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets = append(s.secrets, b)
}

// Run executes p exactly once for this session. A session may run only
// one protocol to completion; calling Run twice is a sequencing
// violation, the generalization of the teacher's per-message
// sequenceCheck to a session that runs a single sub-protocol.
func (s *Session) Run(p Protocol) (err error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return protoerr.Errorf(protoerr.Invariant, "session.Run", "session %s already started", s.Sid)
	}
	s.started = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.abort()
			err = protoerr.Errorf(protoerr.Invariant, "session.Run", "session %s panicked: %v", s.Sid, r)
			return
		}
		if err != nil {
			s.abort()
		} else {
			s.finish()
		}
	}()

	return p.Run()
}

// abort zeroizes tracked secrets and signals the session manager to
// destroy this session, matching the teacher's pattern of sending Sid
// down DestroyChan from every failure path in session.go's OT-backed
// steps.
func (s *Session) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	protoerr.Zeroize(s.secrets...)
	if s.DestroyChan != nil {
		s.DestroyChan <- s.Sid
	}
}

// finish zeroizes tracked secrets and signals normal completion. A
// session's secrets (key shares, blinding masks) have no use once the
// protocol result has been returned to the caller.
func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	protoerr.Zeroize(s.secrets...)
	if s.DestroyChan != nil {
		s.DestroyChan <- s.Sid
	}
}

// Done reports whether this session has finished or aborted.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
