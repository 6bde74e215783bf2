// Package utils holds the small set of generic byte-slice helpers this
// module's protocol packages and CLI driver share. It is a deliberately
// trimmed descendant of the teacher's utils.go: the teacher's package
// also carried AES-GCM/AES-CTR/AES-ECB session-key encryption, GHASH
// block multiplication, ECDSA signing, and SHA-256 mid-state resumption
// helpers, all specific to driving TLS record encryption inside a
// garbled circuit (spec.md's Non-goals exclude that concrete protocol
// entirely). What remains below — byte XOR, concatenation, a hard
// invariant check, and random byte/string generation — is used by the
// back ends built in this module.
package utils

import (
	"crypto/rand"
	mathrand "math/rand"
	"time"
)

// Assert panics if condition is false. Reserved for invariants that can
// only be violated by a programming error, never by untrusted input from
// a peer (peer-supplied violations use protoerr instead, per §7).
func Assert(condition bool) {
	if !condition {
		panic("assert failed")
	}
}

// XorBytes returns the bytewise XOR of a and b, which must have equal
// length. Used to one-time-pad OT messages against their oracle-derived
// keys (ot.Sender.sendOne/ot.Receiver.receiveOne).
func XorBytes(a, b []byte) []byte {
	Assert(len(a) == len(b))
	c := make([]byte, len(a))
	for i := range a {
		c[i] = a[i] ^ b[i]
	}
	return c
}

// Concat joins slices into a new slice with a fresh underlying array.
func Concat(slices ...[]byte) []byte {
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	out := make([]byte, 0, total)
	for _, s := range slices {
		out = append(out, s...)
	}
	return out
}

// GetRandom returns size cryptographically random bytes.
func GetRandom(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// RandString returns a short random alphanumeric string, used to mint
// session identifiers when the caller has no natural external id to key
// a session by (see session.NewSid).
func RandString() string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	r := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	b := make([]byte, 10)
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return string(b)
}
