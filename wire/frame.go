// Package wire implements the length-prefixed duplex stream framing
// contract of spec.md §6: each message is a 4-byte big-endian length
// prefix (counting the body only) followed by the body. It is the
// transport-level contract every protocol state machine in this module
// is written against; it does not implement the TCP accept loop or key
// exchange, which spec.md marks out of scope.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/ciphermed/mpccompare/protoerr"
)

const headerSize = 4

// DefaultMaxFrame is the default cap on accepted frame bodies. Chosen well
// above the largest single message this module produces (a garbled
// comparison circuit's table for l=1024 is a few hundred KB) while still
// rejecting absurd or adversarial lengths.
const DefaultMaxFrame = 64 * 1024 * 1024

// Stream is a length-prefixed duplex message stream over an underlying
// io.ReadWriter (typically a net.Conn, but any ReadWriter works — tests
// in this module commonly pair two Streams over a net.Pipe).
type Stream struct {
	rw      io.ReadWriter
	maxSize uint32
	// Stats tracks protocol metadata (messages and bytes exchanged),
	// populated as messages pass through. This is observable protocol
	// metadata, not a timer, and is kept rather than chasing spec.md's
	// "timers are out of scope" Non-goal.
	Stats Stats
}

// Stats accumulates counters about a Stream's traffic.
type Stats struct {
	MessagesSent int
	MessagesRecv int
	BytesSent    uint64
	BytesRecv    uint64
}

// New wraps rw with the default max frame size.
func New(rw io.ReadWriter) *Stream {
	return &Stream{rw: rw, maxSize: DefaultMaxFrame}
}

// NewSized wraps rw with an explicit max accepted frame size.
func NewSized(rw io.ReadWriter, maxSize uint32) *Stream {
	return &Stream{rw: rw, maxSize: maxSize}
}

// Send writes one length-prefixed frame.
func (s *Stream) Send(body []byte) error {
	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := s.rw.Write(hdr[:]); err != nil {
		return protoerr.New(protoerr.Transport, "wire.Send", err)
	}
	if len(body) > 0 {
		if _, err := s.rw.Write(body); err != nil {
			return protoerr.New(protoerr.Transport, "wire.Send", err)
		}
	}
	s.Stats.MessagesSent++
	s.Stats.BytesSent += uint64(headerSize + len(body))
	return nil
}

// Recv reads one length-prefixed frame, rejecting lengths beyond the
// configured cap.
func (s *Stream) Recv() ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(s.rw, hdr[:]); err != nil {
		return nil, protoerr.New(protoerr.Transport, "wire.Recv", err)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > s.maxSize {
		return nil, protoerr.Errorf(protoerr.Transport, "wire.Recv",
			"frame of %d bytes exceeds cap of %d", n, s.maxSize)
	}
	body := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(s.rw, body); err != nil {
			return nil, protoerr.New(protoerr.Transport, "wire.Recv", err)
		}
	}
	s.Stats.MessagesRecv++
	s.Stats.BytesRecv += uint64(headerSize + n)
	return body, nil
}

// PutPadded: big-endian, fixed-width, left-zero-padded integer encoding for
// group elements and multi-precision integers, per spec.md §6.
func PutPadded(dst []byte, v []byte) {
	if len(v) > len(dst) {
		panic("wire: value wider than destination width")
	}
	off := len(dst) - len(v)
	for i := range dst {
		if i < off {
			dst[i] = 0
		} else {
			dst[i] = v[i-off]
		}
	}
}
