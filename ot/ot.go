// Package ot implements 1-out-of-2 oblivious transfer (Naor-Pinkas) over a
// prime-order Diffie-Hellman group, batched over many OT instances per
// spec.md §4.2 (C2).
//
// Grounded on original_source/src/net/oblivious_transfer.hh's NPState /
// ObliviousTransfer contract: a (p, g, q) group, a field_size-byte export
// of group elements, and a random-oracle hash (there SHA-1) turning a DH
// element into a symmetric key used to one-time-pad a message. This module
// replaces the (p, g, q) subgroup-of-Z_p* with the prime-order Ristretto255
// group (github.com/bwesterb/go-ristretto, a genuine dependency of the
// teacher repo), and generalizes the single SHA-1 block hash into a
// pluggable random oracle (spec.md §9 open question). Sender/Receiver
// naming and the one-struct-per-role split follow
// other_examples/..._markkurossi-mpc__ot-iknp.go.go's IKNPSender/
// IKNPReceiver shape.
package ot

import (
	"crypto/sha256"
	"hash"

	r255 "github.com/bwesterb/go-ristretto"

	"github.com/ciphermed/mpccompare/protoerr"
	"github.com/ciphermed/mpccompare/utils"
	"github.com/ciphermed/mpccompare/wire"
)

// HashFunc constructs the random oracle used to derive one-time-pad keys
// from DH group elements. Defaults to SHA-256; spec.md §9 leaves the exact
// hash unspecified, so legacy transcripts can select SHA-1 via WithHash.
type HashFunc func() hash.Hash

// Params configures an OT session's random oracle and message width.
type Params struct {
	Hash   HashFunc
	MsgLen int // byte length of each of the two OT messages
}

// WithHash overrides the default random oracle (SHA-256).
func WithHash(h HashFunc) func(*Params) {
	return func(p *Params) { p.Hash = h }
}

func defaultParams(msgLen int) *Params {
	return &Params{Hash: sha256.New, MsgLen: msgLen}
}

const pointBytes = 32

// Sender runs the sending side of batched 1-out-of-2 OT: it holds both
// messages (m0, m1) for each instance and never learns the receiver's
// choice bit.
type Sender struct {
	params *Params
	stream *wire.Stream
}

// Receiver runs the receiving side: it holds one choice bit per instance
// and learns exactly the chosen message, nothing about the other.
type Receiver struct {
	params *Params
	stream *wire.Stream
}

// NewSender constructs a Sender over an established frame stream.
func NewSender(s *wire.Stream, msgLen int, opts ...func(*Params)) *Sender {
	p := defaultParams(msgLen)
	for _, o := range opts {
		o(p)
	}
	return &Sender{params: p, stream: s}
}

// NewReceiver constructs a Receiver over an established frame stream.
func NewReceiver(s *wire.Stream, msgLen int, opts ...func(*Params)) *Receiver {
	p := defaultParams(msgLen)
	for _, o := range opts {
		o(p)
	}
	return &Receiver{params: p, stream: s}
}

// Send runs one Naor-Pinkas OT instance per (m0, m1) pair. The caller must
// run a matching Receiver.Receive with the same number of instances on the
// other end of the stream.
func (s *Sender) Send(pairs [][2][]byte) error {
	for idx, pair := range pairs {
		if len(pair[0]) != s.params.MsgLen || len(pair[1]) != s.params.MsgLen {
			return protoerr.Errorf(protoerr.Invariant, "ot.Send",
				"instance %d: message length mismatch", idx)
		}
		if err := s.sendOne(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

// sendOne runs the sender side of a single OT instance:
//
//	1. sender -> receiver: C, a fresh random group element
//	2. receiver -> sender: PK0 (PK1 = C - PK0)
//	3. sender -> receiver: A0=g^r0, A1=g^r1, enc0=H(r0*PK0) xor m0, enc1=H(r1*PK1) xor m1
func (s *Sender) sendOne(m0, m1 []byte) error {
	var c r255.Point
	c.Rand()
	if err := s.stream.Send(pointToBytes(&c)); err != nil {
		return err
	}

	pk0Bytes, err := s.stream.Recv()
	if err != nil {
		return err
	}
	var pk0 r255.Point
	if err := bytesToPoint(&pk0, pk0Bytes); err != nil {
		return protoerr.New(protoerr.Decode, "ot.sendOne", err)
	}
	var pk1 r255.Point
	pk1.Sub(&c, &pk0)

	var r0, r1 r255.Scalar
	r0.Rand()
	r1.Rand()

	var a0, a1 r255.Point
	a0.ScalarMultBase(&r0)
	a1.ScalarMultBase(&r1)

	var dh0, dh1 r255.Point
	dh0.ScalarMult(&pk0, &r0)
	dh1.ScalarMult(&pk1, &r1)

	k0 := s.params.oracle(pointToBytes(&dh0))
	k1 := s.params.oracle(pointToBytes(&dh1))

	if err := s.stream.Send(pointToBytes(&a0)); err != nil {
		return err
	}
	if err := s.stream.Send(pointToBytes(&a1)); err != nil {
		return err
	}
	if err := s.stream.Send(utils.XorBytes(k0, m0)); err != nil {
		return err
	}
	return s.stream.Send(utils.XorBytes(k1, m1))
}

// Receive runs len(choices) Naor-Pinkas OT instances, returning the
// message selected by each entry.
func (r *Receiver) Receive(choices []bool) ([][]byte, error) {
	out := make([][]byte, len(choices))
	for i, bit := range choices {
		m, err := r.receiveOne(bit)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (r *Receiver) receiveOne(bit bool) ([]byte, error) {
	cBytes, err := r.stream.Recv()
	if err != nil {
		return nil, err
	}
	var c r255.Point
	if err := bytesToPoint(&c, cBytes); err != nil {
		return nil, protoerr.New(protoerr.Decode, "ot.receiveOne", err)
	}

	var k r255.Scalar
	k.Rand()
	var pkChosen r255.Point
	pkChosen.ScalarMultBase(&k)

	var pk0, pk1 r255.Point
	if bit {
		pk1.Set(&pkChosen)
		pk0.Sub(&c, &pk1)
	} else {
		pk0.Set(&pkChosen)
	}

	if err := r.stream.Send(pointToBytes(&pk0)); err != nil {
		return nil, err
	}

	a0Bytes, err := r.stream.Recv()
	if err != nil {
		return nil, err
	}
	a1Bytes, err := r.stream.Recv()
	if err != nil {
		return nil, err
	}
	enc0, err := r.stream.Recv()
	if err != nil {
		return nil, err
	}
	enc1, err := r.stream.Recv()
	if err != nil {
		return nil, err
	}

	var aChosen r255.Point
	if bit {
		if err := bytesToPoint(&aChosen, a1Bytes); err != nil {
			return nil, protoerr.New(protoerr.Decode, "ot.receiveOne", err)
		}
	} else {
		if err := bytesToPoint(&aChosen, a0Bytes); err != nil {
			return nil, protoerr.New(protoerr.Decode, "ot.receiveOne", err)
		}
	}

	var dh r255.Point
	dh.ScalarMult(&aChosen, &k)
	key := r.params.oracle(pointToBytes(&dh))

	encChosen := enc0
	if bit {
		encChosen = enc1
	}
	return utils.XorBytes(key, encChosen), nil
}

func pointToBytes(p *r255.Point) []byte {
	b := p.Bytes()
	return b[:]
}

func bytesToPoint(p *r255.Point, b []byte) error {
	if len(b) != pointBytes {
		return protoerr.Errorf(protoerr.Decode, "ot.bytesToPoint", "bad point length %d", len(b))
	}
	var arr [pointBytes]byte
	copy(arr[:], b)
	return p.SetBytes(&arr)
}

// oracle expands the fixed-size DH-element digest into an n-byte keystream
// via counter-mode rehashing, matching the teacher contract's "block_size"
// parameter on a single SHA-1 block but generalized past one hash width.
func (p *Params) oracle(input []byte) []byte {
	out := make([]byte, 0, p.MsgLen)
	for counter := byte(0); len(out) < p.MsgLen; counter++ {
		h := p.Hash()
		h.Write(input)
		h.Write([]byte{counter})
		out = append(out, h.Sum(nil)...)
	}
	return out[:p.MsgLen]
}

