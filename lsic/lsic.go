// Package lsic implements a bit-serial secure integer comparison back end
// over the QR (Goldwasser-Micali) cryptosystem: party A holds a and the GM
// public key, party B holds b and the GM private key, and after running
// the protocol A holds a single GM ciphertext that B alone can decrypt to
// learn a < b. This is one of the interchangeable bit-comparison back
// ends of spec.md §4.4 (alongside dgk and gccompare).
//
// Grounded on original_source/src/mpc/test_mpc.cc's LSIC_A/LSIC_B/
// runProtocol usage contract (party A constructed from (a, nbits, gm),
// party B from (b, nbits, gm_priv), B decrypts party A's output()). The
// header-only original doesn't specify the per-round interaction, so the
// protocol below is a from-scratch, self-consistent bit-serial design: at
// each bit position it folds in an "all higher bits equal" and "decided
// less-than" running state, computed via a two-party secure-AND
// subroutine (crypto/gm blinding + this module's ot OT-combiner) rather
// than any single-party homomorphic op, since GM is only XOR-homomorphic.
//
// secureAndB re-randomizes the ciphertext it returns to A (crypto/gm's
// Rerand) before sending it: without that step, the unmasked message is
// byte-identical to one of the four candidate ciphertexts A already holds
// from computing its own side of the same round, letting A recover B's
// operand bits for that round by local byte comparison alone, with no
// cryptanalysis needed. Re-randomizing makes the returned ciphertext
// unlinkable to any of A's candidates without the GM private key, which A
// never holds.
package lsic

import (
	"crypto/rand"
	"crypto/sha256"

	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/ot"
	"github.com/ciphermed/mpccompare/protoerr"
	"github.com/ciphermed/mpccompare/wire"
)

const padLen = 16

// A is the party holding the cleartext value a and the GM public key.
// After Run, Output holds a GM ciphertext (under B's key) of the bit
// a < b.
type A struct {
	a      uint64
	l      int
	pub    *gm.PublicKey
	stream *wire.Stream
	Output *gm.Ciphertext
}

// B is the party holding the cleartext value b and the GM private key.
type B struct {
	b      uint64
	l      int
	priv   *gm.PrivateKey
	stream *wire.Stream
}

// NewA constructs the A-side party for an l-bit comparison.
func NewA(a uint64, l int, pub *gm.PublicKey, stream *wire.Stream) *A {
	return &A{a: a, l: l, pub: pub, stream: stream}
}

// NewB constructs the B-side party for an l-bit comparison.
func NewB(b uint64, l int, priv *gm.PrivateKey, stream *wire.Stream) *B {
	return &B{b: b, l: l, priv: priv, stream: stream}
}

// Result returns the GM ciphertext produced by Run, satisfying
// enccompare's back-end-agnostic BitCompareA interface.
func (p *A) Result() *gm.Ciphertext { return p.Output }

func bitAt(v uint64, l, i int) int {
	return int((v >> uint(l-1-i)) & 1)
}

// Run executes A's side of the protocol. Call concurrently with the
// matching B.Run over the paired ends of the same stream.
func (p *A) Run() error {
	byteLen := p.pub.ByteLen()

	eq, err := p.pub.Encrypt(1)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "lsic.A.Run", err)
	}
	lt, err := p.pub.Encrypt(0)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "lsic.A.Run", err)
	}

	for i := 0; i < p.l; i++ {
		ai := bitAt(p.a, p.l, i)

		cbBytes, err := p.stream.Recv()
		if err != nil {
			return err
		}
		cb := gm.FromBytes(cbBytes)

		encAi, err := p.pub.Encrypt(ai)
		if err != nil {
			return protoerr.New(protoerr.Crypto, "lsic.A.Run", err)
		}
		diffBit := p.pub.XorCt(encAi, cb)
		eqBit := p.pub.Neg(diffBit)

		var lessI *gm.Ciphertext
		if ai == 0 {
			lessI = cb
		} else {
			lessI, err = p.pub.Encrypt(0)
			if err != nil {
				return protoerr.New(protoerr.Crypto, "lsic.A.Run", err)
			}
		}

		contrib, err := secureAndA(p.stream, p.pub, eq, lessI, byteLen)
		if err != nil {
			return err
		}
		lt = p.pub.XorCt(lt, contrib)

		eq, err = secureAndA(p.stream, p.pub, eq, eqBit, byteLen)
		if err != nil {
			return err
		}
	}

	p.Output = lt
	return nil
}

// Run executes B's side of the protocol.
func (p *B) Run() error {
	pub := p.priv.PublicKey
	byteLen := pub.ByteLen()

	for i := 0; i < p.l; i++ {
		bi := bitAt(p.b, p.l, i)
		cb, err := pub.Encrypt(bi)
		if err != nil {
			return protoerr.New(protoerr.Crypto, "lsic.B.Run", err)
		}
		if err := p.stream.Send(cb.Bytes(byteLen)); err != nil {
			return err
		}

		if err := secureAndB(p.stream, p.priv, byteLen); err != nil {
			return err
		}
		if err := secureAndB(p.stream, p.priv, byteLen); err != nil {
			return err
		}
	}
	return nil
}

// secureAndA runs the sender/A side of a two-party secure AND of two GM
// ciphertexts it holds, returning a fresh GM ciphertext of their AND. A
// blinds both operands with random bits, sends the blinded ciphertexts to
// B for decryption, then acts as OT sender so B can retrieve exactly the
// one (of four) precomputed correction terms matching the masked bits B
// observed, without A learning which one B picked and without B learning
// the unmasked operand bits.
func secureAndA(stream *wire.Stream, pub *gm.PublicKey, x, y *gm.Ciphertext, byteLen int) (*gm.Ciphertext, error) {
	ra := randBit()
	rb := randBit()

	encRa, err := pub.Encrypt(ra)
	if err != nil {
		return nil, err
	}
	encRb, err := pub.Encrypt(rb)
	if err != nil {
		return nil, err
	}
	ce := pub.XorCt(x, encRa)
	cl := pub.XorCt(y, encRb)
	if err := stream.Send(ce.Bytes(byteLen)); err != nil {
		return nil, err
	}
	if err := stream.Send(cl.Bytes(byteLen)); err != nil {
		return nil, err
	}

	padE0, err := randBytes(padLen)
	if err != nil {
		return nil, err
	}
	padE1, err := randBytes(padLen)
	if err != nil {
		return nil, err
	}
	padL0, err := randBytes(padLen)
	if err != nil {
		return nil, err
	}
	padL1, err := randBytes(padLen)
	if err != nil {
		return nil, err
	}

	sender := ot.NewSender(stream, padLen)
	if err := sender.Send([][2][]byte{{padE0, padE1}, {padL0, padL1}}); err != nil {
		return nil, err
	}

	pick := func(bit int, p0, p1 []byte) []byte {
		if bit == 0 {
			return p0
		}
		return p1
	}

	for e := 0; e < 2; e++ {
		for l := 0; l < 2; l++ {
			desired := (e ^ ra) & (l ^ rb)
			desiredCt, err := pub.Encrypt(desired)
			if err != nil {
				return nil, err
			}
			combiner := combine(pick(e, padE0, padE1), pick(l, padL0, padL1), byteLen)
			msg := xorBytes(desiredCt.Bytes(byteLen), combiner)
			if err := stream.Send(msg); err != nil {
				return nil, err
			}
		}
	}

	resultBytes, err := stream.Recv()
	if err != nil {
		return nil, err
	}
	return gm.FromBytes(resultBytes), nil
}

// secureAndB runs the receiver/B side of one secureAnd call.
func secureAndB(stream *wire.Stream, priv *gm.PrivateKey, byteLen int) error {
	ceBytes, err := stream.Recv()
	if err != nil {
		return err
	}
	clBytes, err := stream.Recv()
	if err != nil {
		return err
	}
	eb, err := priv.Decrypt(gm.FromBytes(ceBytes))
	if err != nil {
		return protoerr.New(protoerr.Crypto, "lsic.secureAndB", err)
	}
	lb, err := priv.Decrypt(gm.FromBytes(clBytes))
	if err != nil {
		return protoerr.New(protoerr.Crypto, "lsic.secureAndB", err)
	}

	receiver := ot.NewReceiver(stream, padLen)
	pads, err := receiver.Receive([]bool{eb == 1, lb == 1})
	if err != nil {
		return err
	}
	padE, padL := pads[0], pads[1]

	var msgs [2][2][]byte
	for e := 0; e < 2; e++ {
		for l := 0; l < 2; l++ {
			m, err := stream.Recv()
			if err != nil {
				return err
			}
			msgs[e][l] = m
		}
	}

	combiner := combine(padE, padL, byteLen)
	resultBytes := xorBytes(msgs[eb][lb], combiner)

	// Unmask cancels to exactly A's desiredCt_{eb,lb} byte for byte: A
	// holds all four candidates it computed locally and could otherwise
	// match this message against them to recover (eb,lb) — i.e. B's
	// operand bits for this round. Re-randomizing before sending back
	// produces a ciphertext of the same plaintext bit with independent
	// randomness, unlinkable to any of A's four candidates without the
	// private key A never holds.
	result, err := priv.PublicKey.Rerand(gm.FromBytes(resultBytes))
	if err != nil {
		return protoerr.New(protoerr.Crypto, "lsic.secureAndB", err)
	}
	return stream.Send(result.Bytes(byteLen))
}

func combine(padE, padL []byte, outLen int) []byte {
	out := make([]byte, 0, outLen)
	for counter := byte(0); len(out) < outLen; counter++ {
		h := sha256.New()
		h.Write(padE)
		h.Write(padL)
		h.Write([]byte{counter})
		out = append(out, h.Sum(nil)...)
	}
	return out[:outLen]
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i%len(b)]
	}
	return out
}

func randBit() int {
	b, err := randBytes(1)
	if err != nil {
		panic(err)
	}
	return int(b[0] & 1)
}

func randBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
