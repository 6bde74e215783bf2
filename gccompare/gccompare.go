// Package gccompare implements the garbled-circuit back end for l-bit
// secure comparison (spec.md §4.4's "GC-Compare"): party A holds a,
// party B holds b and the GM private key, and after running the
// protocol A holds a GM ciphertext (under B's key) of a < b — the same
// output contract as lsic and dgk, so all three back ends are
// interchangeable behind enccompare.
//
// Grounded directly on original_source/src/mpc/garbled_comparison.cc,
// the one fully-worked-out reference in the pack for this protocol:
// GC_Compare_B holds b, the GM private key, and a random mask bit; it
// garbles the comparator circuit (gc.BuildLessThan, built identically
// and independently by both parties since it's a pure function of l)
// and is the one party able to derive its own input-wire labels
// straight from its known bits. GC_Compare_A holds only a, so per the
// source's own comment ("to get a_labels, you HAVE TO run some OT with
// B") A's input labels are fetched via 1-of-2 OT (this module's ot
// package) keyed on A's actual bits. A evaluates the garbled circuit
// (gc.Evaluate), decodes the blinded output bit (gc.Decode), and
// unblinds exactly as GC_Compare_A::unblind does: the result is B's
// enc_mask unchanged if the decoded bit is 0, or its homomorphic GM
// negation if the decoded bit is 1.
package gccompare

import (
	"crypto/rand"

	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/gc"
	"github.com/ciphermed/mpccompare/ot"
	"github.com/ciphermed/mpccompare/protoerr"
	"github.com/ciphermed/mpccompare/utils"
	"github.com/ciphermed/mpccompare/wire"
)

const labelLen = 16 // gc.Label is a 16-byte AES block.

// A is the evaluator: it holds a in the clear and evaluates B's garbled
// circuit. After Run, Output holds a GM ciphertext of a < b, decryptable
// only by B.
type A struct {
	a      uint64
	l      int
	gmPub  *gm.PublicKey
	stream *wire.Stream
	Output *gm.Ciphertext
}

// B is the garbler: it holds b in the clear and the GM private key.
type B struct {
	b      uint64
	l      int
	priv   *gm.PrivateKey
	stream *wire.Stream
}

// NewA constructs the evaluator side for an l-bit comparison.
func NewA(a uint64, l int, gmPub *gm.PublicKey, stream *wire.Stream) *A {
	return &A{a: a, l: l, gmPub: gmPub, stream: stream}
}

// NewB constructs the garbler side for an l-bit comparison.
func NewB(b uint64, l int, priv *gm.PrivateKey, stream *wire.Stream) *B {
	return &B{b: b, l: l, priv: priv, stream: stream}
}

// Result returns the GM ciphertext produced by Run, satisfying
// enccompare's back-end-agnostic BitCompareA interface.
func (p *A) Result() *gm.Ciphertext { return p.Output }

func bitAt(v uint64, l, i int) int {
	return int((v >> uint(l-1-i)) & 1)
}

// Run executes B's (the garbler's) side of the protocol. Call
// concurrently with the matching A.Run over the paired ends of the same
// stream.
func (p *B) Run() error {
	c := gc.BuildLessThan(p.l)
	garbled, err := gc.Garble(c)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "gccompare.B.Run", err)
	}

	for gi, g := range c.Gates {
		if g.Op.free() {
			continue
		}
		table := garbled.Gates[gi].Table
		buf := utils.Concat(table[0][:], table[1][:], table[2][:], table[3][:])
		if err := p.stream.Send(buf); err != nil {
			return err
		}
	}

	for i := 0; i < p.l; i++ {
		bi := bitAt(p.b, p.l, i)
		label := garbled.Wires[c.BWires[i]].Select(bi)
		if err := p.stream.Send(label[:]); err != nil {
			return err
		}
	}

	mask, err := randBit()
	if err != nil {
		return protoerr.New(protoerr.Crypto, "gccompare.B.Run", err)
	}
	maskLabel := garbled.Wires[c.MaskWire].Select(mask)
	if err := p.stream.Send(maskLabel[:]); err != nil {
		return err
	}
	constLabel := garbled.Wires[c.ConstOne].Select(1)
	if err := p.stream.Send(constLabel[:]); err != nil {
		return err
	}

	pairs := make([][2][]byte, p.l)
	for i := 0; i < p.l; i++ {
		w := garbled.Wires[c.AWires[i]]
		l0 := w.Select(0)
		l1 := w.Select(1)
		pairs[i] = [2][]byte{append([]byte{}, l0[:]...), append([]byte{}, l1[:]...)}
	}
	if err := ot.NewSender(p.stream, labelLen).Send(pairs); err != nil {
		return err
	}

	if err := p.stream.Send(garbled.Outputs[0][:]); err != nil {
		return err
	}
	if err := p.stream.Send(garbled.Outputs[1][:]); err != nil {
		return err
	}

	pub := p.priv.PublicKey
	encMask, err := pub.Encrypt(mask)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "gccompare.B.Run", err)
	}
	return p.stream.Send(encMask.Bytes(pub.ByteLen()))
}

// Run executes A's (the evaluator's) side of the protocol.
func (p *A) Run() error {
	c := gc.BuildLessThan(p.l)

	gates := make([]gc.GarbledGate, len(c.Gates))
	for gi, g := range c.Gates {
		if g.Op.free() {
			gates[gi] = gc.GarbledGate{Op: g.Op}
			continue
		}
		buf, err := p.stream.Recv()
		if err != nil {
			return err
		}
		if len(buf) != 4*labelLen {
			return protoerr.Errorf(protoerr.Decode, "gccompare.A.Run", "unexpected table width %d", len(buf))
		}
		var table [4]gc.Label
		for row := 0; row < 4; row++ {
			copy(table[row][:], buf[row*labelLen:(row+1)*labelLen])
		}
		gates[gi] = gc.GarbledGate{Op: g.Op, Table: table}
	}

	inputLabels := make(map[int]gc.Label, c.NumWires)

	for i := 0; i < p.l; i++ {
		lbl, err := recvLabel(p.stream)
		if err != nil {
			return err
		}
		inputLabels[c.BWires[i]] = lbl
	}
	maskLabel, err := recvLabel(p.stream)
	if err != nil {
		return err
	}
	inputLabels[c.MaskWire] = maskLabel
	constLabel, err := recvLabel(p.stream)
	if err != nil {
		return err
	}
	inputLabels[c.ConstOne] = constLabel

	choices := make([]bool, p.l)
	for i := 0; i < p.l; i++ {
		choices[i] = bitAt(p.a, p.l, i) == 1
	}
	aLabels, err := ot.NewReceiver(p.stream, labelLen).Receive(choices)
	if err != nil {
		return err
	}
	for i := 0; i < p.l; i++ {
		var lbl gc.Label
		copy(lbl[:], aLabels[i])
		inputLabels[c.AWires[i]] = lbl
	}

	out0, err := recvLabel(p.stream)
	if err != nil {
		return err
	}
	out1, err := recvLabel(p.stream)
	if err != nil {
		return err
	}

	outLabel, err := gc.Evaluate(c, &gc.Garbled{Gates: gates}, inputLabels)
	if err != nil {
		return err
	}
	bit, err := gc.Decode([2]gc.Label{out0, out1}, outLabel)
	if err != nil {
		return err
	}

	maskBytes, err := p.stream.Recv()
	if err != nil {
		return err
	}
	if len(maskBytes) != p.gmPub.ByteLen() {
		return protoerr.Errorf(protoerr.Decode, "gccompare.A.Run", "unexpected mask width %d", len(maskBytes))
	}
	encMask := gm.FromBytes(maskBytes)

	if bit == 0 {
		p.Output = encMask
	} else {
		p.Output = p.gmPub.Neg(encMask)
	}
	return nil
}

func recvLabel(s *wire.Stream) (gc.Label, error) {
	var lbl gc.Label
	b, err := s.Recv()
	if err != nil {
		return lbl, err
	}
	if len(b) != labelLen {
		return lbl, protoerr.Errorf(protoerr.Decode, "gccompare.recvLabel", "unexpected label width %d", len(b))
	}
	copy(lbl[:], b)
	return lbl, nil
}

func randBit() (int, error) {
	b := make([]byte, 1)
	if _, err := rand.Read(b); err != nil {
		return 0, err
	}
	return int(b[0] & 1), nil
}
