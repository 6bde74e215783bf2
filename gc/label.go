// Package gc implements a point-and-permute garbled-circuit comparator:
// circuit shape construction, garbling (free-XOR for XOR/XNOR/NOT,
// AES-keyed garbled tables for AND/OR), evaluation, and output decoding.
// This is the GC-Compare black box of spec.md §4.3.
//
// Grounded on original_source/src/mpc/garbled_comparison.cc for the
// circuit's shape and mask-XOR output blinding (see circuitShape and its
// test), and on the point-and-permute / free-XOR idiom of
// other_examples/..._markkurossi-mpc__circuit-garble.go.go and
// ..._hextrust-0-mpc__circuit-garble.go.go (Label.Xor, the permute bit
// carried in a label's low bit, garbled-table construction indexed by
// each input's permute bit).
package gc

import (
	"crypto/aes"
	"encoding/binary"

	"github.com/ciphermed/mpccompare/utils"
)

// labelSize matches the AES block size so a single AES call can hash a
// label pair plus a gate tweak into a fresh pseudorandom label.
const labelSize = aes.BlockSize

// Label is one wire label: labelSize pseudorandom bytes whose low bit
// doubles as the point-and-permute bit.
type Label [labelSize]byte

// NewLabel samples a fresh random label.
func NewLabel() (Label, error) {
	var l Label
	copy(l[:], utils.GetRandom(labelSize))
	return l, nil
}

// Xor computes the bytewise XOR of two labels (free-XOR).
func (l Label) Xor(o Label) Label {
	var out Label
	for i := range l {
		out[i] = l[i] ^ o[i]
	}
	return out
}

// S returns the point-and-permute bit (the label's low bit).
func (l Label) S() bool { return l[labelSize-1]&1 == 1 }

// Wire holds both labels for one wire; W0 is the label meaning "0", W1
// the label meaning "1". Free-XOR requires W1 = W0 ^ R for a fixed global
// offset R with R.S() == true.
type Wire struct {
	W0, W1 Label
}

// Select returns the label corresponding to a plaintext bit.
func (w Wire) Select(bit int) Label {
	if bit == 0 {
		return w.W0
	}
	return w.W1
}

// newInputWire samples a fresh wire consistent with the global offset r.
func newInputWire(r Label) (Wire, error) {
	l0, err := NewLabel()
	if err != nil {
		return Wire{}, err
	}
	return Wire{W0: l0, W1: l0.Xor(r)}, nil
}

// gateHash derives a fresh pseudorandom label from two input labels and a
// gate index, via AES keyed by the first label, encrypting a block built
// from the second label and the tweak. This plays the role of the
// reference idiom's makeK+AES-encrypt hash, without relying on the
// doubling-based tweak scheme whose exact semantics aren't specified by
// the label type exposed in the reference implementation.
func gateHash(a, b Label, tweak uint32, gateIdx int) (Label, error) {
	block, err := aes.NewCipher(a[:])
	if err != nil {
		return Label{}, err
	}
	var input [labelSize]byte
	copy(input[:], b[:])
	binary.BigEndian.PutUint32(input[labelSize-4:], tweak^uint32(gateIdx))

	var out Label
	block.Encrypt(out[:], input[:])
	return out, nil
}
