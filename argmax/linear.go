// Package argmax implements secure argmax over a list of Paillier
// ciphertexts (spec.md §4.6 linear, §4.7 tree/tournament): an Owner
// holding k encrypted values and a Helper holding the Paillier private
// key jointly determine the index of the maximum value, with the Owner
// alone learning that index.
//
// Grounded on original_source/src/mpc/test_mpc.cc's
// Linear_EncArgmax_Owner/Helper and Tree_EncArgmax_Owner/Helper usage
// contracts: both are built from the same (values, nbits, paillier_pub,
// randstate, lambda) / (nbits, k, paillier_priv) constructor shape and
// both reduce to repeated enccompare calls over a shared bit-compare
// back end (the commented-out party_a_creator/party_b_creator closures
// building LSIC_A/LSIC_B pairs). This package builds every pairwise
// comparison on top of this module's own enccompare package rather than
// reimplementing the Paillier-blinding reduction, since that reduction
// is exactly enccompare's job.
package argmax

import (
	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/crypto/paillier"
	"github.com/ciphermed/mpccompare/enccompare"
	"github.com/ciphermed/mpccompare/protoerr"
	"github.com/ciphermed/mpccompare/wire"
)

// LinearOwner holds k Paillier ciphertexts and scans them in order,
// maintaining a running maximum via one enccompare call per candidate.
type LinearOwner struct {
	values    []*paillier.Ciphertext
	l, lambda int
	pail      *paillier.PublicKey
	gmPriv    *gm.PrivateKey
	stream    *wire.Stream
	Output    int
}

// LinearHelper is the Paillier-private-key-holding counterpart, run in
// lockstep with LinearOwner. gmPub must be the public half of the
// owner's gmPriv, set up out of band exactly as enccompare requires.
type LinearHelper struct {
	k, l, lambda int
	priv         *paillier.PrivateKey
	gmPub        *gm.PublicKey
	stream       *wire.Stream
}

// NewLinearOwner constructs the owner side for a k-value linear argmax.
func NewLinearOwner(values []*paillier.Ciphertext, l, lambda int, pail *paillier.PublicKey, gmPriv *gm.PrivateKey, stream *wire.Stream) *LinearOwner {
	return &LinearOwner{values: values, l: l, lambda: lambda, pail: pail, gmPriv: gmPriv, stream: stream}
}

// NewLinearHelper constructs the helper side for a k-value linear argmax.
func NewLinearHelper(k, l, lambda int, priv *paillier.PrivateKey, gmPub *gm.PublicKey, stream *wire.Stream) *LinearHelper {
	return &LinearHelper{k: k, l: l, lambda: lambda, priv: priv, gmPub: gmPub, stream: stream}
}

// Run executes the owner's side: k-1 sequential enccompare calls, each
// testing whether the current best is <= the next candidate. Ties keep
// the later index, the natural behavior of a <= fold. Call concurrently
// with the matching LinearHelper.Run over the paired ends of one stream.
func (o *LinearOwner) Run() error {
	if len(o.values) == 0 {
		return protoerr.Errorf(protoerr.Invariant, "argmax.LinearOwner.Run", "no values to compare")
	}
	backendL := o.l + o.lambda + 1
	best := 0
	for i := 1; i < len(o.values); i++ {
		backendB := enccompare.LSICBackendB(backendL, o.gmPriv)
		owner := enccompare.NewOwner(o.values[best], o.values[i], o.l, o.lambda, o.pail, o.gmPriv, backendB, o.stream)
		if err := owner.Run(); err != nil {
			return err
		}
		if owner.Output() {
			best = i
		}
	}
	o.Output = best
	return nil
}

// Run executes the helper's side.
func (h *LinearHelper) Run() error {
	backendL := h.l + h.lambda + 1
	for i := 1; i < h.k; i++ {
		backendA := enccompare.LSICBackendA(backendL, h.gmPub)
		helper := enccompare.NewHelper(h.l, h.lambda, h.priv, h.gmPub.ByteLen(), backendA, h.stream)
		if err := helper.Run(); err != nil {
			return err
		}
	}
	return nil
}
