// Package enccompare implements comparison over Paillier-encrypted
// values (spec.md §4.5): an Owner holding Paillier ciphertexts Enc(a),
// Enc(b) and a Helper holding the matching Paillier private key jointly
// learn a single bit, a <= b, without either party learning a, b, or
// their difference, by reducing the problem to a bit comparison between
// two λ-statistically-blinded operands.
//
// Grounded on original_source/src/mpc/test_mpc.cc's test_enc_compare /
// test_rev_enc_compare usage contract: EncCompare_Owner(enc_a, enc_b,
// nbits, paillier_pub, &lsic_b, randstate) and EncCompare_Helper(nbits,
// paillier_priv, &lsic_a) — the Owner supplies a GM-backed bit-compare
// "B" party (so it ends up holding the GM private key) while the
// Helper supplies the "A" party; Rev_EncCompare swaps which side's
// output() call is meaningful. Only exec_protocol.hh's declarations
// survive in the pack (no .cc body), so the masking arithmetic below is
// a from-scratch, self-consistent design rather than a literal port:
//
//  1. Owner picks r uniformly from [0, 2^(l+lambda)) and computes, via
//     Paillier's public-key-only homomorphism, blinded = Enc(b - a + 2^l + r).
//     The 2^l shift keeps the masked quantity non-negative for every
//     (a,b) pair in [0,2^l) — without it, b < a makes b-a negative and
//     its Paillier-modular representative decrypts to a value near N,
//     tripping the Helper's overflow guard on every such input instead
//     of the intended negligible (2^-lambda) wraparound probability.
//     r's extra lambda bits of headroom make the masked value's low bits
//     information-theoretically close to uniform (the "λ bits of
//     statistical indistinguishability" test_mpc.cc's CLI help text
//     describes).
//  2. Owner sends blinded to Helper, who decrypts it to recover
//     z = b - a + 2^l + r as a plain integer (no wraparound, whp).
//  3. a <= b now holds exactly when z >= 2^l + r, i.e. NOT (z < 2^l+r) —
//     so the two parties run any shared bit-compare back end (lsic, dgk,
//     or gccompare, all implementing BitCompareA/BitCompareB) on
//     (z, 2^l+r): Helper plays the "A" role (knows z, needs only a GM
//     public key) and Owner plays the "B" role (knows 2^l+r, holds the
//     GM private key it generated for this run). Helper sends its
//     resulting ciphertext to Owner, who decrypts it locally to learn
//     lt = (z < 2^l+r), hence a <= b = !lt.
//  4. EncCompare reveals the bit to the Owner directly (it already has
//     it); Rev_EncCompare instead has the Owner send that single bit
//     onward to the Helper, so the Helper's Output is the meaningful
//     one — this one extra message is the entire difference between the
//     "forward" and "reverse" variants, matching the two being thin,
//     otherwise-identical wrappers in the original usage contract.
//
// The bit-length bound L = l + lambda + 1 must fit the module's uint64
// operand representation (shared by lsic, dgk, and gccompare), so this
// package returns an error if L exceeds 62 bits (l+lambda above 61)
// rather than silently truncating.
package enccompare

import (
	"crypto/rand"
	"math/big"

	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/crypto/paillier"
	"github.com/ciphermed/mpccompare/protoerr"
	"github.com/ciphermed/mpccompare/wire"
)

// BitCompareA is the evaluator/clear-operand-a role of a bit-compare
// back end (lsic.A, dgk.A, gccompare.A all satisfy this once given a
// Result accessor).
type BitCompareA interface {
	Run() error
	Result() *gm.Ciphertext
}

// BitCompareB is the clear-operand-b, GM-private-key-holding role of a
// bit-compare back end (lsic.B, dgk.B, gccompare.B already satisfy this).
type BitCompareB interface {
	Run() error
}

// BackendAFactory builds a fresh BitCompareA for a dynamically-computed
// operand value, over the given stream. See LSICBackendA, DGKBackendA,
// and GCBackendA for ready-made factories over this module's three
// interchangeable bit-compare back ends.
type BackendAFactory func(value uint64, stream *wire.Stream) BitCompareA

// BackendBFactory builds a fresh BitCompareB for a dynamically-computed
// operand value, over the given stream.
type BackendBFactory func(value uint64, stream *wire.Stream) BitCompareB

const maxBlindedBits = 62

// Owner holds Paillier ciphertexts of a and b (but not the Paillier
// private key) plus a freshly-generated GM keypair used to run the
// bit-compare sub-protocol.
type Owner struct {
	encA, encB *paillier.Ciphertext
	l, lambda  int
	pail       *paillier.PublicKey
	gmPriv     *gm.PrivateKey
	backendB   BackendBFactory
	stream     *wire.Stream
	reverse    bool
	result     bool
}

// Helper holds the Paillier private key and plays the bit-compare "A"
// role with a GM public key set up by the caller to match the Owner's
// gmPriv (the same sharing-a-keypair pattern lsic/dgk/gccompare's own
// tests use, so no key material needs to cross the wire here).
type Helper struct {
	l, lambda int
	priv      *paillier.PrivateKey
	gmByteLen int
	backendA  BackendAFactory
	stream    *wire.Stream
	reverse   bool
	result    bool
}

// NewOwner constructs the forward EncCompare owner: after Run, Output
// returns a <= b directly.
func NewOwner(encA, encB *paillier.Ciphertext, l, lambda int, pail *paillier.PublicKey, gmPriv *gm.PrivateKey, backendB BackendBFactory, stream *wire.Stream) *Owner {
	return &Owner{encA: encA, encB: encB, l: l, lambda: lambda, pail: pail, gmPriv: gmPriv, backendB: backendB, stream: stream}
}

// NewHelper constructs the forward EncCompare helper: its Output is not
// meaningful (the owner learns the answer); call Run to participate.
// gmByteLen is the matching GM public key's ciphertext byte width
// (gmPub.ByteLen()), needed to frame the result message.
func NewHelper(l, lambda int, priv *paillier.PrivateKey, gmByteLen int, backendA BackendAFactory, stream *wire.Stream) *Helper {
	return &Helper{l: l, lambda: lambda, priv: priv, gmByteLen: gmByteLen, backendA: backendA, stream: stream}
}

// NewRevOwner constructs the Rev_EncCompare owner: it participates
// identically to Owner but forwards the final bit to the helper instead
// of keeping it; its Output is not the meaningful one.
func NewRevOwner(encA, encB *paillier.Ciphertext, l, lambda int, pail *paillier.PublicKey, gmPriv *gm.PrivateKey, backendB BackendBFactory, stream *wire.Stream) *Owner {
	o := NewOwner(encA, encB, l, lambda, pail, gmPriv, backendB, stream)
	o.reverse = true
	return o
}

// NewRevHelper constructs the Rev_EncCompare helper: after Run, Output
// returns a <= b, forwarded to it by the owner.
func NewRevHelper(l, lambda int, priv *paillier.PrivateKey, gmByteLen int, backendA BackendAFactory, stream *wire.Stream) *Helper {
	h := NewHelper(l, lambda, priv, gmByteLen, backendA, stream)
	h.reverse = true
	return h
}

// Output returns a <= b. Only meaningful after Run on the party this
// variant designates as the learner (Owner for EncCompare, Helper for
// Rev_EncCompare).
func (o *Owner) Output() bool { return o.result }

// Output returns a <= b. Only meaningful after Run on the party this
// variant designates as the learner.
func (h *Helper) Output() bool { return h.result }

// Run executes the owner's side. Call concurrently with the matching
// Helper.Run over the paired ends of the same stream.
func (o *Owner) Run() error {
	blindBits := o.l + o.lambda
	if blindBits+1 > maxBlindedBits {
		return protoerr.Errorf(protoerr.Invariant, "enccompare.Owner.Run", "l+lambda=%d exceeds the %d-bit operand bound", blindBits, maxBlindedBits-1)
	}

	rMax := new(big.Int).Lsh(big.NewInt(1), uint(blindBits))
	rBig, err := rand.Int(rand.Reader, rMax)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "enccompare.Owner.Run", err)
	}
	shift := new(big.Int).Lsh(big.NewInt(1), uint(o.l))
	rPrime := new(big.Int).Add(rBig, shift) // 2^l + r
	r := rPrime.Uint64()

	diff := o.pail.Sub(o.encB, o.encA)
	blinded := o.pail.AddConst(diff, rPrime)
	if err := o.stream.Send(blinded.Bytes(o.pail.ByteLen())); err != nil {
		return err
	}

	// The GM keypair (o.gmPriv, and the matching public key closed over
	// by the helper's backendA factory) is set up by the caller ahead of
	// time, exactly as lsic/dgk/gccompare's own tests wire A and B to a
	// shared keypair — no key material needs to cross the wire here.
	b := o.backendB(r, o.stream)
	if err := b.Run(); err != nil {
		return err
	}

	outBytes, err := o.stream.Recv()
	if err != nil {
		return err
	}
	lt, err := o.gmPriv.Decrypt(gm.FromBytes(outBytes))
	if err != nil {
		return protoerr.New(protoerr.Crypto, "enccompare.Owner.Run", err)
	}
	o.result = lt == 0 // a <= b == !(z < 2^l+r)

	if o.reverse {
		reveal := byte(0)
		if o.result {
			reveal = 1
		}
		if err := o.stream.Send([]byte{reveal}); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the helper's side.
func (h *Helper) Run() error {
	blindBits := h.l + h.lambda
	if blindBits+1 > maxBlindedBits {
		return protoerr.Errorf(protoerr.Invariant, "enccompare.Helper.Run", "l+lambda=%d exceeds the %d-bit operand bound", blindBits, maxBlindedBits-1)
	}

	blindedBytes, err := h.stream.Recv()
	if err != nil {
		return err
	}
	blinded := paillier.FromBytes(blindedBytes)
	zBig, err := h.priv.Decrypt(blinded)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "enccompare.Helper.Run", err)
	}
	if zBig.BitLen() > maxBlindedBits {
		return protoerr.Errorf(protoerr.Invariant, "enccompare.Helper.Run", "decrypted blinded value exceeds the %d-bit operand bound (likely a masking overflow)", maxBlindedBits)
	}
	z := zBig.Uint64()

	a := h.backendA(z, h.stream)
	if err := a.Run(); err != nil {
		return err
	}
	out := a.Result()
	if err := h.stream.Send(out.Bytes(h.gmByteLen)); err != nil {
		return err
	}

	if h.reverse {
		revealByte, err := h.stream.Recv()
		if err != nil {
			return err
		}
		if len(revealByte) != 1 {
			return protoerr.Errorf(protoerr.Decode, "enccompare.Helper.Run", "unexpected reveal width %d", len(revealByte))
		}
		h.result = revealByte[0] == 1
	}
	return nil
}
