// Package csswitch implements the QR -> FHE slot-packed cryptosystem
// switch of spec.md §4.8 (C10): given an Owner holding a vector of GM
// (quadratic-residue) ciphertexts and a Helper holding the GM private key
// plus the FHE public key, the two parties jointly produce an FHE
// ciphertext packing the same bits into slots, with neither side learning
// the plaintext bits.
//
// Grounded on original_source/src/mpc/test_mpc.cc's test_change_ES, which
// exercises Change_ES_FHE_to_GM_slots_A/B as: A.blind (XOR each GM
// ciphertext with a fresh random-bit GM encryption), B.decrypt_encrypt
// (decrypt each blinded GM ciphertext, re-encrypt the recovered bits as
// one FHE slot vector), A.unblind (XOR the returned FHE ciphertext with an
// FHE encryption of the same mask bits, recovering the original values).
// QR's XOR-homomorphism (PublicKey.XorCt) and FHE's GF(2) slot addition
// (fhe.Context.Add, plaintext modulus 2) make blind/unblind the same XOR
// operation in two different cryptosystems, which is exactly what makes
// the switch work: B never sees anything but mask-blinded bits, and the
// FHE ciphertext it returns carries the blinded bits until A removes the
// mask homomorphically.
package csswitch

import (
	"crypto/rand"
	"fmt"

	"github.com/ciphermed/mpccompare/crypto/fhe"
	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/protoerr"
	"github.com/ciphermed/mpccompare/utils"
	"github.com/ciphermed/mpccompare/wire"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
)

// Owner holds n GM ciphertexts and switches them into one FHE ciphertext.
type Owner struct {
	values []*gm.Ciphertext
	gmPub  *gm.PublicKey
	fheCtx *fhe.Context
	fhePub *rlwe.PublicKey
	stream *wire.Stream

	mask   []uint64
	Output *fhe.Ciphertext
}

// Helper holds the GM private key and switches blinded GM ciphertexts
// into FHE slots under the Owner's FHE public key.
type Helper struct {
	n      int
	gmPriv *gm.PrivateKey
	fheCtx *fhe.Context
	fhePub *rlwe.PublicKey
	stream *wire.Stream
}

// NewOwner constructs the owner side for switching len(values) GM bits.
func NewOwner(values []*gm.Ciphertext, gmPub *gm.PublicKey, fheCtx *fhe.Context, fhePub *rlwe.PublicKey, stream *wire.Stream) *Owner {
	return &Owner{values: values, gmPub: gmPub, fheCtx: fheCtx, fhePub: fhePub, stream: stream}
}

// NewHelper constructs the helper side. n must equal len(values) on the
// owner side.
func NewHelper(n int, gmPriv *gm.PrivateKey, fheCtx *fhe.Context, fhePub *rlwe.PublicKey, stream *wire.Stream) *Helper {
	return &Helper{n: n, gmPriv: gmPriv, fheCtx: fheCtx, fhePub: fhePub, stream: stream}
}

func randomBit() (uint64, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, protoerr.New(protoerr.Crypto, "csswitch.randomBit", err)
	}
	return uint64(b[0] & 1), nil
}

// Run executes the owner's side: blind, send, receive the re-encrypted
// FHE ciphertext, unblind.
func (o *Owner) Run() error {
	if len(o.values) == 0 {
		return protoerr.Errorf(protoerr.Invariant, "csswitch.Owner.Run", "no values to switch")
	}
	if len(o.values) > o.fheCtx.Slots() {
		return protoerr.Errorf(protoerr.Invariant, "csswitch.Owner.Run",
			"%d values exceed %d available FHE slots", len(o.values), o.fheCtx.Slots())
	}

	o.mask = make([]uint64, len(o.values))
	blinded := make([]*gm.Ciphertext, len(o.values))
	for i, v := range o.values {
		bit, err := randomBit()
		if err != nil {
			return err
		}
		o.mask[i] = bit
		maskCt, err := o.gmPub.Encrypt(int(bit))
		if err != nil {
			return protoerr.New(protoerr.Crypto, "csswitch.Owner.Run", err)
		}
		blinded[i] = o.gmPub.XorCt(v, maskCt)
	}

	byteLen := o.gmPub.ByteLen()
	ctBytes := make([][]byte, len(blinded))
	for i, ct := range blinded {
		ctBytes[i] = ct.Bytes(byteLen)
	}
	if err := o.stream.Send(utils.Concat(ctBytes...)); err != nil {
		return err
	}

	fheBytes, err := o.stream.Recv()
	if err != nil {
		return err
	}
	blindedFHE := new(fhe.Ciphertext)
	if err := blindedFHE.UnmarshalBinary(fheBytes); err != nil {
		return protoerr.New(protoerr.Decode, "csswitch.Owner.Run", err)
	}

	maskFHE, err := o.fheCtx.EncodePlaintextSlots(o.fhePub, o.mask)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "csswitch.Owner.Run", err)
	}
	result, err := o.fheCtx.Add(blindedFHE, maskFHE)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "csswitch.Owner.Run", err)
	}
	o.Output = result
	return nil
}

// Run executes the helper's side: receive the blinded GM ciphertexts,
// decrypt, re-encrypt as a single FHE slot vector, send it back.
func (h *Helper) Run() error {
	buf, err := h.stream.Recv()
	if err != nil {
		return err
	}
	byteLen := h.gmPriv.ByteLen()
	if len(buf) != byteLen*h.n {
		return protoerr.Errorf(protoerr.Decode, "csswitch.Helper.Run",
			"expected %d bytes for %d ciphertexts, got %d", byteLen*h.n, h.n, len(buf))
	}

	bits := make([]uint64, h.n)
	for i := 0; i < h.n; i++ {
		ct := gm.FromBytes(buf[i*byteLen : (i+1)*byteLen])
		bit, err := h.gmPriv.Decrypt(ct)
		if err != nil {
			return protoerr.New(protoerr.Crypto, "csswitch.Helper.Run", err)
		}
		bits[i] = uint64(bit)
	}

	fheCt, err := h.fheCtx.EncSlots(h.fhePub, bits)
	if err != nil {
		return protoerr.New(protoerr.Crypto, "csswitch.Helper.Run", err)
	}
	out, err := fheCt.MarshalBinary()
	if err != nil {
		return protoerr.New(protoerr.Crypto, "csswitch.Helper.Run", fmt.Errorf("marshal fhe ciphertext: %w", err))
	}
	return h.stream.Send(out)
}
