// Package fhe adapts github.com/tuneinsight/lattigo/v5's bgv package into
// the slot-packed GF(2) FHE capability of spec.md §4.1 (C1): enc_slots,
// dec_slots, and per-slot add/mul. Setting the BGV plaintext modulus to 2
// makes slot addition and multiplication exactly GF(2) add and mul, which
// is all spec.md's FHE contract requires and all C10 (cryptosystem-switch)
// exercises.
//
// Grounded on _examples/tuneinsight-lattigo/bgv (params.go, encoder.go,
// encryptor.go, evaluator.go) and the usage shape of
// _examples/tuneinsight-lattigo/examples/bfv/main.go (key generation,
// encoder/encryptor/decryptor/evaluator construction from one Parameters
// value). This is the pack's only FHE library and the sole backer of C1's
// FHE black-box.
package fhe

import (
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bgv"
)

// Context bundles one BGV parameter set with plaintext modulus 2, plus the
// encoder/evaluator needed to drive it. It is immutable after construction
// and may be shared read-only across sessions (spec.md §5 "Shared
// resources").
type Context struct {
	params    bgv.Parameters
	encoder   *bgv.Encoder
	evaluator *bgv.Evaluator
	slots     int
}

// KeyPair is the FHE secret/public key pair. Only the Helper in C10 needs
// the secret key; the Owner only ever needs the public key and the
// evaluator.
type KeyPair struct {
	Secret *rlwe.SecretKey
	Public *rlwe.PublicKey
}

// NewContext builds a BGV context over GF(2) slots. logN controls the ring
// degree (and hence the slot count, N/2); a small logN (e.g. 12-13) is
// ample for argmax-sized vectors of bits.
func NewContext(logN int) (*Context, error) {
	literal := bgv.ParametersLiteral{
		LogN:             logN,
		LogQ:             []int{55, 45},
		LogP:             []int{45},
		PlaintextModulus: 2,
	}
	params, err := bgv.NewParametersFromLiteral(literal)
	if err != nil {
		return nil, err
	}
	return &Context{
		params:    params,
		encoder:   bgv.NewEncoder(params),
		evaluator: bgv.NewEvaluator(params, nil),
		slots:     params.MaxSlots(),
	}, nil
}

// Slots returns the number of GF(2) slots one ciphertext can pack.
func (c *Context) Slots() int { return c.slots }

// KeyGen generates a fresh keypair under this context.
func (c *Context) KeyGen() *KeyPair {
	kgen := bgv.NewKeyGenerator(c.params)
	sk, pk := kgen.GenKeyPairNew()
	return &KeyPair{Secret: sk, Public: pk}
}

// Ciphertext wraps one slot-packed BGV ciphertext.
type Ciphertext struct {
	ct *rlwe.Ciphertext
}

// MarshalBinary serializes the ciphertext for transport over a wire.Stream.
func (c *Ciphertext) MarshalBinary() ([]byte, error) {
	return c.ct.MarshalBinary()
}

// UnmarshalBinary decodes a ciphertext produced by MarshalBinary.
func (c *Ciphertext) UnmarshalBinary(data []byte) error {
	c.ct = new(rlwe.Ciphertext)
	return c.ct.UnmarshalBinary(data)
}

// EncSlots encodes and encrypts a vector of bits (values other than 0/1 are
// rejected) under the given public key, one bit per slot.
func (c *Context) EncSlots(pub *rlwe.PublicKey, bits []uint64) (*Ciphertext, error) {
	for _, b := range bits {
		if b > 1 {
			return nil, errInvalidBit
		}
	}
	pt := bgv.NewPlaintext(c.params, c.params.MaxLevel())
	if err := c.encoder.Encode(bits, pt); err != nil {
		return nil, err
	}
	enc := bgv.NewEncryptor(c.params, pub)
	ct, err := enc.EncryptNew(pt)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{ct: ct}, nil
}

// DecSlots decrypts and decodes a ciphertext back into its packed bits.
func (c *Context) DecSlots(sec *rlwe.SecretKey, ct *Ciphertext, n int) ([]uint64, error) {
	dec := bgv.NewDecryptor(c.params, sec)
	pt := dec.DecryptNew(ct.ct)
	out := make([]uint64, n)
	if err := c.encoder.Decode(pt, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Add computes the per-slot GF(2) sum (XOR) of two ciphertexts.
func (c *Context) Add(a, b *Ciphertext) (*Ciphertext, error) {
	out, err := c.evaluator.AddNew(a.ct, b.ct)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{ct: out}, nil
}

// Mul computes the per-slot GF(2) product (AND) of two ciphertexts.
func (c *Context) Mul(a, b *Ciphertext) (*Ciphertext, error) {
	out, err := c.evaluator.MulNew(a.ct, b.ct)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{ct: out}, nil
}

// EncodePlaintextSlots encrypts a caller-known mask vector using only the
// public key — used by C10's owner side, which must be able to compute
// enc_fhe(mask) without ever holding the FHE secret key.
func (c *Context) EncodePlaintextSlots(pub *rlwe.PublicKey, mask []uint64) (*Ciphertext, error) {
	return c.EncSlots(pub, mask)
}

type invalidBitError struct{}

func (invalidBitError) Error() string { return "fhe: slot value must be 0 or 1" }

var errInvalidBit = invalidBitError{}
