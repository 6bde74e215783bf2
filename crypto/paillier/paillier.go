// Package paillier implements the additive homomorphic cryptosystem of
// spec.md §4.1 (C1): encryption of an integer mod N with homomorphic
// addition, plaintext-scalar multiplication, subtraction and
// re-randomization.
//
// This wraps getamis-alice/crypto/homo/paillier (read in full) rather than
// reimplementing Paillier keygen/encrypt/decrypt against math/big: that
// package's NewPaillierUnSafe, Encrypt, Decrypt, Add and MulConst cover the
// cryptosystem itself, and Sub/Rerand/AddConst below are thin derivations
// over those primitives — exactly the set spec.md §4.1/§4.5 need and which
// a vanilla Paillier library doesn't surface directly. This also matches
// the teacher's own go.mod, which pulls in a dedicated Paillier library
// (github.com/roasbeef/go-go-gadget-paillier) rather than hand-rolling one;
// getamis-alice's is used here instead because its source ships in the
// pack and can be read and grounded against directly. See DESIGN.md.
package paillier

import (
	"errors"
	"math/big"

	"github.com/getamis/alice/crypto/homo"
	aliceps "github.com/getamis/alice/crypto/homo/paillier"
)

var (
	ErrMessageRange = errors.New("paillier: message out of range")
	ErrCiphertext   = errors.New("paillier: malformed ciphertext")
	ErrSmallKey     = errors.New("paillier: key size too small")

	bigNeg1 = big.NewInt(-1)
	big0    = big.NewInt(0)
)

// minKeyBits is this package's floor. getamis-alice's own NewPaillier
// enforces a 2048-bit safePubKeySize meant for production key-exchange use;
// spec.md's l+lambda-bit comparison operands need nowhere near that, and
// cmd/mpctest and this package's own tests run at 512 bits, so KeyGen
// always goes through NewPaillierUnSafe (the library's own test-oriented
// entry point) and applies this looser floor instead.
const minKeyBits = 512

// nSquareGetter is the exported accessor set getamis-alice's concrete
// (unexported) public-key type provides beyond the homo.Pubkey interface
// it returns from GetPubKey. Asserting a homo.Pubkey down to this is how
// this package reaches N and N^2 for Sub/ScalarMul/AddConst and for
// ciphertext byte framing, without needing to name that unexported type.
type nSquareGetter interface {
	GetN() *big.Int
	GetNSquare() *big.Int
}

// PublicKey wraps a getamis-alice Paillier public key. N is exported
// directly since dgk's shuffle-and-scale step needs a modulus to sample a
// random unit mod N.
type PublicKey struct {
	N       *big.Int
	nSquare *big.Int
	pub     homo.Pubkey
}

// PrivateKey additionally holds the getamis-alice keypair needed to decrypt.
type PrivateKey struct {
	*PublicKey
	crypto *aliceps.Paillier
}

// Ciphertext carries one Paillier ciphertext: an integer mod N^2.
type Ciphertext struct {
	C *big.Int
}

// KeyGen generates a fresh Paillier keypair. keySize is the bit length of
// N; spec.md §3 requires N >= 2^(l+lambda+2), so callers size keySize
// accordingly (e.g. 2*(l+lambda+2) to leave slack for a safe RSA modulus).
func KeyGen(keySize int) (*PrivateKey, error) {
	if keySize < minKeyBits {
		return nil, ErrSmallKey
	}
	p, err := aliceps.NewPaillierUnSafe(keySize)
	if err != nil {
		return nil, err
	}
	pub := p.GetPubKey()
	ng, ok := pub.(nSquareGetter)
	if !ok {
		// getamis-alice's concrete public key always implements this;
		// this only trips if a future library version changes shape.
		return nil, ErrCiphertext
	}
	pk := &PublicKey{N: ng.GetN(), nSquare: ng.GetNSquare(), pub: pub}
	return &PrivateKey{PublicKey: pk, crypto: p}, nil
}

// Encrypt computes a fresh encryption of m.
func (pub *PublicKey) Encrypt(m *big.Int) (*Ciphertext, error) {
	if m.Sign() < 0 || m.Cmp(pub.N) >= 0 {
		return nil, ErrMessageRange
	}
	c, err := pub.pub.Encrypt(m.Bytes())
	if err != nil {
		return nil, err
	}
	return &Ciphertext{C: new(big.Int).SetBytes(c)}, nil
}

// Rerand re-randomizes a ciphertext without changing its plaintext, by
// homomorphically adding in a fresh encryption of zero (getamis-alice's Add
// already folds in its own fresh r^N factor, so this is just Add(c, Enc(0))
// rather than a separate re-randomization routine). Per spec.md §3
// "Ownership", this is the obligation of whichever party leaks the
// ciphertext's algebraic structure (e.g. by sending it after a scalar
// multiplication).
func (pub *PublicKey) Rerand(c *Ciphertext) (*Ciphertext, error) {
	zero, err := pub.Encrypt(big0)
	if err != nil {
		return nil, err
	}
	return pub.Add(c, zero), nil
}

// Add computes the ciphertext of a+b mod N from ciphertexts of a and b.
func (pub *PublicKey) Add(a, b *Ciphertext) *Ciphertext {
	c, err := pub.pub.Add(a.C.Bytes(), b.C.Bytes())
	if err != nil {
		// Only returned for a malformed ciphertext (wrong range, or not
		// coprime to N), which cannot happen for values this package
		// itself produced and passed back in.
		panic("paillier: Add on malformed ciphertext: " + err.Error())
	}
	return &Ciphertext{C: new(big.Int).SetBytes(c)}
}

// Sub computes the ciphertext of a-b mod N.
func (pub *PublicKey) Sub(a, b *Ciphertext) *Ciphertext {
	return pub.Add(a, pub.ScalarMul(b, bigNeg1))
}

// ScalarMul computes the ciphertext of k*m mod N from a ciphertext of m.
func (pub *PublicKey) ScalarMul(a *Ciphertext, k *big.Int) *Ciphertext {
	c, err := pub.pub.MulConst(a.C.Bytes(), k)
	if err != nil {
		panic("paillier: MulConst on malformed ciphertext: " + err.Error())
	}
	return &Ciphertext{C: new(big.Int).SetBytes(c)}
}

// AddConst computes the ciphertext of m+k mod N from a ciphertext of m and
// a plaintext constant k, by homomorphically adding in a fresh encryption
// of k (k is reduced mod N first, matching getamis-alice's own Mod-then-Exp
// handling of negative or out-of-range scalars in MulConst).
func (pub *PublicKey) AddConst(a *Ciphertext, k *big.Int) *Ciphertext {
	kMod := new(big.Int).Mod(k, pub.N)
	encK, err := pub.Encrypt(kMod)
	if err != nil {
		panic("paillier: Encrypt(const) failed: " + err.Error())
	}
	return pub.Add(a, encK)
}

// Decrypt recovers the plaintext integer m from a ciphertext.
func (priv *PrivateKey) Decrypt(c *Ciphertext) (*big.Int, error) {
	m, err := priv.crypto.Decrypt(c.C.Bytes())
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(m), nil
}

// Bytes serializes a ciphertext as a fixed-width big-endian integer.
func (c *Ciphertext) Bytes(byteLen int) []byte {
	out := make([]byte, byteLen)
	b := c.C.Bytes()
	copy(out[byteLen-len(b):], b)
	return out
}

// FromBytes parses a ciphertext from its fixed-width encoding.
func FromBytes(b []byte) *Ciphertext {
	return &Ciphertext{C: new(big.Int).SetBytes(b)}
}

// ByteLen returns the serialized width of a ciphertext (mod N^2) under this key.
func (pub *PublicKey) ByteLen() int {
	return (pub.nSquare.BitLen() + 7) / 8
}
