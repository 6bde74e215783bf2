// Package gm implements a Goldwasser-Micali-style quadratic-residuosity
// cryptosystem: a public-key scheme encrypting one bit per ciphertext, with
// homomorphic XOR (ciphertext multiplication) and homomorphic NOT
// (multiplication by an encryption of 1). This is the "QR HE" black-box
// capability of spec.md §4.1 (C1).
//
// Grounded on the capability contract used throughout
// original_source/src/mpc/test_mpc.cc (GM/GM_priv: keygen, pubkey,
// encrypt/decrypt, neg) and on the math/big keygen idiom of
// getamis-alice/crypto/homo/paillier.
package gm

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var (
	// ErrDecrypt reports a decryption attempted without the private key.
	// PrivateKey.Decrypt, the only decryption path, does not return it:
	// it accepts any ciphertext and always returns a nil error.
	ErrDecrypt = errors.New("gm: cannot decrypt without private key")
	// ErrKeySize is returned for implausibly small key sizes.
	ErrKeySize = errors.New("gm: key size too small")

	big0 = big.NewInt(0)
	big1 = big.NewInt(1)
)

// PublicKey is (N, y) where N = p*q and y is a quadratic non-residue with
// Jacobi symbol -1 modulo both p and q (hence +1 modulo N).
type PublicKey struct {
	N *big.Int
	Y *big.Int
}

// PrivateKey holds the factorization, needed only for decryption.
type PrivateKey struct {
	*PublicKey
	P *big.Int
	Q *big.Int
}

// Ciphertext is a single QR ciphertext, carrying one encrypted bit.
type Ciphertext struct {
	C *big.Int
}

// KeyGen generates a fresh GM keypair with an N of the given bit size
// (each prime factor is bitSize/2 bits).
func KeyGen(bitSize int) (*PrivateKey, error) {
	if bitSize < 256 {
		return nil, ErrKeySize
	}
	primeSize := bitSize / 2
	for {
		p, err := rand.Prime(rand.Reader, primeSize)
		if err != nil {
			return nil, err
		}
		q, err := rand.Prime(rand.Reader, primeSize)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}
		n := new(big.Int).Mul(p, q)
		y, err := findNonResidue(p, q, n)
		if err != nil {
			continue
		}
		return &PrivateKey{
			PublicKey: &PublicKey{N: n, Y: y},
			P:         p,
			Q:         q,
		}, nil
	}
}

// findNonResidue finds y with Jacobi symbol -1 mod p and mod q (so +1 mod N,
// but a non-residue mod N since it's a non-residue mod each prime factor).
func findNonResidue(p, q, n *big.Int) (*big.Int, error) {
	for i := 0; i < 256; i++ {
		y, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if y.Sign() == 0 {
			continue
		}
		if jacobi(y, p) == -1 && jacobi(y, q) == -1 {
			return y, nil
		}
	}
	return nil, errors.New("gm: exhausted retries looking for a non-residue")
}

// jacobi computes the Jacobi symbol (a/n) for odd n > 0.
func jacobi(a, n *big.Int) int {
	aa := new(big.Int).Mod(a, n)
	nn := new(big.Int).Set(n)
	result := 1
	for aa.Sign() != 0 {
		for aa.Bit(0) == 0 {
			aa.Rsh(aa, 1)
			r := new(big.Int).Mod(nn, big.NewInt(8))
			if r.Int64() == 3 || r.Int64() == 5 {
				result = -result
			}
		}
		aa, nn = nn, aa
		if new(big.Int).Mod(aa, big.NewInt(4)).Int64() == 3 &&
			new(big.Int).Mod(nn, big.NewInt(4)).Int64() == 3 {
			result = -result
		}
		aa.Mod(aa, nn)
	}
	if nn.Cmp(big1) == 0 {
		return result
	}
	return 0
}

// Encrypt encrypts a single bit under pub: c = r^2 * y^bit mod N, for a
// fresh random r coprime to N.
func (pub *PublicKey) Encrypt(bit int) (*Ciphertext, error) {
	r, err := randomUnit(pub.N)
	if err != nil {
		return nil, err
	}
	c := new(big.Int).Exp(r, big.NewInt(2), pub.N)
	if bit != 0 {
		c.Mul(c, pub.Y)
		c.Mod(c, pub.N)
	}
	return &Ciphertext{C: c}, nil
}

// Rerand re-randomizes a ciphertext without changing the bit it encodes,
// by multiplying in a fresh encryption of zero.
func (pub *PublicKey) Rerand(a *Ciphertext) (*Ciphertext, error) {
	r, err := randomUnit(pub.N)
	if err != nil {
		return nil, err
	}
	mask := new(big.Int).Exp(r, big.NewInt(2), pub.N)
	c := new(big.Int).Mul(a.C, mask)
	c.Mod(c, pub.N)
	return &Ciphertext{C: c}, nil
}

// XorCt computes the homomorphic XOR of two ciphertexts (ciphertext
// multiplication): enc(a) * enc(b) = enc(a xor b).
func (pub *PublicKey) XorCt(a, b *Ciphertext) *Ciphertext {
	c := new(big.Int).Mul(a.C, b.C)
	c.Mod(c, pub.N)
	return &Ciphertext{C: c}
}

// Neg computes the homomorphic NOT of a ciphertext: enc(a) * enc(1) = enc(not a).
func (pub *PublicKey) Neg(a *Ciphertext) *Ciphertext {
	c := new(big.Int).Mul(a.C, pub.Y)
	c.Mod(c, pub.N)
	return &Ciphertext{C: c}
}

// Decrypt recovers the plaintext bit: a ciphertext c is a quadratic
// residue mod p iff the encrypted bit is 0.
func (priv *PrivateKey) Decrypt(a *Ciphertext) (int, error) {
	if jacobiResidueMod(a.C, priv.P) {
		return 0, nil
	}
	return 1, nil
}

// jacobiResidueMod reports whether c is a quadratic residue modulo the
// prime p, via Euler's criterion.
func jacobiResidueMod(c, p *big.Int) bool {
	cc := new(big.Int).Mod(c, p)
	if cc.Sign() == 0 {
		return true
	}
	e := new(big.Int).Rsh(new(big.Int).Sub(p, big1), 1)
	r := new(big.Int).Exp(cc, e, p)
	return r.Cmp(big1) == 0
}

func randomUnit(n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if r.Sign() == 0 {
			continue
		}
		g := new(big.Int).GCD(nil, nil, r, n)
		if g.Cmp(big1) == 0 {
			return r, nil
		}
	}
}

// Bytes serializes a ciphertext as a fixed-width big-endian integer padded
// to byteLen bytes, per spec.md §6.
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

// ByteLen returns the serialized width of a ciphertext under this key.
func (pub *PublicKey) ByteLen() int {
	return (pub.N.BitLen() + 7) / 8
}
