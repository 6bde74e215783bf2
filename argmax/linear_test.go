package argmax

import (
	"math/big"
	"net"
	"testing"

	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/crypto/paillier"
	"github.com/ciphermed/mpccompare/wire"
)

func encryptAll(t *testing.T, pub *paillier.PublicKey, vs []uint64) []*paillier.Ciphertext {
	t.Helper()
	out := make([]*paillier.Ciphertext, len(vs))
	for i, v := range vs {
		ct, err := pub.Encrypt(big.NewInt(int64(v)))
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		out[i] = ct
	}
	return out
}

// trueArgmax resolves ties to the later index, matching LinearOwner's
// <= fold.
func trueArgmax(vs []uint64) int {
	best := 0
	for i, v := range vs {
		if v >= vs[best] {
			best = i
		}
	}
	return best
}

func TestLinearArgmax(t *testing.T) {
	pailPriv, err := paillier.KeyGen(1024)
	if err != nil {
		t.Fatalf("paillier.KeyGen: %v", err)
	}
	gmPriv, err := gm.KeyGen(512)
	if err != nil {
		t.Fatalf("gm.KeyGen: %v", err)
	}

	// spec.md §8: k=5, l=16, v=[10,20,15,30,25] -> argmax index 3.
	vs := []uint64{10, 20, 15, 30, 25}
	l, lambda := 16, 20

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	owner := NewLinearOwner(encryptAll(t, pailPriv.PublicKey, vs), l, lambda, pailPriv.PublicKey, gmPriv, wire.New(connO))
	helper := NewLinearHelper(len(vs), l, lambda, pailPriv, gmPriv.PublicKey, wire.New(connH))

	errCh := make(chan error, 1)
	go func() { errCh <- helper.Run() }()

	if err := owner.Run(); err != nil {
		t.Fatalf("owner.Run: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("helper.Run: %v", err)
	}

	if owner.Output != 3 {
		t.Fatalf("got argmax %d, want 3", owner.Output)
	}
}

func TestLinearArgmaxRandomized(t *testing.T) {
	pailPriv, err := paillier.KeyGen(1024)
	if err != nil {
		t.Fatalf("paillier.KeyGen: %v", err)
	}
	gmPriv, err := gm.KeyGen(512)
	if err != nil {
		t.Fatalf("gm.KeyGen: %v", err)
	}

	cases := [][]uint64{
		{1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1},
		{7},
		{3, 3, 9, 9, 1},
	}
	l, lambda := 16, 20
	for _, vs := range cases {
		connO, connH := net.Pipe()
		owner := NewLinearOwner(encryptAll(t, pailPriv.PublicKey, vs), l, lambda, pailPriv.PublicKey, gmPriv, wire.New(connO))
		helper := NewLinearHelper(len(vs), l, lambda, pailPriv, gmPriv.PublicKey, wire.New(connH))

		errCh := make(chan error, 1)
		go func() { errCh <- helper.Run() }()

		if err := owner.Run(); err != nil {
			t.Fatalf("owner.Run: %v", err)
		}
		if err := <-errCh; err != nil {
			t.Fatalf("helper.Run: %v", err)
		}
		connO.Close()
		connH.Close()

		want := trueArgmax(vs)
		if owner.Output != want {
			t.Fatalf("vs=%v: got argmax %d, want %d", vs, owner.Output, want)
		}
	}
}
