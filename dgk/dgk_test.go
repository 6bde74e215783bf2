package dgk

import (
	"net"
	"testing"

	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/crypto/paillier"
	"github.com/ciphermed/mpccompare/wire"
)

func runDGK(t *testing.T, a, b uint64, l int) bool {
	t.Helper()
	pailPriv, err := paillier.KeyGen(512)
	if err != nil {
		t.Fatalf("paillier.KeyGen: %v", err)
	}
	gmPriv, err := gm.KeyGen(512)
	if err != nil {
		t.Fatalf("gm.KeyGen: %v", err)
	}

	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	pa := NewA(a, l, pailPriv.PublicKey, gmPriv.PublicKey, wire.New(connA))
	pb := NewB(b, l, pailPriv, gmPriv, wire.New(connB))

	errCh := make(chan error, 1)
	go func() { errCh <- pb.Run() }()

	if err := pa.Run(); err != nil {
		t.Fatalf("A.Run: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("B.Run: %v", err)
	}

	bit, err := gmPriv.Decrypt(pa.Output)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	return bit == 1
}

func TestCompareConcreteScenario(t *testing.T) {
	// spec.md §8: l=8, a=0x3C, b=0x5A -> a < b is true.
	if got := runDGK(t, 0x3C, 0x5A, 8); got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestCompareVariants(t *testing.T) {
	cases := []struct {
		a, b uint64
		l    int
	}{
		{0x5A, 0x3C, 8},
		{0x00, 0x00, 8},
		{0xFF, 0xFF, 8},
		{0x00, 0xFF, 8},
		{0xFF, 0x00, 8},
		{1, 0, 4},
		{0, 15, 4},
	}
	for _, tc := range cases {
		got := runDGK(t, tc.a, tc.b, tc.l)
		want := tc.a < tc.b
		if got != want {
			t.Fatalf("a=%d b=%d l=%d: got %v want %v", tc.a, tc.b, tc.l, got, want)
		}
	}
}
