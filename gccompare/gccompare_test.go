package gccompare

import (
	"net"
	"testing"

	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/wire"
)

func runGCCompare(t *testing.T, a, b uint64, l int) bool {
	t.Helper()
	priv, err := gm.KeyGen(512)
	if err != nil {
		t.Fatalf("gm.KeyGen: %v", err)
	}

	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	pa := NewA(a, l, priv.PublicKey, wire.New(connA))
	pb := NewB(b, l, priv, wire.New(connB))

	errCh := make(chan error, 1)
	go func() { errCh <- pb.Run() }()

	if err := pa.Run(); err != nil {
		t.Fatalf("A.Run: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("B.Run: %v", err)
	}

	bit, err := priv.Decrypt(pa.Output)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	return bit == 1
}

func TestGCCompareConcreteScenario(t *testing.T) {
	// spec.md §8: l=16, a=0xFFFF, b=0x0000 -> a < b is false.
	if got := runGCCompare(t, 0xFFFF, 0x0000, 16); got != false {
		t.Fatalf("got %v, want false", got)
	}
}

func TestGCCompareVariants(t *testing.T) {
	cases := []struct {
		a, b uint64
		l    int
	}{
		{0x5A, 0x3C, 8},
		{0x3C, 0x5A, 8},
		{0x00, 0x00, 8},
		{0xFF, 0xFF, 8},
		{0x00, 0xFF, 8},
		{0xFF, 0x00, 8},
		{0, 1, 4},
		{15, 0, 4},
	}
	for _, tc := range cases {
		got := runGCCompare(t, tc.a, tc.b, tc.l)
		want := tc.a < tc.b
		if got != want {
			t.Fatalf("a=%d b=%d l=%d: got %v want %v", tc.a, tc.b, tc.l, got, want)
		}
	}
}
