package enccompare

import (
	"math/big"
	"net"
	"testing"

	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/crypto/paillier"
	"github.com/ciphermed/mpccompare/wire"
)

type fixture struct {
	pailPriv *paillier.PrivateKey
	gmPriv   *gm.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pailPriv, err := paillier.KeyGen(1024)
	if err != nil {
		t.Fatalf("paillier.KeyGen: %v", err)
	}
	gmPriv, err := gm.KeyGen(512)
	if err != nil {
		t.Fatalf("gm.KeyGen: %v", err)
	}
	return &fixture{pailPriv: pailPriv, gmPriv: gmPriv}
}

// runForward executes the forward EncCompare protocol (lsic back end,
// owner learns the answer) and returns the owner's result.
func runForward(t *testing.T, f *fixture, a, b uint64, l, lambda int) bool {
	t.Helper()
	pub := f.pailPriv.PublicKey
	encA, err := pub.Encrypt(big.NewInt(int64(a)))
	if err != nil {
		t.Fatalf("Encrypt a: %v", err)
	}
	encB, err := pub.Encrypt(big.NewInt(int64(b)))
	if err != nil {
		t.Fatalf("Encrypt b: %v", err)
	}

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	backendL := l + lambda + 1
	backendB := LSICBackendB(backendL, f.gmPriv)
	backendA := LSICBackendA(backendL, f.gmPriv.PublicKey)

	owner := NewOwner(encA, encB, l, lambda, pub, f.gmPriv, backendB, wire.New(connO))
	helper := NewHelper(l, lambda, f.pailPriv, f.gmPriv.ByteLen(), backendA, wire.New(connH))

	errCh := make(chan error, 1)
	go func() { errCh <- helper.Run() }()

	if err := owner.Run(); err != nil {
		t.Fatalf("owner.Run: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("helper.Run: %v", err)
	}
	return owner.Output()
}

// runReverse executes the Rev_EncCompare protocol (helper learns the
// answer) and returns the helper's result.
func runReverse(t *testing.T, f *fixture, a, b uint64, l, lambda int) bool {
	t.Helper()
	pub := f.pailPriv.PublicKey
	encA, err := pub.Encrypt(big.NewInt(int64(a)))
	if err != nil {
		t.Fatalf("Encrypt a: %v", err)
	}
	encB, err := pub.Encrypt(big.NewInt(int64(b)))
	if err != nil {
		t.Fatalf("Encrypt b: %v", err)
	}

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	backendL := l + lambda + 1
	backendB := LSICBackendB(backendL, f.gmPriv)
	backendA := LSICBackendA(backendL, f.gmPriv.PublicKey)

	owner := NewRevOwner(encA, encB, l, lambda, pub, f.gmPriv, backendB, wire.New(connO))
	helper := NewRevHelper(l, lambda, f.pailPriv, f.gmPriv.ByteLen(), backendA, wire.New(connH))

	errCh := make(chan error, 1)
	go func() { errCh <- helper.Run() }()

	if err := owner.Run(); err != nil {
		t.Fatalf("owner.Run: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("helper.Run: %v", err)
	}
	return helper.Output()
}

func TestEncCompareForward(t *testing.T) {
	f := newFixture(t)
	cases := []struct{ a, b uint64 }{
		{3, 10},
		{10, 3},
		{7, 7},
		{0, 0},
		{255, 0},
		{0, 255},
	}
	for _, tc := range cases {
		got := runForward(t, f, tc.a, tc.b, 8, 16)
		want := tc.a <= tc.b
		if got != want {
			t.Fatalf("a=%d b=%d: got %v want %v", tc.a, tc.b, got, want)
		}
	}
}

func TestEncCompareReverse(t *testing.T) {
	f := newFixture(t)
	cases := []struct{ a, b uint64 }{
		{3, 10},
		{10, 3},
		{7, 7},
	}
	for _, tc := range cases {
		got := runReverse(t, f, tc.a, tc.b, 8, 16)
		want := tc.a <= tc.b
		if got != want {
			t.Fatalf("a=%d b=%d: got %v want %v", tc.a, tc.b, got, want)
		}
	}
}

// TestEncCompareTiePolarity exercises spec.md §8's tie-polarity case
// (equal 32-bit values) to confirm the <= (not <) semantics at a==b,
// with the lsic bit-compare back end plugged in underneath.
func TestEncCompareTiePolarity(t *testing.T) {
	f := newFixture(t)
	const v = 0x12345678
	if got := runForward(t, f, v, v, 32, 20); got != true {
		t.Fatalf("a==b: got %v want true (<=)", got)
	}
	if got := runReverse(t, f, v, v, 32, 20); got != true {
		t.Fatalf("a==b reverse: got %v want true (<=)", got)
	}
}

func TestEncCompareRejectsOversizedOperand(t *testing.T) {
	f := newFixture(t)
	pub := f.pailPriv.PublicKey
	encA, _ := pub.Encrypt(big.NewInt(1))
	encB, _ := pub.Encrypt(big.NewInt(2))
	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	l, lambda := 40, 30 // l+lambda = 70 > maxBlindedBits
	backendB := LSICBackendB(l+lambda+1, f.gmPriv)
	owner := NewOwner(encA, encB, l, lambda, pub, f.gmPriv, backendB, wire.New(connO))
	if err := owner.Run(); err == nil {
		t.Fatal("expected an error for an oversized l+lambda bound")
	}
}
