package csswitch

import (
	"net"
	"testing"

	"github.com/ciphermed/mpccompare/crypto/fhe"
	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/wire"
)

func encryptBits(t *testing.T, pub *gm.PublicKey, bits []uint64) []*gm.Ciphertext {
	t.Helper()
	out := make([]*gm.Ciphertext, len(bits))
	for i, b := range bits {
		ct, err := pub.Encrypt(int(b))
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		out[i] = ct
	}
	return out
}

func runSwitch(t *testing.T, bits []uint64) []uint64 {
	t.Helper()
	gmPriv, err := gm.KeyGen(512)
	if err != nil {
		t.Fatalf("gm.KeyGen: %v", err)
	}
	fheCtx, err := fhe.NewContext(12)
	if err != nil {
		t.Fatalf("fhe.NewContext: %v", err)
	}
	kp := fheCtx.KeyGen()

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	owner := NewOwner(encryptBits(t, gmPriv.PublicKey, bits), gmPriv.PublicKey, fheCtx, kp.Public, wire.New(connO))
	helper := NewHelper(len(bits), gmPriv, fheCtx, kp.Public, wire.New(connH))

	errCh := make(chan error, 1)
	go func() { errCh <- helper.Run() }()

	if err := owner.Run(); err != nil {
		t.Fatalf("owner.Run: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("helper.Run: %v", err)
	}

	got, err := fheCtx.DecSlots(kp.Secret, owner.Output, len(bits))
	if err != nil {
		t.Fatalf("DecSlots: %v", err)
	}
	return got
}

// TestCSSwitchConcreteScenario exercises spec.md §8's scenario 6: CS-switch
// with x = [1,0,1,1,0,0,1,0] round-trips to the same bits via FHE slots.
func TestCSSwitchConcreteScenario(t *testing.T) {
	x := []uint64{1, 0, 1, 1, 0, 0, 1, 0}
	got := runSwitch(t, x)
	for i, want := range x {
		if got[i] != want {
			t.Fatalf("slot %d: got %d want %d (full: %v)", i, got[i], want, got)
		}
	}
}

func TestCSSwitchVariants(t *testing.T) {
	cases := [][]uint64{
		{0},
		{1},
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{1, 0},
		{0, 1, 0, 1, 0, 1, 0, 1, 0, 1},
	}
	for _, bits := range cases {
		got := runSwitch(t, bits)
		for i, want := range bits {
			if got[i] != want {
				t.Fatalf("bits=%v: slot %d: got %d want %d", bits, i, got[i], want)
			}
		}
	}
}
