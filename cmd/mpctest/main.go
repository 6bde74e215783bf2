// Command mpctest is the CLI test driver of spec.md §6: it runs every
// protocol this module implements (C1-C10) end to end over in-process
// duplex pipes and reports pass/fail, exiting 0 only if all of them
// succeed.
//
// Grounded on original_source/src/mpc/test_mpc.cc's main(): the same
// four positional arguments in the same order (lambda, l, n, t) and the
// same protocol sequence (LSIC, DGK-style compare, GC compare, enc
// compare, reverse enc compare, linear argmax, tree argmax, the QR->FHE
// cryptosystem switch), adapted from test_mpc.cc's one-shot assert()
// calls to Go's error-returning style. The flag-free positional
// argument parsing, the fatal-on-first-failure control flow, and the
// per-test log lines follow teacher's notary.go (its flag.Parse/
// log.Fatalln idiom); each protocol run itself is driven through a
// session.Session, so a panic inside any protocol is recovered and
// reported exactly like notary.go's destroyOnPanic, without this driver
// needing its own recover.
package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log"
	"math/big"
	"net"
	"os"
	"strconv"

	"github.com/ciphermed/mpccompare/argmax"
	"github.com/ciphermed/mpccompare/crypto/fhe"
	"github.com/ciphermed/mpccompare/crypto/gm"
	"github.com/ciphermed/mpccompare/crypto/paillier"
	"github.com/ciphermed/mpccompare/csswitch"
	"github.com/ciphermed/mpccompare/dgk"
	"github.com/ciphermed/mpccompare/enccompare"
	"github.com/ciphermed/mpccompare/gccompare"
	"github.com/ciphermed/mpccompare/lsic"
	"github.com/ciphermed/mpccompare/session"
	"github.com/ciphermed/mpccompare/session_manager"
	"github.com/ciphermed/mpccompare/wire"
)

// gmKeyBits and fheLogN are fixed across all tests: GM's security doesn't
// depend on l (it only ever encrypts single bits), and a small ring
// degree comfortably covers the vector sizes this driver's argmax/
// change-ES tests exercise.
const (
	gmKeyBits = 512
	fheLogN   = 12
	// maxBlindedBits mirrors enccompare's own bound on l+lambda (a
	// blinded operand must still fit this module's uint64 operand
	// representation).
	maxBlindedBits = 62
)

func usage(prog string) {
	fmt.Fprintf(os.Stderr, "Usage: %s <lambda> <l> <n> <t>\n", prog)
	fmt.Fprintln(os.Stderr, "  lambda: bits of statistical indistinguishability for blinded comparisons")
	fmt.Fprintln(os.Stderr, "  l:      bit length of the integers under test (1-64)")
	fmt.Fprintln(os.Stderr, "  n:      number of elements in the argmax/change-ES tests")
	fmt.Fprintln(os.Stderr, "  t:      number of concurrent streams for the tree argmax test")
	os.Exit(1)
}

func main() {
	if len(os.Args) != 5 {
		usage(os.Args[0])
	}
	lambda, err1 := strconv.Atoi(os.Args[1])
	l, err2 := strconv.Atoi(os.Args[2])
	n, err3 := strconv.Atoi(os.Args[3])
	t, err4 := strconv.Atoi(os.Args[4])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		usage(os.Args[0])
	}
	if l < 1 || l > 64 {
		log.Fatalf("l must be between 1 and 64, got %d", l)
	}
	if lambda < 0 || l+lambda > maxBlindedBits-1 {
		log.Fatalf("l+lambda must be <= %d, got %d", maxBlindedBits-1, l+lambda)
	}
	if n < 1 {
		log.Fatalf("n must be >= 1, got %d", n)
	}
	if t < 1 {
		t = 1
	}

	sm := session_manager.New()
	defer sm.Cleanup()

	tests := []struct {
		name string
		run  func() error
	}{
		{"LSIC", func() error { return testLSIC(sm, l) }},
		{"Compare (DGK)", func() error { return testCompare(sm, l, lambda) }},
		{"GC Compare", func() error { return testGC(sm, l) }},
		{"Enc Compare", func() error { return testEncCompare(sm, l, lambda) }},
		{"Rev Enc Compare", func() error { return testRevEncCompare(sm, l, lambda) }},
		{"Linear Enc Argmax", func() error { return testLinearEncArgmax(sm, n, l, lambda) }},
		{"Tree Enc Argmax", func() error { return testTreeEncArgmax(sm, n, l, lambda, t) }},
		{"Change ES (QR -> FHE)", func() error { return testChangeES(sm, n) }},
	}

	for _, tc := range tests {
		log.Printf("Test %s ...", tc.name)
		if err := tc.run(); err != nil {
			log.Fatalf("Test %s FAILED: %v", tc.name, err)
		}
		log.Printf("Test %s passed", tc.name)
	}

	log.Println("all tests passed")
}

// runTwoParty drives owner and helper concurrently, each wrapped in its
// own session so a panic in either one is recovered and turned into an
// error rather than crashing the driver.
func runTwoParty(sm *session_manager.Manager, owner, helper session.Protocol) error {
	ownerSession := sm.AddSession(session.NewSid(), session.RoleOwner)
	helperSession := sm.AddSession(session.NewSid(), session.RoleHelper)

	errCh := make(chan error, 2)
	go func() { errCh <- ownerSession.Run(owner) }()
	go func() { errCh <- helperSession.Run(helper) }()

	var first error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// randBits returns a uniformly random l-bit unsigned integer, the Go
// analogue of test_mpc.cc's mpz_urandom_len(nbits) calls, sized to this
// module's uint64 operand representation instead of NTL's arbitrary
// precision integers.
func randBits(l int) uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	v := binary.BigEndian.Uint64(b[:])
	if l < 64 {
		v &= (uint64(1) << uint(l)) - 1
	}
	return v
}

func paillierKeyBits(l, lambda int) int {
	bits := 2 * (l + lambda + 2)
	if bits < 512 {
		bits = 512
	}
	return bits
}

func testLSIC(sm *session_manager.Manager, l int) error {
	a, b := randBits(l), randBits(l)

	priv, err := gm.KeyGen(gmKeyBits)
	if err != nil {
		return err
	}
	pub := priv.PublicKey

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	partyA := lsic.NewA(a, l, pub, wire.New(connO))
	partyB := lsic.NewB(b, l, priv, wire.New(connH))
	if err := runTwoParty(sm, partyA, partyB); err != nil {
		return err
	}

	got, err := priv.Decrypt(partyA.Output)
	if err != nil {
		return err
	}
	want := 0
	if a < b {
		want = 1
	}
	if got != want {
		return fmt.Errorf("lsic: got a<b=%d, want %d (a=%d, b=%d)", got, want, a, b)
	}
	return nil
}

func testCompare(sm *session_manager.Manager, l, lambda int) error {
	a, b := randBits(l), randBits(l)

	pailPriv, err := paillier.KeyGen(paillierKeyBits(l, lambda))
	if err != nil {
		return err
	}
	gmPriv, err := gm.KeyGen(gmKeyBits)
	if err != nil {
		return err
	}

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	partyA := dgk.NewA(a, l, pailPriv.PublicKey, gmPriv.PublicKey, wire.New(connO))
	partyB := dgk.NewB(b, l, pailPriv, gmPriv, wire.New(connH))
	if err := runTwoParty(sm, partyA, partyB); err != nil {
		return err
	}

	got, err := gmPriv.Decrypt(partyA.Output)
	if err != nil {
		return err
	}
	want := 0
	if a < b {
		want = 1
	}
	if got != want {
		return fmt.Errorf("dgk compare: got a<b=%d, want %d (a=%d, b=%d)", got, want, a, b)
	}
	return nil
}

func testGC(sm *session_manager.Manager, l int) error {
	a, b := randBits(l), randBits(l)

	gmPriv, err := gm.KeyGen(gmKeyBits)
	if err != nil {
		return err
	}

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	partyA := gccompare.NewA(a, l, gmPriv.PublicKey, wire.New(connO))
	partyB := gccompare.NewB(b, l, gmPriv, wire.New(connH))
	if err := runTwoParty(sm, partyA, partyB); err != nil {
		return err
	}

	got, err := gmPriv.Decrypt(partyA.Output)
	if err != nil {
		return err
	}
	want := 0
	if a < b {
		want = 1
	}
	if got != want {
		return fmt.Errorf("gc compare: got a<b=%d, want %d (a=%d, b=%d)", got, want, a, b)
	}
	return nil
}

func testEncCompare(sm *session_manager.Manager, l, lambda int) error {
	a, b := randBits(l), randBits(l)

	pailPriv, err := paillier.KeyGen(paillierKeyBits(l, lambda))
	if err != nil {
		return err
	}
	pailPub := pailPriv.PublicKey
	gmPriv, err := gm.KeyGen(gmKeyBits)
	if err != nil {
		return err
	}
	gmPub := gmPriv.PublicKey

	encA, err := pailPub.Encrypt(new(big.Int).SetUint64(a))
	if err != nil {
		return err
	}
	encB, err := pailPub.Encrypt(new(big.Int).SetUint64(b))
	if err != nil {
		return err
	}

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	backendL := l + lambda + 1
	owner := enccompare.NewOwner(encA, encB, l, lambda, pailPub, gmPriv, enccompare.LSICBackendB(backendL, gmPriv), wire.New(connO))
	helper := enccompare.NewHelper(l, lambda, pailPriv, gmPub.ByteLen(), enccompare.LSICBackendA(backendL, gmPub), wire.New(connH))
	if err := runTwoParty(sm, owner, helper); err != nil {
		return err
	}

	want := a <= b
	if owner.Output() != want {
		return fmt.Errorf("enc compare: got a<=b=%v, want %v (a=%d, b=%d)", owner.Output(), want, a, b)
	}
	return nil
}

func testRevEncCompare(sm *session_manager.Manager, l, lambda int) error {
	a, b := randBits(l), randBits(l)

	pailPriv, err := paillier.KeyGen(paillierKeyBits(l, lambda))
	if err != nil {
		return err
	}
	pailPub := pailPriv.PublicKey
	gmPriv, err := gm.KeyGen(gmKeyBits)
	if err != nil {
		return err
	}
	gmPub := gmPriv.PublicKey

	encA, err := pailPub.Encrypt(new(big.Int).SetUint64(a))
	if err != nil {
		return err
	}
	encB, err := pailPub.Encrypt(new(big.Int).SetUint64(b))
	if err != nil {
		return err
	}

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	backendL := l + lambda + 1
	owner := enccompare.NewRevOwner(encA, encB, l, lambda, pailPub, gmPriv, enccompare.LSICBackendB(backendL, gmPriv), wire.New(connO))
	helper := enccompare.NewRevHelper(l, lambda, pailPriv, gmPub.ByteLen(), enccompare.LSICBackendA(backendL, gmPub), wire.New(connH))
	if err := runTwoParty(sm, owner, helper); err != nil {
		return err
	}

	want := a <= b
	if helper.Output() != want {
		return fmt.Errorf("rev enc compare: got a<=b=%v, want %v (a=%d, b=%d)", helper.Output(), want, a, b)
	}
	return nil
}

func testLinearEncArgmax(sm *session_manager.Manager, n, l, lambda int) error {
	values := make([]uint64, n)
	// argmax.LinearOwner folds with a <= comparison, so a tie keeps the
	// later index; match that here with >= rather than > so the ground
	// truth agrees with the implementation's tie polarity.
	real := 0
	for i := range values {
		values[i] = randBits(l)
		if values[i] >= values[real] {
			real = i
		}
	}

	pailPriv, err := paillier.KeyGen(paillierKeyBits(l, lambda))
	if err != nil {
		return err
	}
	pailPub := pailPriv.PublicKey
	gmPriv, err := gm.KeyGen(gmKeyBits)
	if err != nil {
		return err
	}

	enc := make([]*paillier.Ciphertext, n)
	for i, v := range values {
		enc[i], err = pailPub.Encrypt(new(big.Int).SetUint64(v))
		if err != nil {
			return err
		}
	}

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	owner := argmax.NewLinearOwner(enc, l, lambda, pailPub, gmPriv, wire.New(connO))
	helper := argmax.NewLinearHelper(n, l, lambda, pailPriv, gmPriv.PublicKey, wire.New(connH))
	if err := runTwoParty(sm, owner, helper); err != nil {
		return err
	}

	if owner.Output != real {
		return fmt.Errorf("linear argmax: got %d, want %d (values=%v)", owner.Output, real, values)
	}
	return nil
}

func testTreeEncArgmax(sm *session_manager.Manager, n, l, lambda, numStreams int) error {
	values := make([]uint64, n)
	real := 0
	for i := range values {
		values[i] = randBits(l)
		if values[i] > values[real] {
			real = i
		}
	}

	pailPriv, err := paillier.KeyGen(paillierKeyBits(l, lambda))
	if err != nil {
		return err
	}
	pailPub := pailPriv.PublicKey
	gmPriv, err := gm.KeyGen(gmKeyBits)
	if err != nil {
		return err
	}

	enc := make([]*paillier.Ciphertext, n)
	for i, v := range values {
		enc[i], err = pailPub.Encrypt(new(big.Int).SetUint64(v))
		if err != nil {
			return err
		}
	}

	conns := make([]net.Conn, 0, numStreams*2)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	ownerStreams := make([]*wire.Stream, numStreams)
	helperStreams := make([]*wire.Stream, numStreams)
	for i := 0; i < numStreams; i++ {
		co, ch := net.Pipe()
		conns = append(conns, co, ch)
		ownerStreams[i] = wire.New(co)
		helperStreams[i] = wire.New(ch)
	}

	owner := argmax.NewTreeOwner(enc, l, lambda, pailPub, gmPriv, ownerStreams)
	helper := argmax.NewTreeHelper(n, l, lambda, pailPriv, gmPriv.PublicKey, helperStreams)
	if err := runTwoParty(sm, owner, helper); err != nil {
		return err
	}

	// The tournament bracket's tie-breaking order depends on pairing
	// structure, not a simple index rule, so check that the winner
	// actually achieves the maximum rather than requiring an exact
	// index match with a linear scan's tie polarity.
	if owner.Output < 0 || owner.Output >= n || values[owner.Output] != values[real] {
		return fmt.Errorf("tree argmax: got index %d (value %v), want a max-achieving index (max=%v, values=%v)", owner.Output, values[owner.Output], values[real], values)
	}
	return nil
}

func testChangeES(sm *session_manager.Manager, n int) error {
	fheCtx, err := fhe.NewContext(fheLogN)
	if err != nil {
		return err
	}
	if n > fheCtx.Slots() {
		n = fheCtx.Slots()
	}
	kp := fheCtx.KeyGen()

	gmPriv, err := gm.KeyGen(gmKeyBits)
	if err != nil {
		return err
	}
	gmPub := gmPriv.PublicKey

	bits := make([]uint64, n)
	values := make([]*gm.Ciphertext, n)
	for i := range bits {
		bits[i] = randBits(1)
		values[i], err = gmPub.Encrypt(int(bits[i]))
		if err != nil {
			return err
		}
	}

	connO, connH := net.Pipe()
	defer connO.Close()
	defer connH.Close()

	owner := csswitch.NewOwner(values, gmPub, fheCtx, kp.Public, wire.New(connO))
	helper := csswitch.NewHelper(n, gmPriv, fheCtx, kp.Public, wire.New(connH))
	if err := runTwoParty(sm, owner, helper); err != nil {
		return err
	}

	got, err := fheCtx.DecSlots(kp.Secret, owner.Output, n)
	if err != nil {
		return err
	}
	for i := range bits {
		if got[i] != bits[i] {
			return fmt.Errorf("change ES: slot %d got %d, want %d", i, got[i], bits[i])
		}
	}
	return nil
}
