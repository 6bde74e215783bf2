package gm

import "testing"

const testKeyBits = 256

func TestEncryptDecryptRoundTrip(t *testing.T) {
	priv, err := KeyGen(testKeyBits)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	for _, bit := range []int{0, 1} {
		ct, err := priv.Encrypt(bit)
		if err != nil {
			t.Fatalf("Encrypt(%d): %v", bit, err)
		}
		got, err := priv.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != bit {
			t.Fatalf("Decrypt(Encrypt(%d)) = %d", bit, got)
		}
	}
}

func TestXorCtIsHomomorphicXor(t *testing.T) {
	priv, err := KeyGen(testKeyBits)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	for a := 0; a <= 1; a++ {
		for b := 0; b <= 1; b++ {
			ca, err := priv.Encrypt(a)
			if err != nil {
				t.Fatalf("Encrypt(%d): %v", a, err)
			}
			cb, err := priv.Encrypt(b)
			if err != nil {
				t.Fatalf("Encrypt(%d): %v", b, err)
			}
			got, err := priv.Decrypt(priv.XorCt(ca, cb))
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if want := a ^ b; got != want {
				t.Fatalf("XorCt(%d,%d) decrypts to %d, want %d", a, b, got, want)
			}
		}
	}
}

func TestNegIsHomomorphicNot(t *testing.T) {
	priv, err := KeyGen(testKeyBits)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	for _, bit := range []int{0, 1} {
		ct, err := priv.Encrypt(bit)
		if err != nil {
			t.Fatalf("Encrypt(%d): %v", bit, err)
		}
		got, err := priv.Decrypt(priv.Neg(ct))
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if want := 1 - bit; got != want {
			t.Fatalf("Neg(Encrypt(%d)) decrypts to %d, want %d", bit, got, want)
		}
	}
}

func TestRerandPreservesPlaintext(t *testing.T) {
	priv, err := KeyGen(testKeyBits)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	ct, err := priv.Encrypt(1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	rerand, err := priv.Rerand(ct)
	if err != nil {
		t.Fatalf("Rerand: %v", err)
	}
	if rerand.C.Cmp(ct.C) == 0 {
		t.Fatalf("Rerand returned the same ciphertext representation")
	}
	got, err := priv.Decrypt(rerand)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != 1 {
		t.Fatalf("Decrypt(Rerand(Encrypt(1))) = %d, want 1", got)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	priv, err := KeyGen(testKeyBits)
	if err != nil {
		t.Fatalf("KeyGen: %v", err)
	}
	ct, err := priv.Encrypt(1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	byteLen := priv.ByteLen()
	b := ct.Bytes(byteLen)
	if len(b) != byteLen {
		t.Fatalf("Bytes length = %d, want %d", len(b), byteLen)
	}
	got, err := priv.Decrypt(FromBytes(b))
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != 1 {
		t.Fatalf("Decrypt(FromBytes(Bytes(ct))) = %d, want 1", got)
	}
}

func TestKeyGenRejectsSmallKeys(t *testing.T) {
	if _, err := KeyGen(128); err != ErrKeySize {
		t.Fatalf("KeyGen(128) error = %v, want ErrKeySize", err)
	}
}
