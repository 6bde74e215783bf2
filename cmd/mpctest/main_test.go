package main

import "testing"

func TestRandBitsRespectsWidth(t *testing.T) {
	for _, l := range []int{1, 8, 17, 63, 64} {
		for i := 0; i < 50; i++ {
			v := randBits(l)
			if l < 64 && v>>uint(l) != 0 {
				t.Fatalf("randBits(%d) = %d has bits set above position %d", l, v, l)
			}
		}
	}
}

func TestPaillierKeyBitsHasFloor(t *testing.T) {
	if got := paillierKeyBits(4, 8); got != 512 {
		t.Fatalf("paillierKeyBits(4,8) = %d, want the 512 floor", got)
	}
	if got := paillierKeyBits(256, 128); got != 2*(256+128+2) {
		t.Fatalf("paillierKeyBits(256,128) = %d, want %d", got, 2*(256+128+2))
	}
}
