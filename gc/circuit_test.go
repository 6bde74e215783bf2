package gc

import "testing"

func TestCircuitShapeMatchesConstruction(t *testing.T) {
	for _, l := range []int{1, 4, 8, 16} {
		inputs, gates, wires := circuitShape(l)
		wantInputs := 2*l + 2
		if inputs != wantInputs {
			t.Fatalf("l=%d: inputs=%d want %d", l, inputs, wantInputs)
		}
		if gates <= 0 || gates > 4*l {
			t.Fatalf("l=%d: gate count %d out of expected range", l, gates)
		}
		if wires <= inputs {
			t.Fatalf("l=%d: wire count %d should exceed input count %d", l, wires, inputs)
		}
	}
}

func evalPlain(c *Circuit, aBits, bBits []int) int {
	values := make([]int, c.NumWires)
	for i, w := range c.AWires {
		values[w] = aBits[i]
	}
	for i, w := range c.BWires {
		values[w] = bBits[i]
	}
	values[c.MaskWire] = 0
	values[c.ConstOne] = 1
	for _, g := range c.Gates {
		values[g.Out] = g.Op.eval(values[g.In0], values[g.In1])
	}
	return values[c.Output]
}

func bitsMSBFirst(v uint64, l int) []int {
	out := make([]int, l)
	for i := 0; i < l; i++ {
		out[i] = int((v >> uint(l-1-i)) & 1)
	}
	return out
}

func TestPlainLessThanCircuit(t *testing.T) {
	l := 8
	cases := []struct{ a, b uint64 }{
		{0x5A, 0x3C},
		{0x3C, 0x5A},
		{0x00, 0x00},
		{0xFF, 0xFF},
		{0x00, 0xFF},
		{0xFF, 0x00},
	}
	for _, tc := range cases {
		c := BuildLessThan(l)
		got := evalPlain(c, bitsMSBFirst(tc.a, l), bitsMSBFirst(tc.b, l))
		want := 0
		if tc.a < tc.b {
			want = 1
		}
		if got != want {
			t.Fatalf("a=%#x b=%#x: got %d want %d", tc.a, tc.b, got, want)
		}
	}
}
