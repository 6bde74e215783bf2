package gc

import "fmt"

// Op identifies a gate's boolean function.
type Op int

const (
	OpXOR Op = iota
	OpAND
	OpOR
)

func (o Op) String() string {
	switch o {
	case OpXOR:
		return "XOR"
	case OpAND:
		return "AND"
	case OpOR:
		return "OR"
	default:
		return "?"
	}
}

// free reports whether a gate's garbling costs no table (free-XOR).
func (o Op) free() bool { return o == OpXOR }

// eval applies the gate's truth table to plaintext bits.
func (o Op) eval(a, b int) int {
	switch o {
	case OpXOR:
		return a ^ b
	case OpAND:
		return a & b
	case OpOR:
		return a | b
	default:
		panic("gc: unknown op")
	}
}

// Gate is one two-input, one-output boolean gate over wire indices.
type Gate struct {
	Op       Op
	In0, In1 int
	Out      int
}

// Circuit is a comparator: it takes l bits of a, l bits of b, and one
// blinding-mask bit, and outputs a single bit, blinded by the mask, that
// the evaluator cannot interpret without the garbler's unblind step.
//
// Wire numbering: [0, l) = a bits (MSB first), [l, 2l) = b bits (MSB
// first), 2l = mask bit, 2l+1 = constant 1. Everything from there on is
// internal.
type Circuit struct {
	L        int
	NumWires int
	Gates    []Gate
	AWires   []int // input wire indices for a, MSB first
	BWires   []int // input wire indices for b, MSB first
	MaskWire int
	ConstOne int
	Output   int
}

// circuitShape reports the input/gate/wire counts for an l-bit comparator,
// recomputed from the actual gate-construction loop below rather than
// trusted from a closed-form formula (see DESIGN.md's open-question note).
func circuitShape(l int) (inputs, gates, wires int) {
	c := BuildLessThan(l)
	return len(c.AWires) + len(c.BWires) + 2, len(c.Gates), c.NumWires
}

// BuildLessThan constructs the l-bit "a < b" comparator circuit: a
// ripple computation carrying an "equal so far" and "less so far" signal
// from the most significant bit down, per the textbook garbled
// less-than comparator also used by
// original_source/src/mpc/garbled_comparison.cc's bit-serial circuit.
func BuildLessThan(l int) *Circuit {
	if l <= 0 {
		panic("gc: l must be positive")
	}
	next := 0
	alloc := func() int {
		w := next
		next++
		return w
	}

	c := &Circuit{L: l}
	c.AWires = make([]int, l)
	c.BWires = make([]int, l)
	for i := 0; i < l; i++ {
		c.AWires[i] = alloc()
	}
	for i := 0; i < l; i++ {
		c.BWires[i] = alloc()
	}
	c.MaskWire = alloc()
	c.ConstOne = alloc()

	gate := func(op Op, in0, in1 int) int {
		out := alloc()
		c.Gates = append(c.Gates, Gate{Op: op, In0: in0, In1: in1, Out: out})
		return out
	}

	constZero := gate(OpXOR, c.ConstOne, c.ConstOne) // free

	eq := c.ConstOne
	lt := constZero
	for i := 0; i < l; i++ {
		a := c.AWires[i]
		b := c.BWires[i]

		notA := gate(OpXOR, a, c.ConstOne) // free
		t1 := gate(OpAND, eq, notA)
		t2 := gate(OpAND, t1, b)
		lt = gate(OpOR, lt, t2)

		axorb := gate(OpXOR, a, b)         // free
		eqI := gate(OpXOR, axorb, c.ConstOne) // free (XNOR)
		eq = gate(OpAND, eq, eqI)
	}

	c.Output = gate(OpXOR, lt, c.MaskWire) // free — blinds the evaluator's view
	c.NumWires = next
	return c
}

func (c *Circuit) String() string {
	return fmt.Sprintf("gc.Circuit{l=%d, wires=%d, gates=%d}", c.L, c.NumWires, len(c.Gates))
}
