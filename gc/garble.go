package gc

import "github.com/ciphermed/mpccompare/protoerr"

// GarbledGate is one gate's garbled table: Table holds its four rows
// in point-and-permute order (free gates carry an empty table, since
// their output label is derived by XOR alone).
type GarbledGate struct {
	Op    Op
	Table [4]Label // unused rows left zero for free gates
}

// Garbled is everything the evaluator needs: one Wire pair per wire
// index and one GarbledGate per circuit gate, in circuit order.
type Garbled struct {
	R       Label // global free-XOR offset, never sent to the evaluator
	Wires   []Wire
	Gates   []GarbledGate
	Outputs [2]Label // the two possible labels of the (blinded) output wire
}

// Garble produces the garbled form of c. The caller retains R and the
// input wire pairs needed to hand out the garbler's own input labels and
// to run 1-of-2 OT for the evaluator's input labels.
func Garble(c *Circuit) (*Garbled, error) {
	r, err := NewLabel()
	if err != nil {
		return nil, err
	}
	r[labelSize-1] |= 1 // ensure R.S() == true, required for free-XOR correctness

	wires := make([]Wire, c.NumWires)
	// Allocate genuinely fresh wires for every input (a-bits, b-bits,
	// mask, const-one); downstream gates either derive their output wire
	// via free-XOR or allocate a fresh independent pair.
	inputWires := append(append(append([]int{}, c.AWires...), c.BWires...), c.MaskWire, c.ConstOne)
	for _, idx := range inputWires {
		w, err := newInputWire(r)
		if err != nil {
			return nil, err
		}
		wires[idx] = w
	}

	garbled := make([]GarbledGate, len(c.Gates))
	for gi, g := range c.Gates {
		a := wires[g.In0]
		b := wires[g.In1]

		if g.Op.free() {
			w0 := a.W0.Xor(b.W0)
			wires[g.Out] = Wire{W0: w0, W1: w0.Xor(r)}
			garbled[gi] = GarbledGate{Op: g.Op}
			continue
		}

		out, err := newInputWire(r)
		if err != nil {
			return nil, err
		}
		wires[g.Out] = out

		var table [4]Label
		for pa := 0; pa < 2; pa++ {
			for pb := 0; pb < 2; pb++ {
				la := a.Select(pa)
				lb := b.Select(pb)
				bit := g.Op.eval(pa, pb)
				target := out.Select(bit)
				mask, err := gateHash(la, lb, 0, gi)
				if err != nil {
					return nil, err
				}
				row := tableIndex(la.S(), lb.S())
				table[row] = mask.Xor(target)
			}
		}
		garbled[gi] = GarbledGate{Op: g.Op, Table: table}
	}

	outWire := wires[c.Output]
	return &Garbled{
		R:       r,
		Wires:   wires,
		Gates:   garbled,
		Outputs: [2]Label{outWire.W0, outWire.W1},
	}, nil
}

func tableIndex(sa, sb bool) int {
	idx := 0
	if sa {
		idx |= 0x2
	}
	if sb {
		idx |= 0x1
	}
	return idx
}

// Evaluate walks the garbled circuit given one input label per input
// wire (in the same order Garble allocated them: a-bits, b-bits, mask,
// const-one) and returns the resulting output-wire label.
func Evaluate(c *Circuit, garbled *Garbled, inputLabels map[int]Label) (Label, error) {
	labels := make([]Label, c.NumWires)
	for idx, l := range inputLabels {
		labels[idx] = l
	}

	for gi, g := range c.Gates {
		a := labels[g.In0]
		b := labels[g.In1]

		if g.Op.free() {
			labels[g.Out] = a.Xor(b)
			continue
		}
		row := tableIndex(a.S(), b.S())
		mask, err := gateHash(a, b, 0, gi)
		if err != nil {
			return Label{}, err
		}
		labels[g.Out] = mask.Xor(garbled.Gates[gi].Table[row])
	}
	return labels[c.Output], nil
}

// Decode maps the final output label back to a plaintext bit, given the
// two possible output labels from Garble. It fails closed if the label
// matches neither, which indicates a transcript or circuit mismatch.
func Decode(outputs [2]Label, got Label) (int, error) {
	if got == outputs[0] {
		return 0, nil
	}
	if got == outputs[1] {
		return 1, nil
	}
	return 0, protoerr.Errorf(protoerr.Invariant, "gc.Decode", "output label matches neither decoding entry")
}
