package contentstream

import "bytes"

// Operation is an operator with its operands.
type Operation struct {
	Operator string
	Operands []Operand
}

func (op Operation) Append(b []byte) []byte {
	for _, o := range op.Operands {
		b = o.Append(b)
		b = append(b, ' ')
	}
	return append(b, op.Operator...)
}

// Fragment is a sequence of operations written as one content line.
type Fragment struct {
	Ops []Operation
}

// Op appends an operation.
func (f *Fragment) Op(operator string, operands ...Operand) *Fragment {
	f.Ops = append(f.Ops, Operation{Operator: operator, Operands: operands})
	return f
}

// Num appends an operation whose operands are all numbers.
func (f *Fragment) Num(operator string, vs ...float64) *Fragment {
	return f.Op(operator, Nums(vs...)...)
}

// Prepend puts the operations of g in front of f.
func (f *Fragment) Prepend(g *Fragment) {
	if g == nil || len(g.Ops) == 0 {
		return
	}
	f.Ops = append(append([]Operation(nil), g.Ops...), f.Ops...)
}

// Extend appends the operations of g.
func (f *Fragment) Extend(g *Fragment) {
	if g != nil {
		f.Ops = append(f.Ops, g.Ops...)
	}
}

func (f *Fragment) Empty() bool { return f == nil || len(f.Ops) == 0 }

// Bytes serializes the fragment with single spaces between operations.
func (f *Fragment) Bytes() []byte {
	if f == nil {
		return nil
	}
	var b []byte
	for i, op := range f.Ops {
		if i > 0 {
			b = append(b, ' ')
		}
		b = op.Append(b)
	}
	return b
}

func (f *Fragment) String() string { return string(f.Bytes()) }

// Justify widens the spaces of every text-showing operation in f by
// spacing user units. Single-byte text gets a Tw word-spacing operator;
// Tw does not apply to two-byte codes, so two-byte text gets a kerning
// adjustment after each space inside its TJ array instead.
func Justify(f *Fragment, spacing, fontSizePt, k float64) {
	if spacing == 0 || fontSizePt == 0 {
		return
	}
	out := make([]Operation, 0, len(f.Ops)+2)
	for _, op := range f.Ops {
		unit, ok := textUnit(op)
		if !ok {
			out = append(out, op)
			continue
		}
		if unit == 1 {
			out = append(out,
				Operation{Operator: "Tw", Operands: []Operand{Number(spacing * k)}},
				op,
				Operation{Operator: "Tw", Operands: []Operand{Number(0)}})
			continue
		}
		adj := Number(-spacing * k * 1000 / fontSizePt)
		out = append(out, Operation{Operator: "TJ", Operands: []Operand{kern(op.Operands[0], adj)}})
	}
	f.Ops = out
}

func textUnit(op Operation) (int, bool) {
	if len(op.Operands) != 1 {
		return 0, false
	}
	switch op.Operator {
	case "Tj":
		if t, ok := op.Operands[0].(Text); ok {
			return t.Unit, true
		}
	case "TJ":
		if a, ok := op.Operands[0].(Array); ok {
			for _, o := range a {
				if t, ok := o.(Text); ok {
					return t.Unit, true
				}
			}
		}
	}
	return 0, false
}

var space2 = []byte{0x00, 0x20}

// kern splits two-byte text after every space and inserts adj.
func kern(operand Operand, adj Number) Array {
	var items []Operand
	switch v := operand.(type) {
	case Text:
		items = []Operand{v}
	case Array:
		items = v
	}
	var out Array
	for _, it := range items {
		t, ok := it.(Text)
		if !ok {
			out = append(out, it)
			continue
		}
		rest := t.Bytes
		for {
			i := indexCode(rest, space2)
			if i < 0 || i+2 == len(rest) {
				break
			}
			out = append(out, Text{Bytes: rest[:i+2], Unit: 2}, adj)
			rest = rest[i+2:]
		}
		out = append(out, Text{Bytes: rest, Unit: 2})
	}
	return out
}

// indexCode finds code at an even offset of b.
func indexCode(b, code []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		if bytes.Equal(b[i:i+2], code) {
			return i
		}
	}
	return -1
}
