package contentstream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		12:         "12",
		595.276:    "595.276",
		0.1234567:  "0.12346",
		-0.0000001: "0",
		-3.5:       "-3.5",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFragmentBytes(t *testing.T) {
	var f Fragment
	f.Op("BT").Op("Tf", Name("F1"), Number(12)).Op("ET")
	f.Op("BT").Num("Td", 28.35, 813.54).Op("TJ", Array{Text{Bytes: []byte("a(b)"), Unit: 1}}).Op("ET")
	want := "BT /F1 12 Tf ET BT 28.35 813.54 Td [(a\\(b\\))] TJ ET"
	if got := f.String(); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
	if got := string(Name("A B#").Append(nil)); got != "/A#20B#23" {
		t.Fatalf("name escaping: %s", got)
	}
}

func TestPrependPaintsBeneath(t *testing.T) {
	var text, border Fragment
	text.Op("BT").Op("ET")
	border.Num("re", 0, 0, 10, 10).Op("S")
	text.Prepend(&border)
	if got := text.String(); got != "0 0 10 10 re S BT ET" {
		t.Fatalf("got %s", got)
	}
}

func TestJustifySingleByte(t *testing.T) {
	var f Fragment
	f.Op("BT").Num("Td", 10, 20).Op("TJ", Array{Text{Bytes: []byte("ab cd"), Unit: 1}}).Op("ET")
	Justify(&f, 2, 12, 2.83465)
	want := "BT 10 20 Td 5.6693 Tw [(ab cd)] TJ 0 Tw ET"
	if got := f.String(); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestJustifyTwoByte(t *testing.T) {
	var f Fragment
	f.Op("BT").Op("TJ", Array{Text{Bytes: []byte{0, 'a', 0, ' ', 0, 'b', 0, ' ', 0, 'c'}, Unit: 2}}).Op("ET")
	Justify(&f, 1, 10, 1)
	ops := f.Ops
	if len(ops) != 3 || ops[1].Operator != "TJ" {
		t.Fatalf("unexpected operators: %s", f.String())
	}
	want := Array{
		Text{Bytes: []byte{0, 'a', 0, ' '}, Unit: 2}, Number(-100),
		Text{Bytes: []byte{0, 'b', 0, ' '}, Unit: 2}, Number(-100),
		Text{Bytes: []byte{0, 'c'}, Unit: 2},
	}
	if diff := cmp.Diff(want, ops[1].Operands[0]); diff != "" {
		t.Fatalf("TJ array mismatch (-want +got):\n%s", diff)
	}
	for _, op := range ops {
		if op.Operator == "Tw" {
			t.Fatalf("two-byte text must not use Tw")
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	src := []byte("q 0.5 g BT /F1 12 Tf ET BT 1 2 Td [(x\\)y) -120 <0041>] TJ ET % comment\nQ")
	ops, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var names []string
	for _, op := range ops {
		names = append(names, op.Operator)
	}
	if diff := cmp.Diff([]string{"q", "g", "BT", "Tf", "ET", "BT", "Td", "TJ", "ET", "Q"}, names); diff != "" {
		t.Fatalf("operators (-want +got):\n%s", diff)
	}
	tj := ops[7].Operands[0].(Array)
	if diff := cmp.Diff(Array{Text{Bytes: []byte("x)y"), Unit: 1}, Number(-120), Text{Bytes: []byte{0, 'A'}, Unit: 1}}, tj); diff != "" {
		t.Fatalf("TJ operand (-want +got):\n%s", diff)
	}
	if _, err := Parse([]byte("1 2")); err == nil {
		t.Fatalf("dangling operands accepted")
	}
}

func TestPaintStyle(t *testing.T) {
	if PaintStyle("DF") != PaintFillStroke || PaintStyle("F") != PaintFill || PaintStyle("") != PaintStroke {
		t.Fatalf("paint style mapping")
	}
}
