package raw

import "testing"

func TestSerializeDictSortedKeys(t *testing.T) {
	d := Dict()
	d.Set("Type", NameLiteral("Page"))
	d.Set("Parent", Ref(1, 0))
	d.Set("MediaBox", Floats(0, 0, 595.28, 841.89))
	d.Set("Rotate", Int(90))
	got := string(Serialize(d))
	want := "<</MediaBox [0 0 595.28 841.89]/Parent 1 0 R/Rotate 90/Type /Page>>"
	if got != want {
		t.Fatalf("dict = %q, want %q", got, want)
	}
}

func TestSerializeStrings(t *testing.T) {
	if got := string(Serialize(Str([]byte("a(b)\\")))); got != `(a\(b\)\\)` {
		t.Fatalf("literal = %q", got)
	}
	if got := string(Serialize(HexStr([]byte{0xFE, 0xFF, 0x00, 0x41}))); got != "<FEFF0041>" {
		t.Fatalf("hex = %q", got)
	}
}

func TestSerializeStreamSetsLength(t *testing.T) {
	s := NewStream(nil, []byte("BT ET"))
	got := string(Serialize(s))
	want := "<</Length 5>> stream\nBT ET\nendstream"
	if got != want {
		t.Fatalf("stream = %q, want %q", got, want)
	}
}

func TestSetNilRemovesKey(t *testing.T) {
	d := Dict()
	d.Set("A", Bool(true))
	d.Set("A", nil)
	if d.Len() != 0 {
		t.Fatalf("key not removed")
	}
	if got := string(Serialize(NewArray(nil, NullObj{}, Names("a b")))); got != "[null null [/a#20b]]" {
		t.Fatalf("array = %q", got)
	}
}
