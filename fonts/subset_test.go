package fonts

import (
	"encoding/binary"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

func TestSubsetKeepsUsedGlyphs(t *testing.T) {
	reg := NewRegistry(GoFontLoader{})
	f, err := reg.Add("go", "")
	if err != nil {
		t.Fatalf("add go font: %v", err)
	}
	f.Encode([]rune("Hello"))
	data, err := f.Subset()
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	if len(data) >= len(goregular.TTF) {
		t.Fatalf("subset is %d bytes, full font %d", len(data), len(goregular.TTF))
	}
	sub, err := sfnt.Parse(data)
	if err != nil {
		t.Fatalf("subset does not parse: %v", err)
	}
	var buf sfnt.Buffer
	gid, err := sub.GlyphIndex(&buf, 'H')
	if err != nil || uint16(gid) != f.GID('H') {
		t.Fatalf("glyph index of H = %d (%v), want %d", gid, err, f.GID('H'))
	}
	segs, err := sub.LoadGlyph(&buf, gid, 1000<<6, nil)
	if err != nil || len(segs) == 0 {
		t.Fatalf("outline of H lost: %v", err)
	}

	tables, err := readSFNT(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.BigEndian.Uint16(tables["head"][50:]); got != 1 {
		t.Fatalf("indexToLocFormat = %d, want long offsets", got)
	}
	if checksum(data) != 0xB1B0AFBA {
		t.Fatalf("whole-font checksum %#x", checksum(data))
	}
}

func TestSubsetPassesThroughOtherFonts(t *testing.T) {
	f := &Font{Metrics: Metrics{Type: TrueType, File: []byte("raw")}}
	data, err := f.Subset()
	if err != nil || string(data) != "raw" {
		t.Fatalf("single-byte font changed: %q %v", data, err)
	}
	if _, err := SubsetTrueType([]byte{0, 1}, glyphSet{}); err == nil {
		t.Fatalf("expected error for truncated font")
	}
}
