package fonts

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildPFB(clear, bin []byte) []byte {
	var buf bytes.Buffer
	seg := func(kind byte, data []byte) {
		buf.WriteByte(0x80)
		buf.WriteByte(kind)
		binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
		buf.Write(data)
	}
	seg(1, clear)
	seg(2, bin)
	seg(1, []byte("cleartomark"))
	buf.Write([]byte{0x80, 0x03})
	return buf.Bytes()
}

const testAFM = `StartFontMetrics 4.1
FontName TestFont-Italic
ItalicAngle -12
IsFixedPitch false
FontBBox -50 -200 1000 900
UnderlinePosition -100
UnderlineThickness 50
CapHeight 700
Ascender 750
Descender -210
StartCharMetrics 3
C 32 ; WX 250 ; N space ; B 0 0 0 0 ;
C 65 ; WX 667 ; N A ; B 0 0 650 700 ;
C -1 ; WX 500 ; N ff ; B 0 0 480 700 ;
EndCharMetrics
EndFontMetrics
`

func TestParseType1(t *testing.T) {
	clear := []byte("%!PS-AdobeFont-1.0: TestFont 1.0\n/FontName /TestFont def\ncurrentfile eexec\n")
	bin := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	m, err := ParseType1("test", buildPFB(clear, bin), []byte(testAFM))
	if err != nil {
		t.Fatalf("ParseType1: %v", err)
	}
	if m.Type != Type1 || m.Name != "TestFont-Italic" {
		t.Fatalf("type %v name %q", m.Type, m.Name)
	}
	if m.Size1 != len(clear) || m.Size2 != len(bin) {
		t.Fatalf("segment sizes %d/%d", m.Size1, m.Size2)
	}
	if !bytes.Equal(m.File, append(append([]byte{}, clear...), bin...)) {
		t.Fatalf("embedded program does not match the segments")
	}
	if diff := cmp.Diff(map[rune]int{32: 250, 65: 667}, m.Widths); diff != "" {
		t.Fatalf("widths (-want +got):\n%s", diff)
	}
	if m.BBox != [4]int{-50, -200, 1000, 900} || m.Ascent != 750 || m.Descent != -210 {
		t.Fatalf("metrics %+v", m)
	}
	if m.Flags&64 == 0 {
		t.Fatalf("italic flag not set: %d", m.Flags)
	}
}

func TestParseType1Errors(t *testing.T) {
	if _, err := ParseType1("x", []byte{0x00, 0x01}, []byte(testAFM)); err == nil {
		t.Fatalf("expected error for bad pfb header")
	}
	pfb := buildPFB([]byte("/FontName /X def\n"), []byte{1})
	if _, err := ParseType1("x", pfb, []byte("StartFontMetrics 4.1\n")); err == nil {
		t.Fatalf("expected error for afm without metrics")
	}
}
