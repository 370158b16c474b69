package unitext

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCodepointsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []rune
	}{
		{"overlong", "a\xC0\x80b", []rune{'a', 0xFFFD, 0xFFFD, 'b'}},
		{"surrogate", "\xED\xA0\x80z", []rune{0xFFFD, 0xFFFD, 0xFFFD, 'z'}},
		{"truncated", "x\xE2\x82", []rune{'x', 0xFFFD, 0xFFFD}},
		{"truncated before ascii", "\xE2\x82b", []rune{0xFFFD, 0xFFFD, 'b'}},
		{"valid", "hé€\U0001D11E", []rune{'h', 0xE9, 0x20AC, 0x1D11E}},
	}
	d := NewDecoder(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, d.Codepoints(tt.in)); diff != "" {
				t.Fatalf("Codepoints(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestDecoderCacheBounded(t *testing.T) {
	d := NewDecoder(DefaultCacheSize)
	for i := 0; i < 20; i++ {
		d.Codepoints(fmt.Sprintf("line %d", i))
	}
	if d.Len() != DefaultCacheSize {
		t.Fatalf("cache holds %d entries, want %d", d.Len(), DefaultCacheSize)
	}
	got := d.Codepoints("line 19")
	got[0] = 'X'
	if again := d.Codepoints("line 19"); again[0] != 'l' {
		t.Fatalf("cached slice was mutated through a returned copy")
	}
}

func TestBytesLegacy(t *testing.T) {
	if diff := cmp.Diff([]rune{0xC3, 0xA9}, Bytes("é")); diff != "" {
		t.Fatalf("Bytes mismatch:\n%s", diff)
	}
}

func TestResolveBidiLTRUnchanged(t *testing.T) {
	for _, s := range []string{"Hello, world (1+2) [x] {y}", "", "  trailing  "} {
		in := []rune(s)
		got := ResolveBidi(in, Options{Shape: true})
		if string(got) != s {
			t.Fatalf("ResolveBidi(%q) = %q", s, string(got))
		}
	}
}

func TestResolveBidiMirroring(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"rtl paragraph mirrors", "אב (גד)", "(דג) בא"},
		{"ltr run keeps parens", "abc (def) אבג", "abc (def) גבא"},
		{"numbers keep order", "אב 123", "123 בא"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(ResolveBidi([]rune(tt.in), Options{}))
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestResolveBidiForcedRTL(t *testing.T) {
	got := string(ResolveBidi([]rune("ab"), Options{Direction: RTL}))
	if got != "ab" {
		t.Fatalf("latin letters keep their order inside an RTL paragraph, got %q", got)
	}
	chars, para := Levels([]rune("ab"), RTL)
	if para != 1 || chars[0].Level != 2 {
		t.Fatalf("para=%d level=%d, want 1 and 2", para, chars[0].Level)
	}
}

func TestExplicitDepthCapped(t *testing.T) {
	in := []rune(strings.Repeat("\u202b", 100) + "abc" + strings.Repeat("\u202c", 100))
	chars, _ := Levels(in, Auto)
	if len(chars) != 3 {
		t.Fatalf("embedding codes must be removed, got %d chars", len(chars))
	}
	for _, c := range chars {
		if c.Level > MaxLevel+1 {
			t.Fatalf("level %d exceeds cap", c.Level)
		}
	}
}

func shape(s string, opts ShapeOptions) []rune {
	chars, _ := Levels([]rune(s), Auto)
	var out []rune
	for _, c := range ShapeArabic(chars, opts) {
		out = append(out, c.R)
	}
	return out
}

func TestShapeArabic(t *testing.T) {
	always := func(rune) bool { return true }
	tests := []struct {
		name string
		in   string
		opts ShapeOptions
		want []rune
	}{
		{"beh beh beh", "ببب", ShapeOptions{}, []rune{0xFE91, 0xFE92, 0xFE90}},
		{"isolated", "ب", ShapeOptions{}, []rune{0xFE8F}},
		{"lam alef isolated", "لا", ShapeOptions{}, []rune{0xFEFB}},
		{"lam alef final", "بلا", ShapeOptions{}, []rune{0xFE91, 0xFEFC}},
		{"allah ligature", "الله", ShapeOptions{Allah: true}, []rune{0xFDF2}},
		{"lillah keeps letters", "لله", ShapeOptions{Allah: true}, []rune{0xFEDF, 0xFEE0, 0xFEEA}},
		{"allah disabled", "الله", ShapeOptions{}, []rune{0xFE8D, 0xFEDF, 0xFEE0, 0xFEEA}},
		{"shadda combined", "\u0628\u064e\u0651", ShapeOptions{HasGlyph: always}, []rune{0xFE8F, 0xFC60}},
		{"shadda without glyph", "\u0628\u064e\u0651", ShapeOptions{}, []rune{0xFE8F, 0x064E, 0x0651}},
		{"marks are transparent", "\u0628\u064e\u0628", ShapeOptions{}, []rune{0xFE91, 0x064E, 0xFE90}},
		{"non joining hamza", "بءب", ShapeOptions{}, []rune{0xFE8F, 0xFE80, 0xFE8F}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, shape(tt.in, tt.opts)); diff != "" {
				t.Fatalf("shape mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveBidiShapesAndReverses(t *testing.T) {
	got := ResolveBidi([]rune("بب"), Options{Shape: true})
	if diff := cmp.Diff([]rune{0xFE90, 0xFE91}, got); diff != "" {
		t.Fatalf("visual order mismatch:\n%s", diff)
	}
}

func TestEncodeUTF16BE(t *testing.T) {
	got := EncodeUTF16BE([]rune{'A', 0x20AC, 0x1D11E, 0xFFFD}, false)
	want := []byte{0x00, 0x41, 0x20, 0xAC, 0xD8, 0x34, 0xDD, 0x1E, 0xFF, 0xFD}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("utf16 mismatch:\n%s", diff)
	}
	withBOM := EncodeUTF16BE([]rune{'A'}, true)
	if diff := cmp.Diff([]byte{0xFE, 0xFF, 0x00, 0x41}, withBOM); diff != "" {
		t.Fatalf("bom mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(want, encodeUTF16Manual([]rune{'A', 0x20AC, 0x1D11E, 0xFFFD}, false)); diff != "" {
		t.Fatalf("manual path mismatch:\n%s", diff)
	}
}

func TestEncodeWinAnsi(t *testing.T) {
	got := EncodeWinAnsi([]rune{0x20AC, 'a', 0x4E2D})
	if diff := cmp.Diff([]byte{0x80, 'a', '?'}, got); diff != "" {
		t.Fatalf("cp1252 mismatch:\n%s", diff)
	}
	if WinAnsiRune(0x80) != 0x20AC {
		t.Fatalf("0x80 should decode to the euro sign")
	}
}
