// Package fonts registers the fonts used by a document and answers width
// queries for layout. Metrics come from a Loader: built-in core font tables,
// TrueType files parsed with x/image/font/sfnt, or the Go font family.
package fonts

import (
	"strconv"

	"github.com/bits-and-blooms/bitset"

	"github.com/wudi/pdfflow/unitext"
)

// Type selects how a font is measured, encoded and serialized.
type Type int

const (
	// Core is one of the standard 14 fonts; never embedded.
	Core Type = iota + 1
	// Type1 is a single-byte PostScript font, optionally embedded.
	Type1
	// TrueType is a single-byte TrueType font with WinAnsi codes.
	TrueType
	// TrueTypeUnicode is an embedded TrueType font addressed by two-byte
	// Unicode CIDs through Identity-H.
	TrueTypeUnicode
	// CIDFont0 is a non-embedded CJK CID font with a UCS-2 CMap.
	CIDFont0
)

func (t Type) String() string {
	switch t {
	case Core:
		return "core"
	case Type1:
		return "Type1"
	case TrueType:
		return "TrueType"
	case TrueTypeUnicode:
		return "TrueTypeUnicode"
	case CIDFont0:
		return "cidfont0"
	}
	return "unknown"
}

// MultiByte reports whether text in this font is encoded with two bytes per
// character.
func (t Type) MultiByte() bool { return t == TrueTypeUnicode || t == CIDFont0 }

// GlyphSource resolves glyphs lazily for fonts with large character sets.
type GlyphSource interface {
	// Glyph returns the glyph index and advance (1/1000 em) for r.
	Glyph(r rune) (gid uint16, width int, ok bool)
}

// CIDSystemInfo names the character collection of a CID font.
type CIDSystemInfo struct {
	Registry   string
	Ordering   string
	Supplement int
}

// Metrics is what a Loader returns for one family and style. Widths are in
// 1/1000 em keyed by character code: cp1252 byte values for single-byte
// fonts and Unicode code points for multi-byte fonts.
type Metrics struct {
	Type         Type
	Name         string
	Widths       map[rune]int
	DefaultWidth int
	Source       GlyphSource

	Ascent             int
	Descent            int
	CapHeight          int
	XHeight            int
	Flags              int
	ItalicAngle        float64
	StemV              int
	BBox               [4]int
	UnderlinePosition  int
	UnderlineThickness int

	// File is the font program to embed; empty means not embedded.
	File []byte
	// Size1 and Size2 are the clear-text and binary segment lengths of an
	// embedded Type1 program.
	Size1, Size2 int
	// Diff lists encoding differences, e.g. "128 /Euro 130 /quotesinglbase".
	Diff     string
	Encoding string
	CIDInfo  CIDSystemInfo
}

// FallbackWidth is used when neither the character, the default width nor
// the space has a width.
const FallbackWidth = 600

// Font is a registered font.
type Font struct {
	Metrics
	Key    string
	Family string
	Style  string
	// Index is the 1-based registration order, used for the /F<n> name.
	Index int
	// DiffIndex is the 1-based index of the shared encoding differences
	// entry, 0 when Diff is empty.
	DiffIndex int
	// Used holds every code written with this font.
	Used *bitset.BitSet

	gids map[rune]uint16
}

func newFont(key, family, style string, m *Metrics) *Font {
	f := &Font{Metrics: *m, Key: key, Family: family, Style: style, Used: bitset.New(256), gids: map[rune]uint16{}}
	widths := make(map[rune]int, len(m.Widths))
	for k, v := range m.Widths {
		widths[k] = v
	}
	f.Widths = widths
	return f
}

// ResourceName is the name used in content streams, e.g. "F1".
func (f *Font) ResourceName() string { return "F" + strconv.Itoa(f.Index) }

// Code maps a code point to the character code used by this font.
func (f *Font) Code(r rune) rune {
	if f.Type.MultiByte() {
		if r > 0xFFFF {
			return 0xFFFD
		}
		return r
	}
	return rune(unitext.EncodeWinAnsi([]rune{r})[0])
}

// Width returns the advance of code in 1/1000 em. Missing codes fall back to
// the default width, then the space width, then FallbackWidth.
func (f *Font) Width(code rune) float64 {
	if w, ok := f.Widths[code]; ok {
		return float64(w)
	}
	if f.Source != nil {
		if gid, w, ok := f.Source.Glyph(code); ok {
			f.Widths[code] = w
			f.gids[code] = gid
			return float64(w)
		}
	}
	if f.DefaultWidth > 0 {
		return float64(f.DefaultWidth)
	}
	if w, ok := f.Widths[' ']; ok {
		return float64(w)
	}
	return FallbackWidth
}

// HasGlyph reports whether the font maps r to a real glyph.
func (f *Font) HasGlyph(r rune) bool {
	if _, ok := f.Widths[f.Code(r)]; ok {
		return true
	}
	if f.Source != nil {
		_, _, ok := f.Source.Glyph(r)
		return ok
	}
	return false
}

// GID returns the glyph index for code, 0 when unknown.
func (f *Font) GID(code rune) uint16 {
	if gid, ok := f.gids[code]; ok {
		return gid
	}
	if f.Source != nil {
		if gid, _, ok := f.Source.Glyph(code); ok {
			f.gids[code] = gid
			return gid
		}
	}
	return 0
}

// Encode converts code points to the bytes written inside a text string
// operand and marks the codes as used.
func (f *Font) Encode(cps []rune) []byte {
	if f.Type.MultiByte() {
		out := make([]byte, 0, 2*len(cps))
		for _, r := range cps {
			c := f.Code(r)
			f.Used.Set(uint(c))
			out = append(out, byte(c>>8), byte(c))
		}
		return out
	}
	out := unitext.EncodeWinAnsi(cps)
	for _, b := range out {
		f.Used.Set(uint(b))
	}
	return out
}

// Clone returns a deep copy for transaction snapshots.
func (f *Font) Clone() *Font {
	c := *f
	c.Widths = make(map[rune]int, len(f.Widths))
	for k, v := range f.Widths {
		c.Widths[k] = v
	}
	c.gids = make(map[rune]uint16, len(f.gids))
	for k, v := range f.gids {
		c.gids[k] = v
	}
	c.Used = f.Used.Clone()
	return &c
}
