package fonts

import (
	"fmt"
	"io/fs"
	"math"
	"strings"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/unitext"
)

// ParseTrueType extracts metrics from a TrueType/OpenType font. With
// unicode set the font is addressed through two-byte Unicode CIDs and glyph
// widths are resolved lazily; otherwise it is a single-byte WinAnsi font.
// The full font program is embedded.
func ParseTrueType(name string, data []byte, unicode bool) (*Metrics, error) {
	if len(data) == 0 {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.ParseTrueType", "truetype font data is empty")
	}
	font, err := sfnt.Parse(data)
	if err != nil {
		return nil, recovery.Wrap(recovery.InvalidFormat, "fonts.ParseTrueType", fmt.Errorf("parse truetype: %w", err))
	}
	unitsPerEm := font.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.ParseTrueType", "invalid unitsPerEm")
	}
	buf := &sfnt.Buffer{}
	ppem := fixed.Int26_6(unitsPerEm << 6)

	baseName := strings.TrimSpace(name)
	if ps, _ := font.Name(buf, sfnt.NameIDPostScript); len(ps) > 0 {
		baseName = ps
	}
	if baseName == "" {
		baseName = "CustomTT"
	}

	metrics, _ := font.Metrics(buf, ppem, xfont.HintingNone)
	bounds, _ := font.Bounds(buf, ppem, xfont.HintingNone)
	angle := italicAngle(font)
	src := &sfntSource{font: font, buf: &sfnt.Buffer{}, unitsPerEm: unitsPerEm, ppem: ppem}

	m := &Metrics{
		Name:        baseName,
		Ascent:      int(math.Round(scaleFixed(metrics.Ascent, unitsPerEm))),
		Descent:     -int(math.Round(scaleFixed(metrics.Descent, unitsPerEm))),
		CapHeight:   int(math.Round(scaleFixed(metrics.CapHeight, unitsPerEm))),
		XHeight:     int(math.Round(scaleFixed(metrics.XHeight, unitsPerEm))),
		ItalicAngle: angle,
		Flags:       32,
		StemV:       70,
		BBox: [4]int{
			int(math.Round(scaleFixed(bounds.Min.X, unitsPerEm))),
			int(math.Round(scaleFixed(-bounds.Max.Y, unitsPerEm))),
			int(math.Round(scaleFixed(bounds.Max.X, unitsPerEm))),
			int(math.Round(scaleFixed(-bounds.Min.Y, unitsPerEm))),
		},
		UnderlinePosition:  -100,
		UnderlineThickness: 50,
		File:               data,
	}
	if m.CapHeight == 0 {
		m.CapHeight = m.Ascent
	}
	if angle != 0 {
		m.Flags |= 64
	}
	if post := font.PostTable(); post != nil {
		m.UnderlinePosition = int(math.Round(float64(post.UnderlinePosition) * 1000 / float64(unitsPerEm)))
		m.UnderlineThickness = int(math.Round(float64(post.UnderlineThickness) * 1000 / float64(unitsPerEm)))
	}

	if unicode {
		m.Type = TrueTypeUnicode
		m.Source = src
		m.Widths = map[rune]int{}
		m.Encoding = "Identity-H"
		m.CIDInfo = CIDSystemInfo{Registry: "Adobe", Ordering: "Identity", Supplement: 0}
		if _, w, ok := src.Glyph(0xFFFD); ok {
			m.DefaultWidth = w
		} else if adv, err := font.GlyphAdvance(buf, 0, ppem, xfont.HintingNone); err == nil {
			m.DefaultWidth = int(math.Round(scaleFixed(adv, unitsPerEm)))
		}
		return m, nil
	}
	m.Type = TrueType
	m.Encoding = "WinAnsiEncoding"
	m.Widths = make(map[rune]int, 224)
	for c := 32; c <= 255; c++ {
		if _, w, ok := src.Glyph(unitext.WinAnsiRune(byte(c))); ok {
			m.Widths[rune(c)] = w
		}
	}
	return m, nil
}

// sfntSource answers glyph queries from a parsed font.
type sfntSource struct {
	font       *sfnt.Font
	buf        *sfnt.Buffer
	unitsPerEm sfnt.Units
	ppem       fixed.Int26_6
}

func (s *sfntSource) Glyph(r rune) (uint16, int, bool) {
	gi, err := s.font.GlyphIndex(s.buf, r)
	if err != nil || gi == 0 {
		return 0, 0, false
	}
	adv, err := s.font.GlyphAdvance(s.buf, gi, s.ppem, xfont.HintingNone)
	if err != nil {
		return 0, 0, false
	}
	return uint16(gi), int(math.Round(scaleFixed(adv, s.unitsPerEm))), true
}

func italicAngle(font *sfnt.Font) float64 {
	post := font.PostTable()
	if post == nil {
		return 0
	}
	return post.ItalicAngle
}

func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}

var styleSuffix = map[string]string{"": "", "B": "b", "I": "i", "BI": "bi"}

// TrueTypeLoader loads "<family><suffix>.ttf" from FS, where suffix is "",
// "b", "i" or "bi". Fonts registered with Register take precedence.
type TrueTypeLoader struct {
	FS      fs.FS
	Unicode bool
	files   map[string][]byte
}

func NewTrueTypeLoader(fsys fs.FS, unicode bool) *TrueTypeLoader {
	return &TrueTypeLoader{FS: fsys, Unicode: unicode, files: map[string][]byte{}}
}

// Register makes data available as family and style.
func (l *TrueTypeLoader) Register(family, style string, data []byte) {
	if l.files == nil {
		l.files = map[string][]byte{}
	}
	l.files[Key(family, style)] = data
}

func (l *TrueTypeLoader) Load(family, style string) (*Metrics, error) {
	if data, ok := l.files[Key(family, style)]; ok {
		return ParseTrueType(family, data, l.Unicode)
	}
	if l.FS == nil {
		return nil, recovery.Errorf(recovery.MissingResource, "fonts.TrueTypeLoader", "no font file for %q %q", family, style)
	}
	name := strings.ReplaceAll(family, " ", "") + styleSuffix[style] + ".ttf"
	data, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, recovery.Wrap(recovery.MissingResource, "fonts.TrueTypeLoader", err)
	}
	return ParseTrueType(family, data, l.Unicode)
}

// GoFontLoader serves the Go fonts as the "go" and "gomono" families. They
// are always embedded as Unicode fonts.
type GoFontLoader struct{}

var goFonts = map[string][]byte{
	"go":       goregular.TTF,
	"goB":      gobold.TTF,
	"goI":      goitalic.TTF,
	"goBI":     gobolditalic.TTF,
	"gomono":   gomono.TTF,
	"gomonoB":  gomonobold.TTF,
	"gomonoI":  gomono.TTF,
	"gomonoBI": gomonobold.TTF,
}

func (GoFontLoader) Load(family, style string) (*Metrics, error) {
	data, ok := goFonts[family+style]
	if !ok {
		return nil, recovery.Errorf(recovery.MissingResource, "fonts.GoFontLoader", "no Go font %q style %q", family, style)
	}
	return ParseTrueType(family, data, true)
}

// ChainLoader tries each loader in turn; only MissingResource errors move
// on to the next one.
type ChainLoader []Loader

func (c ChainLoader) Load(family, style string) (*Metrics, error) {
	var last error
	for _, l := range c {
		m, err := l.Load(family, style)
		if err == nil {
			return m, nil
		}
		if recovery.KindOf(err) != recovery.MissingResource {
			return nil, err
		}
		last = err
	}
	if last == nil {
		last = recovery.Errorf(recovery.MissingResource, "fonts.ChainLoader", "no loader for %q %q", family, style)
	}
	return nil, last
}

// DefaultLoader serves the core families and the Go fonts.
func DefaultLoader() Loader {
	return ChainLoader{CoreLoader{}, GoFontLoader{}}
}
