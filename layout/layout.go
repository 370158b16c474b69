// Package layout turns text, cells, images and HTML into content-stream
// fragments on the pages of a document.Document. Geometry is computed in
// user units; fragments are serialized in points.
package layout

import (
	"strings"

	"github.com/wudi/pdfflow/contentstream"
	"github.com/wudi/pdfflow/document"
	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/unitext"
)

const (
	shy  = 0x00AD
	nbsp = 0x00A0
)

// Engine lays out content on a document.
type Engine struct {
	doc *document.Document

	// ImageScale is the ratio between image pixels and points.
	ImageScale float64
	// Shaping enables Arabic contextual shaping for two-byte fonts.
	Shaping bool
	// AllahLigature enables the optional U+FDF2 ligature.
	AllahLigature bool
	// ListIndent is the HTML list indentation in user units; 0 means
	// twice the font size.
	ListIndent float64
	Bullet     rune
}

// Option configures an Engine.
type Option func(*Engine)

func WithImageScale(s float64) Option {
	return func(e *Engine) {
		if s > 0 {
			e.ImageScale = s
		}
	}
}

func WithArabicShaping(on bool) Option {
	return func(e *Engine) { e.Shaping = on }
}

func WithAllahLigature(on bool) Option {
	return func(e *Engine) { e.AllahLigature = on }
}

func WithListIndent(v float64) Option {
	return func(e *Engine) { e.ListIndent = v }
}

func WithBullet(r rune) Option {
	return func(e *Engine) { e.Bullet = r }
}

// NewEngine creates an engine writing to doc.
func NewEngine(doc *document.Document, opts ...Option) *Engine {
	e := &Engine{doc: doc, ImageScale: 1, Shaping: true, Bullet: 0x2022}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Document() *document.Document { return e.doc }

func (e *Engine) font(op string) (*fonts.Font, error) {
	if e.doc.Err() != nil {
		return nil, e.doc.Err()
	}
	if e.doc.CurrentFont == nil {
		return nil, e.doc.Fail(recovery.Errorf(recovery.InvalidFormat, op, "no font has been set"))
	}
	return e.doc.CurrentFont, nil
}

// MeasureText returns the width of text in the current font and the width
// of each code point, in user units. Soft hyphens have no width.
func (e *Engine) MeasureText(text string) (float64, []float64) {
	return e.measure(e.doc.Codepoints(text))
}

func (e *Engine) measure(cps []rune) (float64, []float64) {
	f := e.doc.CurrentFont
	ws := make([]float64, len(cps))
	if f == nil {
		return 0, ws
	}
	var total float64
	for i, r := range cps {
		if r == shy {
			continue
		}
		ws[i] = f.Width(f.Code(r)) * e.doc.FontSize / 1000
		total += ws[i]
	}
	return total, ws
}

// StringWidth returns the width of text in the current font.
func (e *Engine) StringWidth(text string) float64 {
	w, _ := e.MeasureText(text)
	return w
}

func (e *Engine) runesWidth(cps []rune) float64 {
	w, _ := e.measure(cps)
	return w
}

// visual returns cps in display order with soft hyphens removed.
func (e *Engine) visual(cps []rune) []rune {
	out := make([]rune, 0, len(cps))
	for _, r := range cps {
		if r != shy {
			out = append(out, r)
		}
	}
	f := e.doc.CurrentFont
	if !e.doc.Unicode || (!e.doc.RTL && !unitext.HasRTL(out)) {
		return out
	}
	opts := unitext.Options{Direction: unitext.Auto}
	if e.doc.RTL {
		opts.Direction = unitext.RTL
	}
	if e.Shaping && f != nil && f.Type.MultiByte() {
		opts.Shape = true
		opts.Shaping = unitext.ShapeOptions{Allah: e.AllahLigature, HasGlyph: f.HasGlyph}
	}
	return unitext.ResolveBidi(out, opts)
}

// showText builds the text-showing operation for cps in the current font.
func (e *Engine) showText(cps []rune) contentstream.Operation {
	f := e.doc.CurrentFont
	unit := 1
	if f.Type.MultiByte() {
		unit = 2
	}
	text := contentstream.Text{Bytes: f.Encode(e.visual(cps)), Unit: unit}
	return contentstream.Operation{Operator: "TJ", Operands: []contentstream.Operand{contentstream.Array{text}}}
}

// colorOp turns a colour operator string such as "1 0 0 rg" into an
// operation.
func colorOp(s string) contentstream.Operation {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return contentstream.Operation{}
	}
	op := contentstream.Operation{Operator: fields[len(fields)-1]}
	for _, v := range fields[:len(fields)-1] {
		op.Operands = append(op.Operands, contentstream.Raw(v))
	}
	return op
}

// textFragment positions cps with its baseline at x, y (user units) and
// adds decorations. Tz and Tc, when non-zero, stretch the text.
func (e *Engine) textFragment(x, y float64, cps []rune, tz, tc float64) *contentstream.Fragment {
	d := e.doc
	k := d.K
	var f contentstream.Fragment
	f.Op("BT")
	if tz != 0 {
		f.Num("Tz", tz)
	}
	if tc != 0 {
		f.Num("Tc", tc*k)
	}
	f.Num("Td", x*k, (d.H-y)*k)
	f.Ops = append(f.Ops, e.showText(cps))
	f.Op("ET")
	return &f
}

// decorate adds underline and strike-through rectangles of width w for
// text with its baseline at x, y.
func (e *Engine) decorate(f *contentstream.Fragment, x, y, w float64) {
	d := e.doc
	font := d.CurrentFont
	if font == nil || w <= 0 {
		return
	}
	k := d.K
	th := float64(font.UnderlineThickness) / 1000 * d.FontSize
	if th <= 0 {
		th = d.FontSize / 20
	}
	if d.Underline {
		up := float64(font.UnderlinePosition) / 1000 * d.FontSize
		f.Num("re", x*k, (d.H-(y-up))*k, w*k, -th*k).Op("f")
	}
	if d.Strike {
		f.Num("re", x*k, (d.H-(y-d.FontSize/4))*k, w*k, -th*k).Op("f")
	}
}

// colored wraps f in q/Q with the text colour when it differs from the
// fill colour.
func (e *Engine) colored(f *contentstream.Fragment) {
	if !e.doc.ColorFlag || f.Empty() {
		return
	}
	var pre contentstream.Fragment
	pre.Op("q")
	pre.Ops = append(pre.Ops, colorOp(e.doc.TextColor))
	f.Prepend(&pre)
	f.Op("Q")
}

// Text writes text with its baseline at x, y.
func (e *Engine) Text(x, y float64, text string) error {
	if _, err := e.font("layout.Text"); err != nil {
		return err
	}
	cps := e.doc.Codepoints(text)
	w := e.runesWidth(cps)
	if e.doc.RTL {
		x -= w
	}
	f := e.textFragment(x, y, cps, 0, 0)
	e.decorate(f, x, y, w)
	e.colored(f)
	return e.doc.OutFragment(f)
}

// Line draws a line between two points.
func (e *Engine) Line(x1, y1, x2, y2 float64) error {
	d := e.doc
	var f contentstream.Fragment
	f.Num("m", x1*d.K, (d.H-y1)*d.K).Num("l", x2*d.K, (d.H-y2)*d.K).Op("S")
	return d.OutFragment(&f)
}

// Rect draws a rectangle. Style is "D" (default), "F", "DF"/"FD" or "N".
func (e *Engine) Rect(x, y, w, h float64, style string) error {
	d := e.doc
	var f contentstream.Fragment
	f.Num("re", x*d.K, (d.H-y)*d.K, w*d.K, -h*d.K).Op(string(contentstream.PaintStyle(style)))
	return d.OutFragment(&f)
}

// Ln moves to the start of the next line, h below; negative h uses the
// height of the last cell.
func (e *Engine) Ln(h float64) {
	d := e.doc
	if h < 0 {
		h = d.LastH
	}
	d.Y += h
	d.X = e.lineStart()
}

func (e *Engine) lineStart() float64 {
	if e.doc.RTL {
		return e.doc.W - e.doc.RMargin
	}
	return e.doc.LMargin
}

// available returns the width from X to the margin in the writing
// direction.
func (e *Engine) available() float64 {
	d := e.doc
	if d.RTL {
		return d.X - d.LMargin
	}
	return d.W - d.RMargin - d.X
}

func (e *Engine) lineHeight() float64 {
	return e.doc.FontSize * e.doc.CellHeightRatio()
}
