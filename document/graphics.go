package document

import (
	"strconv"
	"strings"

	"github.com/wudi/pdfflow/contentstream"
	"github.com/wudi/pdfflow/coords"
	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/recovery"
)

type graphicState struct {
	family, style     string
	underline, strike bool
	sizePt            float64
	lineWidth         float64
	draw, fill, text  string
	colorFlag         bool
}

func (d *Document) graphicState() graphicState {
	return graphicState{
		family: d.FontFamily, style: d.FontStyle,
		underline: d.Underline, strike: d.Strike,
		sizePt:    d.FontSizePt,
		lineWidth: d.LineWidth,
		draw:      d.DrawColor, fill: d.FillColor, text: d.TextColor,
		colorFlag: d.ColorFlag,
	}
}

func (d *Document) setGraphicState(gs graphicState) {
	d.LineWidth = gs.lineWidth
	d.DrawColor, d.FillColor, d.TextColor = gs.draw, gs.fill, gs.text
	d.ColorFlag = gs.colorFlag
	d.Underline, d.Strike = gs.underline, gs.strike
	if gs.family != "" {
		d.FontFamily, d.FontStyle, d.FontSizePt = gs.family, gs.style, gs.sizePt
		d.FontSize = gs.sizePt / d.K
		if f, ok := d.Fonts.Get(fonts.Key(gs.family, gs.style)); ok {
			d.CurrentFont = f
		}
	}
}

// restoreGraphicState re-emits the state saved in gs. On a fresh page
// (fresh set) everything that differs from the PDF defaults is written;
// after a header only what the header changed.
func (d *Document) restoreGraphicState(gs graphicState, fresh bool) error {
	if fresh || d.LineWidth != gs.lineWidth {
		d.LineWidth = gs.lineWidth
		if err := d.Out(widthOp(gs.lineWidth * d.K)); err != nil {
			return err
		}
	}
	if gs.family != "" && (fresh || d.FontFamily != gs.family || d.FontStyle != gs.style || d.FontSizePt != gs.sizePt) {
		d.setGraphicState(gs)
		if err := d.outFont(); err != nil {
			return err
		}
	}
	if (fresh && gs.draw != "0 G") || (!fresh && d.DrawColor != gs.draw) {
		if err := d.OutString(gs.draw); err != nil {
			return err
		}
	}
	if (fresh && gs.fill != "0 g") || (!fresh && d.FillColor != gs.fill) {
		if err := d.OutString(gs.fill); err != nil {
			return err
		}
	}
	d.setGraphicState(gs)
	return nil
}

func widthOp(w float64) []byte {
	var f contentstream.Fragment
	return f.Num("w", w).Bytes()
}

// FontOp returns the font selection fragment for the current font.
func (d *Document) FontOp() *contentstream.Fragment {
	var f contentstream.Fragment
	if d.CurrentFont == nil {
		return &f
	}
	f.Op("BT").Op("Tf", contentstream.Name(d.CurrentFont.ResourceName()), contentstream.Number(d.FontSizePt)).Op("ET")
	return &f
}

func (d *Document) outFont() error {
	if d.cur == 0 || d.CurrentFont == nil {
		return d.err
	}
	return d.OutFragment(d.FontOp())
}

// SetFont selects family and style at size points; size 0 keeps the
// current size. Style letters are B, I, U (underline) and D
// (strike-through). An empty family keeps the current family.
func (d *Document) SetFont(family, style string, size float64) error {
	if d.err != nil {
		return d.err
	}
	if family == "" {
		family = d.FontFamily
	}
	family = strings.ToLower(strings.TrimSpace(family))
	upper := strings.ToUpper(style)
	d.Underline = strings.Contains(upper, "U")
	d.Strike = strings.Contains(upper, "D")
	style = fonts.NormalizeStyle(upper)
	if size == 0 {
		size = d.FontSizePt
	}
	if size <= 0 {
		size = 12
	}
	if d.FontFamily == family && d.FontStyle == style && d.FontSizePt == size && d.CurrentFont != nil {
		return nil
	}
	f, err := d.Fonts.Add(family, style)
	if err != nil {
		return d.fail(err)
	}
	d.FontFamily, d.FontStyle, d.FontSizePt = family, style, size
	d.FontSize = size / d.K
	d.CurrentFont = f
	return d.outFont()
}

// AddFontMetrics registers caller-supplied metrics, for example a CID font.
func (d *Document) AddFontMetrics(family, style string, m *fonts.Metrics) error {
	if d.err != nil {
		return d.err
	}
	if _, err := d.Fonts.AddMetrics(family, style, m); err != nil {
		return d.fail(err)
	}
	return nil
}

func (d *Document) SetFontSize(size float64) error {
	return d.SetFont(d.FontFamily, d.FontStyle+d.decorations(), size)
}

func (d *Document) decorations() string {
	s := ""
	if d.Underline {
		s += "U"
	}
	if d.Strike {
		s += "D"
	}
	return s
}

// colorOp builds a colour operator from 0-255 components; equal
// components give a gray operator.
func colorOp(r, g, b int, gray, rgb string) string {
	num := func(v int) string { return contentstream.FormatNumber(float64(v) / 255) }
	if r == g && g == b {
		return num(r) + " " + gray
	}
	return num(r) + " " + num(g) + " " + num(b) + " " + rgb
}

func (d *Document) SetDrawColor(r, g, b int) error {
	d.DrawColor = colorOp(r, g, b, "G", "RG")
	if d.cur > 0 && d.State == PageActive {
		return d.OutString(d.DrawColor)
	}
	return d.err
}

func (d *Document) SetFillColor(r, g, b int) error {
	d.FillColor = colorOp(r, g, b, "g", "rg")
	d.ColorFlag = d.FillColor != d.TextColor
	if d.cur > 0 && d.State == PageActive {
		return d.OutString(d.FillColor)
	}
	return d.err
}

// RestoreFillColor re-selects a fill colour operator previously read
// from FillColor.
func (d *Document) RestoreFillColor(op string) error {
	if op == d.FillColor {
		return d.err
	}
	d.FillColor = op
	d.ColorFlag = d.FillColor != d.TextColor
	if d.cur > 0 && d.State == PageActive {
		return d.OutString(op)
	}
	return d.err
}

// RestoreTextColor re-selects a text colour operator previously read from
// TextColor.
func (d *Document) RestoreTextColor(op string) {
	d.TextColor = op
	d.ColorFlag = d.FillColor != d.TextColor
}

func (d *Document) SetTextColor(r, g, b int) {
	d.TextColor = colorOp(r, g, b, "g", "rg")
	d.ColorFlag = d.FillColor != d.TextColor
}

func (d *Document) SetLineWidth(w float64) error {
	d.LineWidth = w
	if d.cur > 0 && d.State == PageActive {
		return d.Out(widthOp(w * d.K))
	}
	return d.err
}

// LineStyle holds optional stroke settings; nil fields are left alone.
type LineStyle struct {
	Width *float64
	Cap   *contentstream.LineCap
	Join  *contentstream.LineJoin
	// Dash lengths in user units; an empty non-nil slice resets to solid.
	Dash  []float64
	Phase float64
}

func (d *Document) SetLineStyle(s LineStyle) error {
	var f contentstream.Fragment
	if s.Width != nil {
		d.LineWidth = *s.Width
		f.Num("w", *s.Width*d.K)
	}
	if s.Cap != nil {
		f.Num("J", float64(*s.Cap))
	}
	if s.Join != nil {
		f.Num("j", float64(*s.Join))
	}
	if s.Dash != nil {
		arr := make(contentstream.Array, len(s.Dash))
		for i, v := range s.Dash {
			arr[i] = contentstream.Number(v * d.K)
		}
		f.Op("d", arr, contentstream.Number(s.Phase*d.K))
	}
	return d.OutFragment(&f)
}

type ctmEntry struct {
	m coords.Matrix
}

// CTM returns the current transformation in points.
func (d *Document) CTM() coords.Matrix {
	if len(d.ctm) == 0 {
		return coords.Identity()
	}
	return d.ctm[len(d.ctm)-1].m
}

// StartTransform saves the graphics state and opens a transform scope.
// Content inserted beneath text inside the scope stays inside it.
func (d *Document) StartTransform() error {
	if err := d.OutString("q"); err != nil {
		return err
	}
	p := d.pages[d.cur-1]
	p.TransformMarks = append(p.TransformMarks, d.store.Len(d.cur))
	if p.FooterDone && !d.InFooter {
		p.TransformMarks[len(p.TransformMarks)-1] = p.FooterPos
	}
	d.ctm = append(d.ctm, ctmEntry{m: d.CTM()})
	return nil
}

// StopTransform closes the innermost transform scope.
func (d *Document) StopTransform() error {
	if len(d.ctm) == 0 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.StopTransform", "no transform to stop"))
	}
	if err := d.OutString("Q"); err != nil {
		return err
	}
	p := d.pages[d.cur-1]
	if n := len(p.TransformMarks); n > 0 {
		p.TransformMarks = p.TransformMarks[:n-1]
	}
	d.ctm = d.ctm[:len(d.ctm)-1]
	return nil
}

// Transform applies m, given in points, inside the current scope.
func (d *Document) Transform(m coords.Matrix) error {
	if len(d.ctm) == 0 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.Transform", "transform outside StartTransform"))
	}
	var f contentstream.Fragment
	f.Num("cm", m[0], m[1], m[2], m[3], m[4], m[5])
	if err := d.OutFragment(&f); err != nil {
		return err
	}
	top := &d.ctm[len(d.ctm)-1]
	top.m = m.Multiply(top.m)
	return nil
}

// Translate moves content by tx, ty user units.
func (d *Document) Translate(tx, ty float64) error {
	return d.Transform(coords.Translate(tx*d.K, -ty*d.K))
}

// Scale scales content by sx, sy percent around the point x, y.
func (d *Document) Scale(sx, sy, x, y float64) error {
	if sx == 0 || sy == 0 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.Scale", "scale factors must not be zero"))
	}
	px, py := x*d.K, (d.H-y)*d.K
	m := coords.Translate(-px, -py).Multiply(coords.Scale(sx/100, sy/100)).Multiply(coords.Translate(px, py))
	return d.Transform(m)
}

// Rotate rotates content by angle degrees counter-clockwise around x, y.
func (d *Document) Rotate(angle, x, y float64) error {
	return d.Transform(coords.RotateAround(angle, x*d.K, (d.H-y)*d.K))
}

// Skew skews content by ax, ay degrees around x, y.
func (d *Document) Skew(ax, ay, x, y float64) error {
	px, py := x*d.K, (d.H-y)*d.K
	m := coords.Translate(-px, -py).Multiply(coords.Skew(ax, ay)).Multiply(coords.Translate(px, py))
	return d.Transform(m)
}

// ExtGState is a graphics state parameter dictionary for transparency.
type ExtGState struct {
	StrokeAlpha float64
	FillAlpha   float64
	BlendMode   string
}

var blendModes = map[string]bool{
	"Normal": true, "Multiply": true, "Screen": true, "Overlay": true,
	"Darken": true, "Lighten": true, "ColorDodge": true, "ColorBurn": true,
	"HardLight": true, "SoftLight": true, "Difference": true, "Exclusion": true,
	"Hue": true, "Saturation": true, "Color": true, "Luminosity": true,
}

// SetAlpha sets stroke and fill opacity (0..1) and the blend mode.
func (d *Document) SetAlpha(alpha float64, blend string) error {
	if alpha < 0 || alpha > 1 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetAlpha", "alpha %v out of range", alpha))
	}
	if blend == "" {
		blend = "Normal"
	}
	if !blendModes[blend] {
		err := recovery.Errorf(recovery.InvalidFormat, "document.SetAlpha", "unknown blend mode %q", blend)
		if d.strategy.OnError(err, recovery.Location{Page: d.cur, Component: "document"}) == recovery.ActionFail {
			return d.fail(err)
		}
		blend = "Normal"
	}
	gs := ExtGState{StrokeAlpha: alpha, FillAlpha: alpha, BlendMode: blend}
	n := 0
	for i, g := range d.extGStates {
		if g == gs {
			n = i + 1
			break
		}
	}
	if n == 0 {
		d.extGStates = append(d.extGStates, gs)
		n = len(d.extGStates)
	}
	var f contentstream.Fragment
	f.Op("gs", contentstream.Name("GS"+strconv.Itoa(n)))
	return d.OutFragment(&f)
}

func (d *Document) ExtGStates() []ExtGState { return d.extGStates }

// Optional content groups used by SetVisibility.
const (
	OCGPrint  = "OC1"
	OCGScreen = "OC2"
)

// SetVisibility limits following content to "print" or "screen"; "all"
// ends the restriction.
func (d *Document) SetVisibility(v string) error {
	v = strings.ToLower(v)
	if d.visibility != "" && d.visibility != "all" {
		if err := d.OutString("EMC"); err != nil {
			return err
		}
	}
	var f contentstream.Fragment
	switch v {
	case "print":
		d.usedOCG[0] = true
		f.Op("BDC", contentstream.Name("OC"), contentstream.Name(OCGPrint))
	case "screen":
		d.usedOCG[1] = true
		f.Op("BDC", contentstream.Name("OC"), contentstream.Name(OCGScreen))
	case "all":
	default:
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetVisibility", "incorrect visibility %q", v))
	}
	d.visibility = v
	return d.OutFragment(&f)
}

// OCGs reports which of the print-only and screen-only groups are used.
func (d *Document) OCGs() (printOnly, screenOnly bool) { return d.usedOCG[0], d.usedOCG[1] }
