package layout

import (
	"strings"

	"github.com/wudi/pdfflow/contentstream"
	"github.com/wudi/pdfflow/recovery"
)

// CellOptions describes one cell. W 0 extends the cell to the margin.
type CellOptions struct {
	W, H float64
	Text string
	// Border is "" or "0" for none, "1" for a frame or any of L, T, R, B.
	Border string
	// Ln is where the position goes afterwards: 0 to the right, 1 to the
	// start of the next line, 2 below the cell.
	Ln int
	// Align is L, C, R or J; empty means L (R for right-to-left text).
	Align string
	Fill  bool
	// Link is a URI; LinkID an internal link from Document.AddLink.
	Link   string
	LinkID int
	// Stretch: 0 none, 1 scale only when too wide, 2 always scale, 3
	// space characters only when too wide, 4 always space characters.
	Stretch int
	// IgnoreMinHeight keeps H even when it is below the font height.
	IgnoreMinHeight bool
	// CAlign places the cell relative to the current Y: T (top), C
	// (center), B (bottom), or the font A (top), L (baseline), D (bottom).
	CAlign string
	// VAlign places the text inside the cell: T, M (or C) or B.
	VAlign string

	runes []rune
}

// MinCellHeight is the smallest height of a cell in the current font.
func (e *Engine) MinCellHeight() float64 {
	d := e.doc
	return d.FontSize*d.CellHeightRatio() + d.Padding.Top + d.Padding.Bottom
}

// Cell writes a cell at the current position, breaking the page first
// when it does not fit.
func (e *Engine) Cell(o CellOptions) error {
	d := e.doc
	if d.Err() != nil {
		return d.Err()
	}
	if o.runes == nil {
		o.runes = d.Codepoints(o.Text)
	}
	if !o.IgnoreMinHeight {
		o.H = max(o.H, e.MinCellHeight())
	}
	d.CheckPageBreak(o.H, -1, true)
	f, err := e.CellCode(d.X, d.Y, &o)
	if err != nil {
		return err
	}
	if err := d.OutFragment(f); err != nil {
		return err
	}
	d.LastH = o.H
	switch o.Ln {
	case 1:
		d.X = e.lineStart()
		d.Y += o.H
	case 2:
		d.Y += o.H
	default:
		if d.RTL {
			d.X -= o.W
		} else {
			d.X += o.W
		}
	}
	return nil
}

// CellCode returns the fragment of a cell at x, y without writing it.
// Fill and border come first so the text paints over them. W 0 is
// resolved to the available width and stored back in o.
func (e *Engine) CellCode(x, y float64, o *CellOptions) (*contentstream.Fragment, error) {
	d := e.doc
	if o.runes == nil {
		o.runes = d.Codepoints(o.Text)
	}
	if o.W == 0 {
		if d.RTL {
			o.W = x - d.LMargin
		} else {
			o.W = d.W - d.RMargin - x
		}
	}
	left := x
	if d.RTL {
		left = x - o.W
	}
	var f contentstream.Fragment
	if o.Fill || o.Border != "" {
		border, err := e.borderLetters(o.Border)
		if err != nil {
			return nil, err
		}
		e.box(&f, left, y, o.W, o.H, border, o.Fill)
	}
	if len(o.runes) == 0 {
		return &f, nil
	}
	if _, err := e.font("layout.Cell"); err != nil {
		return nil, err
	}
	tw, widths := e.measure(o.runes)
	inner := o.W - d.Padding.Left - d.Padding.Right

	var tz, tc float64
	if o.Stretch > 0 && tw > 0 && (o.Stretch%2 == 0 || tw > inner) {
		switch o.Stretch {
		case 1, 2:
			tz = inner / tw * 100
			tw = inner
		case 3, 4:
			n := 0
			for _, w := range widths {
				if w > 0 {
					n++
				}
			}
			if n > 1 {
				tc = (inner - tw) / float64(n-1)
				tw = inner
			}
		}
	}

	align := strings.ToUpper(o.Align)
	if align == "" && d.RTL {
		align = "R"
	}
	var dx float64
	switch align {
	case "R":
		dx = o.W - d.Padding.Right - tw
	case "C":
		dx = (o.W - tw) / 2
	default:
		dx = d.Padding.Left
	}

	font := d.CurrentFont
	ascent := float64(font.Ascent) / 1000 * d.FontSize
	descent := -float64(font.Descent) / 1000 * d.FontSize
	var off float64
	switch strings.ToUpper(o.VAlign) {
	case "T":
		off = d.Padding.Top + ascent
	case "B":
		off = o.H - d.Padding.Bottom - descent
	default:
		off = (o.H-ascent-descent)/2 + ascent
	}
	top := y
	switch strings.ToUpper(o.CAlign) {
	case "C":
		top = y - o.H/2
	case "B":
		top = y - o.H
	case "A":
		top = y - off + ascent
	case "L":
		top = y - off
	case "D":
		top = y - off - descent
	}
	baseline := top + off

	text := e.textFragment(left+dx, baseline, o.runes, tz, tc)
	if align == "J" {
		ns := 0
		for _, r := range o.runes {
			if r == ' ' {
				ns++
			}
		}
		if ns > 0 {
			contentstream.Justify(text, (inner-tw)/float64(ns), d.FontSizePt, d.K)
			tw = inner
		}
	}
	e.decorate(text, left+dx, baseline, tw)
	e.colored(text)
	f.Extend(text)

	switch {
	case o.Link != "":
		if err := d.LinkURL(left+dx, baseline-ascent, tw, ascent+descent, o.Link); err != nil {
			return nil, err
		}
	case o.LinkID > 0:
		if err := d.LinkInternal(left+dx, baseline-ascent, tw, ascent+descent, o.LinkID); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// borderLetters normalizes a border spec to a subset of "LTRB".
func (e *Engine) borderLetters(spec string) (string, error) {
	switch spec {
	case "", "0":
		return "", nil
	case "1":
		return "LTRB", nil
	}
	var out strings.Builder
	bad := false
	for _, c := range "LTRB" {
		if strings.ContainsRune(strings.ToUpper(spec), c) {
			out.WriteRune(c)
		}
	}
	for _, c := range strings.ToUpper(spec) {
		if !strings.ContainsRune("LTRB", c) {
			bad = true
		}
	}
	if bad {
		err := recovery.Errorf(recovery.InvalidFormat, "layout.Cell", "unknown border %q", spec)
		if e.doc.Strategy().OnError(err, recovery.Location{Page: e.doc.PageNo(), Component: "layout"}) == recovery.ActionFail {
			return "", e.doc.Fail(err)
		}
		return "LTRB", nil
	}
	return out.String(), nil
}

// box adds fill and border operators for the area x, y, w, h. A full
// frame is one rectangle; partial borders are single lines.
func (e *Engine) box(f *contentstream.Fragment, x, y, w, h float64, border string, fill bool) {
	d := e.doc
	k := d.K
	x1, y1, x2, y2 := x*k, (d.H-y)*k, (x+w)*k, (d.H-(y+h))*k
	if border == "LTRB" || fill {
		op := contentstream.PaintStroke
		switch {
		case fill && border == "LTRB":
			op = contentstream.PaintFillStroke
		case fill:
			op = contentstream.PaintFill
		}
		f.Num("re", x1, y1, w*k, -h*k).Op(string(op))
		if border == "LTRB" {
			return
		}
	}
	if strings.Contains(border, "L") {
		f.Num("m", x1, y1).Num("l", x1, y2).Op("S")
	}
	if strings.Contains(border, "T") {
		f.Num("m", x1, y1).Num("l", x2, y1).Op("S")
	}
	if strings.Contains(border, "R") {
		f.Num("m", x2, y1).Num("l", x2, y2).Op("S")
	}
	if strings.Contains(border, "B") {
		f.Num("m", x1, y2).Num("l", x2, y2).Op("S")
	}
}
