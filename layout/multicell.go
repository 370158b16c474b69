package layout

import (
	"strings"

	"github.com/wudi/pdfflow/contentstream"
)

// MultiCellOptions describes a block of wrapped text inside a cell.
type MultiCellOptions struct {
	// W 0 extends the cell to the margin; H is the line height (0 for the
	// minimum cell height).
	W, H   float64
	Text   string
	Border string
	// Align defaults to J; the last line is left aligned.
	Align string
	Fill  bool
	Ln    int
	// MinH is a fixed minimum height of the whole cell; VAlign (T, M, B)
	// places the text inside it.
	MinH   float64
	VAlign string
	// MaxH stops the text once the cell would grow taller.
	MaxH float64

	runes []rune
}

// Segment is the part of a block that falls on one page, in user units
// from the top of the page.
type Segment struct {
	Page int
	Y, H float64
	// OpenTop and OpenBottom are set where the block continues on the
	// previous or next page.
	OpenTop, OpenBottom bool
}

// PageSpan returns the top and bottom limits of the text area of page.
type PageSpan func(page int) (top, bottom float64)

// SplitAcrossPages computes the per-page segments of a block that starts
// at startY on startPage and ends at endY on endPage.
func SplitAcrossPages(startPage int, startY float64, endPage int, endY float64, span PageSpan) []Segment {
	if endPage <= startPage {
		return []Segment{{Page: startPage, Y: startY, H: endY - startY}}
	}
	_, bottom := span(startPage)
	segs := []Segment{{Page: startPage, Y: startY, H: bottom - startY, OpenBottom: true}}
	for p := startPage + 1; p < endPage; p++ {
		top, bottom := span(p)
		segs = append(segs, Segment{Page: p, Y: top, H: bottom - top, OpenTop: true, OpenBottom: true})
	}
	top, _ := span(endPage)
	return append(segs, Segment{Page: endPage, Y: top, H: endY - top, OpenTop: true})
}

// segmentBorder drops the edges a segment leaves open.
func segmentBorder(border string, s Segment) string {
	if s.OpenTop {
		border = strings.ReplaceAll(border, "T", "")
	}
	if s.OpenBottom {
		border = strings.ReplaceAll(border, "B", "")
	}
	return border
}

// MultiCell writes text wrapped inside a cell of width W. The cell may
// span several pages; its fill and border are inserted beneath the text
// on every page it touches. It returns the number of lines.
func (e *Engine) MultiCell(o MultiCellOptions) (int, error) {
	d := e.doc
	if _, err := e.font("layout.MultiCell"); err != nil {
		return 0, err
	}
	border, err := e.borderLetters(o.Border)
	if err != nil {
		return 0, err
	}
	if o.H == 0 {
		o.H = e.lineHeight()
	}
	if o.Align == "" {
		o.Align = "J"
	}
	if o.W == 0 {
		o.W = e.available()
	}
	d.CheckPageBreak(max(o.MinH, o.H+d.Padding.Top+d.Padding.Bottom), -1, true)

	startPage, startX, startY := d.PageNo(), d.X, d.Y
	startOff := d.Mark()
	lm, rm := d.LMargin, d.RMargin
	if d.RTL {
		d.LMargin, d.RMargin = startX-o.W, d.W-startX
	} else {
		d.LMargin, d.RMargin = startX, d.W-startX-o.W
	}
	restore := func() {
		cur, start := d.Page(d.PageNo()), d.Page(startPage)
		d.LMargin = lm + cur.LMargin - start.LMargin
		d.RMargin = rm + cur.RMargin - start.RMargin
	}
	defer restore()

	cps := o.runes
	if cps == nil {
		cps = d.Codepoints(o.Text)
	}
	cps = trimText(cps)

	d.Y += d.Padding.Top
	if o.MinH > 0 && o.VAlign != "" && strings.ToUpper(o.VAlign) != "T" {
		th := e.stringHeight(o.W, cps)
		if gap := o.MinH - th; gap > 0 {
			if strings.ToUpper(o.VAlign) == "B" {
				d.Y += gap
			} else {
				d.Y += gap / 2
			}
		}
	}
	d.X = e.lineStart()
	var maxH float64
	if o.MaxH > 0 {
		maxH = o.MaxH - d.Padding.Top - d.Padding.Bottom
	}
	res, err := e.write(o.H, cps, WriteOptions{Align: o.Align, MaxH: maxH, Ln: true})
	if err != nil {
		return res.Lines, err
	}
	d.Y += d.Padding.Bottom

	endPage, endY := d.PageNo(), d.Y
	if o.MinH > 0 && endPage == startPage && endY < startY+o.MinH {
		endY = startY + o.MinH
	}
	if border != "" || o.Fill {
		segs := SplitAcrossPages(startPage, startY, endPage, endY, func(p int) (float64, float64) {
			pg := d.Page(p)
			return d.TMargin, pg.HPt/d.K - d.BMargin
		})
		left := startX
		if d.RTL {
			left = startX - o.W
		}
		for _, s := range segs {
			var f contentstream.Fragment
			e.boxOnPage(&f, s.Page, left, s.Y, o.W, s.H, segmentBorder(border, s), o.Fill)
			if f.Empty() {
				continue
			}
			if s.Page == startPage {
				err = d.InsertAt(s.Page, startOff, f.Bytes())
			} else {
				err = d.InsertAtContentMark(s.Page, f.Bytes())
			}
			if err != nil {
				return res.Lines, err
			}
		}
	}

	restore()
	d.LastH = endY - startY
	switch o.Ln {
	case 0:
		if endPage != startPage {
			if err := d.SetPage(startPage); err != nil {
				return res.Lines, err
			}
		}
		d.Y = startY
		if d.RTL {
			d.X = startX - o.W
		} else {
			d.X = startX + o.W
		}
	case 2:
		d.Y = endY
		if d.RTL {
			d.X = startX - o.W
		} else {
			d.X = startX + o.W
		}
	default:
		d.Y = endY
		d.X = e.lineStart()
	}
	return res.Lines, nil
}

// trimText drops carriage returns and one trailing newline.
func trimText(cps []rune) []rune {
	out := make([]rune, 0, len(cps))
	for _, r := range cps {
		if r != '\r' {
			out = append(out, r)
		}
	}
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out
}

// boxOnPage is box measured against the height of page.
func (e *Engine) boxOnPage(f *contentstream.Fragment, page int, x, y, w, h float64, border string, fill bool) {
	d := e.doc
	saved := d.H
	if p := d.Page(page); p != nil {
		d.H = p.HPt / d.K
	}
	e.box(f, x, y, w, h, border, fill)
	d.H = saved
}
