package layout

import (
	"strconv"
	"strings"

	"github.com/wudi/pdfflow/htmldom"
)

type htmlCell struct {
	text   string
	header bool
	span   int
	width  string
	align  string
	bg     string
}

type htmlRow struct {
	cells []htmlCell
	head  bool
	style map[string]string
}

type htmlTable struct {
	rows  []htmlRow
	attr  map[string]string
	style map[string]string
}

// parseTable collects the rows of a table element. Cell content is kept
// as plain text; line breaks and block ends inside a cell become
// newlines. Rows of nested tables are merged into the outer table.
func parseTable(block []event) *htmlTable {
	t := &htmlTable{attr: block[0].node.Attr, style: block[0].node.Style}
	var row *htmlRow
	var cell *htmlCell
	var text strings.Builder
	inHead := false
	for _, ev := range block[1:] {
		n := ev.node
		switch ev.kind {
		case evText:
			if cell != nil {
				text.WriteString(n.Text)
			}
		case evOpen:
			switch n.Tag {
			case "thead":
				inHead = true
			case "tr":
				t.rows = append(t.rows, htmlRow{head: inHead, style: n.Style})
				row = &t.rows[len(t.rows)-1]
			case "td", "th":
				if row == nil {
					t.rows = append(t.rows, htmlRow{head: inHead})
					row = &t.rows[len(t.rows)-1]
				}
				cell = &htmlCell{header: n.Tag == "th", span: 1, width: n.Style["width"]}
				if v, err := strconv.Atoi(n.Attr["colspan"]); err == nil && v > 1 {
					cell.span = v
				}
				cell.align = textAlign[strings.ToLower(n.Style["text-align"])]
				if cell.align == "" {
					cell.align = textAlign[strings.ToLower(row.style["text-align"])]
				}
				if cell.align == "" && cell.header {
					cell.align = "C"
				}
				cell.bg = firstOf(n.Style["background-color"], row.style["background-color"], t.style["background-color"])
				text.Reset()
			case "br":
				if cell != nil {
					text.WriteByte('\n')
				}
			}
		case evClose:
			switch n.Tag {
			case "thead":
				inHead = false
			case "tr":
				row = nil
			case "p", "div", "li":
				if cell != nil {
					text.WriteByte('\n')
				}
			case "td", "th":
				if cell != nil && row != nil {
					cell.text = cellText(text.String())
					row.cells = append(row.cells, *cell)
				}
				cell = nil
			}
		}
	}
	return t
}

func firstOf(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

// cellText collapses white space line by line.
func cellText(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(collapse(l))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// columns returns the column widths of t in user units. Widths come from
// the first cell of each column that has one; the remaining width is
// shared equally by the other columns.
func (w *htmlWriter) columns(t *htmlTable, total float64) []float64 {
	d := w.e.doc
	k := d.K
	ncols := 0
	for _, r := range t.rows {
		n := 0
		for _, c := range r.cells {
			n += c.span
		}
		ncols = max(ncols, n)
	}
	widths := make([]float64, ncols)
	set := make([]bool, ncols)
	fixed := 0.0
	for _, r := range t.rows {
		col := 0
		for _, c := range r.cells {
			if c.span == 1 && !set[col] {
				if v, ok := htmldom.Length(c.width, total*k, d.FontSizePt); ok && v > 0 {
					widths[col], set[col] = v/k, true
					fixed += v / k
				}
			}
			col += c.span
		}
	}
	free := 0
	for _, s := range set {
		if !s {
			free++
		}
	}
	if free > 0 {
		each := max(total-fixed, 0) / float64(free)
		for i, s := range set {
			if !s {
				widths[i] = each
			}
		}
	}
	return widths
}

func spanWidth(widths []float64, col, span int) float64 {
	var w float64
	for i := col; i < col+span && i < len(widths); i++ {
		w += widths[i]
	}
	return w
}

// table lays out a table element row by row. Each row is kept on one
// page; rows inside thead are repeated at the top of every page the table
// continues on.
func (w *htmlWriter) table(block []event) error {
	d := w.e.doc
	t := parseTable(block)
	w.endLine()
	if len(t.rows) == 0 {
		return nil
	}
	if t.attr["nobr"] == "true" {
		saved := w.save()
		return d.Atomic(func() error {
			w.restore(saved)
			return w.layoutTable(t)
		})
	}
	return w.layoutTable(t)
}

func (w *htmlWriter) layoutTable(t *htmlTable) error {
	d := w.e.doc
	k := d.K
	avail := w.e.available()
	total := avail
	if v, ok := htmldom.Length(t.style["width"], avail*k, d.FontSizePt); ok && v > 0 {
		total = min(v/k, avail)
	}
	widths := w.columns(t, total)
	border := ""
	if b := strings.TrimSpace(t.attr["border"]); b != "" && b != "0" {
		border = "1"
	}
	padding := d.Padding
	if v, ok := htmldom.Length(t.attr["cellpadding"], 0, d.FontSizePt); ok {
		p := v / k
		d.Padding.Left, d.Padding.Top, d.Padding.Right, d.Padding.Bottom = p, p, p, p
	}
	defer func() { d.Padding = padding }()
	defer d.SetTableHeader(nil)

	offset := d.X - w.e.lineStart()
	var head []htmlRow
	repeat := false
	w.state = InTableCell
	for _, r := range t.rows {
		if r.head {
			head = append(head, r)
		} else if len(head) > 0 && !repeat {
			d.SetTableHeader(func() { w.repeatHeader(head, border, widths, offset) })
			repeat = true
		}
		x0 := d.X
		saved := w.save()
		row := []htmlRow{r}
		err := d.Atomic(func() error {
			w.restore(saved)
			return w.drawRow(row, border, widths, x0)
		})
		if err != nil {
			return err
		}
	}
	w.state = w.restState()
	d.X = w.e.lineStart()
	return w.apply(w.top())
}

// cellStyle selects the font of a cell.
func (w *htmlWriter) cellStyle(c htmlCell) error {
	st := w.top()
	if c.header {
		st.bold = true
	}
	return w.apply(st)
}

// repeatHeader redraws the header rows at the top of a new page. It runs
// from the page break hook, so a failure stops the document.
func (w *htmlWriter) repeatHeader(head []htmlRow, border string, widths []float64, offset float64) {
	d := w.e.doc
	in := d.InHeader
	d.InHeader = true
	defer func() { d.InHeader = in }()
	if err := w.drawRow(head, border, widths, w.e.lineStart()+offset); err != nil {
		_ = d.Fail(err)
	}
}

// drawRow writes rows starting at x0 and the current Y. Every cell of a
// row is as tall as its tallest cell.
func (w *htmlWriter) drawRow(rows []htmlRow, border string, widths []float64, x0 float64) error {
	d := w.e.doc
	for _, r := range rows {
		var h float64
		col := 0
		for _, c := range r.cells {
			if err := w.cellStyle(c); err != nil {
				return err
			}
			h = max(h, w.e.stringHeight(spanWidth(widths, col, c.span), []rune(c.text)))
			col += c.span
		}
		d.X = x0
		d.CheckPageBreak(h, -1, true)
		page0, y0 := d.PageNo(), d.Y
		minH := h
		if y0+h > d.PageBreakTrigger {
			minH = 0
		}
		endPage, endY := page0, y0+h
		x := x0
		col = 0
		for _, c := range r.cells {
			cw := spanWidth(widths, col, c.span)
			col += c.span
			if d.PageNo() != page0 {
				if err := d.SetPage(page0); err != nil {
					return err
				}
			}
			d.X, d.Y = x, y0
			if err := w.cellStyle(c); err != nil {
				return err
			}
			fill := false
			if cr, cg, cb, ok := htmldom.ParseColor(c.bg); ok {
				if err := d.SetFillColor(cr, cg, cb); err != nil {
					return err
				}
				fill = true
			}
			align := c.align
			if align == "" {
				align = "L"
			}
			_, err := w.e.MultiCell(MultiCellOptions{
				W: cw, Text: c.text, Border: border, Align: align, Fill: fill,
				MinH: minH, VAlign: "T", Ln: 2, runes: []rune(c.text),
			})
			if fill {
				if ferr := d.RestoreFillColor(w.baseFill); err == nil {
					err = ferr
				}
			}
			if err != nil {
				return err
			}
			if d.PageNo() > endPage || (d.PageNo() == endPage && d.Y > endY) {
				endPage, endY = d.PageNo(), d.Y
			}
			if d.RTL {
				x -= cw
			} else {
				x += cw
			}
		}
		if d.PageNo() != endPage {
			if err := d.SetPage(endPage); err != nil {
				return err
			}
		}
		d.Y, d.X = endY, x0
	}
	return nil
}
