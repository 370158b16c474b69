package layout

import (
	"strconv"
	"strings"

	"github.com/wudi/pdfflow/htmldom"
	"github.com/wudi/pdfflow/observability"
	"github.com/wudi/pdfflow/recovery"
)

// FlowState is where the HTML writer stands in the text flow.
type FlowState int

const (
	// AtLineStart: nothing has been written on the current line.
	AtLineStart FlowState = iota
	// InLine: text has been written on the current line.
	InLine
	// InTableCell: a table row is being laid out.
	InTableCell
	// InList: at the start of a line inside a list.
	InList
)

type eventKind int

const (
	evOpen eventKind = iota
	evClose
	evText
)

type event struct {
	kind eventKind
	node htmldom.Node
}

func queue(nodes []htmldom.Node) []event {
	evs := make([]event, len(nodes))
	for i, n := range nodes {
		switch {
		case n.Tag == "":
			evs[i] = event{kind: evText, node: n}
		case n.Opening:
			evs[i] = event{kind: evOpen, node: n}
		default:
			evs[i] = event{kind: evClose, node: n}
		}
	}
	return evs
}

// closing returns the index of the close event matching the open event at
// i, or the last index when it is missing.
func closing(evs []event, i int) int {
	tag := evs[i].node.Tag
	depth := 0
	for j := i; j < len(evs); j++ {
		ev := evs[j]
		if ev.kind == evText || ev.node.Tag != tag {
			continue
		}
		if ev.kind == evOpen {
			depth++
			continue
		}
		depth--
		if depth == 0 {
			return j
		}
	}
	return len(evs) - 1
}

type htmlStyle struct {
	family                          string
	bold, italic, underline, strike bool
	// size is in points.
	size     float64
	color    [3]int
	hasColor bool
	link     string
	align    string
}

func (s htmlStyle) fontStyle() string {
	var b strings.Builder
	if s.bold {
		b.WriteByte('B')
	}
	if s.italic {
		b.WriteByte('I')
	}
	if s.underline {
		b.WriteByte('U')
	}
	if s.strike {
		b.WriteByte('D')
	}
	return b.String()
}

type htmlList struct {
	ordered bool
	n       int
	indent  float64
}

type htmlWriter struct {
	e      *Engine
	state  FlowState
	styles []htmlStyle
	lists  []htmlList
	// lineH is the tallest line height used on the current line.
	lineH     float64
	baseColor string
	baseFill  string
}

type htmlSaved struct {
	state  FlowState
	styles []htmlStyle
	lists  []htmlList
	lineH  float64
}

func (w *htmlWriter) save() htmlSaved {
	return htmlSaved{
		state:  w.state,
		styles: append([]htmlStyle(nil), w.styles...),
		lists:  append([]htmlList(nil), w.lists...),
		lineH:  w.lineH,
	}
}

func (w *htmlWriter) restore(s htmlSaved) {
	w.state = s.state
	w.styles = append(w.styles[:0], s.styles...)
	w.lists = append(w.lists[:0], s.lists...)
	w.lineH = s.lineH
}

// WriteHTMLString parses src and writes it with WriteHTML.
func (e *Engine) WriteHTMLString(src string) error {
	nodes, err := htmldom.Parse(src)
	if err != nil {
		return e.doc.Fail(err)
	}
	return e.WriteHTML(nodes)
}

// WriteMarkdown renders CommonMark source through WriteHTML.
func (e *Engine) WriteMarkdown(src []byte) error {
	nodes, err := htmldom.ParseMarkdown(src)
	if err != nil {
		return e.doc.Fail(err)
	}
	return e.WriteHTML(nodes)
}

// WriteHTML writes the flattened HTML nodes from the current position.
// Table rows and elements with nobr="true" are kept on one page. The font
// and text colour in effect before the call are restored afterwards.
func (e *Engine) WriteHTML(nodes []htmldom.Node) error {
	d := e.doc
	if _, err := e.font("layout.WriteHTML"); err != nil {
		return err
	}
	base := htmlStyle{
		family:    d.FontFamily,
		bold:      strings.Contains(d.FontStyle, "B"),
		italic:    strings.Contains(d.FontStyle, "I"),
		underline: d.Underline,
		strike:    d.Strike,
		size:      d.FontSizePt,
	}
	w := &htmlWriter{e: e, styles: []htmlStyle{base}, baseColor: d.TextColor, baseFill: d.FillColor}
	if d.X != e.lineStart() {
		w.state = InLine
		w.lineH = e.lineHeight()
	}
	err := w.run(queue(nodes))
	if ferr := d.SetFont(base.family, base.fontStyle(), base.size); err == nil {
		err = ferr
	}
	d.RestoreTextColor(w.baseColor)
	return err
}

func (w *htmlWriter) run(evs []event) error {
	d := w.e.doc
	for i := 0; i < len(evs); i++ {
		if err := d.Err(); err != nil {
			return err
		}
		ev := evs[i]
		if ev.kind == evOpen && !htmldom.IsVoid(ev.node.Tag) {
			switch {
			case ev.node.Tag == "table":
				j := closing(evs, i)
				if err := w.table(evs[i : j+1]); err != nil {
					return err
				}
				i = j
				continue
			case ev.node.Attr["nobr"] == "true":
				j := closing(evs, i)
				if err := w.keepTogether(evs[i : j+1]); err != nil {
					return err
				}
				i = j
				continue
			}
		}
		if err := w.handle(ev); err != nil {
			return err
		}
	}
	return nil
}

// keepTogether writes an element inside a document transaction so that
// it moves to a new page as a whole.
func (w *htmlWriter) keepTogether(block []event) error {
	saved := w.save()
	return w.e.doc.Atomic(func() error {
		w.restore(saved)
		if err := w.handle(block[0]); err != nil {
			return err
		}
		if len(block) < 2 {
			return nil
		}
		if err := w.run(block[1 : len(block)-1]); err != nil {
			return err
		}
		return w.handle(block[len(block)-1])
	})
}

func (w *htmlWriter) handle(ev event) error {
	switch ev.kind {
	case evText:
		return w.text(ev.node.Text)
	case evOpen:
		return w.open(ev.node)
	}
	return w.close(ev.node)
}

func (w *htmlWriter) top() htmlStyle { return w.styles[len(w.styles)-1] }

func (w *htmlWriter) restState() FlowState {
	if len(w.lists) > 0 {
		return InList
	}
	return AtLineStart
}

func (w *htmlWriter) atLineStart() bool {
	return w.state != InLine || w.e.doc.X == w.e.lineStart()
}

// endLine moves to the next line when something was written on the
// current one.
func (w *htmlWriter) endLine() {
	if w.state == InLine {
		h := w.lineH
		if h == 0 {
			h = w.e.lineHeight()
		}
		w.e.Ln(h)
	}
	w.lineH = 0
	w.state = w.restState()
}

// tolerate hands a problem with one element to the recovery strategy;
// unless the strategy fails the document the element is skipped.
func (w *htmlWriter) tolerate(err error) error {
	d := w.e.doc
	if d.Strategy().OnError(err, recovery.Location{Page: d.PageNo(), Component: "layout.html"}) == recovery.ActionFail {
		return d.Fail(err)
	}
	d.Logger().Warn("html element skipped", observability.Error("error", err))
	return nil
}

// apply selects the font and text colour of s.
func (w *htmlWriter) apply(s htmlStyle) error {
	d := w.e.doc
	if err := d.SetFont(s.family, s.fontStyle(), s.size); err != nil {
		return err
	}
	if s.hasColor {
		d.SetTextColor(s.color[0], s.color[1], s.color[2])
	} else {
		d.RestoreTextColor(w.baseColor)
	}
	return nil
}

// collapse folds runs of HTML white space into one space. No-break spaces
// are kept.
func collapse(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}

func (w *htmlWriter) text(s string) error {
	t := collapse(s)
	if w.atLineStart() {
		t = strings.TrimLeft(t, " ")
	}
	if t == "" {
		return nil
	}
	st := w.top()
	h := w.e.lineHeight()
	w.lineH = max(w.lineH, h)
	if _, err := w.e.write(h, []rune(t), WriteOptions{Link: st.link, Align: st.align}); err != nil {
		return err
	}
	w.state = InLine
	return nil
}

var headingScale = map[string]float64{
	"h1": 2, "h2": 1.5, "h3": 1.17, "h4": 1, "h5": 0.83, "h6": 0.67,
}

var textAlign = map[string]string{
	"left": "L", "center": "C", "right": "R", "justify": "J",
}

// derive applies the element and its CSS properties to the inherited
// style.
func (w *htmlWriter) derive(n htmldom.Node) htmlStyle {
	st := w.top()
	switch n.Tag {
	case "b", "strong", "th":
		st.bold = true
	case "i", "em", "cite", "var":
		st.italic = true
	case "u", "ins":
		st.underline = true
	case "del", "s", "strike":
		st.strike = true
	case "a":
		if href := n.Attr["href"]; href != "" {
			st.link = href
			st.underline = true
			st.color, st.hasColor = [3]int{0, 0, 255}, true
		}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		st.bold = true
		st.size = w.styles[0].size * headingScale[n.Tag]
	}
	if v, ok := n.Style["color"]; ok {
		if r, g, b, ok := htmldom.ParseColor(v); ok {
			st.color, st.hasColor = [3]int{r, g, b}, true
		}
	}
	if v, ok := n.Style["font-size"]; ok {
		if size, ok := htmldom.FontSize(v, st.size); ok && size > 0 {
			st.size = size
		}
	}
	if v, ok := n.Style["font-family"]; ok {
		if fam := w.family(v, st); fam != "" {
			st.family = fam
		}
	}
	switch strings.ToLower(n.Style["font-weight"]) {
	case "bold", "bolder", "600", "700", "800", "900":
		st.bold = true
	case "normal", "lighter", "400":
		st.bold = false
	}
	switch strings.ToLower(n.Style["font-style"]) {
	case "italic", "oblique":
		st.italic = true
	case "normal":
		st.italic = false
	}
	if v, ok := n.Style["text-decoration"]; ok {
		v = strings.ToLower(v)
		st.underline = strings.Contains(v, "underline")
		st.strike = strings.Contains(v, "line-through")
	}
	if a, ok := textAlign[strings.ToLower(n.Style["text-align"])]; ok {
		st.align = a
	}
	return st
}

// family returns the first family of a CSS font-family list the font
// registry can load; unknown families keep the inherited one.
func (w *htmlWriter) family(list string, st htmlStyle) string {
	d := w.e.doc
	var last error
	for _, f := range strings.Split(list, ",") {
		f = strings.Trim(strings.TrimSpace(f), `"'`)
		if f == "" {
			continue
		}
		if _, err := d.Fonts.Add(f, st.fontStyle()); err != nil {
			last = err
			continue
		}
		return f
	}
	if last != nil {
		// A failing strategy leaves the error on the document.
		_ = w.tolerate(last)
	}
	return ""
}

func (w *htmlWriter) open(n htmldom.Node) error {
	d := w.e.doc
	switch n.Tag {
	case "br":
		if w.state == InLine {
			w.endLine()
		} else {
			w.e.Ln(w.e.lineHeight())
		}
		return nil
	case "img":
		return w.image(n)
	case "hr":
		return w.rule()
	}
	if htmldom.IsVoid(n.Tag) {
		return nil
	}
	st := w.derive(n)
	if d.Err() != nil {
		return d.Err()
	}
	w.styles = append(w.styles, st)
	if err := w.apply(st); err != nil {
		return err
	}
	switch n.Tag {
	case "p", "div", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
		w.endLine()
	case "ul", "ol":
		w.endLine()
		indent := w.e.ListIndent
		if indent == 0 {
			indent = 2 * d.FontSize
		}
		l := htmlList{ordered: n.Tag == "ol", indent: indent}
		if v, err := strconv.Atoi(n.Attr["start"]); err == nil {
			l.n = v - 1
		}
		w.lists = append(w.lists, l)
		if d.RTL {
			d.RMargin += indent
		} else {
			d.LMargin += indent
		}
		d.X = w.e.lineStart()
		w.state = InList
	case "li":
		w.endLine()
		return w.marker()
	}
	return nil
}

func (w *htmlWriter) close(n htmldom.Node) error {
	d := w.e.doc
	switch n.Tag {
	case "p", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
		inline := w.state == InLine
		w.endLine()
		if inline {
			d.Y += w.e.lineHeight() / 2
		}
	case "div", "li":
		w.endLine()
	case "ul", "ol":
		w.endLine()
		if len(w.lists) > 0 {
			l := w.lists[len(w.lists)-1]
			w.lists = w.lists[:len(w.lists)-1]
			if d.RTL {
				d.RMargin -= l.indent
			} else {
				d.LMargin -= l.indent
			}
		}
		d.X = w.e.lineStart()
		w.state = w.restState()
	}
	if len(w.styles) > 1 {
		w.styles = w.styles[:len(w.styles)-1]
	}
	return w.apply(w.top())
}

// marker writes the bullet or number of a list item in the indentation
// left of the text.
func (w *htmlWriter) marker() error {
	d := w.e.doc
	if len(w.lists) == 0 {
		return nil
	}
	l := &w.lists[len(w.lists)-1]
	l.n++
	text := []rune(string(w.e.Bullet))
	if l.ordered {
		text = []rune(strconv.Itoa(l.n) + ".")
	}
	h := w.e.lineHeight()
	gap := d.FontSize / 2
	c := CellOptions{W: l.indent - gap, H: h, IgnoreMinHeight: true, runes: text}
	if d.RTL {
		d.X = d.W - d.RMargin + l.indent
		c.Align = "L"
	} else {
		d.X = d.LMargin - l.indent
		c.Align = "R"
	}
	if err := w.e.Cell(c); err != nil {
		return err
	}
	d.X = w.e.lineStart()
	w.lineH = h
	w.state = InLine
	return nil
}

func (w *htmlWriter) image(n htmldom.Node) error {
	d := w.e.doc
	src := n.Attr["src"]
	if src == "" {
		return nil
	}
	if _, err := d.Images.Load(src); err != nil {
		return w.tolerate(err)
	}
	k := d.K
	ref := w.e.available() * k
	var o ImageOptions
	if v, ok := htmldom.Length(n.Style["width"], ref, d.FontSizePt); ok {
		o.W = v / k
	}
	if v, ok := htmldom.Length(n.Style["height"], ref, d.FontSizePt); ok {
		o.H = v / k
	}
	o.Link = w.top().link
	o.Ln = true
	w.endLine()
	if _, err := w.e.Image(src, o); err != nil {
		return err
	}
	w.state = w.restState()
	return nil
}

// rule draws a horizontal line across the text area.
func (w *htmlWriter) rule() error {
	d := w.e.doc
	w.endLine()
	h := w.e.lineHeight()
	y := d.Y + h/2
	if err := w.e.Line(d.LMargin, y, d.W-d.RMargin, y); err != nil {
		return err
	}
	d.Y += h
	d.X = w.e.lineStart()
	return nil
}
