package layout

import (
	"unicode"
)

// Mode selects what the line-emission routine does with the lines it
// computes.
type Mode int

const (
	// ModeCommit writes every line.
	ModeCommit Mode = iota
	// ModeFirstLine writes the first line only and returns the rest.
	ModeFirstLine
	// ModeMeasure writes nothing; it only counts lines.
	ModeMeasure
)

// WriteOptions configures Write.
type WriteOptions struct {
	Link   string
	LinkID int
	// Align is L, C, R or J. Justified lines exclude the last line and
	// lines ended by a newline.
	Align string
	Fill  bool
	Mode  Mode
	// MaxH stops the flow once the written height would exceed it; 0 means
	// no limit.
	MaxH float64
	// Ln moves to the start of the next line after the last line.
	Ln bool
}

// WriteResult reports what Write did.
type WriteResult struct {
	// Rest is the text that was not written.
	Rest  string
	Lines int
}

// line is one wrapped line: cps[start:end] is shown, the next line starts
// at next.
type line struct {
	start, end, next int
	width            float64
	hyphen           bool
	// forced is set for lines ended by a newline or the end of the text.
	forced bool
	// skip marks a wrap before anything was written on the first line.
	skip bool
}

type breakKind int

const (
	breakSpace breakKind = iota + 1
	breakSoftHyphen
	breakHyphen
)

func isBreakSpace(r rune) bool {
	return r != nbsp && unicode.IsSpace(r) && r != '\n'
}

// breakLines wraps cps greedily. The first line is first wide, the rest
// rest wide; atStart tells whether the first line starts at the margin.
// narrow is set when a single character does not fit at a line start;
// lines then holds what was laid out before it.
func (e *Engine) breakLines(cps []rune, widths []float64, first, rest float64, atStart bool) (lines []line, narrow bool) {
	const eps = 1e-9
	hyphenW := 0.0
	if f := e.doc.CurrentFont; f != nil {
		hyphenW = f.Width(f.Code('-')) * e.doc.FontSize / 1000
	}
	j, sep := 0, -1
	var kind breakKind
	var l, sepW float64
	wmax := first
	// lineStart is false only for a first line that begins after other
	// content; such a line wraps whole rather than mid-word.
	lineStart := atStart
	reset := func(next int) {
		j, sep, l, sepW = next, -1, 0, 0
		wmax = rest
		lineStart = true
	}
	for i := 0; i < len(cps); {
		c := cps[i]
		if c == '\n' {
			lines = append(lines, line{start: j, end: i, next: i + 1, width: l, forced: true})
			reset(i + 1)
			i++
			continue
		}
		if l+widths[i] > wmax+eps {
			switch {
			case sep >= 0:
				ln := line{start: j, width: sepW}
				switch kind {
				case breakSpace:
					ln.end, ln.next = sep, sep+1
				case breakSoftHyphen:
					ln.end, ln.next = sep, sep+1
					ln.hyphen = sep == 0 || cps[sep-1] != '-'
					if ln.hyphen {
						ln.width += hyphenW
					}
				case breakHyphen:
					ln.end, ln.next = sep+1, sep+1
				}
				lines = append(lines, ln)
				reset(ln.next)
			case !lineStart:
				lines = append(lines, line{start: j, end: j, next: j, skip: true})
				reset(j)
			case i == j:
				return lines, true
			default:
				lines = append(lines, line{start: j, end: i, next: i, width: l})
				reset(i)
			}
			i = j
			continue
		}
		switch {
		case isBreakSpace(c):
			sep, kind, sepW = i, breakSpace, l
		case c == shy:
			sep, kind, sepW = i, breakSoftHyphen, l
		case c == '-' && i > 0 && i+1 < len(cps) && unicode.IsLetter(cps[i-1]) && unicode.IsLetter(cps[i+1]):
			sep, kind, sepW = i, breakHyphen, l+widths[i]
		}
		l += widths[i]
		i++
	}
	if j < len(cps) {
		lines = append(lines, line{start: j, end: len(cps), next: len(cps), width: l, forced: true})
	}
	return lines, false
}

// shown returns the code points displayed for ln.
func shown(cps []rune, ln line) []rune {
	out := append([]rune(nil), cps[ln.start:ln.end]...)
	if ln.hyphen {
		out = append(out, '-')
	}
	return out
}

// Write flows text from the current position, wrapping at the right
// margin and continuing at the left margin; h is the line height. Text
// that ends mid-line leaves the position after it.
func (e *Engine) Write(h float64, text string, o WriteOptions) (WriteResult, error) {
	return e.write(h, e.doc.Codepoints(text), o)
}

func (e *Engine) write(h float64, cps []rune, o WriteOptions) (WriteResult, error) {
	d := e.doc
	if _, err := e.font("layout.Write"); err != nil {
		return WriteResult{}, err
	}
	pad := d.Padding.Left + d.Padding.Right
	first := e.available()
	full := d.W - d.RMargin - d.LMargin
	atStart := d.X == e.lineStart()
	_, widths := e.measure(cps)
	lines, narrow := e.breakLines(cps, widths, first-pad, full-pad, atStart)

	var res WriteResult
	for n, ln := range lines {
		if o.MaxH > 0 && float64(res.Lines+1)*h > o.MaxH+1e-9 {
			res.Rest = string(cps[ln.start:])
			return res, nil
		}
		res.Lines++
		last := n == len(lines)-1 && !narrow
		if ln.skip {
			if o.Mode != ModeMeasure {
				d.Y += h
				d.X = e.lineStart()
			}
			continue
		}
		if o.Mode != ModeMeasure {
			if err := e.emitLine(h, cps, ln, last, o); err != nil {
				return res, err
			}
		}
		if o.Mode == ModeFirstLine {
			res.Rest = string(cps[ln.next:])
			return res, nil
		}
	}
	if narrow {
		start := 0
		if len(lines) > 0 {
			start = lines[len(lines)-1].next
		}
		res.Rest = string(cps[start:])
	}
	return res, nil
}

// emitLine writes one line as a cell. Every line but the last ends at the
// start of the next line.
func (e *Engine) emitLine(h float64, cps []rune, ln line, last bool, o WriteOptions) error {
	d := e.doc
	pad := d.Padding.Left + d.Padding.Right
	align := o.Align
	if align == "J" && ln.forced {
		align = ""
	}
	c := CellOptions{
		H:               h,
		Align:           align,
		Fill:            o.Fill,
		Link:            o.Link,
		LinkID:          o.LinkID,
		IgnoreMinHeight: true,
		runes:           shown(cps, ln),
	}
	if c.runes == nil {
		c.runes = []rune{}
	}
	if last && (align == "" || align == "L" || align == "J") {
		c.W = ln.width + pad
	} else {
		c.W = e.available()
	}
	if !last || ln.end < ln.next || o.Ln {
		c.Ln = 1
	}
	return e.Cell(c)
}

// GetNumLines returns how many lines text takes in a column w wide (0 for
// the width up to the margin).
func (e *Engine) GetNumLines(text string, w float64) int {
	return e.numLines(e.doc.Codepoints(text), w)
}

func (e *Engine) numLines(cps []rune, w float64) int {
	d := e.doc
	if d.CurrentFont == nil {
		return 0
	}
	if w == 0 {
		w = e.available()
	}
	if len(cps) == 0 {
		return 1
	}
	inner := w - d.Padding.Left - d.Padding.Right
	_, widths := e.measure(cps)
	lines, narrow := e.breakLines(cps, widths, inner, inner, true)
	n := len(lines)
	if narrow {
		n++
	}
	return max(n, 1)
}

// GetStringHeight returns the height of text written with MultiCell in a
// column w wide.
func (e *Engine) GetStringHeight(w float64, text string) float64 {
	return e.stringHeight(w, trimText(e.doc.Codepoints(text)))
}

func (e *Engine) stringHeight(w float64, cps []rune) float64 {
	d := e.doc
	return float64(e.numLines(cps, w))*e.lineHeight() + d.Padding.Top + d.Padding.Bottom
}
