package document

// Page is one page of the document. Marks are byte offsets into the page
// buffer and satisfy ContentMark <= FooterPos <= buffer length once the
// footer has been written.
type Page struct {
	Number      int
	Orientation string
	// WPt and HPt are the page size in points.
	WPt, HPt float64
	Rotation int
	// Boxes holds the boundary boxes by name; MediaBox is always set.
	Boxes map[string]Box

	// LMargin and RMargin are the margins the page started with, used to
	// shift X across a page break.
	LMargin, RMargin float64

	ContentMark    int
	FooterPos      int
	FooterLen      int
	FooterDone     bool
	TransformMarks []int

	// Group is the 1-based page group, 0 when groups are not used;
	// GroupPage is the page number within the group.
	Group     int
	GroupPage int

	Transition  *Transition
	Annotations []Annotation
}

func (p *Page) clone() *Page {
	c := *p
	c.Boxes = make(map[string]Box, len(p.Boxes))
	for k, v := range p.Boxes {
		c.Boxes[k] = v
	}
	c.TransformMarks = append([]int(nil), p.TransformMarks...)
	c.Annotations = append([]Annotation(nil), p.Annotations...)
	if p.Transition != nil {
		t := *p.Transition
		c.Transition = &t
	}
	return &c
}

// mark ranks decide which marks move when bytes are inserted exactly at
// their offset: a mark moves unless it ranks before the insertion point.
const (
	rankContent = iota
	rankTransform
	rankFooter
)

// shift moves the marks of p after inserting n bytes at off through an
// insertion point of the given rank.
func (p *Page) shift(off, n, rank int) {
	moves := func(v, r int) bool { return v > off || (v == off && r >= rank) }
	if moves(p.ContentMark, rankContent) {
		p.ContentMark += n
	}
	for i, m := range p.TransformMarks {
		if moves(m, rankTransform) {
			p.TransformMarks[i] += n
		}
	}
	if p.FooterDone && moves(p.FooterPos, rankFooter) {
		p.FooterPos += n
	}
}
