package document

import (
	"strings"

	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/scripting"
)

// Page number aliases replaced when the document is written. Curly forms
// ("{" + alias + "}") are used with two-byte fonts.
const (
	AliasTotalPages      = "{:ptp:}"
	AliasPageNumber      = "{:pnp:}"
	AliasGroupTotalPages = "{:ptg:}"
	AliasGroupPageNumber = "{:png:}"
)

func (d *Document) alias(a string) string {
	if f := d.CurrentFont; d.Unicode && f != nil && f.Type.MultiByte() {
		// The digits replacing the alias are written after the font's
		// glyph maps are built from Used.
		for r := '0'; r <= '9'; r++ {
			f.Used.Set(uint(f.Code(r)))
		}
		return "{" + a + "}"
	}
	return a
}

// AliasNbPages returns the placeholder for the total page count.
func (d *Document) AliasNbPages() string { return d.alias(AliasTotalPages) }

// AliasNumPage returns the placeholder for the current page number.
func (d *Document) AliasNumPage() string { return d.alias(AliasPageNumber) }

// AliasGroupNbPages returns the placeholder for the page count of the
// current page group.
func (d *Document) AliasGroupNbPages() string { return d.alias(AliasGroupTotalPages) }

// AliasGroupNumPage returns the placeholder for the page number within
// the current page group.
func (d *Document) AliasGroupNumPage() string { return d.alias(AliasGroupPageNumber) }

// StartPageGroup starts a new page group at page, or at the next page
// when page is 0.
func (d *Document) StartPageGroup(page int) {
	if page <= 0 {
		page = d.cur + 1
	}
	d.newGroups[page] = true
}

// GroupSize returns the number of pages in group g.
func (d *Document) GroupSize(g int) int {
	if g <= 0 || g > len(d.groupSizes) {
		return 0
	}
	return d.groupSizes[g-1]
}

// LinkTarget is an internal link destination.
type LinkTarget struct {
	Page int
	// Y is in user units from the top of the page.
	Y float64
}

// AddLink creates an internal link and returns its identifier. The target
// defaults to the top of the current page until SetLink is called.
func (d *Document) AddLink() int {
	d.links = append(d.links, LinkTarget{Page: d.cur})
	return len(d.links)
}

// SetLink sets the destination of link; negative y means the current Y
// and page 0 the current page.
func (d *Document) SetLink(link int, y float64, page int) error {
	if link <= 0 || link > len(d.links) {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetLink", "unknown link %d", link))
	}
	if y < 0 {
		y = d.Y
	}
	if page <= 0 {
		page = d.cur
	}
	d.links[link-1] = LinkTarget{Page: page, Y: y}
	return nil
}

func (d *Document) Links() []LinkTarget { return d.links }

// Annotation is a link or text annotation. Rect is in points, already
// mapped through the transformation in effect when it was added.
type Annotation struct {
	Subtype string
	Rect    Box
	// URI is the target of an external link.
	URI string
	// Link is the identifier of an internal link target.
	Link int
	// Contents is the text of a text annotation.
	Contents string
	Title    string
	// Icon names the text annotation icon, e.g. "Note" or "Comment".
	Icon string
	Open bool
	// Color is the annotation colour as RGB components in 0..1.
	Color []float64
}

func (d *Document) annotate(x, y, w, h float64, a Annotation) error {
	if d.err != nil {
		return d.err
	}
	if d.cur == 0 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.Annotate", "no page is active"))
	}
	llx, lly, urx, ury := d.CTM().BoundingBox(x*d.K, (d.H-y-h)*d.K, (x+w)*d.K, (d.H-y)*d.K)
	a.Rect = Box{LLX: llx, LLY: lly, URX: urx, URY: ury}
	p := d.pages[d.cur-1]
	p.Annotations = append(p.Annotations, a)
	return nil
}

// LinkURL puts a link to uri on the area at x, y of size w, h.
func (d *Document) LinkURL(x, y, w, h float64, uri string) error {
	return d.annotate(x, y, w, h, Annotation{Subtype: "Link", URI: uri})
}

// LinkInternal puts a link to an AddLink target on the area.
func (d *Document) LinkInternal(x, y, w, h float64, link int) error {
	if link <= 0 || link > len(d.links) {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.Link", "unknown link %d", link))
	}
	return d.annotate(x, y, w, h, Annotation{Subtype: "Link", Link: link})
}

// TextAnnotation adds a sticky note.
func (d *Document) TextAnnotation(x, y, w, h float64, a Annotation) error {
	a.Subtype = "Text"
	if a.Icon == "" {
		a.Icon = "Note"
	}
	return d.annotate(x, y, w, h, a)
}

// Outline is a bookmark.
type Outline struct {
	Title string
	Level int
	Page  int
	// Y is in user units from the top of the page.
	Y float64
	// Style holds B and/or I.
	Style string
	Color []float64
	seq   int
}

// Bookmark adds an outline entry. Negative y means the current Y, page 0
// the current page.
func (d *Document) Bookmark(title string, level int, y float64, page int, style string, color []float64) {
	if level < 0 {
		level = 0
	}
	if y < 0 {
		y = d.Y
	}
	if page <= 0 {
		page = d.cur
	}
	d.outlines = append(d.outlines, Outline{
		Title: title, Level: level, Page: page, Y: y,
		Style: style, Color: color, seq: len(d.outlines),
	})
}

func (d *Document) Outlines() []Outline { return d.outlines }

// AppendJavaScript adds document-level JavaScript. The script must
// compile.
func (d *Document) AppendJavaScript(script string) error {
	if err := scripting.Validate(script); err != nil {
		return d.fail(err)
	}
	d.javascript += script + "\n"
	return nil
}

func (d *Document) JavaScript() string { return d.javascript }

// Transition is a page transition effect.
type Transition struct {
	// Style is one of Split, Blinds, Box, Wipe, Dissolve, Glitter, R, Fly,
	// Push, Cover, Uncover, Fade.
	Style    string
	Duration float64
	// Display is the page display duration in seconds, 0 for none.
	Display float64
}

var transitionStyles = map[string]bool{
	"Split": true, "Blinds": true, "Box": true, "Wipe": true, "Dissolve": true, "Glitter": true,
	"R": true, "Fly": true, "Push": true, "Cover": true, "Uncover": true, "Fade": true,
}

// SetPageTransition sets the transition of the current page.
func (d *Document) SetPageTransition(t Transition) error {
	if d.cur == 0 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetPageTransition", "no page is active"))
	}
	if !transitionStyles[t.Style] {
		err := recovery.Errorf(recovery.InvalidFormat, "document.SetPageTransition", "unknown transition %q", t.Style)
		if d.strategy.OnError(err, recovery.Location{Page: d.cur, Component: "document"}) == recovery.ActionFail {
			return d.fail(err)
		}
		t.Style = "R"
	}
	if t.Duration <= 0 {
		t.Duration = 1
	}
	d.pages[d.cur-1].Transition = &t
	return nil
}

// SetPageBox sets a boundary box of page (0 for the current page) in user
// units measured from the bottom-left corner.
func (d *Document) SetPageBox(page int, name string, llx, lly, urx, ury float64) error {
	if page <= 0 {
		page = d.cur
	}
	p := d.Page(page)
	if p == nil {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetPageBox", "page %d does not exist", page))
	}
	valid := false
	for _, n := range BoxNames {
		valid = valid || n == name
	}
	if !valid {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetPageBox", "unknown box %q", name))
	}
	b := Box{LLX: llx * d.K, LLY: lly * d.K, URX: urx * d.K, URY: ury * d.K}
	if b.Width() <= 0 || b.Height() <= 0 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetPageBox", "%s has non-positive size", name))
	}
	p.Boxes[name] = b
	if name == MediaBox {
		p.WPt, p.HPt = b.Width(), b.Height()
	}
	return nil
}

// SetPageRotation sets the display rotation of the current page, a
// multiple of 90 degrees.
func (d *Document) SetPageRotation(deg int) error {
	if d.cur == 0 || deg%90 != 0 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetPageRotation", "invalid rotation %d", deg))
	}
	d.pages[d.cur-1].Rotation = ((deg % 360) + 360) % 360
	return nil
}

// Info is the document information dictionary.
type Info struct {
	Title, Subject, Author, Keywords, Creator string
}

// Viewer holds the catalog display settings.
type Viewer struct {
	// Zoom is "fullpage", "fullwidth", "real", "default" or a percentage.
	Zoom       string
	ZoomFactor float64
	Layout     string
	Mode       string
	Prefs      ViewerPreferences
}

// ViewerPreferences is the /ViewerPreferences dictionary.
type ViewerPreferences struct {
	HideToolbar     bool
	HideMenubar     bool
	HideWindowUI    bool
	FitWindow       bool
	CenterWindow    bool
	DisplayDocTitle bool
	// Direction is "L2R" or "R2L".
	Direction    string
	PrintScaling string
	Duplex       string
	NumCopies    int
}

var layouts = map[string]string{
	"singlepage": "SinglePage", "single": "SinglePage", "default": "SinglePage",
	"onecolumn": "OneColumn", "continuous": "OneColumn",
	"twocolumnleft": "TwoColumnLeft", "two": "TwoColumnLeft",
	"twocolumnright": "TwoColumnRight",
	"twopageleft":    "TwoPageLeft",
	"twopageright":   "TwoPageRight",
}

var modes = map[string]string{
	"usenone": "UseNone", "useoutlines": "UseOutlines", "usethumbs": "UseThumbs",
	"fullscreen": "FullScreen", "useoc": "UseOC", "useattachments": "UseAttachments",
}

// SetDisplayMode sets the opening zoom, page layout and page mode. Zoom is
// "fullpage", "fullwidth", "real", "default" or a percentage via factor.
// Unknown layouts and modes fall back to SinglePage and UseNone.
func (d *Document) SetDisplayMode(zoom string, factor float64, layout, mode string) error {
	switch z := strings.ToLower(zoom); z {
	case "fullpage", "fullwidth", "real", "default", "":
		if z == "" {
			z = "default"
		}
		d.Viewer.Zoom = z
	default:
		if factor <= 0 {
			return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetDisplayMode", "incorrect zoom %q", zoom))
		}
		d.Viewer.Zoom = "factor"
	}
	d.Viewer.ZoomFactor = factor
	if l, ok := layouts[strings.ToLower(layout)]; ok || layout == "" {
		if l == "" {
			l = "SinglePage"
		}
		d.Viewer.Layout = l
	} else {
		err := recovery.Errorf(recovery.InvalidFormat, "document.SetDisplayMode", "unknown layout %q", layout)
		if d.strategy.OnError(err, recovery.Location{Component: "document"}) == recovery.ActionFail {
			return d.fail(err)
		}
		d.Viewer.Layout = "SinglePage"
	}
	if m, ok := modes[strings.ToLower(mode)]; ok {
		d.Viewer.Mode = m
	} else {
		d.Viewer.Mode = "UseNone"
	}
	return nil
}

func (d *Document) SetViewerPreferences(p ViewerPreferences) { d.Viewer.Prefs = p }
