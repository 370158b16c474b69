// Package document is the page flow controller of a PDF being generated.
// It owns the page buffers and their insertion marks, the font and image
// registries, the page lifecycle with automatic page breaks, transactions
// for speculative layout, and the navigation structures (links,
// annotations, bookmarks) the writer serializes.
package document

import (
	"strings"

	"github.com/wudi/pdfflow/buffer"
	"github.com/wudi/pdfflow/contentstream"
	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/images"
	"github.com/wudi/pdfflow/observability"
	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/unitext"
)

// State is the lifecycle state of a document.
type State int

const (
	Unopened State = iota
	Opened
	PageActive
	PageClosed
	Closed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Opened:
		return "open"
	case PageActive:
		return "page-active"
	case PageClosed:
		return "page-closed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Padding is the inner cell padding in user units.
type Padding struct {
	Left, Top, Right, Bottom float64
}

// state is everything a transaction restores.
type state struct {
	State State
	pages []*Page
	cur   int

	// W and H are the current page size in user units.
	W, H float64
	// X and Y are the current position in user units, from the top-left.
	X, Y  float64
	LastH float64

	LMargin, TMargin, RMargin, BMargin float64
	Padding                            Padding
	AutoPageBreak                      bool
	PageBreakTrigger                   float64

	booklet            bool
	origLMargin        float64
	origRMargin        float64
	defSize            Size
	defOrientation     string
	curOrientation     string
	InHeader, InFooter bool
	RTL                bool

	Fonts  *fonts.Registry
	Images *images.Registry

	FontFamily string
	FontStyle  string
	Underline  bool
	Strike     bool
	FontSizePt float64
	// FontSize is the font size in user units.
	FontSize    float64
	CurrentFont *fonts.Font

	LineWidth float64
	DrawColor string
	FillColor string
	TextColor string
	ColorFlag bool

	ctm        []ctmEntry
	visibility string
	extGStates []ExtGState
	usedOCG    [2]bool

	newGroups  map[int]bool
	groupSizes []int
	curGroup   int

	links      []LinkTarget
	outlines   []Outline
	javascript string

	Info   Info
	Viewer Viewer
}

// Document is the root of a PDF being generated. It is not safe for
// concurrent use.
type Document struct {
	state

	cfg      Config
	K        float64
	Unicode  bool
	Lang     string
	log      observability.Logger
	strategy recovery.Strategy
	store    *buffer.Store
	decoder  *unitext.Decoder
	guard    recovery.Guard
	err      error
	tx       *snapshot

	header      func(*Document)
	footer      func(*Document)
	tableHeader func()
}

// New creates an unopened document.
func New(cfg Config) (*Document, error) {
	cfg.setDefaults()
	k, err := UnitScale(cfg.Unit)
	if err != nil {
		return nil, err
	}
	var factory buffer.SinkFactory = buffer.MemoryFactory{}
	if cfg.DiskCache {
		factory = buffer.DiskFactory{Dir: cfg.CacheDir}
	}
	store := buffer.NewStore(factory)
	d := &Document{
		cfg:      cfg,
		K:        k,
		Unicode:  cfg.Unicode,
		Lang:     cfg.Lang,
		log:      cfg.Logger,
		strategy: cfg.Strategy,
		store:    store,
		decoder:  unitext.NewDecoder(unitext.DefaultCacheSize),
	}
	d.guard.Defer(store.Close)
	d.RTL = cfg.RTL
	d.Fonts = fonts.NewRegistry(cfg.FontLoader)
	d.Images = images.NewRegistry(store, images.Options{FS: cfg.ImageFS, Strategy: cfg.Strategy, Logger: cfg.Logger})

	size := cfg.Size
	if size == (Size{}) {
		if size, err = d.resolveFormat(cfg.Format); err != nil {
			return nil, d.fail(err)
		}
	} else if size.W <= 0 || size.H <= 0 {
		return nil, d.fail(recovery.Errorf(recovery.InvalidFormat, "document.New", "invalid page size %vx%v", size.W, size.H))
	}
	d.defOrientation = strings.ToUpper(cfg.Orientation[:1])
	d.defSize = size
	d.curOrientation = d.defOrientation
	o := size.Orient(d.defOrientation)
	d.W, d.H = o.W/k, o.H/k

	margin := 28.35 / k
	d.LMargin, d.TMargin, d.RMargin = margin, margin, margin
	d.origLMargin, d.origRMargin = margin, margin
	d.Padding = Padding{Left: margin / 10, Right: margin / 10}
	d.LineWidth = 0.567 / k
	d.DrawColor, d.FillColor, d.TextColor = "0 G", "0 g", "0 g"
	d.SetAutoPageBreak(true, 2*margin)
	d.newGroups = map[int]bool{}
	d.Viewer.Zoom = "default"
	d.Viewer.Layout = "SinglePage"
	d.Viewer.Mode = "UseNone"
	return d, nil
}

func (d *Document) resolveFormat(name string) (Size, error) {
	if s, ok := LookupFormat(name); ok {
		return s, nil
	}
	err := recovery.Errorf(recovery.InvalidFormat, "document.Format", "unknown page format %q", name)
	if d.strategy.OnError(err, recovery.Location{Component: "document"}) == recovery.ActionFail {
		return Size{}, err
	}
	return formats["A4"], nil
}

// fail records err as the document error, releases temp files and
// returns err. The first error sticks.
func (d *Document) fail(err error) error {
	if err == nil {
		return nil
	}
	if d.err == nil {
		d.err = err
		d.log.Error("document failed", observability.Error("error", err))
		if rerr := d.guard.Release(); rerr != nil {
			d.log.Warn("release after failure", observability.Error("error", rerr))
		}
	}
	return d.err
}

// Fail records err as the fatal document error; see Err.
func (d *Document) Fail(err error) error { return d.fail(err) }

// Err returns the fatal error that stopped the document, if any.
func (d *Document) Err() error { return d.err }

// Release removes temp files held by the page buffers. The document cannot
// be written afterwards.
func (d *Document) Release() error { return d.guard.Release() }

func (d *Document) Logger() observability.Logger    { return d.log }
func (d *Document) Strategy() recovery.Strategy     { return d.strategy }
func (d *Document) Store() *buffer.Store            { return d.store }
func (d *Document) Decoder() *unitext.Decoder       { return d.decoder }
func (d *Document) CellHeightRatio() float64        { return d.cfg.CellHeightRatio }
func (d *Document) SetHeaderFunc(f func(*Document)) { d.header = f }
func (d *Document) SetFooterFunc(f func(*Document)) { d.footer = f }

// SetTableHeader registers a callback run at the start of every new page,
// after the header, until cleared with nil.
func (d *Document) SetTableHeader(f func()) { d.tableHeader = f }

// Open starts the document without adding a page.
func (d *Document) Open() {
	if d.State == Unopened {
		d.State = Opened
	}
}

// Pages returns every page in order.
func (d *Document) Pages() []*Page { return d.pages }

func (d *Document) NumPages() int { return len(d.pages) }

// PageNo returns the current page number, 0 before the first page.
func (d *Document) PageNo() int { return d.cur }

// Page returns page n or nil.
func (d *Document) Page(n int) *Page {
	if n <= 0 || n > len(d.pages) {
		return nil
	}
	return d.pages[n-1]
}

// AddPage ends the current page and starts a new one. An empty orientation
// or format keeps the document default. When the current page is followed
// by pages already written, AddPage moves to the next page instead.
func (d *Document) AddPage(orientation, format string) error {
	size := d.defSize
	if format != "" {
		s, err := d.resolveFormat(format)
		if err != nil {
			return d.fail(err)
		}
		size = s
	}
	return d.AddPageSize(orientation, size)
}

// AddPageSize is AddPage with an explicit size in points.
func (d *Document) AddPageSize(orientation string, size Size) error {
	if d.err != nil {
		return d.err
	}
	if d.State == Closed {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.AddPage", "the document is closed"))
	}
	if size.W <= 0 || size.H <= 0 {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.AddPage", "invalid page size %vx%v", size.W, size.H))
	}
	if d.cur > 0 && d.cur < len(d.pages) {
		if err := d.SetPage(d.cur + 1); err != nil {
			return err
		}
		d.Y = d.TMargin
		return nil
	}
	d.Open()
	if err := d.endPage(); err != nil {
		return err
	}
	return d.startPage(orientation, size)
}

// pageMargins returns the left and right margins page n starts with; in
// booklet mode even pages swap them.
func (d *Document) pageMargins(n int) (left, right float64) {
	if d.booklet && n%2 == 0 {
		return d.origRMargin, d.origLMargin
	}
	return d.origLMargin, d.origRMargin
}

// nextPage is AddPage with the orientation and size of the current page.
func (d *Document) nextPage() error {
	if d.cur == 0 {
		return d.AddPage("", "")
	}
	p := d.pages[d.cur-1]
	return d.AddPageSize(p.Orientation, Size{W: p.WPt, H: p.HPt})
}

func (d *Document) startPage(orientation string, size Size) error {
	if orientation == "" {
		orientation = d.defOrientation
	}
	orientation = strings.ToUpper(orientation[:1])
	n := len(d.pages) + 1
	if err := d.store.Create(n); err != nil {
		return d.fail(err)
	}
	o := size.Orient(orientation)
	lm, rm := d.pageMargins(n)
	if d.booklet {
		if len(d.pages) > 0 {
			// Margins narrowed by a cell keep their offset from the page margins.
			prev := d.pages[len(d.pages)-1]
			d.LMargin += lm - prev.LMargin
			d.RMargin += rm - prev.RMargin
		} else {
			d.LMargin, d.RMargin = lm, rm
		}
	}
	p := &Page{
		Number:      n,
		Orientation: orientation,
		WPt:         o.W,
		HPt:         o.H,
		Boxes:       map[string]Box{MediaBox: {0, 0, o.W, o.H}},
		LMargin:     lm,
		RMargin:     rm,
	}
	if d.newGroups[n] {
		d.groupSizes = append(d.groupSizes, 0)
		d.curGroup = len(d.groupSizes)
	}
	if d.curGroup > 0 {
		d.groupSizes[d.curGroup-1]++
		p.Group = d.curGroup
		p.GroupPage = d.groupSizes[d.curGroup-1]
	}
	d.pages = append(d.pages, p)
	d.cur = n
	d.State = PageActive
	d.curOrientation = orientation
	d.W, d.H = o.W/d.K, o.H/d.K
	d.PageBreakTrigger = d.H - d.BMargin
	d.Y = d.TMargin
	if d.RTL {
		d.X = d.W - d.RMargin
	} else {
		d.X = d.LMargin
	}
	d.log.Debug("page started", observability.Int("page", n))

	gs := d.graphicState()
	if err := d.restoreGraphicState(gs, true); err != nil {
		return err
	}
	if d.header != nil {
		d.InHeader = true
		d.header(d)
		d.InHeader = false
		if err := d.restoreGraphicState(gs, false); err != nil {
			return err
		}
	}
	d.SetContentMark()
	if d.tableHeader != nil {
		d.tableHeader()
	}
	return d.err
}

// endPage renders the footer of the current page and closes it.
func (d *Document) endPage() error {
	if d.State != PageActive || d.cur == 0 {
		return d.err
	}
	p := d.pages[d.cur-1]
	if !p.FooterDone {
		gs := d.graphicState()
		p.FooterPos = d.store.Len(d.cur)
		p.FooterDone = true
		if d.footer != nil {
			d.InFooter = true
			d.footer(d)
			d.InFooter = false
		}
		p.FooterLen = d.store.Len(d.cur) - p.FooterPos
		d.setGraphicState(gs)
	}
	d.State = PageClosed
	return d.err
}

// Close ends the last page and marks the document closed. A document
// without pages gets one empty page. Calling Close again does nothing.
func (d *Document) Close() error {
	if d.err != nil {
		return d.err
	}
	if d.State == Closed {
		return nil
	}
	if len(d.pages) == 0 {
		if err := d.AddPage("", ""); err != nil {
			return err
		}
	}
	if err := d.LastPage(); err != nil {
		return err
	}
	if err := d.endPage(); err != nil {
		return err
	}
	if d.cfg.Credit != "" {
		if err := d.writeCredit(d.cfg.Credit); err != nil {
			return err
		}
	}
	if d.tx != nil {
		d.CommitTransaction()
	}
	d.State = Closed
	d.log.Debug("document closed", observability.Int("pages", len(d.pages)))
	return nil
}

// writeCredit writes text centered at the foot of the last page in
// 5pt Helvetica without disturbing the caller's font.
func (d *Document) writeCredit(text string) error {
	f, err := d.Fonts.Add("helvetica", "")
	if err != nil {
		return d.fail(err)
	}
	const size = 5.0
	cps := []rune(text)
	var w float64
	for _, r := range cps {
		w += f.Width(f.Code(r))
	}
	w = w * size / 1000
	p := d.pages[d.cur-1]
	var frag contentstream.Fragment
	frag.Op("BT").
		Op("Tf", contentstream.Name(f.ResourceName()), contentstream.Number(size)).
		Num("Td", (p.WPt-w)/2, size).
		Op("Tj", contentstream.Text{Bytes: f.Encode(cps), Unit: 1}).
		Op("ET")
	return d.OutFragment(&frag)
}

// Out writes one line of content to the current page. Once the footer of
// the page exists, content goes in front of it.
func (d *Document) Out(p []byte) error {
	if d.err != nil {
		return d.err
	}
	if d.cur == 0 || d.State == Closed {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.Out", "no page is active (state %s)", d.State))
	}
	line := make([]byte, 0, len(p)+1)
	line = append(append(line, p...), '\n')
	page := d.pages[d.cur-1]
	if page.FooterDone && !d.InFooter {
		return d.insert(d.cur, page.FooterPos, line, rankFooter)
	}
	return d.fail(d.store.Append(d.cur, line))
}

// OutString writes s as one line of content.
func (d *Document) OutString(s string) error { return d.Out([]byte(s)) }

// OutFragment serializes f as one line of content.
func (d *Document) OutFragment(f *contentstream.Fragment) error {
	if f.Empty() {
		return d.err
	}
	return d.Out(f.Bytes())
}

func (d *Document) insert(page, off int, p []byte, rank int) error {
	if err := d.store.InsertAt(page, off, p); err != nil {
		return d.fail(err)
	}
	d.pages[page-1].shift(off, len(p), rank)
	return nil
}

// SetContentMark records the current end of the page buffer as the point
// where InsertAtContentMark puts content beneath later text.
func (d *Document) SetContentMark() {
	if d.cur == 0 {
		return
	}
	p := d.pages[d.cur-1]
	if d.InFooter {
		return
	}
	p.ContentMark = d.store.Len(d.cur)
	if p.FooterDone {
		p.ContentMark = p.FooterPos
	}
}

// InsertAtContentMark inserts one line of content on page so that it
// paints beneath content written after the mark. Inside a transform the
// innermost transform mark is used, inside the footer the footer start.
func (d *Document) InsertAtContentMark(page int, p []byte) error {
	if d.err != nil {
		return d.err
	}
	if page <= 0 || page > len(d.pages) {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.InsertAtContentMark", "page %d does not exist", page))
	}
	line := make([]byte, 0, len(p)+1)
	line = append(append(line, p...), '\n')
	pg := d.pages[page-1]
	switch {
	case len(pg.TransformMarks) > 0:
		return d.insert(page, pg.TransformMarks[len(pg.TransformMarks)-1], line, rankTransform)
	case d.InFooter && pg.FooterDone && page == d.cur:
		return d.insert(page, pg.FooterPos, line, rankFooter)
	}
	return d.insert(page, pg.ContentMark, line, rankContent)
}

// Mark returns the offset on the current page where the next Out lands.
func (d *Document) Mark() int {
	if d.cur == 0 {
		return 0
	}
	p := d.pages[d.cur-1]
	if p.FooterDone && !d.InFooter {
		return p.FooterPos
	}
	return d.store.Len(d.cur)
}

// InsertAt inserts one line of content at off on page, in front of any
// mark sitting at off.
func (d *Document) InsertAt(page, off int, p []byte) error {
	if d.err != nil {
		return d.err
	}
	if page <= 0 || page > len(d.pages) {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.InsertAt", "page %d does not exist", page))
	}
	line := make([]byte, 0, len(p)+1)
	line = append(append(line, p...), '\n')
	return d.insert(page, off, line, rankContent)
}

// Content returns the raw buffer of page n.
func (d *Document) Content(n int) ([]byte, error) { return d.store.Read(n) }

// SetPage makes page n current. Writing to it inserts before its footer.
func (d *Document) SetPage(n int) error {
	if d.err != nil {
		return d.err
	}
	if n <= 0 || n > len(d.pages) {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetPage", "wrong page number %d (have %d)", n, len(d.pages)))
	}
	if d.State == Closed {
		return d.fail(recovery.Errorf(recovery.InvalidFormat, "document.SetPage", "the document is closed"))
	}
	p := d.pages[n-1]
	d.cur = n
	d.State = PageActive
	d.W, d.H = p.WPt/d.K, p.HPt/d.K
	d.curOrientation = p.Orientation
	d.PageBreakTrigger = d.H - d.BMargin
	return nil
}

// LastPage makes the last page current.
func (d *Document) LastPage() error {
	if len(d.pages) == 0 {
		return d.err
	}
	return d.SetPage(len(d.pages))
}

// SetMargins sets the left, top and right margins. A negative right margin
// copies the left one.
func (d *Document) SetMargins(left, top, right float64) {
	if right < 0 {
		right = left
	}
	d.LMargin, d.TMargin, d.RMargin = left, top, right
	d.origLMargin, d.origRMargin = left, right
}

// SetBooklet swaps the left and right margins on even pages when on.
// Negative margins keep the current ones.
func (d *Document) SetBooklet(on bool, inner, outer float64) {
	d.booklet = on
	if inner >= 0 {
		d.origLMargin = inner
		d.LMargin = inner
	}
	if outer >= 0 {
		d.origRMargin = outer
		d.RMargin = outer
	}
}

func (d *Document) SetAutoPageBreak(auto bool, margin float64) {
	d.AutoPageBreak = auto
	d.BMargin = margin
	d.PageBreakTrigger = d.H - margin
}

// AcceptPageBreak reports whether an automatic page break may happen now.
// Breaks never happen while the footer renders.
func (d *Document) AcceptPageBreak() bool {
	return d.AutoPageBreak && !d.InFooter
}

// CheckPageBreak reports whether content of height h at y (negative for
// the current Y) crosses the page-break trigger. With addPage set it also
// moves to a new page, keeping X at the same distance from the margin.
func (d *Document) CheckPageBreak(h, y float64, addPage bool) bool {
	if d.err != nil || d.cur == 0 {
		return false
	}
	if y < 0 {
		y = d.Y
	}
	if y+h <= d.PageBreakTrigger || d.InHeader || !d.AcceptPageBreak() {
		return false
	}
	if addPage {
		x := d.X
		old := d.pages[d.cur-1]
		if err := d.nextPage(); err != nil {
			return true
		}
		d.Y = d.TMargin
		cur := d.pages[d.cur-1]
		if d.RTL {
			d.X = x - (cur.RMargin - old.RMargin)
		} else {
			d.X = x + (cur.LMargin - old.LMargin)
		}
	}
	return true
}

// SetX moves X; negative values count from the right edge.
func (d *Document) SetX(x float64) {
	if x >= 0 {
		d.X = x
	} else {
		d.X = d.W + x
	}
}

// SetY moves Y and resets X to the margin; negative values count from the
// bottom edge.
func (d *Document) SetY(y float64) {
	if d.RTL {
		d.X = d.W - d.RMargin
	} else {
		d.X = d.LMargin
	}
	if y >= 0 {
		d.Y = y
	} else {
		d.Y = d.H + y
	}
}

func (d *Document) SetXY(x, y float64) {
	d.SetY(y)
	d.SetX(x)
}

// PtX converts a user-space X to points.
func (d *Document) PtX(x float64) float64 { return x * d.K }

// PtY converts a user-space Y (from the top) to PDF points (from the
// bottom).
func (d *Document) PtY(y float64) float64 { return (d.H - y) * d.K }

// Codepoints decodes s according to the document text mode.
func (d *Document) Codepoints(s string) []rune {
	if d.Unicode {
		return d.decoder.Codepoints(s)
	}
	return unitext.Bytes(s)
}
