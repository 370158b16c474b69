// Package builder is the caller-facing facade over document, layout and
// writer. Methods record the first error and turn every later call into a
// no-op; Err and Output report it.
package builder

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/wudi/pdfflow/document"
	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/images"
	"github.com/wudi/pdfflow/layout"
	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/writer"
)

// PDF builds one document. It is not safe for concurrent use.
type PDF struct {
	doc  *document.Document
	eng  *layout.Engine
	wcfg writer.Config
	err  error
	done bool
}

// New creates a document configured by opts.
func New(opts ...Option) (*PDF, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.write.Logger == nil && o.doc.Logger != nil {
		o.write.Logger = o.doc.Logger
	}
	d, err := document.New(o.doc)
	if err != nil {
		return nil, err
	}
	return &PDF{doc: d, eng: layout.NewEngine(d, o.layout...), wcfg: o.write}, nil
}

// Document exposes the underlying document for operations the facade
// does not wrap.
func (p *PDF) Document() *document.Document { return p.doc }

func (p *PDF) Engine() *layout.Engine { return p.eng }

// Err returns the first error recorded.
func (p *PDF) Err() error { return p.err }

// Ok reports whether no error has been recorded.
func (p *PDF) Ok() bool { return p.err == nil }

// SetError records err unless an error is already recorded.
func (p *PDF) SetError(err error) {
	if p.err == nil && err != nil {
		p.err = err
	}
}

func (p *PDF) do(fn func() error) {
	if p.err != nil {
		return
	}
	p.SetError(fn())
}

func (p *PDF) AddPage() { p.AddPageFormat("", "") }

// AddPageFormat adds a page with its own orientation and named format;
// empty values take the document defaults.
func (p *PDF) AddPageFormat(orientation, format string) {
	p.do(func() error { return p.doc.AddPage(orientation, format) })
}

func (p *PDF) PageNo() int { return p.doc.PageNo() }

func (p *PDF) SetPage(n int) { p.do(func() error { return p.doc.SetPage(n) }) }

// SetFont selects family, style (any of B, I, U, D) and size in points.
// A zero size keeps the current size.
func (p *PDF) SetFont(family, style string, size float64) {
	p.do(func() error { return p.doc.SetFont(family, style, size) })
}

func (p *PDF) SetFontSize(size float64) {
	p.do(func() error { return p.doc.SetFontSize(size) })
}

// AddFontFromBytes registers a TrueType font under family and style.
// Unicode documents address it through two-byte codes.
func (p *PDF) AddFontFromBytes(family, style string, ttf []byte) {
	p.do(func() error { return p.addFont(family, style, ttf) })
}

func (p *PDF) addFont(family, style string, ttf []byte) error {
	m, err := fonts.ParseTrueType(family, ttf, p.doc.Unicode)
	if err != nil {
		return err
	}
	return p.doc.AddFontMetrics(family, style, m)
}

// AddFont registers a TrueType font file.
func (p *PDF) AddFont(family, style, path string) {
	p.do(func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return recovery.Wrap(recovery.MissingResource, "builder.AddFont", err)
		}
		return p.addFont(family, style, data)
	})
}

// AddType1Font registers an embedded Type1 font from its PFB program and
// AFM metrics.
func (p *PDF) AddType1Font(family, style string, pfb, afm []byte) {
	p.do(func() error {
		m, err := fonts.ParseType1(family, pfb, afm)
		if err != nil {
			return err
		}
		return p.doc.AddFontMetrics(family, style, m)
	})
}

func (p *PDF) SetMargins(left, top, right float64) { p.doc.SetMargins(left, top, right) }
func (p *PDF) SetLeftMargin(v float64)             { p.doc.SetMargins(v, p.doc.TMargin, p.doc.RMargin) }
func (p *PDF) SetRightMargin(v float64)            { p.doc.SetMargins(p.doc.LMargin, p.doc.TMargin, v) }
func (p *PDF) SetTopMargin(v float64)              { p.doc.SetMargins(p.doc.LMargin, v, p.doc.RMargin) }

// SetAutoPageBreak enables automatic page breaks margin units above the
// bottom edge.
func (p *PDF) SetAutoPageBreak(auto bool, margin float64) { p.doc.SetAutoPageBreak(auto, margin) }

func (p *PDF) SetBooklet(on bool, inner, outer float64) { p.doc.SetBooklet(on, inner, outer) }

func (p *PDF) SetCellPadding(pad document.Padding) { p.doc.Padding = pad }

func (p *PDF) GetX() float64      { return p.doc.X }
func (p *PDF) GetY() float64      { return p.doc.Y }
func (p *PDF) SetX(x float64)     { p.doc.SetX(x) }
func (p *PDF) SetY(y float64)     { p.doc.SetY(y) }
func (p *PDF) SetXY(x, y float64) { p.doc.SetXY(x, y) }

// PageSize returns the current page size in user units.
func (p *PDF) PageSize() (w, h float64) { return p.doc.W, p.doc.H }

func (p *PDF) SetDrawColor(r, g, b int) { p.do(func() error { return p.doc.SetDrawColor(r, g, b) }) }
func (p *PDF) SetFillColor(r, g, b int) { p.do(func() error { return p.doc.SetFillColor(r, g, b) }) }
func (p *PDF) SetTextColor(r, g, b int) { p.doc.SetTextColor(r, g, b) }

func (p *PDF) SetLineWidth(w float64) { p.do(func() error { return p.doc.SetLineWidth(w) }) }

func (p *PDF) SetLineStyle(s document.LineStyle) { p.do(func() error { return p.doc.SetLineStyle(s) }) }

// SetAlpha sets the opacity and blend mode of following content.
func (p *PDF) SetAlpha(alpha float64, blend string) {
	p.do(func() error { return p.doc.SetAlpha(alpha, blend) })
}

// SetVisibility limits following content to "print", "screen" or "all".
func (p *PDF) SetVisibility(v string) { p.do(func() error { return p.doc.SetVisibility(v) }) }

func (p *PDF) Text(x, y float64, text string) { p.do(func() error { return p.eng.Text(x, y, text) }) }

func (p *PDF) Line(x1, y1, x2, y2 float64) {
	p.do(func() error { return p.eng.Line(x1, y1, x2, y2) })
}

// Rect draws a rectangle; style is D (draw), F (fill) or DF.
func (p *PDF) Rect(x, y, w, h float64, style string) {
	p.do(func() error { return p.eng.Rect(x, y, w, h, style) })
}

// Ln moves to the start of the next line; a negative h uses the height
// of the last cell.
func (p *PDF) Ln(h float64) {
	if p.err == nil {
		p.eng.Ln(h)
	}
}

func (p *PDF) Cell(w, h float64, text string) {
	p.CellFormat(layout.CellOptions{W: w, H: h, Text: text})
}

func (p *PDF) CellFormat(o layout.CellOptions) {
	p.do(func() error { return p.eng.Cell(o) })
}

// MultiCell writes wrapped text and returns the number of lines.
func (p *PDF) MultiCell(o layout.MultiCellOptions) int {
	var n int
	p.do(func() error {
		var err error
		n, err = p.eng.MultiCell(o)
		return err
	})
	return n
}

// Write flows text from the current position with line height h and
// returns the text that did not fit.
func (p *PDF) Write(h float64, text string, o layout.WriteOptions) string {
	var rest string
	p.do(func() error {
		res, err := p.eng.Write(h, text, o)
		rest = res.Rest
		return err
	})
	return rest
}

func (p *PDF) GetStringWidth(text string) float64 {
	if p.err != nil || p.doc.CurrentFont == nil {
		return 0
	}
	return p.eng.StringWidth(text)
}

// Image places an image file; see layout.ImageOptions for placement.
func (p *PDF) Image(path string, o layout.ImageOptions) *images.Info {
	var info *images.Info
	p.do(func() error {
		var err error
		info, err = p.eng.Image(path, o)
		return err
	})
	return info
}

// ImageFromBytes places an encoded image registered under key.
func (p *PDF) ImageFromBytes(key string, data []byte, o layout.ImageOptions) *images.Info {
	o.Data = data
	return p.Image(key, o)
}

func (p *PDF) AddLink() int { return p.doc.AddLink() }

// SetLink points link at y on page (0 for the current page).
func (p *PDF) SetLink(link int, y float64, page int) {
	p.do(func() error { return p.doc.SetLink(link, y, page) })
}

func (p *PDF) LinkURL(x, y, w, h float64, uri string) {
	p.do(func() error { return p.doc.LinkURL(x, y, w, h, uri) })
}

func (p *PDF) Link(x, y, w, h float64, link int) {
	p.do(func() error { return p.doc.LinkInternal(x, y, w, h, link) })
}

func (p *PDF) TextAnnotation(x, y, w, h float64, a document.Annotation) {
	p.do(func() error { return p.doc.TextAnnotation(x, y, w, h, a) })
}

// Bookmark adds an outline entry at the current position.
func (p *PDF) Bookmark(title string, level int) {
	p.doc.Bookmark(title, level, -1, 0, "", nil)
}

func (p *PDF) AppendJavaScript(script string) {
	p.do(func() error { return p.doc.AppendJavaScript(script) })
}

func (p *PDF) SetTitle(s string)    { p.doc.Info.Title = s }
func (p *PDF) SetSubject(s string)  { p.doc.Info.Subject = s }
func (p *PDF) SetAuthor(s string)   { p.doc.Info.Author = s }
func (p *PDF) SetKeywords(s string) { p.doc.Info.Keywords = s }
func (p *PDF) SetCreator(s string)  { p.doc.Info.Creator = s }

// SetDisplayMode sets the initial zoom ("fullpage", "fullwidth", "real",
// "default" or a percentage), page layout and page mode.
func (p *PDF) SetDisplayMode(zoom string, factor float64, pageLayout, mode string) {
	p.do(func() error { return p.doc.SetDisplayMode(zoom, factor, pageLayout, mode) })
}

func (p *PDF) SetViewerPreferences(prefs document.ViewerPreferences) {
	p.doc.SetViewerPreferences(prefs)
}

func (p *PDF) SetPageTransition(t document.Transition) {
	p.do(func() error { return p.doc.SetPageTransition(t) })
}

func (p *PDF) SetPageRotation(deg int) { p.do(func() error { return p.doc.SetPageRotation(deg) }) }

func (p *PDF) StartPageGroup() { p.doc.StartPageGroup(0) }

// AliasNbPages returns the placeholder replaced by the page count.
func (p *PDF) AliasNbPages() string { return p.doc.AliasNbPages() }

func (p *PDF) AliasNumPage() string { return p.doc.AliasNumPage() }

// SetHeaderFunc runs fn at the top of every page.
func (p *PDF) SetHeaderFunc(fn func(*PDF)) {
	p.doc.SetHeaderFunc(func(*document.Document) { fn(p) })
}

// SetFooterFunc runs fn at the bottom of every page.
func (p *PDF) SetFooterFunc(fn func(*PDF)) {
	p.doc.SetFooterFunc(func(*document.Document) { fn(p) })
}

// Atomic runs fn in a transaction; content that would break a page is
// moved to a new page as one block.
func (p *PDF) Atomic(fn func() error) {
	p.do(func() error { return p.doc.Atomic(fn) })
}

func (p *PDF) WriteHTML(src string) { p.do(func() error { return p.eng.WriteHTMLString(src) }) }

func (p *PDF) WriteMarkdown(src []byte) { p.do(func() error { return p.eng.WriteMarkdown(src) }) }

// Close ends the document. Output closes it implicitly.
func (p *PDF) Close() error {
	p.do(p.doc.Close)
	return p.err
}

// Output writes the PDF to w and releases the document buffers. The
// document cannot be used afterwards.
func (p *PDF) Output(w io.Writer) error {
	return p.OutputContext(context.Background(), w)
}

func (p *PDF) OutputContext(ctx context.Context, w io.Writer) error {
	if p.done {
		return recovery.Errorf(recovery.InvalidFormat, "builder.Output", "document already written")
	}
	p.done = true
	defer p.doc.Release()
	if p.err != nil {
		return p.err
	}
	p.SetError(writer.New(p.wcfg).Write(ctx, p.doc, w))
	return p.err
}

// OutputFile writes the PDF to path. A partial file is removed.
func (p *PDF) OutputFile(path string) error {
	if p.err != nil {
		_ = p.doc.Release()
		return p.err
	}
	f, err := os.Create(path)
	if err != nil {
		_ = p.doc.Release()
		p.SetError(recovery.Wrap(recovery.IOFailure, "builder.OutputFile", err))
		return p.err
	}
	if err := p.Output(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		p.SetError(recovery.Wrap(recovery.IOFailure, "builder.OutputFile", err))
		return p.err
	}
	return nil
}

// Bytes returns the complete PDF.
func (p *PDF) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
