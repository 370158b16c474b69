package builder

import (
	"io/fs"
	"time"

	"github.com/wudi/pdfflow/document"
	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/layout"
	"github.com/wudi/pdfflow/observability"
	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/security"
	"github.com/wudi/pdfflow/writer"
)

type options struct {
	doc    document.Config
	write  writer.Config
	layout []layout.Option
}

// Option configures a PDF.
type Option func(*options)

// WithUnit sets the user unit: pt, mm, cm or in.
func WithUnit(unit string) Option {
	return func(o *options) { o.doc.Unit = unit }
}

// WithFormat selects a named page format such as "A4" or "Letter".
func WithFormat(format string) Option {
	return func(o *options) { o.doc.Format = format }
}

// WithPageSize sets a custom page size in points.
func WithPageSize(w, h float64) Option {
	return func(o *options) { o.doc.Size = document.Size{W: w, H: h} }
}

// WithOrientation sets the default orientation, "P" or "L".
func WithOrientation(orientation string) Option {
	return func(o *options) { o.doc.Orientation = orientation }
}

// WithUnicode takes text as UTF-8 instead of cp1252.
func WithUnicode(on bool) Option {
	return func(o *options) { o.doc.Unicode = on }
}

func WithRTL(on bool) Option {
	return func(o *options) { o.doc.RTL = on }
}

// WithDiskCache keeps page buffers in temporary files under dir; an
// empty dir uses the system temp directory.
func WithDiskCache(dir string) Option {
	return func(o *options) {
		o.doc.DiskCache = true
		o.doc.CacheDir = dir
	}
}

// WithCompression flate-compresses content streams at level (0 for the
// default level).
func WithCompression(level int) Option {
	return func(o *options) {
		o.write.ContentFilter = writer.FilterFlate
		o.write.Compression = level
	}
}

func WithContentFilter(f writer.ContentFilter) Option {
	return func(o *options) { o.write.ContentFilter = f }
}

// WithDeterministic makes repeated runs produce identical bytes.
func WithDeterministic() Option {
	return func(o *options) { o.write.Deterministic = true }
}

// WithFontSubsetting embeds only the glyphs used from Unicode TrueType
// fonts.
func WithFontSubsetting(on bool) Option {
	return func(o *options) { o.write.SubsetFonts = on }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.write.Now = now }
}

func WithProducer(p string) Option {
	return func(o *options) { o.write.Producer = p }
}

func WithEncryption(h security.Handler) Option {
	return func(o *options) { o.write.Encryption = h }
}

func WithLogger(l observability.Logger) Option {
	return func(o *options) {
		o.doc.Logger = l
		o.write.Logger = l
	}
}

func WithTracer(t observability.Tracer) Option {
	return func(o *options) { o.write.Tracer = t }
}

// WithStrategy chooses how degraded input is handled.
func WithStrategy(s recovery.Strategy) Option {
	return func(o *options) { o.doc.Strategy = s }
}

func WithFontLoader(l fonts.Loader) Option {
	return func(o *options) { o.doc.FontLoader = l }
}

// WithImageFS resolves image paths against fsys.
func WithImageFS(fsys fs.FS) Option {
	return func(o *options) { o.doc.ImageFS = fsys }
}

// WithCreditLine writes text at the foot of the last page.
func WithCreditLine(text string) Option {
	return func(o *options) { o.doc.Credit = text }
}

func WithCellHeightRatio(r float64) Option {
	return func(o *options) { o.doc.CellHeightRatio = r }
}

func WithLanguage(lang string) Option {
	return func(o *options) { o.doc.Lang = lang }
}

// WithLayout passes options to the layout engine.
func WithLayout(opts ...layout.Option) Option {
	return func(o *options) { o.layout = append(o.layout, opts...) }
}
