// Package writer serializes a closed document: page objects and their
// content streams, fonts, images, the shared resource dictionary,
// annotations, outlines, the info dictionary, the catalog, the xref table
// and the trailer, in that order.
package writer

import (
	"context"
	"io"
	"time"

	"github.com/wudi/pdfflow/document"
	"github.com/wudi/pdfflow/filters"
	"github.com/wudi/pdfflow/ir/raw"
	"github.com/wudi/pdfflow/observability"
	"github.com/wudi/pdfflow/security"
)

type PDFVersion string

const (
	PDF17 PDFVersion = "1.7"
)

type ContentFilter int

const (
	FilterNone ContentFilter = iota
	FilterFlate
	FilterASCIIHex
	FilterASCII85
)

type Config struct {
	Version PDFVersion
	// Compression is the Flate level used when ContentFilter is
	// FilterFlate; 0 selects the default level.
	Compression   int
	ContentFilter ContentFilter
	// Deterministic derives the file ID from the content and, unless Now
	// is set, dates the file at the Unix epoch.
	Deterministic bool
	Producer      string
	Now           func() time.Time
	// SubsetFonts strips unused glyph outlines from embedded Unicode
	// TrueType fonts.
	SubsetFonts bool

	Encryption security.Handler
	Logger     observability.Logger
	Tracer     observability.Tracer
}

func (c *Config) setDefaults() {
	if c.Producer == "" {
		c.Producer = "pdfflow"
	}
	if c.Now == nil {
		if c.Deterministic {
			c.Now = func() time.Time { return time.Unix(0, 0).UTC() }
		} else {
			c.Now = time.Now
		}
	}
	if c.Encryption == nil {
		c.Encryption = security.NoEncryption{}
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	if c.Tracer == nil {
		c.Tracer = observability.NopTracer()
	}
}

func (c Config) pipeline() *filters.Pipeline {
	switch c.ContentFilter {
	case FilterFlate:
		level := c.Compression
		if level == 0 {
			level = -1
		}
		return filters.NewPipeline(filters.NewFlate(level))
	case FilterASCIIHex:
		return filters.NewPipeline(filters.ASCIIHex{})
	case FilterASCII85:
		return filters.NewPipeline(filters.ASCII85{})
	}
	return nil
}

// Writer writes a document as a complete PDF file.
type Writer interface {
	Write(ctx context.Context, doc *document.Document, w io.Writer) error
}

// Interceptor observes every object after it is written.
type Interceptor interface {
	AfterWrite(objNum int, bytesWritten int64) error
}

type WriterBuilder struct {
	cfg          Config
	interceptors []Interceptor
}

func (b *WriterBuilder) WithConfig(cfg Config) *WriterBuilder {
	b.cfg = cfg
	return b
}

func (b *WriterBuilder) WithInterceptor(i Interceptor) *WriterBuilder {
	b.interceptors = append(b.interceptors, i)
	return b
}

func (b *WriterBuilder) Build() Writer {
	cfg := b.cfg
	cfg.setDefaults()
	return &impl{cfg: cfg, interceptors: b.interceptors}
}

// New returns a writer for cfg.
func New(cfg Config) Writer { return (&WriterBuilder{}).WithConfig(cfg).Build() }

type impl struct {
	cfg          Config
	interceptors []Interceptor
}

// session is the state of one Write call.
type session struct {
	cfg      Config
	doc      *document.Document
	ow       *ObjectWriter
	filter   *filters.Pipeline
	pages    []int
	annots   [][]int
	fonts    map[string]int
	images   map[string]int
	gstates  []int
	ocgs     map[string]int
	js       int
	outlines int
}

// Write closes doc if needed and writes it to w. Nothing is written when
// the document is in a failed state.
func (w *impl) Write(ctx context.Context, doc *document.Document, out io.Writer) (err error) {
	ctx, span := w.cfg.Tracer.StartSpan(ctx, observability.SpanWrite)
	start := time.Now()
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.SetTag(observability.MetricWriteTime, time.Since(start).Seconds())
		span.Finish()
	}()
	if err := doc.Close(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s := &session{
		cfg:    w.cfg,
		doc:    doc,
		ow:     NewObjectWriter(out, w.cfg.Encryption, w.interceptors...),
		filter: w.cfg.pipeline(),
		fonts:  map[string]int{},
		images: map[string]int{},
		ocgs:   map[string]int{},
	}
	s.ow.writeString("%PDF-" + pdfVersion(w.cfg) + "\n%\xE2\xE3\xCF\xD3\n")

	steps := []func() error{
		s.putPages,
		s.putFonts,
		s.putImages,
		s.putExtGStates,
		s.putOCGs,
		s.putResources,
		s.putAnnotations,
		s.putJavaScript,
		s.putOutlines,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return err
		}
		if err := s.ow.Err(); err != nil {
			return err
		}
	}
	info := s.putInfo()
	catalog := s.putCatalog()

	ids := fileID(doc, w.cfg)
	trailer := raw.Dict()
	trailer.Set("Root", raw.Ref(catalog, 0))
	trailer.Set("Info", raw.Ref(info, 0))
	trailer.Set("ID", raw.NewArray(raw.HexStr(ids[0]), raw.HexStr(ids[1])))
	if enc := w.cfg.Encryption.EncryptDict(ids[0]); enc != nil {
		trailer.Set("Encrypt", raw.Ref(s.ow.Put(enc), 0))
	}
	if err := s.ow.Finish(trailer); err != nil {
		return err
	}
	span.SetTag(observability.MetricPageCount, doc.NumPages())
	span.SetTag(observability.MetricObjectCount, s.ow.Table().Len())
	span.SetTag(observability.MetricOutputBytes, s.ow.Offset())
	w.cfg.Logger.Debug("document written",
		observability.Int("pages", doc.NumPages()),
		observability.Int("objects", s.ow.Table().Len()),
		observability.Int("bytes", int(s.ow.Offset())))
	return nil
}

// stream writes data as the next object, filtered when a content filter
// is configured.
func (s *session) stream(dict *raw.DictObj, data []byte) (int, error) {
	if dict == nil {
		dict = raw.Dict()
	}
	if !s.filter.Empty() {
		enc, names, err := s.filter.Encode(data)
		if err != nil {
			return 0, err
		}
		data = enc
		if len(names) == 1 {
			dict.Set("Filter", raw.NameLiteral(names[0]))
		} else {
			dict.Set("Filter", raw.Names(names...))
		}
	}
	return s.ow.PutStream(dict, data), nil
}
