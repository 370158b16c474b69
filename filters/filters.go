// Package filters implements the stream filters applied when writing page
// content, image data and embedded font programs, together with decoders
// for the same filters.
package filters

import (
	"bytes"
	"compress/zlib"
	"context"
	stdascii85 "encoding/ascii85"
	"encoding/hex"
	"io"

	"github.com/wudi/pdfflow/recovery"
)

// Encoder applies one PDF stream filter.
type Encoder interface {
	Name() string
	Encode(in []byte) ([]byte, error)
}

// Decoder reverses one PDF stream filter.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, in []byte) ([]byte, error)
}

// Pipeline applies encoders in order. The resulting /Filter array lists the
// filters in decode order, which is the reverse.
type Pipeline struct {
	encoders []Encoder
}

func NewPipeline(encoders ...Encoder) *Pipeline {
	return &Pipeline{encoders: encoders}
}

// Encode returns the filtered data and the filter names for the stream
// dictionary.
func (p *Pipeline) Encode(in []byte) ([]byte, []string, error) {
	data := in
	names := make([]string, len(p.encoders))
	for i, enc := range p.encoders {
		out, err := enc.Encode(data)
		if err != nil {
			return nil, nil, recovery.Wrap(recovery.IOFailure, "filters."+enc.Name(), err)
		}
		data = out
		names[len(p.encoders)-1-i] = enc.Name()
	}
	return data, names, nil
}

// Empty reports whether the pipeline leaves data unchanged.
func (p *Pipeline) Empty() bool { return p == nil || len(p.encoders) == 0 }

// Registry looks decoders up by filter name.
type Registry struct{ decoders map[string]Decoder }

func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewFlate(-1))
	r.Register(ASCIIHex{})
	r.Register(ASCII85{})
	return r
}

func (r *Registry) Register(d Decoder) {
	if r.decoders == nil {
		r.decoders = make(map[string]Decoder)
	}
	r.decoders[d.Name()] = d
}

func (r *Registry) Get(name string) (Decoder, bool) { d, ok := r.decoders[name]; return d, ok }

// Decode undoes the filters named in a /Filter array.
func (r *Registry) Decode(ctx context.Context, in []byte, names []string) ([]byte, error) {
	data := in
	for _, name := range names {
		dec, ok := r.Get(name)
		if !ok {
			return nil, recovery.Errorf(recovery.UnsupportedFeature, "filters.Decode", "unknown filter %s", name)
		}
		out, err := dec.Decode(ctx, data)
		if err != nil {
			return nil, recovery.Wrap(recovery.InvalidFormat, "filters."+name, err)
		}
		data = out
	}
	return data, nil
}

// Flate is the FlateDecode filter with a zlib wrapper.
type Flate struct {
	Level int
}

// NewFlate returns a Flate filter; level follows compress/zlib, -1 being
// the default compression.
func NewFlate(level int) Flate { return Flate{Level: level} }

func (Flate) Name() string { return "FlateDecode" }

func (f Flate) Encode(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, f.Level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(in); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Flate) Decode(ctx context.Context, in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ASCIIHex is the ASCIIHexDecode filter.
type ASCIIHex struct{}

func (ASCIIHex) Name() string { return "ASCIIHexDecode" }

func (ASCIIHex) Encode(in []byte) ([]byte, error) {
	dst := make([]byte, hex.EncodedLen(len(in)), hex.EncodedLen(len(in))+1)
	hex.Encode(dst, in)
	return append(dst, '>'), nil
}

func (ASCIIHex) Decode(ctx context.Context, in []byte) ([]byte, error) {
	trimmed := bytes.Join(bytes.Fields(in), nil)
	if i := bytes.IndexByte(trimmed, '>'); i >= 0 {
		trimmed = trimmed[:i]
	}
	// odd length: the last digit is followed by an implied 0
	if len(trimmed)%2 == 1 {
		trimmed = append(trimmed, '0')
	}
	out := make([]byte, hex.DecodedLen(len(trimmed)))
	n, err := hex.Decode(out, trimmed)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// ASCII85 is the ASCII85Decode filter.
type ASCII85 struct{}

func (ASCII85) Name() string { return "ASCII85Decode" }

func (ASCII85) Encode(in []byte) ([]byte, error) {
	dst := make([]byte, stdascii85.MaxEncodedLen(len(in)))
	n := stdascii85.Encode(dst, in)
	return append(dst[:n], "~>"...), nil
}

func (ASCII85) Decode(ctx context.Context, in []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(in)
	trimmed = bytes.TrimPrefix(trimmed, []byte("<~"))
	trimmed = bytes.TrimSuffix(trimmed, []byte("~>"))
	out := make([]byte, 4*len(trimmed)+4)
	n, _, err := stdascii85.Decode(out, trimmed, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}
