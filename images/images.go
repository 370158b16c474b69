// Package images decodes the image files placed on pages into the form the
// writer embeds as image XObjects. JPEG data is passed through, PNG chunks
// are copied without decoding pixels when the PDF can express the image
// directly, and anything else is decoded and re-compressed.
package images

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/wudi/pdfflow/buffer"
	"github.com/wudi/pdfflow/observability"
	"github.com/wudi/pdfflow/recovery"
)

var (
	// ErrNeedsAlpha means the image carries an alpha channel the native
	// decoder cannot pass through.
	ErrNeedsAlpha = errors.New("images: alpha channel needs decoding")
	// ErrUnsupported means the decoder cannot handle this variant of its
	// format.
	ErrUnsupported = errors.New("images: unsupported image variant")
)

// Info describes an embedded image.
type Info struct {
	Key    string
	Format string
	// Index is the 1-based registration order, used for the /I<n> name.
	Index int

	Width, Height    int
	ColorSpace       string
	BitsPerComponent int
	Filter           string
	DecodeParms      string
	Decode           string
	// Palette holds RGB triples for Indexed images.
	Palette []byte
	// Transparency is a colour-key mask: min/max pairs per component.
	Transparency []int
	SMask        *Info

	// Data is set when the image is not held in a buffer store.
	Data []byte
	blob buffer.Blob
}

// ResourceName is the name used in content streams, e.g. "I1".
func (i *Info) ResourceName() string { return "I" + strconv.Itoa(i.Index) }

// Decoder turns encoded image bytes into an Info whose Data is ready to be
// written as a stream.
type Decoder interface {
	Decode(data []byte) (*Info, error)
}

// Options configure a Registry.
type Options struct {
	// FS resolves image paths; nil reads from the operating system.
	FS       fs.FS
	Strategy recovery.Strategy
	Logger   observability.Logger
	// Level is the compression level for re-encoded pixel data.
	Level int
}

// Registry holds the images of one document, each stored once per key.
type Registry struct {
	store    *buffer.Store
	opts     Options
	byKey    map[string]*Info
	order    []*Info
	jpeg     Decoder
	png      Decoder
	fallback Decoder
}

// NewRegistry returns a registry that keeps image data in store. A nil
// store keeps data on the Info itself.
func NewRegistry(store *buffer.Store, opts Options) *Registry {
	if opts.Strategy == nil {
		opts.Strategy = recovery.NewLenientStrategy(opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	if opts.Level == 0 {
		opts.Level = -1
	}
	return &Registry{
		store:    store,
		opts:     opts,
		byKey:    map[string]*Info{},
		jpeg:     JPEGDecoder{},
		png:      PNGDecoder{},
		fallback: FallbackDecoder{Level: opts.Level},
	}
}

// Load reads and registers the image at path. A path that cannot be found
// is retried once with spaces and "%20" swapped.
func (r *Registry) Load(path string) (*Info, error) {
	if info, ok := r.byKey[path]; ok {
		return info, nil
	}
	data, err := r.read(path)
	if err != nil {
		alt := swapSpaces(path)
		if alt == path {
			return nil, recovery.Wrap(recovery.MissingResource, "images.Load", err)
		}
		if r.opts.Strategy.OnError(err, recovery.Location{Component: "images"}) == recovery.ActionFail {
			return nil, recovery.Wrap(recovery.MissingResource, "images.Load", err)
		}
		data, err = r.read(alt)
		if err != nil {
			return nil, recovery.Wrap(recovery.MissingResource, "images.Load", err)
		}
	}
	return r.LoadBytes(path, data)
}

func (r *Registry) read(path string) ([]byte, error) {
	if r.opts.FS != nil {
		return fs.ReadFile(r.opts.FS, strings.TrimPrefix(path, "/"))
	}
	return os.ReadFile(path)
}

func swapSpaces(path string) string {
	if strings.Contains(path, " ") {
		return strings.ReplaceAll(path, " ", "%20")
	}
	return strings.ReplaceAll(path, "%20", " ")
}

// LoadBytes registers already-read image data under key.
func (r *Registry) LoadBytes(key string, data []byte) (*Info, error) {
	if info, ok := r.byKey[key]; ok {
		return info, nil
	}
	info, err := r.decode(data)
	if err != nil {
		return nil, err
	}
	info.Key = key
	if err := r.keep(info); err != nil {
		return nil, err
	}
	if info.SMask != nil {
		info.SMask.Key = key + "#smask"
		if err := r.keep(info.SMask); err != nil {
			return nil, err
		}
	}
	info.Index = len(r.order) + 1
	r.byKey[key] = info
	r.order = append(r.order, info)
	r.opts.Logger.Debug("image registered",
		observability.String("key", key),
		observability.String("format", info.Format),
		observability.Int("width", info.Width),
		observability.Int("height", info.Height))
	return info, nil
}

func (r *Registry) decode(data []byte) (*Info, error) {
	switch Sniff(data) {
	case "jpeg":
		info, err := r.jpeg.Decode(data)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrUnsupported) {
			return nil, err
		}
	case "png":
		info, err := r.png.Decode(data)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrNeedsAlpha) && !errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		r.opts.Logger.Debug("png decoded through fallback", observability.Error("reason", err))
	}
	return r.fallback.Decode(data)
}

func (r *Registry) keep(info *Info) error {
	if r.store == nil {
		return nil
	}
	b, err := r.store.PutBlob(info.Data)
	if err != nil {
		return err
	}
	info.blob = b
	info.Data = nil
	return nil
}

// Images returns the registered images in registration order.
func (r *Registry) Images() []*Info { return r.order }

func (r *Registry) Get(key string) (*Info, bool) {
	info, ok := r.byKey[key]
	return info, ok
}

// Bytes returns the stream data of info.
func (r *Registry) Bytes(info *Info) ([]byte, error) {
	if info.blob == 0 || r.store == nil {
		return info.Data, nil
	}
	return r.store.Blob(info.blob)
}

// Clone returns a copy of the registry for transaction snapshots. Infos are
// immutable once registered and are shared.
func (r *Registry) Clone() *Registry {
	c := *r
	c.byKey = make(map[string]*Info, len(r.byKey))
	for k, v := range r.byKey {
		c.byKey[k] = v
	}
	c.order = append([]*Info(nil), r.order...)
	return &c
}

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
)

// Sniff names the format of data from its leading bytes: "jpeg", "png" or
// "" for anything else.
func Sniff(data []byte) string {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return "jpeg"
	case bytes.HasPrefix(data, pngMagic):
		return "png"
	}
	return ""
}
