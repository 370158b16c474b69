package document

import (
	"io/fs"
	"strings"

	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/observability"
	"github.com/wudi/pdfflow/recovery"
)

// Size is a page size in points.
type Size struct {
	W, H float64
}

// Box is a page boundary box in points.
type Box struct {
	LLX, LLY, URX, URY float64
}

func (b Box) Width() float64  { return b.URX - b.LLX }
func (b Box) Height() float64 { return b.URY - b.LLY }

// Page boundary names, in the order they are written.
const (
	MediaBox = "MediaBox"
	CropBox  = "CropBox"
	BleedBox = "BleedBox"
	TrimBox  = "TrimBox"
	ArtBox   = "ArtBox"
)

var BoxNames = []string{MediaBox, CropBox, BleedBox, TrimBox, ArtBox}

// UnitScale returns the number of points per user unit.
func UnitScale(unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "pt", "px":
		return 1, nil
	case "mm":
		return 72 / 25.4, nil
	case "cm":
		return 72 / 2.54, nil
	case "in", "inch":
		return 72, nil
	}
	return 0, recovery.Errorf(recovery.InvalidFormat, "document.UnitScale", "incorrect unit %q", unit)
}

var formats = map[string]Size{
	"A0": {2383.94, 3370.39}, "A1": {1683.78, 2383.94}, "A2": {1190.55, 1683.78},
	"A3": {841.89, 1190.55}, "A4": {595.28, 841.89}, "A5": {419.53, 595.28},
	"A6": {297.64, 419.53}, "A7": {209.76, 297.64}, "A8": {147.40, 209.76},
	"A9": {104.88, 147.40}, "A10": {73.70, 104.88},

	"B0": {2834.65, 4008.19}, "B1": {2004.09, 2834.65}, "B2": {1417.32, 2004.09},
	"B3": {1000.63, 1417.32}, "B4": {708.66, 1000.63}, "B5": {498.90, 708.66},
	"B6": {354.33, 498.90}, "B7": {249.45, 354.33}, "B8": {175.75, 249.45},
	"B9": {124.72, 175.75}, "B10": {87.87, 124.72},

	"C0": {2599.37, 3676.54}, "C1": {1836.85, 2599.37}, "C2": {1298.27, 1836.85},
	"C3": {918.43, 1298.27}, "C4": {649.13, 918.43}, "C5": {459.21, 649.13},
	"C6": {323.15, 459.21}, "C7": {229.61, 323.15}, "C8": {161.57, 229.61},
	"C9": {113.39, 161.57}, "C10": {79.37, 113.39},

	"LETTER":    {612, 792},
	"LEGAL":     {612, 1008},
	"LEDGER":    {1224, 792},
	"TABLOID":   {792, 1224},
	"EXECUTIVE": {521.86, 756},
	"FOLIO":     {612, 936},
}

// LookupFormat returns the portrait size of a named page format.
func LookupFormat(name string) (Size, bool) {
	s, ok := formats[strings.ToUpper(strings.TrimSpace(name))]
	return s, ok
}

// Orient returns s in the given orientation, "P" or "L".
func (s Size) Orient(orientation string) Size {
	landscape := strings.HasPrefix(strings.ToUpper(orientation), "L")
	if landscape == (s.W > s.H) {
		return s
	}
	return Size{W: s.H, H: s.W}
}

// Config is the document configuration. The zero value is an A4 portrait
// document in millimetres with core fonts.
type Config struct {
	Unit        string
	Format      string
	Size        Size
	Orientation string

	// Unicode selects UTF-8 text input; otherwise text bytes are taken as
	// cp1252.
	Unicode bool
	RTL     bool

	// DiskCache keeps page buffers in temp files under CacheDir.
	DiskCache bool
	CacheDir  string

	FontLoader fonts.Loader
	ImageFS    fs.FS

	// CellHeightRatio is the minimum cell height as a multiple of the
	// font size.
	CellHeightRatio float64
	// Credit, when set, is written at the foot of the last page on Close.
	Credit string
	Lang   string

	Logger   observability.Logger
	Strategy recovery.Strategy
}

const (
	defaultUnit            = "mm"
	defaultCellHeightRatio = 1.25
)

func (c *Config) setDefaults() {
	if c.Unit == "" {
		c.Unit = defaultUnit
	}
	if c.Format == "" && c.Size == (Size{}) {
		c.Format = "A4"
	}
	if c.Orientation == "" {
		c.Orientation = "P"
	}
	if c.CellHeightRatio <= 0 {
		c.CellHeightRatio = defaultCellHeightRatio
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	if c.Strategy == nil {
		c.Strategy = recovery.NewLenientStrategy(c.Logger)
	}
}
