package fonts

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/unitext"
)

// AFM advances for codes 32..126 of the standard fonts.
const (
	helveticaASCII = "278 278 355 556 556 889 667 191 333 333 389 584 278 333 278 278 " +
		"556 556 556 556 556 556 556 556 556 556 278 278 584 584 584 556 1015 " +
		"667 667 722 722 667 611 778 722 278 500 667 556 833 722 778 667 778 722 667 611 722 667 944 667 667 611 " +
		"278 278 278 469 556 333 " +
		"556 556 500 556 556 278 556 556 222 222 500 222 833 556 556 556 556 333 500 278 556 500 722 500 500 500 " +
		"334 260 334 584"
	helveticaBoldASCII = "278 333 474 556 556 889 722 238 333 333 389 584 278 333 278 278 " +
		"556 556 556 556 556 556 556 556 556 556 333 333 584 584 584 611 975 " +
		"722 722 722 722 667 611 778 722 278 556 722 611 833 722 778 667 778 722 667 611 722 667 944 667 667 611 " +
		"333 278 333 584 556 333 " +
		"556 611 556 611 556 333 611 611 278 278 556 278 889 611 611 611 611 389 556 333 611 556 778 556 556 500 " +
		"389 280 389 584"
	timesASCII = "250 333 408 500 500 833 778 180 333 333 500 564 250 333 250 278 " +
		"500 500 500 500 500 500 500 500 500 500 278 278 564 564 564 444 921 " +
		"722 667 667 722 611 556 722 722 333 389 722 611 889 722 722 556 722 667 556 611 722 722 944 722 722 611 " +
		"333 278 333 469 500 333 " +
		"444 500 444 500 444 333 500 500 278 278 500 278 778 500 500 500 500 333 389 278 500 500 722 500 500 444 " +
		"480 200 480 541"
	timesBoldASCII = "250 333 555 500 500 1000 833 278 333 333 500 570 250 333 250 278 " +
		"500 500 500 500 500 500 500 500 500 500 333 333 570 570 570 500 930 " +
		"722 667 722 722 667 611 778 778 389 500 778 667 944 722 778 611 778 722 556 667 722 722 1000 722 722 667 " +
		"333 278 333 581 500 333 " +
		"500 556 444 556 444 333 500 556 278 333 556 278 833 556 500 556 556 444 389 333 556 500 722 500 500 444 " +
		"394 220 394 520"
	timesItalicASCII = "250 333 420 500 500 833 778 214 333 333 500 675 250 333 250 278 " +
		"500 500 500 500 500 500 500 500 500 500 333 333 675 675 675 500 920 " +
		"611 611 667 722 611 611 722 722 333 444 667 556 833 667 722 611 722 611 500 556 722 611 833 611 556 556 " +
		"389 278 389 422 500 333 " +
		"500 500 444 500 444 278 500 500 278 278 444 278 722 500 500 500 500 389 389 278 500 444 667 444 444 389 " +
		"400 275 400 541"
	timesBoldItalicASCII = "250 389 555 500 500 833 778 278 333 333 500 570 250 333 250 278 " +
		"500 500 500 500 500 500 500 500 500 500 333 333 570 570 570 500 832 " +
		"667 667 667 722 667 667 722 778 389 500 667 611 889 722 722 611 722 667 556 611 722 667 889 667 611 611 " +
		"333 278 333 570 500 333 " +
		"500 500 444 500 444 333 500 556 278 278 500 278 778 556 500 500 500 389 389 278 556 444 667 500 444 389 " +
		"348 220 348 570"
)

type coreFace struct {
	name        string
	ascii       string // empty means monospaced 600
	ascent      int
	descent     int
	capHeight   int
	xHeight     int
	stemV       int
	italicAngle float64
	bbox        [4]int
}

var coreFaces = map[string]coreFace{
	"helvetica":   {"Helvetica", helveticaASCII, 718, -207, 718, 523, 88, 0, [4]int{-166, -225, 1000, 931}},
	"helveticaB":  {"Helvetica-Bold", helveticaBoldASCII, 718, -207, 718, 532, 140, 0, [4]int{-170, -228, 1003, 962}},
	"helveticaI":  {"Helvetica-Oblique", helveticaASCII, 718, -207, 718, 523, 88, -12, [4]int{-170, -225, 1116, 931}},
	"helveticaBI": {"Helvetica-BoldOblique", helveticaBoldASCII, 718, -207, 718, 532, 140, -12, [4]int{-174, -228, 1114, 962}},
	"times":       {"Times-Roman", timesASCII, 683, -217, 662, 450, 84, 0, [4]int{-168, -218, 1000, 898}},
	"timesB":      {"Times-Bold", timesBoldASCII, 683, -217, 676, 461, 139, 0, [4]int{-168, -218, 1000, 935}},
	"timesI":      {"Times-Italic", timesItalicASCII, 683, -217, 653, 441, 76, -15.5, [4]int{-169, -217, 1010, 883}},
	"timesBI":     {"Times-BoldItalic", timesBoldItalicASCII, 683, -217, 669, 462, 121, -15, [4]int{-200, -218, 996, 921}},
	"courier":     {"Courier", "", 629, -157, 562, 426, 51, 0, [4]int{-23, -250, 715, 805}},
	"courierB":    {"Courier-Bold", "", 629, -157, 562, 439, 106, 0, [4]int{-113, -250, 749, 801}},
	"courierI":    {"Courier-Oblique", "", 629, -157, 562, 426, 51, -12, [4]int{-27, -250, 849, 805}},
	"courierBI":   {"Courier-BoldOblique", "", 629, -157, 562, 439, 106, -12, [4]int{-57, -250, 869, 801}},
}

// coreAliases maps common family names to the standard family.
var coreAliases = map[string]string{
	"arial":           "helvetica",
	"sans":            "helvetica",
	"sans-serif":      "helvetica",
	"times new roman": "times",
	"timesroman":      "times",
	"serif":           "times",
	"courier new":     "courier",
	"monospace":       "courier",
}

// CoreLoader serves the Helvetica, Times and Courier families.
type CoreLoader struct{}

func (CoreLoader) Load(family, style string) (*Metrics, error) {
	if alias, ok := coreAliases[family]; ok {
		family = alias
	}
	face, ok := coreFaces[family+style]
	if !ok {
		return nil, recovery.Errorf(recovery.MissingResource, "fonts.CoreLoader", "no core font %q style %q", family, style)
	}
	m := &Metrics{
		Type:               Core,
		Name:               face.name,
		Widths:             coreWidths(face.ascii),
		Ascent:             face.ascent,
		Descent:            face.descent,
		CapHeight:          face.capHeight,
		XHeight:            face.xHeight,
		StemV:              face.stemV,
		ItalicAngle:        face.italicAngle,
		BBox:               face.bbox,
		Flags:              32,
		UnderlinePosition:  -100,
		UnderlineThickness: 50,
		Encoding:           "WinAnsiEncoding",
	}
	if face.italicAngle != 0 {
		m.Flags |= 64
	}
	return m, nil
}

// coreWidths expands the ASCII table to all WinAnsi codes. Accented letters
// take the width of their base letter.
func coreWidths(ascii string) map[rune]int {
	w := make(map[rune]int, 224)
	if ascii == "" {
		for c := rune(32); c <= 255; c++ {
			w[c] = 600
		}
		return w
	}
	for i, f := range strings.Fields(ascii) {
		n, _ := strconv.Atoi(f)
		w[rune(32+i)] = n
	}
	digit, space, hyphen := w['0'], w[' '], w['-']
	w[0x80] = digit  // Euro
	w[0x85] = 1000   // ellipsis
	w[0x95] = 350    // bullet
	w[0x96] = digit  // en dash
	w[0x97] = 1000   // em dash
	w[0xA0] = space  // no-break space
	w[0xAD] = hyphen // soft hyphen
	for c := rune(0xC0); c <= 0xFF; c++ {
		base := []rune(norm.NFD.String(string(unitext.WinAnsiRune(byte(c)))))[0]
		if base < 0x80 {
			if bw, ok := w[base]; ok {
				w[c] = bw
			}
		}
	}
	return w
}
