package writer

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wudi/pdfflow/document"
	"github.com/wudi/pdfflow/ir/raw"
)

func pdfVersion(cfg Config) string {
	if cfg.Version == "" {
		return string(PDF17)
	}
	return string(cfg.Version)
}

func fileID(doc *document.Document, cfg Config) [2][]byte {
	seed := deterministicIDSeed(doc, cfg)
	if cfg.Deterministic {
		return [2][]byte{seed, seed}
	}
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		id = seed
	}
	return [2][]byte{id, append([]byte(nil), id...)}
}

func deterministicIDSeed(doc *document.Document, cfg Config) []byte {
	h := sha256.New()
	h.Write([]byte(pdfVersion(cfg)))
	info := doc.Info
	for _, s := range []string{info.Title, info.Author, info.Subject, info.Keywords, info.Creator, cfg.Producer} {
		h.Write([]byte(s))
	}
	fmt.Fprintf(h, "%d", doc.NumPages())
	for _, p := range doc.Pages() {
		fmt.Fprintf(h, "%f-%f-%d", p.WPt, p.HPt, p.Rotation)
	}
	return h.Sum(nil)[:16]
}

// pdfDate formats t as D:YYYYMMDDHHmmss+HH'mm'.
func pdfDate(t time.Time) string {
	_, offset := t.Zone()
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("D:%s%c%02d'%02d'", t.Format("20060102150405"), sign, offset/3600, offset%3600/60)
}

func boxArray(b document.Box) *raw.ArrayObj {
	return raw.Floats(b.LLX, b.LLY, b.URX, b.URY)
}

func normalizeRotation(rot int) int {
	rot = rot % 360
	if rot < 0 {
		rot += 360
	}
	if rot%90 != 0 {
		return 0
	}
	return rot
}

// encodeWidths returns the /Widths array for codes first..last.
func encodeWidths(width func(c rune) float64, first, last rune) *raw.ArrayObj {
	arr := raw.NewArray()
	for c := first; c <= last; c++ {
		arr.Add(raw.NumberFloat(width(c)))
	}
	return arr
}

// encodeCIDWidths builds a /W array of "first last width" ranges.
func encodeCIDWidths(widths map[int]int) *raw.ArrayObj {
	arr := raw.NewArray()
	if len(widths) == 0 {
		return arr
	}
	codes := make([]int, 0, len(widths))
	for c := range widths {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	start, prev, current := codes[0], codes[0], widths[codes[0]]
	flush := func() {
		arr.Add(raw.Int(start))
		arr.Add(raw.Int(prev))
		arr.Add(raw.Int(current))
	}
	for _, code := range codes[1:] {
		w := widths[code]
		if w == current && code == prev+1 {
			prev = code
			continue
		}
		flush()
		start, prev, current = code, code, w
	}
	flush()
	return arr
}

// toUnicodeCMap maps each used two-byte code to the same Unicode value.
func toUnicodeCMap(name string, codes []int) []byte {
	var buf bytes.Buffer
	buf.WriteString("/CIDInit /ProcSet findresource begin\n")
	buf.WriteString("12 dict begin\n")
	buf.WriteString("begincmap\n")
	buf.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n")
	fmt.Fprintf(&buf, "/CMapName /%s-UTF16 def\n", strings.ReplaceAll(name, " ", ""))
	buf.WriteString("/CMapType 2 def\n")
	buf.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")
	for i := 0; i < len(codes); {
		chunk := min(len(codes)-i, 100)
		fmt.Fprintf(&buf, "%d beginbfchar\n", chunk)
		for _, c := range codes[i : i+chunk] {
			fmt.Fprintf(&buf, "<%04X> <%04X>\n", c, c)
		}
		buf.WriteString("endbfchar\n")
		i += chunk
	}
	buf.WriteString("endcmap\n")
	buf.WriteString("CMapName currentdict /CMap defineresource pop\n")
	buf.WriteString("end\nend\n")
	return buf.Bytes()
}

// parseObjects reads the simple operand syntax images and fonts carry in
// strings: numbers and names, e.g. "128 /Euro" or "[1 0 1 0]".
func parseObjects(s string) []raw.Object {
	s = strings.NewReplacer("[", " ", "]", " ", "/", " /").Replace(s)
	var out []raw.Object
	for _, f := range strings.Fields(s) {
		if strings.HasPrefix(f, "/") {
			out = append(out, raw.NameLiteral(f[1:]))
			continue
		}
		if i, err := strconv.Atoi(f); err == nil {
			out = append(out, raw.Int(i))
		} else if v, err := strconv.ParseFloat(f, 64); err == nil {
			out = append(out, raw.NumberFloat(v))
		}
	}
	return out
}

// parseDict reads "/Key value" pairs into a dictionary.
func parseDict(s string) *raw.DictObj {
	d := raw.Dict()
	objs := parseObjects(s)
	for i := 0; i+1 < len(objs); i += 2 {
		if k, ok := objs[i].(raw.NameObj); ok {
			d.Set(k.Val, objs[i+1])
		}
	}
	return d
}
