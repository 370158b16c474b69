package fonts

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/wudi/pdfflow/recovery"
)

// ParseType1 builds embeddable single-byte metrics from a PFB font program
// and its AFM metrics file. Character widths are taken from the AFM
// character codes; the program is embedded as its clear-text and binary
// segments.
func ParseType1(name string, pfb, afm []byte) (*Metrics, error) {
	clear, binarySeg, err := splitPFB(pfb)
	if err != nil {
		return nil, recovery.Wrap(recovery.InvalidFormat, "fonts.ParseType1", err)
	}
	m, err := parseAFM(afm)
	if err != nil {
		return nil, err
	}
	m.Type = Type1
	if m.Name == "" {
		m.Name = programName(clear)
	}
	if m.Name == "" {
		m.Name = name
	}
	m.File = append(append(make([]byte, 0, len(clear)+len(binarySeg)), clear...), binarySeg...)
	m.Size1, m.Size2 = len(clear), len(binarySeg)
	return m, nil
}

// splitPFB returns the first clear-text and binary segments of a PFB file.
func splitPFB(data []byte) (clear, binarySeg []byte, err error) {
	r := bytes.NewReader(data)
	if clear, err = pfbSegment(r, 1); err != nil {
		return nil, nil, err
	}
	if binarySeg, err = pfbSegment(r, 2); err != nil {
		return nil, nil, err
	}
	return clear, binarySeg, nil
}

func pfbSegment(r *bytes.Reader, kind byte) ([]byte, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	if head[0] != 0x80 {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.ParseType1", "invalid pfb header byte %#x", head[0])
	}
	if head[1] != kind {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.ParseType1", "expected pfb segment type %d, got %d", kind, head[1])
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if int64(n) > int64(r.Len()) {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.ParseType1", "pfb segment length %d exceeds data", n)
	}
	seg := make([]byte, n)
	if _, err := io.ReadFull(r, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

// programName reads /FontName from the clear-text segment.
func programName(clear []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(clear))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "/FontName") {
			if parts := strings.Fields(line); len(parts) >= 2 {
				return strings.TrimPrefix(parts[1], "/")
			}
		}
	}
	return ""
}

// parseAFM reads the global metrics and the widths of encoded characters.
func parseAFM(afm []byte) (*Metrics, error) {
	m := &Metrics{Widths: map[rune]int{}, Flags: 32}
	sc := bufio.NewScanner(bytes.NewReader(afm))
	num := func(s string) int {
		f, _ := strconv.ParseFloat(s, 64)
		return int(f)
	}
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "FontName":
			m.Name = fields[1]
		case "ItalicAngle":
			m.ItalicAngle, _ = strconv.ParseFloat(fields[1], 64)
		case "Ascender":
			m.Ascent = num(fields[1])
		case "Descender":
			m.Descent = num(fields[1])
		case "CapHeight":
			m.CapHeight = num(fields[1])
		case "XHeight":
			m.XHeight = num(fields[1])
		case "StdVW":
			m.StemV = num(fields[1])
		case "UnderlinePosition":
			m.UnderlinePosition = num(fields[1])
		case "UnderlineThickness":
			m.UnderlineThickness = num(fields[1])
		case "IsFixedPitch":
			if fields[1] == "true" {
				m.Flags |= 1
			}
		case "FontBBox":
			if len(fields) >= 5 {
				for i := range m.BBox {
					m.BBox[i] = num(fields[i+1])
				}
			}
		case "C":
			code, width := -1, -1
			for i := 0; i+1 < len(fields); i++ {
				switch fields[i] {
				case "C":
					code = num(fields[i+1])
				case "WX":
					width = num(fields[i+1])
				}
			}
			if code >= 0 && code <= 255 && width >= 0 {
				m.Widths[rune(code)] = width
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, recovery.Wrap(recovery.InvalidFormat, "fonts.ParseType1", err)
	}
	if len(m.Widths) == 0 {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.ParseType1", "afm has no character metrics")
	}
	if m.Ascent == 0 {
		m.Ascent = m.BBox[3]
	}
	if m.Descent == 0 {
		m.Descent = m.BBox[1]
	}
	if m.CapHeight == 0 {
		m.CapHeight = m.Ascent
	}
	if m.ItalicAngle != 0 {
		m.Flags |= 64
	}
	if m.StemV == 0 {
		m.StemV = 70
	}
	return m, nil
}
