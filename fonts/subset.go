package fonts

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/wudi/pdfflow/recovery"
)

// Subset returns the embedded program of a Unicode TrueType font with the
// outlines of unused glyphs removed. Glyph IDs are preserved, so the
// CIDToGIDMap computed from the full font stays valid.
func (f *Font) Subset() ([]byte, error) {
	if f.Type != TrueTypeUnicode || len(f.File) == 0 {
		return f.File, nil
	}
	keep := glyphSet{0: true}
	for i, ok := f.Used.NextSet(0); ok; i, ok = f.Used.NextSet(i + 1) {
		keep[f.GID(rune(i))] = true
	}
	return SubsetTrueType(f.File, keep)
}

// SubsetTrueType keeps the outlines of the glyphs in keep, of the
// components they reference and of the glyphs GSUB can substitute for
// them; other outlines are emptied and trailing glyphs dropped. Fonts
// without glyf outlines are returned unchanged.
func SubsetTrueType(data []byte, keep map[uint16]bool) ([]byte, error) {
	t, err := readSFNT(data)
	if err != nil {
		return nil, err
	}
	for _, tag := range []string{"head", "hhea", "maxp", "hmtx", "loca", "glyf"} {
		if t[tag] == nil {
			return data, nil
		}
	}
	head, hhea, maxp := t["head"], t["hhea"], t["maxp"]
	if len(head) < 54 || len(hhea) < 36 || len(maxp) < 6 {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.Subset", "truncated head, hhea or maxp table")
	}
	numGlyphs := int(binary.BigEndian.Uint16(maxp[4:]))
	longLoca := binary.BigEndian.Uint16(head[50:]) != 0
	loca, err := newLocations(t["loca"], numGlyphs, longLoca, len(t["glyf"]))
	if err != nil {
		return nil, err
	}

	glyphs := glyphSet{0: true}
	for g := range keep {
		if int(g) < numGlyphs {
			glyphs[g] = true
		}
	}
	if err := closeOverGSUB(data, glyphs); err != nil {
		return nil, err
	}
	addComponents(glyphs, t["glyf"], loca)

	last := 0
	for g := range glyphs {
		if int(g) < numGlyphs && int(g) > last {
			last = int(g)
		}
	}
	n := last + 1

	var glyf bytes.Buffer
	newLoca := make([]byte, 4*(n+1))
	for g := 0; g < n; g++ {
		binary.BigEndian.PutUint32(newLoca[4*g:], uint32(glyf.Len()))
		if glyphs[uint16(g)] {
			glyf.Write(t["glyf"][loca[g]:loca[g+1]])
			for glyf.Len()%4 != 0 {
				glyf.WriteByte(0)
			}
		}
	}
	binary.BigEndian.PutUint32(newLoca[4*n:], uint32(glyf.Len()))

	hmtx, err := fullMetrics(t["hmtx"], binary.BigEndian.Uint16(hhea[34:]), n)
	if err != nil {
		return nil, err
	}
	head = append([]byte(nil), head...)
	binary.BigEndian.PutUint16(head[50:], 1)
	binary.BigEndian.PutUint32(head[8:], 0)
	hhea = append([]byte(nil), hhea...)
	binary.BigEndian.PutUint16(hhea[34:], uint16(n))
	maxp = append([]byte(nil), maxp...)
	binary.BigEndian.PutUint16(maxp[4:], uint16(n))

	out := map[string][]byte{
		"head": head, "hhea": hhea, "maxp": maxp, "hmtx": hmtx,
		"loca": newLoca, "glyf": glyf.Bytes(),
	}
	for _, tag := range []string{"cmap", "name", "OS/2", "post", "cvt ", "fpgm", "prep", "gasp", "GSUB", "GPOS", "GDEF"} {
		if t[tag] != nil {
			out[tag] = t[tag]
		}
	}
	return writeSFNT(out), nil
}

// readSFNT returns the tables of a font file by tag.
func readSFNT(data []byte) (map[string][]byte, error) {
	if len(data) < 12 {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.Subset", "font header truncated")
	}
	n := int(binary.BigEndian.Uint16(data[4:]))
	t := make(map[string][]byte, n)
	for i := 0; i < n; i++ {
		rec := 12 + 16*i
		if rec+16 > len(data) {
			return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.Subset", "table directory truncated")
		}
		off := uint64(binary.BigEndian.Uint32(data[rec+8:]))
		size := uint64(binary.BigEndian.Uint32(data[rec+12:]))
		if off+size > uint64(len(data)) {
			return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.Subset", "table %q out of bounds", data[rec:rec+4])
		}
		t[string(data[rec:rec+4])] = data[off : off+size]
	}
	return t, nil
}

// newLocations decodes loca into numGlyphs+1 offsets into glyf.
func newLocations(loca []byte, numGlyphs int, long bool, glyfLen int) ([]uint32, error) {
	width := 2
	if long {
		width = 4
	}
	if len(loca) < width*(numGlyphs+1) {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.Subset", "loca table truncated")
	}
	out := make([]uint32, numGlyphs+1)
	for g := range out {
		if long {
			out[g] = binary.BigEndian.Uint32(loca[4*g:])
		} else {
			out[g] = uint32(binary.BigEndian.Uint16(loca[2*g:])) * 2
		}
		if out[g] > uint32(glyfLen) || (g > 0 && out[g] < out[g-1]) {
			return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.Subset", "invalid loca offset for glyph %d", g)
		}
	}
	return out, nil
}

// Composite glyph flags.
const (
	argsAreWords    = 0x0001
	haveScale       = 0x0008
	moreComponents  = 0x0020
	haveXYScale     = 0x0040
	haveTwoByTwo    = 0x0080
	compositeHeader = 10
)

// addComponents adds the glyphs composite glyphs in set are built from.
func addComponents(set glyphSet, glyf []byte, loca []uint32) {
	queue := set.list()
	for len(queue) > 0 {
		g := int(queue[0])
		queue = queue[1:]
		if g+1 >= len(loca) {
			continue
		}
		start, end := int(loca[g]), int(loca[g+1])
		if end-start < compositeHeader || int16(binary.BigEndian.Uint16(glyf[start:])) >= 0 {
			continue
		}
		for off := start + compositeHeader; off+4 <= end; {
			flags := binary.BigEndian.Uint16(glyf[off:])
			comp := binary.BigEndian.Uint16(glyf[off+2:])
			if set.add(comp) {
				queue = append(queue, comp)
			}
			off += 4
			if flags&argsAreWords != 0 {
				off += 4
			} else {
				off += 2
			}
			switch {
			case flags&haveScale != 0:
				off += 2
			case flags&haveXYScale != 0:
				off += 4
			case flags&haveTwoByTwo != 0:
				off += 8
			}
			if flags&moreComponents == 0 {
				break
			}
		}
	}
}

// fullMetrics rewrites hmtx with one long metric per glyph for n glyphs.
func fullMetrics(hmtx []byte, numLong uint16, n int) ([]byte, error) {
	long := int(numLong)
	if long == 0 || len(hmtx) < 4*long {
		return nil, recovery.Errorf(recovery.InvalidFormat, "fonts.Subset", "hmtx table truncated")
	}
	out := make([]byte, 4*n)
	lastAdvance := hmtx[4*(long-1) : 4*(long-1)+2]
	for g := 0; g < n; g++ {
		if g < long {
			copy(out[4*g:], hmtx[4*g:4*g+4])
			continue
		}
		copy(out[4*g:], lastAdvance)
		if lsb := 4*long + 2*(g-long); lsb+2 <= len(hmtx) {
			copy(out[4*g+2:], hmtx[lsb:lsb+2])
		}
	}
	return out, nil
}

func checksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var word [4]byte
		copy(word[:], b[i:])
		sum += binary.BigEndian.Uint32(word[:])
	}
	return sum
}

// writeSFNT assembles tables into a font file with sorted, padded tables
// and a correct head checksum adjustment.
func writeSFNT(tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	n := len(tags)
	sel := 0
	for 1<<(sel+1) <= n {
		sel++
	}
	var buf bytes.Buffer
	hdr := make([]byte, 12)
	binary.BigEndian.PutUint32(hdr[0:], 0x00010000)
	binary.BigEndian.PutUint16(hdr[4:], uint16(n))
	binary.BigEndian.PutUint16(hdr[6:], uint16(16<<sel))
	binary.BigEndian.PutUint16(hdr[8:], uint16(sel))
	binary.BigEndian.PutUint16(hdr[10:], uint16(16*n-16<<sel))
	buf.Write(hdr)

	off := 12 + 16*n
	headAt := -1
	for _, tag := range tags {
		data := tables[tag]
		rec := make([]byte, 16)
		copy(rec, tag)
		binary.BigEndian.PutUint32(rec[4:], checksum(data))
		binary.BigEndian.PutUint32(rec[8:], uint32(off))
		binary.BigEndian.PutUint32(rec[12:], uint32(len(data)))
		buf.Write(rec)
		if tag == "head" {
			headAt = off
		}
		off += (len(data) + 3) &^ 3
	}
	for _, tag := range tags {
		data := tables[tag]
		buf.Write(data)
		buf.Write(make([]byte, (4-len(data)%4)%4))
	}
	out := buf.Bytes()
	if headAt >= 0 {
		binary.BigEndian.PutUint32(out[headAt+8:], 0xB1B0AFBA-checksum(out))
	}
	return out
}
