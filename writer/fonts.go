package writer

import (
	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/ir/raw"
	"github.com/wudi/pdfflow/observability"
	"github.com/wudi/pdfflow/recovery"
)

var symbolic = map[string]bool{"Symbol": true, "ZapfDingbats": true}

// putFonts writes the shared encoding differences, then every font in
// registration order.
func (s *session) putFonts() error {
	reg := s.doc.Fonts
	diffs := make([]int, len(reg.Diffs()))
	for i, diff := range reg.Diffs() {
		d := raw.Dict()
		d.Set("Type", raw.NameLiteral("Encoding"))
		d.Set("BaseEncoding", raw.NameLiteral("WinAnsiEncoding"))
		d.Set("Differences", raw.NewArray(parseObjects(diff)...))
		diffs[i] = s.ow.Put(d)
	}
	for _, f := range reg.Fonts() {
		var (
			n   int
			err error
		)
		switch f.Type {
		case fonts.Core:
			n = s.putCoreFont(f, diffs)
		case fonts.Type1, fonts.TrueType:
			n, err = s.putSimpleFont(f, diffs)
		case fonts.TrueTypeUnicode:
			n, err = s.putUnicodeFont(f)
		case fonts.CIDFont0:
			n, err = s.putCIDFont0(f)
		default:
			err = recovery.Errorf(recovery.InvalidFormat, "writer.putFonts", "font %s: unsupported type %v", f.Key, f.Type)
		}
		if err != nil {
			return err
		}
		s.fonts[f.ResourceName()] = n
	}
	return nil
}

func encoding(f *fonts.Font, diffs []int) raw.Object {
	if f.DiffIndex > 0 && f.DiffIndex <= len(diffs) {
		return raw.Ref(diffs[f.DiffIndex-1], 0)
	}
	if symbolic[f.Name] {
		return nil
	}
	if f.Encoding == "" {
		return raw.NameLiteral("WinAnsiEncoding")
	}
	return raw.NameLiteral(f.Encoding)
}

func (s *session) putCoreFont(f *fonts.Font, diffs []int) int {
	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("Font"))
	d.Set("Subtype", raw.NameLiteral("Type1"))
	d.Set("BaseFont", raw.NameLiteral(f.Name))
	d.Set("Encoding", encoding(f, diffs))
	return s.ow.Put(d)
}

func (s *session) descriptor(f *fonts.Font, fileKey string, file int) *raw.DictObj {
	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("FontDescriptor"))
	d.Set("FontName", raw.NameLiteral(f.Name))
	d.Set("Flags", raw.Int(f.Flags))
	d.Set("FontBBox", raw.NewArray(raw.Int(f.BBox[0]), raw.Int(f.BBox[1]), raw.Int(f.BBox[2]), raw.Int(f.BBox[3])))
	d.Set("ItalicAngle", raw.NumberFloat(f.ItalicAngle))
	d.Set("Ascent", raw.Int(f.Ascent))
	d.Set("Descent", raw.Int(f.Descent))
	d.Set("CapHeight", raw.Int(f.CapHeight))
	d.Set("StemV", raw.Int(f.StemV))
	if f.XHeight != 0 {
		d.Set("XHeight", raw.Int(f.XHeight))
	}
	if f.DefaultWidth > 0 {
		d.Set("MissingWidth", raw.Int(f.DefaultWidth))
	}
	if file > 0 {
		d.Set(fileKey, raw.Ref(file, 0))
	}
	return d
}

// putFontFile embeds data as the font program of f.
func (s *session) putFontFile(f *fonts.Font, data []byte) (int, error) {
	d := raw.Dict()
	if f.Type == fonts.Type1 {
		if f.Size1 <= 0 || f.Size2 <= 0 {
			return 0, recovery.Errorf(recovery.InvalidFormat, "writer.putFonts", "font %s: missing Type1 segment lengths", f.Key)
		}
		d.Set("Length1", raw.Int(f.Size1))
		d.Set("Length2", raw.Int(f.Size2))
		d.Set("Length3", raw.Int(0))
	} else {
		d.Set("Length1", raw.Int(len(data)))
	}
	return s.stream(d, data)
}

// putSimpleFont writes a single-byte Type1 or TrueType font with widths
// for codes 32 to 255.
func (s *session) putSimpleFont(f *fonts.Font, diffs []int) (int, error) {
	file, fileKey := 0, "FontFile"
	if f.Type == fonts.TrueType {
		fileKey = "FontFile2"
	}
	if len(f.File) > 0 {
		var err error
		if file, err = s.putFontFile(f, f.File); err != nil {
			return 0, err
		}
	} else if f.Type == fonts.TrueType {
		return 0, recovery.Errorf(recovery.InvalidFormat, "writer.putFonts", "font %s: missing font file", f.Key)
	}
	desc := s.ow.Put(s.descriptor(f, fileKey, file))
	widths := s.ow.Put(encodeWidths(f.Width, 32, 255))

	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("Font"))
	d.Set("Subtype", raw.NameLiteral(f.Type.String()))
	d.Set("BaseFont", raw.NameLiteral(f.Name))
	d.Set("FirstChar", raw.Int(32))
	d.Set("LastChar", raw.Int(255))
	d.Set("Widths", raw.Ref(widths, 0))
	d.Set("FontDescriptor", raw.Ref(desc, 0))
	d.Set("Encoding", encoding(f, diffs))
	return s.ow.Put(d), nil
}

// usedCodes lists the codes written with f in ascending order.
func usedCodes(f *fonts.Font) []int {
	var codes []int
	for i, ok := f.Used.NextSet(0); ok; i, ok = f.Used.NextSet(i + 1) {
		codes = append(codes, int(i))
	}
	return codes
}

func (s *session) cidWidths(f *fonts.Font, codes []int) *raw.ArrayObj {
	widths := make(map[int]int, len(codes))
	for _, c := range codes {
		if w := int(f.Width(rune(c))); w != f.DefaultWidth {
			widths[c] = w
		}
	}
	return encodeCIDWidths(widths)
}

func cidSystemInfo(info fonts.CIDSystemInfo) *raw.DictObj {
	d := raw.Dict()
	d.Set("Registry", raw.Str([]byte(info.Registry)))
	d.Set("Ordering", raw.Str([]byte(info.Ordering)))
	d.Set("Supplement", raw.Int(info.Supplement))
	return d
}

// putUnicodeFont writes an embedded TrueType font addressed by Unicode
// values: a Type0 font over a CIDFontType2 descendant, its ToUnicode CMap
// and the CIDToGIDMap of every code used.
func (s *session) putUnicodeFont(f *fonts.Font) (int, error) {
	if len(f.File) == 0 {
		return 0, recovery.Errorf(recovery.InvalidFormat, "writer.putFonts", "font %s: missing font file", f.Key)
	}
	codes := usedCodes(f)
	program := f.File
	if s.cfg.SubsetFonts {
		sub, err := f.Subset()
		if err != nil {
			return 0, err
		}
		s.cfg.Logger.Debug("font subset",
			observability.String("font", f.Key),
			observability.Int("size", len(f.File)),
			observability.Int("subset", len(sub)))
		program = sub
	}
	file, err := s.putFontFile(f, program)
	if err != nil {
		return 0, err
	}
	desc := s.ow.Put(s.descriptor(f, "FontFile2", file))

	maxCode := 0
	if len(codes) > 0 {
		maxCode = codes[len(codes)-1]
	}
	gidMap := make([]byte, 2*(maxCode+1))
	for _, c := range codes {
		gid := f.GID(rune(c))
		gidMap[2*c], gidMap[2*c+1] = byte(gid>>8), byte(gid)
	}
	cidToGID, err := s.stream(nil, gidMap)
	if err != nil {
		return 0, err
	}
	toUnicode, err := s.stream(nil, toUnicodeCMap(f.Name, codes))
	if err != nil {
		return 0, err
	}

	cid := raw.Dict()
	cid.Set("Type", raw.NameLiteral("Font"))
	cid.Set("Subtype", raw.NameLiteral("CIDFontType2"))
	cid.Set("BaseFont", raw.NameLiteral(f.Name))
	cid.Set("CIDSystemInfo", cidSystemInfo(f.CIDInfo))
	cid.Set("FontDescriptor", raw.Ref(desc, 0))
	cid.Set("DW", raw.Int(f.DefaultWidth))
	cid.Set("W", s.cidWidths(f, codes))
	cid.Set("CIDToGIDMap", raw.Ref(cidToGID, 0))
	descendant := s.ow.Put(cid)

	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("Font"))
	d.Set("Subtype", raw.NameLiteral("Type0"))
	d.Set("BaseFont", raw.NameLiteral(f.Name))
	d.Set("Encoding", raw.NameLiteral("Identity-H"))
	d.Set("DescendantFonts", raw.NewArray(raw.Ref(descendant, 0)))
	d.Set("ToUnicode", raw.Ref(toUnicode, 0))
	return s.ow.Put(d), nil
}

// putCIDFont0 writes a non-embedded CID font over a predefined CMap.
func (s *session) putCIDFont0(f *fonts.Font) (int, error) {
	if f.Encoding == "" || f.CIDInfo.Registry == "" || f.CIDInfo.Ordering == "" {
		return 0, recovery.Errorf(recovery.InvalidFormat, "writer.putFonts", "font %s: missing CMap or character collection", f.Key)
	}
	desc := s.ow.Put(s.descriptor(f, "", 0))
	cid := raw.Dict()
	cid.Set("Type", raw.NameLiteral("Font"))
	cid.Set("Subtype", raw.NameLiteral("CIDFontType0"))
	cid.Set("BaseFont", raw.NameLiteral(f.Name))
	cid.Set("CIDSystemInfo", cidSystemInfo(f.CIDInfo))
	cid.Set("FontDescriptor", raw.Ref(desc, 0))
	cid.Set("DW", raw.Int(f.DefaultWidth))
	cid.Set("W", s.cidWidths(f, usedCodes(f)))
	descendant := s.ow.Put(cid)

	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("Font"))
	d.Set("Subtype", raw.NameLiteral("Type0"))
	d.Set("BaseFont", raw.NameLiteral(f.Name))
	d.Set("Encoding", raw.NameLiteral(f.Encoding))
	d.Set("DescendantFonts", raw.NewArray(raw.Ref(descendant, 0)))
	return s.ow.Put(d), nil
}
