package writer

import (
	"strings"

	"github.com/wudi/pdfflow/images"
	"github.com/wudi/pdfflow/ir/raw"
	"github.com/wudi/pdfflow/recovery"
)

// putImages writes every registered image as an XObject. The palette and
// soft mask of an image are written before it.
func (s *session) putImages() error {
	for _, info := range s.doc.Images.Images() {
		n, err := s.putImage(info)
		if err != nil {
			return err
		}
		s.images[info.ResourceName()] = n
	}
	return nil
}

func (s *session) putImage(info *images.Info) (int, error) {
	if info.Width <= 0 || info.Height <= 0 || info.ColorSpace == "" {
		return 0, recovery.Errorf(recovery.InvalidFormat, "writer.putImages", "image %s: missing dimensions or colour space", info.Key)
	}
	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("XObject"))
	d.Set("Subtype", raw.NameLiteral("Image"))
	d.Set("Width", raw.Int(info.Width))
	d.Set("Height", raw.Int(info.Height))

	if info.ColorSpace == "Indexed" {
		if len(info.Palette) < 3 {
			return 0, recovery.Errorf(recovery.InvalidFormat, "writer.putImages", "image %s: indexed without palette", info.Key)
		}
		pal, err := s.stream(nil, info.Palette)
		if err != nil {
			return 0, err
		}
		d.Set("ColorSpace", raw.NewArray(
			raw.NameLiteral("Indexed"), raw.NameLiteral("DeviceRGB"),
			raw.Int(len(info.Palette)/3-1), raw.Ref(pal, 0)))
	} else {
		d.Set("ColorSpace", raw.NameLiteral(info.ColorSpace))
	}
	d.Set("BitsPerComponent", raw.Int(info.BitsPerComponent))
	if info.Decode != "" {
		d.Set("Decode", raw.NewArray(parseObjects(info.Decode)...))
	}
	if info.Filter != "" {
		d.Set("Filter", raw.NameLiteral(info.Filter))
	}
	if strings.TrimSpace(info.DecodeParms) != "" {
		d.Set("DecodeParms", parseDict(info.DecodeParms))
	}
	if len(info.Transparency) > 0 {
		mask := raw.NewArray()
		for _, v := range info.Transparency {
			mask.Add(raw.Int(v))
		}
		d.Set("Mask", mask)
	}
	if info.SMask != nil {
		sm, err := s.putImage(info.SMask)
		if err != nil {
			return 0, err
		}
		d.Set("SMask", raw.Ref(sm, 0))
	}
	data, err := s.doc.Images.Bytes(info)
	if err != nil {
		return 0, err
	}
	// image data carries its own filter
	return s.ow.PutStream(d, data), nil
}
