package images

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/wudi/pdfflow/recovery"
)

// PNGDecoder copies the compressed IDAT stream of a PNG into the PDF with a
// PNG predictor, so pixels are never decoded. Images with an alpha channel
// report ErrNeedsAlpha; 16-bit and interlaced images report ErrUnsupported.
type PNGDecoder struct{}

func (PNGDecoder) Decode(data []byte) (*Info, error) {
	const op = "images.PNG"
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, recovery.Errorf(recovery.InvalidFormat, op, "not a PNG file")
	}
	info := &Info{Format: "png", Filter: "FlateDecode"}
	var (
		idat      bytes.Buffer
		colorType byte
		trns      []byte
		seenIHDR  bool
	)
	pos := len(pngMagic)
	for pos+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		pos += 8
		if n < 0 || pos+n+4 > len(data) {
			return nil, recovery.Errorf(recovery.InvalidFormat, op, "chunk %s truncated", typ)
		}
		body := data[pos : pos+n]
		pos += n + 4 // skip CRC
		switch typ {
		case "IHDR":
			if n != 13 {
				return nil, recovery.Errorf(recovery.InvalidFormat, op, "bad IHDR length %d", n)
			}
			info.Width = int(binary.BigEndian.Uint32(body))
			info.Height = int(binary.BigEndian.Uint32(body[4:]))
			info.BitsPerComponent = int(body[8])
			colorType = body[9]
			if body[10] != 0 || body[11] != 0 {
				return nil, recovery.Errorf(recovery.InvalidFormat, op, "unknown compression or filter method")
			}
			if info.BitsPerComponent > 8 || body[12] != 0 {
				return nil, ErrUnsupported
			}
			switch colorType {
			case 0:
				info.ColorSpace = "DeviceGray"
			case 2:
				info.ColorSpace = "DeviceRGB"
			case 3:
				info.ColorSpace = "Indexed"
			case 4, 6:
				return nil, ErrNeedsAlpha
			default:
				return nil, recovery.Errorf(recovery.InvalidFormat, op, "unknown color type %d", colorType)
			}
			seenIHDR = true
		case "PLTE":
			info.Palette = append([]byte(nil), body...)
		case "tRNS":
			trns = body
		case "IDAT":
			idat.Write(body)
		case "IEND":
			pos = len(data)
		}
	}
	if !seenIHDR {
		return nil, recovery.Errorf(recovery.InvalidFormat, op, "missing IHDR")
	}
	if colorType == 3 && len(info.Palette) == 0 {
		return nil, recovery.Errorf(recovery.InvalidFormat, op, "indexed image without palette")
	}
	if idat.Len() == 0 {
		return nil, recovery.Errorf(recovery.InvalidFormat, op, "no image data")
	}
	mask, err := colorKey(colorType, trns)
	if err != nil {
		return nil, err
	}
	info.Transparency = mask
	colors := 1
	if colorType == 2 {
		colors = 3
	}
	info.DecodeParms = fmt.Sprintf("/Predictor 15 /Colors %d /BitsPerComponent %d /Columns %d", colors, info.BitsPerComponent, info.Width)
	info.Data = idat.Bytes()
	return info, nil
}

// colorKey turns a tRNS chunk into a /Mask colour-key array. Partial
// transparency in a palette needs a soft mask instead.
func colorKey(colorType byte, trns []byte) ([]int, error) {
	if len(trns) == 0 {
		return nil, nil
	}
	switch colorType {
	case 0:
		if len(trns) < 2 {
			return nil, nil
		}
		g := int(trns[1])
		return []int{g, g}, nil
	case 2:
		if len(trns) < 6 {
			return nil, nil
		}
		r, g, b := int(trns[1]), int(trns[3]), int(trns[5])
		return []int{r, r, g, g, b, b}, nil
	}
	key := -1
	for i, a := range trns {
		switch a {
		case 255:
		case 0:
			if key < 0 {
				key = i
			} else {
				return nil, ErrNeedsAlpha
			}
		default:
			return nil, ErrNeedsAlpha
		}
	}
	if key < 0 {
		return nil, nil
	}
	return []int{key, key}, nil
}
