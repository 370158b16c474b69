package images

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wudi/pdfflow/filters"
	"github.com/wudi/pdfflow/recovery"
)

// FallbackDecoder decodes any format known to the image package (PNG, GIF,
// BMP, TIFF, WebP) and re-compresses the pixels with Flate. Alpha moves
// into a DeviceGray soft mask.
type FallbackDecoder struct {
	Level int
}

func (d FallbackDecoder) Decode(data []byte) (*Info, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, recovery.Wrap(recovery.UnsupportedFeature, "images.Decode", err)
	}
	return d.FromImage(src, format)
}

// FromImage converts src, splitting colour and alpha.
func (d FallbackDecoder) FromImage(src image.Image, format string) (*Info, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), src, bounds.Min, draw.Src)

	gray := isGray(src.ColorModel())
	comps := 3
	if gray {
		comps = 1
	}
	pixels := make([]byte, 0, w*h*comps)
	alpha := make([]byte, 0, w*h)
	hasAlpha := false
	for i := 0; i < w*h; i++ {
		px := nrgba.Pix[i*4 : i*4+4]
		if gray {
			pixels = append(pixels, px[0])
		} else {
			pixels = append(pixels, px[0], px[1], px[2])
		}
		alpha = append(alpha, px[3])
		if px[3] < 255 {
			hasAlpha = true
		}
	}

	flate := filters.NewFlate(d.level())
	encoded, err := flate.Encode(pixels)
	if err != nil {
		return nil, recovery.Wrap(recovery.IOFailure, "images.Decode", err)
	}
	info := &Info{
		Format:           format,
		Width:            w,
		Height:           h,
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
		Filter:           flate.Name(),
		Data:             encoded,
	}
	if gray {
		info.ColorSpace = "DeviceGray"
	}
	if hasAlpha {
		mask, err := flate.Encode(alpha)
		if err != nil {
			return nil, recovery.Wrap(recovery.IOFailure, "images.Decode", err)
		}
		info.SMask = &Info{
			Format:           format,
			Width:            w,
			Height:           h,
			ColorSpace:       "DeviceGray",
			BitsPerComponent: 8,
			Filter:           flate.Name(),
			Data:             mask,
		}
	}
	return info, nil
}

func (d FallbackDecoder) level() int {
	if d.Level == 0 {
		return -1
	}
	return d.Level
}

func isGray(m color.Model) bool {
	return m == color.GrayModel || m == color.Gray16Model
}
