package builder

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/wudi/pdfflow/images"
	"github.com/wudi/pdfflow/layout"
	"github.com/wudi/pdfflow/recovery"
)

// EncodeImage converts a Go image to PNG bytes the image registry accepts.
// Images with transparency keep their alpha channel, which becomes a soft
// mask when the document is written.
func EncodeImage(src image.Image) ([]byte, error) {
	b := src.Bounds()
	nrgba, ok := src.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, recovery.Wrap(recovery.InvalidFormat, "builder.EncodeImage", err)
	}
	return buf.Bytes(), nil
}

// ImageFromGo places an in-memory image registered under key.
func (p *PDF) ImageFromGo(key string, img image.Image, o layout.ImageOptions) *images.Info {
	if p.err != nil {
		return nil
	}
	data, err := EncodeImage(img)
	if err != nil {
		p.SetError(err)
		return nil
	}
	return p.ImageFromBytes(key, data, o)
}
