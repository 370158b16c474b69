package images

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"

	"github.com/wudi/pdfflow/recovery"
)

// JPEGDecoder embeds baseline and progressive JPEG data unchanged with the
// DCTDecode filter.
type JPEGDecoder struct{}

func (JPEGDecoder) Decode(data []byte) (*Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, recovery.Wrap(recovery.InvalidFormat, "images.JPEG", err)
	}
	if format != "jpeg" {
		return nil, ErrUnsupported
	}
	info := &Info{
		Format:           "jpeg",
		Width:            cfg.Width,
		Height:           cfg.Height,
		BitsPerComponent: 8,
		Filter:           "DCTDecode",
		Data:             data,
	}
	switch cfg.ColorModel {
	case color.GrayModel:
		info.ColorSpace = "DeviceGray"
	case color.CMYKModel:
		// Adobe writes inverted CMYK
		info.ColorSpace = "DeviceCMYK"
		info.Decode = "[1 0 1 0 1 0 1 0]"
	default:
		info.ColorSpace = "DeviceRGB"
	}
	return info, nil
}
