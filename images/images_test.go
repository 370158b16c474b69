package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfflow/buffer"
	"github.com/wudi/pdfflow/filters"
	"github.com/wudi/pdfflow/recovery"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func opaqueRGB(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	return img
}

func TestPNGPassthrough(t *testing.T) {
	data := encodePNG(t, opaqueRGB(4, 3))
	info, err := PNGDecoder{}.Decode(data)
	require.NoError(t, err)
	require.Equal(t, 4, info.Width)
	require.Equal(t, 3, info.Height)
	require.Equal(t, "DeviceRGB", info.ColorSpace)
	require.Equal(t, "/Predictor 15 /Colors 3 /BitsPerComponent 8 /Columns 4", info.DecodeParms)

	raw, err := filters.Flate{}.Decode(context.Background(), info.Data)
	require.NoError(t, err)
	require.Len(t, raw, 3*(1+3*4), "one filter byte per row plus RGB samples")
}

func TestPNGAlphaNeedsFallback(t *testing.T) {
	img := opaqueRGB(2, 2)
	img.SetNRGBA(0, 0, color.NRGBA{A: 128})
	data := encodePNG(t, img)

	_, err := PNGDecoder{}.Decode(data)
	require.ErrorIs(t, err, ErrNeedsAlpha)

	reg := NewRegistry(nil, Options{})
	info, err := reg.LoadBytes("alpha.png", data)
	require.NoError(t, err)
	require.NotNil(t, info.SMask)
	require.Equal(t, "DeviceGray", info.SMask.ColorSpace)
	mask, err := filters.Flate{}.Decode(context.Background(), info.SMask.Data)
	require.NoError(t, err)
	require.Equal(t, []byte{128, 255, 255, 255}, mask)
}

func TestPNGPaletteColorKey(t *testing.T) {
	pal := color.Palette{color.NRGBA{R: 255, A: 255}, color.NRGBA{A: 0}}
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
	img.SetColorIndex(1, 0, 1)
	info, err := PNGDecoder{}.Decode(encodePNG(t, img))
	require.NoError(t, err)
	require.Equal(t, "Indexed", info.ColorSpace)
	require.Equal(t, []int{1, 1}, info.Transparency)
	require.Equal(t, []byte{255, 0, 0, 0, 0, 0}, info.Palette)
}

func TestPNG16BitFallsBack(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	data := encodePNG(t, img)
	_, err := PNGDecoder{}.Decode(data)
	require.ErrorIs(t, err, ErrUnsupported)

	info, err := NewRegistry(nil, Options{}).LoadBytes("g16", data)
	require.NoError(t, err)
	require.Equal(t, "DeviceGray", info.ColorSpace)
	require.Nil(t, info.SMask)
}

func TestJPEGPassthrough(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 5, 7)), nil))
	info, err := JPEGDecoder{}.Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "DeviceGray", info.ColorSpace)
	require.Equal(t, "DCTDecode", info.Filter)
	require.Equal(t, 5, info.Width)
	require.Equal(t, buf.Bytes(), info.Data)

	buf.Reset()
	require.NoError(t, jpeg.Encode(&buf, opaqueRGB(2, 2), nil))
	info, err = JPEGDecoder{}.Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "DeviceRGB", info.ColorSpace)
}

func TestGIFThroughFallback(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewPaletted(image.Rect(0, 0, 3, 3), color.Palette{color.Black, color.White})
	require.NoError(t, gif.Encode(&buf, img, nil))
	require.Equal(t, "", Sniff(buf.Bytes()))
	info, err := NewRegistry(nil, Options{}).LoadBytes("x.gif", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "gif", info.Format)
	require.Equal(t, "FlateDecode", info.Filter)
}

func TestRegistryLoad(t *testing.T) {
	data := encodePNG(t, opaqueRGB(2, 2))
	fsys := fstest.MapFS{
		"logo.png":       {Data: data},
		"my%20photo.png": {Data: data},
	}
	store := buffer.NewStore(nil)
	reg := NewRegistry(store, Options{FS: fsys})

	a, err := reg.Load("logo.png")
	require.NoError(t, err)
	b, err := reg.Load("logo.png")
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 1, a.Index)
	require.Nil(t, a.Data, "data lives in the store")
	stored, err := reg.Bytes(a)
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	c, err := reg.Load("my photo.png")
	require.NoError(t, err)
	require.Equal(t, 2, c.Index)

	_, err = reg.Load("missing.png")
	require.True(t, errors.Is(err, recovery.MissingResource))

	strict := NewRegistry(nil, Options{FS: fsys, Strategy: recovery.NewStrictStrategy()})
	_, err = strict.Load("my photo.png")
	require.ErrorIs(t, err, recovery.MissingResource)
}

func TestRegistryCloneIsolated(t *testing.T) {
	reg := NewRegistry(nil, Options{})
	_, err := reg.LoadBytes("a", encodePNG(t, opaqueRGB(1, 1)))
	require.NoError(t, err)
	c := reg.Clone()
	_, err = c.LoadBytes("b", encodePNG(t, opaqueRGB(1, 1)))
	require.NoError(t, err)
	require.Len(t, reg.Images(), 1)
	require.Len(t, c.Images(), 2)
}
