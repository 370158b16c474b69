package builder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfflow/layout"
	"github.com/wudi/pdfflow/recovery"
)

func newPDF(t *testing.T, opts ...Option) *PDF {
	t.Helper()
	p, err := New(append([]Option{WithDeterministic()}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Document().Release() })
	return p
}

func hello(t *testing.T, opts ...Option) []byte {
	t.Helper()
	p := newPDF(t, opts...)
	p.SetFont("helvetica", "", 12)
	p.AddPage()
	p.Text(10, 10, "Hello")
	out, err := p.Bytes()
	require.NoError(t, err)
	return out
}

func TestBytesA4Scenario(t *testing.T) {
	out := string(hello(t))
	require.Contains(t, out, "/MediaBox [0 0 595.28 841.89]")
	require.Contains(t, out, "BT /F1 12 Tf ET\n")
	require.Contains(t, out, "BT 28.34646 813.54354 Td [(Hello)] TJ ET\n")
	require.Contains(t, out, "/Producer (pdfflow)")
}

func TestDeterministicOutput(t *testing.T) {
	if !bytes.Equal(hello(t), hello(t)) {
		t.Fatalf("deterministic builds differ")
	}
}

func TestStickyError(t *testing.T) {
	p := newPDF(t)
	p.AddPage()
	p.SetFont("no-such-family", "", 12)
	first := p.Err()
	require.Error(t, first)
	require.Equal(t, recovery.MissingResource, recovery.KindOf(first))

	p.Cell(20, 10, "ignored")
	p.SetFont("helvetica", "", 12)
	require.Equal(t, first, p.Err())
	require.False(t, p.Ok())

	var buf bytes.Buffer
	require.ErrorIs(t, p.Output(&buf), first)
	require.Zero(t, buf.Len())
}

func TestOutputTwice(t *testing.T) {
	p := newPDF(t)
	p.AddPage()
	require.NoError(t, p.Output(&bytes.Buffer{}))
	err := p.Output(&bytes.Buffer{})
	require.True(t, errors.Is(err, recovery.InvalidFormat), "got %v", err)
}

func TestFooterPageNumbers(t *testing.T) {
	p := newPDF(t)
	p.SetFont("helvetica", "", 10)
	p.SetFooterFunc(func(p *PDF) {
		p.SetY(-15)
		p.CellFormat(layout.CellOptions{H: 10, Text: p.AliasNumPage() + "/" + p.AliasNbPages(), Align: "C"})
	})
	p.AddPage()
	p.AddPage()
	out, err := p.Bytes()
	require.NoError(t, err)
	require.Contains(t, string(out), "(1/2)")
	require.Contains(t, string(out), "(2/2)")
}

func TestCompression(t *testing.T) {
	out := string(hello(t, WithCompression(9)))
	require.Contains(t, out, "/Filter /FlateDecode")
	require.NotContains(t, out, "[(Hello)] TJ")
}

func TestImageFromGo(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: uint8(60 * y)})
		}
	}
	p := newPDF(t)
	p.AddPage()
	info := p.ImageFromGo("dot", img, layout.ImageOptions{W: 20})
	require.NoError(t, p.Err())
	require.NotNil(t, info)
	require.Equal(t, 4, info.Width)
	require.NotNil(t, info.SMask)
	out, err := p.Bytes()
	require.NoError(t, err)
	require.Contains(t, string(out), "/SMask")
	require.Contains(t, string(out), "/XObject <</I1")
}

func TestMarkdownAndOutline(t *testing.T) {
	p := newPDF(t)
	p.SetFont("helvetica", "", 12)
	p.AddPage()
	p.Bookmark("Intro", 0)
	p.WriteMarkdown([]byte("# Title\n\nSome *text*\n"))
	p.SetTitle("Notes")
	out, err := p.Bytes()
	require.NoError(t, err)
	require.Contains(t, string(out), "[(Title)]")
	require.Contains(t, string(out), "/Title (Intro)")
	require.Contains(t, string(out), "/Title (Notes)")
	require.Contains(t, string(out), "/PageMode /UseOutlines")
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	p := newPDF(t, WithDiskCache(t.TempDir()))
	p.SetFont("helvetica", "", 12)
	p.AddPage()
	p.Cell(40, 10, "cached")
	require.NoError(t, p.OutputFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-1.7\n")))
	require.True(t, bytes.HasSuffix(data, []byte("%%EOF\n")))
}

func TestOutputFileRemovesPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	p := newPDF(t)
	p.SetError(recovery.Errorf(recovery.IOFailure, "test", "boom"))
	require.Error(t, p.OutputFile(path))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
