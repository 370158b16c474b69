package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfflow/recovery"
)

func newDoc(t *testing.T, cfg Config) *Document {
	t.Helper()
	d, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Release() })
	return d
}

func content(t *testing.T, d *Document, n int) string {
	t.Helper()
	b, err := d.Content(n)
	require.NoError(t, err)
	return string(b)
}

func TestDefaultPageIsA4(t *testing.T) {
	d := newDoc(t, Config{})
	require.NoError(t, d.SetFont("helvetica", "", 12))
	require.NoError(t, d.AddPage("", ""))

	p := d.Page(1)
	require.Equal(t, 595.28, p.WPt)
	require.Equal(t, 841.89, p.HPt)
	require.Equal(t, Box{0, 0, 595.28, 841.89}, p.Boxes[MediaBox])
	require.InDelta(t, 210.0, d.W, 0.01)
	require.InDelta(t, 10.0, d.LMargin, 0.01)
	require.Equal(t, "0.567 w\nBT /F1 12 Tf ET\n", content(t, d, 1))
}

func TestLandscapeAndUnits(t *testing.T) {
	d := newDoc(t, Config{Unit: "in", Format: "letter", Orientation: "landscape"})
	require.NoError(t, d.AddPage("", ""))
	require.Equal(t, 792.0, d.Page(1).WPt)
	require.Equal(t, 11.0, d.W)

	_, err := New(Config{Unit: "furlong"})
	require.True(t, errors.Is(err, recovery.InvalidFormat))
}

func TestUnknownFormat(t *testing.T) {
	d := newDoc(t, Config{Format: "Z9"})
	require.NoError(t, d.AddPage("", ""))
	require.Equal(t, 595.28, d.Page(1).WPt)

	_, err := New(Config{Format: "Z9", Strategy: recovery.NewStrictStrategy()})
	require.Error(t, err)
}

func TestCheckPageBreak(t *testing.T) {
	d := newDoc(t, Config{})
	require.NoError(t, d.AddPage("", ""))
	require.False(t, d.CheckPageBreak(10, -1, true))
	require.Equal(t, 1, d.NumPages())

	require.True(t, d.CheckPageBreak(300, -1, true))
	require.Equal(t, 2, d.NumPages())
	require.Equal(t, d.TMargin, d.Y)
	require.False(t, d.CheckPageBreak(10, -1, true))
	require.Equal(t, 2, d.NumPages())

	d.SetAutoPageBreak(false, 0)
	require.False(t, d.CheckPageBreak(1000, -1, true))
}

func TestFooterInsertionKeepsMarks(t *testing.T) {
	d := newDoc(t, Config{})
	d.SetFooterFunc(func(d *Document) { _ = d.OutString("FOOT") })
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.OutString("A"))
	require.NoError(t, d.AddPage("", ""))

	require.NoError(t, d.SetPage(1))
	require.NoError(t, d.OutString("B"))
	require.Equal(t, "0.567 w\nA\nB\nFOOT\n", content(t, d, 1))

	p := d.Page(1)
	require.Equal(t, 8, p.ContentMark)
	require.Equal(t, 12, p.FooterPos)
	require.Equal(t, 5, p.FooterLen)

	require.NoError(t, d.InsertAtContentMark(1, []byte("BG")))
	require.Equal(t, "0.567 w\nBG\nA\nB\nFOOT\n", content(t, d, 1))
	require.Equal(t, 11, p.ContentMark)
	require.Equal(t, 15, p.FooterPos)
}

func TestSetPageOutOfRange(t *testing.T) {
	d := newDoc(t, Config{})
	require.NoError(t, d.AddPage("", ""))
	err := d.SetPage(5)
	require.True(t, errors.Is(err, recovery.InvalidFormat))
	require.Equal(t, err, d.Err())
	require.Equal(t, err, d.OutString("late"), "errors are sticky")
}

func TestAddPageMovesToExistingPage(t *testing.T) {
	d := newDoc(t, Config{})
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.SetPage(1))
	require.NoError(t, d.AddPage("", ""))
	require.Equal(t, 2, d.PageNo())
	require.Equal(t, 2, d.NumPages())
}

func TestRollbackRestoresEverything(t *testing.T) {
	d := newDoc(t, Config{})
	require.NoError(t, d.SetFont("helvetica", "", 12))
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.OutString("one"))
	before := content(t, d, 1)
	y := d.Y

	d.StartTransaction()
	require.True(t, d.InTransaction())
	require.NoError(t, d.OutString("two"))
	require.NoError(t, d.SetFont("times", "B", 14))
	d.Bookmark("gone", 0, -1, 0, "", nil)
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.AddPage("", ""))
	d.SetY(50)
	require.Equal(t, 3, d.NumPages())

	ok, err := d.RollbackTransaction()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, d.NumPages())
	require.Equal(t, before, content(t, d, 1))
	require.Equal(t, y, d.Y)
	require.Len(t, d.Fonts.Fonts(), 1)
	require.Empty(t, d.Outlines())
	require.Equal(t, "helvetica", d.CurrentFont.Family)
	f, _ := d.Fonts.Get("helvetica")
	require.Same(t, f, d.CurrentFont)

	ok, err = d.RollbackTransaction()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAtomicMovesBlockToNextPage(t *testing.T) {
	d := newDoc(t, Config{})
	require.NoError(t, d.AddPage("", ""))
	d.SetY(270)
	block := func() error {
		if err := d.OutString("block"); err != nil {
			return err
		}
		d.CheckPageBreak(20, -1, true)
		return d.OutString("end")
	}
	require.NoError(t, d.Atomic(block))
	require.Equal(t, 2, d.NumPages())
	require.NotContains(t, content(t, d, 1), "block")
	require.Contains(t, content(t, d, 2), "block\nend\n")
	require.False(t, d.InTransaction())
}

func TestBookletShiftsX(t *testing.T) {
	d := newDoc(t, Config{})
	d.SetBooklet(true, 20, 10)
	require.NoError(t, d.AddPage("", ""))
	require.Equal(t, 20.0, d.LMargin)
	d.SetY(280)
	d.SetX(30)
	require.True(t, d.CheckPageBreak(10, -1, true))
	require.Equal(t, 2, d.PageNo())
	require.Equal(t, 10.0, d.LMargin)
	require.Equal(t, 20.0, d.RMargin)
	require.InDelta(t, 20.0, d.X, 1e-9)
}

func TestTransformScopesMarksAndAnnotations(t *testing.T) {
	d := newDoc(t, Config{Unit: "pt"})
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.StartTransform())
	require.NoError(t, d.Translate(100, 0))
	require.NoError(t, d.InsertAtContentMark(1, []byte("X")))
	require.NoError(t, d.LinkURL(0, 0, 10, 10, "https://example.com"))
	require.NoError(t, d.StopTransform())

	require.Contains(t, content(t, d, 1), "q\nX\n1 0 0 1 100 0 cm\nQ\n")
	a := d.Page(1).Annotations[0]
	require.Equal(t, "Link", a.Subtype)
	require.InDelta(t, 100, a.Rect.LLX, 1e-9)
	require.InDelta(t, 110, a.Rect.URX, 1e-9)
	require.InDelta(t, 841.89-10, a.Rect.LLY, 1e-9)
	require.Empty(t, d.Page(1).TransformMarks)

	require.Error(t, d.StopTransform())
}

func TestPageGroups(t *testing.T) {
	d := newDoc(t, Config{})
	d.StartPageGroup(0)
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.AddPage("", ""))
	d.StartPageGroup(0)
	require.NoError(t, d.AddPage("", ""))
	require.Equal(t, 2, d.GroupSize(1))
	require.Equal(t, 1, d.GroupSize(2))
	require.Equal(t, 2, d.Page(3).Group)
	require.Equal(t, 1, d.Page(3).GroupPage)
	require.Equal(t, AliasGroupPageNumber, d.AliasGroupNumPage())
}

func TestCreditLine(t *testing.T) {
	d := newDoc(t, Config{Credit: "made with pdfflow"})
	d.SetFooterFunc(func(d *Document) { _ = d.OutString("FOOT") })
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.Close())
	c := content(t, d, 1)
	require.Contains(t, c, "/F1 5 Tf")
	require.Contains(t, c, "(made with pdfflow) Tj")
	require.True(t, strings.HasSuffix(c, "FOOT\n"))
	require.NoError(t, d.Close())
	require.Error(t, d.AddPage("", ""))
}

func TestNavigationValidation(t *testing.T) {
	d := newDoc(t, Config{})
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.SetDisplayMode("fullpage", 0, "continuous", "UseOutlines"))
	require.Equal(t, "OneColumn", d.Viewer.Layout)
	require.Equal(t, "UseOutlines", d.Viewer.Mode)
	require.NoError(t, d.SetDisplayMode("default", 0, "bogus", ""))
	require.Equal(t, "SinglePage", d.Viewer.Layout)

	link := d.AddLink()
	require.NoError(t, d.SetLink(link, 40, 1))
	require.Equal(t, LinkTarget{Page: 1, Y: 40}, d.Links()[0])
	require.NoError(t, d.SetPageBox(1, CropBox, 5, 5, 200, 280))
	require.NoError(t, d.SetPageRotation(-90))
	require.Equal(t, 270, d.Page(1).Rotation)
	require.NoError(t, d.AppendJavaScript("var x = 1;"))

	err := d.AppendJavaScript("function (")
	require.True(t, errors.Is(err, recovery.InvalidFormat))
}
