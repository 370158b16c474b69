package writer

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfflow/document"
	"github.com/wudi/pdfflow/filters"
	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/xref"
)

func newDoc(t *testing.T, cfg document.Config) *document.Document {
	t.Helper()
	d, err := document.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Release() })
	return d
}

type recorder struct{ order []int }

func (r *recorder) AfterWrite(num int, n int64) error {
	r.order = append(r.order, num)
	return nil
}

func write(t *testing.T, d *document.Document, cfg Config, hooks ...Interceptor) []byte {
	t.Helper()
	cfg.Deterministic = true
	b := (&WriterBuilder{}).WithConfig(cfg)
	for _, h := range hooks {
		b.WithInterceptor(h)
	}
	var buf bytes.Buffer
	require.NoError(t, b.Build().Write(context.Background(), d, &buf))
	return buf.Bytes()
}

func helloDoc(t *testing.T) *document.Document {
	d := newDoc(t, document.Config{})
	require.NoError(t, d.SetFont("helvetica", "", 12))
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.OutString("BT 28.34646 813.54354 Td [(Hello)] TJ ET"))
	return d
}

func TestWriteA4Document(t *testing.T) {
	rec := &recorder{}
	out := write(t, helloDoc(t), Config{}, rec)

	require.True(t, bytes.HasPrefix(out, []byte("%PDF-1.7\n")))
	require.True(t, bytes.HasSuffix(out, []byte("%%EOF\n")))
	require.Contains(t, string(out), "3 0 obj\n<</Contents 4 0 R/MediaBox [0 0 595.28 841.89]/Parent 1 0 R/Resources 2 0 R/Type /Page>>\nendobj\n")
	require.Contains(t, string(out), "BT /F1 12 Tf ET\nBT 28.34646 813.54354 Td [(Hello)] TJ ET\n")
	require.Contains(t, string(out), "<</BaseFont /Helvetica/Encoding /WinAnsiEncoding/Subtype /Type1/Type /Font>>")
	require.Contains(t, string(out), "/Font <</F1 5 0 R>>")
	require.Contains(t, string(out), "1 0 obj\n<</Count 1/Kids [3 0 R]/Type /Pages>>")
	require.Contains(t, string(out), "/CreationDate (D:19700101000000+00'00')")
	require.Regexp(t, `/ID \[<[0-9A-F]{32}> <[0-9A-F]{32}>\]`, string(out))

	// sequential objects are numbered from 3 in write order
	var seq []int
	for _, n := range rec.order {
		if n >= 3 {
			seq = append(seq, n)
		}
	}
	for i, n := range seq {
		require.Equal(t, 3+i, n, "write order %v", rec.order)
	}
	require.Contains(t, rec.order, 1)
	require.Contains(t, rec.order, 2)
}

func TestXRefOffsetsMatchObjects(t *testing.T) {
	d := helloDoc(t)
	require.NoError(t, d.LinkURL(10, 10, 20, 5, "https://example.com"))
	require.NoError(t, d.AddPage("", ""))
	require.NoError(t, d.LinkURL(10, 10, 20, 5, "https://example.org"))
	out := write(t, d, Config{})

	parsed, err := xref.Parse(out)
	require.NoError(t, err)
	scanned, err := xref.Scan(out)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(scanned.Objects(), parsed.Objects()))
	for _, n := range parsed.Objects() {
		a, _ := parsed.Lookup(n)
		b, _ := scanned.Lookup(n)
		require.Equal(t, b, a, "object %d", n)
	}
	objs := parsed.Objects()
	require.Equal(t, []int{200000, 200001}, objs[len(objs)-2:])
	require.Contains(t, string(out), "200000 2\n")
	require.Contains(t, string(out), "/Annots [200000 0 R]")
	require.Contains(t, string(out), "/URI (https://example.org)")
	require.Contains(t, string(out), "/Size 200002")
}

func TestPageAliasesReplaced(t *testing.T) {
	d := newDoc(t, document.Config{})
	require.NoError(t, d.SetFont("helvetica", "", 12))
	for i := 0; i < 2; i++ {
		require.NoError(t, d.AddPage("", ""))
		require.NoError(t, d.OutString("BT ("+d.AliasNumPage()+"/"+d.AliasNbPages()+") Tj ET"))
	}
	out := string(write(t, d, Config{}))
	require.Contains(t, out, "BT (1/2) Tj ET")
	require.Contains(t, out, "BT (2/2) Tj ET")
	require.NotContains(t, out, document.AliasTotalPages)
}

func TestFlateContent(t *testing.T) {
	out := write(t, helloDoc(t), Config{ContentFilter: FilterFlate})
	re := regexp.MustCompile(`(?s)4 0 obj\n<</Filter /FlateDecode/Length (\d+)>> stream\n`)
	m := re.FindSubmatchIndex(out)
	require.NotNil(t, m, "compressed content stream not found")
	n, err := strconv.Atoi(string(out[m[2]:m[3]]))
	require.NoError(t, err)
	data := out[m[1] : m[1]+n]
	plain, err := filters.NewRegistry().Decode(context.Background(), data, []string{"FlateDecode"})
	require.NoError(t, err)
	require.Contains(t, string(plain), "[(Hello)] TJ")
}

func TestOutlinesAndJavaScript(t *testing.T) {
	d := helloDoc(t)
	d.Bookmark("Chapter", 0, 0, 0, "B", nil)
	d.Bookmark("Section", 1, 20, 0, "", []float64{1, 0, 0})
	require.NoError(t, d.AppendJavaScript("var x = 1;"))
	d.Info.Title = "Über"
	out := string(write(t, d, Config{}))

	require.Contains(t, out, "/PageMode /UseOutlines")
	require.Regexp(t, `/Outlines \d+ 0 R`, out)
	require.Contains(t, out, "/Type /Outlines")
	require.Contains(t, out, "/F 2")
	require.Contains(t, out, "/C [1 0 0]")
	require.Contains(t, out, "/Names <</JavaScript")
	require.Contains(t, out, "/JS (var x = 1;\n)")
	require.Contains(t, out, "/Title (\xfe\xff\x00\xdc\x00b\x00e\x00r)")
}

func TestUnicodeFontObjects(t *testing.T) {
	d := newDoc(t, document.Config{Unicode: true})
	require.NoError(t, d.SetFont("go", "", 12))
	require.NoError(t, d.AddPage("", ""))
	f := d.CurrentFont
	f.Encode([]rune("Ab"))
	out := string(write(t, d, Config{}))
	require.Contains(t, out, "/Subtype /Type0")
	require.Contains(t, out, "/Encoding /Identity-H")
	require.Contains(t, out, "/Subtype /CIDFontType2")
	require.Contains(t, out, "/CIDToGIDMap")
	require.Contains(t, out, "<0041> <0041>\n<0062> <0062>\n")
}

func TestMissingFontFileIsFatal(t *testing.T) {
	d := newDoc(t, document.Config{})
	require.NoError(t, d.AddFontMetrics("broken", "", &fonts.Metrics{Type: fonts.TrueTypeUnicode, Name: "Broken", Widths: map[rune]int{}}))
	require.NoError(t, d.AddPage("", ""))
	var buf bytes.Buffer
	err := New(Config{}).Write(context.Background(), d, &buf)
	require.True(t, errors.Is(err, recovery.InvalidFormat), "got %v", err)
}

func TestFailedDocumentWritesNothing(t *testing.T) {
	d := newDoc(t, document.Config{})
	require.NoError(t, d.AddPage("", ""))
	_ = d.Fail(recovery.Errorf(recovery.IOFailure, "test", "boom"))
	var buf bytes.Buffer
	require.Error(t, New(Config{}).Write(context.Background(), d, &buf))
	require.Zero(t, buf.Len())
}

func TestSubstituteAliases(t *testing.T) {
	aliases := []Alias{{Marker: "{:ptp:}", Value: "12"}}
	cases := map[string]struct{ in, want []byte }{
		"plain":    {[]byte("(p {:ptp:})"), []byte("(p 12)")},
		"reversed": {[]byte("(}:ptp:{ p)"), []byte("(21 p)")},
		"curly":    {[]byte("({{:ptp:}})"), []byte("(12)")},
		"utf16":    {append(append([]byte("("), utf16("{{:ptp:}}")...), ')'), append(append([]byte("("), 0, '1', 0, '2'), ')')},
		"utf16rev": {utf16("}}:ptp:{{"), []byte{0, '2', 0, '1'}},
	}
	for name, c := range cases {
		got := SubstituteAliases(c.in, aliases)
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", name, diff)
		}
	}
}

func TestLinkOutlines(t *testing.T) {
	nodes := sortedOutlines([]document.Outline{
		{Title: "b", Level: 0, Page: 2},
		{Title: "a", Level: 0, Page: 1},
		{Title: "a1", Level: 3, Page: 1},
		{Title: "a2", Level: 1, Page: 1},
	})
	linkOutlines(nodes)
	var titles []string
	for _, n := range nodes {
		titles = append(titles, n.Title)
	}
	require.Equal(t, []string{"a", "a1", "a2", "b"}, titles)
	require.Equal(t, 1, nodes[1].Level)
	require.Equal(t, 4, nodes[0].parent)
	require.Equal(t, 0, nodes[1].parent)
	require.Equal(t, 1, nodes[0].first)
	require.Equal(t, 2, nodes[0].last)
	require.Equal(t, 2, nodes[1].next)
	require.Equal(t, 3, nodes[0].next)
	require.Equal(t, 2, nodes[0].count)
}

func TestPDFDate(t *testing.T) {
	zone := time.FixedZone("X", -(5*3600 + 30*60))
	got := pdfDate(time.Date(2024, 3, 7, 9, 5, 1, 0, zone))
	require.Equal(t, "D:20240307090501-05'30'", got)
}

func TestType1FontEmbedded(t *testing.T) {
	d := newDoc(t, document.Config{})
	m := &fonts.Metrics{
		Type: fonts.Type1, Name: "Test-Roman", Widths: map[rune]int{32: 250, 65: 667},
		Ascent: 750, Descent: -210, CapHeight: 700, Flags: 32, StemV: 70,
		File: []byte("clearbinary"), Size1: 5, Size2: 6,
	}
	require.NoError(t, d.AddFontMetrics("test", "", m))
	require.NoError(t, d.SetFont("test", "", 10))
	require.NoError(t, d.AddPage("", ""))
	out := string(write(t, d, Config{}))
	require.Contains(t, out, "<</Length 11/Length1 5/Length2 6/Length3 0>> stream\nclearbinary\nendstream")
	require.Contains(t, out, "/FontFile 5 0 R")
	require.Contains(t, out, "/Subtype /Type1")
	require.Contains(t, out, "/FirstChar 32/FontDescriptor 6 0 R/LastChar 255/Subtype /Type1/Type /Font/Widths 7 0 R")
}

func TestSubsetFontsShrinksProgram(t *testing.T) {
	length1 := regexp.MustCompile(`/Length1 (\d+)`)
	size := func(subset bool) int {
		d := newDoc(t, document.Config{Unicode: true})
		require.NoError(t, d.SetFont("go", "", 12))
		require.NoError(t, d.AddPage("", ""))
		d.CurrentFont.Encode([]rune("Ab"))
		m := length1.FindSubmatch(write(t, d, Config{SubsetFonts: subset}))
		require.NotNil(t, m)
		n, err := strconv.Atoi(string(m[1]))
		require.NoError(t, err)
		return n
	}
	full, sub := size(false), size(true)
	require.Less(t, sub, full)
}

func TestPageNumberDigitsMappedInUnicodeFont(t *testing.T) {
	d := newDoc(t, document.Config{Unicode: true})
	require.NoError(t, d.SetFont("go", "", 12))
	require.NoError(t, d.AddPage("", ""))
	f := d.CurrentFont
	alias := d.AliasNumPage()
	require.True(t, f.Used.Test('7'))
	require.NotZero(t, f.GID('7'))
	f.Encode([]rune("Page " + alias))
	out := string(write(t, d, Config{SubsetFonts: true}))
	require.Contains(t, out, "<0031> <0031>\n")
	require.Contains(t, out, "<0039> <0039>\n")
}
