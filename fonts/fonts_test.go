package fonts

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/pdfflow/recovery"
)

func TestCoreWidths(t *testing.T) {
	reg := NewRegistry(nil)
	f, err := reg.Add("Helvetica", "")
	if err != nil {
		t.Fatalf("add helvetica: %v", err)
	}
	var total float64
	for _, r := range "Hello" {
		total += f.Width(f.Code(r))
	}
	if total != 2278 {
		t.Fatalf("Hello width = %v, want 2278", total)
	}
	if got := f.Width(f.Code('é')); got != f.Width('e') {
		t.Fatalf("accented letter width %v, base %v", got, f.Width('e'))
	}
	if got := f.Width(f.Code(0x20AC)); got != 556 {
		t.Fatalf("euro width %v", got)
	}
	if f.Name != "Helvetica" || f.ResourceName() != "F1" {
		t.Fatalf("unexpected font %s %s", f.Name, f.ResourceName())
	}
}

func TestWidthFallbackChain(t *testing.T) {
	m := &Metrics{Type: Type1, Name: "Test", Widths: map[rune]int{'a': 400, ' ': 250}}
	reg := NewRegistry(CoreLoader{})
	f, err := reg.AddMetrics("test", "", m)
	if err != nil {
		t.Fatal(err)
	}
	if f.Width('a') != 400 {
		t.Fatalf("explicit width")
	}
	if f.Width('z') != 250 {
		t.Fatalf("missing glyph should fall back to space width, got %v", f.Width('z'))
	}
	f.DefaultWidth = 333
	if f.Width('z') != 333 {
		t.Fatalf("default width should win over space width")
	}
	g, _ := reg.AddMetrics("bare", "", &Metrics{Type: Type1, Name: "Bare", Widths: map[rune]int{}})
	if g.Width('z') != FallbackWidth {
		t.Fatalf("constant fallback, got %v", g.Width('z'))
	}
}

func TestRegistryOncePerKey(t *testing.T) {
	reg := NewRegistry(nil)
	a, err := reg.Add("arial", "bu")
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.Add("Arial", "B")
	if err != nil {
		t.Fatal(err)
	}
	if a != b || len(reg.Fonts()) != 1 {
		t.Fatalf("font registered twice: %d fonts", len(reg.Fonts()))
	}
	if a.Name != "Helvetica-Bold" || a.Key != "arialB" {
		t.Fatalf("alias resolution: name=%s key=%s", a.Name, a.Key)
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry(nil)
	if _, err := reg.Add("nosuchfamily", ""); !errors.Is(err, recovery.MissingResource) {
		t.Fatalf("expected MissingResource, got %v", err)
	}
	if _, err := reg.AddMetrics("broken", "", &Metrics{Name: "Broken", Widths: map[rune]int{}}); !errors.Is(err, recovery.InvalidFormat) {
		t.Fatalf("missing type: %v", err)
	}
	if _, err := reg.AddMetrics("broken", "", &Metrics{Type: Type1, Name: "Broken"}); !errors.Is(err, recovery.InvalidFormat) {
		t.Fatalf("missing widths: %v", err)
	}
}

func TestEncodingDifferencesShared(t *testing.T) {
	reg := NewRegistry(nil)
	diff := "128 /Euro"
	a, _ := reg.AddMetrics("one", "", &Metrics{Type: Type1, Name: "One", Widths: map[rune]int{}, Diff: diff})
	b, _ := reg.AddMetrics("two", "", &Metrics{Type: Type1, Name: "Two", Widths: map[rune]int{}, Diff: diff})
	if a.DiffIndex != 1 || b.DiffIndex != 1 || len(reg.Diffs()) != 1 {
		t.Fatalf("diffs not shared: %d %d %v", a.DiffIndex, b.DiffIndex, reg.Diffs())
	}
}

func TestGoFontUnicode(t *testing.T) {
	reg := NewRegistry(nil)
	f, err := reg.Add("go", "")
	if err != nil {
		t.Fatalf("add go font: %v", err)
	}
	if f.Type != TrueTypeUnicode || !f.Type.MultiByte() {
		t.Fatalf("type = %v", f.Type)
	}
	if f.Width('A') <= 0 || f.GID('A') == 0 || !f.HasGlyph('A') {
		t.Fatalf("glyph A not resolved: w=%v gid=%d", f.Width('A'), f.GID('A'))
	}
	if f.HasGlyph(0x0628) {
		t.Fatalf("Go fonts have no Arabic glyphs")
	}
	if f.Width(0x0628) != float64(f.DefaultWidth) {
		t.Fatalf("missing glyph should use default width")
	}
	got := f.Encode([]rune("A€"))
	if diff := cmp.Diff([]byte{0x00, 0x41, 0x20, 0xAC}, got); diff != "" {
		t.Fatalf("encode mismatch:\n%s", diff)
	}
	if !f.Used.Test('A') || !f.Used.Test(0x20AC) {
		t.Fatalf("used codes not tracked")
	}
	if len(f.File) == 0 || f.Ascent <= 0 || f.Descent >= 0 {
		t.Fatalf("metrics: file=%d ascent=%d descent=%d", len(f.File), f.Ascent, f.Descent)
	}
}

func TestTrueTypeLoaderFS(t *testing.T) {
	fsys := fstest.MapFS{"mysansb.ttf": {Data: goregular.TTF}}
	reg := NewRegistry(ChainLoader{CoreLoader{}, NewTrueTypeLoader(fsys, false)})
	f, err := reg.Add("mysans", "B")
	if err != nil {
		t.Fatalf("load from fs: %v", err)
	}
	if f.Type != TrueType || f.Width('A') <= 0 {
		t.Fatalf("single-byte truetype expected, got %v", f.Type)
	}
	if _, err := reg.Add("mysans", "I"); !errors.Is(err, recovery.MissingResource) {
		t.Fatalf("missing italic file: %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	reg := NewRegistry(nil)
	f, _ := reg.Add("helvetica", "")
	f.Encode([]rune("a"))
	c := reg.Clone()
	cf, _ := c.Get("helvetica")
	cf.Encode([]rune("z"))
	if f.Used.Test('z') {
		t.Fatalf("clone shares the used set")
	}
	if !cf.Used.Test('a') {
		t.Fatalf("clone lost used codes")
	}
}
