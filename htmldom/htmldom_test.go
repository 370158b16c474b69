package htmldom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type entry struct {
	Tag     string
	Opening bool
	Text    string
	Parent  int
}

func flatten(nodes []Node) []entry {
	out := make([]entry, len(nodes))
	for i, n := range nodes {
		out[i] = entry{n.Tag, n.Opening, n.Text, n.Parent}
	}
	return out
}

func TestParseOrder(t *testing.T) {
	nodes, err := Parse(`<p>Hello <b>bold</b><br>end</p>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []entry{
		{"p", true, "", -1},
		{"", false, "Hello ", 0},
		{"b", true, "", 0},
		{"", false, "bold", 2},
		{"b", false, "", 0},
		{"br", true, "", 0},
		{"", false, "end", 0},
		{"p", false, "", -1},
	}
	if diff := cmp.Diff(want, flatten(nodes)); diff != "" {
		t.Fatalf("node list mismatch (-want +got):\n%s", diff)
	}
}

func TestResolvedStyle(t *testing.T) {
	nodes, err := Parse(`<font color="red" size="+1"><span style="color: #00f; font-size: 14pt">x</span></font><table><tr><td bgcolor="#eee" width="50%">c</td></tr></table>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := nodes[0].Style; got["color"] != "red" || got["font-size"] != "large" {
		t.Fatalf("font style = %v", got)
	}
	if got := nodes[1].Style; got["color"] != "#00f" || got["font-size"] != "14pt" {
		t.Fatalf("span style = %v", got)
	}
	found := false
	for _, n := range nodes {
		if n.Tag == "td" && n.Opening {
			found = true
			if n.Style["background-color"] != "#eee" || n.Style["width"] != "50%" {
				t.Fatalf("td style = %v", n.Style)
			}
		}
	}
	if !found {
		t.Fatalf("no td in %+v", flatten(nodes))
	}
}

func TestSkipsScriptsAndHead(t *testing.T) {
	nodes, err := Parse(`<html><head><title>t</title></head><body><script>x()</script><p>a</p></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 3 || nodes[0].Tag != "p" {
		t.Fatalf("unexpected nodes %+v", flatten(nodes))
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string][3]int{
		"#fff":               {255, 255, 255},
		"#102030":            {16, 32, 48},
		"rgb(1, 2, 3)":       {1, 2, 3},
		"rgb(100%, 0%, 50%)": {255, 0, 127},
		"Navy":               {0, 0, 128},
	}
	for in, want := range cases {
		r, g, b, ok := ParseColor(in)
		if !ok || [3]int{r, g, b} != want {
			t.Fatalf("ParseColor(%q) = %d %d %d %v", in, r, g, b, ok)
		}
	}
	if _, _, _, ok := ParseColor("#12"); ok {
		t.Fatalf("short hex accepted")
	}
}

func TestLengths(t *testing.T) {
	if v, _ := FontSize("large", 10); v != 12 {
		t.Fatalf("large = %v", v)
	}
	if v, _ := Length("50%", 200, 12); v != 100 {
		t.Fatalf("percent = %v", v)
	}
	if v, _ := Length("2em", 0, 12); v != 24 {
		t.Fatalf("em = %v", v)
	}
	if v, _ := Length("40", 0, 12); v != 30 {
		t.Fatalf("bare number is pixels, got %v", v)
	}
}

func TestParseMarkdown(t *testing.T) {
	nodes, err := ParseMarkdown([]byte("# Title\n\nSome *text*.\n\n- one\n- two\n"))
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	var tags []string
	for _, n := range nodes {
		if n.Opening {
			tags = append(tags, n.Tag)
		}
	}
	want := []string{"h1", "p", "em", "ul", "li", "li"}
	if diff := cmp.Diff(want, tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
}
