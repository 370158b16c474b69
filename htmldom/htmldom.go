// Package htmldom flattens HTML into the ordered list of open, close and
// text nodes the layout engine consumes. Inline style attributes and the
// legacy presentational attributes are resolved into one CSS property map
// per element.
package htmldom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/pdfflow/recovery"
)

// Node is one entry of the flattened tree.
type Node struct {
	// Tag is the lower-case element name; empty for text.
	Tag string
	// Opening is set on the open entry of an element; void elements such
	// as br have no close entry.
	Opening bool
	Text    string
	Attr    map[string]string
	// Style holds CSS properties from the style attribute and legacy
	// attributes (color, bgcolor, align, width, face, size).
	Style map[string]string
	// Parent is the index of the open entry of the enclosing element, -1
	// at the top level.
	Parent int
}

// IsVoid reports whether the element never has a close entry.
func IsVoid(tag string) bool {
	switch atom.Lookup([]byte(tag)) {
	case atom.Br, atom.Img, atom.Hr, atom.Input, atom.Meta, atom.Link, atom.Col, atom.Wbr:
		return true
	}
	return false
}

var skipped = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Title: true,
}

// Parse parses an HTML fragment or document.
func Parse(src string) ([]Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	roots, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return nil, recovery.Wrap(recovery.InvalidFormat, "htmldom.Parse", err)
	}
	var nodes []Node
	for _, n := range roots {
		nodes = walk(nodes, n, -1)
	}
	return nodes, nil
}

func walk(nodes []Node, n *html.Node, parent int) []Node {
	switch n.Type {
	case html.TextNode:
		if n.Data != "" {
			nodes = append(nodes, Node{Text: n.Data, Parent: parent})
		}
		return nodes
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			nodes = walk(nodes, c, parent)
		}
		return nodes
	case html.ElementNode:
	default:
		return nodes
	}
	if skipped[n.DataAtom] {
		return nodes
	}
	tag := strings.ToLower(n.Data)
	if n.DataAtom == atom.Html || n.DataAtom == atom.Body {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			nodes = walk(nodes, c, parent)
		}
		return nodes
	}
	attr := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attr[strings.ToLower(a.Key)] = a.Val
	}
	self := len(nodes)
	nodes = append(nodes, Node{Tag: tag, Opening: true, Attr: attr, Style: resolveStyle(tag, attr), Parent: parent})
	if IsVoid(tag) {
		return nodes
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = walk(nodes, c, self)
	}
	return append(nodes, Node{Tag: tag, Parent: parent})
}

// resolveStyle merges legacy attributes and the inline style; the style
// attribute wins.
func resolveStyle(tag string, attr map[string]string) map[string]string {
	st := map[string]string{}
	legacy := map[string]string{
		"color":   "color",
		"bgcolor": "background-color",
		"align":   "text-align",
		"width":   "width",
		"height":  "height",
		"face":    "font-family",
	}
	for a, prop := range legacy {
		if v, ok := attr[a]; ok {
			st[prop] = strings.TrimSpace(v)
		}
	}
	if v, ok := attr["size"]; ok && tag == "font" {
		st["font-size"] = legacyFontSize(v)
	}
	for k, v := range ParseStyle(attr["style"]) {
		st[k] = v
	}
	return st
}

// ParseStyle parses an inline CSS declaration list.
func ParseStyle(s string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important"))
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

// legacyFontSize maps the HTML font size attribute (1-7, or relative +n
// and -n from 3) to a CSS size.
func legacyFontSize(v string) string {
	v = strings.TrimSpace(v)
	base := 0
	switch {
	case strings.HasPrefix(v, "+"), strings.HasPrefix(v, "-"):
		base = 3
	}
	n := 0
	neg := strings.HasPrefix(v, "-")
	for _, c := range strings.TrimLeft(v, "+-") {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	n = min(max(base+n, 1), 7)
	return []string{"", "xx-small", "small", "medium", "large", "x-large", "xx-large", "xxx-large"}[n]
}
