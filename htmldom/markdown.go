package htmldom

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wudi/pdfflow/recovery"
)

// ParseMarkdown converts Markdown (with GitHub tables and strike-through)
// to HTML and parses the result.
func ParseMarkdown(src []byte) ([]Node, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, recovery.Wrap(recovery.InvalidFormat, "htmldom.ParseMarkdown", err)
	}
	return Parse(buf.String())
}
