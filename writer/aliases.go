package writer

import (
	"bytes"

	"github.com/wudi/pdfflow/unitext"
)

// Alias is a placeholder in page content and the text that replaces it.
type Alias struct {
	Marker string
	Value  string
}

// SubstituteAliases replaces every form of each marker in buf: the
// curly-braced form written with two-byte fonts as UTF-16BE and as plain
// bytes, then the bare marker, each also reversed as right-to-left
// reordering leaves it. Reversed markers get the reversed value.
func SubstituteAliases(buf []byte, aliases []Alias) []byte {
	for _, a := range aliases {
		curly := "{" + a.Marker + "}"
		forms := []struct{ old, new []byte }{
			{utf16(curly), utf16(a.Value)},
			{utf16(reverse(curly)), utf16(reverse(a.Value))},
			{[]byte(curly), []byte(a.Value)},
			{[]byte(reverse(curly)), []byte(reverse(a.Value))},
			{[]byte(a.Marker), []byte(a.Value)},
			{[]byte(reverse(a.Marker)), []byte(reverse(a.Value))},
		}
		for _, f := range forms {
			if bytes.Contains(buf, f.old) {
				buf = bytes.ReplaceAll(buf, f.old, f.new)
			}
		}
	}
	return buf
}

func utf16(s string) []byte { return unitext.EncodeUTF16BE([]rune(s), false) }

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
