// Package unitext turns caller strings into code points ready for a PDF
// text operator: UTF-8 decoding, the Unicode bidirectional algorithm, Arabic
// contextual shaping and the byte encodings used by single-byte and CID fonts.
package unitext

import (
	"container/list"
	"unicode/utf8"
)

// DefaultCacheSize is the number of decoded strings a Decoder keeps.
const DefaultCacheSize = 8

// Decoder converts strings to code points and remembers the most recently
// decoded ones. It is owned by a single document and is not safe for
// concurrent use.
type Decoder struct {
	size    int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key string
	cps []rune
}

func NewDecoder(size int) *Decoder {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Decoder{size: size, order: list.New(), entries: make(map[string]*list.Element, size)}
}

// Codepoints decodes s as UTF-8. Each byte of a malformed sequence becomes
// U+FFFD; decoding resumes at the next byte. The returned slice is a copy.
func (d *Decoder) Codepoints(s string) []rune {
	if el, ok := d.entries[s]; ok {
		d.order.MoveToFront(el)
		return append([]rune(nil), el.Value.(*cacheEntry).cps...)
	}
	cps := decodeUTF8(s)
	d.entries[s] = d.order.PushFront(&cacheEntry{key: s, cps: cps})
	if d.order.Len() > d.size {
		last := d.order.Back()
		d.order.Remove(last)
		delete(d.entries, last.Value.(*cacheEntry).key)
	}
	return append([]rune(nil), cps...)
}

// Len reports how many strings are cached.
func (d *Decoder) Len() int { return d.order.Len() }

func decodeUTF8(s string) []rune {
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		out = append(out, r)
		i += size
	}
	return out
}

// Bytes maps every byte of s to the code point with the same value. It is
// the decoding used when a document is not in Unicode mode.
func Bytes(s string) []rune {
	out := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = rune(s[i])
	}
	return out
}
