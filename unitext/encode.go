package unitext

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// EncodeUTF16BE encodes cps as UTF-16BE, using surrogate pairs above the
// BMP. Invalid code points become U+FFFD. With bom set the output starts
// with FE FF.
func EncodeUTF16BE(cps []rune, bom bool) []byte {
	policy := unicode.IgnoreBOM
	if bom {
		policy = unicode.UseBOM
	}
	out, err := unicode.UTF16(unicode.BigEndian, policy).NewEncoder().Bytes([]byte(string(cps)))
	if err != nil {
		// string(cps) is always valid UTF-8; keep a manual path anyway
		return encodeUTF16Manual(cps, bom)
	}
	return out
}

func encodeUTF16Manual(cps []rune, bom bool) []byte {
	out := make([]byte, 0, 2*len(cps)+2)
	if bom {
		out = append(out, 0xFE, 0xFF)
	}
	for _, r := range cps {
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		if r >= 0x10000 {
			r -= 0x10000
			hi, lo := 0xD800+(r>>10), 0xDC00+(r&0x3FF)
			out = append(out, byte(hi>>8), byte(hi), byte(lo>>8), byte(lo))
			continue
		}
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}

// EncodeWinAnsi encodes cps in Windows-1252 for single-byte fonts. Code
// points outside the code page become '?'.
func EncodeWinAnsi(cps []rune) []byte {
	out := make([]byte, len(cps))
	for i, r := range cps {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out[i] = b
	}
	return out
}

// WinAnsiRune returns the code point for a Windows-1252 byte.
func WinAnsiRune(b byte) rune {
	return charmap.Windows1252.DecodeByte(b)
}
