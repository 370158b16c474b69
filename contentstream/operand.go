// Package contentstream is the operator representation of page content.
// Layout builds Fragments of operations, post-processes them (for example
// to justify text) and serializes each fragment once.
package contentstream

import (
	"strconv"
	"strings"
)

// Operand is one argument of an operation.
type Operand interface {
	Type() string
	// Append writes the PDF syntax of the operand to b.
	Append(b []byte) []byte
}

// Number is a numeric operand written with at most five decimals.
type Number float64

func (Number) Type() string { return "number" }

func (n Number) Append(b []byte) []byte { return append(b, FormatNumber(float64(n))...) }

// FormatNumber formats v the way numbers appear in content streams:
// fixed-point, trailing zeros removed.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 5, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// Name is a name operand without its leading slash.
type Name string

func (Name) Type() string { return "name" }

func (n Name) Append(b []byte) []byte {
	b = append(b, '/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < '!' || c > '~' || strings.IndexByte("()<>[]{}/%#", c) >= 0 {
			b = append(b, '#', hexDigits[c>>4], hexDigits[c&15])
			continue
		}
		b = append(b, c)
	}
	return b
}

const hexDigits = "0123456789ABCDEF"

// Text is an encoded string operand. Unit is the code width in bytes: 1
// for single-byte fonts, 2 for Identity-H and UCS-2 fonts.
type Text struct {
	Bytes []byte
	Unit  int
}

func (Text) Type() string { return "string" }

func (t Text) Append(b []byte) []byte { return AppendLiteral(b, t.Bytes) }

// AppendLiteral writes s as a literal string, escaping delimiters.
func AppendLiteral(b, s []byte) []byte {
	b = append(b, '(')
	for _, c := range s {
		switch c {
		case '(', ')', '\\':
			b = append(b, '\\', c)
		case '\r':
			b = append(b, '\\', 'r')
		default:
			b = append(b, c)
		}
	}
	return append(b, ')')
}

// Array is an array operand, typically the argument of TJ.
type Array []Operand

func (Array) Type() string { return "array" }

func (a Array) Append(b []byte) []byte {
	b = append(b, '[')
	for i, o := range a {
		if i > 0 {
			b = append(b, ' ')
		}
		b = o.Append(b)
	}
	return append(b, ']')
}

// Raw is written verbatim. It carries page-number aliases and operands
// the layout does not model.
type Raw string

func (Raw) Type() string { return "raw" }

func (r Raw) Append(b []byte) []byte { return append(b, r...) }

// Nums converts values to Number operands.
func Nums(vs ...float64) []Operand {
	out := make([]Operand, len(vs))
	for i, v := range vs {
		out[i] = Number(v)
	}
	return out
}
