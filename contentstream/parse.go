package contentstream

import (
	"strconv"

	"github.com/wudi/pdfflow/recovery"
)

// Parse reads serialized content back into operations. Strings come back
// as single-byte Text since the font is not known here. Inline images and
// dictionaries are not supported.
func Parse(stream []byte) ([]Operation, error) {
	p := &parser{src: stream}
	var (
		ops    []Operation
		stack  []Operand
		arrays []int
	)
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			break
		}
		c := p.src[p.pos]
		switch {
		case c == '(':
			s, err := p.literal()
			if err != nil {
				return nil, err
			}
			stack = append(stack, Text{Bytes: s, Unit: 1})
		case c == '<':
			s, err := p.hex()
			if err != nil {
				return nil, err
			}
			stack = append(stack, Text{Bytes: s, Unit: 1})
		case c == '[':
			p.pos++
			arrays = append(arrays, len(stack))
		case c == ']':
			p.pos++
			if len(arrays) == 0 {
				return nil, p.errorf("unbalanced ]")
			}
			start := arrays[len(arrays)-1]
			arrays = arrays[:len(arrays)-1]
			arr := append(Array(nil), stack[start:]...)
			stack = append(stack[:start], arr)
		case c == '/':
			p.pos++
			stack = append(stack, Name(p.name()))
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			tok := p.token()
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, p.errorf("bad number %q", tok)
			}
			stack = append(stack, Number(v))
		default:
			tok := p.token()
			if tok == "" {
				return nil, p.errorf("unexpected byte %q", c)
			}
			if len(arrays) > 0 {
				return nil, p.errorf("operator %s inside array", tok)
			}
			ops = append(ops, Operation{Operator: tok, Operands: stack})
			stack = nil
		}
	}
	if len(stack) > 0 || len(arrays) > 0 {
		return nil, p.errorf("dangling operands: %d", len(stack))
	}
	return ops, nil
}

type parser struct {
	src []byte
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return recovery.Errorf(recovery.InvalidFormat, "contentstream.Parse", "offset %d: "+format, append([]any{p.pos}, args...)...)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '%' {
			for p.pos < len(p.src) && p.src[p.pos] != '\n' && p.src[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		if !isSpace(c) {
			return
		}
		p.pos++
	}
}

func (p *parser) token() string {
	start := p.pos
	for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && !isDelim(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) name() string {
	var out []byte
	for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && !isDelim(p.src[p.pos]) {
		c := p.src[p.pos]
		if c == '#' && p.pos+2 < len(p.src) {
			if v, err := strconv.ParseUint(string(p.src[p.pos+1:p.pos+3]), 16, 8); err == nil {
				out = append(out, byte(v))
				p.pos += 3
				continue
			}
		}
		out = append(out, c)
		p.pos++
	}
	return string(out)
}

func (p *parser) literal() ([]byte, error) {
	p.pos++ // (
	depth := 1
	var out []byte
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out, nil
			}
		case '\\':
			if p.pos >= len(p.src) {
				return nil, p.errorf("unterminated escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case '\n':
				continue
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '7'; i++ {
						v = v*8 + int(p.src[p.pos]-'0')
						p.pos++
					}
					c = byte(v)
				} else {
					c = e
				}
			}
		}
		out = append(out, c)
	}
	return nil, p.errorf("unterminated string")
}

func (p *parser) hex() ([]byte, error) {
	p.pos++ // <
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		return nil, p.errorf("dictionaries are not supported")
	}
	var digits []byte
	for p.pos < len(p.src) && p.src[p.pos] != '>' {
		if c := p.src[p.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		p.pos++
	}
	if p.pos >= len(p.src) {
		return nil, p.errorf("unterminated hex string")
	}
	p.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		v, err := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
		if err != nil {
			return nil, p.errorf("bad hex digit")
		}
		out[i] = byte(v)
	}
	return out, nil
}
