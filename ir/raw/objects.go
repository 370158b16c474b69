package raw

import (
	"sort"
	"strconv"

	"github.com/wudi/pdfflow/contentstream"
)

// Name object
type NameObj struct{ Val string }

func (n NameObj) Type() string     { return "name" }
func (n NameObj) IsIndirect() bool { return false }
func (n NameObj) Value() string    { return n.Val }
func (n NameObj) Append(b []byte) []byte {
	return contentstream.Name(n.Val).Append(b)
}

// Number object
type NumberObj struct {
	I     int64
	F     float64
	IsInt bool
}

func (n NumberObj) Type() string     { return "number" }
func (n NumberObj) IsIndirect() bool { return false }
func (n NumberObj) Int() int64       { return n.I }
func (n NumberObj) Float() float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}
func (n NumberObj) IsInteger() bool { return n.IsInt }
func (n NumberObj) Append(b []byte) []byte {
	if n.IsInt {
		return strconv.AppendInt(b, n.I, 10)
	}
	return append(b, contentstream.FormatNumber(n.F)...)
}

// Boolean object
type BoolObj struct{ V bool }

func (b BoolObj) Type() string     { return "boolean" }
func (b BoolObj) IsIndirect() bool { return false }
func (b BoolObj) Value() bool      { return b.V }
func (b BoolObj) Append(dst []byte) []byte {
	return strconv.AppendBool(dst, b.V)
}

// Null object
type NullObj struct{}

func (n NullObj) Type() string           { return "null" }
func (n NullObj) IsIndirect() bool       { return false }
func (n NullObj) Append(b []byte) []byte { return append(b, "null"...) }

// String object, literal or hex.
type StringObj struct {
	Bytes []byte
	Hex   bool
}

func (s StringObj) Type() string     { return "string" }
func (s StringObj) IsIndirect() bool { return false }
func (s StringObj) Value() []byte    { return s.Bytes }
func (s StringObj) IsHex() bool      { return s.Hex }
func (s StringObj) Append(b []byte) []byte {
	if !s.Hex {
		return contentstream.AppendLiteral(b, s.Bytes)
	}
	const digits = "0123456789ABCDEF"
	b = append(b, '<')
	for _, c := range s.Bytes {
		b = append(b, digits[c>>4], digits[c&15])
	}
	return append(b, '>')
}

// Array object
type ArrayObj struct{ Items []Object }

func (a *ArrayObj) Type() string     { return "array" }
func (a *ArrayObj) IsIndirect() bool { return false }
func (a *ArrayObj) Get(i int) (Object, bool) {
	if i < 0 || i >= len(a.Items) {
		return nil, false
	}
	return a.Items[i], true
}
func (a *ArrayObj) Len() int     { return len(a.Items) }
func (a *ArrayObj) Add(o Object) { a.Items = append(a.Items, o) }
func (a *ArrayObj) Append(b []byte) []byte {
	b = append(b, '[')
	for i, it := range a.Items {
		if i > 0 {
			b = append(b, ' ')
		}
		b = appendObject(b, it)
	}
	return append(b, ']')
}

// Dictionary object. Keys are written in sorted order.
type DictObj struct{ KV map[string]Object }

func (d *DictObj) Type() string     { return "dict" }
func (d *DictObj) IsIndirect() bool { return false }
func (d *DictObj) Get(key string) (Object, bool) {
	o, ok := d.KV[key]
	return o, ok
}

// Set stores value under key; a nil value removes the key.
func (d *DictObj) Set(key string, value Object) {
	if d.KV == nil {
		d.KV = make(map[string]Object)
	}
	if value == nil {
		delete(d.KV, key)
		return
	}
	d.KV[key] = value
}
func (d *DictObj) Keys() []string {
	keys := make([]string, 0, len(d.KV))
	for k := range d.KV {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
func (d *DictObj) Len() int { return len(d.KV) }
func (d *DictObj) Append(b []byte) []byte {
	b = append(b, "<<"...)
	for _, k := range d.Keys() {
		b = contentstream.Name(k).Append(b)
		b = append(b, ' ')
		b = appendObject(b, d.KV[k])
	}
	return append(b, ">>"...)
}

// Stream object. Append sets /Length from Data.
type StreamObj struct {
	Dict *DictObj
	Data []byte
}

func (s *StreamObj) Type() string           { return "stream" }
func (s *StreamObj) IsIndirect() bool       { return false }
func (s *StreamObj) Dictionary() Dictionary { return s.Dict }
func (s *StreamObj) RawData() []byte        { return s.Data }
func (s *StreamObj) Length() int64          { return int64(len(s.Data)) }
func (s *StreamObj) Append(b []byte) []byte {
	if s.Dict == nil {
		s.Dict = Dict()
	}
	s.Dict.Set("Length", NumberInt(int64(len(s.Data))))
	b = s.Dict.Append(b)
	b = append(b, " stream\n"...)
	b = append(b, s.Data...)
	return append(b, "\nendstream"...)
}

// Reference object
type RefObj struct{ R ObjectRef }

func (r RefObj) Type() string     { return "ref" }
func (r RefObj) IsIndirect() bool { return true }
func (r RefObj) Ref() ObjectRef   { return r.R }
func (r RefObj) Append(b []byte) []byte {
	b = strconv.AppendInt(b, int64(r.R.Num), 10)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(r.R.Gen), 10)
	return append(b, " R"...)
}

func appendObject(b []byte, o Object) []byte {
	if o == nil {
		return append(b, "null"...)
	}
	return o.Append(b)
}

// Helpers
func NameLiteral(v string) NameObj                    { return NameObj{Val: v} }
func NumberInt(i int64) NumberObj                     { return NumberObj{I: i, IsInt: true} }
func Int(i int) NumberObj                             { return NumberObj{I: int64(i), IsInt: true} }
func NumberFloat(f float64) NumberObj                 { return NumberObj{F: f, IsInt: false} }
func Bool(v bool) BoolObj                             { return BoolObj{V: v} }
func Str(bytes []byte) StringObj                      { return StringObj{Bytes: bytes} }
func HexStr(bytes []byte) StringObj                   { return StringObj{Bytes: bytes, Hex: true} }
func NewArray(items ...Object) *ArrayObj              { return &ArrayObj{Items: items} }
func Dict() *DictObj                                  { return &DictObj{KV: make(map[string]Object)} }
func NewStream(dict *DictObj, data []byte) *StreamObj { return &StreamObj{Dict: dict, Data: data} }
func Ref(num, gen int) RefObj                         { return RefObj{R: ObjectRef{Num: num, Gen: gen}} }

// Floats returns an array of numbers.
func Floats(vs ...float64) *ArrayObj {
	a := &ArrayObj{Items: make([]Object, len(vs))}
	for i, v := range vs {
		a.Items[i] = NumberFloat(v)
	}
	return a
}

// Names returns an array of names.
func Names(vs ...string) *ArrayObj {
	a := &ArrayObj{Items: make([]Object, len(vs))}
	for i, v := range vs {
		a.Items[i] = NameLiteral(v)
	}
	return a
}
