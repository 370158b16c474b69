package writer

import (
	"bufio"
	"io"
	"strconv"

	"github.com/wudi/pdfflow/ir/raw"
	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/security"
	"github.com/wudi/pdfflow/unitext"
	"github.com/wudi/pdfflow/xref"
)

// Range is a block of object numbers set aside for objects that are
// referenced before they can be written.
type Range int

const (
	EmbeddedFiles Range = 100000
	Annotations   Range = 200000
	Appearances   Range = 400000
)

// Fixed object numbers.
const (
	PageTreeObject  = 1
	ResourcesObject = 2
	firstObject     = 3
)

// ObjectWriter numbers objects, records their offsets and writes them out.
// Sequential numbers start at 3 and are never reused. The first error is
// kept and every later call does nothing.
type ObjectWriter struct {
	out      *bufio.Writer
	off      int64
	err      error
	n        int
	cur      int
	start    int64
	table    *xref.Table
	enc      security.Handler
	hooks    []Interceptor
	reserved map[Range]int
}

func NewObjectWriter(w io.Writer, enc security.Handler, hooks ...Interceptor) *ObjectWriter {
	if enc == nil {
		enc = security.NoEncryption{}
	}
	return &ObjectWriter{
		out:      bufio.NewWriter(w),
		n:        firstObject - 1,
		table:    xref.New(),
		enc:      enc,
		hooks:    hooks,
		reserved: map[Range]int{},
	}
}

func (o *ObjectWriter) Err() error    { return o.err }
func (o *ObjectWriter) Offset() int64 { return o.off }

// Last returns the last sequential object number handed out.
func (o *ObjectWriter) Last() int { return o.n }

func (o *ObjectWriter) Table() *xref.Table { return o.table }

func (o *ObjectWriter) fail(err error) {
	if o.err == nil && err != nil {
		o.err = err
	}
}

func (o *ObjectWriter) write(p []byte) {
	if o.err != nil {
		return
	}
	n, err := o.out.Write(p)
	o.off += int64(n)
	if err != nil {
		o.fail(recovery.Wrap(recovery.IOFailure, "writer.write", err))
	}
}

func (o *ObjectWriter) writeString(s string) { o.write([]byte(s)) }

// NewObject starts the next sequential object and returns its number.
func (o *ObjectWriter) NewObject() int {
	o.n++
	o.Begin(o.n)
	return o.n
}

// Reserve returns the next number of range r without writing anything.
func (o *ObjectWriter) Reserve(r Range) int {
	n := int(r) + o.reserved[r]
	o.reserved[r]++
	return n
}

// Begin starts object num at the current offset.
func (o *ObjectWriter) Begin(num int) {
	if o.err != nil {
		return
	}
	o.fail(o.table.Add(num, o.off))
	o.cur, o.start = num, o.off
	o.writeString(strconv.Itoa(num) + " 0 obj\n")
}

// End writes the body of the current object and closes it.
func (o *ObjectWriter) End(obj raw.Object) {
	o.write(raw.Serialize(obj))
	o.writeString("\nendobj\n")
	if o.err != nil {
		return
	}
	for _, h := range o.hooks {
		o.fail(h.AfterWrite(o.cur, o.off-o.start))
	}
}

// Put writes obj as the next sequential object.
func (o *ObjectWriter) Put(obj raw.Object) int {
	n := o.NewObject()
	o.End(obj)
	return n
}

// PutAt writes obj under a fixed or reserved number.
func (o *ObjectWriter) PutAt(num int, obj raw.Object) {
	o.Begin(num)
	o.End(obj)
}

// PutStream writes a stream as the next sequential object.
func (o *ObjectWriter) PutStream(dict *raw.DictObj, data []byte) int {
	n := o.NewObject()
	o.EndStream(dict, data)
	return n
}

// EndStream closes the current object with a stream body.
func (o *ObjectWriter) EndStream(dict *raw.DictObj, data []byte) {
	enc, err := o.enc.Encrypt(o.cur, 0, data, security.DataClassStream)
	o.fail(err)
	o.End(raw.NewStream(dict, enc))
}

// TextString encodes s for a text string of the current object: bytes as
// they are when s is ASCII, UTF-16BE with a byte order mark otherwise.
func (o *ObjectWriter) TextString(s string) raw.StringObj {
	b := []byte(s)
	for _, c := range b {
		if c >= 0x80 {
			b = unitext.EncodeUTF16BE([]rune(s), true)
			break
		}
	}
	enc, err := o.enc.Encrypt(o.cur, 0, b, security.DataClassString)
	o.fail(err)
	return raw.Str(enc)
}

// Finish writes the xref table, the trailer and the end-of-file marker.
func (o *ObjectWriter) Finish(trailer *raw.DictObj) error {
	if o.err != nil {
		return o.err
	}
	start := o.off
	trailer.Set("Size", raw.Int(o.table.Size()))
	n, err := o.table.WriteTo(o.out)
	o.off += n
	if err != nil {
		o.fail(err)
		return o.err
	}
	o.writeString("trailer\n")
	o.write(raw.Serialize(trailer))
	o.writeString("\nstartxref\n" + strconv.FormatInt(start, 10) + "\n%%EOF\n")
	if o.err == nil {
		if err := o.out.Flush(); err != nil {
			o.fail(recovery.Wrap(recovery.IOFailure, "writer.Finish", err))
		}
	}
	return o.err
}
