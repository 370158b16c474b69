// Package xref builds the cross-reference table of a file being written
// and reads classic tables back.
package xref

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/wudi/pdfflow/recovery"
)

// Table maps object numbers to byte offsets. All objects have generation 0.
type Table struct {
	entries map[int]int64
}

func New() *Table { return &Table{entries: map[int]int64{}} }

// Add records the offset of object num. Object numbers are never reused.
func (t *Table) Add(num int, offset int64) error {
	if num <= 0 {
		return recovery.Errorf(recovery.InvalidFormat, "xref.Add", "invalid object number %d", num)
	}
	if _, ok := t.entries[num]; ok {
		return recovery.Errorf(recovery.InvalidFormat, "xref.Add", "object %d written twice", num)
	}
	t.entries[num] = offset
	return nil
}

func (t *Table) Lookup(num int) (int64, bool) {
	off, ok := t.entries[num]
	return off, ok
}

// Objects returns the object numbers in ascending order.
func (t *Table) Objects() []int {
	out := make([]int, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (t *Table) Len() int { return len(t.entries) }

// Size is the trailer /Size: one more than the highest object number.
func (t *Table) Size() int {
	objs := t.Objects()
	if len(objs) == 0 {
		return 1
	}
	return objs[len(objs)-1] + 1
}

// Subsection is a run of consecutive object numbers.
type Subsection struct {
	Start   int
	Offsets []int64
}

// Subsections splits the table into contiguous runs. The first run starts
// at object 0, whose free entry is not included in Offsets.
func (t *Table) Subsections() []Subsection {
	var out []Subsection
	prev := 0
	out = append(out, Subsection{Start: 0})
	for _, num := range t.Objects() {
		cur := &out[len(out)-1]
		if num != prev+1 {
			out = append(out, Subsection{Start: num})
			cur = &out[len(out)-1]
		}
		cur.Offsets = append(cur.Offsets, t.entries[num])
		prev = num
	}
	return out
}

// WriteTo writes the "xref" section, one subsection per contiguous range.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	b.WriteString("xref\n")
	for _, s := range t.Subsections() {
		n := len(s.Offsets)
		if s.Start == 0 {
			n++
		}
		fmt.Fprintf(&b, "%d %d\n", s.Start, n)
		if s.Start == 0 {
			b.WriteString("0000000000 65535 f \n")
		}
		for _, off := range s.Offsets {
			fmt.Fprintf(&b, "%010d 00000 n \n", off)
		}
	}
	n, err := w.Write(b.Bytes())
	if err != nil {
		return int64(n), recovery.Wrap(recovery.IOFailure, "xref.WriteTo", err)
	}
	return int64(n), nil
}

// StartXRef returns the offset named by the last startxref keyword.
func StartXRef(data []byte) (int64, error) {
	pos := bytes.LastIndex(data, []byte("startxref"))
	if pos < 0 {
		return 0, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "startxref not found")
	}
	lines := bufio.NewScanner(bytes.NewReader(data[pos+len("startxref"):]))
	for lines.Scan() {
		text := strings.TrimSpace(lines.Text())
		if text == "" {
			continue
		}
		val, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, recovery.Wrap(recovery.InvalidFormat, "xref.Parse", fmt.Errorf("parse startxref: %w", err))
		}
		if val <= 0 || val >= int64(len(data)) {
			return 0, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "xref offset out of range: %d", val)
		}
		return val, nil
	}
	return 0, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "startxref has no offset")
}

// Parse reads the classic xref table that startxref points to. Free
// entries are skipped.
func Parse(data []byte) (*Table, error) {
	offset, err := StartXRef(data)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(bytes.NewReader(data[offset:]))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "xref" {
		return nil, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "xref keyword not found at offset %d", offset)
	}
	t := New()
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "trailer") {
			return t, nil
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "invalid subsection header %q", line)
		}
		start, err1 := strconv.Atoi(parts[0])
		count, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || start < 0 || count < 0 {
			return nil, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "invalid subsection header %q", line)
		}
		for i := 0; i < count; i++ {
			if !sc.Scan() {
				return nil, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "unexpected end of xref section")
			}
			fields := strings.Fields(sc.Text())
			if len(fields) < 3 {
				return nil, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "invalid entry %q", sc.Text())
			}
			off, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return nil, recovery.Wrap(recovery.InvalidFormat, "xref.Parse", fmt.Errorf("parse offset: %w", err))
			}
			if fields[2] != "n" {
				continue
			}
			if err := t.Add(start+i, off); err != nil {
				return nil, err
			}
		}
	}
	return nil, recovery.Errorf(recovery.InvalidFormat, "xref.Parse", "trailer not found")
}
