// Package buffer stores page content streams and large binary blobs either
// in memory or in temp files. Every sink supports appending, inserting at an
// arbitrary offset and rolling back to a single checkpoint.
package buffer

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ContentSink is a growable byte buffer with one rollback checkpoint.
type ContentSink interface {
	io.Closer
	Append(p []byte) error
	InsertAt(off int, p []byte) error
	Bytes() ([]byte, error)
	Len() int
	// Checkpoint records the current content. A later Rollback restores it
	// byte for byte; Commit forgets it.
	Checkpoint()
	Rollback() error
	Commit()
}

// SinkFactory creates empty sinks. A store uses one factory for its whole
// lifetime.
type SinkFactory interface {
	NewSink() (ContentSink, error)
}

var errOffset = errors.New("buffer: offset out of range")

// MemorySink keeps content in a byte slice.
type MemorySink struct {
	data  []byte
	saved []byte
	held  bool
}

func (m *MemorySink) Append(p []byte) error {
	m.data = append(m.data, p...)
	return nil
}

func (m *MemorySink) InsertAt(off int, p []byte) error {
	if off < 0 || off > len(m.data) {
		return fmt.Errorf("%w: %d not in [0,%d]", errOffset, off, len(m.data))
	}
	if len(p) == 0 {
		return nil
	}
	m.data = append(m.data, p...)
	copy(m.data[off+len(p):], m.data[off:len(m.data)-len(p)])
	copy(m.data[off:], p)
	return nil
}

func (m *MemorySink) Bytes() ([]byte, error) { return m.data, nil }
func (m *MemorySink) Len() int               { return len(m.data) }

func (m *MemorySink) Checkpoint() {
	m.saved = append(m.saved[:0], m.data...)
	m.held = true
}

func (m *MemorySink) Rollback() error {
	if !m.held {
		return nil
	}
	m.data = append(m.data[:0], m.saved...)
	m.Commit()
	return nil
}

func (m *MemorySink) Commit() {
	m.saved = nil
	m.held = false
}

func (m *MemorySink) Close() error {
	m.data, m.saved = nil, nil
	return nil
}

// MemoryFactory produces MemorySinks.
type MemoryFactory struct{}

func (MemoryFactory) NewSink() (ContentSink, error) { return &MemorySink{}, nil }

// DiskSink keeps content in a temp file. A checkpoint records the file
// length; bytes below that length are copied aside only when an insertion
// shifts them, so rollback truncates and rewrites at most that region.
type DiskSink struct {
	f    *os.File
	size int

	held      bool
	markLen   int
	savedOff  int
	savedTail []byte
}

// NewDiskSink creates a sink backed by a new temp file in dir ("" means the
// system temp directory).
func NewDiskSink(dir string) (*DiskSink, error) {
	f, err := os.CreateTemp(dir, "pdfflow-*.buf")
	if err != nil {
		return nil, err
	}
	return &DiskSink{f: f}, nil
}

// Path returns the temp file name.
func (d *DiskSink) Path() string { return d.f.Name() }

func (d *DiskSink) Append(p []byte) error {
	if _, err := d.f.WriteAt(p, int64(d.size)); err != nil {
		return err
	}
	d.size += len(p)
	return nil
}

func (d *DiskSink) InsertAt(off int, p []byte) error {
	if off < 0 || off > d.size {
		return fmt.Errorf("%w: %d not in [0,%d]", errOffset, off, d.size)
	}
	if len(p) == 0 {
		return nil
	}
	tail := make([]byte, d.size-off)
	if _, err := d.f.ReadAt(tail, int64(off)); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if d.held && off < d.savedOff {
		// bytes in [off, savedOff) are still the checkpointed ones
		d.savedTail = append(append([]byte{}, tail[:d.savedOff-off]...), d.savedTail...)
		d.savedOff = off
	}
	if _, err := d.f.WriteAt(p, int64(off)); err != nil {
		return err
	}
	if _, err := d.f.WriteAt(tail, int64(off+len(p))); err != nil {
		return err
	}
	d.size += len(p)
	return nil
}

func (d *DiskSink) Bytes() ([]byte, error) {
	out := make([]byte, d.size)
	if _, err := d.f.ReadAt(out, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}

func (d *DiskSink) Len() int { return d.size }

func (d *DiskSink) Checkpoint() {
	d.held = true
	d.markLen = d.size
	d.savedOff = d.size
	d.savedTail = nil
}

func (d *DiskSink) Rollback() error {
	if !d.held {
		return nil
	}
	if err := d.f.Truncate(int64(d.savedOff)); err != nil {
		return err
	}
	if len(d.savedTail) > 0 {
		if _, err := d.f.WriteAt(d.savedTail, int64(d.savedOff)); err != nil {
			return err
		}
	}
	d.size = d.markLen
	d.Commit()
	return nil
}

func (d *DiskSink) Commit() {
	d.held = false
	d.savedTail = nil
}

// Close closes and removes the temp file.
func (d *DiskSink) Close() error {
	name := d.f.Name()
	cerr := d.f.Close()
	rerr := os.Remove(name)
	if errors.Is(rerr, os.ErrNotExist) {
		rerr = nil
	}
	return errors.Join(cerr, rerr)
}

// DiskFactory produces DiskSinks in Dir.
type DiskFactory struct {
	Dir string
}

func (f DiskFactory) NewSink() (ContentSink, error) {
	s, err := NewDiskSink(f.Dir)
	if err != nil {
		return nil, err
	}
	return s, nil
}
