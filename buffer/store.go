package buffer

import (
	"errors"

	"github.com/wudi/pdfflow/recovery"
)

// Store owns one ContentSink per page (numbered from 1) and any number of
// blob sinks used for image data.
type Store struct {
	factory SinkFactory
	pages   []ContentSink
	blobs   []ContentSink

	held      bool
	markPages int
	markBlobs int
}

// NewStore returns a store whose sinks come from factory; a nil factory
// keeps everything in memory.
func NewStore(factory SinkFactory) *Store {
	if factory == nil {
		factory = MemoryFactory{}
	}
	return &Store{factory: factory}
}

// Create allocates the sink for page, which must be the next page number.
func (s *Store) Create(page int) error {
	if page != len(s.pages)+1 {
		return recovery.Errorf(recovery.InvalidFormat, "buffer.Create", "page %d is not the next page (%d)", page, len(s.pages)+1)
	}
	sink, err := s.factory.NewSink()
	if err != nil {
		return recovery.Wrap(recovery.IOFailure, "buffer.Create", err)
	}
	if s.held {
		sink.Checkpoint()
	}
	s.pages = append(s.pages, sink)
	return nil
}

func (s *Store) sink(op string, page int) (ContentSink, error) {
	if page <= 0 || page > len(s.pages) {
		return nil, recovery.Errorf(recovery.InvalidFormat, op, "page %d does not exist", page)
	}
	return s.pages[page-1], nil
}

func (s *Store) Append(page int, p []byte) error {
	sink, err := s.sink("buffer.Append", page)
	if err != nil {
		return err
	}
	return recovery.Wrap(recovery.IOFailure, "buffer.Append", sink.Append(p))
}

// InsertAt inserts p at off in the page buffer. Marks held by the caller are
// not adjusted here.
func (s *Store) InsertAt(page, off int, p []byte) error {
	sink, err := s.sink("buffer.InsertAt", page)
	if err != nil {
		return err
	}
	if err := sink.InsertAt(off, p); err != nil {
		return recovery.Wrap(recovery.InvalidFormat, "buffer.InsertAt", err)
	}
	return nil
}

func (s *Store) Read(page int) ([]byte, error) {
	sink, err := s.sink("buffer.Read", page)
	if err != nil {
		return nil, err
	}
	b, err := sink.Bytes()
	return b, recovery.Wrap(recovery.IOFailure, "buffer.Read", err)
}

func (s *Store) Len(page int) int {
	if page <= 0 || page > len(s.pages) {
		return 0
	}
	return s.pages[page-1].Len()
}

// Pages returns the number of page buffers.
func (s *Store) Pages() int { return len(s.pages) }

// Blob is a handle to a stored binary object.
type Blob int

// PutBlob stores data in a new sink and returns its handle.
func (s *Store) PutBlob(data []byte) (Blob, error) {
	sink, err := s.factory.NewSink()
	if err != nil {
		return 0, recovery.Wrap(recovery.IOFailure, "buffer.PutBlob", err)
	}
	if err := sink.Append(data); err != nil {
		sink.Close()
		return 0, recovery.Wrap(recovery.IOFailure, "buffer.PutBlob", err)
	}
	s.blobs = append(s.blobs, sink)
	return Blob(len(s.blobs)), nil
}

func (s *Store) Blob(b Blob) ([]byte, error) {
	if int(b) <= 0 || int(b) > len(s.blobs) {
		return nil, recovery.Errorf(recovery.MissingResource, "buffer.Blob", "blob %d does not exist", b)
	}
	data, err := s.blobs[b-1].Bytes()
	return data, recovery.Wrap(recovery.IOFailure, "buffer.Blob", err)
}

// Checkpoint marks every existing sink and remembers how many exist.
func (s *Store) Checkpoint() {
	s.held = true
	s.markPages = len(s.pages)
	s.markBlobs = len(s.blobs)
	for _, p := range s.pages {
		p.Checkpoint()
	}
}

// Rollback restores the content recorded by Checkpoint and discards sinks
// created since.
func (s *Store) Rollback() error {
	if !s.held {
		return nil
	}
	var errs []error
	for _, p := range s.pages[s.markPages:] {
		errs = append(errs, p.Close())
	}
	for _, b := range s.blobs[s.markBlobs:] {
		errs = append(errs, b.Close())
	}
	s.pages = s.pages[:s.markPages]
	s.blobs = s.blobs[:s.markBlobs]
	for _, p := range s.pages {
		errs = append(errs, p.Rollback())
	}
	s.held = false
	return recovery.Wrap(recovery.IOFailure, "buffer.Rollback", errors.Join(errs...))
}

func (s *Store) Commit() {
	s.held = false
	for _, p := range s.pages {
		p.Commit()
	}
}

// Close releases every sink. It is safe to call more than once.
func (s *Store) Close() error {
	var errs []error
	for _, p := range s.pages {
		errs = append(errs, p.Close())
	}
	for _, b := range s.blobs {
		errs = append(errs, b.Close())
	}
	s.pages, s.blobs = nil, nil
	return errors.Join(errs...)
}
