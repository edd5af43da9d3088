package chunked

import (
	"fmt"
	"io"
	"os"
)

// Source is a forward-only byte source consumed by a Producer. Read follows the io.Reader
// contract and signals the end of data with io.EOF. The producer closes the source
// exactly once.
type Source interface {
	io.ReadCloser
}

// Sizer is implemented by sources that know their total length up front. Only sized
// sources take part in the chunk count cap of EffectiveChunkSize.
type Sizer interface {
	Size() int64
}

// SourceSize returns the total length of src if it is known.
func SourceSize(src Source) (int64, bool) {
	s, ok := src.(Sizer)
	if !ok {
		return 0, false
	}
	return s.Size(), true
}

type streamSource struct {
	io.Reader
}

// NewStreamSource wraps a sequential reader of unknown length. The reader is closed with
// the source if it implements io.Closer.
func NewStreamSource(r io.Reader) Source {
	return streamSource{Reader: r}
}

func (s streamSource) Close() error {
	if c, ok := s.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type fileSource struct {
	*os.File
	size int64
}

// NewFileSource wraps a file whose length is taken from Stat. Reading starts at the
// file's current offset. On error f is not closed and stays owned by the caller.
func NewFileSource(f *os.File) (Source, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	return fileSource{File: f, size: info.Size()}, nil
}

// Size ...
func (s fileSource) Size() int64 {
	return s.size
}

type readerAtSource struct {
	*io.SectionReader
	closer io.Closer
}

// NewReaderAtSource reads the first size bytes of r. r is closed with the source if it
// implements io.Closer.
func NewReaderAtSource(r io.ReaderAt, size int64) Source {
	closer, _ := r.(io.Closer)
	return readerAtSource{SectionReader: io.NewSectionReader(r, 0, size), closer: closer}
}

func (s readerAtSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
