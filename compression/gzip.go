package compression

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

type gzipCodec struct {
	level int
}

func newGzipCodec(level int) (Codec, error) {
	if err := checkLevel(level, gzip.BestSpeed, gzip.BestCompression); err != nil {
		return nil, err
	}
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return gzipCodec{level: level}, nil
}

// Name ...
func (c gzipCodec) Name() string {
	return Gzip
}

// NewEncoder ...
func (c gzipCodec) NewEncoder(w io.Writer) (Encoder, error) {
	gw, err := gzip.NewWriterLevel(w, c.level)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	return gw, nil
}

// NewDecoder reads the gzip header eagerly, so r must not be empty.
func (c gzipCodec) NewDecoder(r io.Reader) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	return gr, nil
}
