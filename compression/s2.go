package compression

import (
	"io"

	"github.com/klauspost/compress/s2"
)

// s2Codec covers both the snappy-compatible framed stream and native S2 streams.
// The s2 reader decodes either format.
type s2Codec struct {
	name    string
	options []s2.WriterOption
}

func newSnappyCodec(level int) (Codec, error) {
	if err := checkLevel(level, 1, 3); err != nil {
		return nil, err
	}
	options := append([]s2.WriterOption{s2.WriterSnappyCompat()}, s2LevelOptions(level)...)
	return s2Codec{name: Snappy, options: options}, nil
}

func newS2Codec(level int) (Codec, error) {
	if err := checkLevel(level, 1, 3); err != nil {
		return nil, err
	}
	return s2Codec{name: S2, options: s2LevelOptions(level)}, nil
}

func s2LevelOptions(level int) []s2.WriterOption {
	// Encoding happens on the caller's goroutine.
	options := []s2.WriterOption{s2.WriterConcurrency(1)}
	switch level {
	case 2:
		options = append(options, s2.WriterBetterCompression())
	case 3:
		options = append(options, s2.WriterBestCompression())
	}
	return options
}

// Name ...
func (c s2Codec) Name() string {
	return c.name
}

// NewEncoder ...
func (c s2Codec) NewEncoder(w io.Writer) (Encoder, error) {
	return s2.NewWriter(w, c.options...), nil
}

// NewDecoder ...
func (c s2Codec) NewDecoder(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}
