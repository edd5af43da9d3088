// Package compression wraps streaming block codecs behind a single Codec interface.
// The chunking layer treats every codec as opaque: it only needs an encoder that can be
// flushed and closed, and a decoder that reads the encoder's output back.
package compression

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Codec names accepted by New.
const (
	Snappy = "snappy"
	S2     = "s2"
	Zstd   = "zstd"
	Gzip   = "gzip"
	LZ4    = "lz4"
)

// DefaultCodec is the snappy-framed stream format.
const DefaultCodec = Snappy

// Encoder is a streaming compressor. Close ends the stream and writes any trailer.
// Flush forces buffered input out to the underlying writer without ending the stream; the
// chunked producer never calls it, it is there for callers driving an encoder directly.
type Encoder interface {
	io.WriteCloser
	Flush() error
}

// Codec ...
type Codec interface {
	// Name returns the registry name of the codec.
	Name() string

	// NewEncoder returns an encoder writing compressed data to w.
	NewEncoder(w io.Writer) (Encoder, error)

	// NewDecoder returns a reader decompressing the stream read from r.
	// Closing the decoder does not close r.
	NewDecoder(r io.Reader) (io.ReadCloser, error)
}

type constructor func(level int) (Codec, error)

var registry = map[string]constructor{
	Snappy: newSnappyCodec,
	S2:     newS2Codec,
	Zstd:   newZstdCodec,
	Gzip:   newGzipCodec,
	LZ4:    newLZ4Codec,
}

// New returns the codec registered under name. A level of 0 selects the codec's default
// compression level.
func New(name string, level int) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultCodec
	}

	create, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q, supported codecs: %s", name, strings.Join(Names(), ", "))
	}

	codec, err := create(level)
	if err != nil {
		return nil, fmt.Errorf("create %s codec: %w", name, err)
	}
	return codec, nil
}

// Names returns the supported codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkLevel(level, lowest, highest int) error {
	if level == 0 {
		return nil
	}
	if level < lowest || level > highest {
		return fmt.Errorf("compression level should be between %d and %d", lowest, highest)
	}
	return nil
}
