package compression

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const defaultZstdLevel = 3

type zstdCodec struct {
	level int
}

func newZstdCodec(level int) (Codec, error) {
	if err := checkLevel(level, 1, 19); err != nil {
		return nil, err
	}
	if level == 0 {
		level = defaultZstdLevel
	}
	return zstdCodec{level: level}, nil
}

// Name ...
func (c zstdCodec) Name() string {
	return Zstd
}

// NewEncoder ...
func (c zstdCodec) NewEncoder(w io.Writer) (Encoder, error) {
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return enc, nil
}

// NewDecoder ...
func (c zstdCodec) NewDecoder(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	return dec.IOReadCloser(), nil
}
