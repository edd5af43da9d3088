package compression

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1,
	lz4.Level2,
	lz4.Level3,
	lz4.Level4,
	lz4.Level5,
	lz4.Level6,
	lz4.Level7,
	lz4.Level8,
	lz4.Level9,
}

type lz4Codec struct {
	level lz4.CompressionLevel
}

func newLZ4Codec(level int) (Codec, error) {
	if err := checkLevel(level, 1, 9); err != nil {
		return nil, err
	}
	return lz4Codec{level: lz4Levels[level]}, nil
}

// Name ...
func (c lz4Codec) Name() string {
	return LZ4
}

// NewEncoder ...
func (c lz4Codec) NewEncoder(w io.Writer) (Encoder, error) {
	lw := lz4.NewWriter(w)
	if err := lw.Apply(
		lz4.CompressionLevelOption(c.level),
		lz4.ConcurrencyOption(1),
	); err != nil {
		return nil, fmt.Errorf("configure lz4 writer: %w", err)
	}
	return lw, nil
}

// NewDecoder ...
func (c lz4Codec) NewDecoder(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
