package chunked

import (
	"fmt"
	"io"
	"os"

	"github.com/bitrise-io/go-chunkcompress/compression"
	"github.com/bitrise-io/go-utils/v2/log"
)

// Compressor ...
type Compressor struct {
	config Config
	codec  compression.Codec
	logger log.Logger
}

// NewCompressor creates a Compressor using the codec named in config.
func NewCompressor(config Config, logger log.Logger) (*Compressor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	codec, err := compression.New(config.Codec, config.CompressionLevel)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.NewLogger()
	}

	return &Compressor{
		config: config,
		codec:  codec,
		logger: logger,
	}, nil
}

// Codec returns the codec chunks are encoded with.
func (c *Compressor) Codec() compression.Codec {
	return c.codec
}

// Compress returns a producer compressing a stream of unknown length. The reader is
// closed by the producer if it implements io.Closer.
//
// A chunkSize of 0 selects Config.ChunkSize.
func (c *Compressor) Compress(r io.Reader, chunkSize int64) (*Producer, error) {
	return c.CompressSource(NewStreamSource(r), chunkSize)
}

// CompressFile returns a producer compressing f. The file's length caps the number of
// chunks at Config.MaxChunks. The file is closed by the producer.
func (c *Compressor) CompressFile(f *os.File, chunkSize int64) (*Producer, error) {
	src, err := NewFileSource(f)
	if err != nil {
		_ = closeQuietly(c.logger, "file", f)
		return nil, ioError("open file source", err)
	}
	return c.CompressSource(src, chunkSize)
}

// CompressSource returns a producer over src, see NewProducer for ownership rules.
func (c *Compressor) CompressSource(src Source, chunkSize int64) (*Producer, error) {
	if chunkSize < 0 {
		_ = closeQuietly(c.logger, "source", src)
		return nil, fmt.Errorf("%w, got %d", ErrInvalidChunkSize, chunkSize)
	}

	config := c.config
	if chunkSize > 0 {
		config.ChunkSize = chunkSize
	}
	return NewProducer(src, c.codec, config, c.logger)
}

// Decompress ...
func (c *Compressor) Decompress(in io.Reader, out io.Writer) error {
	return decompress(c.codec, in, out, c.config.BufferSize, c.logger)
}

// DecompressAndClose ...
func (c *Compressor) DecompressAndClose(in io.ReadCloser, out io.WriteCloser) error {
	return decompressAndClose(c.codec, in, out, c.config.BufferSize, c.logger)
}
