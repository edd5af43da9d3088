package chunked

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-chunkcompress/compression"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/docker/go-units"
)

const (
	// DefaultChunkSize is the requested chunk size used when the caller passes 0.
	DefaultChunkSize = 10 * 1024 * 1024

	// DefaultBufferSize is the size of the read buffer feeding the encoder and of the
	// intermediate copy buffer used while decompressing.
	DefaultBufferSize = 2 * 1024

	// DefaultMaxChunks caps the number of chunks emitted for a source of known length.
	DefaultMaxChunks = 10000
)

// Environment variables read by ConfigFromEnv.
const (
	ChunkSizeEnvKey        = "CHUNKED_COMPRESSION_CHUNK_SIZE"
	BufferSizeEnvKey       = "CHUNKED_COMPRESSION_BUFFER_SIZE"
	MaxChunksEnvKey        = "CHUNKED_COMPRESSION_MAX_CHUNKS"
	CodecEnvKey            = "CHUNKED_COMPRESSION_CODEC"
	CompressionLevelEnvKey = "CHUNKED_COMPRESSION_LEVEL"
)

// Config holds configuration for compressing into chunks.
type Config struct {
	// ChunkSize is the requested number of compressed bytes per chunk.
	// Default: 10 MiB
	ChunkSize int64

	// BufferSize is the number of source bytes read per encoder write.
	// Default: 2 KiB
	BufferSize int

	// MaxChunks is the chunk count cap applied to sources of known length.
	// Default: 10000, minimum 2
	MaxChunks int64

	// Codec is the name of the compression codec, see compression.Names.
	// Default: snappy
	Codec string

	// CompressionLevel is passed to the codec, 0 selects the codec default.
	CompressionLevel int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:  DefaultChunkSize,
		BufferSize: DefaultBufferSize,
		MaxChunks:  DefaultMaxChunks,
		Codec:      compression.DefaultCodec,
	}
}

// ConfigFromEnv returns the default configuration overridden by the values set in the
// environment. Sizes accept human readable values such as "5MB" or "512KiB".
func ConfigFromEnv(envRepo env.Repository) (Config, error) {
	config := DefaultConfig()

	if value := strings.TrimSpace(envRepo.Get(ChunkSizeEnvKey)); value != "" {
		size, err := units.RAMInBytes(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", ChunkSizeEnvKey, err)
		}
		config.ChunkSize = size
	}

	if value := strings.TrimSpace(envRepo.Get(BufferSizeEnvKey)); value != "" {
		size, err := units.RAMInBytes(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", BufferSizeEnvKey, err)
		}
		config.BufferSize = int(size)
	}

	if value := strings.TrimSpace(envRepo.Get(MaxChunksEnvKey)); value != "" {
		maxChunks, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", MaxChunksEnvKey, err)
		}
		config.MaxChunks = maxChunks
	}

	if value := strings.TrimSpace(envRepo.Get(CodecEnvKey)); value != "" {
		config.Codec = value
	}

	if value := strings.TrimSpace(envRepo.Get(CompressionLevelEnvKey)); value != "" {
		level, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", CompressionLevelEnvKey, err)
		}
		config.CompressionLevel = level
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate ...
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size should be positive, got %d", c.BufferSize)
	}
	if c.MaxChunks < 2 {
		return fmt.Errorf("max chunks should be at least 2, got %d", c.MaxChunks)
	}
	return nil
}
