package chunked

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/bitrise-io/go-chunkcompress/compression"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressAll(t *testing.T, codecName string, input []byte) []byte {
	t.Helper()
	producer := newTestProducer(t, NewStreamSource(bytes.NewReader(input)), codecName, 4096)
	provider, err := Collect(producer)
	require.NoError(t, err)
	return provider.Bytes()
}

func TestDecompress_EmptyInput(t *testing.T) {
	for _, codecName := range compression.Names() {
		t.Run(codecName, func(t *testing.T) {
			codec, err := compression.New(codecName, 0)
			require.NoError(t, err)

			var out bytes.Buffer
			err = Decompress(codec, bytes.NewReader(nil), &out, log.NewLogger())

			require.NoError(t, err)
			assert.Zero(t, out.Len())
		})
	}
}

func TestDecompress_DoesNotCloseStreams(t *testing.T) {
	input := testInput(64 * 1024)
	in := newFakeReadCloser(compressAll(t, compression.Gzip, input))
	out := &fakeWriteCloser{limit: -1}
	codec, err := compression.New(compression.Gzip, 0)
	require.NoError(t, err)

	require.NoError(t, Decompress(codec, in, out, log.NewLogger()))

	assert.Equal(t, input, out.buf.Bytes())
	assert.Zero(t, in.closed)
	assert.Zero(t, out.closed)
}

func TestDecompress_CorruptInput(t *testing.T) {
	tests := []struct {
		name  string
		codec string
		input []byte
	}{
		{name: "not a gzip header", codec: compression.Gzip, input: []byte("definitely not gzip data")},
		{name: "not a zstd frame", codec: compression.Zstd, input: []byte("definitely not zstd data")},
		{name: "not a snappy stream", codec: compression.Snappy, input: []byte("definitely not snappy data")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := compression.New(tt.codec, 0)
			require.NoError(t, err)

			err = Decompress(codec, bytes.NewReader(tt.input), &bytes.Buffer{}, log.NewLogger())

			require.Error(t, err)
			assert.True(t, IsKind(err, KindCodec), "got %v", err)
		})
	}
}

func TestDecompress_TruncatedInput(t *testing.T) {
	compressed := compressAll(t, compression.Zstd, testInput(256*1024))
	codec, err := compression.New(compression.Zstd, 0)
	require.NoError(t, err)

	err = Decompress(codec, bytes.NewReader(compressed[:len(compressed)/2]), &bytes.Buffer{}, log.NewLogger())

	assert.Error(t, err)
}

func TestDecompress_InputReadFailure(t *testing.T) {
	readErr := errors.New("network down")
	codec, err := compression.New(compression.Snappy, 0)
	require.NoError(t, err)

	err = Decompress(codec, iotest.ErrReader(readErr), &bytes.Buffer{}, log.NewLogger())

	assert.ErrorIs(t, err, readErr)
	assert.True(t, IsKind(err, KindIO))
}

func TestDecompress_FlushFailure(t *testing.T) {
	// The whole output fits in the write buffer, so the failure surfaces on flush.
	compressed := compressAll(t, compression.Snappy, []byte("small"))
	codec, err := compression.New(compression.Snappy, 0)
	require.NoError(t, err)
	out := &fakeWriteCloser{limit: 0}

	err = Decompress(codec, bytes.NewReader(compressed), out, log.NewLogger())

	assert.ErrorIs(t, err, errDiskFull)
	assert.True(t, IsKind(err, KindIO))
}

func TestDecompressAndClose(t *testing.T) {
	input := testInput(64 * 1024)
	compressed := compressAll(t, compression.LZ4, input)
	codec, err := compression.New(compression.LZ4, 0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		limit   int
		wantErr error
	}{
		{name: "success", limit: -1},
		{name: "output fails mid-copy", limit: 10 * 1024, wantErr: errDiskFull},
		{name: "output fails immediately", limit: 0, wantErr: errDiskFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			in := newFakeReadCloser(compressed)
			out := &fakeWriteCloser{limit: tt.limit, closeErr: errors.New("close failed")}

			// When
			err := DecompressAndClose(codec, in, out, log.NewLogger())

			// Then
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, input, out.buf.Bytes())
			}
			assert.Equal(t, 1, in.closed)
			assert.Equal(t, 1, out.closed)
		})
	}
}

func TestDecompressAndClose_DecoderCreationFailure(t *testing.T) {
	decoderErr := errors.New("unsupported")
	in := newFakeReadCloser([]byte("payload"))
	out := &fakeWriteCloser{limit: -1}

	err := DecompressAndClose(failingCodec{err: decoderErr}, in, out, log.NewLogger())

	assert.ErrorIs(t, err, decoderErr)
	assert.True(t, IsKind(err, KindCodec))
	assert.Equal(t, 1, in.closed)
	assert.Equal(t, 1, out.closed)
}
