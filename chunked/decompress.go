package chunked

import (
	"bufio"
	"io"

	"github.com/bitrise-io/go-chunkcompress/compression"
	"github.com/bitrise-io/go-utils/v2/log"
)

// Decompress decodes the compressed stream read from in and writes the result to out.
// Neither in nor out is closed. The decoder and the buffered writer over out are released
// on every exit path. On error, whatever was already written to out must be discarded.
func Decompress(codec compression.Codec, in io.Reader, out io.Writer, logger log.Logger) error {
	if logger == nil {
		logger = log.NewLogger()
	}
	return decompress(codec, in, out, DefaultBufferSize, logger)
}

// DecompressAndClose is Decompress followed by closing both in and out, whatever the
// outcome. Close failures are logged and never reported.
func DecompressAndClose(codec compression.Codec, in io.ReadCloser, out io.WriteCloser, logger log.Logger) error {
	if logger == nil {
		logger = log.NewLogger()
	}
	return decompressAndClose(codec, in, out, DefaultBufferSize, logger)
}

func decompressAndClose(codec compression.Codec, in io.ReadCloser, out io.WriteCloser, bufferSize int, logger log.Logger) error {
	defer func() {
		_ = closeQuietly(logger, "input", in)
		_ = closeQuietly(logger, "output", out)
	}()

	return decompress(codec, in, out, bufferSize, logger)
}

func decompress(codec compression.Codec, in io.Reader, out io.Writer, bufferSize int, logger log.Logger) (err error) {
	src := &trackingReader{r: in}
	br := bufio.NewReaderSize(src, bufferSize)
	bw := bufio.NewWriterSize(out, bufferSize)
	defer func() {
		if flushErr := bw.Flush(); flushErr != nil {
			if err == nil {
				err = ioError("flush output", flushErr)
				return
			}
			logger.Debugf("Failed to flush output: %s", flushErr)
		}
	}()

	// An empty stream decodes to nothing, whatever the codec expects as a header.
	if _, peekErr := br.Peek(1); peekErr != nil {
		if peekErr == io.EOF {
			return nil
		}
		return ioError("read input", peekErr)
	}

	dec, err := codec.NewDecoder(br)
	if err != nil {
		return src.classify("open decoder", err)
	}
	defer func() {
		_ = closeQuietly(logger, "decoder", dec)
	}()

	buf := make([]byte, bufferSize)
	for {
		n, readErr := dec.Read(buf)
		if n > 0 {
			if _, writeErr := bw.Write(buf[:n]); writeErr != nil {
				return ioError("write output", writeErr)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return src.classify("decode", readErr)
		}
	}
}

// trackingReader remembers the first failure of the underlying reader, which tells an
// input failure apart from data the codec rejected.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

func (t *trackingReader) classify(op string, err error) error {
	if t.err != nil {
		return ioError(op, err)
	}
	return codecError(op, err)
}
