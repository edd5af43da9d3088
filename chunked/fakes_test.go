package chunked

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/bitrise-io/go-chunkcompress/compression"
)

type fakeEnvRepo struct {
	envVars map[string]string
}

func (repo fakeEnvRepo) Get(key string) string {
	value, ok := repo.envVars[key]
	if ok {
		return value
	} else {
		return ""
	}
}

func (repo fakeEnvRepo) Set(key, value string) error {
	repo.envVars[key] = value
	return nil
}

func (repo fakeEnvRepo) Unset(key string) error {
	repo.envVars[key] = ""
	return nil
}

func (repo fakeEnvRepo) List() []string {
	envs := []string{}
	for k, v := range repo.envVars {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

// fakeSource returns data, then readErr (io.EOF if nil).
type fakeSource struct {
	data     []byte
	pos      int
	readErr  error
	closeErr error
	closed   int
}

func (s *fakeSource) Read(p []byte) (int, error) {
	if s.pos < len(s.data) {
		n := copy(p, s.data[s.pos:])
		s.pos += n
		return n, nil
	}
	if s.readErr != nil {
		return 0, s.readErr
	}
	return 0, io.EOF
}

func (s *fakeSource) Close() error {
	s.closed++
	return s.closeErr
}

type stallingSource struct {
	closed int
}

func (s *stallingSource) Read(p []byte) (int, error) { return 0, nil }
func (s *stallingSource) Close() error               { s.closed++; return nil }

type fakeReadCloser struct {
	*bytes.Reader
	closed int
}

func newFakeReadCloser(data []byte) *fakeReadCloser {
	return &fakeReadCloser{Reader: bytes.NewReader(data)}
}

func (r *fakeReadCloser) Close() error {
	r.closed++
	return nil
}

// fakeWriteCloser accepts limit bytes and fails every write after that. A negative limit
// never fails.
type fakeWriteCloser struct {
	buf      bytes.Buffer
	limit    int
	closeErr error
	closed   int
}

var errDiskFull = errors.New("disk full")

func (w *fakeWriteCloser) Write(p []byte) (int, error) {
	if w.limit >= 0 && w.buf.Len()+len(p) > w.limit {
		return 0, errDiskFull
	}
	return w.buf.Write(p)
}

func (w *fakeWriteCloser) Close() error {
	w.closed++
	return w.closeErr
}

type failingCodec struct {
	err error
}

func (c failingCodec) Name() string { return "failing" }

func (c failingCodec) NewEncoder(w io.Writer) (compression.Encoder, error) {
	return failingEncoder{err: c.err}, nil
}

func (c failingCodec) NewDecoder(r io.Reader) (io.ReadCloser, error) {
	return nil, c.err
}

type failingEncoder struct {
	err error
}

func (e failingEncoder) Write(p []byte) (int, error) { return 0, e.err }
func (e failingEncoder) Flush() error                { return nil }
func (e failingEncoder) Close() error                { return nil }

// erroringReadSource returns its first block together with err, then serves the rest.
type erroringReadSource struct {
	first  []byte
	rest   []byte
	err    error
	reads  int
	closed int
}

func (s *erroringReadSource) Read(p []byte) (int, error) {
	s.reads++
	if s.reads == 1 {
		return copy(p, s.first), s.err
	}
	if len(s.rest) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.rest)
	s.rest = s.rest[n:]
	return n, nil
}

func (s *erroringReadSource) Close() error {
	s.closed++
	return nil
}
