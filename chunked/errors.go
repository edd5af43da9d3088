package chunked

import (
	"errors"
	"fmt"
	"io"

	"github.com/bitrise-io/go-utils/v2/log"
)

var (
	// ErrExhausted is returned by Producer.Next after the final chunk was emitted.
	ErrExhausted = errors.New("producer exhausted: final chunk already emitted")

	// ErrClosed is returned by Producer.Next after the producer failed or was closed early.
	ErrClosed = errors.New("producer closed")

	// ErrInvalidChunkSize is returned for chunk sizes that are not positive.
	ErrInvalidChunkSize = errors.New("chunk size should be positive")
)

// Kind classifies a failure of a compress or decompress attempt.
type Kind int

const (
	// KindIO is a read, write or close failure of a caller supplied handle.
	KindIO Kind = iota + 1
	// KindCodec is data rejected or malformed according to the codec.
	KindCodec
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindCodec:
		return "codec"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the terminating failure of a compress or decompress attempt. Any output
// produced before it must be discarded.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s error): %s", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func ioError(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

func codecError(op string, err error) error {
	return &Error{Kind: KindCodec, Op: op, Err: err}
}

// closeQuietly releases c and only logs a failure, so a release error never replaces
// the error that triggered the cleanup.
func closeQuietly(logger log.Logger, name string, c io.Closer) error {
	if c == nil {
		return nil
	}
	if err := c.Close(); err != nil {
		logger.Debugf("Failed to close %s: %s", name, err)
		return err
	}
	return nil
}
