// Package chunked turns a byte source into an ordered sequence of compressed chunks, sized
// for incremental upload or storage, and restores the original bytes from the ordered
// concatenation of those chunks.
//
// All chunks of one producer belong to a single compressed stream: the encoder is never
// reset between chunks, only its output buffer is drained.
package chunked

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"sync"

	"github.com/bitrise-io/go-chunkcompress/compression"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
)

// maxConsecutiveEmptyReads matches the limit bufio applies to readers returning 0, nil.
const maxConsecutiveEmptyReads = 100

type state int

const (
	stateActive state = iota
	stateDone
	stateFailed
	stateClosed
)

// Chunk is a contiguous slice of the compressed stream. Data is owned by the caller and
// never modified by the producer.
type Chunk struct {
	// Index is the zero based position of the chunk in the stream.
	Index int
	Data  []byte
	// Final is set on the last chunk, which may be empty.
	Final bool
}

// Producer lazily compresses a Source into chunks. It is not safe for concurrent use.
type Producer struct {
	src       Source
	enc       compression.Encoder
	acc       *accumulator
	buf       []byte
	threshold int64
	state     state
	nextIndex int
	codec     string
	stats     *Stats
	logger    log.Logger
}

// NewProducer takes ownership of src: it is closed once the final chunk is emitted, when
// a pull fails, when the producer is closed, or right away if construction fails.
func NewProducer(src Source, codec compression.Codec, config Config, logger log.Logger) (*Producer, error) {
	if logger == nil {
		logger = log.NewLogger()
	}

	if err := config.Validate(); err != nil {
		_ = closeQuietly(logger, "source", src)
		return nil, err
	}

	total, known := SourceSize(src)
	threshold := EffectiveChunkSize(config.ChunkSize, total, known, config.MaxChunks)
	if threshold != config.ChunkSize {
		logger.Debugf("Chunk size raised from %s to %s to keep %s below %d chunks",
			units.HumanSize(float64(config.ChunkSize)), units.HumanSize(float64(threshold)),
			units.HumanSize(float64(total)), config.MaxChunks)
	}

	acc := &accumulator{}
	enc, err := codec.NewEncoder(acc)
	if err != nil {
		_ = closeQuietly(logger, "source", src)
		return nil, codecError("create encoder", err)
	}

	return &Producer{
		src:       src,
		enc:       enc,
		acc:       acc,
		buf:       make([]byte, config.BufferSize),
		threshold: threshold,
		codec:     codec.Name(),
		stats:     NewStats(),
		logger:    logger,
	}, nil
}

// Threshold returns the effective chunk size in compressed bytes.
func (p *Producer) Threshold() int64 {
	return p.threshold
}

// Stats returns the progress of the producer.
func (p *Producer) Stats() *Stats {
	return p.stats
}

// Active reports whether Next may still return chunks.
func (p *Producer) Active() bool {
	return p.state == stateActive
}

// Next returns the next chunk of the stream. Once the chunk with Final set was returned,
// Next returns ErrExhausted. Any other error is terminal: the producer has released its
// resources, every chunk returned before must be discarded, and further calls return
// ErrClosed.
func (p *Producer) Next() (Chunk, error) {
	switch p.state {
	case stateDone:
		return Chunk{}, ErrExhausted
	case stateFailed, stateClosed:
		return Chunk{}, ErrClosed
	}

	empty := 0
	for {
		n, err := p.src.Read(p.buf)
		if n > 0 {
			p.stats.addRead(n)
			if _, werr := p.enc.Write(p.buf[:n]); werr != nil {
				return Chunk{}, p.fail(codecError("encode", werr))
			}
		}

		// A read error ends the stream even when the same call returned data.
		switch {
		case err == io.EOF:
			return p.finish()
		case err != nil:
			return Chunk{}, p.fail(ioError("read source", err))
		}

		if n == 0 {
			empty++
			if empty >= maxConsecutiveEmptyReads {
				return Chunk{}, p.fail(ioError("read source", io.ErrNoProgress))
			}
			continue
		}
		empty = 0
		if int64(p.acc.Len()) >= p.threshold {
			return p.emit(false), nil
		}
	}
}

// All iterates over the remaining chunks. Iteration stops after the final chunk or after
// yielding an error. Breaking out of the loop closes the producer.
func (p *Producer) All() iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for {
			chunk, err := p.Next()
			if err != nil {
				yield(Chunk{}, err)
				return
			}
			if !yield(chunk, nil) {
				_ = p.Close()
				return
			}
			if chunk.Final {
				return
			}
		}
	}
}

// Close abandons the producer and releases the source and the encoder. It is a no-op once
// the producer finished or failed.
func (p *Producer) Close() error {
	if p.state != stateActive {
		return nil
	}
	p.state = stateClosed
	p.logger.Debugf("Producer closed after %d chunks", p.stats.Chunks())
	return p.release()
}

func (p *Producer) emit(final bool) Chunk {
	data := p.acc.take()
	chunk := Chunk{Index: p.nextIndex, Data: data, Final: final}
	p.nextIndex++
	p.stats.addChunk(len(data))
	p.logger.Debugf("Chunk %d ready (%s)", chunk.Index+1, units.HumanSize(float64(len(data))))
	return chunk
}

func (p *Producer) finish() (Chunk, error) {
	// Closing the encoder flushes buffered input and writes the stream trailer, both of
	// which belong to the final chunk.
	enc := p.enc
	p.enc = nil
	if err := enc.Close(); err != nil {
		return Chunk{}, p.fail(codecError("close encoder", err))
	}

	chunk := p.emit(true)
	p.state = stateDone
	p.stats.finish()
	_ = p.release()

	p.logger.Debugf("Compressed %s into %s with %s (%d chunks) in %s",
		units.HumanSizeWithPrecision(float64(p.stats.BytesRead()), 3),
		units.HumanSizeWithPrecision(float64(p.stats.BytesEmitted()), 3),
		p.codec, p.stats.Chunks(), p.stats.Duration())
	return chunk, nil
}

func (p *Producer) fail(err error) error {
	p.state = stateFailed
	_ = p.release()
	return err
}

// release closes everything still held. Each close is attempted even if an earlier one
// failed.
func (p *Producer) release() error {
	var errs []error
	if p.enc != nil {
		if err := closeQuietly(p.logger, "encoder", p.enc); err != nil {
			errs = append(errs, err)
		}
		p.enc = nil
	}
	if p.src != nil {
		if err := closeQuietly(p.logger, "source", p.src); err != nil {
			errs = append(errs, err)
		}
		p.src = nil
	}
	p.acc = nil
	p.buf = nil
	return errors.Join(errs...)
}

// accumulator collects encoder output between chunks. Writes are serialized because some
// encoders hand finished blocks to the writer from their own goroutine.
type accumulator struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (a *accumulator) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.Write(p)
}

func (a *accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.Len()
}

// take returns a copy of the collected bytes and empties the accumulator.
func (a *accumulator) take() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	data := make([]byte, a.buf.Len())
	copy(data, a.buf.Bytes())
	a.buf.Reset()
	return data
}
