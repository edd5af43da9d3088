package chunked

import "time"

// Stats tracks the progress of a single producer. A producer is used from one goroutine
// only, so Stats needs no locking.
type Stats struct {
	bytesRead    int64
	bytesEmitted int64
	chunks       int
	started      time.Time
	finished     time.Time
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) addRead(n int) {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	s.bytesRead += int64(n)
}

func (s *Stats) addChunk(size int) {
	s.chunks++
	s.bytesEmitted += int64(size)
}

func (s *Stats) finish() {
	s.finished = time.Now()
}

// BytesRead returns the number of uncompressed bytes consumed from the source.
func (s *Stats) BytesRead() int64 {
	return s.bytesRead
}

// BytesEmitted returns the number of compressed bytes handed out in chunks.
func (s *Stats) BytesEmitted() int64 {
	return s.bytesEmitted
}

// Chunks returns the number of chunks emitted so far, the final one included.
func (s *Stats) Chunks() int {
	return s.chunks
}

// Ratio returns emitted bytes per read byte, or 0 before anything was read.
func (s *Stats) Ratio() float64 {
	if s.bytesRead == 0 {
		return 0
	}
	return float64(s.bytesEmitted) / float64(s.bytesRead)
}

// Duration returns the time between the first read and the final chunk.
func (s *Stats) Duration() time.Duration {
	if s.started.IsZero() || s.finished.IsZero() {
		return 0
	}
	return s.finished.Sub(s.started)
}
