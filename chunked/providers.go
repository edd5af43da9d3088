package chunked

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const partFilePrefix = "part-"

// ChunkProvider gives indexed access to the chunks of one compressed stream, for example
// to hand them to an uploader or to reassemble them.
type ChunkProvider interface {
	// NumChunks returns the total number of chunks.
	NumChunks() int

	// ChunkSize returns the size of the chunk at the given index.
	ChunkSize(index int) int64

	// GetChunk returns a reader for the chunk at the given index.
	// GetChunk may be called multiple times for the same index.
	GetChunk(index int) (io.Reader, error)
}

// ByteSliceChunkProvider provides chunks from in-memory byte slices.
type ByteSliceChunkProvider struct {
	chunks [][]byte
}

// NewByteSliceChunkProvider creates a ChunkProvider from byte slices.
func NewByteSliceChunkProvider(chunks [][]byte) *ByteSliceChunkProvider {
	return &ByteSliceChunkProvider{chunks: chunks}
}

// Collect drains p into memory. On error nothing is returned and p is released.
func Collect(p *Producer) (*ByteSliceChunkProvider, error) {
	var chunks [][]byte
	for chunk, err := range p.All() {
		if err != nil {
			return nil, fmt.Errorf("collect chunk %d: %w", len(chunks)+1, err)
		}
		chunks = append(chunks, chunk.Data)
	}
	return NewByteSliceChunkProvider(chunks), nil
}

// NumChunks returns the total number of chunks.
func (p *ByteSliceChunkProvider) NumChunks() int {
	return len(p.chunks)
}

// ChunkSize returns the size of the chunk at the given index.
func (p *ByteSliceChunkProvider) ChunkSize(index int) int64 {
	if index < 0 || index >= len(p.chunks) {
		return 0
	}
	return int64(len(p.chunks[index]))
}

// GetChunk returns a reader for the chunk at the given index.
func (p *ByteSliceChunkProvider) GetChunk(index int) (io.Reader, error) {
	if index < 0 || index >= len(p.chunks) {
		return nil, fmt.Errorf("chunk index %d out of range [0, %d)", index, len(p.chunks))
	}
	return bytes.NewReader(p.chunks[index]), nil
}

// Bytes returns the concatenation of all chunks.
func (p *ByteSliceChunkProvider) Bytes() []byte {
	return bytes.Join(p.chunks, nil)
}

// PartFileChunkProvider provides chunks stored as numbered part files in a directory.
type PartFileChunkProvider struct {
	dir   string
	sizes []int64
}

// WriteParts drains p into part files under dir, one file per chunk. Part files left in dir
// by an earlier run are removed first. If the producer or a write fails, every part file in
// dir is removed.
func WriteParts(dir string, p *Producer) (*PartFileChunkProvider, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("create parts directory: %w", err)
	}
	if err := removeParts(dir); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("clear parts directory: %w", err)
	}

	provider := &PartFileChunkProvider{dir: dir}
	for chunk, err := range p.All() {
		if err == nil {
			err = os.WriteFile(provider.partPath(chunk.Index), chunk.Data, 0644)
			if err == nil {
				provider.sizes = append(provider.sizes, int64(len(chunk.Data)))
				continue
			}
			err = fmt.Errorf("write part %d: %w", chunk.Index+1, err)
		}
		// Breaking out of the loop closes the producer.
		provider.remove()
		return nil, err
	}
	return provider, nil
}

// OpenParts reopens the part files previously written to dir by WriteParts.
func OpenParts(dir string) (*PartFileChunkProvider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read parts directory: %w", err)
	}

	sizes := map[int]int64{}
	for _, entry := range entries {
		name := entry.Name()
		index, ok := partIndex(entry)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		sizes[index] = info.Size()
	}

	indexes := make([]int, 0, len(sizes))
	for index := range sizes {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	provider := &PartFileChunkProvider{dir: dir}
	for i, index := range indexes {
		if i != index {
			return nil, fmt.Errorf("missing part %d in %s", i+1, dir)
		}
		provider.sizes = append(provider.sizes, sizes[index])
	}
	if len(provider.sizes) == 0 {
		return nil, fmt.Errorf("no parts found in %s", dir)
	}
	return provider, nil
}

// NumChunks returns the total number of chunks.
func (p *PartFileChunkProvider) NumChunks() int {
	return len(p.sizes)
}

// ChunkSize returns the size of the chunk at the given index.
func (p *PartFileChunkProvider) ChunkSize(index int) int64 {
	if index < 0 || index >= len(p.sizes) {
		return 0
	}
	return p.sizes[index]
}

// GetChunk returns a reader for the chunk at the given index.
// The data is read into memory to allow for retries.
func (p *PartFileChunkProvider) GetChunk(index int) (io.Reader, error) {
	if index < 0 || index >= len(p.sizes) {
		return nil, fmt.Errorf("chunk index %d out of range [0, %d)", index, len(p.sizes))
	}
	data, err := os.ReadFile(p.partPath(index))
	if err != nil {
		return nil, fmt.Errorf("read part %d: %w", index+1, err)
	}
	return bytes.NewReader(data), nil
}

// PartPaths returns the part file paths in chunk order.
func (p *PartFileChunkProvider) PartPaths() []string {
	paths := make([]string, len(p.sizes))
	for i := range p.sizes {
		paths[i] = p.partPath(i)
	}
	return paths
}

func (p *PartFileChunkProvider) partPath(index int) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s%05d", partFilePrefix, index))
}

func (p *PartFileChunkProvider) remove() {
	_ = removeParts(p.dir)
}

func partIndex(entry os.DirEntry) (int, bool) {
	name := entry.Name()
	if entry.IsDir() || !strings.HasPrefix(name, partFilePrefix) {
		return 0, false
	}
	index, err := strconv.Atoi(strings.TrimPrefix(name, partFilePrefix))
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

func removeParts(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, entry := range entries {
		if _, ok := partIndex(entry); !ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reassemble returns the ordered concatenation of the provider's chunks, which is the
// compressed stream to pass to Decompress. Chunks are fetched one at a time.
func Reassemble(provider ChunkProvider) io.Reader {
	return &reassembler{provider: provider}
}

type reassembler struct {
	provider ChunkProvider
	next     int
	current  io.Reader
}

func (r *reassembler) Read(p []byte) (int, error) {
	for {
		if r.current == nil {
			if r.next >= r.provider.NumChunks() {
				return 0, io.EOF
			}
			chunk, err := r.provider.GetChunk(r.next)
			if err != nil {
				return 0, err
			}
			r.current = chunk
			r.next++
		}

		n, err := r.current.Read(p)
		if errors.Is(err, io.EOF) {
			r.current = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}
