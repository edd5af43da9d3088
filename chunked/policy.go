package chunked

// EffectiveChunkSize returns the number of compressed bytes after which a producer emits
// a chunk. When the total input length is known and the requested size would split it
// into maxChunks or more chunks, the size grows to totalLength/(maxChunks-1), which keeps
// the chunk count strictly below maxChunks.
//
// requested must be positive and maxChunks at least 2.
func EffectiveChunkSize(requested, totalLength int64, totalKnown bool, maxChunks int64) int64 {
	if !totalKnown {
		return requested
	}
	if totalLength/requested >= maxChunks {
		return totalLength / (maxChunks - 1)
	}
	return requested
}
