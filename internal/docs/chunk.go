// ABOUTME: Splits document text into overlapping word windows for retrieval
// ABOUTME: Defaults mirror the indexing pipeline: 800 words with 200 overlap

package docs

import "strings"

// Default chunking parameters, in words
const (
	DefaultChunkSize = 800
	DefaultOverlap   = 200
)

// Chunk splits text into windows of at most size words, each starting
// size-overlap words after the previous one. The last window ends at the
// last word. Whitespace-only text yields no chunks.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
