// Package chunker splits document text into overlapping chunks suitable
// for embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// sentenceSearchWindow is how far past the naive chunk boundary we look
// for a sentence-terminating period before falling back to a fixed cut.
const sentenceSearchWindow = 200

// Config contains chunking parameters.
type Config struct {
	// ChunkSize is the target size of each chunk in characters.
	// Default: 800
	ChunkSize int `yaml:"chunk_size"`

	// Overlap is the number of characters shared between consecutive
	// chunks. Must be smaller than ChunkSize.
	// Default: 150
	Overlap int `yaml:"overlap"`
}

// DefaultConfig returns the default chunker configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 800,
		Overlap:   150,
	}
}

// Splitter splits text into overlapping, sentence-aligned chunks.
// Splitting is deterministic: identical input and parameters always yield
// an identical chunk sequence.
type Splitter struct {
	config Config
}

// New creates a Splitter. An overlap greater than or equal to the chunk
// size would stall forward progress and is rejected as a configuration
// error.
func New(cfg Config) (*Splitter, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 800
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than chunk size %d", cfg.Overlap, cfg.ChunkSize)
	}
	return &Splitter{config: cfg}, nil
}

// Split splits text into chunks of roughly ChunkSize characters with
// Overlap characters shared between consecutive chunks. Boundaries are
// extended to the next sentence-terminating period when one falls within
// sentenceSearchWindow characters past the naive cut, and never split a
// multi-byte character. Empty input yields an empty sequence.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	// Strip carriage returns so chunk boundaries are platform-independent.
	text = strings.ReplaceAll(text, "\r", "")

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + s.config.ChunkSize

		// Prefer ending at a sentence boundary.
		if end < len(text) {
			if next := strings.Index(text[end:], "."); next >= 0 && next < sentenceSearchWindow {
				end += next + 1
			}
		}

		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		}
		// A fixed cut can land inside a multi-byte rune; back the slice
		// up to the rune start so chunk text stays valid UTF-8.
		for sliceEnd > start && sliceEnd < len(text) && !utf8.RuneStart(text[sliceEnd]) {
			sliceEnd--
		}

		chunk := strings.TrimSpace(text[start:sliceEnd])
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}

		// Step back for overlap. The cursor always advances because
		// overlap is smaller than the chunk size. Aligning forward to
		// the next rune start never reduces progress.
		start = end - s.config.Overlap
		if start < 0 {
			start = 0
		}
		for start < len(text) && !utf8.RuneStart(text[start]) {
			start++
		}
	}

	return chunks
}
