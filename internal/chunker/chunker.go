// Package chunker splits normalised document text into overlapping
// passages sized for embedding.
//
// Splitting prefers paragraph and sentence boundaries near the chunk
// size, falling back to a hard cut when no boundary exists inside the
// tolerance window. The output is fully deterministic: identical text
// and config always produce the identical chunk sequence.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Default configuration values, matching the course-portal defaults.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// boundaryWindow is the trailing fraction of a chunk searched for a
// natural break before falling back to a hard cut.
const boundaryWindow = 0.2

// Config controls chunk sizing. Sizes are in characters (runes).
type Config struct {
	// ChunkSize is the maximum characters per chunk.
	ChunkSize int

	// Overlap is the number of characters shared between consecutive
	// chunks. Must be smaller than ChunkSize.
	Overlap int

	// MinChunkSize discards a trailing fragment below this size unless
	// it is the only chunk. 0 keeps every fragment.
	MinChunkSize int
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
	}
}

// Chunker implements driven.Chunker.
type Chunker struct {
	cfg Config
}

var _ driven.Chunker = (*Chunker)(nil)

// New creates a chunker, validating the configuration.
func New(cfg Config) (*Chunker, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, cfg.ChunkSize)
	}
	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", domain.ErrInvalidConfig, cfg.Overlap)
	}
	if cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfig, cfg.Overlap, cfg.ChunkSize)
	}
	if cfg.MinChunkSize < 0 {
		return nil, fmt.Errorf("%w: min chunk size must be non-negative, got %d", domain.ErrInvalidConfig, cfg.MinChunkSize)
	}
	return &Chunker{cfg: cfg}, nil
}

// Chunk splits text into the ordered chunk sequence. Empty text yields
// an empty sequence. Returned chunks carry Seq, Content and rune
// offsets into the source text; ID and DocumentID are left to the
// caller.
func (c *Chunker) Chunk(text string) ([]domain.Chunk, error) {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	// Short documents stay whole, even below the minimum chunk size.
	if n <= c.cfg.ChunkSize {
		return []domain.Chunk{{
			Seq:         0,
			Content:     text,
			StartOffset: 0,
			EndOffset:   n,
		}}, nil
	}

	var chunks []domain.Chunk
	start := 0
	for seq := 0; start < n; seq++ {
		end := start + c.cfg.ChunkSize
		if end >= n {
			end = n
		} else {
			end = c.breakPoint(runes, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			Seq:         seq,
			Content:     string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
		})

		if end == n {
			break
		}

		next := end - c.cfg.Overlap
		if next <= start {
			// A boundary cut produced a span shorter than the overlap;
			// skip the overlap for this pair to guarantee progress.
			next = end
		}
		start = next
	}

	// Discard a trailing fragment below the minimum, unless it is the
	// only chunk.
	if len(chunks) > 1 {
		last := chunks[len(chunks)-1]
		if last.EndOffset-last.StartOffset < c.cfg.MinChunkSize {
			chunks = chunks[:len(chunks)-1]
		}
	}

	return chunks, nil
}

// breakPoint finds the best cut position at or before hardEnd.
// It scans the trailing tolerance window for a paragraph break first,
// then a sentence end, and falls back to the hard cut.
func (c *Chunker) breakPoint(runes []rune, start, hardEnd int) int {
	window := int(float64(c.cfg.ChunkSize) * boundaryWindow)
	if window < 1 {
		window = 1
	}
	low := hardEnd - window
	if low < start+1 {
		low = start + 1
	}

	// Paragraph boundary: cut just after a newline.
	for i := hardEnd - 1; i >= low; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}

	// Sentence boundary: terminator followed by whitespace.
	for i := hardEnd - 1; i >= low; i-- {
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && isSpace(runes[i+1]) {
			return i + 1
		}
	}

	return hardEnd
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
