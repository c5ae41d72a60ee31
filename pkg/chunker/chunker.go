package chunker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when the text to chunk is empty or all whitespace.
	ErrEmptyInput = errors.New("cannot chunk empty text")
)

// ConfigError reports an invalid size/overlap combination. It is a
// construction-time error, never a runtime one.
type ConfigError struct {
	Size    int
	Overlap int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunker config: size=%d overlap=%d (require size > overlap >= 0)", e.Size, e.Overlap)
}

// Chunker splits text into overlapping windows of whitespace-separated words.
// Consecutive windows share Overlap words, so windows advance by
// Size - Overlap words. Chunking is deterministic: the same text always
// yields the same sequence.
type Chunker struct {
	size    int
	overlap int
}

// New validates the window configuration. size > overlap >= 0 must hold,
// otherwise windows would not advance.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &ConfigError{Size: size, Overlap: overlap}
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into word windows. The final window may be shorter than
// the configured size.
func (c *Chunker) Chunk(text string) ([]string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, ErrEmptyInput
	}

	step := c.size - c.overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks, nil
}

// Size returns the configured window size in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }
