// Package chunker splits narration text into provider-safe segments.
//
// Speech providers cap the input size of a single synthesis request. This
// package cuts long text into segments that stay under that cap, preferring
// sentence boundaries, then word boundaries, and falling back to a hard cut
// when neither lies far enough into the window.
package chunker

import "strings"

const (
	// DefaultMaxChunkSize leaves headroom below the provider's hard input
	// limit.
	DefaultMaxChunkSize = 4000

	// sentenceTerminators are the characters treated as sentence boundaries.
	sentenceTerminators = ".!?"
)

// Chunker splits text at a configured maximum segment size.
type Chunker struct {
	maxChunkSize int
}

// New creates a chunker with the given maximum segment size. Non-positive
// values fall back to DefaultMaxChunkSize.
func New(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	return &Chunker{maxChunkSize: maxChunkSize}
}

// MaxChunkSize returns the configured maximum segment size.
func (c *Chunker) MaxChunkSize() int {
	return c.maxChunkSize
}

// Split cuts text into segments no longer than the configured maximum. Text
// that already fits is returned as a single segment. Longer text is cut at
// the nearest sentence terminator before the window end, provided it lies
// past the midpoint of the window; failing that, at the nearest space under
// the same midpoint rule; failing both, hard at the window end. Segments are
// trimmed of surrounding whitespace and empty segments are dropped.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	if len(text) <= c.maxChunkSize {
		return []string{text}
	}

	var chunks []string

	current := 0
	for current < len(text) {
		end := current + c.maxChunkSize
		if end < len(text) {
			end = c.cutPoint(text, current, end)
		} else {
			end = len(text)
		}

		chunk := strings.TrimSpace(text[current:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		current = end
	}

	return chunks
}

// cutPoint picks where to end the chunk that starts at start, given the
// candidate window end. A boundary is only eligible when it lies past the
// midpoint of the window, so no chunk shrinks below half of the maximum
// size.
func (c *Chunker) cutPoint(text string, start, end int) int {
	midpoint := start + c.maxChunkSize/2

	if i := strings.LastIndexAny(text[:end+1], sentenceTerminators); i > midpoint {
		return i + 1
	}

	if i := strings.LastIndex(text[:end+1], " "); i > midpoint {
		return i
	}

	return end
}
