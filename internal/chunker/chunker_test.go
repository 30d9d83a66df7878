// Package chunker_test tests the text chunking algorithm.
package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowline/audio-service/internal/chunker"
)

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	t.Parallel()

	split := chunker.New(4000)

	text := "A short narration that easily fits in one request."
	chunks := split.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_EmptyTextHasNoChunks(t *testing.T) {
	t.Parallel()

	split := chunker.New(4000)

	assert.Empty(t, split.Split(""))
}

func TestSplit_ExactLimitIsSingleChunk(t *testing.T) {
	t.Parallel()

	split := chunker.New(100)

	text := strings.Repeat("a", 100)
	chunks := split.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_LongTextCutsAtSentenceBoundaries(t *testing.T) {
	t.Parallel()

	split := chunker.New(4000)

	// 180 sentences of 50 characters each: 9000 characters total.
	sentence := strings.Repeat("word ", 9) + "end. "
	require.Len(t, sentence, 50)

	text := strings.TrimSuffix(strings.Repeat(sentence, 180), " ")

	chunks := split.Split(text)

	require.Len(t, chunks, 3)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 4000)
		assert.NotEmpty(t, chunk)
		assert.True(t, strings.HasSuffix(chunk, "."), "chunk should end at a sentence boundary")
	}
}

func TestSplit_RejoiningChunksReproducesText(t *testing.T) {
	t.Parallel()

	split := chunker.New(500)

	sentence := "The quick brown fox jumps over the lazy dog. "
	text := strings.TrimSpace(strings.Repeat(sentence, 60))

	chunks := split.Split(text)

	require.Greater(t, len(chunks), 1)

	// Only whitespace may differ at cut points.
	stripped := strings.ReplaceAll(text, " ", "")
	joined := strings.ReplaceAll(strings.Join(chunks, ""), " ", "")
	assert.Equal(t, stripped, joined)
}

func TestSplit_NoPunctuationFallsBackToWordBoundaries(t *testing.T) {
	t.Parallel()

	split := chunker.New(100)

	text := strings.TrimSpace(strings.Repeat("abcdefgh ", 40))

	chunks := split.Split(text)

	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
		assert.Equal(t, strings.TrimSpace(chunk), chunk)
		assert.False(t, strings.HasPrefix(chunk, " "))
	}
}

func TestSplit_NoBoundariesDegeneratesToHardCuts(t *testing.T) {
	t.Parallel()

	split := chunker.New(4000)

	text := strings.Repeat("a", 10000)

	chunks := split.Split(text)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 4000)
	assert.Len(t, chunks[1], 4000)
	assert.Len(t, chunks[2], 2000)
}

func TestSplit_BoundaryBeforeMidpointIsIgnored(t *testing.T) {
	t.Parallel()

	split := chunker.New(4000)

	// The only sentence terminator sits near the start of the window, well
	// before the midpoint, so the cut must be a hard one at the window end.
	text := "A." + strings.Repeat("b", 5000)

	chunks := split.Split(text)

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 4000)
	assert.Len(t, chunks[1], 1002)
}

func TestNew_NonPositiveSizeUsesDefault(t *testing.T) {
	t.Parallel()

	split := chunker.New(0)

	assert.Equal(t, chunker.DefaultMaxChunkSize, split.MaxChunkSize())
}
