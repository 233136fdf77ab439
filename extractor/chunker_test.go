package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkNeverExceedsBudget(t *testing.T) {
	text := strings.Repeat("word ", 2000) + "\n\n" + strings.Repeat("other ", 2000)
	chunks := Chunk(text, 100)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 100)
	}
}

func TestChunkPreservesParagraphs(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph\n\nthird paragraph"
	chunks := Chunk(text, DefaultChunkBudget)

	assert.Equal(t, []string{"first paragraph", "second paragraph", "third paragraph"}, chunks)
}

func TestChunkSplitsOversizedParagraphBySentence(t *testing.T) {
	text := strings.Repeat("a", 60) + ". " + strings.Repeat("b", 60) + ". "
	chunks := Chunk(text, 70)

	assert.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 70)
	}
}

func TestChunkHardSlicesOversizedSentence(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := Chunk(text, 100)

	assert.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("x", 100), chunks[0])
	assert.Equal(t, strings.Repeat("x", 100), chunks[1])
	assert.Equal(t, strings.Repeat("x", 50), chunks[2])
}

func TestChunkPreservesDocumentOrder(t *testing.T) {
	text := "alpha\n\nbeta\n\ngamma\n\ndelta"
	chunks := Chunk(text, DefaultChunkBudget)

	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, chunks)
}
