package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForEmbeddingShortContentPassesThrough(t *testing.T) {
	content := "a short document"
	assert.Equal(t, content, truncateForEmbedding(content))
}

func TestTruncateForEmbeddingCutsAtParagraphBoundary(t *testing.T) {
	content := strings.Repeat("A", 5900) + "\n\n" + strings.Repeat("B", 2000)
	got := truncateForEmbedding(content)
	assert.Equal(t, strings.Repeat("A", 5900), got)
}

func TestTruncateForEmbeddingFallsBackToSentenceBoundary(t *testing.T) {
	content := strings.Repeat("A", 4000) + "。" + strings.Repeat("B", 3000)
	got := truncateForEmbedding(content)
	assert.Equal(t, strings.Repeat("A", 4000)+"。", got)
}

func TestTruncateForEmbeddingHardCutsWhenNoBoundaryPastFloor(t *testing.T) {
	content := strings.Repeat("A", 7000)
	got := truncateForEmbedding(content)
	assert.Equal(t, 6000, len([]rune(got)))
	assert.Equal(t, strings.Repeat("A", 6000), got)
}

func TestTruncateForEmbeddingIgnoresBoundaryBeforeFloor(t *testing.T) {
	content := strings.Repeat("A", 1000) + "\n\n" + strings.Repeat("B", 6000)
	got := truncateForEmbedding(content)
	assert.Equal(t, 6000, len([]rune(got)))
}
