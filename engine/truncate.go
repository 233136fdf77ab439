package engine

// ingestTruncationCap and ingestTruncationFloor bound the embedding-input
// truncation policy: content is always stored whole; only the
// text handed to the embedder is shortened.
const (
	ingestTruncationCap   = 6000
	ingestTruncationFloor = 3000
)

// truncateForEmbedding returns the prefix of content used to compute its
// ingest-time embedding. content itself is never altered by this function.
// Positions are counted in runes to behave consistently for multi-byte text.
func truncateForEmbedding(content string) string {
	runes := []rune(content)
	if len(runes) <= ingestTruncationCap {
		return content
	}

	window := runes[:ingestTruncationCap]

	if idx := lastParagraphBoundary(window); idx > ingestTruncationFloor {
		return string(window[:idx])
	}

	if idx := lastSentenceBoundary(window); idx > ingestTruncationFloor {
		return string(window[:idx+1])
	}

	return string(window)
}

// lastParagraphBoundary returns the rune index at which the last "\n\n"
// occurrence in window begins, or -1 if none appears.
func lastParagraphBoundary(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i] == '\n' && window[i+1] == '\n' {
			return i
		}
	}
	return -1
}

// lastSentenceBoundary returns the rune index of the last occurrence of '。'
// or '\n' in window, or -1 if neither appears.
func lastSentenceBoundary(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '。' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
