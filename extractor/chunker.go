package extractor

import "regexp"

// DefaultChunkBudget is the maximum rune count any chunk may contain.
const DefaultChunkBudget = 3000

var (
	paragraphBoundary = regexp.MustCompile(`\n\n+`)
	sentenceBoundary  = regexp.MustCompile(`[.!?。！？][ \t\r\n]+`)
)

// Chunk splits text into pieces that never exceed budget runes, preserving
// document order. Paragraph boundaries are tried first; a paragraph that
// still exceeds budget is split on sentence boundaries; a sentence that
// still exceeds budget is hard-sliced.
func Chunk(text string, budget int) []string {
	if budget <= 0 {
		budget = DefaultChunkBudget
	}

	var chunks []string
	for _, para := range paragraphBoundary.Split(text, -1) {
		if para == "" {
			continue
		}
		chunks = append(chunks, chunkParagraph(para, budget)...)
	}
	return chunks
}

func chunkParagraph(para string, budget int) []string {
	if len([]rune(para)) <= budget {
		return []string{para}
	}

	var chunks []string
	for _, sentence := range splitSentences(para) {
		chunks = append(chunks, hardSlice(sentence, budget)...)
	}
	return chunks
}

func splitSentences(para string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(para, -1) {
		sentences = append(sentences, para[last:loc[1]])
		last = loc[1]
	}
	if last < len(para) {
		sentences = append(sentences, para[last:])
	}
	return sentences
}

func hardSlice(s string, budget int) []string {
	runes := []rune(s)
	if len(runes) <= budget {
		return []string{s}
	}

	var slices []string
	for start := 0; start < len(runes); start += budget {
		end := start + budget
		if end > len(runes) {
			end = len(runes)
		}
		slices = append(slices, string(runes[start:end]))
	}
	return slices
}
