package ingest

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const (
	ChunkSize    = 1000
	ChunkOverlap = 200
)

// Split cuts text into overlapping chunks, preferring paragraph, line and
// word boundaries. Chunk positions follow document order.
func Split(text string) ([]rag.Chunk, error) {
	return SplitWith(text, ChunkSize, ChunkOverlap)
}

func SplitWith(text string, size, overlap int) ([]rag.Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)

	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := make([]rag.Chunk, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pos := len(chunks)
		chunks = append(chunks, rag.Chunk{
			ID:       fmt.Sprintf("chunk-%06d", pos),
			Position: pos,
			Content:  p,
		})
	}
	return chunks, nil
}
