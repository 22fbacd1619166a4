package rag

import (
	"context"
	"fmt"
	"strings"
)

const DefaultTopK = 5

// Retriever embeds a query and looks it up in the vector index.
type Retriever struct {
	embedder Embedder
	index    Index
	topK     int
}

func NewRetriever(embedder Embedder, index Index, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, index: index, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Chunk, error) {
	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := r.index.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return chunks, nil
}

// JoinChunks concatenates chunk contents, newline separated, or returns
// NoIndexContext when there is nothing to join.
func JoinChunks(chunks []Chunk) string {
	if len(chunks) == 0 {
		return NoIndexContext
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n")
}
