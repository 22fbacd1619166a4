package rag

import "context"

// Embedder turns text into fixed-length vectors. The same instance must be
// used to build an index and to query it.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Name() string
	Dimension() int
}

// Index answers top-k nearest neighbour queries, nearest first.
type Index interface {
	Search(ctx context.Context, embedding []float32, k int) ([]Chunk, error)
}

// WebSearcher returns snippet texts for a query.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Completion is a single-turn model call.
type Completion struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// ChatModel runs a completion and returns the plain response text.
type ChatModel interface {
	Complete(ctx context.Context, c Completion) (string, error)
}
