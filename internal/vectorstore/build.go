package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/josinaldojr/talkdoc-rag/internal/ingest"
	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const embedBatchSize = 64

// Writer persists a complete index in one go.
type Writer interface {
	Write(ctx context.Context, m Manifest, chunks []rag.Chunk, vectors [][]float32) error
}

var ErrNoChunks = errors.New("source produced no chunks")

// Build splits text, embeds every chunk and hands the result to w.
func Build(ctx context.Context, w Writer, embedder rag.Embedder, text, source, collection string) (Manifest, error) {
	chunks, err := ingest.Split(text)
	if err != nil {
		return Manifest{}, err
	}
	if len(chunks) == 0 {
		return Manifest{}, ErrNoChunks
	}
	log.Info().Int("chunks", len(chunks)).Str("source", source).Msg("source split into chunks")

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		vecs, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return Manifest{}, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(vecs) != len(texts) {
			return Manifest{}, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(texts))
		}
		for _, v := range vecs {
			if len(v) != embedder.Dimension() {
				return Manifest{}, fmt.Errorf("embedding has %d dimensions, expected %d", len(v), embedder.Dimension())
			}
		}
		vectors = append(vectors, vecs...)
		log.Debug().Int("done", end).Int("total", len(chunks)).Msg("embedded chunks")
	}

	m := NewManifest(embedder, collection, source, len(chunks))
	if err := w.Write(ctx, m, chunks, vectors); err != nil {
		return Manifest{}, err
	}

	log.Info().Str("build_id", m.BuildID).Int("chunks", m.Chunks).Int("dimension", m.Dimension).Msg("index written")
	return m, nil
}
