package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josinaldojr/talkdoc-rag/internal/config"
	"github.com/josinaldojr/talkdoc-rag/internal/vectorstore"
)

type nullEmbedder struct{}

func (nullEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (nullEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}
func (nullEmbedder) Name() string  { return "null" }
func (nullEmbedder) Dimension() int { return 2 }

func TestNew_RequiresSecrets(t *testing.T) {
	cfg := &config.Config{}
	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrMissingSecret)
}

func TestOpenIndex_MissingChromemIsFatal(t *testing.T) {
	cfg := &config.Config{Index: config.IndexConfig{Backend: BackendChromem, Path: filepath.Join(t.TempDir(), "none")}}
	_, _, err := OpenIndex(context.Background(), cfg, nullEmbedder{})
	assert.ErrorIs(t, err, vectorstore.ErrIndexNotFound)
}

func TestOpenIndex_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Index: config.IndexConfig{Backend: "faiss"}}
	_, _, err := OpenIndex(context.Background(), cfg, nullEmbedder{})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, _, err = NewWriter(context.Background(), cfg, nullEmbedder{})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestWriterThenOpen(t *testing.T) {
	for _, backend := range []string{BackendChromem, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := &config.Config{Index: config.IndexConfig{
				Backend:    backend,
				Path:       filepath.Join(t.TempDir(), "medical_book_index"),
				Collection: "medical_book",
			}}

			w, closeWriter, err := NewWriter(ctx, cfg, nullEmbedder{})
			require.NoError(t, err)
			defer closeWriter()

			_, err = vectorstore.Build(ctx, w, nullEmbedder{}, "Influenza spreads through respiratory droplets.", "flu.txt", cfg.Index.Collection)
			require.NoError(t, err)

			idx, closeIndex, err := OpenIndex(ctx, cfg, nullEmbedder{})
			require.NoError(t, err)
			defer closeIndex()

			chunks, err := idx.Search(ctx, []float32{1, 0}, 5)
			require.NoError(t, err)
			require.Len(t, chunks, 1)
			assert.Equal(t, "Influenza spreads through respiratory droplets.", chunks[0].Content)
		})
	}
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	cfg := &config.Config{Embedding: config.EmbeddingConfig{Provider: "word2vec"}}
	_, err := NewEmbedder(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
