package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const dimensionSample = "dimension sample"

// OllamaEmbedder serves a local sentence-embedding model through Ollama.
type OllamaEmbedder struct {
	embedder  embeddings.Embedder
	model     string
	dimension int
}

// NewOllamaEmbedder connects to the model and embeds a sample sentence to
// learn the vector dimension. Any failure means the model is not usable.
func NewOllamaEmbedder(ctx context.Context, serverURL, model string) (*OllamaEmbedder, error) {
	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return newOllamaEmbedder(ctx, emb, model)
}

func newOllamaEmbedder(ctx context.Context, emb embeddings.Embedder, model string) (*OllamaEmbedder, error) {
	sample, err := emb.EmbedQuery(ctx, dimensionSample)
	if err != nil {
		return nil, fmt.Errorf("load embedding model %s: %w", model, err)
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("load embedding model %s: empty sample vector", model)
	}

	log.Info().Str("model", model).Int("dimension", len(sample)).Msg("embedding model loaded")
	return &OllamaEmbedder{embedder: emb, model: model, dimension: len(sample)}, nil
}

func (o *OllamaEmbedder) Name() string  { return o.model }
func (o *OllamaEmbedder) Dimension() int { return o.dimension }

func (o *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := o.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := o.checkDim(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (o *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	for _, v := range vecs {
		if err := o.checkDim(v); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

func (o *OllamaEmbedder) checkDim(v []float32) error {
	if len(v) != o.dimension {
		return fmt.Errorf("unexpected embedding size %d (expected %d)", len(v), o.dimension)
	}
	return nil
}

var _ rag.Embedder = (*OllamaEmbedder)(nil)
