// Package app wires configuration into the components shared by the
// binaries under cmd/.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/josinaldojr/talkdoc-rag/internal/assistant"
	"github.com/josinaldojr/talkdoc-rag/internal/config"
	"github.com/josinaldojr/talkdoc-rag/internal/db"
	"github.com/josinaldojr/talkdoc-rag/internal/llm"
	"github.com/josinaldojr/talkdoc-rag/internal/rag"
	"github.com/josinaldojr/talkdoc-rag/internal/search"
	"github.com/josinaldojr/talkdoc-rag/internal/vectorstore"
)

const (
	BackendChromem  = "chromem"
	BackendPgvector = "pgvector"
	BackendSQLite   = "sqlite"
)

var ErrUnknownBackend = errors.New("unknown backend")

// App holds the long-lived components of a serving process.
type App struct {
	Service   *rag.Service
	Assistant *assistant.Assistant

	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New loads the embedder and the index, then builds the pipeline and the
// input adapters. Any failure here is meant to stop the process.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.RequireSecrets(); err != nil {
		return nil, err
	}

	a := &App{}

	var gemini *llm.GeminiClient
	if cfg.GoogleAPIKey != "" {
		g, err := llm.NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.LLM.TranscribeModel)
		if err != nil {
			return nil, err
		}
		gemini = g
	}

	embedder, err := newEmbedder(ctx, cfg, gemini)
	if err != nil {
		return nil, err
	}

	index, closeIndex, err := OpenIndex(ctx, cfg, embedder)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeIndex)

	groq, err := llm.NewGroqClient(cfg.GroqAPIKey, cfg.LLM.BaseURL, cfg.LLM.VisionModel)
	if err != nil {
		a.Close()
		return nil, err
	}
	serper := search.NewSerperClient(cfg.SerperAPIKey, cfg.Search.URL, cfg.Search.MaxResults,
		search.WithRateLimit(cfg.Search.RateLimit))

	a.Service = rag.NewService(
		rag.NewRetriever(embedder, index, cfg.Index.TopK),
		rag.NewGenerator(groq, cfg.LLM.MainModel),
		rag.NewRefiner(groq, cfg.LLM.RefineModel, serper),
	)

	opts := []assistant.Option{assistant.WithDescriber(groq)}
	if gemini != nil {
		opts = append(opts, assistant.WithTranscriber(gemini))
	} else {
		log.Warn().Msg("GOOGLE_API_KEY not set, voice input disabled")
	}

	a.Assistant = assistant.New(
		rag.NewClassifier(groq, cfg.LLM.ClassifierModel),
		a.Service,
		assistant.NewNormalizer(cfg.CanonicalLanguage, assistant.NewLLMTranslator(groq, cfg.LLM.TranslateModel), cfg.SupportedLanguages...),
		opts...,
	)

	return a, nil
}

// NewEmbedder builds the configured embedding provider. It is also used
// by the index builder, so the two sides always agree.
func NewEmbedder(ctx context.Context, cfg *config.Config) (rag.Embedder, error) {
	var gemini *llm.GeminiClient
	if cfg.Embedding.Provider == "gemini" {
		g, err := llm.NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.LLM.TranscribeModel)
		if err != nil {
			return nil, err
		}
		gemini = g
	}
	return newEmbedder(ctx, cfg, gemini)
}

func newEmbedder(ctx context.Context, cfg *config.Config, gemini *llm.GeminiClient) (rag.Embedder, error) {
	var (
		e   rag.Embedder
		err error
	)

	switch cfg.Embedding.Provider {
	case "", "ollama":
		e, err = llm.NewOllamaEmbedder(ctx, cfg.Embedding.ServerURL, cfg.Embedding.Model)
	case "gemini":
		if gemini == nil {
			return nil, fmt.Errorf("%w: GOOGLE_API_KEY for gemini embeddings", config.ErrMissingSecret)
		}
		e = gemini
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", ErrUnknownBackend, cfg.Embedding.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	log.Info().Str("model", e.Name()).Int("dimension", e.Dimension()).Msg("embedder ready")
	return e, nil
}

// OpenIndex opens the configured index for embedder. The returned func
// releases backend resources.
func OpenIndex(ctx context.Context, cfg *config.Config, embedder rag.Embedder) (rag.Index, func(), error) {
	switch cfg.Index.Backend {
	case "", BackendChromem:
		idx, err := vectorstore.OpenChromem(cfg.Index.Path, embedder)
		if err != nil {
			return nil, nil, err
		}
		logManifest(idx.Manifest())
		return idx, func() {}, nil

	case BackendPgvector:
		pool, err := db.NewPool(ctx, cfg.Index.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		idx, err := vectorstore.OpenPg(ctx, pool, embedder)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logManifest(idx.Manifest())
		return idx, pool.Close, nil

	case BackendSQLite:
		idx, err := vectorstore.OpenSQLite(ctx, cfg.Index.Path, embedder)
		if err != nil {
			return nil, nil, err
		}
		logManifest(idx.Manifest())
		return idx, func() {}, nil
	}

	return nil, nil, fmt.Errorf("%w: index backend %q", ErrUnknownBackend, cfg.Index.Backend)
}

// NewWriter returns the index writer for the configured backend.
func NewWriter(ctx context.Context, cfg *config.Config, embedder rag.Embedder) (vectorstore.Writer, func(), error) {
	switch cfg.Index.Backend {
	case "", BackendChromem:
		return &vectorstore.ChromemWriter{Dir: cfg.Index.Path, Embedder: embedder}, func() {}, nil

	case BackendPgvector:
		pool, err := db.NewPool(ctx, cfg.Index.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return &vectorstore.PgWriter{DB: pool}, pool.Close, nil

	case BackendSQLite:
		return &vectorstore.SQLiteWriter{Dir: cfg.Index.Path}, func() {}, nil
	}

	return nil, nil, fmt.Errorf("%w: index backend %q", ErrUnknownBackend, cfg.Index.Backend)
}

func logManifest(m vectorstore.Manifest) {
	log.Info().
		Str("build_id", m.BuildID).
		Str("collection", m.Collection).
		Int("chunks", m.Chunks).
		Time("built_at", m.CreatedAt).
		Msg("vector index loaded")
}
