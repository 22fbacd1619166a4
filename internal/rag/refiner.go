package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrEmptyAnswer = errors.New("model returned an empty answer")

// Refiner fact-checks a draft against fresh web context and rewrites it
// for patients.
type Refiner struct {
	model     ChatModel
	modelName string
	searcher  WebSearcher
}

func NewRefiner(model ChatModel, modelName string, searcher WebSearcher) *Refiner {
	return &Refiner{model: model, modelName: modelName, searcher: searcher}
}

// WebContext never fails: search errors and empty results both become
// NoWebContext so the refinement prompt stays well formed.
func (r *Refiner) WebContext(ctx context.Context, query string) string {
	snippets, err := r.searcher.Search(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("web search failed, using sentinel context")
		return NoWebContext
	}
	if len(snippets) == 0 {
		log.Info().Str("query", query).Msg("web search returned no snippets")
		return NoWebContext
	}
	return strings.Join(snippets, "\n")
}

func (r *Refiner) Refine(ctx context.Context, draft, query string) (string, error) {
	final, _, err := r.refine(ctx, draft, query)
	return final, err
}

func (r *Refiner) refine(ctx context.Context, draft, query string) (string, string, error) {
	webContext := r.WebContext(ctx, query)

	prompt, err := render(refinerPrompt, map[string]any{
		"query":         strings.TrimSpace(query),
		"raw_answer":    draft,
		"extra_context": webContext,
	})
	if err != nil {
		return "", webContext, err
	}

	out, err := r.model.Complete(ctx, Completion{
		Model:       r.modelName,
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		return "", webContext, fmt.Errorf("refine answer: %w", err)
	}

	final := StripThinking(out)
	if final == "" {
		return "", webContext, ErrEmptyAnswer
	}
	return final, webContext, nil
}
