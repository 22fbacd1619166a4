package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrEmptyQuery = errors.New("query is required")

// Service is the query answering pipeline: retrieve, draft, refine.
// It does not classify; gating belongs to the caller.
type Service struct {
	retriever *Retriever
	generator *Generator
	refiner   *Refiner
}

func NewService(retriever *Retriever, generator *Generator, refiner *Refiner) *Service {
	return &Service{
		retriever: retriever,
		generator: generator,
		refiner:   refiner,
	}
}

// AnswerQuery returns only the refined answer text.
func (s *Service) AnswerQuery(ctx context.Context, query string) (string, error) {
	a, err := s.Answer(ctx, query)
	if err != nil {
		return "", err
	}
	return a.Final, nil
}

func (s *Service) Answer(ctx context.Context, query string) (*Answer, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	logger := log.With().Str("query", q).Logger()
	logger.Info().Msg("processing query")

	chunks, err := s.retriever.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	indexContext := JoinChunks(chunks)
	logger.Debug().Int("chunks", len(chunks)).Msg("retrieved index context")

	draft, err := s.generator.Generate(ctx, q, indexContext)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("draft_len", len(draft)).Msg("draft generated")

	final, webContext, err := s.refiner.refine(ctx, draft, q)
	if err != nil {
		return nil, err
	}
	logger.Info().Dur("elapsed", time.Since(start)).Int("answer_len", len(final)).Msg("query answered")

	return &Answer{
		Query:        q,
		Chunks:       chunks,
		IndexContext: indexContext,
		WebContext:   webContext,
		Draft:        draft,
		Final:        final,
	}, nil
}
