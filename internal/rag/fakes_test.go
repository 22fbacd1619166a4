package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, _ := f.EmbedQuery(ctx, t)
		out = append(out, v)
	}
	return out, f.err
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f *fakeEmbedder) Name() string  { return "fake" }
func (f *fakeEmbedder) Dimension() int { return 3 }

type fakeIndex struct {
	chunks []Chunk
	err    error
	gotK   int
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]Chunk, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.chunks) {
		return f.chunks[:k], nil
	}
	return f.chunks, nil
}

type fakeSearcher struct {
	snippets []string
	err      error
	calls    int
}

func (f *fakeSearcher) Search(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.snippets, f.err
}

// scriptedModel answers by model name and records every completion it saw.
type scriptedModel struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []Completion
}

func (m *scriptedModel) Complete(_ context.Context, c Completion) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	if err := m.errs[c.Model]; err != nil {
		return "", err
	}
	if out, ok := m.responses[c.Model]; ok {
		return out, nil
	}
	return "", errors.New("unexpected model " + c.Model)
}

func (m *scriptedModel) promptFor(model string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c.Model == model {
			return c.Prompt
		}
	}
	return ""
}

func medicalChunks() []Chunk {
	texts := []string{
		"Cough is a reflex that clears the airways; a persistent cough lasts more than three weeks.",
		"Fever is a temporary rise in body temperature, often caused by infection.",
		"Bronchitis presents with cough, mucus, fatigue and low-grade fever.",
		"Pneumonia symptoms include cough with phlegm, fever, chills and shortness of breath.",
		"Influenza causes sudden fever, dry cough, sore throat and muscle aches.",
		"Tuberculosis may cause a chronic cough, night sweats and weight loss.",
	}
	out := make([]Chunk, 0, len(texts))
	for i, t := range texts {
		out = append(out, Chunk{ID: fmt.Sprintf("chunk-%d", i), Position: i, Content: t})
	}
	return out
}
