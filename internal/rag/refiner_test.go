package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefiner_WebContext(t *testing.T) {
	t.Run("joins snippets", func(t *testing.T) {
		r := NewRefiner(&scriptedModel{}, "ref", &fakeSearcher{snippets: []string{"a", "b"}})
		assert.Equal(t, "a\nb", r.WebContext(context.Background(), "q"))
	})

	t.Run("empty results use sentinel", func(t *testing.T) {
		r := NewRefiner(&scriptedModel{}, "ref", &fakeSearcher{})
		assert.Equal(t, NoWebContext, r.WebContext(context.Background(), "q"))
	})

	t.Run("search failure uses sentinel", func(t *testing.T) {
		r := NewRefiner(&scriptedModel{}, "ref", &fakeSearcher{err: errors.New("dns")})
		assert.Equal(t, NoWebContext, r.WebContext(context.Background(), "q"))
	})
}

func TestRefiner_StripsThinkingFromOutput(t *testing.T) {
	model := &scriptedModel{responses: map[string]string{
		"ref": "<think>the draft mentions <think>nested</think> stuff</think>\n- Rest\n- Fluids\n\nSummary: rest.",
	}}
	searcher := &fakeSearcher{snippets: []string{"Fever usually resolves in a few days."}}
	r := NewRefiner(model, "ref", searcher)

	out, err := r.Refine(context.Background(), "<think>draft reasoning</think>Rest and fluids.", "fever")
	require.NoError(t, err)

	assert.NotContains(t, out, "<think>")
	assert.NotContains(t, out, "</think>")
	assert.Contains(t, out, "Summary: rest.")
	assert.Equal(t, 1, searcher.calls)

	prompt := model.promptFor("ref")
	assert.Contains(t, prompt, "Fever usually resolves in a few days.")
	assert.Contains(t, prompt, "Rest and fluids.")
	assert.Contains(t, prompt, "Include a short summary at the end")
}

func TestRefiner_SearchFailureDoesNotAbort(t *testing.T) {
	model := &scriptedModel{responses: map[string]string{"ref": "Final answer."}}
	r := NewRefiner(model, "ref", &fakeSearcher{err: errors.New("timeout")})

	out, err := r.Refine(context.Background(), "draft", "fever")
	require.NoError(t, err)
	assert.Equal(t, "Final answer.", out)
	assert.Contains(t, model.promptFor("ref"), NoWebContext)
}

func TestRefiner_EmptyAfterStripIsError(t *testing.T) {
	model := &scriptedModel{responses: map[string]string{"ref": "<think>only reasoning</think>"}}
	r := NewRefiner(model, "ref", &fakeSearcher{})

	_, err := r.Refine(context.Background(), "draft", "fever")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}
