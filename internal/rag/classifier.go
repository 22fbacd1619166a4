package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Classifier decides whether a text is health related. It is fail-closed:
// any answer other than one starting with YES counts as not medical.
type Classifier struct {
	model     ChatModel
	modelName string
}

func NewClassifier(model ChatModel, modelName string) *Classifier {
	return &Classifier{model: model, modelName: modelName}
}

func (c *Classifier) IsMedical(ctx context.Context, text string) (bool, error) {
	prompt, err := render(classifierPrompt, map[string]any{"text": text})
	if err != nil {
		return false, err
	}

	out, err := c.model.Complete(ctx, Completion{
		Model:       c.modelName,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   5,
	})
	if err != nil {
		return false, fmt.Errorf("classify: %w", err)
	}

	verdict := ParseVerdict(out)
	log.Debug().Str("raw", out).Bool("medical", verdict).Msg("classifier verdict")
	return verdict, nil
}

// ParseVerdict maps raw classifier output to a boolean.
func ParseVerdict(out string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(out)), "YES")
}
