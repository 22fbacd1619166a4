package rag

import (
	"context"
	"fmt"
	"strings"
)

// Generator drafts an answer from the knowledge base context.
type Generator struct {
	model     ChatModel
	modelName string
}

func NewGenerator(model ChatModel, modelName string) *Generator {
	return &Generator{model: model, modelName: modelName}
}

func (g *Generator) Generate(ctx context.Context, query, indexContext string) (string, error) {
	prompt, err := render(generatorPrompt, map[string]any{
		"context": indexContext,
		"query":   strings.TrimSpace(query),
	})
	if err != nil {
		return "", err
	}

	out, err := g.model.Complete(ctx, Completion{
		Model:       g.modelName,
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("generate draft: %w", err)
	}
	return out, nil
}
