package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

var translatePrompt = prompts.NewPromptTemplate(`Translate the following text from {{.source}} to {{.target}}.
Keep medical terms accurate and keep any formatting such as lists and headings.
Reply with the translation only, without notes or explanations.

Text:
{{.text}}`, []string{"source", "target", "text"})

// LLMTranslator translates with a chat model.
type LLMTranslator struct {
	model     rag.ChatModel
	modelName string
}

func NewLLMTranslator(model rag.ChatModel, modelName string) *LLMTranslator {
	return &LLMTranslator{model: model, modelName: modelName}
}

func (t *LLMTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(text) == "" || from == to {
		return text, nil
	}

	prompt, err := translatePrompt.Format(map[string]any{
		"source": languageName(from),
		"target": languageName(to),
		"text":   text,
	})
	if err != nil {
		return "", fmt.Errorf("render translate prompt: %w", err)
	}

	out, err := t.model.Complete(ctx, rag.Completion{
		Model:       t.modelName,
		Prompt:      prompt,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	out = rag.StripThinking(out)
	if out == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out, nil
}

// languageName turns "bn" into "Bengali". Unknown codes are returned as is.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
