package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const (
	defaultImagePrompt = "Describe this medical or skin image in detail."
	visionMaxTokens    = 600
	visionTemperature  = 0.3
)

// GroqClient talks to Groq through its OpenAI compatible endpoint. Every
// call returns plain text; provider response shapes never leave this file.
type GroqClient struct {
	llm         llms.Model
	visionModel string
}

func NewGroqClient(apiKey, baseURL, visionModel string) (*GroqClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GROQ_API_KEY")
	}

	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &GroqClient{llm: client, visionModel: visionModel}, nil
}

func newGroqClientWithModel(m llms.Model, visionModel string) *GroqClient {
	return &GroqClient{llm: m, visionModel: visionModel}
}

func (g *GroqClient) Complete(ctx context.Context, c rag.Completion) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, c.Prompt),
	}
	return g.generate(ctx, msgs, c.Model, c.Temperature, c.MaxTokens)
}

// DescribeImage asks the vision model to describe an image. An empty
// question falls back to a generic medical description request.
func (g *GroqClient) DescribeImage(ctx context.Context, image []byte, mimeType, question string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	prompt := strings.TrimSpace(question)
	if prompt == "" {
		prompt = defaultImagePrompt
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	msgs := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
				llms.ImageURLPart(dataURL),
			},
		},
	}
	return g.generate(ctx, msgs, g.visionModel, visionTemperature, visionMaxTokens)
}

func (g *GroqClient) generate(ctx context.Context, msgs []llms.MessageContent, model string, temperature float64, maxTokens int) (string, error) {
	opts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(temperature),
	}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}

	resp, err := g.llm.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("groq %s: %w", model, err)
	}
	return responseText(resp)
}

// responseText unwraps the first choice of a provider response.
func responseText(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", errors.New("empty response from model")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

var _ rag.ChatModel = (*GroqClient)(nil)
