package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const (
	embeddingModel = "models/text-embedding-004"
	embedDim       = 768
	embedBatchSize = 100

	transcribePrompt = "Transcribe this audio recording exactly as spoken, in the language it is spoken. " +
		"Reply with the transcript only."
)

// GeminiClient provides embeddings and speech-to-text through the Gemini API.
type GeminiClient struct {
	client          *genai.Client
	transcribeModel string
}

func NewGeminiClient(ctx context.Context, apiKey, transcribeModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: c, transcribeModel: transcribeModel}, nil
}

func (g *GeminiClient) Name() string  { return embeddingModel }
func (g *GeminiClient) Dimension() int { return embedDim }

func (g *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (g *GeminiClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		vecs, err := g.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (g *GeminiClient) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		clean := normalizeWhitespace(t)
		if clean == "" {
			return nil, fmt.Errorf("empty text for embedding")
		}
		contents = append(contents, genai.NewContentFromText(clean, genai.RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(
		ctx,
		embeddingModel,
		contents,
		&genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(embedDim)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		if len(e.Values) != embedDim {
			return nil, fmt.Errorf("unexpected embedding size %d (expected %d)", len(e.Values), embedDim)
		}
		vec := make([]float32, embedDim)
		for i, v := range e.Values {
			vec[i] = float32(v)
		}
		out = append(out, vec)
	}
	return out, nil
}

// Transcribe converts recorded speech to text.
func (g *GeminiClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio")
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(audio)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcribePrompt),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.transcribeModel, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	})
	if err != nil {
		return "", fmt.Errorf("gemini transcribe error: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", fmt.Errorf("speech recognition returned no text")
	}
	return txt, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var _ rag.Embedder = (*GeminiClient)(nil)
