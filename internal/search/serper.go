package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const (
	DefaultURL        = "https://google.serper.dev/search"
	DefaultMaxResults = 5
	DefaultRateLimit  = 5
)

// SerperClient fetches Google result snippets through serper.dev.
type SerperClient struct {
	apiKey     string
	url        string
	maxResults int
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*SerperClient)

func WithHTTPClient(c *http.Client) Option {
	return func(s *SerperClient) { s.httpClient = c }
}

// WithRateLimit caps outgoing requests per second. Zero removes the cap.
func WithRateLimit(perSecond int) Option {
	return func(s *SerperClient) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

func NewSerperClient(apiKey, url string, maxResults int, opts ...Option) *SerperClient {
	if url == "" {
		url = DefaultURL
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	s := &SerperClient{
		apiKey:     apiKey,
		url:        url,
		maxResults: maxResults,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type serperRequest struct {
	Q string `json:"q"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns at most maxResults non-empty snippets in result order.
func (s *SerperClient) Search(ctx context.Context, query string) ([]string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("serper rate limit: %w", err)
		}
	}

	body, err := json.Marshal(serperRequest{Q: query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serper status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	snippets := make([]string, 0, s.maxResults)
	for _, r := range out.Organic {
		snippet := strings.TrimSpace(r.Snippet)
		if snippet == "" {
			continue
		}
		snippets = append(snippets, snippet)
		if len(snippets) == s.maxResults {
			break
		}
	}
	return snippets, nil
}

var _ rag.WebSearcher = (*SerperClient)(nil)
