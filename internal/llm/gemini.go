// Package llm talks to the hosted generative-language service.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the public Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("generative language service is not configured")

// GeminiClient calls the generateContent endpoint
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *resty.Client
}

// NewGeminiClient creates a new client. An empty baseURL selects the public endpoint.
func NewGeminiClient(apiKey, model, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  resty.New().SetTimeout(60 * time.Second),
	}
}

// IsConfigured reports whether an API key is present.
func (g *GeminiClient) IsConfigured() bool {
	return g.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends a single-turn prompt and returns the concatenated text of
// the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.IsConfigured() {
		return "", ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var result generateResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil && resp.IsSuccess() {
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}

	if resp.IsError() {
		if result.Error != nil {
			return "", fmt.Errorf("gemini API returned %d: %s", resp.StatusCode(), result.Error.Message)
		}
		return "", fmt.Errorf("gemini API returned status %d", resp.StatusCode())
	}

	if len(result.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}

	var b strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
