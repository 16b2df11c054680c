// Package gemini wraps the Google generative API behind two call shapes:
// schema-constrained JSON generation and search-grounded text generation.
//
// The wrapper is deliberately thin: it validates inputs, applies a per-call
// timeout, and converts the API's failure modes into typed errors. It never
// retries; retry is a user-initiated action at the UI layer.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Model names used by the service. The lighter model handles per-source
// analysis and discovery search; the heavier one handles synthesis and
// report structuring.
const (
	ModelFlash = "gemini-2.5-flash"
	ModelLite  = "gemini-2.0-flash"
)

// Config configures the Client.
type Config struct {
	// APIKey for the Gemini API. Required.
	APIKey string

	// Timeout applied to every generation call. Default: 60s.
	Timeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client calls the Gemini API.
type Client struct {
	api    *genai.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Client. The API key is validated here so a misconfigured
// deployment fails at startup, not on the first request.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: APIKey is required")
	}
	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{api: api, cfg: cfg, logger: cfg.Logger}, nil
}

// GenerateStructured sends a prompt with a response schema and returns the
// raw JSON bytes of the model output. Despite the schema being enforced at
// the service boundary, the model occasionally still emits markdown fences
// or invalid JSON, so the output is cleaned and parse-checked here.
func (c *Client) GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("gemini: empty prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	raw := resp.Text()
	c.logger.Debug("gemini: structured call", "model", model,
		"duration_ms", time.Since(start).Milliseconds(), "bytes", len(raw))

	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}
	if !json.Valid([]byte(cleaned)) {
		// Capture the raw text: it is the only evidence of what went wrong.
		return nil, &MalformedError{Raw: raw, Err: fmt.Errorf("output is not valid JSON")}
	}
	return []byte(cleaned), nil
}

// Grounded is the outcome of a search-grounded generation call.
type Grounded struct {
	Text             string
	Chunks           []Chunk
	WebSearchQueries []string
}

// WebSource identifies one web page surfaced by search grounding.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Chunk mirrors the grounding metadata wire shape exposed in forensics.
type Chunk struct {
	Web *WebSource `json:"web,omitempty"`
}

// Citation is a deduplicated (title, URL) pair.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Citations returns the grounding sources deduplicated by URL, first
// occurrence winning, in the provider's ranking order.
func (g *Grounded) Citations() []Citation {
	seen := make(map[string]bool, len(g.Chunks))
	var out []Citation
	for _, ch := range g.Chunks {
		if ch.Web == nil || ch.Web.URI == "" || seen[ch.Web.URI] {
			continue
		}
		seen[ch.Web.URI] = true
		out = append(out, Citation{Title: ch.Web.Title, URL: ch.Web.URI})
	}
	return out
}

// GenerateGrounded sends a prompt with the Google Search tool enabled and
// returns the generated text together with the grounding metadata.
func (c *Client) GenerateGrounded(ctx context.Context, model, prompt string) (*Grounded, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("gemini: empty prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	g := &Grounded{Text: text}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		md := resp.Candidates[0].GroundingMetadata
		g.WebSearchQueries = md.WebSearchQueries
		for _, ch := range md.GroundingChunks {
			if ch.Web == nil {
				continue
			}
			g.Chunks = append(g.Chunks, Chunk{Web: &WebSource{URI: ch.Web.URI, Title: ch.Web.Title}})
		}
	}

	c.logger.Debug("gemini: grounded call", "model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"chunks", len(g.Chunks), "queries", len(g.WebSearchQueries))

	return g, nil
}

// stripFences removes markdown code fences the model sometimes wraps around
// JSON output, plus surrounding whitespace.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
