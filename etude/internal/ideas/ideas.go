// Package ideas generates candidate research ideas from user keywords.
//
// Every invocation is a fresh single-shot call: no retry, no cache.
// "Generate more" at the UI is simply another invocation.
package ideas

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/hazyhaar/etude/etude/internal/gemini"
)

// Count is the contracted number of ideas per invocation.
const Count = 10

// Idea is one candidate research project.
type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Params carries the brainstorm parameters. Keywords emptiness is a usage
// error enforced at the HTTP layer, not here.
type Params struct {
	Keywords       string `json:"keywords"`
	Subject        string `json:"subject"`
	TimeCommitment string `json:"timeCommitment"`
	Scope          string `json:"scope"`
	Skills         string `json:"skills"`
	OutputFormat   string `json:"outputFormat"`
	Tone           string `json:"tone"`
}

// StructuredClient is the slice of the gemini client this package needs.
type StructuredClient interface {
	GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) ([]byte, error)
}

// Config configures the Generator.
type Config struct {
	Client StructuredClient
	// Model used for brainstorming. Default: gemini.ModelFlash.
	Model  string
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = gemini.ModelFlash
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Generator produces idea lists.
type Generator struct {
	cfg Config
}

// New creates a Generator.
func New(cfg Config) *Generator {
	cfg.defaults()
	return &Generator{cfg: cfg}
}

// Generate returns the brainstormed ideas. Ideas missing either field are
// a contract violation from the model and fail the whole call; partial
// lists would silently degrade the UI.
func (g *Generator) Generate(ctx context.Context, p Params) ([]Idea, error) {
	raw, err := g.cfg.Client.GenerateStructured(ctx, g.cfg.Model, buildPrompt(p), Schema())
	if err != nil {
		return nil, fmt.Errorf("ideas: %w", err)
	}

	var out []Idea
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ideas: decode: %w", err)
	}
	for i, idea := range out {
		if strings.TrimSpace(idea.Title) == "" || strings.TrimSpace(idea.Description) == "" {
			return nil, fmt.Errorf("ideas: idea %d missing title or description", i)
		}
	}

	g.cfg.Logger.Debug("ideas: generated", "count", len(out), "keywords", p.Keywords)
	return out, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func buildPrompt(p Params) string {
	return fmt.Sprintf(`You are a creative academic research assistant. Brainstorm research ideas based on a user's input.

USER PARAMETERS:
- Primary Keywords: %q
- Subject Area: %s
- Estimated Time Commitment: %s
- Desired Research Scope: %s
- Mentioned Skills: %s
- Target Output Format: %s
- Desired Tone: %s

TASK:
Generate exactly %d distinct and compelling research ideas. Each idea must be a tangible project, not just a question. For each idea, provide a short, compelling title and a one-sentence description summarizing the project's core concept.

Your entire response must be a single, valid JSON array of objects conforming to the schema, with no surrounding text or markdown.`,
		p.Keywords,
		orDefault(p.Subject, "Not specified"),
		orDefault(p.TimeCommitment, "Not specified"),
		orDefault(p.Scope, "Not specified"),
		orDefault(p.Skills, "Not specified"),
		orDefault(p.OutputFormat, "Not specified"),
		orDefault(p.Tone, "Neutral"),
		Count)
}

// Schema declares the array-of-ideas contract.
func Schema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":       {Type: genai.TypeString, Description: "The research idea's title."},
				"description": {Type: genai.TypeString, Description: "One sentence summarizing the project."},
			},
			Required: []string{"title", "description"},
		},
	}
}
