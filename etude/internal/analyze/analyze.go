// Package analyze produces a structured critique of one source document in
// the context of one project research question.
//
// An Analysis is always scoped to exactly one (document, question) pair;
// reusing it under a different question would invalidate the relevance
// scoring, so nothing here caches.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/hazyhaar/etude/etude/internal/docpipe"
	"github.com/hazyhaar/etude/etude/internal/gemini"
)

// NotAvailable is the explicit marker substituted for any field the model
// leaves empty. Every Analysis field is populated, always.
const NotAvailable = "Not available."

// maxPromptChars bounds how much source text goes into the prompt.
const maxPromptChars = 20000

// StructuredClient is the slice of the gemini client this package needs.
type StructuredClient interface {
	GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) ([]byte, error)
}

// Config configures the Analyzer.
type Config struct {
	Client StructuredClient
	// Model used for per-source analysis. Default: gemini.ModelLite.
	Model  string
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = gemini.ModelLite
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Analyzer runs the per-source analysis call.
type Analyzer struct {
	cfg Config
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	cfg.defaults()
	return &Analyzer{cfg: cfg}
}

// Analyze critiques source text against the project question. Text shorter
// than the minimum content threshold is rejected before any model call.
func (a *Analyzer) Analyze(ctx context.Context, text, question string) (*Analysis, error) {
	if len([]rune(strings.TrimSpace(text))) < docpipe.MinContentLen {
		return nil, fmt.Errorf("analyze: source text too short: %w", docpipe.ErrInsufficientContent)
	}

	prompt := buildPrompt(text, question)
	raw, err := a.cfg.Client.GenerateStructured(ctx, a.cfg.Model, prompt, Schema())
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	var out Analysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("analyze: decode: %w", err)
	}
	out.fill()

	a.cfg.Logger.Debug("analyze: source analyzed",
		"question", question, "args", len(out.KeyArguments), "quotes", len(out.DirectQuotes))
	return &out, nil
}

// buildPrompt embeds the question and the truncated source text.
func buildPrompt(text, question string) string {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	return fmt.Sprintf(`You are a PhD-level research analyst. Perform a deep, critical analysis of the following source text in the context of a larger research project. Your output must be academically rigorous.

--- MAIN PROJECT RESEARCH QUESTION ---
%s
------------------------------------

--- SOURCE TEXT (truncated) ---
%s
-------------------------------

Based only on the provided source text, generate a structured analysis. Be critical and objective.
- For directQuotes, find verbatim quotes that are highly relevant to the project question and analyze their significance.
- For the scorecard, provide a score AND a concise justification for each item. The relevance score is the most important.
- For academicContext, think like a literature review expert.

Your entire output must be a single, valid JSON object conforming to the required schema.`, question, text)
}
