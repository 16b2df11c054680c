// Package deepdive runs the two-stage viability pipeline for a research
// question: a search-grounded synthesis call, then a structuring call that
// converts the synthesis plus its citations into a fixed-schema report.
//
// The stages are strictly sequential and either stage's failure aborts the
// whole pipeline with a stage-specific error. No partial report is ever
// returned.
package deepdive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/hazyhaar/etude/etude/internal/gemini"
)

// ErrEmptySynthesis is returned when the grounded synthesis stage produces
// no usable text.
var ErrEmptySynthesis = errors.New("deepdive: synthesis stage returned no text")

// ErrInsufficientSources is returned when grounding surfaces zero
// citations. The structuring stage depends on real citations to anchor its
// reading list, so this is a hard failure.
var ErrInsufficientSources = errors.New("deepdive: no web sources found for this topic")

// GroundedClient is the slice of the gemini client this package needs.
type GroundedClient interface {
	GenerateGrounded(ctx context.Context, model, prompt string) (*gemini.Grounded, error)
	GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) ([]byte, error)
}

// Config configures the Pipeline.
type Config struct {
	Client GroundedClient
	// Model for both stages. Default: gemini.ModelFlash.
	Model string
	// MaxCitations caps the source list passed to structuring. Default: 5.
	MaxCitations int
	Logger       *slog.Logger
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = gemini.ModelFlash
	}
	if c.MaxCitations <= 0 {
		c.MaxCitations = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline runs deep dives.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg}
}

// Run executes both stages for the question.
func (p *Pipeline) Run(ctx context.Context, question string) (*Result, error) {
	log := p.cfg.Logger.With("question", question)

	// Stage 1: grounded synthesis.
	grounded, err := p.cfg.Client.GenerateGrounded(ctx, p.cfg.Model, synthesisPrompt(question))
	if err != nil {
		if errors.Is(err, gemini.ErrEmptyResponse) {
			return nil, ErrEmptySynthesis
		}
		return nil, fmt.Errorf("deepdive: synthesis: %w", err)
	}
	if strings.TrimSpace(grounded.Text) == "" {
		return nil, ErrEmptySynthesis
	}

	citations := grounded.Citations()
	if len(citations) == 0 {
		return nil, ErrInsufficientSources
	}
	sources := displayCitations(citations, p.cfg.MaxCitations)
	log.Debug("deepdive: synthesized", "chars", len(grounded.Text), "sources", len(sources))

	// Stage 2: structuring.
	raw, err := p.cfg.Client.GenerateStructured(ctx, p.cfg.Model,
		structuringPrompt(question, grounded.Text, sources), Schema())
	if err != nil {
		return nil, fmt.Errorf("deepdive: structuring: %w", err)
	}

	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("deepdive: structuring: decode: %w", err)
	}

	// Merge with forensic metadata. Pure merge, no further validation.
	return &Result{
		Analysis: &report,
		Forensics: Forensics{
			WebSearchQueries: grounded.WebSearchQueries,
			GroundingChunks:  grounded.Chunks,
		},
	}, nil
}

func synthesisPrompt(question string) string {
	return fmt.Sprintf(`Perform a detailed analysis of the following research topic, grounded in Google Search results.
Provide a comprehensive summary covering its relevance, key academic themes, points of debate, potential research gaps, and common methodologies.
Topic: %q`, question)
}

func structuringPrompt(question, synthesis string, sources []gemini.Citation) string {
	var list strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&list, "- %s: %s\n", s.Title, s.URL)
	}

	return fmt.Sprintf(`You are an expert-level research analyst. Based only on the synthesized text and source list below, evaluate the research topic and produce a single, valid JSON object conforming to the provided schema. Every field must be populated; do not fall back on outside knowledge.

<TOPIC>
%s
</TOPIC>

<SYNTHESIZED_TEXT>
%s
</SYNTHESIZED_TEXT>

<SOURCE_LIST>
%s</SOURCE_LIST>

FIELD INSTRUCTIONS:
- synopsis: a dense, academic paragraph summarizing the synthesized text.
- potentialAngles: 2-3 specific, compelling, and unique research angles.
- viabilityScorecard: an integer score (1-10) AND a strong justification for each of the 5 items.
- feasibility.researchGap: the most promising research gap found or inferred from the text.
- feasibility.methodologies: 2-5 appropriate methodologies with brief descriptions.
- feasibility.requirements: at least 2 concrete requirements with specific details.
- feasibility.ethicalConsiderations: potential ethical issues; if none are apparent, state that standard academic integrity protocols apply.
- academicBattleground: clearly separate what is agreed (consensus) from what is debated (contention), and identify 2-3 key contributors from the text.
- projectRoadmap: a realistic multi-phase plan; each phase has a title, a duration, and 2-4 concrete tasks.
- readingList: one entry per source in the source list, keeping its title and URL verbatim, with a unique one-sentence summary inferred from the synthesized text. Every listed source gets exactly one entry.`,
		question, synthesis, list.String())
}
