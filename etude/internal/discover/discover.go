// Package discover finds candidate sources for a research question via
// grounded search, then scrapes and analyzes each candidate concurrently.
//
// Candidates are isolated from each other: one candidate failing at any
// stage (render timeout, thin content, malformed model output) is dropped
// from the result set and never aborts its siblings. An empty result is a
// valid outcome, not an error.
package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/etude/etude/internal/analyze"
	"github.com/hazyhaar/etude/etude/internal/docpipe"
	"github.com/hazyhaar/etude/etude/internal/gemini"
	"github.com/hazyhaar/etude/etude/internal/scrape"
	"github.com/hazyhaar/etude/etude/internal/urlguard"
)

// SourceType selects the search bias.
type SourceType string

const (
	TypePDF SourceType = "pdf"
	TypeWeb SourceType = "web"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool { return t == TypePDF || t == TypeWeb }

// Source is one fully analyzed discovery hit.
type Source struct {
	FileName string            `json:"fileName"`
	FileSize int               `json:"fileSize"`
	URL      string            `json:"url"`
	Analysis *analyze.Analysis `json:"analysis"`
}

// Result carries the analyzed sources plus diagnostic counters. The
// counters exist because candidates are dropped silently; the API exposes
// only Sources, but tests and debug logs need to see the attrition.
type Result struct {
	Sources   []Source
	Attempted int
	Dropped   int
}

// Searcher issues the grounded search request.
type Searcher interface {
	GenerateGrounded(ctx context.Context, model, prompt string) (*gemini.Grounded, error)
}

// Scraper renders a candidate URL to text.
type Scraper interface {
	Text(ctx context.Context, pageURL string) (*scrape.Page, error)
}

// Analyzer critiques candidate text against the question.
type Analyzer interface {
	Analyze(ctx context.Context, text, question string) (*analyze.Analysis, error)
}

// Config configures the Orchestrator.
type Config struct {
	Search   Searcher
	Scraper  Scraper
	Analyzer Analyzer

	// Model for the grounded search call. Default: gemini.ModelLite.
	Model string
	// MaxCandidates caps how many deduplicated hits are pursued. Default: 5.
	MaxCandidates int
	// Concurrency bounds the number of in-flight candidate pipelines.
	// Default: equal to MaxCandidates.
	Concurrency int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = gemini.ModelLite
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 5
	}
	if c.Concurrency <= 0 {
		c.Concurrency = c.MaxCandidates
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator runs discovery.
type Orchestrator struct {
	cfg Config
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{cfg: cfg}
}

// Discover searches for sources matching the question and source type,
// excluding known URLs, and returns the candidates that survived the full
// scrape → extract → analyze pipeline, in search ranking order.
func (o *Orchestrator) Discover(ctx context.Context, question string, sourceType SourceType, excludeURLs []string) (*Result, error) {
	if !sourceType.Valid() {
		return nil, fmt.Errorf("discover: unknown source type %q", sourceType)
	}

	log := o.cfg.Logger.With("question", question, "source_type", string(sourceType))

	grounded, err := o.cfg.Search.GenerateGrounded(ctx, o.cfg.Model, searchPrompt(question, sourceType, excludeURLs))
	if err != nil {
		if errors.Is(err, gemini.ErrEmptyResponse) {
			// A search that finds nothing is "no sources," not a failure.
			return &Result{}, nil
		}
		return nil, fmt.Errorf("discover: search: %w", err)
	}

	candidates := grounded.Citations()
	if len(candidates) > o.cfg.MaxCandidates {
		candidates = candidates[:o.cfg.MaxCandidates]
	}
	if len(candidates) == 0 {
		log.Info("discover: search returned no candidates")
		return &Result{}, nil
	}

	// Fan out one pipeline per candidate. Slots keep search order; a nil
	// slot is a dropped candidate. Goroutines always return nil so one
	// failure can never cancel a sibling.
	slots := make([]*Source, len(candidates))
	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, cand := range candidates {
		g.Go(func() error {
			src, err := o.processCandidate(ctx, cand.URL, question)
			if err != nil {
				log.Warn("discover: candidate dropped", "url", cand.URL, "error", err)
				return nil
			}
			slots[i] = src
			return nil
		})
	}
	g.Wait()

	res := &Result{Attempted: len(candidates)}
	for _, s := range slots {
		if s != nil {
			res.Sources = append(res.Sources, *s)
		}
	}
	res.Dropped = res.Attempted - len(res.Sources)

	log.Info("discover: done", "attempted", res.Attempted, "returned", len(res.Sources), "dropped", res.Dropped)
	return res, nil
}

// processCandidate runs one candidate through scrape → threshold → analyze.
// The URL comes from the model, so it is vetted before the browser touches it.
func (o *Orchestrator) processCandidate(ctx context.Context, pageURL, question string) (*Source, error) {
	if err := urlguard.Validate(pageURL); err != nil {
		return nil, err
	}

	page, err := o.cfg.Scraper.Text(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}

	text := docpipe.CleanText(page.Text)
	if len([]rune(strings.TrimSpace(text))) < docpipe.MinContentLen {
		return nil, fmt.Errorf("content below threshold: %w", docpipe.ErrInsufficientContent)
	}

	a, err := o.cfg.Analyzer.Analyze(ctx, text, question)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	return &Source{
		FileName: candidateFileName(page.Title),
		FileSize: len(text),
		URL:      pageURL,
		Analysis: a,
	}, nil
}

// candidateFileName derives a display file name from the page title.
func candidateFileName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Page"
	}
	if len(title) > 60 {
		title = title[:60]
	}
	return title + ".pdf"
}

// searchPrompt builds the grounded search request. PDF searches bias
// toward scholarly documents; web searches toward articles and reports.
func searchPrompt(question string, sourceType SourceType, excludeURLs []string) string {
	var sb strings.Builder
	if sourceType == TypePDF {
		fmt.Fprintf(&sb, "Find 5 scholarly articles or research papers in PDF format relevant to the research question: %q filetype:pdf", question)
	} else {
		fmt.Fprintf(&sb, "Find 5 insightful web articles, blog posts, or news reports relevant to the research question: %q", question)
	}
	if len(excludeURLs) > 0 {
		fmt.Fprintf(&sb, " Exclude any results from these URLs if possible: %s", strings.Join(excludeURLs, ", "))
	}
	return sb.String()
}
