package etude

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hazyhaar/etude/etude/internal/analyze"
	"github.com/hazyhaar/etude/etude/internal/deepdive"
	"github.com/hazyhaar/etude/etude/internal/discover"
	"github.com/hazyhaar/etude/etude/internal/gemini"
	"github.com/hazyhaar/etude/etude/internal/ideas"
	"github.com/hazyhaar/etude/etude/internal/scrape"
)

// IdeaGenerator produces a batch of project ideas from the user's brief.
type IdeaGenerator interface {
	Generate(ctx context.Context, p ideas.Params) ([]ideas.Idea, error)
}

// DeepDiver runs the two-stage grounded viability report.
type DeepDiver interface {
	Run(ctx context.Context, question string) (*deepdive.Result, error)
}

// SourceFinder runs the search/scrape/analyze discovery fan-out.
type SourceFinder interface {
	Discover(ctx context.Context, question string, st discover.SourceType, exclude []string) (*discover.Result, error)
}

// DocumentAnalyzer produces the per-source structured analysis.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, text, question string) (*analyze.Analysis, error)
}

// PageCapturer renders a URL to PDF in the headless browser.
type PageCapturer interface {
	CapturePDF(ctx context.Context, url string) (*scrape.Capture, error)
}

// Service wires the model client, the browser, and the pipelines behind the
// HTTP API. All state (source hub, report cache) lives in memory for the
// lifetime of the process.
type Service struct {
	cfg    *Config
	logger *slog.Logger

	ideas    IdeaGenerator
	diver    DeepDiver
	finder   SourceFinder
	analyzer DocumentAnalyzer
	capturer PageCapturer

	hub *Hub

	reportMu sync.Mutex
	reports  map[string]*deepdive.Result

	browser *scrape.Manager
}

// ServiceOption customizes construction, mainly for tests.
type ServiceOption func(*Service)

func WithIdeaGenerator(g IdeaGenerator) ServiceOption {
	return func(s *Service) { s.ideas = g }
}

func WithDeepDiver(d DeepDiver) ServiceOption {
	return func(s *Service) { s.diver = d }
}

func WithSourceFinder(f SourceFinder) ServiceOption {
	return func(s *Service) { s.finder = f }
}

func WithDocumentAnalyzer(a DocumentAnalyzer) ServiceOption {
	return func(s *Service) { s.analyzer = a }
}

func WithPageCapturer(c PageCapturer) ServiceOption {
	return func(s *Service) { s.capturer = c }
}

// New builds a Service. Components not injected through options are wired
// from cfg; the Gemini client is only created when at least one model-backed
// component is missing, so fully stubbed construction needs no API key.
func New(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		cfg:     cfg,
		logger:  logger,
		hub:     NewHub(),
		reports: make(map[string]*deepdive.Result),
	}
	for _, o := range opts {
		o(s)
	}

	needClient := s.ideas == nil || s.diver == nil || s.analyzer == nil || s.finder == nil
	var client *gemini.Client
	if needClient {
		var err error
		client, err = gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Timeout: cfg.Gemini.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("etude: gemini client: %w", err)
		}
	}

	needBrowser := s.capturer == nil || s.finder == nil
	if needBrowser {
		s.browser = scrape.NewManager(scrape.Config{
			RemoteURL:      cfg.Scrape.RemoteURL,
			Timeout:        cfg.Scrape.Timeout,
			BlockResources: cfg.Scrape.BlockResources,
			NoStealth:      cfg.Scrape.NoStealth,
			Logger:         logger,
		})
	}
	if s.capturer == nil {
		s.capturer = s.browser
	}

	if s.ideas == nil {
		s.ideas = ideas.New(ideas.Config{Client: client, Logger: logger})
	}
	if s.analyzer == nil {
		s.analyzer = analyze.New(analyze.Config{Client: client, Logger: logger})
	}
	if s.diver == nil {
		s.diver = deepdive.New(deepdive.Config{
			Client:       client,
			MaxCitations: cfg.DeepDive.MaxCitations,
			Logger:       logger,
		})
	}
	if s.finder == nil {
		s.finder = discover.New(discover.Config{
			Search:        client,
			Scraper:       s.browser,
			Analyzer:      s.analyzer,
			MaxCandidates: cfg.Discover.MaxCandidates,
			Concurrency:   cfg.Discover.Concurrency,
			Logger:        logger,
		})
	}
	return s, nil
}

// Close releases the headless browser, if one was started.
func (s *Service) Close() error {
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

// Report returns the deep-dive result for question, running the pipeline at
// most once per distinct question string. Repeated requests for the same
// question are served from the in-memory cache without touching the model.
// Failed runs are not cached, so a retry re-runs the pipeline.
func (s *Service) Report(ctx context.Context, question string) (*deepdive.Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", ErrInvalidInput)
	}

	s.reportMu.Lock()
	if r, ok := s.reports[question]; ok {
		s.reportMu.Unlock()
		s.logger.Debug("deep dive cache hit", "question", question)
		return r, nil
	}
	s.reportMu.Unlock()

	r, err := s.diver.Run(ctx, question)
	if err != nil {
		return nil, err
	}

	s.reportMu.Lock()
	s.reports[question] = r
	s.reportMu.Unlock()
	return r, nil
}

// Sources returns the current hub contents in insertion order.
func (s *Service) Sources() []*SourceDocument {
	return s.hub.List()
}
