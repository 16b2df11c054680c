package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/hazyhaar/etude/etude/internal/docpipe"
)

// stubClient records calls and replays canned JSON.
type stubClient struct {
	calls int
	raw   string
	err   error
}

func (s *stubClient) GenerateStructured(ctx context.Context, model, prompt string, schema *genai.Schema) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.raw), nil
}

const fullAnalysisJSON = `{
	"summary": "A four sentence summary.",
	"authorThesis": "The thesis.",
	"academicContext": "Context paragraph.",
	"keyArguments": ["arg one", "arg two"],
	"directQuotes": [{"quote": "verbatim", "analysis": "why it matters"}],
	"methodology": {"type": "Quantitative Survey", "details": "n=400"},
	"evidence": ["survey data"],
	"limitations": "Small sample.",
	"targetAudience": "Academic Specialists",
	"keyDefinitions": [{"term": "pH", "definition": "acidity measure"}],
	"scorecard": {
		"relevance": {"score": 9, "justification": "directly on topic"},
		"credibility": {"score": 7, "justification": "peer reviewed"},
		"depth": {"score": 8, "justification": "thorough"},
		"novelty": {"score": 5, "justification": "mostly a review"}
	}
}`

func longText() string {
	return strings.Repeat("Substantial source material for the analyzer. ", 10)
}

func TestAnalyze_Complete(t *testing.T) {
	// WHAT: A schema-conformant response round-trips into a full Analysis.
	// WHY: The scorecard must carry exactly the four named axes, scored 1-10.
	stub := &stubClient{raw: fullAnalysisJSON}
	a := New(Config{Client: stub})

	got, err := a.Analyze(context.Background(), longText(), "What drives ocean acidification?")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Summary == "" || got.AuthorThesis == "" {
		t.Error("expected populated summary and thesis")
	}
	for name, s := range map[string]Score{
		"relevance":   got.Scorecard.Relevance,
		"credibility": got.Scorecard.Credibility,
		"depth":       got.Scorecard.Depth,
		"novelty":     got.Scorecard.Novelty,
	} {
		if s.Score < 1 || s.Score > 10 {
			t.Errorf("scorecard %s = %d, want in [1,10]", name, s.Score)
		}
		if s.Justification == "" {
			t.Errorf("scorecard %s missing justification", name)
		}
	}
}

func TestAnalyze_ShortTextShortCircuits(t *testing.T) {
	// WHAT: Text under the minimum threshold never reaches the model.
	// WHY: Spec boundary — no analysis call on near-empty text.
	stub := &stubClient{raw: fullAnalysisJSON}
	a := New(Config{Client: stub})

	_, err := a.Analyze(context.Background(), "way too short", "Q?")
	if !errors.Is(err, docpipe.ErrInsufficientContent) {
		t.Fatalf("err = %v, want ErrInsufficientContent", err)
	}
	if stub.calls != 0 {
		t.Errorf("model called %d times, want 0", stub.calls)
	}
}

func TestAnalyze_FillsMissingFields(t *testing.T) {
	// WHAT: Fields the model omitted come back as the NotAvailable marker.
	// WHY: Invariant — every Analysis field is populated, never absent.
	stub := &stubClient{raw: `{"summary": "only a summary", "scorecard": {"relevance": {"score": 99}}}`}
	a := New(Config{Client: stub})

	got, err := a.Analyze(context.Background(), longText(), "Q?")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.AuthorThesis != NotAvailable || got.Limitations != NotAvailable {
		t.Errorf("missing fields not backfilled: %+v", got)
	}
	if len(got.KeyArguments) == 0 || got.KeyArguments[0] != NotAvailable {
		t.Errorf("keyArguments not backfilled: %v", got.KeyArguments)
	}
	if got.Scorecard.Relevance.Score != 10 {
		t.Errorf("out-of-range score not clamped: %d", got.Scorecard.Relevance.Score)
	}
	if got.Scorecard.Credibility.Score != 1 || got.Scorecard.Credibility.Justification != NotAvailable {
		t.Errorf("absent score not defaulted: %+v", got.Scorecard.Credibility)
	}
}

func TestAnalyze_UpstreamError(t *testing.T) {
	// WHAT: Client failures propagate wrapped, with no partial Analysis.
	stub := &stubClient{err: errors.New("quota exhausted")}
	a := New(Config{Client: stub})

	if _, err := a.Analyze(context.Background(), longText(), "Q?"); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildPrompt_Truncates(t *testing.T) {
	// WHAT: Source text is truncated to the prompt limit.
	// WHY: Unbounded pages would blow the model's context for no gain.
	text := strings.Repeat("x", maxPromptChars+5000)
	p := buildPrompt(text, "Q?")
	if len(p) > maxPromptChars+2000 {
		t.Errorf("prompt len = %d, truncation failed", len(p))
	}
	if !strings.Contains(p, "Q?") {
		t.Error("question missing from prompt")
	}
}
