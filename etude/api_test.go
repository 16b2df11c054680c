package etude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/etude/etude/internal/analyze"
	"github.com/hazyhaar/etude/etude/internal/deepdive"
	"github.com/hazyhaar/etude/etude/internal/discover"
	"github.com/hazyhaar/etude/etude/internal/gemini"
	"github.com/hazyhaar/etude/etude/internal/ideas"
	"github.com/hazyhaar/etude/etude/internal/scrape"
)

type stubIdeas struct {
	out []ideas.Idea
	err error
}

func (s *stubIdeas) Generate(ctx context.Context, p ideas.Params) ([]ideas.Idea, error) {
	return s.out, s.err
}

type stubDiver struct {
	mu    sync.Mutex
	calls int
	out   *deepdive.Result
	err   error
}

func (s *stubDiver) Run(ctx context.Context, question string) (*deepdive.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.out, s.err
}

type stubFinder struct {
	out     *discover.Result
	err     error
	exclude []string
}

func (s *stubFinder) Discover(ctx context.Context, question string, st discover.SourceType, exclude []string) (*discover.Result, error) {
	s.exclude = exclude
	return s.out, s.err
}

type stubAnalyzer struct {
	out *analyze.Analysis
	err error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text, question string) (*analyze.Analysis, error) {
	return s.out, s.err
}

type stubCapturer struct {
	out *scrape.Capture
	err error
}

func (s *stubCapturer) CapturePDF(ctx context.Context, url string) (*scrape.Capture, error) {
	return s.out, s.err
}

func testService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []ServiceOption{
		WithIdeaGenerator(&stubIdeas{}),
		WithDeepDiver(&stubDiver{out: &deepdive.Result{}}),
		WithSourceFinder(&stubFinder{out: &discover.Result{}}),
		WithDocumentAnalyzer(&stubAnalyzer{out: &analyze.Analysis{Summary: "fine"}}),
		WithPageCapturer(&stubCapturer{}),
	}
	svc, err := New(context.Background(), nil, logger, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// WHAT: validation failures answer 400 with an {error} body and never reach
// the model-backed components.
func TestValidationRejections(t *testing.T) {
	svc := testService(t)
	h := svc.Routes()

	cases := []struct {
		name string
		path string
		body any
	}{
		{"ideas without keywords", "/generate-ideas", map[string]string{"subject": "history"}},
		{"deep dive without question", "/deep-dive", map[string]string{"question": "  "}},
		{"find sources without question", "/literature/find-sources", map[string]string{"sourceType": "pdf"}},
		{"find sources bad type", "/literature/find-sources", map[string]string{"projectQuestion": "q", "sourceType": "video"}},
		{"upload url without url", "/literature/upload-from-url", map[string]string{"projectQuestion": "q"}},
		{"upload url without question", "/literature/upload-from-url", map[string]string{"url": "https://x.example"}},
		{"upload url loopback target", "/literature/upload-from-url", map[string]string{"url": "http://127.0.0.1/admin", "projectQuestion": "q"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h, tc.path, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Fatal("missing error message")
			}
		})
	}
}

// WHAT: a repeated deep-dive question is served from the cache.
// WHY: viewing a report again must not trigger a second grounded run.
func TestDeepDiveCached(t *testing.T) {
	diver := &stubDiver{out: &deepdive.Result{
		Analysis: &deepdive.Report{Synopsis: "Stylometry of court records is workable."},
	}}
	svc := testService(t, WithDeepDiver(diver))
	h := svc.Routes()

	body := map[string]string{"question": "How did sentencing language change after 1850?"}
	for i := 0; i < 3; i++ {
		rec := postJSON(t, h, "/deep-dive", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200: %s", i, rec.Code, rec.Body.String())
		}
	}
	if diver.calls != 1 {
		t.Fatalf("pipeline ran %d times, want 1", diver.calls)
	}

	// A different question is a cache miss.
	rec := postJSON(t, h, "/deep-dive", map[string]string{"question": "Another question entirely"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if diver.calls != 2 {
		t.Fatalf("pipeline ran %d times after new question, want 2", diver.calls)
	}
}

// WHAT: a failed deep dive is not cached, so a retry runs the pipeline again.
func TestDeepDiveFailureNotCached(t *testing.T) {
	diver := &stubDiver{err: errors.New("boom")}
	svc := testService(t, WithDeepDiver(diver))
	h := svc.Routes()

	body := map[string]string{"question": "q"}
	for i := 0; i < 2; i++ {
		rec := postJSON(t, h, "/deep-dive", body)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	}
	if diver.calls != 2 {
		t.Fatalf("pipeline ran %d times, want 2 (failures must not cache)", diver.calls)
	}
}

// WHAT: a malformed model response surfaces its raw text in the 500 details.
func TestDeepDiveMalformedDetails(t *testing.T) {
	raw := "```json{broken"
	diver := &stubDiver{err: fmt.Errorf("structuring: %w", &gemini.MalformedError{Raw: raw, Err: errors.New("not JSON")})}
	svc := testService(t, WithDeepDiver(diver))

	rec := postJSON(t, svc.Routes(), "/deep-dive", map[string]string{"question": "q"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body["details"] != raw {
		t.Fatalf("details = %q, want raw model output", body["details"])
	}
}

// WHAT: file upload end to end with a plain-text document: extraction,
// analysis, hub insertion, and the response envelope.
func TestUploadFile(t *testing.T) {
	svc := testService(t, WithDocumentAnalyzer(&stubAnalyzer{
		out: &analyze.Analysis{Summary: "A careful study of canal economics."},
	}))
	h := svc.Routes()

	text := strings.Repeat("Canal freight rates fell steadily through the 1840s. ", 10)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("sourceFile", "canals.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(text))
	mw.WriteField("projectQuestion", "Why did canal freight rates fall?")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/literature/upload-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		FileName string            `json:"fileName"`
		FileType string            `json:"fileType"`
		FileSize int64             `json:"fileSize"`
		Analysis *analyze.Analysis `json:"analysis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body.FileName != "canals.txt" || body.FileType != "text/plain" {
		t.Fatalf("envelope = %q/%q", body.FileName, body.FileType)
	}
	if body.FileSize != int64(len(text)) {
		t.Fatalf("fileSize = %d, want %d", body.FileSize, len(text))
	}
	if body.Analysis == nil || body.Analysis.Summary == "" {
		t.Fatal("missing analysis in response")
	}
	if svc.hub.Len() != 1 {
		t.Fatalf("hub size = %d, want 1", svc.hub.Len())
	}
}

// WHAT: upload without question or file is rejected before extraction.
func TestUploadFileValidation(t *testing.T) {
	svc := testService(t)
	h := svc.Routes()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("projectQuestion", "q")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/literature/upload-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing file: status = %d, want 400", rec.Code)
	}
}

// WHAT: discovery results are added to the hub and already-known hub URLs
// are appended to the caller's exclusion list.
func TestFindSources(t *testing.T) {
	finder := &stubFinder{out: &discover.Result{
		Sources: []discover.Source{
			{FileName: "grain.pdf", FileSize: 900, URL: "https://archive.example/grain.pdf",
				Analysis: &analyze.Analysis{Summary: "ok"}},
		},
	}}
	svc := testService(t, WithSourceFinder(finder))
	svc.hub.Add(&SourceDocument{ID: "https://known.example/p", URL: "https://known.example/p"})
	h := svc.Routes()

	rec := postJSON(t, h, "/literature/find-sources", map[string]any{
		"projectQuestion": "grain prices",
		"sourceType":      "pdf",
		"existingUrls":    []string{"https://caller.example/a"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Sources []discover.Source `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(body.Sources) != 1 || body.Sources[0].URL != "https://archive.example/grain.pdf" {
		t.Fatalf("sources = %+v", body.Sources)
	}

	wantExclude := map[string]bool{"https://caller.example/a": true, "https://known.example/p": true}
	for _, u := range finder.exclude {
		delete(wantExclude, u)
	}
	if len(wantExclude) != 0 {
		t.Fatalf("exclusion list missed %v (got %v)", wantExclude, finder.exclude)
	}

	if svc.hub.Len() != 2 {
		t.Fatalf("hub size = %d, want 2 (known + discovered)", svc.hub.Len())
	}
}

// WHAT: an empty discovery run still answers 200 with a JSON array, not null.
func TestFindSourcesEmptyArray(t *testing.T) {
	svc := testService(t)
	rec := postJSON(t, svc.Routes(), "/literature/find-sources", map[string]string{
		"projectQuestion": "q", "sourceType": "web",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sources":[]`) {
		t.Fatalf("body = %s, want empty sources array", rec.Body.String())
	}
}

// WHAT: the source list endpoint reflects hub contents in insertion order.
func TestListSources(t *testing.T) {
	svc := testService(t)
	svc.hub.Add(&SourceDocument{ID: "a.pdf", Name: "a.pdf", Origin: OriginUpload})
	svc.hub.Add(&SourceDocument{ID: "https://x.example", Name: "x.pdf", URL: "https://x.example", Origin: OriginScrape})

	req := httptest.NewRequest(http.MethodGet, "/literature/sources", nil)
	rec := httptest.NewRecorder()
	svc.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Sources []*SourceDocument `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(body.Sources) != 2 || body.Sources[0].ID != "a.pdf" {
		t.Fatalf("sources = %+v", body.Sources)
	}
}

// WHAT: idea generation passes the brief through and wraps the result.
func TestGenerateIdeas(t *testing.T) {
	gen := &stubIdeas{out: []ideas.Idea{
		{Title: "Port city epidemics", Description: "Track quarantine policy outcomes."},
	}}
	svc := testService(t, WithIdeaGenerator(gen))

	rec := postJSON(t, svc.Routes(), "/generate-ideas", map[string]string{"keywords": "epidemics, ports"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Ideas []ideas.Idea `json:"ideas"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if len(body.Ideas) != 1 || body.Ideas[0].Title == "" {
		t.Fatalf("ideas = %+v", body.Ideas)
	}
}

// WHAT: capture failure on URL import answers 500 with details.
func TestUploadFromURLCaptureFailure(t *testing.T) {
	svc := testService(t, WithPageCapturer(&stubCapturer{err: errors.New("navigation timed out")}))
	rec := postJSON(t, svc.Routes(), "/literature/upload-from-url", map[string]string{
		"url": "https://slow.example", "projectQuestion": "q",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "navigation timed out") {
		t.Fatalf("body = %s, want details with cause", rec.Body.String())
	}
}
