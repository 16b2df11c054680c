package etude

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/etude/etude/internal/discover"
	"github.com/hazyhaar/etude/etude/internal/docpipe"
	"github.com/hazyhaar/etude/etude/internal/gemini"
	"github.com/hazyhaar/etude/etude/internal/ideas"
	"github.com/hazyhaar/etude/etude/internal/urlguard"
)

const maxUploadBytes = 32 << 20

// Routes returns the JSON API router. The caller mounts it (typically under
// /api) and owns request-scoped middleware.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/generate-ideas", s.handleGenerateIdeas)
	r.Post("/deep-dive", s.handleDeepDive)
	r.Post("/literature/upload-file", s.handleUploadFile)
	r.Post("/literature/upload-from-url", s.handleUploadFromURL)
	r.Post("/literature/find-sources", s.handleFindSources)
	r.Get("/literature/sources", s.handleListSources)
	return r
}

func (s *Service) handleGenerateIdeas(w http.ResponseWriter, r *http.Request) {
	var req ideas.Params
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Keywords) == "" {
		jsonErr(w, "Keywords are required to generate ideas.", http.StatusBadRequest)
		return
	}

	list, err := s.ideas.Generate(r.Context(), req)
	if err != nil {
		s.logger.Error("idea generation failed", "error", err)
		jsonFail(w, "Failed to generate ideas. The AI may be busy, please try again.", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ideas": list})
}

func (s *Service) handleDeepDive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		jsonErr(w, "A project question is required for a deep dive.", http.StatusBadRequest)
		return
	}

	res, err := s.Report(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("deep dive failed", "question", req.Question, "error", err)
		jsonFail(w, "Failed to perform deep dive analysis.", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonErr(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(r.FormValue("projectQuestion"))
	if question == "" {
		jsonErr(w, "A project question is required to analyze the source.", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("sourceFile")
	if err != nil {
		jsonErr(w, "No file uploaded.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonErr(w, "could not read uploaded file", http.StatusBadRequest)
		return
	}

	doc, err := docpipe.ExtractBytes(data, header.Filename)
	if err != nil {
		s.logger.Error("file extraction failed", "file", header.Filename, "error", err)
		jsonFail(w, "Failed to read the uploaded file.", err)
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), doc.Text, question)
	if err != nil {
		s.logger.Error("file analysis failed", "file", header.Filename, "error", err)
		jsonFail(w, "Failed to analyze the uploaded file.", err)
		return
	}

	src := &SourceDocument{
		ID:       header.Filename,
		Name:     header.Filename,
		FileType: mimeFor(doc.Format),
		Size:     int64(len(data)),
		Origin:   OriginUpload,
		Text:     doc.Text,
		Analysis: analysis,
	}
	if err := s.hub.Add(src); err != nil {
		s.logger.Warn("source already in hub", "id", src.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fileName": src.Name,
		"fileType": src.FileType,
		"fileSize": src.Size,
		"analysis": analysis,
	})
}

func (s *Service) handleUploadFromURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL      string `json:"url"`
		Question string `json:"projectQuestion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		jsonErr(w, "A URL is required.", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		jsonErr(w, "A project question is required to analyze the source.", http.StatusBadRequest)
		return
	}
	if err := urlguard.Validate(req.URL); err != nil {
		jsonErr(w, "The URL cannot be fetched: "+err.Error(), http.StatusBadRequest)
		return
	}

	capture, err := s.capturer.CapturePDF(r.Context(), req.URL)
	if err != nil {
		s.logger.Error("page capture failed", "url", req.URL, "error", err)
		jsonFail(w, "Failed to retrieve the page at that URL.", err)
		return
	}

	fileName := pdfFileName(capture.Title)
	doc, err := docpipe.ExtractBytes(capture.PDF, fileName)
	if err != nil {
		s.logger.Error("capture extraction failed", "url", req.URL, "error", err)
		jsonFail(w, "The page produced no readable content.", err)
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), doc.Text, req.Question)
	if err != nil {
		s.logger.Error("url analysis failed", "url", req.URL, "error", err)
		jsonFail(w, "Failed to analyze the page content.", err)
		return
	}

	src := &SourceDocument{
		ID:       req.URL,
		Name:     fileName,
		FileType: "application/pdf",
		Size:     int64(len(capture.PDF)),
		URL:      req.URL,
		Origin:   OriginScrape,
		Text:     doc.Text,
		Analysis: analysis,
	}
	if err := s.hub.Add(src); err != nil {
		s.logger.Warn("source already in hub", "id", src.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fileName": src.Name,
		"fileType": src.FileType,
		"fileSize": src.Size,
		"analysis": analysis,
	})
}

func (s *Service) handleFindSources(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question     string   `json:"projectQuestion"`
		SourceType   string   `json:"sourceType"`
		ExistingURLs []string `json:"existingUrls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		jsonErr(w, "A project question is required to find sources.", http.StatusBadRequest)
		return
	}
	st := discover.SourceType(req.SourceType)
	if !st.Valid() {
		jsonErr(w, "sourceType must be \"pdf\" or \"web\"", http.StatusBadRequest)
		return
	}

	exclude := append(req.ExistingURLs, s.hub.URLs()...)
	res, err := s.finder.Discover(r.Context(), req.Question, st, exclude)
	if err != nil {
		s.logger.Error("source discovery failed", "question", req.Question, "error", err)
		jsonFail(w, "Failed to find new sources.", err)
		return
	}

	for i := range res.Sources {
		src := res.Sources[i]
		doc := &SourceDocument{
			ID:       src.URL,
			Name:     src.FileName,
			FileType: "application/pdf",
			Size:     int64(src.FileSize),
			URL:      src.URL,
			Origin:   OriginDiscovered,
			Analysis: src.Analysis,
		}
		if err := s.hub.Add(doc); err != nil {
			s.logger.Warn("discovered source already in hub", "id", doc.ID)
		}
	}

	sources := res.Sources
	if sources == nil {
		sources = []discover.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Service) handleListSources(w http.ResponseWriter, r *http.Request) {
	list := s.hub.List()
	if list == nil {
		list = []*SourceDocument{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": list})
}

func mimeFor(f docpipe.Format) string {
	switch f {
	case docpipe.FormatPDF:
		return "application/pdf"
	case docpipe.FormatHTML:
		return "text/html"
	default:
		return "text/plain"
	}
}

// pdfFileName derives a stable file name from a page title.
func pdfFileName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Page"
	}
	if len(title) > 60 {
		title = title[:60]
	}
	return title + ".pdf"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// jsonFail writes the 500 envelope. When the failure was a malformed model
// response, the raw model text is surfaced in details for debugging.
func jsonFail(w http.ResponseWriter, msg string, err error) {
	details := err.Error()
	var malformed *gemini.MalformedError
	if errors.As(err, &malformed) && malformed.Raw != "" {
		details = malformed.Raw
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "details": details})
}
