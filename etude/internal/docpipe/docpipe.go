// Package docpipe converts raw source bytes — uploaded files or print
// captures of rendered pages — into plain text suitable for analysis.
//
// Supported inputs:
//   - PDF  — detected by %PDF magic, extracted via pdfcpu content streams
//   - HTML — detected by markup prefix or extension, extracted via x/net/html
//   - text — UTF-8 passthrough with whitespace normalization
//
// Extraction that yields less than MinContentLen characters of trimmed text
// is a failure, not a success: downstream analysis on near-empty text
// produces hallucinated results.
package docpipe

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MinContentLen is the minimum trimmed text length considered analyzable.
const MinContentLen = 100

// Format identifies a detected input type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// Document is the result of extracting text from one input.
type Document struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Format Format `json:"format"`
}

// Detect sniffs the input format from content, falling back to the name's
// extension. Content wins: uploads routinely carry wrong extensions.
func Detect(data []byte, name string) Format {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return FormatPDF
	}
	head := bytes.ToLower(bytes.TrimSpace(data))
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.Contains(head, []byte("<!doctype html")) || bytes.Contains(head, []byte("<html")) {
		return FormatHTML
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".html", ".htm":
		return FormatHTML
	}
	return FormatText
}

// ExtractBytes converts raw bytes into a Document. The name is used only
// for format detection and as a title fallback.
func ExtractBytes(data []byte, name string) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("docpipe: empty input: %w", ErrInsufficientContent)
	}

	format := Detect(data, name)

	var doc *Document
	var err error
	switch format {
	case FormatPDF:
		doc, err = extractPDF(data)
	case FormatHTML:
		doc, err = extractHTML(data)
	default:
		doc, err = extractPlainText(data)
	}
	if err != nil {
		return nil, err
	}

	doc.Text = CleanText(doc.Text)
	if doc.Title == "" {
		doc.Title = name
	}
	if len([]rune(strings.TrimSpace(doc.Text))) < MinContentLen {
		return nil, fmt.Errorf("docpipe: extracted %d chars from %q: %w",
			len(doc.Text), name, ErrInsufficientContent)
	}
	return doc, nil
}

// extractPlainText treats the bytes as UTF-8 text. Binary content that is
// neither PDF nor HTML is rejected rather than garbled.
func extractPlainText(data []byte) (*Document, error) {
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("docpipe: binary content: %w", ErrUnsupportedFormat)
	}
	text := string(data)
	return &Document{
		Title:  firstLine(text),
		Text:   text,
		Format: FormatText,
	}, nil
}

// firstLine returns the first non-empty line, capped to 200 chars.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 200 {
			line = line[:200]
		}
		return line
	}
	return ""
}
