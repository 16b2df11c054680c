package etude

import (
	"time"

	"github.com/hazyhaar/etude/etude/internal/analyze"
)

// SourceOrigin records how a document entered the hub.
type SourceOrigin string

const (
	OriginUpload     SourceOrigin = "upload"
	OriginScrape     SourceOrigin = "scrape"
	OriginDiscovered SourceOrigin = "discovered"
)

// SourceDocument is one accepted source in a project's hub. The identifier
// (URL or file name) is unique within the hub. The extracted text is kept
// for the process lifetime but never serialized back to the client.
type SourceDocument struct {
	ID       string            `json:"id"`
	Name     string            `json:"fileName"`
	FileType string            `json:"fileType"`
	Size     int64             `json:"fileSize"`
	URL      string            `json:"url,omitempty"`
	Origin   SourceOrigin      `json:"origin"`
	Text     string            `json:"-"`
	Analysis *analyze.Analysis `json:"analysis,omitempty"`
	AddedAt  time.Time         `json:"addedAt"`
}
