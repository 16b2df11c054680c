package deepdive

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hazyhaar/etude/etude/internal/gemini"
)

const untitled = "Untitled Source"

// displayCitations derives a readable title for each citation and caps the
// list. Providers often return host-name-only or empty titles; those are
// rebuilt from the URL's path segments.
func displayCitations(cits []gemini.Citation, max int) []gemini.Citation {
	out := make([]gemini.Citation, 0, len(cits))
	for _, c := range cits {
		c.Title = deriveTitle(c.Title, c.URL)
		out = append(out, c)
		if len(out) == max {
			break
		}
	}
	return out
}

// deriveTitle keeps a real title, otherwise builds "host / seg1 / seg2"
// from the URL, skipping empty and numeric path segments.
func deriveTitle(title, rawURL string) string {
	if title == "" {
		title = untitled
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return title
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")

	degenerate := title == untitled || strings.EqualFold(title, host)
	if !degenerate {
		return title
	}

	var segs []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			continue
		}
		segs = append(segs, seg)
		if len(segs) == 2 {
			break
		}
	}
	if len(segs) == 0 {
		return host
	}
	return host + " / " + strings.Join(segs, " / ")
}
