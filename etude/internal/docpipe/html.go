package docpipe

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractHTML extracts the title and visible text from HTML bytes.
// Script, style, and template subtrees are skipped entirely.
func extractHTML(data []byte) (*Document, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("docpipe: parse HTML: %w", err)
	}

	title := htmlTitle(doc)

	var sb strings.Builder
	collectVisibleText(doc, &sb)

	return &Document{
		Title:  title,
		Text:   sb.String(),
		Format: FormatHTML,
	}, nil
}

// htmlTitle returns the <title> text, if any.
func htmlTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := htmlTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// collectVisibleText appends text nodes outside non-content subtrees,
// separating block-ish elements with newlines.
func collectVisibleText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Template, atom.Noscript, atom.Head:
			return
		}
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectVisibleText(c, sb)
	}
	if n.Type == html.ElementNode && isBlockElement(n.DataAtom) && sb.Len() > 0 {
		sb.WriteByte('\n')
	}
}

func isBlockElement(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Li, atom.Tr,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Br, atom.Blockquote:
		return true
	}
	return false
}
