package scrape

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/microcosm-cc/bluemonday"
)

// Capture is the result of a print-to-PDF capture.
type Capture struct {
	Title string
	PDF   []byte
}

// Page is the result of a rendered-text scrape.
type Page struct {
	Title string
	Text  string
}

// CapturePDF renders the URL and prints it to a PDF document. The print
// layout captures content the initial HTML does not carry (lazy-rendered
// sections, print stylesheets), which is why URL imports prefer it.
func (m *Manager) CapturePDF(ctx context.Context, pageURL string) (*Capture, error) {
	var out Capture
	err := m.withPage(ctx, pageURL, func(ctx context.Context, page *rod.Page) error {
		info, err := page.Context(ctx).Info()
		if err == nil && info != nil {
			out.Title = strings.TrimSpace(info.Title)
		}

		r, err := page.Context(ctx).PDF(&proto.PagePrintToPDF{PrintBackground: true})
		if err != nil {
			return fmt.Errorf("scrape: print to pdf: %w", err)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("scrape: read pdf stream: %w", err)
		}
		out.PDF = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Text renders the URL and converts the live DOM to plain text via
// sanitized HTML → markdown. Cheaper than CapturePDF; used by discovery
// where one slow candidate must not starve its siblings.
func (m *Manager) Text(ctx context.Context, pageURL string) (*Page, error) {
	var out Page
	err := m.withPage(ctx, pageURL, func(ctx context.Context, page *rod.Page) error {
		info, err := page.Context(ctx).Info()
		if err == nil && info != nil {
			out.Title = strings.TrimSpace(info.Title)
		}

		res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
		if err != nil {
			return fmt.Errorf("scrape: read DOM: %w", err)
		}
		text, err := RenderedHTMLToText(res.Value.Str())
		if err != nil {
			return err
		}
		out.Text = text
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

var sanitizer = bluemonday.UGCPolicy()

// RenderedHTMLToText converts rendered page HTML to readable plain text.
// The HTML is sanitized first so script and event-handler content never
// reaches the converter, then turned into markdown, which doubles as a
// compact plain-text form for the analyzer.
func RenderedHTMLToText(rawHTML string) (string, error) {
	clean := sanitizer.Sanitize(rawHTML)

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	md, err := conv.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("scrape: html to text: %w", err)
	}
	return strings.TrimSpace(md), nil
}
