// Package scrape renders web pages in headless Chrome and converts them to
// text. Two capture modes exist: print-to-PDF (for URL imports, where the
// print layout surfaces content absent from the initial HTML) and rendered
// HTML to markdown (for discovery, where speed matters more than fidelity).
//
// Every page is acquired through withPage, which closes it on every exit
// path. A leaked page is a leaked Chrome target; there is no code path that
// navigates without the guard.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the browser Manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome. Empty = launch
	// a local headless Chrome via launcher.
	RemoteURL string

	// Timeout bounds one navigate-and-capture cycle. Default: 20s.
	Timeout time.Duration

	// BlockResources lists resource types to block (images, fonts, media).
	BlockResources []string

	// Stealth applies anti-detection page setup. Default on; disable only
	// for debugging.
	NoStealth bool

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns one shared Chrome instance. Pages are per-operation and
// never shared. The browser launches lazily on first use.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a Manager. Chrome is not launched until the first scrape.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// handle returns the shared browser, launching Chrome if needed.
func (m *Manager) handle() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("scrape: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}

	wsURL := m.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			NoSandbox(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("scrape: launch chrome: %w", err)
		}
		m.lnch = l
		wsURL = u
		m.cfg.Logger.Info("scrape: launched local chrome", "url", wsURL)
	} else {
		m.cfg.Logger.Info("scrape: connecting to remote chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("scrape: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		m.cfg.Logger.Warn("scrape: ignore cert errors failed", "error", err)
	}
	m.browser = b
	return b, nil
}

// Close shuts down Chrome. Safe to call multiple times.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return err
}

// withPage opens a fresh page, navigates to the URL within the configured
// timeout, runs fn, and closes the page regardless of outcome.
func (m *Manager) withPage(ctx context.Context, pageURL string, fn func(ctx context.Context, page *rod.Page) error) error {
	b, err := m.handle()
	if err != nil {
		return err
	}

	var page *rod.Page
	if m.cfg.NoStealth {
		page, err = b.Page(proto.TargetCreateTarget{})
	} else {
		page, err = stealth.Page(b)
	}
	if err != nil {
		return fmt.Errorf("scrape: create page: %w", err)
	}
	defer page.Close()

	if len(m.cfg.BlockResources) > 0 {
		if err := blockResources(page, m.cfg.BlockResources); err != nil {
			m.cfg.Logger.Warn("scrape: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("scrape: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		// Slow pages can still be usable after the load timeout.
		m.cfg.Logger.Warn("scrape: wait load timeout", "url", pageURL, "error", err)
	}

	return fn(navCtx, page)
}

// blockResources sets up request interception to drop heavy resource types.
func blockResources(page *rod.Page, types []string) error {
	blockSet := make(map[string]bool, len(types))
	for _, t := range types {
		blockSet[t] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		switch string(h.Request.Type()) {
		case "Image":
			if blockSet["images"] {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		case "Font":
			if blockSet["fonts"] {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		case "Media":
			if blockSet["media"] {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return nil
}
