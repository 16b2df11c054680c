package etude

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all etude configuration. The Gemini API key is never read
// from the YAML file; it comes from the environment.
type Config struct {
	Addr     string         `yaml:"addr"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Discover DiscoverConfig `yaml:"discover"`
	DeepDive DeepDiveConfig `yaml:"deep_dive"`
}

// GeminiConfig controls the model client.
type GeminiConfig struct {
	APIKey  string        `yaml:"-"`
	Timeout time.Duration `yaml:"timeout"`
}

// ScrapeConfig controls the headless browser.
type ScrapeConfig struct {
	RemoteURL      string        `yaml:"remote_url"`
	Timeout        time.Duration `yaml:"timeout"`
	BlockResources []string      `yaml:"block_resources"`
	NoStealth      bool          `yaml:"no_stealth"`
}

// DiscoverConfig controls source-discovery fan-out.
type DiscoverConfig struct {
	MaxCandidates int `yaml:"max_candidates"`
	Concurrency   int `yaml:"concurrency"`
}

// DeepDiveConfig controls the two-stage report pipeline.
type DeepDiveConfig struct {
	MaxCitations int `yaml:"max_citations"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Gemini.Timeout <= 0 {
		c.Gemini.Timeout = 60 * time.Second
	}
	if c.Scrape.Timeout <= 0 {
		c.Scrape.Timeout = 20 * time.Second
	}
	if c.Discover.MaxCandidates <= 0 {
		c.Discover.MaxCandidates = 5
	}
	if c.Discover.Concurrency <= 0 {
		c.Discover.Concurrency = c.Discover.MaxCandidates
	}
	if c.DeepDive.MaxCitations <= 0 {
		c.DeepDive.MaxCitations = 5
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
