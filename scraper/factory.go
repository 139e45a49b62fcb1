package scraper

import (
	"fmt"

	"tweet-indexer/config"
	"tweet-indexer/feeder"
	"tweet-indexer/renderer"
)

// NewRenderer builds the page renderer selected by cfg.Renderer.
func NewRenderer(cfg config.ScraperConfig) (renderer.Renderer, error) {
	delay, err := cfg.Delay()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	switch cfg.Renderer {
	case config.RendererChrome:
		return renderer.NewChromeRenderer(cfg.ChromePath, cfg.UserAgent, timeout), nil
	case config.RendererHTTP, "":
		r, err := renderer.NewCollyRenderer(cfg.UserAgent, delay, timeout)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported renderer %q", cfg.Renderer)
	}
}

// New builds the post source described by cfg. r fetches search and profile
// pages; the RSS source only uses it for profiles.
func New(cfg config.ScraperConfig, r renderer.Renderer) (Source, error) {
	var profiles *ProfileEnricher
	if cfg.ShouldEnrichProfiles() {
		profiles = NewProfileEnricher(cfg.Instance, r)
	}

	switch cfg.Source {
	case config.SourceRSS:
		timeout, err := cfg.Timeout()
		if err != nil {
			return nil, err
		}
		return NewRSSScraper(cfg.Instance, feeder.NewFetcher(cfg.UserAgent, timeout), profiles), nil
	case config.SourceHTML, "":
		return NewHTMLScraper(cfg.Instance, r, profiles), nil
	default:
		return nil, fmt.Errorf("unsupported source %q", cfg.Source)
	}
}
