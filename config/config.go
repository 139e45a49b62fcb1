package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

const (
	SourceHTML = "html"
	SourceRSS  = "rss"

	RendererHTTP   = "http"
	RendererChrome = "chrome"
)

type AppConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Scraper ScraperConfig `yaml:"scraper"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScraperConfig controls how search results are pulled from the Nitter front-end.
type ScraperConfig struct {
	// Instance is the base URL of the Nitter instance, e.g. https://nitter.net
	Instance string `yaml:"instance"`
	// Source selects the search endpoint: "html" (paged timeline) or "rss".
	Source string `yaml:"source"`
	// Renderer selects how HTML pages are fetched: "http" or "chrome".
	Renderer       string `yaml:"renderer"`
	ChromePath     string `yaml:"chrome_path"`
	UserAgent      string `yaml:"user_agent"`
	RequestDelay   string `yaml:"request_delay"`
	RequestTimeout string `yaml:"request_timeout"`
	// EnrichProfiles fetches each author's profile page once per run.
	EnrichProfiles *bool `yaml:"enrich_profiles"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

func DefaultAppConfig() AppConfig {
	enrich := true
	return AppConfig{
		Logging: LoggingConfig{Level: "info"},
		Scraper: ScraperConfig{
			Instance:       "https://nitter.net",
			Source:         SourceHTML,
			Renderer:       RendererHTTP,
			ChromePath:     "/usr/bin/chromium-browser",
			UserAgent:      defaultUserAgent,
			RequestDelay:   "2s",
			RequestTimeout: "30s",
			EnrichProfiles: &enrich,
		},
	}
}

var (
	mu     sync.Mutex
	config *AppConfig
)

// InitApp loads .env and config.yaml from the base path. A missing config.yaml
// leaves the defaults in place.
func InitApp() error {
	base := GetBasePath()

	// load environment variables
	_ = godotenv.Load(filepath.Join(base, ENV_FILE))

	c := DefaultAppConfig()
	if base != "" {
		data, err := os.ReadFile(filepath.Join(base, CONFIG_FILE))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", CONFIG_FILE, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &c); err != nil {
				return fmt.Errorf("parse %s: %w", CONFIG_FILE, err)
			}
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return err
	}

	mu.Lock()
	config = &c
	mu.Unlock()
	return nil
}

func GetConfig() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if config == nil {
		c := DefaultAppConfig()
		c.applyEnv()
		return c
	}
	return *config
}

func (c *AppConfig) applyEnv() {
	if lv := os.Getenv("LOG_LEVEL"); lv != "" {
		c.Logging.Level = lv
	}
	if p := os.Getenv("CHROME_PATH"); p != "" {
		c.Scraper.ChromePath = p
	}
}

func (c *AppConfig) Validate() error {
	switch c.Scraper.Source {
	case SourceHTML, SourceRSS:
	default:
		return fmt.Errorf("config: unsupported scraper.source %q", c.Scraper.Source)
	}
	switch c.Scraper.Renderer {
	case RendererHTTP, RendererChrome:
	default:
		return fmt.Errorf("config: unsupported scraper.renderer %q", c.Scraper.Renderer)
	}
	if c.Scraper.Instance == "" {
		return errors.New("config: scraper.instance is required")
	}
	if _, err := c.Scraper.Delay(); err != nil {
		return err
	}
	if _, err := c.Scraper.Timeout(); err != nil {
		return err
	}
	return nil
}

func (s ScraperConfig) Delay() (time.Duration, error) {
	return parseDuration("scraper.request_delay", s.RequestDelay)
}

func (s ScraperConfig) Timeout() (time.Duration, error) {
	return parseDuration("scraper.request_timeout", s.RequestTimeout)
}

func (s ScraperConfig) ShouldEnrichProfiles() bool {
	return s.EnrichProfiles == nil || *s.EnrichProfiles
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return cwd
}
