package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	APIKey string `yaml:"apiKey"`
}

type RateLimitConfig struct {
	DefaultPerMinute int `yaml:"defaultPerMinute"`
}

type PollerConfig struct {
	Enabled   bool `yaml:"enabled"`
	BatchSize int  `yaml:"batchSize"`
}

type RetryConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxRetries int  `yaml:"maxRetries"`
}

type WorkerConfig struct {
	Bin      string `yaml:"bin"`
	APIURL   string `yaml:"apiURL"`
	LogLevel string `yaml:"logLevel"`
}

// CrawlerConfig holds the tunables a settings preset controls.
type CrawlerConfig struct {
	Preset          string  `yaml:"preset"`
	UserAgent       string  `yaml:"userAgent"`
	Concurrency     int     `yaml:"concurrency"`
	PerHost         int     `yaml:"perHost"`
	DelaySeconds    float64 `yaml:"delaySeconds"`
	MaxDepthDefault int     `yaml:"maxDepthDefault"`
	MaxPagesDefault int     `yaml:"maxPagesDefault"`
}

type BrowserConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ControlURL string `yaml:"controlURL"`
}

type ExtractConfig struct {
	Markdown   bool `yaml:"markdown"`
	CheckLinks bool `yaml:"checkLinks"`
}

type SitemapConfig struct {
	AlternateLinks bool `yaml:"alternateLinks"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Poller    PollerConfig    `yaml:"poller"`
	Retry     RetryConfig     `yaml:"retry"`
	Worker    WorkerConfig    `yaml:"worker"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Browser   BrowserConfig   `yaml:"browser"`
	Extract   ExtractConfig   `yaml:"extract"`
	Sitemap   SitemapConfig   `yaml:"sitemap"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Poller: PollerConfig{Enabled: true, BatchSize: 10},
		Retry:  RetryConfig{Enabled: true, MaxRetries: 3},
		Worker: WorkerConfig{Bin: "geocrawl-worker", LogLevel: "info"},
	}
	ApplyPreset(&cfg.Crawler, "permissive")
	return cfg
}

// ApplyPreset fills the crawler tunables from a named preset without
// overriding values already set explicitly.
func ApplyPreset(c *CrawlerConfig, name string) {
	if name == "" {
		name = c.Preset
	}
	var p CrawlerConfig
	switch name {
	case "stealth":
		p = CrawlerConfig{
			UserAgent:       "GeoCrawler/2.0",
			Concurrency:     2,
			PerHost:         1,
			DelaySeconds:    2,
			MaxDepthDefault: 10,
			MaxPagesDefault: 500,
		}
	default: // permissive
		name = "permissive"
		p = CrawlerConfig{
			UserAgent:       "GeoCrawler/1.0",
			Concurrency:     16,
			PerHost:         8,
			DelaySeconds:    0,
			MaxDepthDefault: 10,
			MaxPagesDefault: 500,
		}
	}
	c.Preset = name
	if c.UserAgent == "" {
		c.UserAgent = p.UserAgent
	}
	if c.Concurrency == 0 {
		c.Concurrency = p.Concurrency
	}
	if c.PerHost == 0 {
		c.PerHost = p.PerHost
	}
	if c.DelaySeconds == 0 {
		c.DelaySeconds = p.DelaySeconds
	}
	if c.MaxDepthDefault == 0 {
		c.MaxDepthDefault = p.MaxDepthDefault
	}
	if c.MaxPagesDefault == 0 {
		c.MaxPagesDefault = p.MaxPagesDefault
	}
}

func Load(path string) *Config {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Poller.BatchSize == 0 {
		cfg.Poller.BatchSize = 10
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Worker.Bin == "" {
		cfg.Worker.Bin = "geocrawl-worker"
	}
	if cfg.Worker.LogLevel == "" {
		cfg.Worker.LogLevel = "info"
	}
	ApplyPreset(&cfg.Crawler, "")

	return &cfg
}
