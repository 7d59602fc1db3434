// Package config loads application configuration from config.yaml and
// FINDER_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/company-finder/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Relevance  StageConfig      `yaml:"relevance" mapstructure:"relevance"`
	Extract    StageConfig      `yaml:"extract" mapstructure:"extract"`
	Crawl      CrawlConfig      `yaml:"crawl" mapstructure:"crawl"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// JinaConfig holds Jina AI reader and search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings (fetch fallback only).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	MaxPages int    `yaml:"max_pages" mapstructure:"max_pages"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	FastModel     string `yaml:"fast_model" mapstructure:"fast_model"`
	AccurateModel string `yaml:"accurate_model" mapstructure:"accurate_model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	FastModel     string `yaml:"fast_model" mapstructure:"fast_model"`
	AccurateModel string `yaml:"accurate_model" mapstructure:"accurate_model"`
}

// LLMConfig selects the default model provider and its resilience policy.
type LLMConfig struct {
	Provider string                     `yaml:"provider" mapstructure:"provider"`
	Retry    resilience.RetrySettings   `yaml:"retry" mapstructure:"retry"`
	Breaker  resilience.BreakerSettings `yaml:"breaker" mapstructure:"breaker"`
}

// SearchConfig configures candidate search.
type SearchConfig struct {
	Providers      []string `yaml:"providers" mapstructure:"providers"`
	Margin         int      `yaml:"margin" mapstructure:"margin"`
	BlockedDomains []string `yaml:"blocked_domains" mapstructure:"blocked_domains"`
}

// StageConfig configures one model-backed stage. An empty Provider uses
// llm.provider.
type StageConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the stage timeout.
func (s StageConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// CrawlConfig configures fetching and pagination traversal.
type CrawlConfig struct {
	MaxDepth           int      `yaml:"max_depth" mapstructure:"max_depth"`
	MaxConcurrentSeeds int      `yaml:"max_concurrent_seeds" mapstructure:"max_concurrent_seeds"`
	FetchTimeoutSecs   int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	RateLimitRPS       float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst     int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CacheTTLHours      int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	ExcludePaths       []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
	DisableLocal       bool     `yaml:"disable_local" mapstructure:"disable_local"`
}

// FetchTimeout returns the per-page fetch timeout.
func (c CrawlConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// CacheTTL returns the page cache lifetime; 0 disables the cache.
func (c CrawlConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "finder.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 600)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("google.max_pages", 3)
	v.SetDefault("anthropic.fast_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.accurate_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.fast_model", "sonar")
	v.SetDefault("perplexity.accurate_model", "sonar-pro")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.retry.max_attempts", 3)
	v.SetDefault("llm.retry.initial_backoff", "500ms")
	v.SetDefault("llm.retry.max_backoff", "10s")
	v.SetDefault("llm.breaker.failure_threshold", 5)
	v.SetDefault("llm.breaker.reset_timeout", "30s")
	v.SetDefault("search.providers", []string{"jina"})
	v.SetDefault("search.margin", 10)
	v.SetDefault("relevance.timeout_secs", 30)
	v.SetDefault("extract.timeout_secs", 90)
	v.SetDefault("crawl.max_depth", 5)
	v.SetDefault("crawl.max_concurrent_seeds", 5)
	v.SetDefault("crawl.fetch_timeout_secs", 45)
	v.SetDefault("crawl.rate_limit_rps", 5)
	v.SetDefault("crawl.rate_limit_burst", 5)
	v.SetDefault("crawl.cache_ttl_hours", 24)

	// AutomaticEnv only resolves keys viper already knows, so settings
	// without a real default are registered empty to stay reachable as
	// FINDER_* variables.
	for _, key := range []string{
		"store.max_conns",
		"store.min_conns",
		"jina.key",
		"firecrawl.key",
		"google.key",
		"google.base_url",
		"anthropic.key",
		"anthropic.base_url",
		"perplexity.key",
		"search.blocked_domains",
		"relevance.provider",
		"extract.provider",
		"crawl.exclude_paths",
		"crawl.disable_local",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate checks the settings a command needs. Mode is one of "discover",
// "enrich", "serve" or "store". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "discover", "enrich", "serve", "store":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite, postgres or none, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for the postgres driver")
	}

	if mode != "store" {
		errs = append(errs, c.validateModels()...)
		if c.Crawl.MaxConcurrentSeeds < 1 || c.Crawl.MaxConcurrentSeeds > 50 {
			errs = append(errs, "crawl.max_concurrent_seeds must be between 1 and 50")
		}
		if c.Crawl.MaxDepth < 1 {
			errs = append(errs, "crawl.max_depth must be > 0")
		}
	}
	if mode == "discover" || mode == "serve" {
		errs = append(errs, c.validateSearch()...)
	}
	if mode == "serve" && c.Server.Port <= 0 {
		errs = append(errs, "server.port must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateModels() []string {
	var errs []string
	seen := map[string]bool{}
	for _, p := range []string{c.LLM.Provider, c.Relevance.Provider, c.Extract.Provider} {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		switch p {
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required (FINDER_ANTHROPIC_KEY)")
			}
		case "perplexity":
			if c.Perplexity.Key == "" {
				errs = append(errs, "perplexity.key is required (FINDER_PERPLEXITY_KEY)")
			}
		default:
			errs = append(errs, fmt.Sprintf("unknown llm provider %q", p))
		}
	}
	return errs
}

func (c *Config) validateSearch() []string {
	if len(c.Search.Providers) == 0 {
		return []string{"search.providers must not be empty"}
	}
	var errs []string
	for _, p := range c.Search.Providers {
		switch p {
		case "jina":
		case "places":
			if c.Google.Key == "" {
				errs = append(errs, "google.key is required for the places search provider")
			}
		default:
			errs = append(errs, fmt.Sprintf("unknown search provider %q", p))
		}
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
