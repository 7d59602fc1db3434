package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "finder.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5, cfg.Crawl.MaxDepth)
	assert.Equal(t, 5, cfg.Crawl.MaxConcurrentSeeds)
	assert.Equal(t, 45*time.Second, cfg.Crawl.FetchTimeout())
	assert.Equal(t, 24*time.Hour, cfg.Crawl.CacheTTL())
	assert.InDelta(t, 5.0, cfg.Crawl.RateLimitRPS, 0.001)
	assert.Equal(t, 10, cfg.Search.Margin)
	assert.Equal(t, []string{"jina"}, cfg.Search.Providers)
	assert.Equal(t, 30*time.Second, cfg.Relevance.Timeout())
	assert.Equal(t, 90*time.Second, cfg.Extract.Timeout())
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "https://s.jina.ai", cfg.Jina.SearchBaseURL)
	assert.Equal(t, "https://api.firecrawl.dev/v2", cfg.Firecrawl.BaseURL)
	assert.Equal(t, "sonar", cfg.Perplexity.FastModel)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.AccurateModel)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.FastModel)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.Retry.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.LLM.Breaker.ResetTimeout)
	assert.Equal(t, 3, cfg.Google.MaxPages)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/finder
log:
  level: debug
  format: console
server:
  port: 9090
search:
  providers: [jina, places]
  blocked_domains: [example.org]
crawl:
  max_depth: 2
  exclude_paths: ["/login"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/finder", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"jina", "places"}, cfg.Search.Providers)
	assert.Equal(t, []string{"example.org"}, cfg.Search.BlockedDomains)
	assert.Equal(t, 2, cfg.Crawl.MaxDepth)
	assert.Equal(t, []string{"/login"}, cfg.Crawl.ExcludePaths)
	// Defaults still apply for unset values
	assert.Equal(t, 5, cfg.Crawl.MaxConcurrentSeeds)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FINDER_STORE_DRIVER", "none")
	t.Setenv("FINDER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("FINDER_SERVER_PORT", "3000")
	t.Setenv("FINDER_ANTHROPIC_KEY", "sk-ant-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sk-ant-key", cfg.Anthropic.Key)
}

func TestLoadEnvSecretsWithoutFile(t *testing.T) {
	chdirTemp(t)

	t.Setenv("FINDER_ANTHROPIC_KEY", "sk-ant")
	t.Setenv("FINDER_JINA_KEY", "jina-key")
	t.Setenv("FINDER_GOOGLE_KEY", "google-key")
	t.Setenv("FINDER_FIRECRAWL_KEY", "fc-key")
	t.Setenv("FINDER_PERPLEXITY_KEY", "pplx-key")
	t.Setenv("FINDER_SEARCH_BLOCKED_DOMAINS", "yelp.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-ant", cfg.Anthropic.Key)
	assert.Equal(t, "jina-key", cfg.Jina.Key)
	assert.Equal(t, "google-key", cfg.Google.Key)
	assert.Equal(t, "fc-key", cfg.Firecrawl.Key)
	assert.Equal(t, "pplx-key", cfg.Perplexity.Key)
	assert.Equal(t, []string{"yelp.com"}, cfg.Search.BlockedDomains)
	assert.NoError(t, cfg.Validate("discover"))
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes validation in every mode.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "finder.db"
	cfg.LLM.Provider = "anthropic"
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Search.Providers = []string{"jina"}
	cfg.Crawl.MaxDepth = 5
	cfg.Crawl.MaxConcurrentSeeds = 5
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"discover", "enrich", "serve", "store"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateDiscover_MissingKeys(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Search.Providers = []string{"jina", "places"}

	err := cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "google.key is required")
}

func TestValidateStageProviderOverride(t *testing.T) {
	cfg := validDefaults()
	cfg.Relevance.Provider = "perplexity"

	err := cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perplexity.key is required")

	cfg.Perplexity.Key = "pplx-key"
	assert.NoError(t, cfg.Validate("discover"))

	cfg.Extract.Provider = "openai"
	err = cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown llm provider "openai"`)
}

func TestValidateSearchProviders(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.Providers = nil
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.providers must not be empty")

	cfg.Search.Providers = []string{"bing"}
	err = cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown search provider "bing"`)

	// Enrichment does not need a search provider.
	assert.NoError(t, cfg.Validate("enrich"))
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite, postgres or none")

	// Store commands never need model keys.
	cfg = validDefaults()
	cfg.Anthropic.Key = ""
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.NoError(t, cfg.Validate("discover"))
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Crawl.MaxConcurrentSeeds = 0
	err := cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_seeds must be between 1 and 50")

	cfg.Crawl.MaxConcurrentSeeds = 51
	assert.Error(t, cfg.Validate("discover"))

	cfg.Crawl.MaxConcurrentSeeds = 50
	assert.NoError(t, cfg.Validate("discover"))

	cfg.Crawl.MaxDepth = 0
	err = cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crawl.max_depth must be > 0")
}
