package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the compscope service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	DataForSEO DataForSEOConfig `yaml:"dataforseo"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Tasks      TasksConfig      `yaml:"tasks"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication and throttling settings.
type AuthConfig struct {
	APIKeys        []string `yaml:"api_keys"`
	RequestsPerSec float64  `yaml:"requests_per_sec"` // 0 = unlimited
	Burst          int      `yaml:"burst"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis/Valkey connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// EmbeddingConfig holds the vectorization provider settings.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Dimensions   int    `yaml:"dimensions"`
	MaxBatchSize int    `yaml:"max_batch_size"` // texts per upstream call
	CacheTTLHour int    `yaml:"cache_ttl_hours"`
}

// DataForSEOConfig holds SEO data provider settings.
type DataForSEOConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Login          string  `yaml:"login"`
	Password       string  `yaml:"password"`
	TimeoutSec     int     `yaml:"timeout_sec"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	MaxFailures    uint32  `yaml:"breaker_max_failures"`
	BreakerOpenSec int     `yaml:"breaker_open_sec"`
}

// ScraperConfig holds content fetcher settings.
type ScraperConfig struct {
	ReaderBaseURL  string  `yaml:"reader_base_url"` // empty = fetch pages directly
	ReaderAPIKey   string  `yaml:"reader_api_key"`
	TimeoutSec     int     `yaml:"timeout_sec"`
	MaxChars       int     `yaml:"max_chars"`
	UserAgent      string  `yaml:"user_agent"`
	RequestsPerSec float64 `yaml:"requests_per_sec"` // 0 = unlimited
}

// RankingConfig holds the tunable constants of the ranking pipeline.
type RankingConfig struct {
	TopNDomain          int      `yaml:"top_n_domain"`
	TopNLocation        int      `yaml:"top_n_location"`
	LocationFetchLimit  int      `yaml:"location_fetch_limit"`
	DiscoveryLimit      int      `yaml:"discovery_limit"`
	MaxETV              float64  `yaml:"max_etv"`
	MaxKeywordCount     int      `yaml:"max_keyword_count"`
	ExtraBlocklist      []string `yaml:"extra_blocklist"`
	SimilarityChunkSize int      `yaml:"similarity_chunk_size"`
	IntersectionLimit   int      `yaml:"intersection_limit"`
	BucketCap           int      `yaml:"bucket_cap"`
	IdeasLimit          int      `yaml:"ideas_limit"`
	TargetK             int      `yaml:"target_k"`
	OverlapThreshold    float64  `yaml:"overlap_threshold"`
	MapsDepth           int      `yaml:"maps_depth"`
}

// TasksConfig holds background task runner settings.
type TasksConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
	TTLHours  int `yaml:"ttl_hours"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "compscope:"
	}
	c.applyEmbeddingDefaults()
	c.applyProviderDefaults()
	c.applyRankingDefaults()
	if c.Tasks.Workers <= 0 {
		c.Tasks.Workers = 4
	}
	if c.Tasks.QueueSize <= 0 {
		c.Tasks.QueueSize = 64
	}
	if c.Tasks.TTLHours <= 0 {
		c.Tasks.TTLHours = 24
	}
	if c.Auth.RequestsPerSec > 0 && c.Auth.Burst <= 0 {
		c.Auth.Burst = int(c.Auth.RequestsPerSec) + 1
	}
}

func (c *Config) applyEmbeddingDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.MaxBatchSize <= 0 {
		c.Embedding.MaxBatchSize = 2000
	}
	if c.Embedding.CacheTTLHour <= 0 {
		c.Embedding.CacheTTLHour = 7 * 24
	}
}

func (c *Config) applyProviderDefaults() {
	if c.DataForSEO.BaseURL == "" {
		c.DataForSEO.BaseURL = "https://api.dataforseo.com"
	}
	if c.DataForSEO.TimeoutSec <= 0 {
		c.DataForSEO.TimeoutSec = 60
	}
	if c.DataForSEO.RequestsPerSec <= 0 {
		c.DataForSEO.RequestsPerSec = 20
	}
	if c.DataForSEO.MaxFailures == 0 {
		c.DataForSEO.MaxFailures = 5
	}
	if c.DataForSEO.BreakerOpenSec <= 0 {
		c.DataForSEO.BreakerOpenSec = 30
	}
	if c.Scraper.TimeoutSec <= 0 {
		c.Scraper.TimeoutSec = 15
	}
	if c.Scraper.MaxChars <= 0 {
		c.Scraper.MaxChars = 8000
	}
}

func (c *Config) applyRankingDefaults() {
	r := &c.Ranking
	setInt := func(p *int, v int) {
		if *p <= 0 {
			*p = v
		}
	}
	setInt(&r.TopNDomain, 10)
	setInt(&r.TopNLocation, 20)
	setInt(&r.LocationFetchLimit, 20)
	setInt(&r.DiscoveryLimit, 100)
	setInt(&r.MaxKeywordCount, 50000)
	setInt(&r.SimilarityChunkSize, 2000)
	setInt(&r.IntersectionLimit, 1000)
	setInt(&r.BucketCap, 50)
	setInt(&r.IdeasLimit, 150)
	setInt(&r.TargetK, 20)
	setInt(&r.MapsDepth, 100)
	if r.MaxETV <= 0 {
		r.MaxETV = 100000
	}
	if r.OverlapThreshold <= 0 {
		r.OverlapThreshold = 0.7
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Ranking.IdeasLimit > 150 {
		return fmt.Errorf("ranking.ideas_limit must be at most 150, got %d", c.Ranking.IdeasLimit)
	}
	if c.Ranking.OverlapThreshold > 1 {
		return fmt.Errorf("ranking.overlap_threshold must be in (0,1], got %g", c.Ranking.OverlapThreshold)
	}
	if c.Scraper.ReaderBaseURL != "" && !strings.HasPrefix(c.Scraper.ReaderBaseURL, "http") {
		return fmt.Errorf("scraper.reader_base_url must be an http(s) URL, got %q", c.Scraper.ReaderBaseURL)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
