package config

import (
	"strings"
	"testing"
)

func TestParse_DefaultsAndEnvExpansion(t *testing.T) {
	t.Setenv("COMPSCOPE_TEST_OPENAI_KEY", "sk-test")

	yml := `
http:
  port: 8080
database:
  addrs: ["${COMPSCOPE_TEST_REDIS:-localhost:6379}"]
embedding:
  api_key: ${COMPSCOPE_TEST_OPENAI_KEY}
`
	cfg, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("expected expanded api key, got %q", cfg.Embedding.APIKey)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("expected default addr, got %q", cfg.Database.Addrs[0])
	}
	if cfg.Ranking.BucketCap != 50 || cfg.Ranking.OverlapThreshold != 0.7 || cfg.Ranking.TargetK != 20 {
		t.Errorf("unexpected ranking defaults: %+v", cfg.Ranking)
	}
	if cfg.Ranking.TopNDomain != 10 || cfg.Ranking.TopNLocation != 20 || cfg.Ranking.LocationFetchLimit != 20 {
		t.Errorf("unexpected top-n defaults: %+v", cfg.Ranking)
	}
	if cfg.Ranking.SimilarityChunkSize != 2000 || cfg.Embedding.MaxBatchSize != 2000 {
		t.Errorf("unexpected chunk defaults: %+v / %+v", cfg.Ranking, cfg.Embedding)
	}
	if cfg.Ranking.MaxETV != 100000 || cfg.Ranking.MaxKeywordCount != 50000 {
		t.Errorf("unexpected outlier defaults: %+v", cfg.Ranking)
	}
	if cfg.Database.KeyPrefix != "compscope:" {
		t.Errorf("unexpected key prefix %q", cfg.Database.KeyPrefix)
	}
}

func TestParse_OverridesKept(t *testing.T) {
	yml := `
http: {port: 9000}
database: {addrs: ["redis:6379"]}
ranking:
  bucket_cap: 25
  overlap_threshold: 0.5
`
	cfg, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ranking.BucketCap != 25 || cfg.Ranking.OverlapThreshold != 0.5 {
		t.Errorf("overrides lost: %+v", cfg.Ranking)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Addrs: []string{"x:6379"}}}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"ideas limit", func(c *Config) { c.Ranking.IdeasLimit = 500 }, "ideas_limit"},
		{"threshold", func(c *Config) { c.Ranking.OverlapThreshold = 1.5 }, "overlap_threshold"},
		{"reader url", func(c *Config) { c.Scraper.ReaderBaseURL = "r.jina.ai" }, "reader_base_url"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("expected local, got %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("expected prod, got %q", GetEnv())
	}
}
