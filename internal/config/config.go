package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

// MirrorConfig points at an optional Memgraph/Neo4j instance the ingested
// graphs are exported to for dashboard queries. Empty URI disables it.
type MirrorConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type AnalysisConfig struct {
	HopLimit         int     `toml:"hop_limit"`
	DecayRatio       float64 `toml:"decay_ratio"`
	TimeoutMS        int     `toml:"timeout_ms"`
	SemanticK        int     `toml:"semantic_k"`
	SemanticMinScore float64 `toml:"semantic_min_score"`
	RiskDiscount     float64 `toml:"risk_discount"`
}

type ConcurrencyConfig struct {
	BulkEmbed int `toml:"bulk_embed"`
}

type Config struct {
	LLM         LLMConfig         `toml:"llm"`
	Mirror      MirrorConfig      `toml:"mirror"`
	Analysis    AnalysisConfig    `toml:"analysis"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
}

// Default returns the configuration used when no file is present: local
// deterministic embeddings, no mirror, standard analysis knobs.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{Provider: "local"},
		Analysis: AnalysisConfig{
			HopLimit:         3,
			DecayRatio:       0.5,
			TimeoutMS:        2000,
			SemanticK:        5,
			SemanticMinScore: 0.85,
			RiskDiscount:     0.5,
		},
		Concurrency: ConcurrencyConfig{BulkEmbed: 8},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		c.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("MIRROR_URI"); v != "" {
		c.Mirror.URI = v
	}
	if v := os.Getenv("MIRROR_USER"); v != "" {
		c.Mirror.User = v
	}
	if v := os.Getenv("MIRROR_PASSWORD"); v != "" {
		c.Mirror.Password = v
	}
	if v := os.Getenv("ANALYSIS_HOP_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.HopLimit = n
		}
	}
	if v := os.Getenv("ANALYSIS_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.TimeoutMS = n
		}
	}
}

// AnalysisTimeout converts the configured millisecond budget.
func (c *Config) AnalysisTimeout() time.Duration {
	if c.Analysis.TimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Analysis.TimeoutMS) * time.Millisecond
}
