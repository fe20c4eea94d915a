package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Scorer     ScorerConfig     `yaml:"scorer" mapstructure:"scorer"`
	Chat       ChatConfig       `yaml:"chat" mapstructure:"chat"`
	Session    SessionConfig    `yaml:"session" mapstructure:"session"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the session store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	ClassifyModel string `yaml:"classify_model" mapstructure:"classify_model"`
	RespondModel  string `yaml:"respond_model" mapstructure:"respond_model"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string  `yaml:"search_base_url" mapstructure:"search_base_url"`
	RateLimit     float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// PerplexityConfig holds Perplexity API settings (search fallback).
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// SearchConfig configures product search behavior.
type SearchConfig struct {
	MaxResults     int  `yaml:"max_results" mapstructure:"max_results"`
	MaxConcurrent  int  `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	SampleFallback bool `yaml:"sample_fallback" mapstructure:"sample_fallback"`
}

// ScorerConfig configures offer scoring weights and heuristics.
// Weights sum to 100.
type ScorerConfig struct {
	PriceWeight        float64 `yaml:"price_weight" mapstructure:"price_weight"`
	SourceWeight       float64 `yaml:"source_weight" mapstructure:"source_weight"`
	DescriptionWeight  float64 `yaml:"description_weight" mapstructure:"description_weight"`
	AvailabilityWeight float64 `yaml:"availability_weight" mapstructure:"availability_weight"`
	RatingWeight       float64 `yaml:"rating_weight" mapstructure:"rating_weight"`

	// PriceReference is the price at which the price sub-score bottoms out.
	PriceReference float64 `yaml:"price_reference" mapstructure:"price_reference"`

	TrustedSources      []string `yaml:"trusted_sources" mapstructure:"trusted_sources"`
	MediumTrustSources  []string `yaml:"medium_trust_sources" mapstructure:"medium_trust_sources"`
	DescriptionKeywords []string `yaml:"description_keywords" mapstructure:"description_keywords"`
}

// ChatConfig configures conversation behavior.
type ChatConfig struct {
	MaxTurns  int   `yaml:"max_turns" mapstructure:"max_turns"`
	MaxTokens int64 `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SessionConfig configures session lifecycle.
type SessionConfig struct {
	// TTL of 0 means sessions never expire.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("DEALFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("anthropic.classify_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.respond_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.rate_limit", 5)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.max_concurrent", 3)
	v.SetDefault("search.sample_fallback", false)
	v.SetDefault("chat.max_turns", 3)
	v.SetDefault("chat.max_tokens", 1000)
	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("scorer.price_weight", 40)
	v.SetDefault("scorer.source_weight", 20)
	v.SetDefault("scorer.description_weight", 20)
	v.SetDefault("scorer.availability_weight", 10)
	v.SetDefault("scorer.rating_weight", 10)
	v.SetDefault("scorer.price_reference", 1000)
	v.SetDefault("scorer.trusted_sources", []string{"amazon", "bestbuy", "walmart", "target", "newegg", "bhphotovideo"})
	v.SetDefault("scorer.medium_trust_sources", []string{"ebay", "etsy", "shopify", "woocommerce"})
	v.SetDefault("scorer.description_keywords", []string{"warranty", "guarantee", "free shipping", "fast delivery", "authentic", "genuine"})

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
