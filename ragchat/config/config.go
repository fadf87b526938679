package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/ragchat/ragchat"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Chat      ChatConfig      `mapstructure:"chat"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Harness   HarnessConfig   `mapstructure:"harness"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Log       LogConfig       `mapstructure:"log"`
}

// ChatConfig selects the conversation strategy and its prompts.
type ChatConfig struct {
	Mode           string `mapstructure:"mode"`            // "simple", "condense_question", "context"
	SystemPrompt   string `mapstructure:"system_prompt"`   // Context template override; must use {{.context_str}}
	CondensePrompt string `mapstructure:"condense_prompt"` // Condense template override; {{.question}}, {{.chat_history}}
	QAPrompt       string `mapstructure:"qa_prompt"`       // Query engine template override; {{.context_str}}, {{.query_str}}
	Verbose        bool   `mapstructure:"verbose"`
}

// LLMConfig stores language model configurations.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // "openai" (any compatible endpoint) or "genai"
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryBase   time.Duration `mapstructure:"retry_base"`
}

// EmbeddingConfig stores embedding model configurations.
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"` // "openai" or "genai"; empty follows llm.provider
	APIKey    string `mapstructure:"api_key"`  // empty uses llm.api_key
	BaseURL   string `mapstructure:"base_url"` // empty uses llm.base_url
	Model     string `mapstructure:"model"`
	Dims      int    `mapstructure:"dims"`
	BatchSize int    `mapstructure:"batch_size"`
}

// HarnessConfig stores gateway decorators: caching, rate limiting and tracing.
type HarnessConfig struct {
	CacheEnabled    bool `mapstructure:"cache_enabled"`     // Cache condensation predictions
	CacheCapacity   int  `mapstructure:"cache_capacity"`    // LRU cache capacity
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"` // Cache entry TTL

	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled"`
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity"`
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate"`

	EnableTracing bool `mapstructure:"enable_tracing"`
}

// MemoryConfig stores retrieval index configurations.
type MemoryConfig struct {
	K                 int    `mapstructure:"k"`   // Top-k nodes returned by the retriever
	DSN               string `mapstructure:"dsn"` // libsql DSN for the node store
	ChunkSize         int    `mapstructure:"chunk_size"`
	ChunkOverlap      int    `mapstructure:"chunk_overlap"`
	IngestConcurrency int    `mapstructure:"ingest_concurrency"`
}

// LogConfig controls the zerolog root logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.AutomaticEnv()
	// Replace dots with underscores in env var names e.g. llm.api_key becomes LLM_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file on the search path; defaults and environment apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	AppConfig = cfg
	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chat.mode", "context")
	v.SetDefault("chat.system_prompt", "")
	v.SetDefault("chat.condense_prompt", "")
	v.SetDefault("chat.qa_prompt", "")
	v.SetDefault("chat.verbose", false)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_base", "500ms")

	v.SetDefault("embedding.provider", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dims", 1536)
	v.SetDefault("embedding.batch_size", 32)

	v.SetDefault("harness.cache_enabled", true)
	v.SetDefault("harness.cache_capacity", 1000)
	v.SetDefault("harness.cache_ttl_seconds", 3600) // 1 hour
	v.SetDefault("harness.rate_limit_enabled", false)
	v.SetDefault("harness.rate_limit_capacity", 10)
	v.SetDefault("harness.rate_limit_refill_rate", "1s")
	v.SetDefault("harness.enable_tracing", true)

	v.SetDefault("memory.k", 2)
	v.SetDefault("memory.dsn", internal.DefaultDatabaseDSN)
	v.SetDefault("memory.chunk_size", 1024)
	v.SetDefault("memory.chunk_overlap", 128)
	v.SetDefault("memory.ingest_concurrency", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}
