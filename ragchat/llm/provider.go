package llm

import (
	"context"
	"fmt"
	"strings"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/config"
	"github.com/rs/zerolog"
)

const (
	ProviderOpenAI = "openai"
	ProviderGenAI  = "genai"
)

// Gateways are the model services a host needs. Completer and Embedder may be backed by
// different providers.
type Gateways struct {
	Completer ports.Completer
	Embedder  ports.Embedder
}

// New builds the completer named by llm.provider and the embedder named by embedding.provider.
// An empty embedding provider, key or base URL falls back to the llm settings, and a single
// client serves both when the settings match.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Gateways, error) {
	llmProvider, err := normalizeProvider(cfg.LLM.Provider)
	if err != nil {
		return Gateways{}, fmt.Errorf("llm: %w", err)
	}
	embedCfg := embeddingLLMConfig(cfg)
	embedProvider := llmProvider
	if cfg.Embedding.Provider != "" {
		if embedProvider, err = normalizeProvider(cfg.Embedding.Provider); err != nil {
			return Gateways{}, fmt.Errorf("embedding: %w", err)
		}
	}

	completer, err := newClient(ctx, llmProvider, cfg.LLM, cfg.Embedding, logger)
	if err != nil {
		return Gateways{}, err
	}

	shared := embedProvider == llmProvider &&
		embedCfg.APIKey == cfg.LLM.APIKey &&
		embedCfg.BaseURL == cfg.LLM.BaseURL
	if shared {
		return Gateways{Completer: completer, Embedder: completer}, nil
	}

	embedder, err := newClient(ctx, embedProvider, embedCfg, cfg.Embedding, logger)
	if err != nil {
		return Gateways{}, err
	}
	return Gateways{Completer: completer, Embedder: embedder}, nil
}

type client interface {
	ports.Completer
	ports.Embedder
}

func newClient(ctx context.Context, provider string, lc config.LLMConfig, ec config.EmbeddingConfig, logger zerolog.Logger) (client, error) {
	switch provider {
	case ProviderGenAI:
		return NewGenAIClient(ctx, lc, ec, logger.With().Str("component", "llm.genai").Logger())
	default:
		return NewOpenAIClient(lc,
			WithEmbeddingModel(ec.Model, ec.Dims),
			WithOpenAILogger(logger.With().Str("component", "llm.openai").Logger()),
		), nil
	}
}

// embeddingLLMConfig is the transport config for the embedder: the llm settings with the
// embedding key and base URL applied when set.
func embeddingLLMConfig(cfg *config.Config) config.LLMConfig {
	lc := cfg.LLM
	if cfg.Embedding.APIKey != "" {
		lc.APIKey = cfg.Embedding.APIKey
	}
	if cfg.Embedding.BaseURL != "" {
		lc.BaseURL = cfg.Embedding.BaseURL
	}
	return lc
}

func normalizeProvider(p string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "", ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderGenAI:
		return ProviderGenAI, nil
	default:
		return "", fmt.Errorf("unknown provider %q", p)
	}
}
