package chat

import (
	"fmt"

	"github.com/ZanzyTHEbar/ragchat/ragchat/chat/adapters"
	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/config"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
	"github.com/rs/zerolog"
)

// Dependencies are the gateways an engine may need. Which ones are required depends on the mode.
type Dependencies struct {
	Completer   ports.Completer
	Predictor   ports.Predictor // optional; defaults to a predictor over Completer
	Retriever   ports.Retriever
	QueryEngine ports.QueryEngine
}

// Factory creates and wires engines from configuration.
type Factory struct {
	chatConfig    config.ChatConfig
	harnessConfig config.HarnessConfig
	logger        zerolog.Logger
	limiter       ports.RateLimiter
}

// NewFactory creates a new engine factory. The rate limiter is shared by every engine
// the factory creates.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	f := &Factory{
		chatConfig:    cfg.Chat,
		harnessConfig: cfg.Harness,
		logger:        logger,
	}
	if cfg.Harness.RateLimitEnabled {
		f.limiter = adapters.NewTokenBucket(cfg.Harness.RateLimitCapacity, cfg.Harness.RateLimitRefillRate)
	}
	return f
}

// CreateEngine builds the engine selected by chat.mode.
func (f *Factory) CreateEngine(deps Dependencies, history ...ports.Message) (Engine, error) {
	mode, err := ParseMode(f.chatConfig.Mode)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogger(f.logger),
		WithTracer(f.CreateTracer()),
		WithVerbose(f.chatConfig.Verbose),
	}
	if len(history) > 0 {
		opts = append(opts, WithInitialHistory(history))
	}

	switch mode {
	case ModeSimple:
		if deps.Completer == nil {
			return nil, fmt.Errorf("%w: %s engine needs a completer", ErrMissingDependency, mode)
		}
		return NewSimpleEngine(f.CreateCompleter(deps.Completer), opts...), nil

	case ModeCondenseQuestion:
		if deps.QueryEngine == nil {
			return nil, fmt.Errorf("%w: %s engine needs a query engine", ErrMissingDependency, mode)
		}
		predictor := deps.Predictor
		if predictor == nil {
			if deps.Completer == nil {
				return nil, fmt.Errorf("%w: %s engine needs a predictor or completer", ErrMissingDependency, mode)
			}
			predictor = adapters.NewCompleterPredictor(f.CreateCompleter(deps.Completer))
		}
		condensePrompt, err := prompts.FromText("condense_question", f.chatConfig.CondensePrompt, prompts.CondenseQuestion)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCondensePrompt(condensePrompt))
		return NewCondenseQuestionEngine(deps.QueryEngine, f.CreatePredictor(predictor), opts...), nil

	case ModeContext:
		if deps.Retriever == nil || deps.Completer == nil {
			return nil, fmt.Errorf("%w: %s engine needs a retriever and a completer", ErrMissingDependency, mode)
		}
		systemPrompt, err := prompts.FromText("context_system", f.chatConfig.SystemPrompt, prompts.ContextSystem)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSystemPrompt(systemPrompt))
		return NewContextEngine(deps.Retriever, f.CreateCompleter(deps.Completer), opts...), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// CreateTracer creates a tracer adapter from config.
func (f *Factory) CreateTracer() ports.Tracer {
	if !f.harnessConfig.EnableTracing {
		return noOpTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

// CreateCompleter wraps inner with the shared rate limiter when enabled.
func (f *Factory) CreateCompleter(inner ports.Completer) ports.Completer {
	if f.limiter == nil {
		return inner
	}
	return adapters.NewRateLimitedCompleter(inner, f.limiter, "completion")
}

// CreatePredictor wraps inner with an LRU cache when enabled.
func (f *Factory) CreatePredictor(inner ports.Predictor) ports.Predictor {
	if !f.harnessConfig.CacheEnabled {
		return inner
	}
	return adapters.NewCachingPredictor(inner, adapters.NewLRUCache(f.harnessConfig.CacheCapacity), f.harnessConfig.CacheTTLSeconds)
}
