package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
)

// CompleterPredictor implements Predictor by sending the rendered prompt as one user message.
type CompleterPredictor struct {
	completer ports.Completer
}

func NewCompleterPredictor(completer ports.Completer) *CompleterPredictor {
	return &CompleterPredictor{completer: completer}
}

// Predict renders prompt with vars and returns the completion text.
func (p *CompleterPredictor) Predict(ctx context.Context, prompt *prompts.Template, vars map[string]string) (string, error) {
	text, err := prompt.Format(vars)
	if err != nil {
		return "", err
	}

	reply, err := p.completer.Chat(ctx, []ports.Message{ports.UserMessage(text)})
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// RateLimitedCompleter acquires a limiter token before each completion.
type RateLimitedCompleter struct {
	inner   ports.Completer
	limiter ports.RateLimiter
	key     string
}

func NewRateLimitedCompleter(inner ports.Completer, limiter ports.RateLimiter, key string) *RateLimitedCompleter {
	return &RateLimitedCompleter{inner: inner, limiter: limiter, key: key}
}

func (c *RateLimitedCompleter) Chat(ctx context.Context, messages []ports.Message) (ports.Message, error) {
	release, err := c.limiter.Acquire(ctx, c.key)
	if err != nil {
		return ports.Message{}, fmt.Errorf("acquire %s: %w", c.key, err)
	}
	defer release()

	return c.inner.Chat(ctx, messages)
}

// CachingPredictor memoizes predictions by prompt and variables.
type CachingPredictor struct {
	inner      ports.Predictor
	cache      ports.Cache
	ttlSeconds int
}

func NewCachingPredictor(inner ports.Predictor, cache ports.Cache, ttlSeconds int) *CachingPredictor {
	return &CachingPredictor{inner: inner, cache: cache, ttlSeconds: ttlSeconds}
}

func (p *CachingPredictor) Predict(ctx context.Context, prompt *prompts.Template, vars map[string]string) (string, error) {
	key := predictionKey(prompt, vars)
	if cached, ok := p.cache.Get(ctx, key); ok {
		return string(cached), nil
	}

	out, err := p.inner.Predict(ctx, prompt, vars)
	if err != nil {
		return "", err
	}

	// A failed cache write only costs a future miss.
	_ = p.cache.Set(ctx, key, []byte(out), p.ttlSeconds)
	return out, nil
}

// predictionKey hashes the template text and the sorted variables.
func predictionKey(prompt *prompts.Template, vars map[string]string) string {
	h := sha256.New()
	h.Write([]byte(prompt.Name()))
	h.Write([]byte{0})
	h.Write([]byte(prompt.Text()))

	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(vars[k]))
	}
	return "predict:" + hex.EncodeToString(h.Sum(nil))
}

var (
	_ ports.Predictor = (*CompleterPredictor)(nil)
	_ ports.Predictor = (*CachingPredictor)(nil)
	_ ports.Completer = (*RateLimitedCompleter)(nil)
)
