// Package llm provides language-model gateways: chat completion, prediction and embeddings.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/config"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// OpenAIClient talks to any OpenAI-compatible chat completions and embeddings endpoint.
// Transient failures (429, 5xx, transport errors) are retried with exponential backoff.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	embedModel  string
	dims        int
	temperature float32
	maxTokens   int
	maxRetries  uint64
	retryBase   time.Duration
	httpClient  *http.Client
	logger      zerolog.Logger
}

// OpenAIOption customizes an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAIClient) { c.httpClient = hc }
}

func WithOpenAILogger(logger zerolog.Logger) OpenAIOption {
	return func(c *OpenAIClient) { c.logger = logger }
}

// WithEmbeddingModel sets the model and vector size used by Embed.
func WithEmbeddingModel(model string, dims int) OpenAIOption {
	return func(c *OpenAIClient) {
		c.embedModel = model
		c.dims = dims
	}
}

// NewOpenAIClient creates a client from LLM configuration.
func NewOpenAIClient(cfg config.LLMConfig, opts ...OpenAIOption) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 500 * time.Millisecond
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	c := &OpenAIClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  uint64(maxRetries),
		retryBase:   retryBase,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []ports.Message `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Chat sends messages to the chat completions endpoint and returns the assistant reply.
func (c *OpenAIClient) Chat(ctx context.Context, messages []ports.Message) (ports.Message, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return ports.Message{}, err
	}

	if len(resp.Choices) == 0 {
		return ports.Message{}, ErrEmptyResponse
	}

	if resp.Usage != nil {
		c.logger.Debug().
			Str("event_id", ports.EventID(ctx)).
			Str("model", c.model).
			Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("completion_tokens", resp.Usage.CompletionTokens).
			Msg("Chat completion")
	}

	return ports.AssistantMessage(resp.Choices[0].Message.Content), nil
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per text, in input order.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	if err := c.post(ctx, "/embeddings", embeddingRequest{Model: c.embedModel, Input: texts, Dimensions: c.dims}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmptyResponse, len(resp.Data), len(texts))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

func (c *OpenAIClient) Dimensions() int { return c.dims }

// post marshals body, sends it with retries and decodes the reply into out.
func (c *OpenAIClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.send(ctx, path, payload, out)
		if err == nil {
			return nil
		}

		var (
			statusErr *StatusError
			decodeErr *errDecode
		)
		var retryable bool
		switch {
		case errors.As(err, &statusErr):
			retryable = statusErr.Retryable()
		case errors.As(err, &decodeErr):
			retryable = false
		default:
			// transport failure
			retryable = ctx.Err() == nil
		}
		if !retryable {
			return err
		}

		c.logger.Warn().Err(err).Str("path", path).Int("attempt", attempt).Msg("Retrying provider request")
		return retry.RetryableError(err)
	})
}

// errDecode marks a reply that arrived but could not be parsed; it is never retried.
type errDecode struct{ err error }

func (e *errDecode) Error() string { return e.err.Error() }
func (e *errDecode) Unwrap() error { return e.err }

func (c *OpenAIClient) send(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &errDecode{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed reading provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 400)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &errDecode{fmt.Errorf("failed to parse provider response: %s", truncate(string(data), 400))}
	}
	return nil
}

var (
	_ ports.Completer = (*OpenAIClient)(nil)
	_ ports.Embedder  = (*OpenAIClient)(nil)
)
