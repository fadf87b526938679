package llm

import (
	"context"
	"fmt"
	"strings"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/config"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GenAIClient is a Completer and Embedder backed by the Gemini API.
type GenAIClient struct {
	client      *genai.Client
	model       string
	embedModel  string
	dims        int
	temperature float32
	maxTokens   int
	logger      zerolog.Logger
}

// NewGenAIClient creates a Gemini client from LLM and embedding configuration.
func NewGenAIClient(ctx context.Context, cfg config.LLMConfig, emb config.EmbeddingConfig, logger zerolog.Logger) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{
		client:      client,
		model:       cfg.Model,
		embedModel:  emb.Model,
		dims:        emb.Dims,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Chat sends the conversation to GenerateContent. System messages become the system instruction.
func (c *GenAIClient) Chat(ctx context.Context, messages []ports.Message) (ports.Message, error) {
	system, contents := toGenAIContents(messages)

	conf := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: int32(c.maxTokens),
	}
	if system != "" {
		conf.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, conf)
	if err != nil {
		return ports.Message{}, fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return ports.Message{}, ErrEmptyResponse
	}

	c.logger.Debug().Str("event_id", ports.EventID(ctx)).Str("model", c.model).Msg("GenAI completion")
	return ports.AssistantMessage(text), nil
}

// Embed generates embeddings for multiple texts in one batch call.
func (c *GenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := c.client.Models.EmbedContent(ctx, c.embedModel, contents, c.embedConfig())
	if err != nil {
		return nil, fmt.Errorf("GenAI batch embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmptyResponse, len(result.Embeddings), len(texts))
	}

	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if c.dims > 0 && len(emb.Values) != c.dims {
			return nil, fmt.Errorf("GenAI embed: got %d dimensions, configured %d", len(emb.Values), c.dims)
		}
		out[i] = emb.Values
	}
	return out, nil
}

func (c *GenAIClient) Dimensions() int { return c.dims }

// embedConfig requests the configured vector size so Dimensions matches what Embed returns.
func (c *GenAIClient) embedConfig() *genai.EmbedContentConfig {
	if c.dims <= 0 {
		return nil
	}
	return &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(c.dims))}
}

// toGenAIContents splits system text from the turn contents and maps assistant to the model role.
func toGenAIContents(messages []ports.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case ports.RoleSystem:
			system = append(system, m.Content)
		case ports.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

var (
	_ ports.Completer = (*GenAIClient)(nil)
	_ ports.Embedder  = (*GenAIClient)(nil)
)
