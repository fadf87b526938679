package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testLLMConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		Provider:    ProviderOpenAI,
		BaseURL:     baseURL,
		APIKey:      "sk-test",
		Model:       "test-model",
		Temperature: 0.1,
		MaxTokens:   64,
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		RetryBase:   time.Millisecond,
	}
}

func TestOpenAIClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, ports.RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "hi", req.Messages[1].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" hello \n"}}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(testLLMConfig(srv.URL))
	msg, err := c.Chat(context.Background(), []ports.Message{ports.SystemMessage("be brief"), ports.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, ports.AssistantMessage(" hello \n"), msg, "reply content is passed through verbatim")
}

func TestOpenAIClient_RetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(testLLMConfig(srv.URL))
	msg, err := c.Chat(context.Background(), []ports.Message{ports.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewOpenAIClient(testLLMConfig(srv.URL))
	_, err := c.Chat(context.Background(), []ports.Message{ports.UserMessage("hi")})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOpenAIClient(testLLMConfig(srv.URL))
	_, err := c.Chat(context.Background(), []ports.Message{ports.UserMessage("hi")})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.False(t, statusErr.Retryable())
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(testLLMConfig(srv.URL)).Chat(context.Background(), []ports.Message{ports.UserMessage("hi")})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClient_MalformedBodyNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(testLLMConfig(srv.URL)).Chat(context.Background(), []ports.Message{ports.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse provider response")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "embed-model", req.Model)
		assert.Equal(t, []string{"a", "b"}, req.Input)

		// out of order on purpose
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(testLLMConfig(srv.URL), WithEmbeddingModel("embed-model", 2))
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, 2, c.Dimensions())

	none, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOpenAIClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOpenAIClient(testLLMConfig(srv.URL)).Chat(ctx, []ports.Message{ports.UserMessage("hi")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToGenAIContents(t *testing.T) {
	system, contents := toGenAIContents([]ports.Message{
		ports.SystemMessage("ctx one"),
		ports.UserMessage("q1"),
		ports.AssistantMessage("a1"),
		ports.UserMessage("q2"),
	})

	assert.Equal(t, "ctx one", system)
	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "a1", contents[1].Parts[0].Text)
	assert.Equal(t, "q2", contents[2].Parts[0].Text)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "nope"
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Embedding.Provider = "nope"
	_, err = New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNew_SharedClientByDefault(t *testing.T) {
	cfg := config.Default()

	gw, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &OpenAIClient{}, gw.Completer)
	assert.Same(t, gw.Completer, gw.Embedder)
	assert.Equal(t, cfg.Embedding.Dims, gw.Embedder.Dimensions())
}

func TestNew_EmbeddingSettingsSelectSeparateClient(t *testing.T) {
	var embedAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		embedAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,2]}]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.LLM.APIKey = "sk-chat"
	cfg.Embedding.Provider = ProviderOpenAI
	cfg.Embedding.APIKey = "sk-embed"
	cfg.Embedding.BaseURL = srv.URL
	cfg.Embedding.Dims = 2

	gw, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotSame(t, gw.Completer, gw.Embedder)

	_, err = gw.Embedder.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-embed", embedAuth)
}

func TestGenAIClient_EmbedConfigRequestsDimensions(t *testing.T) {
	c := &GenAIClient{dims: 768}
	conf := c.embedConfig()
	require.NotNil(t, conf)
	require.NotNil(t, conf.OutputDimensionality)
	assert.Equal(t, int32(768), *conf.OutputDimensionality)
	assert.Equal(t, 768, c.Dimensions())

	assert.Nil(t, (&GenAIClient{}).embedConfig())
}
