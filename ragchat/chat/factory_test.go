package chat

import (
	"context"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/ragchat/ragchat/chat/adapters"
	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig(mode string) *config.Config {
	cfg := config.Default()
	cfg.Chat.Mode = mode
	cfg.Harness.EnableTracing = false
	return cfg
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"simple":            ModeSimple,
		"CONDENSE_QUESTION": ModeCondenseQuestion,
		" context ":         ModeContext,
		"":                  ModeContext,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("best")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestFactory_CreateEngineByMode(t *testing.T) {
	deps := Dependencies{
		Completer:   new(MockCompleter),
		Retriever:   new(MockRetriever),
		QueryEngine: new(MockQueryEngine),
	}

	cases := map[string]any{
		"simple":            &SimpleEngine{},
		"condense_question": &CondenseQuestionEngine{},
		"context":           &ContextEngine{},
	}
	for mode, want := range cases {
		engine, err := NewFactory(testConfig(mode), zerolog.Nop()).CreateEngine(deps)
		require.NoError(t, err, mode)
		assert.IsType(t, want, engine, mode)
	}
}

func TestFactory_MissingDependencies(t *testing.T) {
	for _, mode := range []string{"simple", "condense_question", "context"} {
		_, err := NewFactory(testConfig(mode), zerolog.Nop()).CreateEngine(Dependencies{})
		assert.ErrorIs(t, err, ErrMissingDependency, mode)
	}
}

func TestFactory_InitialHistory(t *testing.T) {
	engine, err := NewFactory(testConfig("simple"), zerolog.Nop()).CreateEngine(
		Dependencies{Completer: new(MockCompleter)},
		ports.UserMessage("hi"), ports.AssistantMessage("hello"),
	)
	require.NoError(t, err)
	assert.Len(t, engine.History(), 2)
}

func TestFactory_CustomPrompts(t *testing.T) {
	cfg := testConfig("context")
	cfg.Chat.SystemPrompt = "Facts:\n{{.context_str}}"

	retriever := new(MockRetriever)
	completer := new(MockCompleter)
	retriever.On("Retrieve", mock.Anything, "q").Return([]ports.NodeWithScore{node("n", "sky is blue", 1)}, nil)
	completer.On("Chat", mock.Anything, []ports.Message{
		ports.SystemMessage("Facts:\nsky is blue"),
		ports.UserMessage("q"),
	}).Return(ports.AssistantMessage("blue"), nil).Once()

	engine, err := NewFactory(cfg, zerolog.Nop()).CreateEngine(Dependencies{Retriever: retriever, Completer: completer})
	require.NoError(t, err)

	resp, err := engine.Chat(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "blue", resp.Text)
	completer.AssertExpectations(t)
}

func TestFactory_InvalidCustomPrompt(t *testing.T) {
	cfg := testConfig("condense_question")
	cfg.Chat.CondensePrompt = "{{.question"

	_, err := NewFactory(cfg, zerolog.Nop()).CreateEngine(Dependencies{
		Completer:   new(MockCompleter),
		QueryEngine: new(MockQueryEngine),
	})
	assert.Error(t, err)
}

func TestFactory_CondenseUsesCompleterPredictorAndCache(t *testing.T) {
	cfg := testConfig("condense_question")
	cfg.Harness.CacheEnabled = true

	completer := new(MockCompleter)
	queryEngine := new(MockQueryEngine)
	completer.On("Chat", mock.Anything, mock.MatchedBy(func(msgs []ports.Message) bool {
		return len(msgs) == 1 && msgs[0].Role == ports.RoleUser
	})).Return(ports.AssistantMessage("standalone question"), nil).Once()
	queryEngine.On("Query", mock.Anything, mock.Anything).Return(&ports.Response{Text: "answer"}, nil)

	engine, err := NewFactory(cfg, zerolog.Nop()).CreateEngine(
		Dependencies{Completer: completer, QueryEngine: queryEngine},
		ports.UserMessage("context"), ports.AssistantMessage("ack"),
	)
	require.NoError(t, err)

	history := engine.History()
	_, err = engine.Chat(context.Background(), "follow up")
	require.NoError(t, err)

	// identical history and question hit the prediction cache
	_, err = engine.Chat(context.Background(), "follow up", WithHistory(history))
	require.NoError(t, err)

	completer.AssertNumberOfCalls(t, "Chat", 1)
	queryEngine.AssertNumberOfCalls(t, "Query", 2)
	queryEngine.AssertCalled(t, "Query", mock.Anything, "standalone question")
}

func TestFactory_RateLimitSharedAcrossEngines(t *testing.T) {
	cfg := testConfig("simple")
	cfg.Harness.RateLimitEnabled = true
	cfg.Harness.RateLimitCapacity = 1
	cfg.Harness.RateLimitRefillRate = time.Hour

	completer := new(MockCompleter)
	completer.On("Chat", mock.Anything, mock.Anything).Return(ports.AssistantMessage("ok"), nil)

	factory := NewFactory(cfg, zerolog.Nop())
	first, err := factory.CreateEngine(Dependencies{Completer: completer})
	require.NoError(t, err)
	second, err := factory.CreateEngine(Dependencies{Completer: completer})
	require.NoError(t, err)

	_, err = first.Chat(context.Background(), "hi")
	require.NoError(t, err)

	_, err = second.Chat(context.Background(), "hi")
	assert.ErrorIs(t, err, adapters.ErrRateLimitExceeded)
	completer.AssertNumberOfCalls(t, "Chat", 1)
}

func TestFactory_CreateTracer(t *testing.T) {
	cfg := testConfig("simple")
	assert.IsType(t, noOpTracer{}, NewFactory(cfg, zerolog.Nop()).CreateTracer())

	cfg.Harness.EnableTracing = true
	assert.IsType(t, &adapters.ZerologTracer{}, NewFactory(cfg, zerolog.Nop()).CreateTracer())
}
