package chat

import (
	"context"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
	"github.com/stretchr/testify/mock"
)

// MockCompleter is a testify mock for ports.Completer.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Chat(ctx context.Context, messages []ports.Message) (ports.Message, error) {
	args := m.Called(ctx, messages)
	return args.Get(0).(ports.Message), args.Error(1)
}

// MockRetriever is a testify mock for ports.Retriever.
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string) ([]ports.NodeWithScore, error) {
	args := m.Called(ctx, query)
	nodes, _ := args.Get(0).([]ports.NodeWithScore)
	return nodes, args.Error(1)
}

// MockQueryEngine is a testify mock for ports.QueryEngine.
type MockQueryEngine struct {
	mock.Mock
}

func (m *MockQueryEngine) Query(ctx context.Context, query string) (*ports.Response, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*ports.Response)
	return resp, args.Error(1)
}

// MockPredictor is a testify mock for ports.Predictor.
type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, prompt *prompts.Template, vars map[string]string) (string, error) {
	args := m.Called(ctx, prompt, vars)
	return args.String(0), args.Error(1)
}

func node(id, text string, score float64) ports.NodeWithScore {
	return ports.NodeWithScore{Node: ports.Node{ID: id, Text: text}, Score: score}
}
