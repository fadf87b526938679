package memory

import (
	"context"
	"fmt"
	"strings"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
)

// RetrieverQueryEngine answers a standalone query from retrieved context.
type RetrieverQueryEngine struct {
	retriever ports.Retriever
	predictor ports.Predictor
	prompt    *prompts.Template
}

// NewRetrieverQueryEngine creates a query engine. A nil prompt uses prompts.TextQA.
func NewRetrieverQueryEngine(retriever ports.Retriever, predictor ports.Predictor, prompt *prompts.Template) *RetrieverQueryEngine {
	if prompt == nil {
		prompt = prompts.TextQA
	}
	return &RetrieverQueryEngine{retriever: retriever, predictor: predictor, prompt: prompt}
}

// Query retrieves nodes, fills the QA template and returns the answer with its sources.
func (q *RetrieverQueryEngine) Query(ctx context.Context, query string) (*ports.Response, error) {
	nodes, err := q.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = n.Node.Text
	}

	answer, err := q.predictor.Predict(ctx, q.prompt, map[string]string{
		prompts.VarContext: strings.Join(texts, "\n\n"),
		prompts.VarQuery:   query,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	return &ports.Response{Text: answer, SourceNodes: nodes}, nil
}

var _ ports.QueryEngine = (*RetrieverQueryEngine)(nil)
