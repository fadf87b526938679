package chatports

import (
	"context"

	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
)

// Node is a retrievable unit of content.
type Node struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NodeWithScore pairs a node with its relevance score (higher is better).
type NodeWithScore struct {
	Node  Node    `json:"node"`
	Score float64 `json:"score"`
}

// Response is the outcome of one chat turn or query.
type Response struct {
	Text        string          `json:"text"`
	SourceNodes []NodeWithScore `json:"source_nodes,omitempty"`
}

// Completer returns the next assistant message for an ordered message sequence.
// The first message may be a system message.
type Completer interface {
	Chat(ctx context.Context, messages []Message) (Message, error)
}

// Predictor renders a prompt and returns a single-shot completion.
type Predictor interface {
	Predict(ctx context.Context, prompt *prompts.Template, vars map[string]string) (string, error)
}

// Retriever returns nodes ranked best-first for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]NodeWithScore, error)
}

// QueryEngine answers a standalone query, retrieving whatever it needs internally.
type QueryEngine interface {
	Query(ctx context.Context, query string) (*Response, error)
}

// Embedder produces dense vectors for texts, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
