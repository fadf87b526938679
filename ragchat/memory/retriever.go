package memory

import (
	"context"
	"fmt"
	"time"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/rs/zerolog"
)

// VectorRetriever embeds the query and returns the top-k most similar stored nodes.
type VectorRetriever struct {
	embedder ports.Embedder
	index    *FlatIndex
	store    *NodeStore
	k        int
	logger   zerolog.Logger
}

// RetrieverOption customizes a VectorRetriever.
type RetrieverOption func(*VectorRetriever)

func WithTopK(k int) RetrieverOption {
	return func(r *VectorRetriever) { r.k = k }
}

func WithRetrieverLogger(logger zerolog.Logger) RetrieverOption {
	return func(r *VectorRetriever) { r.logger = logger }
}

// NewVectorRetriever creates a retriever with a default top-k of 2.
func NewVectorRetriever(embedder ports.Embedder, index *FlatIndex, store *NodeStore, opts ...RetrieverOption) *VectorRetriever {
	r := &VectorRetriever{
		embedder: embedder,
		index:    index,
		store:    store,
		k:        2,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns nodes in descending similarity order.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]ports.NodeWithScore, error) {
	start := time.Now()

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}

	matches, err := r.index.Query(vecs[0], r.k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	nodes, err := r.store.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ports.NodeWithScore, 0, len(matches))
	for _, m := range matches {
		n, ok := nodes[m.ID]
		if !ok {
			// indexed but deleted from the store
			continue
		}
		out = append(out, ports.NodeWithScore{Node: n, Score: m.Score})
	}

	r.logger.Debug().
		Str("event_id", ports.EventID(ctx)).
		Int("k", r.k).
		Int("results", len(out)).
		Dur("took", time.Since(start)).
		Msg("Retrieved nodes")

	return out, nil
}

var _ ports.Retriever = (*VectorRetriever)(nil)
