package memory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Document is a unit of source text to ingest.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// IngesterConfig controls chunking and embedding fan-out.
type IngesterConfig struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Concurrency  int
}

// Ingester chunks documents, embeds the chunks concurrently, persists them and indexes them.
type Ingester struct {
	embedder ports.Embedder
	store    *NodeStore
	index    *FlatIndex
	cfg      IngesterConfig
	logger   zerolog.Logger
}

func NewIngester(embedder ports.Embedder, store *NodeStore, index *FlatIndex, cfg IngesterConfig, logger zerolog.Logger) *Ingester {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Ingester{embedder: embedder, store: store, index: index, cfg: cfg, logger: logger}
}

// Ingest stores every document and returns the number of nodes created.
// Re-ingesting a document id replaces its previous nodes; a failed re-ingest keeps them.
func (in *Ingester) Ingest(ctx context.Context, docs ...Document) (int, error) {
	start := time.Now()
	total := 0
	for _, doc := range docs {
		n, err := in.ingestDocument(ctx, doc)
		if err != nil {
			return total, fmt.Errorf("ingest document %s: %w", doc.ID, err)
		}
		total += n
	}

	in.logger.Info().
		Int("documents", len(docs)).
		Int("nodes", total).
		Dur("took", time.Since(start)).
		Msg("Ingestion complete")
	return total, nil
}

func (in *Ingester) ingestDocument(ctx context.Context, doc Document) (int, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	chunks := SplitText(doc.Text, in.cfg.ChunkSize, in.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		in.logger.Debug().Str("doc_id", doc.ID).Msg("Skipping empty document")
		return 0, nil
	}

	vectors, err := in.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	nodes := make([]StoredNode, len(chunks))
	for i, chunk := range chunks {
		md := make(map[string]string, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			md[k] = v
		}
		md["doc_id"] = doc.ID
		md["chunk"] = strconv.Itoa(i)

		nodes[i] = StoredNode{
			Node:       ports.Node{ID: uuid.NewString(), Text: chunk, Metadata: md},
			DocID:      doc.ID,
			ChunkIndex: i,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}

	// validate before touching the store so a bad batch keeps the old document
	if err := in.index.CheckDimensions(vectors); err != nil {
		return 0, err
	}

	stale, err := in.store.ReplaceDocument(ctx, doc.ID, nodes)
	if err != nil {
		return 0, err
	}
	for _, id := range stale {
		in.index.Delete(id)
	}
	for _, n := range nodes {
		if err := in.index.Upsert(n.ID, n.Embedding); err != nil {
			return 0, err
		}
	}

	in.logger.Debug().Str("doc_id", doc.ID).Int("chunks", len(chunks)).Msg("Ingested document")
	return len(nodes), nil
}

// embed splits chunks into batches and embeds them on a bounded pool.
// The first failure cancels the remaining batches.
func (in *Ingester) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(in.cfg.Concurrency).
		WithCancelOnError()

	for lo := 0; lo < len(chunks); lo += in.cfg.BatchSize {
		hi := min(lo+in.cfg.BatchSize, len(chunks))
		p.Go(func(ctx context.Context) error {
			batch, err := in.embedder.Embed(ctx, chunks[lo:hi])
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", lo, hi, err)
			}
			if len(batch) != hi-lo {
				return fmt.Errorf("embed chunks %d-%d: got %d vectors", lo, hi, len(batch))
			}
			// disjoint ranges, no lock needed
			copy(vectors[lo:hi], batch)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
