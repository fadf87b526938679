// Package memory is a small retrieval index: persisted nodes, a flat cosine index,
// a retriever, an ingester and a retriever-backed query engine.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
)

// ErrNodeNotFound is returned when a node id is unknown to the store.
var ErrNodeNotFound = errors.New("node not found")

// StoredNode is a node together with its document position and embedding.
type StoredNode struct {
	ports.Node
	DocID      string
	ChunkIndex int
	Embedding  []float32
	CreatedAt  time.Time
}

// NodeStore persists nodes in libsql.
type NodeStore struct {
	db *sql.DB
}

func NewNodeStore(db *sql.DB) *NodeStore {
	return &NodeStore{db: db}
}

// Put inserts or replaces nodes in one transaction.
func (s *NodeStore) Put(ctx context.Context, nodes []StoredNode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertNodes(ctx, tx, nodes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit nodes: %w", err)
	}
	return nil
}

// ReplaceDocument swaps every node of docID for nodes in one transaction and returns the ids
// it removed. On error the previous nodes are left in place.
func (s *NodeStore) ReplaceDocument(ctx context.Context, docID string, nodes []StoredNode) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM nodes WHERE doc_id = ?`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list document nodes: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE doc_id = ?`, docID); err != nil {
		return nil, fmt.Errorf("failed to delete document %s: %w", docID, err)
	}
	if err := insertNodes(ctx, tx, nodes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit document %s: %w", docID, err)
	}
	return stale, nil
}

func insertNodes(ctx context.Context, tx *sql.Tx, nodes []StoredNode) error {
	const query = `
		INSERT OR REPLACE INTO nodes (id, doc_id, chunk_index, text, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, n := range nodes {
		meta, err := encodeMetadata(n.Metadata)
		if err != nil {
			return err
		}
		var vec any // NULL when the node has no embedding
		if len(n.Embedding) > 0 {
			b, err := json.Marshal(n.Embedding)
			if err != nil {
				return fmt.Errorf("failed to encode vector: %w", err)
			}
			vec = b
		}
		created := n.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if _, err := tx.ExecContext(ctx, query, n.ID, n.DocID, n.ChunkIndex, n.Text, meta, vec, created.Unix()); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
		}
	}
	return nil
}

// Get returns one node by id.
func (s *NodeStore) Get(ctx context.Context, id string) (*StoredNode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, doc_id, chunk_index, text, metadata, embedding, created_at
		FROM nodes WHERE id = ?
	`, id)

	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, err
}

// GetMany returns the nodes for ids keyed by id. Unknown ids are omitted.
func (s *NodeStore) GetMany(ctx context.Context, ids []string) (map[string]ports.Node, error) {
	out := make(map[string]ports.Node, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, metadata FROM nodes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, text, meta string
		if err := rows.Scan(&id, &text, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		md, err := decodeMetadata(meta)
		if err != nil {
			return nil, err
		}
		out[id] = ports.Node{ID: id, Text: text, Metadata: md}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// ForEachEmbedding calls fn for every node that has an embedding, in insertion order.
func (s *NodeStore) ForEachEmbedding(ctx context.Context, fn func(id string, vec []float32) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, embedding FROM nodes
		WHERE embedding IS NOT NULL
		ORDER BY created_at, doc_id, chunk_index
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch vectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal(blob, &vec); err != nil || len(vec) == 0 {
			continue // Skip invalid vectors
		}
		if err := fn(id, vec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of stored nodes.
func (s *NodeStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return n, nil
}

func scanNode(row *sql.Row) (*StoredNode, error) {
	var (
		n       StoredNode
		meta    string
		blob    []byte
		created int64
	)
	if err := row.Scan(&n.ID, &n.DocID, &n.ChunkIndex, &n.Text, &meta, &blob, &created); err != nil {
		return nil, err
	}

	md, err := decodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	n.Metadata = md
	n.CreatedAt = time.Unix(created, 0)

	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &n.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode vector: %w", err)
		}
	}
	return &n, nil
}

func encodeMetadata(md map[string]string) (string, error) {
	if len(md) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(b), nil
}

func decodeMetadata(s string) (map[string]string, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var md map[string]string
	if err := json.Unmarshal([]byte(s), &md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return md, nil
}
