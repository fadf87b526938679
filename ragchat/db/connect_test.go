package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		dsn  string
		path string
		ok   bool
	}{
		{"file:/tmp/x/nodes.db", "/tmp/x/nodes.db", true},
		{"file:rel/nodes.db?_journal_mode=WAL", "rel/nodes.db", true},
		{"file::memory:?cache=shared", "", false},
		{"libsql://db.turso.io", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			path, ok := localPath(tt.dsn)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestConnect_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	dsn := "file:" + filepath.Join(dir, "nodes.db")

	db, err := Connect(context.Background(), dsn, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
