// Package db opens libsql connections for the node store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/ragchat/ragchat"
	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"
)

// DriverName is the database/sql driver registered by go-libsql.
const DriverName = internal.DefaultDatabaseType

// Connect opens dsn with the libsql driver and verifies the connection.
// For local "file:" DSNs the parent directory is created first.
func Connect(ctx context.Context, dsn string, logger zerolog.Logger) (*sql.DB, error) {
	if path, ok := localPath(dsn); ok {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.Info().Str("path", path).Msg("Database not found, creating a new one")
		}
	}

	logger.Debug().Str("dsn", dsn).Msg("Connecting to libsql")

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}

	if err := verify(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// localPath extracts the file path from a "file:" DSN, ignoring query parameters.
func localPath(dsn string) (string, bool) {
	if !strings.HasPrefix(dsn, "file:") {
		return "", false
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return "", false
	}
	return path, true
}

// verify checks connectivity and probes JSON1, which the node store relies on for metadata.
func verify(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("basic connectivity test failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("basic connectivity test failed: unexpected result %d", result)
	}

	var jsonResult string
	if err := db.QueryRowContext(ctx, `SELECT json_extract('{"test":"value"}', '$.test')`).Scan(&jsonResult); err != nil {
		logger.Warn().Err(err).Msg("JSON1 test failed")
	} else {
		logger.Debug().Msg("JSON1 extension verified")
	}
	return nil
}
