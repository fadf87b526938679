// Package ragchat holds process-wide defaults shared by the ragchat packages.
package ragchat

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName = "ragchat"

	DefaultDatabaseType = "libsql"
	DefaultDatabaseFile = "nodes.db"
)

var (
	DefaultConfigPath  = filepath.Join(userConfigDir(), DefaultAppName)
	DefaultCacheDir    = filepath.Join(userCacheDir(), DefaultAppName)
	DefaultDatabaseDir = filepath.Join(DefaultCacheDir, "db")
	DefaultDatabaseDSN = "file:" + filepath.Join(DefaultDatabaseDir, DefaultDatabaseFile)
)

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
