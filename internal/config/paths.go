// Package config resolves ContextWing configuration from viper: retrieval
// tuning, evaluation targets, embedding provider settings and paths.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DirName is the project-local and global configuration directory name.
const DirName = ".contextwing"

// GetGlobalConfigDir returns ~/.contextwing. It is a variable so tests can
// redirect it.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName), nil
}

// GetMemoryBasePath returns the memory directory.
// Resolution order (first match wins):
// 1. "memory.path" (flag/config/env)
// 2. ./.contextwing/memory if it exists
// 3. $XDG_DATA_HOME/contextwing/memory
// 4. ~/.contextwing/memory
func GetMemoryBasePath() string {
	if path := viper.GetString("memory.path"); path != "" {
		return path
	}

	localMemory := filepath.Join(DirName, "memory")
	if info, err := os.Stat(localMemory); err == nil && info.IsDir() {
		return localMemory
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "contextwing", "memory")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./memory"
	}
	return filepath.Join(dir, "memory")
}
