package graph

import (
	"path"
	"path/filepath"
	"strings"
)

// moduleDepth is the number of leading directory segments that make up a
// module name ("internal/memory/sqlite.go" -> "internal/memory").
const moduleDepth = 2

// rootModule is the module name of files at the repository root.
const rootModule = "."

// NormalizePath converts p to a clean, slash-separated relative path.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

// DeriveModuleName returns the grouping key for a file: its first two
// directory segments.
func DeriveModuleName(filePath string) string {
	dir := path.Dir(NormalizePath(filePath))
	if dir == "." || dir == "" {
		return rootModule
	}
	parts := strings.Split(dir, "/")
	if len(parts) > moduleDepth {
		parts = parts[:moduleDepth]
	}
	return strings.Join(parts, "/")
}

// TopLevelDir returns the first directory segment of filePath, or "" for
// files at the root.
func TopLevelDir(filePath string) string {
	p := NormalizePath(filePath)
	idx := strings.Index(p, "/")
	if idx <= 0 {
		return ""
	}
	return p[:idx]
}

// BaseName returns the file name without directory or extension, lower-cased.
func BaseName(filePath string) string {
	base := path.Base(NormalizePath(filePath))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ToLower(base)
}
