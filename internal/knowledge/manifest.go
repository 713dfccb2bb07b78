package knowledge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/josephgoksu/ContextWing/internal/graph"
	"github.com/josephgoksu/ContextWing/internal/memory"
)

// Manifest is the ingest input produced by an external indexer: per-file
// import metadata plus the context packs to embed.
type Manifest struct {
	Version int              `yaml:"version" json:"version"`
	Modules []ManifestModule `yaml:"modules" json:"modules"`
	Packs   []ManifestPack   `yaml:"packs" json:"packs"`
}

// ManifestModule is one file's import metadata.
type ManifestModule struct {
	Path     string   `yaml:"path" json:"path"`
	Module   string   `yaml:"module,omitempty" json:"module,omitempty"`
	Language string   `yaml:"language,omitempty" json:"language,omitempty"`
	Imports  []string `yaml:"imports,omitempty" json:"imports,omitempty"`
}

// ManifestPack is one context pack.
type ManifestPack struct {
	ID           string   `yaml:"id" json:"id"`
	Summary      string   `yaml:"summary" json:"summary"`
	RelatedFiles []string `yaml:"related_files,omitempty" json:"related_files,omitempty"`
}

// LoadManifest reads a YAML (or JSON, which YAML accepts) manifest.
func LoadManifest(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", filepath.Base(path), err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", filepath.Base(path), err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Packs))
	for i, p := range m.Packs {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("pack %d: id is required", i)
		}
		if seen[id] {
			return fmt.Errorf("duplicate pack id %q", id)
		}
		seen[id] = true
	}
	for i, mod := range m.Modules {
		if graph.NormalizePath(mod.Path) == "" {
			return fmt.Errorf("module %d: %w", i, graph.ErrEmptyFilePath)
		}
	}
	return nil
}

// ModuleRecords converts the manifest modules for the module store.
func (m *Manifest) ModuleRecords() []graph.ModuleRecord {
	out := make([]graph.ModuleRecord, 0, len(m.Modules))
	for _, mod := range m.Modules {
		out = append(out, graph.ModuleRecord{
			FilePath:   graph.NormalizePath(mod.Path),
			ModuleName: mod.Module,
			Imports:    mod.Imports,
			Language:   mod.Language,
		})
	}
	return out
}

// PackRecords converts the manifest packs for the pack store.
func (m *Manifest) PackRecords() []memory.PackRecord {
	out := make([]memory.PackRecord, 0, len(m.Packs))
	for _, p := range m.Packs {
		out = append(out, memory.PackRecord{
			ID:           strings.TrimSpace(p.ID),
			Summary:      p.Summary,
			RelatedFiles: p.RelatedFiles,
		})
	}
	return out
}
