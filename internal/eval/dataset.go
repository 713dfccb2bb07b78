package eval

import (
	"encoding/json"
	"fmt"

	"github.com/josephgoksu/ContextWing/internal/graph"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Dataset is a labelled evaluation set: the dependency graph of the corpus,
// the queries with their candidates, and labelled pairs for threshold
// accuracy.
type Dataset struct {
	Version int               `yaml:"version"`
	Name    string            `yaml:"name"`
	Files   []DatasetFile     `yaml:"files" validate:"dive"`
	Queries []EvaluationQuery `yaml:"queries" validate:"dive"`
	Pairs   []LabelledPair    `yaml:"pairs" validate:"dive"`
}

// DatasetFile is one corpus file and its imports.
type DatasetFile struct {
	Path    string   `yaml:"path" validate:"required"`
	Module  string   `yaml:"module,omitempty"`
	Imports []string `yaml:"imports,omitempty"`
}

// Modules converts the dataset files into module records.
func (d *Dataset) Modules() []graph.ModuleRecord {
	out := make([]graph.ModuleRecord, 0, len(d.Files))
	for _, f := range d.Files {
		out = append(out, graph.ModuleRecord{
			FilePath:   f.Path,
			ModuleName: f.Module,
			Imports:    f.Imports,
		})
	}
	return out
}

// LoadDataset reads a YAML dataset from path.
func LoadDataset(fs afero.Fs, path string) (*Dataset, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if err := validate.Struct(ds); err != nil {
		return nil, fmt.Errorf("invalid dataset %s: %w", path, err)
	}
	seen := make(map[string]bool, len(ds.Queries))
	for _, q := range ds.Queries {
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateQuery, q.ID)
		}
		seen[q.ID] = true
	}
	return &ds, nil
}

// ResultsFile is a recorded set of method outputs.
type ResultsFile struct {
	Method  string             `json:"method"`
	Results []EvaluationResult `json:"results" validate:"dive"`
}

// LoadResults reads recorded method outputs (JSON) from path.
func LoadResults(fs afero.Fs, path string) (*ResultsFile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var rf ResultsFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse results %s: %w", path, err)
	}
	if err := validate.Struct(rf); err != nil {
		return nil, fmt.Errorf("invalid results %s: %w", path, err)
	}
	return &rf, nil
}
