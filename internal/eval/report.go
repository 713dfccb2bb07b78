package eval

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	ReportKind          = "RetrievalQualityReport.v1"
	ReportSchemaVersion = 1

	// ReportDir and ReportFile locate the report under the memory base path.
	ReportDir  = "audit"
	ReportFile = "retrieval_quality_report.json"
)

// Targets are the minimum aggregate values for compliance. Zero disables a
// check.
type Targets struct {
	K      int     `json:"k" yaml:"k" mapstructure:"k"`
	Recall float64 `json:"recall" yaml:"recall" mapstructure:"recall"`
	NDCG   float64 `json:"ndcg" yaml:"ndcg" mapstructure:"ndcg"`
	MRR    float64 `json:"mrr" yaml:"mrr" mapstructure:"mrr"`
}

// ReportOptions controls GenerateRetrievalQualityReport.
type ReportOptions struct {
	Method string `validate:"required"`
	// Ks defaults to DefaultKs.
	Ks []int `validate:"dive,gt=0"`
	// Baseline results enable the comparison section.
	BaselineMethod string
	Baseline       []EvaluationResult
	// Targets enable the compliance section.
	Targets *Targets
	// Now is used for GeneratedAt; defaults to time.Now.
	Now func() time.Time
}

// Comparison is the optional baseline section.
type Comparison struct {
	BaselineMethod    string           `json:"baselineMethod"`
	BaselineAggregate AggregateMetrics `json:"baselineAggregate"`
	Delta             AggregateMetrics `json:"delta"`
	Methods           MethodComparison `json:"methods"`
}

// ComplianceCheck is one target check.
type ComplianceCheck struct {
	Metric string  `json:"metric"`
	Target float64 `json:"target"`
	Actual float64 `json:"actual"`
	Pass   bool    `json:"pass"`
}

// Compliance is the optional target section.
type Compliance struct {
	Pass   bool              `json:"pass"`
	Checks []ComplianceCheck `json:"checks"`
}

// Evidence records how the report was produced.
type Evidence struct {
	Method         string   `json:"method"`
	Ks             []int    `json:"ks"`
	MissingResults []string `json:"missingResults,omitempty"`
}

// Report is the persisted RetrievalQualityReport.v1 document.
type Report struct {
	Kind          string           `json:"kind"`
	SchemaVersion int              `json:"schemaVersion"`
	RunID         string           `json:"runId"`
	GeneratedAt   time.Time        `json:"generatedAt"`
	QueryCount    int              `json:"queryCount"`
	PerQuery      []QueryMetrics   `json:"perQuery"`
	Aggregate     AggregateMetrics `json:"aggregate"`
	Comparison    *Comparison      `json:"comparison,omitempty"`
	Compliance    *Compliance      `json:"compliance,omitempty"`
	Evidence      Evidence         `json:"evidence"`
}

var validate = validator.New()

// ErrDuplicateQuery is returned when a dataset repeats a query ID.
var ErrDuplicateQuery = errors.New("duplicate query id")

// GenerateRetrievalQualityReport joins queries with results by query ID
// and builds the report. Queries without a result count as empty
// retrievals and are listed in evidence.missingResults.
func GenerateRetrievalQualityReport(queries []EvaluationQuery, results []EvaluationResult, opts ReportOptions) (*Report, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid report options: %w", err)
	}
	ks := opts.Ks
	if len(ks) == 0 {
		ks = DefaultKs
	}
	ks = sortedUnique(ks)

	seen := make(map[string]bool, len(queries))
	for _, q := range queries {
		if err := validate.Struct(q); err != nil {
			return nil, fmt.Errorf("invalid query %q: %w", q.ID, err)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateQuery, q.ID)
		}
		seen[q.ID] = true
	}

	perQuery, missing := scoreAll(queries, results, ks)

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	report := &Report{
		Kind:          ReportKind,
		SchemaVersion: ReportSchemaVersion,
		RunID:         uuid.NewString(),
		GeneratedAt:   now().UTC(),
		QueryCount:    len(queries),
		PerQuery:      perQuery,
		Aggregate:     Aggregate(perQuery),
		Evidence: Evidence{
			Method:         opts.Method,
			Ks:             ks,
			MissingResults: missing,
		},
	}

	if opts.Baseline != nil {
		baseline, _ := scoreAll(queries, opts.Baseline, ks)
		name := opts.BaselineMethod
		if name == "" {
			name = "baseline"
		}
		baseAgg := Aggregate(baseline)
		report.Comparison = &Comparison{
			BaselineMethod:    name,
			BaselineAggregate: baseAgg,
			Delta:             delta(report.Aggregate, baseAgg),
			Methods:           CompareRetrievalMethods(perQuery, baseline, opts.Method, name),
		}
	}

	if opts.Targets != nil {
		report.Compliance = checkCompliance(report.Aggregate, *opts.Targets)
	}
	return report, nil
}

func scoreAll(queries []EvaluationQuery, results []EvaluationResult, ks []int) ([]QueryMetrics, []string) {
	byID := make(map[string]EvaluationResult, len(results))
	for _, r := range results {
		if _, dup := byID[r.QueryID]; !dup {
			byID[r.QueryID] = r
		}
	}
	perQuery := make([]QueryMetrics, 0, len(queries))
	var missing []string
	for _, q := range queries {
		r, ok := byID[q.ID]
		if !ok {
			missing = append(missing, q.ID)
			r = EvaluationResult{QueryID: q.ID}
		}
		perQuery = append(perQuery, ComputeQueryMetrics(q, r, ks...))
	}
	return perQuery, missing
}

func delta(a, b AggregateMetrics) AggregateMetrics {
	d := AggregateMetrics{
		QueryCount: a.QueryCount,
		RecallAtK:  map[int]float64{},
		NDCGAtK:    map[int]float64{},
		MRR:        a.MRR - b.MRR,
	}
	for k, v := range a.RecallAtK {
		d.RecallAtK[k] = v - b.RecallAtK[k]
	}
	for k, v := range a.NDCGAtK {
		d.NDCGAtK[k] = v - b.NDCGAtK[k]
	}
	return d
}

func checkCompliance(agg AggregateMetrics, t Targets) *Compliance {
	k := t.K
	if k <= 0 {
		k = CompositeK
	}
	c := &Compliance{Pass: true, Checks: []ComplianceCheck{}}
	add := func(metric string, target, actual float64) {
		if target <= 0 {
			return
		}
		check := ComplianceCheck{Metric: metric, Target: target, Actual: actual, Pass: actual >= target}
		c.Checks = append(c.Checks, check)
		c.Pass = c.Pass && check.Pass
	}
	add(fmt.Sprintf("recall@%d", k), t.Recall, agg.RecallAtK[k])
	add(fmt.Sprintf("ndcg@%d", k), t.NDCG, agg.NDCGAtK[k])
	add("mrr", t.MRR, agg.MRR)
	return c
}

func sortedUnique(ks []int) []int {
	seen := make(map[int]bool, len(ks))
	out := make([]int, 0, len(ks))
	for _, k := range ks {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}

// ReportPath returns the audit location of the report under memoryBase.
func ReportPath(memoryBase string) string {
	return filepath.Join(memoryBase, ReportDir, ReportFile)
}

// WriteReport writes report as indented JSON to ReportPath(memoryBase) and
// returns the path.
func WriteReport(fs afero.Fs, memoryBase string, report *Report) (string, error) {
	path := ReportPath(memoryBase)
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create audit dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(fs afero.Fs, memoryBase string) (*Report, error) {
	data, err := afero.ReadFile(fs, ReportPath(memoryBase))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if report.Kind != ReportKind {
		return nil, fmt.Errorf("unexpected report kind %q", report.Kind)
	}
	return &report, nil
}
