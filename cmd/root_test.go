package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/ContextWing/internal/eval"
	"github.com/josephgoksu/ContextWing/internal/relevance"
)

const (
	manifestFixture = "../internal/knowledge/testdata/manifest.yaml"
	datasetFixture  = "../internal/eval/testdata/medium_python.yaml"
	resultsFixture  = "../internal/eval/testdata/results_raw.json"
)

// isolate points HOME at a temp dir and disables embedding providers.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CONTEXTWING_LLM_PROVIDER", "openai")
	return t.TempDir()
}

// resetFlags restores every flag to its default between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)
	bindPersistentFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd(t *testing.T) {
	isolate(t)
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "ContextWing")
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "Available Commands:")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "query", "learn", "outcome", "examples", "score", "eval", "config", "status", "mcp", "outcomes"} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}

func TestVersion(t *testing.T) {
	assert.Equal(t, version, GetVersion())
}

func TestIngestScoreAndQuery(t *testing.T) {
	mem := isolate(t)

	out, err := executeCommand(t, "ingest", manifestFixture, "--memory", mem)
	require.NoError(t, err, out)
	assert.Contains(t, out, "5 modules, 3 context packs stored")
	assert.Contains(t, out, "3 packs have no embedding")

	out, err = executeCommand(t, "score", "api/embeddings.ts", "storage/types.ts", "--semantic", "0.4", "--json", "--memory", mem)
	require.NoError(t, err, out)
	var scored scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &scored))
	assert.InDelta(t, 0.5, scored.Inputs.GraphProximity, 1e-9)
	assert.False(t, scored.Result.IsAdversarial)

	out, err = executeCommand(t, "query", "how", "are", "embeddings", "generated", "--json", "--memory", mem)
	require.NoError(t, err, out)
	var res relevance.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "how are embeddings generated", res.Intent)
	assert.True(t, res.Degraded)
	assert.Equal(t, "no embedding provider configured", res.DegradedReason)
	require.NotEmpty(t, res.BlindSpots)
	assert.Equal(t, relevance.RiskHigh, res.BlindSpots[0].Risk)
}

func TestScore_RejectsOutOfRangeSemantic(t *testing.T) {
	mem := isolate(t)
	_, err := executeCommand(t, "score", "a.ts", "b.ts", "--semantic", "1.5", "--memory", mem)
	assert.Error(t, err)
}

func TestLearnOutcomeStatus(t *testing.T) {
	mem := isolate(t)

	out, err := executeCommand(t, "learn", "T-1", "vector_store", "auth", "--memory", mem)
	require.NoError(t, err, out)
	assert.Contains(t, out, "learned 2 new entries")

	out, err = executeCommand(t, "outcome", "T-2", "--status", "failure", "--missing", "vector_store,billing", "--used", "auth", "--memory", mem)
	require.NoError(t, err, out)
	assert.Contains(t, out, "- billing")
	assert.NotContains(t, out, "- vector_store")

	_, err = executeCommand(t, "outcome", "T-3", "--status", "exploded", "--memory", mem)
	assert.Error(t, err)

	out, err = executeCommand(t, "outcomes", "--memory", mem)
	require.NoError(t, err, out)
	assert.Contains(t, out, "T-2")
	assert.Contains(t, out, "failure")
	assert.NotContains(t, out, "T-3")

	out, err = executeCommand(t, "status", "--memory", mem)
	require.NoError(t, err, out)
	var learnedLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "learned missing") {
			learnedLine = line
		}
	}
	fields := strings.Fields(learnedLine)
	require.NotEmpty(t, fields)
	assert.Equal(t, "3", fields[len(fields)-1])
}

func TestEval_Harness(t *testing.T) {
	mem := isolate(t)

	out, err := executeCommand(t, "eval", datasetFixture, "--json", "--no-write", "--memory", mem)
	require.NoError(t, err, out)

	start := strings.Index(out, "{")
	require.GreaterOrEqual(t, start, 0)
	var report eval.Report
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &report))
	assert.Equal(t, eval.ReportKind, report.Kind)
	assert.Equal(t, augmentedMethod, report.Evidence.Method)
	require.NotNil(t, report.Comparison)
	assert.Equal(t, "raw-embedding", report.Comparison.BaselineMethod)
	assert.GreaterOrEqual(t, report.Aggregate.MRR, report.Comparison.BaselineAggregate.MRR)
}

func TestEval_RecordedResultsWritesReport(t *testing.T) {
	mem := isolate(t)

	out, err := executeCommand(t, "eval", datasetFixture, "--results", resultsFixture, "--memory", mem)
	require.NoError(t, err, out)
	assert.Contains(t, out, "RETRIEVAL QUALITY")
	assert.Contains(t, out, eval.ReportPath(mem))

	_, err = executeCommand(t, "eval", datasetFixture, "--baseline", resultsFixture, "--memory", mem)
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	mem := isolate(t)
	out, err := executeCommand(t, "config", "show", "--memory", mem)
	require.NoError(t, err, out)
	assert.Contains(t, out, "provider: openai")
	assert.Contains(t, out, "memory_path: "+mem)
	assert.Contains(t, out, "api_key_set: false")
}
