package experiment

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/config"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/evaluation"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/models"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/report"
)

// writeCensus writes 20 headerless rows, 14 "<=50K" and 6 ">50K", with a few
// missing cells.
func writeCensus(t *testing.T) string {
	t.Helper()
	workclass := []string{"Private", "Self-emp", "?", "State-gov"}
	var b strings.Builder
	for i := 0; i < 20; i++ {
		class := "<=50K"
		if i >= 14 {
			class = ">50K"
		}
		age := fmt.Sprint(20 + 2*i)
		if i == 5 {
			age = "?"
		}
		fmt.Fprintf(&b, "%s, %s, %d, %s\n", age, workclass[i%4], 30+i%5, class)
	}

	path := filepath.Join(t.TempDir(), "census.data")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func newRunner(t *testing.T, cfg *config.Config) (*ExperimentRunner, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	return NewRunner(cfg, zap.NewNop(), report.NewReporter(&out)), &out
}

func zeroRSpec() config.ModelSpec {
	return config.ModelSpec{Name: "Baseline", Algorithm: models.AlgorithmZeroR}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Path = writeCensus(t)
	cfg.Models = append([]config.ModelSpec{zeroRSpec()}, cfg.Models...)
	cfg.Output.ResultsCSV = filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, cfg.Validate())

	runner, out := newRunner(t, cfg)
	var folds int
	runner.OnFold = func(spec config.ModelSpec, fold evaluation.FoldReport) {
		assert.Equal(t, 10, fold.NumFolds)
		folds++
	}

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 30, folds)

	baseline := results[0].Result
	assert.Equal(t, "ZeroR", results[0].Algorithm)
	assert.Equal(t, 20, baseline.NumInstances)
	assert.InDelta(t, 70.0, baseline.PctCorrect, 1e-9)
	assert.Equal(t, ">50K", baseline.PositiveLabel)

	for _, r := range results {
		res := r.Result
		assert.GreaterOrEqual(t, res.PctCorrect, 0.0)
		assert.LessOrEqual(t, res.PctCorrect, 100.0)
		if res.Precision+res.Recall > 0 {
			assert.InDelta(t, 2*res.Precision*res.Recall/(res.Precision+res.Recall), res.F1, 1e-12)
		}
	}

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Loading and preprocessing data...\nData loaded and preprocessed successfully.\n"))
	assert.Contains(t, text, "===== Evaluating Model 1: Baseline =====")
	assert.Contains(t, text, "===== Evaluating Model 2: Decision Tree (J48) =====")
	assert.Contains(t, text, "===== Evaluating Model 3: Logistic Regression =====")
	assert.Contains(t, text, "--- Performance Metrics for Logistic Regression ---")
	assert.Contains(t, text, "Precision (class '>50K'): ")
	assert.Contains(t, text, "Total time for 10-fold Cross-Validation: ")

	exported, err := os.ReadFile(cfg.Output.ResultsCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(exported)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Model,Algorithm,Parameters"))
	assert.True(t, strings.HasPrefix(lines[1], "Baseline,ZeroR,"))
}

func TestRunDefaultPipelineShape(t *testing.T) {
	colors := []string{"red", "green", "blue"}
	sizes := []string{"s", "m", "l", "xl"}
	regions := []string{"north", "east", "west"}

	var b strings.Builder
	for i := 0; i < 20; i++ {
		class := "no"
		if i%3 == 2 {
			class = "yes"
		}
		income := fmt.Sprint(100 + 7*i)
		if i == 4 || i == 11 {
			income = "?"
		}
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n", colors[i%3], income, sizes[i%4], regions[(i/2)%3], class)
	}
	path := filepath.Join(t.TempDir(), "shape.data")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	cfg := config.Default()
	cfg.Dataset.Path = path
	cfg.Models = []config.ModelSpec{zeroRSpec()}
	runner, _ := newRunner(t, cfg)

	ds, err := runner.loadData()
	require.NoError(t, err)
	assert.Equal(t, 20, ds.NumRows())
	assert.Equal(t, 0, ds.CountMissing())
	// one numeric column, the label, and one indicator per category value
	assert.Equal(t, 1+1+len(colors)+len(sizes)+len(regions), ds.NumAttributes())

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	// 14 "no" and 6 "yes"
	assert.InDelta(t, 70.0, results[0].Result.PctCorrect, 1e-9)
	assert.Equal(t, 20, results[0].Result.NumInstances)
}

func TestRunPerFoldMatchesShape(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Path = writeCensus(t)
	cfg.Preprocess.PerFold = true
	cfg.Evaluation.Workers = 3
	cfg.Evaluation.PositiveLabel = ">50K"

	runner, _ := newRunner(t, cfg)
	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 20, r.Result.NumInstances)
		assert.Equal(t, 1, r.Result.PositiveClass)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Path = writeCensus(t)
	cfg.Models = []config.ModelSpec{
		zeroRSpec(),
		{Name: "Broken", Algorithm: "svm"},
		{Name: "Never", Algorithm: models.AlgorithmZeroR},
	}

	runner, out := newRunner(t, cfg)
	results, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.Config, failure.KindOf(err))

	require.Len(t, results, 1)
	assert.Contains(t, out.String(), "--- Performance Metrics for Baseline ---")
	assert.Contains(t, out.String(), "Evaluating Model 2: Broken")
	assert.NotContains(t, out.String(), "Never")
}

func TestRunErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Dataset.Path = filepath.Join(t.TempDir(), "absent.data")
		runner, out := newRunner(t, cfg)

		_, err := runner.Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, failure.IO, failure.KindOf(err))
		assert.NotContains(t, out.String(), "successfully")
	})

	t.Run("unknown positive label", func(t *testing.T) {
		cfg := config.Default()
		cfg.Dataset.Path = writeCensus(t)
		cfg.Evaluation.PositiveLabel = "rich"
		runner, _ := newRunner(t, cfg)

		_, err := runner.Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, failure.Config, failure.KindOf(err))
	})

	t.Run("too many folds", func(t *testing.T) {
		cfg := config.Default()
		cfg.Dataset.Path = writeCensus(t)
		cfg.Evaluation.Folds = 50
		runner, _ := newRunner(t, cfg)

		results, err := runner.Run(context.Background())
		require.Error(t, err)
		assert.Empty(t, results)
	})
}
