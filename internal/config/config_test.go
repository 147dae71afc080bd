package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/adult.data", cfg.Dataset.Path)
	assert.False(t, cfg.Dataset.HasHeader)
	assert.Equal(t, -1, cfg.Dataset.ClassIndex)
	assert.Equal(t, []string{"?", ""}, cfg.Dataset.MissingTokens)
	assert.True(t, cfg.Preprocess.ReplaceMissing)
	assert.True(t, cfg.Preprocess.NominalToBinary)
	assert.False(t, cfg.Preprocess.PerFold)
	assert.Equal(t, 10, cfg.Evaluation.Folds)
	assert.Equal(t, int64(1), cfg.Evaluation.Seed)
	assert.Equal(t, 1, cfg.Evaluation.PositiveClass)

	require.Len(t, cfg.Models, 2)
	j48 := cfg.Models[0].ModelConfig()
	assert.Equal(t, models.AlgorithmJ48, j48.Algorithm)
	assert.Equal(t, 0.25, j48.ConfidenceFactor)
	assert.Equal(t, 2, j48.MinNumObj)
	logistic := cfg.Models[1].ModelConfig()
	assert.Equal(t, models.AlgorithmLogistic, logistic.Algorithm)
	assert.Equal(t, 1e-8, logistic.Ridge)
	assert.Equal(t, "Logistic Regression", cfg.Models[1].DisplayName())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  path: census.csv
  has_header: true
evaluation:
  folds: 5
  seed: 42
  positive_label: ">50K"
preprocess:
  per_fold: true
models:
  - algorithm: J48
    unpruned: true
  - name: ridge-free
    algorithm: logistic
    ridge: 0
`), 0o644))

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, "census.csv", cfg.Dataset.Path)
	assert.True(t, cfg.Dataset.HasHeader)
	assert.Equal(t, 5, cfg.Evaluation.Folds)
	assert.Equal(t, int64(42), cfg.Evaluation.Seed)
	assert.Equal(t, ">50K", cfg.Evaluation.PositiveLabel)
	assert.True(t, cfg.Preprocess.PerFold)
	// untouched keys keep their defaults
	assert.True(t, cfg.Preprocess.ReplaceMissing)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.Len(t, cfg.Models, 2)
	tree := cfg.Models[0].ModelConfig()
	assert.Equal(t, models.AlgorithmJ48, tree.Algorithm)
	assert.True(t, tree.Unpruned)
	assert.Equal(t, 0.25, tree.ConfidenceFactor)
	assert.Equal(t, "J48", cfg.Models[0].DisplayName())
	assert.Equal(t, 0.0, cfg.Models[1].ModelConfig().Ridge)
}

func TestLoadEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("DATAMINING_EVALUATION_FOLDS", "3")
	t.Setenv("DATAMINING_DATASET_PATH", "other.data")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Evaluation.Folds)
	assert.Equal(t, "other.data", cfg.Dataset.Path)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, failure.Config, failure.KindOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty path", func(c *Config) { c.Dataset.Path = " " }, "dataset.path"},
		{"bad class index", func(c *Config) { c.Dataset.ClassIndex = -2 }, "dataset.class_index"},
		{"one fold", func(c *Config) { c.Evaluation.Folds = 1 }, "evaluation.folds"},
		{"negative positive class", func(c *Config) { c.Evaluation.PositiveClass = -1 }, "evaluation.positive_class"},
		{"no workers", func(c *Config) { c.Evaluation.Workers = 0 }, "evaluation.workers"},
		{"no models", func(c *Config) { c.Models = nil }, "models"},
		{"bad model", func(c *Config) { c.Models[0].ConfidenceFactor = 0.9 }, "models[0]"},
		{"unknown algorithm", func(c *Config) { c.Models[1].Algorithm = "svm" }, "models[1]"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, failure.Config, failure.KindOf(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestMarshal(t *testing.T) {
	out, err := Default().Marshal()
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "path: data/adult.data")
	assert.Contains(t, text, "folds: 10")
	assert.Contains(t, text, "algorithm: j48")
	assert.Contains(t, text, "ridge: 1e-08")
	assert.NotContains(t, text, "results_csv")
}

func TestReaderOptions(t *testing.T) {
	cfg := Default()
	cfg.Dataset.HasHeader = true
	cfg.Dataset.ClassIndex = 3
	cfg.Dataset.MissingTokens = []string{"NA"}

	opts := cfg.Dataset.ReaderOptions()
	assert.True(t, opts.HasHeader)
	assert.Equal(t, 3, opts.ClassIndex)
	assert.Equal(t, []string{"NA"}, opts.MissingTokens)
	assert.True(t, opts.NominalClass)
}
