package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/models"
)

const EnvPrefix = "DATAMINING"

// Config is the effective configuration of one evaluation run.
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Models     []ModelSpec      `yaml:"models"`
	Logging    LoggingConfig    `yaml:"logging"`
	Output     OutputConfig     `yaml:"output"`
}

type DatasetConfig struct {
	Path          string   `yaml:"path"`
	HasHeader     bool     `yaml:"has_header"`
	ClassIndex    int      `yaml:"class_index"`
	MissingTokens []string `yaml:"missing_tokens"`
}

type PreprocessConfig struct {
	ReplaceMissing     bool `yaml:"replace_missing"`
	NominalToBinary    bool `yaml:"nominal_to_binary"`
	TransformAllValues bool `yaml:"transform_all_values"`
	// PerFold fits the filters on each training fold instead of the whole dataset.
	PerFold bool `yaml:"per_fold"`
}

type EvaluationConfig struct {
	Folds         int    `yaml:"folds"`
	Seed          int64  `yaml:"seed"`
	PositiveClass int    `yaml:"positive_class"`
	PositiveLabel string `yaml:"positive_label,omitempty"`
	Workers       int    `yaml:"workers"`
}

// ModelSpec names one classifier to evaluate. Zero-valued hyperparameters
// fall back to the algorithm defaults; Ridge is a pointer so 0 stays expressible.
type ModelSpec struct {
	Name             string   `mapstructure:"name" yaml:"name"`
	Algorithm        string   `mapstructure:"algorithm" yaml:"algorithm"`
	ConfidenceFactor float64  `mapstructure:"confidence_factor" yaml:"confidence_factor,omitempty"`
	MinNumObj        int      `mapstructure:"min_num_obj" yaml:"min_num_obj,omitempty"`
	Unpruned         bool     `mapstructure:"unpruned" yaml:"unpruned,omitempty"`
	NoSubtreeRaising bool     `mapstructure:"no_subtree_raising" yaml:"no_subtree_raising,omitempty"`
	Ridge            *float64 `mapstructure:"ridge" yaml:"ridge,omitempty"`
	MaxIterations    int      `mapstructure:"max_iterations" yaml:"max_iterations,omitempty"`
	K                int      `mapstructure:"k" yaml:"k,omitempty"`
	Distance         string   `mapstructure:"distance" yaml:"distance,omitempty"`
	VarSmoothing     float64  `mapstructure:"var_smoothing" yaml:"var_smoothing,omitempty"`
	NTrees           int      `mapstructure:"n_trees" yaml:"n_trees,omitempty"`
	MaxFeatures      int      `mapstructure:"max_features" yaml:"max_features,omitempty"`
	Seed             *int64   `mapstructure:"seed" yaml:"seed,omitempty"`
	MaxWorkers       int      `mapstructure:"max_workers" yaml:"max_workers,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OutputConfig struct {
	ResultsCSV string `yaml:"results_csv,omitempty"`
	Progress   bool   `yaml:"progress"`
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers bind their flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults reproduces the reference run: adult.data, 10 folds, seed 1,
// J48 -C 0.25 -M 2 and Logistic -R 1.0E-8, positive class index 1.
func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.path", "data/adult.data")
	v.SetDefault("dataset.has_header", false)
	v.SetDefault("dataset.class_index", -1)
	v.SetDefault("dataset.missing_tokens", []string{"?", ""})

	v.SetDefault("preprocess.replace_missing", true)
	v.SetDefault("preprocess.nominal_to_binary", true)
	v.SetDefault("preprocess.transform_all_values", false)
	v.SetDefault("preprocess.per_fold", false)

	v.SetDefault("evaluation.folds", 10)
	v.SetDefault("evaluation.seed", 1)
	v.SetDefault("evaluation.positive_class", 1)
	v.SetDefault("evaluation.positive_label", "")
	v.SetDefault("evaluation.workers", 1)

	v.SetDefault("models", []map[string]any{
		{"name": "Decision Tree (J48)", "algorithm": models.AlgorithmJ48, "confidence_factor": 0.25, "min_num_obj": 2},
		{"name": "Logistic Regression", "algorithm": models.AlgorithmLogistic, "ridge": 1e-8, "max_iterations": -1},
	})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("output.results_csv", "")
	v.SetDefault("output.progress", false)
}

// Load reads configFile (or datamining.yaml from the working directory or
// ./configs when empty) into v and returns the validated configuration.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("datamining")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, failure.ConfigError("read config", err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper builds a Config from the values currently held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Dataset: DatasetConfig{
			Path:          v.GetString("dataset.path"),
			HasHeader:     v.GetBool("dataset.has_header"),
			ClassIndex:    v.GetInt("dataset.class_index"),
			MissingTokens: v.GetStringSlice("dataset.missing_tokens"),
		},
		Preprocess: PreprocessConfig{
			ReplaceMissing:     v.GetBool("preprocess.replace_missing"),
			NominalToBinary:    v.GetBool("preprocess.nominal_to_binary"),
			TransformAllValues: v.GetBool("preprocess.transform_all_values"),
			PerFold:            v.GetBool("preprocess.per_fold"),
		},
		Evaluation: EvaluationConfig{
			Folds:         v.GetInt("evaluation.folds"),
			Seed:          v.GetInt64("evaluation.seed"),
			PositiveClass: v.GetInt("evaluation.positive_class"),
			PositiveLabel: v.GetString("evaluation.positive_label"),
			Workers:       v.GetInt("evaluation.workers"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Output: OutputConfig{
			ResultsCSV: v.GetString("output.results_csv"),
			Progress:   v.GetBool("output.progress"),
		},
	}

	if err := v.UnmarshalKey("models", &cfg.Models); err != nil {
		return nil, failure.ConfigError("decode models", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Validate reports the first invalid field as a config error.
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return failure.ConfigError("validate config", fmt.Errorf("%s: "+format, append([]any{field}, args...)...))
	}

	if strings.TrimSpace(c.Dataset.Path) == "" {
		return invalid("dataset.path", "must not be empty")
	}
	if c.Dataset.ClassIndex < -1 {
		return invalid("dataset.class_index", "must be -1 (last column) or a column index, got %d", c.Dataset.ClassIndex)
	}
	if c.Evaluation.Folds < 2 {
		return invalid("evaluation.folds", "must be at least 2, got %d", c.Evaluation.Folds)
	}
	if c.Evaluation.PositiveClass < 0 {
		return invalid("evaluation.positive_class", "must be >= 0, got %d", c.Evaluation.PositiveClass)
	}
	if c.Evaluation.Workers < 1 {
		return invalid("evaluation.workers", "must be at least 1, got %d", c.Evaluation.Workers)
	}
	if len(c.Models) == 0 {
		return invalid("models", "at least one model is required")
	}
	for i, spec := range c.Models {
		if err := spec.ModelConfig().Validate(); err != nil {
			return invalid(fmt.Sprintf("models[%d]", i), "%v", err)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", "unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format", "unknown format %q", c.Logging.Format)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, failure.ConfigError("marshal config", err)
	}
	return out, nil
}

func (d DatasetConfig) ReaderOptions() data.ReaderOptions {
	opts := data.DefaultReaderOptions()
	opts.HasHeader = d.HasHeader
	opts.ClassIndex = d.ClassIndex
	if d.MissingTokens != nil {
		opts.MissingTokens = d.MissingTokens
	}
	return opts
}

// ModelConfig overlays the entry's hyperparameters on the algorithm defaults.
func (s ModelSpec) ModelConfig() models.ModelConfig {
	cfg := models.DefaultConfig(strings.ToLower(s.Algorithm))
	if s.ConfidenceFactor != 0 {
		cfg.ConfidenceFactor = s.ConfidenceFactor
	}
	if s.MinNumObj != 0 {
		cfg.MinNumObj = s.MinNumObj
	}
	cfg.Unpruned = s.Unpruned
	cfg.NoSubtreeRaising = s.NoSubtreeRaising
	if s.Ridge != nil {
		cfg.Ridge = *s.Ridge
	}
	if s.MaxIterations != 0 {
		cfg.MaxIterations = s.MaxIterations
	}
	if s.K != 0 {
		cfg.K = s.K
	}
	if s.Distance != "" {
		cfg.Distance = s.Distance
	}
	if s.VarSmoothing != 0 {
		cfg.VarSmoothing = s.VarSmoothing
	}
	if s.NTrees != 0 {
		cfg.NTrees = s.NTrees
	}
	if s.MaxFeatures != 0 {
		cfg.MaxFeatures = s.MaxFeatures
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	if s.MaxWorkers != 0 {
		cfg.MaxWorkers = s.MaxWorkers
	}
	return cfg
}

// DisplayName is the entry's name, or its algorithm when unnamed.
func (s ModelSpec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Algorithm
}
