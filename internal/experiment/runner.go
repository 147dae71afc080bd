package experiment

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/config"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/evaluation"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/models"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/preprocessing"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/report"
)

// ExperimentRunner loads the configured dataset once and cross-validates
// every configured model on it, printing each result as it completes.
type ExperimentRunner struct {
	Config   *config.Config
	Logger   *zap.Logger
	Reporter *report.Reporter

	// OnFold, when set, is called after every finished fold of every model.
	OnFold func(spec config.ModelSpec, fold evaluation.FoldReport)
}

type ExperimentResult struct {
	Name       string
	Algorithm  string
	Parameters string
	Result     *evaluation.Result
}

func NewRunner(cfg *config.Config, logger *zap.Logger, reporter *report.Reporter) *ExperimentRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExperimentRunner{Config: cfg, Logger: logger, Reporter: reporter}
}

// Run evaluates the models in order and stops at the first failure; results
// of the models already evaluated are returned with the error.
func (r *ExperimentRunner) Run(ctx context.Context) ([]ExperimentResult, error) {
	r.Reporter.Status("Loading and preprocessing data...")
	ds, err := r.loadData()
	if err != nil {
		return nil, err
	}
	r.Reporter.Done("Data loaded and preprocessed successfully.")
	r.Reporter.Separator()

	positive, err := r.positiveClass(ds)
	if err != nil {
		return nil, err
	}

	var results []ExperimentResult
	for i, spec := range r.Config.Models {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		name := spec.DisplayName()
		r.Reporter.Header(fmt.Sprintf("Evaluating Model %d: %s", i+1, name))

		result, err := r.evaluateModel(ctx, spec, ds, positive)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		r.Reporter.PrintModel(name, result.Result)
		r.Reporter.Separator()
	}

	if path := r.Config.Output.ResultsCSV; path != "" {
		if err := ExportResults(results, path); err != nil {
			return results, err
		}
		r.Logger.Info("results exported", zap.String("path", path), zap.Int("models", len(results)))
	}

	return results, nil
}

// loadData reads the dataset and, unless filters run per fold, applies the
// preprocessing pipeline to all of it.
func (r *ExperimentRunner) loadData() (*data.Dataset, error) {
	reader, err := data.NewCSVReader(r.Config.Dataset.Path, r.Config.Dataset.ReaderOptions())
	if err != nil {
		return nil, err
	}
	ds, err := reader.Load()
	if err != nil {
		return nil, err
	}

	validator := data.NewDataValidator()
	if err := validator.ValidateDataset(ds); err != nil {
		return nil, failure.IOError("validate dataset", err)
	}
	if err := validator.ValidateLabels(ds); err != nil {
		return nil, failure.IOError("validate dataset", err)
	}

	stats := validator.GetDatasetStats(ds)
	r.Logger.Info("dataset loaded",
		zap.String("path", r.Config.Dataset.Path),
		zap.Any("samples", stats["samples"]),
		zap.Any("attributes", stats["attributes"]),
		zap.Any("class_distribution", stats["class_distribution"]),
		zap.Any("missing", stats["missing"]),
	)
	if attrs, ok := stats["attribute_stats"].([]data.AttributeStats); ok {
		for _, s := range attrs {
			r.Logger.Debug("attribute",
				zap.String("name", s.Name),
				zap.Stringer("type", s.Type),
				zap.Int("distinct", s.Distinct),
				zap.Int("missing", s.Missing),
				zap.String("mean", s.Mean.StringFixed(4)),
			)
		}
	}

	if r.Config.Preprocess.PerFold {
		r.Logger.Debug("preprocessing deferred to training folds", zap.Strings("filters", r.pipeline().Names()))
		return ds, nil
	}

	pipeline := r.pipeline()
	out, err := pipeline.FitTransform(ds)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("preprocessing applied",
		zap.Strings("filters", pipeline.Names()),
		zap.Int("attributes", out.NumAttributes()),
	)
	return out, nil
}

func (r *ExperimentRunner) pipeline() *preprocessing.Pipeline {
	return preprocessing.NewDefaultPipeline(preprocessing.PipelineOptions{
		ReplaceMissing:     r.Config.Preprocess.ReplaceMissing,
		NominalToBinary:    r.Config.Preprocess.NominalToBinary,
		TransformAllValues: r.Config.Preprocess.TransformAllValues,
	})
}

// positiveClass resolves the configured positive label, falling back to the
// configured index. An index outside the class range is allowed; metrics for
// it come out as zero or NaN.
func (r *ExperimentRunner) positiveClass(ds *data.Dataset) (int, error) {
	class := ds.ClassAttribute()
	if label := r.Config.Evaluation.PositiveLabel; label != "" {
		idx, ok := class.IndexOf(label)
		if !ok {
			return 0, failure.ConfigError("positive class",
				fmt.Errorf("class %q has no value %q (values: %v)", class.Name, label, class.Values))
		}
		return idx, nil
	}

	idx := r.Config.Evaluation.PositiveClass
	if idx >= class.NumValues() {
		r.Logger.Warn("positive class index out of range",
			zap.Int("index", idx),
			zap.Strings("values", class.Values),
		)
	}
	return idx, nil
}

func (r *ExperimentRunner) evaluateModel(ctx context.Context, spec config.ModelSpec, ds *data.Dataset, positive int) (ExperimentResult, error) {
	modelConfig := spec.ModelConfig()
	model, err := models.CreateModel(modelConfig)
	if err != nil {
		return ExperimentResult{}, err
	}

	cv := evaluation.NewCrossValidator(r.Config.Evaluation.Folds, r.Config.Evaluation.Seed)
	cv.MaxWorkers = r.Config.Evaluation.Workers
	if r.Config.Preprocess.PerFold {
		cv.Pipeline = r.pipeline
	}
	cv.OnFoldDone = func(fold evaluation.FoldReport) {
		r.Logger.Debug("fold finished",
			zap.String("model", spec.DisplayName()),
			zap.Int("fold", fold.Fold),
			zap.Int("train", fold.Train),
			zap.Int("test", fold.Test),
			zap.Duration("elapsed", fold.Elapsed),
		)
		if r.OnFold != nil {
			r.OnFold(spec, fold)
		}
	}

	result, err := cv.CrossValidate(ctx, evaluation.FactoryFor(modelConfig), ds, positive)
	if err != nil {
		return ExperimentResult{}, err
	}

	r.Logger.Info("model evaluated",
		zap.String("model", spec.DisplayName()),
		zap.Float64("pct_correct", result.PctCorrect),
		zap.Float64("auc", result.AUC),
		zap.Duration("elapsed", result.Elapsed),
	)

	return ExperimentResult{
		Name:       spec.DisplayName(),
		Algorithm:  model.GetName(),
		Parameters: fmt.Sprintf("%v", model.GetParams()),
		Result:     result,
	}, nil
}

// ExportResults writes one CSV row of metrics per evaluated model.
func ExportResults(results []ExperimentResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return failure.IOError("export results", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Write([]string{
		"Model", "Algorithm", "Parameters", "Folds", "Instances",
		"Accuracy", "Precision", "Recall", "F1Score", "AUC", "Kappa", "TimeMs",
	})

	for _, result := range results {
		res := result.Result
		writer.Write([]string{
			result.Name,
			result.Algorithm,
			result.Parameters,
			strconv.Itoa(res.NumFolds),
			strconv.Itoa(res.NumInstances),
			fmt.Sprintf("%.4f", res.PctCorrect),
			fmt.Sprintf("%.4f", res.Precision),
			fmt.Sprintf("%.4f", res.Recall),
			fmt.Sprintf("%.4f", res.F1),
			fmt.Sprintf("%.4f", res.AUC),
			fmt.Sprintf("%.4f", res.Kappa),
			strconv.FormatInt(res.Elapsed.Milliseconds(), 10),
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return failure.IOError("export results", err)
	}
	return nil
}
