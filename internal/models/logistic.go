package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/preprocessing"
)

// LogisticRegression is a multinomial logistic model with a ridge penalty on
// the non-intercept coefficients. The last class is the reference class.
// Nominal attributes are expanded and missing values replaced internally;
// features are standardised before fitting.
type LogisticRegression struct {
	BaseModel
	Ridge         float64
	MaxIterations int

	// Coefficients holds numClasses-1 rows of [intercept, w1..wd].
	Coefficients [][]float64
	Iterations   int

	pipeline *preprocessing.Pipeline
	scaler   *preprocessing.Scaler
}

func NewLogisticRegression(ridge float64, maxIterations int) *LogisticRegression {
	if ridge < 0 {
		ridge = 1e-8
	}
	if maxIterations == 0 {
		maxIterations = -1
	}

	return &LogisticRegression{
		Ridge:         ridge,
		MaxIterations: maxIterations,
		BaseModel: BaseModel{
			Name: "Logistic",
			Params: map[string]any{
				"ridge":          ridge,
				"max_iterations": maxIterations,
			},
		},
	}
}

func (lr *LogisticRegression) Fit(ds *data.Dataset) error {
	if err := lr.prepareFit(ds); err != nil {
		return err
	}

	labeled := make([]int, 0, ds.NumRows())
	for i, label := range ds.Labels() {
		if label >= 0 {
			labeled = append(labeled, i)
		}
	}
	if len(labeled) == 0 {
		return failure.ModelError("Logistic fit", fmt.Errorf("no training rows with a known class"))
	}
	train := ds.Subset(labeled)

	lr.pipeline = preprocessing.NewPipeline(
		preprocessing.NewReplaceMissingValues(),
		preprocessing.NewNominalToBinary(true),
	)
	numeric, err := lr.pipeline.FitTransform(train)
	if err != nil {
		return failure.ModelError("Logistic fit", err)
	}

	X := featureMatrix(numeric)
	lr.scaler = preprocessing.NewScaler("standard")
	X, err = lr.scaler.FitTransform(X)
	if err != nil {
		return failure.ModelError("Logistic fit", err)
	}
	for i, row := range X {
		if floats.HasNaN(row) {
			return failure.ModelError("Logistic fit", fmt.Errorf("row %d has undefined features after preprocessing", i))
		}
	}
	X = withIntercept(X)
	y := numeric.Labels()

	numClasses := lr.NumClasses()
	dim := len(X[0])
	lr.Coefficients = make([][]float64, numClasses-1)
	if numClasses < 2 {
		return nil
	}

	obj := &logisticObjective{X: X, y: y, numClasses: numClasses, dim: dim, ridge: lr.Ridge}
	problem := optimize.Problem{
		Func: obj.value,
		Grad: obj.gradient,
	}
	settings := &optimize.Settings{}
	if lr.MaxIterations > 0 {
		settings.MajorIterations = lr.MaxIterations
	}

	result, err := optimize.Minimize(problem, make([]float64, (numClasses-1)*dim), settings, &optimize.BFGS{})
	if err := checkOptimizerResult(result, err); err != nil {
		return failure.ModelError("Logistic fit", err)
	}

	lr.Iterations = result.Stats.MajorIterations
	for k := range lr.Coefficients {
		lr.Coefficients[k] = append([]float64(nil), result.X[k*dim:(k+1)*dim]...)
	}
	return nil
}

func (lr *LogisticRegression) PredictProba(ds *data.Dataset) ([][]float64, error) {
	if err := lr.checkPredict(ds); err != nil {
		return nil, err
	}

	numeric, err := lr.pipeline.Transform(ds)
	if err != nil {
		return nil, failure.ModelError("Logistic predict", err)
	}

	X := featureMatrix(numeric)
	proba := make([][]float64, len(X))
	logits := make([]float64, lr.NumClasses())
	for i, row := range X {
		x := append([]float64{1}, lr.scaler.TransformRow(row)...)
		for j, v := range x {
			if math.IsNaN(v) {
				x[j] = 0
			}
		}
		for k, w := range lr.Coefficients {
			logits[k] = floats.Dot(w, x)
		}
		logits[len(logits)-1] = 0
		proba[i] = softmax(logits)
	}
	return proba, nil
}

func (lr *LogisticRegression) Predict(ds *data.Dataset) ([]int, error) {
	proba, err := lr.PredictProba(ds)
	if err != nil {
		return nil, err
	}
	return predictFromProba(proba), nil
}

func (lr *LogisticRegression) Reset() {
	lr.resetBase()
	lr.Coefficients = nil
	lr.pipeline = nil
	lr.scaler = nil
	lr.Iterations = 0
}

// checkOptimizerResult accepts a run that converged, hit the iteration limit, or
// stalled in the line search after making progress.
func checkOptimizerResult(result *optimize.Result, err error) error {
	switch {
	case result == nil || floats.HasNaN(result.X):
		if err == nil {
			err = fmt.Errorf("optimizer returned no usable coefficients")
		}
		return err
	case err != nil && (result.MajorIterations == 0 || !lineSearchStalled(err)):
		return fmt.Errorf("optimizer failed after %d iterations (%s): %w", result.MajorIterations, result.Status, err)
	}
	return nil
}

// lineSearchStalled reports whether BFGS stopped because the line search could
// not improve further, which leaves usable coefficients near the optimum.
func lineSearchStalled(err error) bool {
	for _, target := range []error{
		optimize.ErrLinesearcherFailure,
		optimize.ErrLinesearcherBound,
		optimize.ErrNoProgress,
		optimize.ErrNonDescentDirection,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type logisticObjective struct {
	X          [][]float64
	y          []int
	numClasses int
	dim        int
	ridge      float64
}

func (o *logisticObjective) logits(w, x, out []float64) {
	for k := 0; k < o.numClasses-1; k++ {
		out[k] = floats.Dot(w[k*o.dim:(k+1)*o.dim], x)
	}
	out[o.numClasses-1] = 0
}

// value is the ridge-penalised negative log-likelihood.
func (o *logisticObjective) value(w []float64) float64 {
	z := make([]float64, o.numClasses)
	nll := 0.0
	for i, x := range o.X {
		o.logits(w, x, z)
		nll += floats.LogSumExp(z) - z[o.y[i]]
	}
	return nll + o.ridge*o.penalty(w)
}

func (o *logisticObjective) gradient(grad, w []float64) {
	for i := range grad {
		grad[i] = 0
	}
	z := make([]float64, o.numClasses)
	for i, x := range o.X {
		o.logits(w, x, z)
		p := softmax(z)
		for k := 0; k < o.numClasses-1; k++ {
			diff := p[k]
			if o.y[i] == k {
				diff--
			}
			floats.AddScaled(grad[k*o.dim:(k+1)*o.dim], diff, x)
		}
	}
	for k := 0; k < o.numClasses-1; k++ {
		for j := 1; j < o.dim; j++ {
			idx := k*o.dim + j
			grad[idx] += 2 * o.ridge * w[idx]
		}
	}
}

func (o *logisticObjective) penalty(w []float64) float64 {
	sum := 0.0
	for k := 0; k < o.numClasses-1; k++ {
		for j := 1; j < o.dim; j++ {
			v := w[k*o.dim+j]
			sum += v * v
		}
	}
	return sum
}

func softmax(z []float64) []float64 {
	lse := floats.LogSumExp(z)
	out := make([]float64, len(z))
	for k, v := range z {
		out[k] = math.Exp(v - lse)
	}
	return out
}

// featureMatrix copies the non-class columns of ds.
func featureMatrix(ds *data.Dataset) [][]float64 {
	cols := featureColumns(ds)
	X := make([][]float64, ds.NumRows())
	for i, row := range ds.Rows {
		X[i] = make([]float64, len(cols))
		for j, col := range cols {
			X[i][j] = row[col]
		}
	}
	return X
}

func withIntercept(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = append([]float64{1}, row...)
	}
	return out
}
