package evaluation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
)

// Evaluation accumulates predicted distributions against actual classes.
// Probability errors are measured against the class priors of the training
// data set with SetPriors, so relative errors compare to a prior-only model.
type Evaluation struct {
	classes   []string
	priors    []float64
	confusion [][]int

	withClass    float64
	missingClass int

	sumAbsErr      float64
	sumSqrErr      float64
	sumPriorAbsErr float64
	sumPriorSqrErr float64

	actual []int
	dists  [][]float64

	elapsed time.Duration
}

func NewEvaluation(classes []string) *Evaluation {
	confusion := make([][]int, len(classes))
	for i := range confusion {
		confusion[i] = make([]int, len(classes))
	}

	e := &Evaluation{
		classes:   append([]string(nil), classes...),
		confusion: confusion,
	}
	e.priors = make([]float64, len(classes))
	for i := range e.priors {
		e.priors[i] = 1 / float64(len(classes))
	}
	return e
}

// SetPriors sets the reference distribution to the Laplace-smoothed class
// counts of train.
func (e *Evaluation) SetPriors(train *data.Dataset) {
	counts := make([]float64, len(e.classes))
	for i := range counts {
		counts[i] = 1
	}
	total := float64(len(counts))
	for _, label := range train.Labels() {
		if label >= 0 && label < len(counts) {
			counts[label]++
			total++
		}
	}
	for i := range counts {
		counts[i] /= total
	}
	e.priors = counts
}

// Add records one prediction. A negative actual marks a row whose class is
// missing; it is counted but not scored.
func (e *Evaluation) Add(actual int, dist []float64) {
	if actual < 0 || actual >= len(e.classes) {
		e.missingClass++
		return
	}

	predicted := argmax(dist)
	e.confusion[actual][predicted]++
	e.withClass++

	n := float64(len(e.classes))
	absErr, sqrErr, priorAbs, priorSqr := 0.0, 0.0, 0.0, 0.0
	for k := range e.classes {
		target := 0.0
		if k == actual {
			target = 1
		}
		p := 0.0
		if k < len(dist) {
			p = dist[k]
		}
		diff := p - target
		absErr += math.Abs(diff)
		sqrErr += diff * diff

		priorDiff := e.priors[k] - target
		priorAbs += math.Abs(priorDiff)
		priorSqr += priorDiff * priorDiff
	}
	e.sumAbsErr += absErr / n
	e.sumSqrErr += sqrErr / n
	e.sumPriorAbsErr += priorAbs / n
	e.sumPriorSqrErr += priorSqr / n

	e.actual = append(e.actual, actual)
	e.dists = append(e.dists, append([]float64(nil), dist...))
}

func (e *Evaluation) SetElapsed(d time.Duration) {
	e.elapsed = d
}

func (e *Evaluation) Correct() int {
	correct := 0
	for i := range e.confusion {
		correct += e.confusion[i][i]
	}
	return correct
}

// Result computes the metrics with positiveClass as the class of interest.
func (e *Evaluation) Result(positiveClass int) *Result {
	correct := e.Correct()
	incorrect := int(e.withClass) - correct

	r := &Result{
		NumInstances:    int(e.withClass),
		MissingClass:    e.missingClass,
		Correct:         correct,
		Incorrect:       incorrect,
		PctCorrect:      100 * safeDivide(float64(correct), e.withClass),
		PctIncorrect:    100 * safeDivide(float64(incorrect), e.withClass),
		Kappa:           kappa(e.confusion),
		PositiveClass:   positiveClass,
		ConfusionMatrix: cloneMatrix(e.confusion),
		Classes:         append([]string(nil), e.classes...),
		Elapsed:         e.elapsed,
		AUC:             math.NaN(),
	}

	if e.withClass > 0 {
		r.MeanAbsoluteError = e.sumAbsErr / e.withClass
		r.RootMeanSquaredError = math.Sqrt(e.sumSqrErr / e.withClass)
		priorMAE := e.sumPriorAbsErr / e.withClass
		priorRMSE := math.Sqrt(e.sumPriorSqrErr / e.withClass)
		r.RelativeAbsoluteError = 100 * safeDivide(r.MeanAbsoluteError, priorMAE)
		r.RootRelativeSquaredError = 100 * safeDivide(r.RootMeanSquaredError, priorRMSE)
	}

	r.PerClass = make([]ClassMetrics, len(e.classes))
	for i := range e.classes {
		r.PerClass[i] = classMetrics(e.confusion, i)
	}

	if positiveClass >= 0 && positiveClass < len(e.classes) {
		pc := r.PerClass[positiveClass]
		r.PositiveLabel = e.classes[positiveClass]
		r.Precision = pc.Precision
		r.Recall = pc.Recall
		r.F1 = pc.F1Score

		scores := make([]float64, len(e.dists))
		positive := make([]bool, len(e.dists))
		for i, dist := range e.dists {
			if positiveClass < len(dist) {
				scores[i] = dist[positiveClass]
			}
			positive[i] = e.actual[i] == positiveClass
		}
		r.AUC = areaUnderROC(scores, positive)
	}

	r.Summary = r.summary()
	return r
}

// Result is the outcome of one cross-validation run.
type Result struct {
	NumFolds     int
	NumInstances int
	MissingClass int
	Correct      int
	Incorrect    int
	PctCorrect   float64
	PctIncorrect float64
	Kappa        float64

	MeanAbsoluteError        float64
	RootMeanSquaredError     float64
	RelativeAbsoluteError    float64
	RootRelativeSquaredError float64

	PositiveClass int
	PositiveLabel string
	Precision     float64
	Recall        float64
	F1            float64
	AUC           float64

	Classes         []string
	ConfusionMatrix [][]int
	PerClass        []ClassMetrics
	Elapsed         time.Duration
	Summary         string
}

func (r *Result) summary() string {
	var b strings.Builder
	line := func(label, value, suffix string) {
		fmt.Fprintf(&b, "%-35s%s%s\n", label, value, suffix)
	}

	line("Correctly Classified Instances", alignDecimal(float64(r.Correct), 12, 4),
		"     "+alignDecimal(r.PctCorrect, 12, 4)+" %")
	line("Incorrectly Classified Instances", alignDecimal(float64(r.Incorrect), 12, 4),
		"     "+alignDecimal(r.PctIncorrect, 12, 4)+" %")
	line("Kappa statistic", alignDecimal(r.Kappa, 12, 4), "")
	line("Mean absolute error", alignDecimal(r.MeanAbsoluteError, 12, 4), "")
	line("Root mean squared error", alignDecimal(r.RootMeanSquaredError, 12, 4), "")
	line("Relative absolute error", alignDecimal(r.RelativeAbsoluteError, 12, 4), " %")
	line("Root relative squared error", alignDecimal(r.RootRelativeSquaredError, 12, 4), " %")
	if r.MissingClass > 0 {
		line("Ignored Class Unknown Instances", alignDecimal(float64(r.MissingClass), 12, 4), "")
	}
	line("Total Number of Instances", alignDecimal(float64(r.NumInstances), 12, 4), "")

	return b.String()
}

// alignDecimal renders v with at most `after` decimals, trailing zeros
// dropped, and pads it so the decimal point sits at a fixed column of a
// field `width` wide.
func alignDecimal(v float64, width, after int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%*s", width, strconv.FormatFloat(v, 'f', -1, 64))
	}

	s := strconv.FormatFloat(v, 'f', after, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	offset := width - after - 1 - len(intPart)
	if offset < 0 {
		return s
	}

	out := []byte(strings.Repeat(" ", width))
	copy(out[offset:], intPart)
	if hasDot {
		out[width-after-1] = '.'
		copy(out[width-after:], fracPart)
	}
	return string(out)
}

func cloneMatrix(m [][]int) [][]int {
	out := make([][]int, len(m))
	for i := range m {
		out[i] = append([]int(nil), m[i]...)
	}
	return out
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
