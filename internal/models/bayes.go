package models

import (
	"math"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
)

// NaiveBayes models numeric attributes with a per-class Gaussian and nominal
// attributes with Laplace-smoothed value counts. Missing cells are skipped.
type NaiveBayes struct {
	BaseModel
	ClassLogPriors []float64
	FeatureMeans   [][]float64
	FeatureVars    [][]float64
	ValueLogProbs  [][][]float64
	VarSmoothing   float64

	attrs      []*data.Attribute
	classIndex int
}

func NewNaiveBayes(varSmoothing float64) *NaiveBayes {
	if varSmoothing <= 0 {
		varSmoothing = 1e-9
	}

	return &NaiveBayes{
		VarSmoothing: varSmoothing,
		BaseModel: BaseModel{
			Name: "NaiveBayes",
			Params: map[string]any{
				"var_smoothing": varSmoothing,
			},
		},
	}
}

func (nb *NaiveBayes) Fit(ds *data.Dataset) error {
	if err := nb.prepareFit(ds); err != nil {
		return err
	}

	numClasses := nb.NumClasses()
	nAttrs := ds.NumAttributes()
	nb.attrs = ds.EmptyCopy().Attributes
	nb.classIndex = ds.ClassIndex()

	labels := ds.Labels()
	classCounts := make([]float64, numClasses)
	labeled := 0
	for _, label := range labels {
		if label >= 0 {
			classCounts[label]++
			labeled++
		}
	}

	nb.ClassLogPriors = make([]float64, numClasses)
	for class, count := range classCounts {
		nb.ClassLogPriors[class] = math.Log((count + 1) / float64(labeled+numClasses))
	}

	nb.FeatureMeans = make([][]float64, numClasses)
	nb.FeatureVars = make([][]float64, numClasses)
	nb.ValueLogProbs = make([][][]float64, numClasses)

	for class := 0; class < numClasses; class++ {
		nb.FeatureMeans[class] = make([]float64, nAttrs)
		nb.FeatureVars[class] = make([]float64, nAttrs)
		nb.ValueLogProbs[class] = make([][]float64, nAttrs)

		for j, attr := range ds.Attributes {
			if j == nb.classIndex {
				continue
			}
			if attr.IsNominal() {
				counts := make([]float64, attr.NumValues())
				total := 0.0
				for i, row := range ds.Rows {
					if labels[i] == class && !data.IsMissing(row[j]) {
						counts[int(row[j])]++
						total++
					}
				}
				logProbs := make([]float64, len(counts))
				for v, c := range counts {
					logProbs[v] = math.Log((c + 1) / (total + float64(len(counts))))
				}
				nb.ValueLogProbs[class][j] = logProbs
				continue
			}

			sum, n := 0.0, 0.0
			for i, row := range ds.Rows {
				if labels[i] == class && !data.IsMissing(row[j]) {
					sum += row[j]
					n++
				}
			}
			if n == 0 {
				nb.FeatureVars[class][j] = math.NaN()
				continue
			}
			mean := sum / n
			variance := 0.0
			for i, row := range ds.Rows {
				if labels[i] == class && !data.IsMissing(row[j]) {
					diff := row[j] - mean
					variance += diff * diff
				}
			}
			nb.FeatureMeans[class][j] = mean
			nb.FeatureVars[class][j] = variance/n + nb.VarSmoothing
		}
	}

	return nil
}

func (nb *NaiveBayes) logGaussianPDF(x, mean, variance float64) float64 {
	if variance <= 0 {
		variance = nb.VarSmoothing
	}

	logTwoPiVar := math.Log(2 * math.Pi * variance)
	diff := x - mean
	exponent := -(diff * diff) / (2 * variance)

	return -0.5*logTwoPiVar + exponent
}

func (nb *NaiveBayes) PredictProba(ds *data.Dataset) ([][]float64, error) {
	if err := nb.checkPredict(ds); err != nil {
		return nil, err
	}

	proba := make([][]float64, ds.NumRows())
	for i, sample := range ds.Rows {
		logProbs := make([]float64, nb.NumClasses())

		for class := range logProbs {
			logProb := nb.ClassLogPriors[class]
			for j, v := range sample {
				if j == nb.classIndex || data.IsMissing(v) {
					continue
				}
				if nb.attrs[j].IsNominal() {
					if probs := nb.ValueLogProbs[class][j]; int(v) < len(probs) {
						logProb += probs[int(v)]
					}
					continue
				}
				if math.IsNaN(nb.FeatureVars[class][j]) {
					continue
				}
				logProb += nb.logGaussianPDF(v, nb.FeatureMeans[class][j], nb.FeatureVars[class][j])
			}
			logProbs[class] = logProb
		}

		proba[i] = softmax(logProbs)
	}

	return proba, nil
}

func (nb *NaiveBayes) Predict(ds *data.Dataset) ([]int, error) {
	proba, err := nb.PredictProba(ds)
	if err != nil {
		return nil, err
	}
	return predictFromProba(proba), nil
}

func (nb *NaiveBayes) Reset() {
	nb.resetBase()
	nb.ClassLogPriors = nil
	nb.FeatureMeans = nil
	nb.FeatureVars = nil
	nb.ValueLogProbs = nil
	nb.attrs = nil
}
