package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Scaler rescales the columns of a feature matrix. Missing (NaN) cells are
// ignored while fitting and stay missing after transform.
type Scaler struct {
	ScaleType   string
	IsFitted    bool
	FeatureMin  []float64
	FeatureMax  []float64
	FeatureMean []float64
	FeatureStd  []float64
}

func NewScaler(scaleType string) *Scaler {
	return &Scaler{
		ScaleType: scaleType,
		IsFitted:  false,
	}
}

func (s *Scaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("empty dataset")
	}

	nFeatures := len(X[0])
	s.FeatureMin = make([]float64, nFeatures)
	s.FeatureMax = make([]float64, nFeatures)
	s.FeatureMean = make([]float64, nFeatures)
	s.FeatureStd = make([]float64, nFeatures)

	switch s.ScaleType {
	case "minmax", "normalized", "standard", "standardized":
	case "raw", "none":
		s.IsFitted = true
		return nil
	default:
		return fmt.Errorf("unknown scale type: %s", s.ScaleType)
	}

	col := make([]float64, 0, len(X))
	for j := 0; j < nFeatures; j++ {
		col = col[:0]
		for i := range X {
			if !math.IsNaN(X[i][j]) {
				col = append(col, X[i][j])
			}
		}
		if len(col) == 0 {
			s.FeatureStd[j] = 1
			continue
		}

		s.FeatureMin[j] = floats.Min(col)
		s.FeatureMax[j] = floats.Max(col)
		mean, std := stat.MeanStdDev(col, nil)
		if math.IsNaN(std) || std == 0 {
			std = 1
		}
		s.FeatureMean[j] = mean
		s.FeatureStd[j] = std
	}

	s.IsFitted = true
	return nil
}

func (s *Scaler) Transform(X [][]float64) ([][]float64, error) {
	if !s.IsFitted {
		return nil, fmt.Errorf("scaler must be fitted before transform")
	}

	result := make([][]float64, len(X))
	for i := range X {
		if len(X[i]) != len(s.FeatureStd) {
			return nil, fmt.Errorf("row %d has %d features, scaler was fitted on %d", i, len(X[i]), len(s.FeatureStd))
		}
		result[i] = s.TransformRow(X[i])
	}

	return result, nil
}

// TransformRow scales a single row into a new slice.
func (s *Scaler) TransformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		switch s.ScaleType {
		case "minmax", "normalized":
			out[j] = s.transformMinMax(v, j)
		case "standard", "standardized":
			out[j] = s.transformStandard(v, j)
		default:
			out[j] = v
		}
	}
	return out
}

func (s *Scaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *Scaler) transformMinMax(value float64, featureIndex int) float64 {
	range_ := s.FeatureMax[featureIndex] - s.FeatureMin[featureIndex]
	if range_ == 0 {
		return 0
	}
	return (value - s.FeatureMin[featureIndex]) / range_
}

func (s *Scaler) transformStandard(value float64, featureIndex int) float64 {
	return (value - s.FeatureMean[featureIndex]) / s.FeatureStd[featureIndex]
}
