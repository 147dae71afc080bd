package models

import (
	"fmt"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

const (
	AlgorithmJ48        = "j48"
	AlgorithmLogistic   = "logistic"
	AlgorithmZeroR      = "zeror"
	AlgorithmNaiveBayes = "naivebayes"
	AlgorithmKNN        = "knn"
	AlgorithmForest     = "randomforest"
)

// ModelConfig names an algorithm and its hyperparameters. It is passed by
// value and never mutated once a model is built from it.
type ModelConfig struct {
	Algorithm string

	// J48; MinNumObj also bounds forest leaves
	ConfidenceFactor float64
	MinNumObj        int
	Unpruned         bool
	NoSubtreeRaising bool

	// Logistic
	Ridge         float64
	MaxIterations int

	// KNN
	K        int
	Distance string

	// NaiveBayes
	VarSmoothing float64

	// RandomForest; MaxFeatures 0 picks sqrt of the attribute count
	NTrees      int
	MaxFeatures int
	Seed        int64
	MaxWorkers  int
}

func (c ModelConfig) Validate() error {
	switch c.Algorithm {
	case AlgorithmJ48:
		if c.ConfidenceFactor <= 0 || c.ConfidenceFactor > 0.5 {
			return fmt.Errorf("confidence factor must be in (0, 0.5], got %g", c.ConfidenceFactor)
		}
		if c.MinNumObj < 1 {
			return fmt.Errorf("minimum instances per leaf must be >= 1, got %d", c.MinNumObj)
		}
	case AlgorithmLogistic:
		if c.Ridge < 0 {
			return fmt.Errorf("ridge must be >= 0, got %g", c.Ridge)
		}
		if c.MaxIterations == 0 || c.MaxIterations < -1 {
			return fmt.Errorf("max iterations must be -1 or positive, got %d", c.MaxIterations)
		}
	case AlgorithmKNN:
		if c.K < 1 {
			return fmt.Errorf("k must be >= 1, got %d", c.K)
		}
		if c.Distance != "euclidean" && c.Distance != "manhattan" {
			return fmt.Errorf("unknown distance: %s", c.Distance)
		}
	case AlgorithmNaiveBayes:
		if c.VarSmoothing < 0 {
			return fmt.Errorf("variance smoothing must be >= 0, got %g", c.VarSmoothing)
		}
	case AlgorithmForest:
		if c.NTrees < 1 {
			return fmt.Errorf("number of trees must be >= 1, got %d", c.NTrees)
		}
		if c.MaxFeatures < 0 {
			return fmt.Errorf("max features must be >= 0, got %d", c.MaxFeatures)
		}
		if c.MinNumObj < 1 {
			return fmt.Errorf("minimum instances per leaf must be >= 1, got %d", c.MinNumObj)
		}
		if c.MaxWorkers < 1 {
			return fmt.Errorf("max workers must be >= 1, got %d", c.MaxWorkers)
		}
	case AlgorithmZeroR:
	default:
		return fmt.Errorf("unknown algorithm: %s", c.Algorithm)
	}
	return nil
}

func CreateModel(config ModelConfig) (Model, error) {
	if err := config.Validate(); err != nil {
		return nil, failure.ConfigError("model config", err)
	}

	switch config.Algorithm {
	case AlgorithmJ48:
		tree := NewDecisionTree(config.ConfidenceFactor, config.MinNumObj, config.Unpruned)
		tree.SubtreeRaising = !config.NoSubtreeRaising
		tree.Params["subtree_raising"] = tree.SubtreeRaising
		return tree, nil
	case AlgorithmForest:
		forest := NewRandomForest(config.NTrees, config.MaxFeatures, config.MinNumObj, config.Seed)
		forest.MaxWorkers = config.MaxWorkers
		return forest, nil
	case AlgorithmLogistic:
		return NewLogisticRegression(config.Ridge, config.MaxIterations), nil
	case AlgorithmNaiveBayes:
		return NewNaiveBayes(config.VarSmoothing), nil
	case AlgorithmKNN:
		return NewKNN(config.K, config.Distance), nil
	default:
		return NewZeroR(), nil
	}
}

// DefaultConfig returns the hyperparameters of the reference run:
// J48 -C 0.25 -M 2 and Logistic -R 1.0E-8.
func DefaultConfig(algorithm string) ModelConfig {
	config := ModelConfig{Algorithm: algorithm}

	switch algorithm {
	case AlgorithmJ48:
		config.ConfidenceFactor = 0.25
		config.MinNumObj = 2
	case AlgorithmLogistic:
		config.Ridge = 1e-8
		config.MaxIterations = -1
	case AlgorithmKNN:
		config.K = 1
		config.Distance = "euclidean"
	case AlgorithmNaiveBayes:
		config.VarSmoothing = 1e-9
	case AlgorithmForest:
		config.NTrees = 10
		config.MinNumObj = 1
		config.Seed = 1
		config.MaxWorkers = 4
	}

	return config
}
