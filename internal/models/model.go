package models

import (
	"fmt"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

// Model is a classifier over a nominal class. PredictProba returns one
// distribution per row, indexed by class value.
type Model interface {
	Fit(ds *data.Dataset) error
	Predict(ds *data.Dataset) ([]int, error)
	PredictProba(ds *data.Dataset) ([][]float64, error)
	GetName() string
	GetParams() map[string]any
	GetClasses() []string
	Reset()
}

type BaseModel struct {
	Name    string
	Params  map[string]any
	Classes []string
	header  *data.Dataset
}

func (bm *BaseModel) GetName() string {
	return bm.Name
}

func (bm *BaseModel) GetParams() map[string]any {
	return bm.Params
}

func (bm *BaseModel) GetClasses() []string {
	return bm.Classes
}

func (bm *BaseModel) NumClasses() int {
	return len(bm.Classes)
}

func (bm *BaseModel) resetBase() {
	bm.Classes = nil
	bm.header = nil
}

// prepareFit checks that ds can train a classifier and records its header.
func (bm *BaseModel) prepareFit(ds *data.Dataset) error {
	if ds == nil || ds.NumRows() == 0 {
		return failure.ModelError(bm.Name+" fit", fmt.Errorf("training set is empty"))
	}
	class := ds.ClassAttribute()
	if class == nil {
		return failure.ModelError(bm.Name+" fit", fmt.Errorf("no class attribute set"))
	}
	if !class.IsNominal() {
		return failure.ModelError(bm.Name+" fit", fmt.Errorf("cannot handle numeric class %q", class.Name))
	}
	if class.NumValues() == 0 {
		return failure.ModelError(bm.Name+" fit", fmt.Errorf("class %q has no values", class.Name))
	}

	bm.Classes = append([]string(nil), class.Values...)
	bm.header = ds.EmptyCopy()
	return nil
}

func (bm *BaseModel) checkPredict(ds *data.Dataset) error {
	if bm.header == nil {
		return failure.ModelError(bm.Name+" predict", fmt.Errorf("model must be fitted before predict"))
	}
	if ds.NumAttributes() != bm.header.NumAttributes() || ds.ClassIndex() != bm.header.ClassIndex() {
		return failure.ModelError(bm.Name+" predict", fmt.Errorf("attribute count mismatch: trained on %d, got %d",
			bm.header.NumAttributes(), ds.NumAttributes()))
	}
	return nil
}

// predictFromProba picks the most probable class per row, the lowest index on ties.
func predictFromProba(proba [][]float64) []int {
	predictions := make([]int, len(proba))
	for i, dist := range proba {
		predictions[i] = argmax(dist)
	}
	return predictions
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

func normalize(dist []float64) {
	sum := 0.0
	for _, v := range dist {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range dist {
		dist[i] /= sum
	}
}

// featureColumns lists every attribute index except the class.
func featureColumns(ds *data.Dataset) []int {
	cols := make([]int, 0, ds.NumAttributes())
	for j := range ds.Attributes {
		if j != ds.ClassIndex() {
			cols = append(cols, j)
		}
	}
	return cols
}
