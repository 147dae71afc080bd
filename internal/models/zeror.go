package models

import (
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
)

// ZeroR always predicts the training class distribution, Laplace smoothed.
type ZeroR struct {
	BaseModel
	Distribution []float64
}

func NewZeroR() *ZeroR {
	return &ZeroR{
		BaseModel: BaseModel{
			Name:   "ZeroR",
			Params: map[string]any{},
		},
	}
}

func (z *ZeroR) Fit(ds *data.Dataset) error {
	if err := z.prepareFit(ds); err != nil {
		return err
	}

	z.Distribution = make([]float64, z.NumClasses())
	for i := range z.Distribution {
		z.Distribution[i] = 1
	}
	for _, label := range ds.Labels() {
		if label >= 0 {
			z.Distribution[label]++
		}
	}
	normalize(z.Distribution)
	return nil
}

func (z *ZeroR) PredictProba(ds *data.Dataset) ([][]float64, error) {
	if err := z.checkPredict(ds); err != nil {
		return nil, err
	}

	proba := make([][]float64, ds.NumRows())
	for i := range proba {
		proba[i] = append([]float64(nil), z.Distribution...)
	}
	return proba, nil
}

func (z *ZeroR) Predict(ds *data.Dataset) ([]int, error) {
	proba, err := z.PredictProba(ds)
	if err != nil {
		return nil, err
	}
	return predictFromProba(proba), nil
}

func (z *ZeroR) Reset() {
	z.resetBase()
	z.Distribution = nil
}
