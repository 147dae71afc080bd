package models

import (
	"math"
	"sort"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
)

// KNN is an instance-based classifier. Numeric attributes are min-max scaled
// over the training data; nominal attributes differ by 0 or 1. A missing
// value on either side contributes the maximum difference of 1.
type KNN struct {
	BaseModel
	K        int
	Distance string

	train      *data.Dataset
	labels     []int
	mins       []float64
	maxs       []float64
	classIndex int
}

type neighbor struct {
	index    int
	distance float64
}

func NewKNN(k int, distance string) *KNN {
	if k <= 0 {
		k = 1
	}
	if distance == "" {
		distance = "euclidean"
	}

	return &KNN{
		K:        k,
		Distance: distance,
		BaseModel: BaseModel{
			Name: "KNN",
			Params: map[string]any{
				"k":        k,
				"distance": distance,
			},
		},
	}
}

func (knn *KNN) Fit(ds *data.Dataset) error {
	if err := knn.prepareFit(ds); err != nil {
		return err
	}

	labeled := make([]int, 0, ds.NumRows())
	labels := ds.Labels()
	for i, label := range labels {
		if label >= 0 {
			labeled = append(labeled, i)
		}
	}
	knn.train = ds.Subset(labeled)
	knn.labels = knn.train.Labels()
	knn.classIndex = ds.ClassIndex()

	nAttrs := ds.NumAttributes()
	knn.mins = make([]float64, nAttrs)
	knn.maxs = make([]float64, nAttrs)
	for j := range knn.mins {
		knn.mins[j] = math.Inf(1)
		knn.maxs[j] = math.Inf(-1)
	}
	for _, row := range knn.train.Rows {
		for j, v := range row {
			if data.IsMissing(v) {
				continue
			}
			knn.mins[j] = math.Min(knn.mins[j], v)
			knn.maxs[j] = math.Max(knn.maxs[j], v)
		}
	}

	return nil
}

func (knn *KNN) PredictProba(ds *data.Dataset) ([][]float64, error) {
	if err := knn.checkPredict(ds); err != nil {
		return nil, err
	}

	proba := make([][]float64, ds.NumRows())
	for i, sample := range ds.Rows {
		proba[i] = knn.calculateProbabilities(knn.findKNearestNeighbors(sample))
	}

	return proba, nil
}

func (knn *KNN) Predict(ds *data.Dataset) ([]int, error) {
	proba, err := knn.PredictProba(ds)
	if err != nil {
		return nil, err
	}
	return predictFromProba(proba), nil
}

func (knn *KNN) findKNearestNeighbors(sample []float64) []int {
	neighbors := make([]neighbor, len(knn.train.Rows))

	for i, trainSample := range knn.train.Rows {
		dist := knn.calculateDistance(sample, trainSample)
		neighbors[i] = neighbor{index: i, distance: dist}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].distance < neighbors[j].distance
	})

	k := min(knn.K, len(neighbors))
	kNeighbors := make([]int, k)
	for i := 0; i < k; i++ {
		kNeighbors[i] = neighbors[i].index
	}

	return kNeighbors
}

func (knn *KNN) difference(j int, a, b float64) float64 {
	if data.IsMissing(a) || data.IsMissing(b) {
		return 1
	}
	if knn.train.Attributes[j].IsNominal() {
		if a == b {
			return 0
		}
		return 1
	}
	span := knn.maxs[j] - knn.mins[j]
	if span <= 0 || math.IsInf(span, 0) {
		return 0
	}
	return math.Min(math.Abs(a-b)/span, 1)
}

func (knn *KNN) calculateDistance(a, b []float64) float64 {
	sum := 0.0
	for j := range a {
		if j == knn.classIndex {
			continue
		}
		diff := knn.difference(j, a[j], b[j])
		if knn.Distance == "manhattan" {
			sum += diff
		} else {
			sum += diff * diff
		}
	}
	if knn.Distance == "manhattan" {
		return sum
	}
	return math.Sqrt(sum)
}

func (knn *KNN) calculateProbabilities(neighbors []int) []float64 {
	proba := make([]float64, knn.NumClasses())
	if len(neighbors) == 0 {
		for i := range proba {
			proba[i] = 1 / float64(len(proba))
		}
		return proba
	}

	for _, idx := range neighbors {
		proba[knn.labels[idx]]++
	}
	for i := range proba {
		proba[i] /= float64(len(neighbors))
	}
	return proba
}

func (knn *KNN) Reset() {
	knn.resetBase()
	knn.train = nil
	knn.labels = nil
	knn.mins = nil
	knn.maxs = nil
}
