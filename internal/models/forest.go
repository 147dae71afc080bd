package models

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

// RandomForest bags unpruned C4.5 trees, each grown on a bootstrap sample over
// a random subset of the attributes. Class probabilities are the share of
// trees voting for each class.
type RandomForest struct {
	BaseModel
	NTrees      int
	MaxFeatures int
	MinNumObj   int
	Seed        int64
	MaxWorkers  int

	Trees []*DecisionTree
	// FeatureIndices holds, per tree, the source columns it was grown on.
	FeatureIndices [][]int
}

func NewRandomForest(nTrees, maxFeatures, minNumObj int, seed int64) *RandomForest {
	if nTrees <= 0 {
		nTrees = 10
	}
	if minNumObj <= 0 {
		minNumObj = 1
	}

	return &RandomForest{
		NTrees:      nTrees,
		MaxFeatures: maxFeatures,
		MinNumObj:   minNumObj,
		Seed:        seed,
		MaxWorkers:  4,
		BaseModel: BaseModel{
			Name: "RandomForest",
			Params: map[string]any{
				"n_trees":      nTrees,
				"max_features": maxFeatures,
				"min_num_obj":  minNumObj,
				"seed":         seed,
			},
		},
	}
}

func (rf *RandomForest) Fit(ds *data.Dataset) error {
	if err := rf.prepareFit(ds); err != nil {
		return err
	}

	labeled := make([]int, 0, ds.NumRows())
	for i, label := range ds.Labels() {
		if label >= 0 {
			labeled = append(labeled, i)
		}
	}
	if len(labeled) == 0 {
		return failure.ModelError("RandomForest fit", fmt.Errorf("no training rows with a known class"))
	}

	features := featureColumns(ds)
	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(len(features))))
	}
	maxFeatures = min(max(1, maxFeatures), len(features))

	rf.Trees = make([]*DecisionTree, rf.NTrees)
	rf.FeatureIndices = make([][]int, rf.NTrees)
	errs := make([]error, rf.NTrees)

	workers := max(1, min(rf.MaxWorkers, rf.NTrees))
	jobs := make(chan int, rf.NTrees)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rf.Trees[i], rf.FeatureIndices[i], errs[i] = rf.trainSingleTree(ds, labeled, features, maxFeatures, rf.Seed+int64(i))
			}
		}()
	}
	for i := 0; i < rf.NTrees; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			rf.Trees = nil
			rf.FeatureIndices = nil
			return failure.ModelError("RandomForest fit", fmt.Errorf("tree %d training failed: %w", i, err))
		}
	}
	return nil
}

func (rf *RandomForest) trainSingleTree(ds *data.Dataset, labeled, features []int, maxFeatures int, seed int64) (*DecisionTree, []int, error) {
	r := rand.New(rand.NewSource(seed))

	boot := make([]int, len(labeled))
	for i := range boot {
		boot[i] = labeled[r.Intn(len(labeled))]
	}

	selected := selectRandomFeatures(features, maxFeatures, r)
	sample, err := projectColumns(ds.Subset(boot), selected)
	if err != nil {
		return nil, nil, err
	}

	tree := NewDecisionTree(0.25, rf.MinNumObj, true)
	if err := tree.Fit(sample); err != nil {
		return nil, nil, err
	}
	return tree, selected, nil
}

// selectRandomFeatures draws k columns without replacement, keeping their
// original order.
func selectRandomFeatures(features []int, k int, r *rand.Rand) []int {
	shuffled := append([]int(nil), features...)
	for i := 0; i < k; i++ {
		j := i + r.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	picked := make(map[int]bool, k)
	for _, col := range shuffled[:k] {
		picked[col] = true
	}

	selected := make([]int, 0, k)
	for _, col := range features {
		if picked[col] {
			selected = append(selected, col)
		}
	}
	return selected
}

// projectColumns keeps the given feature columns and appends the class column.
func projectColumns(ds *data.Dataset, cols []int) (*data.Dataset, error) {
	attrs := make([]*data.Attribute, 0, len(cols)+1)
	for _, col := range cols {
		attrs = append(attrs, ds.Attributes[col])
	}
	attrs = append(attrs, ds.ClassAttribute())

	out := data.NewDataset(ds.Relation, attrs)
	if err := out.SetClassIndex(len(cols)); err != nil {
		return nil, err
	}
	out.Rows = make([][]float64, ds.NumRows())
	for i, row := range ds.Rows {
		projected := make([]float64, 0, len(cols)+1)
		for _, col := range cols {
			projected = append(projected, row[col])
		}
		out.Rows[i] = append(projected, row[ds.ClassIndex()])
	}
	return out, nil
}

func (rf *RandomForest) PredictProba(ds *data.Dataset) ([][]float64, error) {
	if err := rf.checkPredict(ds); err != nil {
		return nil, err
	}

	proba := make([][]float64, ds.NumRows())
	for i := range proba {
		proba[i] = make([]float64, rf.NumClasses())
	}

	for t, tree := range rf.Trees {
		sample, err := projectColumns(ds, rf.FeatureIndices[t])
		if err != nil {
			return nil, failure.ModelError("RandomForest predict", err)
		}
		votes, err := tree.Predict(sample)
		if err != nil {
			return nil, err
		}
		for i, class := range votes {
			proba[i][class]++
		}
	}

	for _, dist := range proba {
		normalize(dist)
	}
	return proba, nil
}

func (rf *RandomForest) Predict(ds *data.Dataset) ([]int, error) {
	proba, err := rf.PredictProba(ds)
	if err != nil {
		return nil, err
	}
	return predictFromProba(proba), nil
}

func (rf *RandomForest) Reset() {
	rf.resetBase()
	rf.Trees = nil
	rf.FeatureIndices = nil
}
