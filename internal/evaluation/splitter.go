package evaluation

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

// KFoldSplit returns the test indices of each fold. Rows are shuffled with
// the seed, grouped by class and dealt out with step k when stratified, then
// cut into k contiguous folds; the first n mod k folds get one extra row.
func (cv *CrossValidator) KFoldSplit(ds *data.Dataset) ([][]int, error) {
	n := ds.NumRows()
	k := cv.NFolds
	if k < 2 || k > n {
		return nil, failure.ConfigError("k-fold split",
			fmt.Errorf("invalid number of folds: %d (must be between 2 and %d)", k, n))
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	rng := rand.New(rand.NewSource(cv.RandomSeed))
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	if cv.Stratified && ds.ClassAttribute() != nil && ds.ClassAttribute().IsNominal() {
		indices = stratify(indices, ds.Labels(), k)
	}

	folds := make([][]int, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		folds[f] = append([]int(nil), indices[start:start+size]...)
		start += size
	}

	return folds, nil
}

// stratify orders indices by class, rows with a missing class last, and
// interleaves them so each contiguous fold sees every class.
func stratify(indices []int, labels []int, k int) []int {
	sorted := append([]int(nil), indices...)
	sort.SliceStable(sorted, func(a, b int) bool {
		la, lb := labels[sorted[a]], labels[sorted[b]]
		if la < 0 {
			return false
		}
		if lb < 0 {
			return true
		}
		return la < lb
	})

	out := make([]int, 0, len(sorted))
	for start := 0; start < k && start < len(sorted); start++ {
		for j := start; j < len(sorted); j += k {
			out = append(out, sorted[j])
		}
	}
	return out
}

// trainIndices returns every row index not in test, in ascending order.
func trainIndices(n int, test []int) []int {
	inTest := make([]bool, n)
	for _, idx := range test {
		inTest[idx] = true
	}

	train := make([]int, 0, n-len(test))
	for i := 0; i < n; i++ {
		if !inTest[i] {
			train = append(train, i)
		}
	}
	return train
}
