package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/models"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/preprocessing"
)

// ModelFactory builds a fresh, unfitted model for every fold.
type ModelFactory func() (models.Model, error)

// FactoryFor returns a ModelFactory backed by models.CreateModel.
func FactoryFor(config models.ModelConfig) ModelFactory {
	return func() (models.Model, error) {
		return models.CreateModel(config)
	}
}

// FoldReport describes one finished fold.
type FoldReport struct {
	Fold     int
	NumFolds int
	Train    int
	Test     int
	Elapsed  time.Duration
}

type CrossValidator struct {
	NFolds     int
	Stratified bool
	RandomSeed int64
	MaxWorkers int

	// Pipeline, when set, builds filters that are fit on each training fold
	// and applied to both halves of that fold.
	Pipeline func() *preprocessing.Pipeline

	// OnFoldDone is called from the calling goroutine once per finished fold.
	OnFoldDone func(FoldReport)
}

func NewCrossValidator(nFolds int, seed int64) *CrossValidator {
	return &CrossValidator{
		NFolds:     nFolds,
		Stratified: true,
		RandomSeed: seed,
		MaxWorkers: 1,
	}
}

type foldOutcome struct {
	index   int
	train   *data.Dataset
	actual  []int
	dists   [][]float64
	elapsed time.Duration
	err     error
}

// CrossValidate runs k-fold cross-validation of the models built by factory
// on ds and scores them with positiveClass as the class of interest. Folds
// are merged in fold order regardless of MaxWorkers.
func (cv *CrossValidator) CrossValidate(ctx context.Context, factory ModelFactory, ds *data.Dataset, positiveClass int) (*Result, error) {
	start := time.Now()

	class := ds.ClassAttribute()
	if class == nil || !class.IsNominal() {
		return nil, failure.ModelError("cross-validate", fmt.Errorf("a nominal class attribute is required"))
	}

	folds, err := cv.KFoldSplit(ds)
	if err != nil {
		return nil, err
	}

	outcomes := make([]foldOutcome, len(folds))
	results := make(chan foldOutcome)

	workers := cv.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(folds) {
		workers = len(folds)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcome := cv.evaluateFold(ctx, factory, ds, folds[i])
				outcome.index = i
				select {
				case results <- outcome:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range folds {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	received := 0
	for outcome := range results {
		if outcome.err != nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cancel()
			return nil, failure.ModelError(fmt.Sprintf("fold %d", outcome.index+1), outcome.err)
		}
		outcomes[outcome.index] = outcome
		received++
		if cv.OnFoldDone != nil {
			cv.OnFoldDone(FoldReport{
				Fold:     outcome.index + 1,
				NumFolds: len(folds),
				Train:    outcome.train.NumRows(),
				Test:     len(outcome.actual),
				Elapsed:  outcome.elapsed,
			})
		}
	}
	if received < len(folds) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("cross-validation stopped after %d of %d folds", received, len(folds))
	}

	eval := NewEvaluation(class.Values)
	for _, outcome := range outcomes {
		eval.SetPriors(outcome.train)
		for i, actual := range outcome.actual {
			eval.Add(actual, outcome.dists[i])
		}
	}
	eval.SetElapsed(time.Since(start))

	result := eval.Result(positiveClass)
	result.NumFolds = len(folds)
	return result, nil
}

func (cv *CrossValidator) evaluateFold(ctx context.Context, factory ModelFactory, ds *data.Dataset, testIdx []int) foldOutcome {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return foldOutcome{err: err}
	}

	train := ds.Subset(trainIndices(ds.NumRows(), testIdx))
	test := ds.Subset(testIdx)
	// Taken before filtering so test rows with an unknown class stay ignored.
	actual := test.Labels()

	if cv.Pipeline != nil {
		pipeline := cv.Pipeline()
		var err error
		if train, err = pipeline.FitTransform(train); err != nil {
			return foldOutcome{err: err}
		}
		if test, err = pipeline.Transform(test); err != nil {
			return foldOutcome{err: err}
		}
	}

	model, err := factory()
	if err != nil {
		return foldOutcome{err: err}
	}
	if err := model.Fit(train); err != nil {
		return foldOutcome{err: err}
	}
	dists, err := model.PredictProba(test)
	if err != nil {
		return foldOutcome{err: err}
	}

	return foldOutcome{
		train:   train,
		actual:  actual,
		dists:   dists,
		elapsed: time.Since(start),
	}
}
