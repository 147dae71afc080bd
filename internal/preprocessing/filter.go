package preprocessing

import (
	"fmt"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

// Filter is fitted once on a dataset and then applied to datasets sharing its header.
type Filter interface {
	Name() string
	Fit(ds *data.Dataset) error
	Transform(ds *data.Dataset) (*data.Dataset, error)
	FitTransform(ds *data.Dataset) (*data.Dataset, error)
}

func checkFittable(name string, ds *data.Dataset) error {
	if ds == nil || ds.NumAttributes() == 0 {
		return failure.PreprocessError(name+" fit", fmt.Errorf("dataset has no attributes"))
	}
	if ds.NumRows() == 0 {
		return failure.PreprocessError(name+" fit", fmt.Errorf("dataset has no rows"))
	}
	return nil
}

func checkTransformable(name string, fitted, ds *data.Dataset) error {
	if fitted == nil {
		return failure.PreprocessError(name+" transform", fmt.Errorf("%s must be fitted before transform", name))
	}
	if !fitted.SameHeader(ds) {
		return failure.PreprocessError(name+" transform", fmt.Errorf("dataset header does not match the fitted one"))
	}
	return nil
}

// Pipeline applies filters in order, each fitted on the output of the previous one.
type Pipeline struct {
	Filters []Filter
}

func NewPipeline(filters ...Filter) *Pipeline {
	return &Pipeline{Filters: filters}
}

type PipelineOptions struct {
	ReplaceMissing     bool
	NominalToBinary    bool
	TransformAllValues bool
}

// NewDefaultPipeline builds missing-value replacement followed by nominal-to-binary encoding.
func NewDefaultPipeline(opts PipelineOptions) *Pipeline {
	var filters []Filter
	if opts.ReplaceMissing {
		filters = append(filters, NewReplaceMissingValues())
	}
	if opts.NominalToBinary {
		filters = append(filters, NewNominalToBinary(opts.TransformAllValues))
	}
	return NewPipeline(filters...)
}

func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Filters))
	for i, f := range p.Filters {
		names[i] = f.Name()
	}
	return names
}

func (p *Pipeline) FitTransform(ds *data.Dataset) (*data.Dataset, error) {
	if err := checkFittable("pipeline", ds); err != nil {
		return nil, err
	}
	current := ds
	for _, f := range p.Filters {
		next, err := f.FitTransform(current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// Transform applies already fitted filters.
func (p *Pipeline) Transform(ds *data.Dataset) (*data.Dataset, error) {
	current := ds
	for _, f := range p.Filters {
		next, err := f.Transform(current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}
