package preprocessing

import (
	"github.com/shopspring/decimal"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
)

// ReplaceMissingValues fills missing numeric cells with the attribute mean and
// missing nominal cells with the attribute mode, including the class column.
type ReplaceMissingValues struct {
	header *data.Dataset
	Fill   []float64
}

func NewReplaceMissingValues() *ReplaceMissingValues {
	return &ReplaceMissingValues{}
}

func (r *ReplaceMissingValues) Name() string {
	return "ReplaceMissingValues"
}

func (r *ReplaceMissingValues) Fit(ds *data.Dataset) error {
	if err := checkFittable(r.Name(), ds); err != nil {
		return err
	}

	r.Fill = make([]float64, ds.NumAttributes())
	for j, attr := range ds.Attributes {
		if attr.IsNominal() {
			r.Fill[j] = nominalMode(ds, j, attr.NumValues())
		} else {
			r.Fill[j] = numericMean(ds, j)
		}
	}
	r.header = ds.EmptyCopy()
	return nil
}

func (r *ReplaceMissingValues) Transform(ds *data.Dataset) (*data.Dataset, error) {
	if err := checkTransformable(r.Name(), r.header, ds); err != nil {
		return nil, err
	}

	out := ds.Copy()
	for _, row := range out.Rows {
		for j, v := range row {
			if data.IsMissing(v) {
				row[j] = r.Fill[j]
			}
		}
	}
	return out, nil
}

func (r *ReplaceMissingValues) FitTransform(ds *data.Dataset) (*data.Dataset, error) {
	if err := r.Fit(ds); err != nil {
		return nil, err
	}
	return r.Transform(ds)
}

// numericMean sums in decimal so the mean does not depend on row order. A column
// with no observed values is filled with 0.
func numericMean(ds *data.Dataset, col int) float64 {
	sum := decimal.Zero
	count := int64(0)
	for _, row := range ds.Rows {
		if data.IsMissing(row[col]) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(row[col]))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(count)).InexactFloat64()
}

// nominalMode returns the most frequent value index, the lowest index on ties.
// A column with no observed values falls back to its first value; an attribute
// that declares no values at all stays missing.
func nominalMode(ds *data.Dataset, col, numValues int) float64 {
	if numValues == 0 {
		return data.Missing()
	}
	counts := make([]int, numValues)
	for _, row := range ds.Rows {
		if data.IsMissing(row[col]) {
			continue
		}
		counts[int(row[col])]++
	}

	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return float64(best)
}
