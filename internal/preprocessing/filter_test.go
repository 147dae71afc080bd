package preprocessing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

const weather = `sunny, hot, high, 85, no
sunny, hot, high, ?, no
overcast, hot, high, 83, yes
rainy, mild, high, 70, yes
rainy, cool, normal, 68, yes
rainy, cool, normal, ?, no
overcast, cool, normal, 64, yes
?, mild, high, 72, no
`

func loadWeather(t *testing.T) *data.Dataset {
	t.Helper()
	ds, err := data.Load(strings.NewReader(weather), "weather", data.DefaultReaderOptions())
	require.NoError(t, err)
	return ds
}

func TestReplaceMissingValues(t *testing.T) {
	ds := loadWeather(t)
	require.Equal(t, 3, ds.CountMissing())

	f := NewReplaceMissingValues()
	out, err := f.FitTransform(ds)
	require.NoError(t, err)

	assert.Equal(t, ds.NumRows(), out.NumRows())
	assert.Equal(t, ds.NumAttributes(), out.NumAttributes())
	assert.Equal(t, 0, out.CountMissing())

	// mean of 85, 83, 70, 68, 64, 72
	assert.InDelta(t, 442.0/6.0, out.Rows[1][3], 1e-12)
	assert.InDelta(t, 442.0/6.0, out.Rows[5][3], 1e-12)
	// sunny 2, overcast 2, rainy 3
	assert.Equal(t, "rainy", out.ValueString(7, 0))

	// input untouched
	assert.Equal(t, 3, ds.CountMissing())
	assert.Equal(t, ds.Labels(), out.Labels())
}

func TestReplaceMissingValuesModeTieTakesFirstValue(t *testing.T) {
	ds, err := data.Load(strings.NewReader("a,x\nb,y\n?,x\n"), "tie", data.DefaultReaderOptions())
	require.NoError(t, err)

	out, err := NewReplaceMissingValues().FitTransform(ds)
	require.NoError(t, err)
	assert.Equal(t, "a", out.ValueString(2, 0))
}

func TestReplaceMissingValuesUnobservedNominal(t *testing.T) {
	ds := loadWeather(t)
	// the only row whose outlook is missing
	sub := ds.Subset([]int{7})
	require.Equal(t, 1, sub.CountMissing())

	out, err := NewReplaceMissingValues().FitTransform(sub)
	require.NoError(t, err)
	assert.Equal(t, 0, out.CountMissing())
	assert.Equal(t, "sunny", out.ValueString(0, 0))
}

func TestFilterRejectsReorderedNominalValues(t *testing.T) {
	fitted, err := data.Load(strings.NewReader("a,x\nb,y\n"), "fitted", data.DefaultReaderOptions())
	require.NoError(t, err)
	reordered, err := data.Load(strings.NewReader("b,x\na,y\n"), "reordered", data.DefaultReaderOptions())
	require.NoError(t, err)

	f := NewReplaceMissingValues()
	require.NoError(t, f.Fit(fitted))
	_, err = f.Transform(reordered)
	require.Error(t, err)
	assert.Equal(t, failure.Preprocess, failure.KindOf(err))
}

func TestNominalToBinary(t *testing.T) {
	ds := loadWeather(t)

	f := NewNominalToBinary(false)
	out, err := f.FitTransform(ds)
	require.NoError(t, err)

	// outlook(3) + temperature(3) + humidity(1) + numeric(1) + class(1)
	assert.Equal(t, 9, out.NumAttributes())
	assert.Equal(t, ds.NumRows(), out.NumRows())
	assert.Equal(t, 8, out.ClassIndex())
	assert.Equal(t, "att1=sunny", out.Attributes[0].Name)
	assert.Equal(t, "att3=normal", out.Attributes[6].Name)
	assert.Equal(t, data.Numeric, out.Attributes[6].Type)

	assert.Equal(t, []float64{1, 0, 0, 1, 0, 0, 0, 85, 0}, out.Rows[0])
	assert.Equal(t, []float64{0, 0, 1, 0, 0, 1, 1, 68, 1}, out.Rows[4])

	// class attribute keeps its values and row labels
	assert.Equal(t, ds.ClassAttribute().Values, out.ClassAttribute().Values)
	assert.True(t, out.ClassAttribute().IsNominal())
	assert.Equal(t, ds.Labels(), out.Labels())

	// missing nominal becomes missing indicators
	for k := 0; k < 3; k++ {
		assert.True(t, data.IsMissing(out.Rows[7][k]))
	}
}

func TestNominalToBinaryTransformAllValues(t *testing.T) {
	ds := loadWeather(t)

	out, err := NewNominalToBinary(true).FitTransform(ds)
	require.NoError(t, err)
	assert.Equal(t, 10, out.NumAttributes())
	assert.Equal(t, "att3=high", out.Attributes[6].Name)
	assert.Equal(t, "att3=normal", out.Attributes[7].Name)
}

func TestDefaultPipeline(t *testing.T) {
	ds := loadWeather(t)

	p := NewDefaultPipeline(PipelineOptions{ReplaceMissing: true, NominalToBinary: true})
	assert.Equal(t, []string{"ReplaceMissingValues", "NominalToBinary"}, p.Names())

	out, err := p.FitTransform(ds)
	require.NoError(t, err)
	assert.Equal(t, ds.NumRows(), out.NumRows())
	assert.Equal(t, 9, out.NumAttributes())
	assert.Equal(t, 0, out.CountMissing())

	// refit-free transform of a subset reuses the fitted statistics
	sub, err := p.Transform(ds.Subset([]int{1, 7}))
	require.NoError(t, err)
	assert.InDelta(t, 442.0/6.0, sub.Rows[0][7], 1e-12)
	assert.Equal(t, []float64{0, 0, 1}, sub.Rows[1][:3])
}

func TestFilterErrors(t *testing.T) {
	empty := data.NewDataset("empty", nil)
	_, err := NewReplaceMissingValues().FitTransform(empty)
	require.Error(t, err)
	assert.Equal(t, failure.Preprocess, failure.KindOf(err))

	noRows := loadWeather(t).EmptyCopy()
	_, err = NewNominalToBinary(false).FitTransform(noRows)
	require.Error(t, err)
	assert.Equal(t, failure.Preprocess, failure.KindOf(err))

	_, err = NewReplaceMissingValues().Transform(loadWeather(t))
	require.Error(t, err)
	assert.Equal(t, failure.Preprocess, failure.KindOf(err))

	f := NewReplaceMissingValues()
	require.NoError(t, f.Fit(loadWeather(t)))
	other, err := data.Load(strings.NewReader("1,a\n2,b\n"), "other", data.DefaultReaderOptions())
	require.NoError(t, err)
	_, err = f.Transform(other)
	assert.Error(t, err)
}

func TestScaler(t *testing.T) {
	X := [][]float64{{1, 10}, {2, 10}, {3, 10}}

	s := NewScaler("standard")
	out, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, out[0][0], 1e-12)
	assert.InDelta(t, 1.0, out[2][0], 1e-12)
	assert.InDelta(t, 0.0, out[1][1], 1e-12)

	mm := NewScaler("minmax")
	out, err = mm.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, []float64{out[0][0], out[1][0], out[2][0]})

	_, err = NewScaler("log").FitTransform(X)
	assert.Error(t, err)
	_, err = NewScaler("standard").Transform(X)
	assert.Error(t, err)
}
