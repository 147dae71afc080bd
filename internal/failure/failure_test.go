package failure

import (
	"fmt"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
		code int
	}{
		{name: "config", err: ConfigError("validate", errors.New("folds must be >= 2")), want: Config, code: 2},
		{name: "io", err: IOError("open", os.ErrNotExist), want: IO, code: 3},
		{name: "preprocess", err: PreprocessError("fit", errors.New("empty dataset")), want: Preprocess, code: 4},
		{name: "model", err: ModelError("fit", errors.New("numeric class")), want: Model, code: 5},
		{name: "plain", err: errors.New("boom"), want: Unknown, code: 1},
		{name: "wrapped", err: fmt.Errorf("fold 3: %w", ModelError("fit", errors.New("x"))), want: Model, code: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
			assert.Equal(t, tt.code, ExitCode(tt.err))
		})
	}
	assert.Equal(t, 0, ExitCode(nil))
}

func TestWrapKeepsFirstKind(t *testing.T) {
	inner := IOError("read", os.ErrPermission)
	outer := ModelError("evaluate", inner)
	assert.Equal(t, IO, KindOf(outer))
	assert.True(t, errors.Is(outer, os.ErrPermission))
	assert.Nil(t, ModelError("noop", nil))
}

func TestFormatIncludesStack(t *testing.T) {
	err := IOError("open data/adult.data", os.ErrNotExist)
	require.Error(t, err)

	assert.Equal(t, "io error: open data/adult.data: file does not exist", err.Error())
	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "io error: open data/adult.data")
	assert.Contains(t, verbose, "failure_test.go")
}
