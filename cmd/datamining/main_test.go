package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--folds", "5", "--seed", "9")
	require.NoError(t, err)

	assert.Contains(t, out, "folds: 5")
	assert.Contains(t, out, "seed: 9")
	assert.Contains(t, out, "path: data/adult.data")
	assert.Contains(t, out, "name: Decision Tree (J48)")
}

func TestEvaluateCommand(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		class := "no"
		if i%3 == 1 {
			class = "yes"
		}
		fmt.Fprintf(&b, "%d,%s,%s\n", i, []string{"a", "b", "?"}[i%3], class)
	}
	path := filepath.Join(t.TempDir(), "tiny.data")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	out, err := execute(t, "evaluate", "--data", path, "--folds", "5", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "===== Evaluating Model 1: Decision Tree (J48) =====")
	assert.Contains(t, out, "Precision (class 'yes'): ")
	assert.Contains(t, out, "Total time for 5-fold Cross-Validation: ")
}

func TestEvaluateMissingDataset(t *testing.T) {
	_, err := execute(t, "evaluate", "--data", filepath.Join(t.TempDir(), "absent.data"), "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, failure.IO, failure.KindOf(err))
	assert.Equal(t, 3, failure.ExitCode(err))
}

func TestInvalidConfigExitCode(t *testing.T) {
	_, err := execute(t, "config", "--folds", "1")
	require.Error(t, err)
	assert.Equal(t, 2, failure.ExitCode(err))
}

func TestBindFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("folds", 0, "")

	require.NoError(t, bindFlags(viper.New(), flags, map[string]string{"evaluation.folds": "folds"}))

	err := bindFlags(viper.New(), flags, map[string]string{"evaluation.folds": "fold"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"fold"`)
}
