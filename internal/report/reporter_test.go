package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/evaluation"
)

func sampleResult() *evaluation.Result {
	return &evaluation.Result{
		NumFolds:      10,
		PctCorrect:    84.12345,
		PositiveLabel: ">50K",
		Precision:     0.7,
		Recall:        0.6,
		F1:            0.64615,
		AUC:           0.88,
		Elapsed:       1234 * time.Millisecond,
		Summary:       "Correctly Classified Instances  ...\n",
	}
}

func TestFormat(t *testing.T) {
	want := `--- Performance Metrics for J48 ---
Accuracy: 84.12%
Precision (class '>50K'): 0.7000
Recall (class '>50K'): 0.6000
F1-Score (class '>50K'): 0.6462
Area Under ROC (AUC): 0.8800

--- Time Measurement ---
Total time for 10-fold Cross-Validation: 1234 ms

--- Evaluation Summary ---
Correctly Classified Instances  ...
`
	assert.Equal(t, want, Format("J48", sampleResult()))
}

func TestFormatNaNAUC(t *testing.T) {
	r := sampleResult()
	r.AUC = math.NaN()
	r.Summary = "no newline"

	out := Format("Logistic", r)
	assert.Contains(t, out, "Area Under ROC (AUC): NaN\n")
	assert.Contains(t, out, "--- Evaluation Summary ---\nno newline\n")
}

func TestFixedRoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "84.13", fixed(84.125, 2))
	assert.Equal(t, "0.0000", fixed(0, 4))
	assert.Equal(t, "100.00", fixed(100, 2))
	assert.Equal(t, "Infinity", fixed(math.Inf(1), 4))
}

func TestReporterBanners(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.Status("Loading and preprocessing data...")
	r.Done("Data loaded and preprocessed successfully.")
	r.Separator()
	r.Header("Evaluating Model 1: Decision Tree (J48)")
	r.PrintModel("J48", sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Loading and preprocessing data...\nData loaded and preprocessed successfully.\n")
	assert.Contains(t, out, "--------------------------------------------------\n\n")
	assert.Contains(t, out, "===== Evaluating Model 1: Decision Tree (J48) =====\n")
	assert.Contains(t, out, Format("J48", sampleResult()))
}
