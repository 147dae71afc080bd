package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/evaluation"
)

const separatorWidth = 50

// Reporter writes progress lines and per-model metric blocks. Colour is
// dropped automatically when Out is not a terminal.
type Reporter struct {
	Out io.Writer

	green func(a ...any) string
	cyan  func(a ...any) string
	blue  func(a ...any) string
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		Out:   out,
		green: color.New(color.FgGreen).SprintFunc(),
		cyan:  color.New(color.FgCyan).SprintFunc(),
		blue:  color.New(color.FgBlue).SprintFunc(),
	}
}

// Status prints a plain progress line.
func (r *Reporter) Status(msg string) {
	fmt.Fprintln(r.Out, msg)
}

// Done prints a success line.
func (r *Reporter) Done(msg string) {
	fmt.Fprintln(r.Out, r.green(msg))
}

// Header prints "===== title =====".
func (r *Reporter) Header(title string) {
	fmt.Fprintln(r.Out, r.cyan("===== "+title+" ====="))
}

// Separator prints a dashed rule followed by a blank line.
func (r *Reporter) Separator() {
	fmt.Fprintln(r.Out, strings.Repeat("-", separatorWidth))
	fmt.Fprintln(r.Out)
}

func (r *Reporter) PrintModel(name string, result *evaluation.Result) {
	block := Format(name, result)
	title, rest, _ := strings.Cut(block, "\n")
	fmt.Fprintln(r.Out, r.blue(title))
	fmt.Fprint(r.Out, rest)
}

// Format renders the metric block for one model without colour.
func Format(name string, result *evaluation.Result) string {
	var b strings.Builder
	label := result.PositiveLabel

	fmt.Fprintf(&b, "--- Performance Metrics for %s ---\n", name)
	fmt.Fprintf(&b, "Accuracy: %s%%\n", fixed(result.PctCorrect, 2))
	fmt.Fprintf(&b, "Precision (class '%s'): %s\n", label, fixed(result.Precision, 4))
	fmt.Fprintf(&b, "Recall (class '%s'): %s\n", label, fixed(result.Recall, 4))
	fmt.Fprintf(&b, "F1-Score (class '%s'): %s\n", label, fixed(result.F1, 4))
	fmt.Fprintf(&b, "Area Under ROC (AUC): %s\n", fixed(result.AUC, 4))

	b.WriteString("\n--- Time Measurement ---\n")
	fmt.Fprintf(&b, "Total time for %d-fold Cross-Validation: %d ms\n",
		result.NumFolds, result.Elapsed.Milliseconds())

	b.WriteString("\n--- Evaluation Summary ---\n")
	b.WriteString(result.Summary)
	if !strings.HasSuffix(result.Summary, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// fixed rounds half away from zero to places decimals. NaN and infinities
// are spelled out.
func fixed(v float64, places int32) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
