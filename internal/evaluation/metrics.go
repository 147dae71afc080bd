package evaluation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

type ClassificationMetrics struct {
	Accuracy        float64        `json:"accuracy"`
	MacroPrecision  float64        `json:"macro_precision"`
	MacroRecall     float64        `json:"macro_recall"`
	MacroF1         float64        `json:"macro_f1"`
	WeightedF1      float64        `json:"weighted_f1"`
	PerClassMetrics []ClassMetrics `json:"per_class_metrics"`
	ConfusionMatrix [][]int        `json:"confusion_matrix"`
	NumSamples      int            `json:"num_samples"`
	NumClasses      int            `json:"num_classes"`
}

type ClassMetrics struct {
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	F1Score     float64 `json:"f1_score"`
	Specificity float64 `json:"specificity"`
	Support     int     `json:"support"`
}

// CalculateMetrics scores hard predictions against labels in [0, numClasses).
// Labels outside that range are ignored.
func CalculateMetrics(yTrue, yPred []int, numClasses int) (*ClassificationMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("length mismatch: %d labels, %d predictions", len(yTrue), len(yPred))
	}
	if numClasses < 1 {
		return nil, fmt.Errorf("number of classes must be positive, got %d", numClasses)
	}

	confusion := buildConfusionMatrix(yTrue, yPred, numClasses)

	perClass := make([]ClassMetrics, numClasses)
	var macroPrec, macroRec, macroF1, weightedF1 float64
	total, correct := 0, 0
	for i := range confusion {
		perClass[i] = classMetrics(confusion, i)
		macroPrec += perClass[i].Precision
		macroRec += perClass[i].Recall
		macroF1 += perClass[i].F1Score
		weightedF1 += perClass[i].F1Score * float64(perClass[i].Support)
		total += perClass[i].Support
		correct += confusion[i][i]
	}

	return &ClassificationMetrics{
		Accuracy:        safeDivide(float64(correct), float64(total)),
		MacroPrecision:  macroPrec / float64(numClasses),
		MacroRecall:     macroRec / float64(numClasses),
		MacroF1:         macroF1 / float64(numClasses),
		WeightedF1:      safeDivide(weightedF1, float64(total)),
		PerClassMetrics: perClass,
		ConfusionMatrix: confusion,
		NumSamples:      total,
		NumClasses:      numClasses,
	}, nil
}

func classMetrics(confusion [][]int, class int) ClassMetrics {
	tp := confusion[class][class]
	fp, fn, tn := 0, 0, 0
	support := 0
	for j := range confusion {
		support += confusion[class][j]
		if j == class {
			continue
		}
		fp += confusion[j][class]
		fn += confusion[class][j]
		for k := range confusion {
			if k != class {
				tn += confusion[j][k]
			}
		}
	}

	precision := safeDivide(float64(tp), float64(tp+fp))
	recall := safeDivide(float64(tp), float64(tp+fn))
	return ClassMetrics{
		Precision:   precision,
		Recall:      recall,
		F1Score:     safeDivide(2*precision*recall, precision+recall),
		Specificity: safeDivide(float64(tn), float64(tn+fp)),
		Support:     support,
	}
}

func buildConfusionMatrix(yTrue, yPred []int, numClasses int) [][]int {
	matrix := make([][]int, numClasses)
	for i := range matrix {
		matrix[i] = make([]int, numClasses)
	}

	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= numClasses || yPred[i] < 0 || yPred[i] >= numClasses {
			continue
		}
		matrix[yTrue[i]][yPred[i]]++
	}

	return matrix
}

// kappa is Cohen's kappa of a confusion matrix; 1 when chance agreement is total.
func kappa(confusion [][]int) float64 {
	n := len(confusion)
	rows := make([]float64, n)
	cols := make([]float64, n)
	total, agree := 0.0, 0.0
	for i := range confusion {
		for j, c := range confusion[i] {
			rows[i] += float64(c)
			cols[j] += float64(c)
			total += float64(c)
		}
		agree += float64(confusion[i][i])
	}
	if total == 0 {
		return 0
	}

	chance := 0.0
	for i := range rows {
		chance += rows[i] * cols[i]
	}
	chance /= total * total
	agree /= total
	if chance >= 1 {
		return 1
	}
	return (agree - chance) / (1 - chance)
}

// areaUnderROC integrates the ROC curve of scores against the positive flags.
// It is NaN unless both positives and negatives are present.
func areaUnderROC(scores []float64, positive []bool) float64 {
	pos, neg := 0, 0
	for _, p := range positive {
		if p {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return math.NaN()
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	y := make([]float64, len(order))
	classes := make([]bool, len(order))
	for i, idx := range order {
		y[i] = scores[idx]
		classes[i] = positive[idx]
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

func (m *ClassificationMetrics) FormatMetrics() string {
	result := fmt.Sprintf("Accuracy: %.4f\n", m.Accuracy)
	result += fmt.Sprintf("Macro Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.MacroPrecision, m.MacroRecall, m.MacroF1)
	result += fmt.Sprintf("Weighted F1: %.4f\n", m.WeightedF1)
	return result
}
