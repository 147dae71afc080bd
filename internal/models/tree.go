package models

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

type TreeNode struct {
	IsLeaf bool
	Class  int
	// Counts holds the training class weights that reached the node.
	Counts []float64
	// Probs is the leaf distribution; empty leaves inherit their parent's.
	Probs []float64

	Feature       int
	Nominal       bool
	Threshold     float64
	Children      []*TreeNode
	BranchWeights []float64
}

func (n *TreeNode) weight() float64 {
	return floats.Sum(n.Counts)
}

func (n *TreeNode) trainingErrors() float64 {
	if n.IsLeaf {
		return n.weight() - floats.Max(n.Counts)
	}
	errors := 0.0
	for _, child := range n.Children {
		errors += child.trainingErrors()
	}
	return errors
}

func (n *TreeNode) makeLeaf() {
	n.IsLeaf = true
	n.Children = nil
	n.BranchWeights = nil
	n.Probs = append([]float64(nil), n.Counts...)
	normalize(n.Probs)
}

func (n *TreeNode) branch(v float64) int {
	if n.Nominal {
		b := int(v)
		if b < 0 || b >= len(n.Children) {
			return -1
		}
		return b
	}
	if v <= n.Threshold {
		return 0
	}
	return 1
}

// DecisionTree is a C4.5 tree: gain-ratio splits, fractional instances for
// missing values, and error-based pruning governed by ConfidenceFactor.
type DecisionTree struct {
	BaseModel
	Root             *TreeNode
	ConfidenceFactor float64
	MinNumObj        int
	Unpruned         bool
	// SubtreeRaising lets pruning replace a node by its largest branch.
	SubtreeRaising bool

	numClasses int
	classIndex int
	attrs      []*data.Attribute
}

func NewDecisionTree(confidenceFactor float64, minNumObj int, unpruned bool) *DecisionTree {
	if confidenceFactor <= 0 || confidenceFactor > 0.5 {
		confidenceFactor = 0.25
	}

	if minNumObj <= 0 {
		minNumObj = 2
	}

	return &DecisionTree{
		ConfidenceFactor: confidenceFactor,
		MinNumObj:        minNumObj,
		Unpruned:         unpruned,
		SubtreeRaising:   true,
		BaseModel: BaseModel{
			Name: "J48",
			Params: map[string]any{
				"confidence_factor": confidenceFactor,
				"min_num_obj":       minNumObj,
				"unpruned":          unpruned,
				"subtree_raising":   true,
			},
		},
	}
}

type instance struct {
	row    []float64
	label  int
	weight float64
}

type splitCandidate struct {
	feature   int
	nominal   bool
	threshold float64
	gain      float64
	gainRatio float64
	valid     bool
}

func (dt *DecisionTree) Fit(ds *data.Dataset) error {
	if err := dt.prepareFit(ds); err != nil {
		return err
	}

	dt.numClasses = ds.NumClasses()
	dt.classIndex = ds.ClassIndex()
	dt.attrs = ds.Attributes

	insts := make([]instance, 0, ds.NumRows())
	for i, label := range ds.Labels() {
		if label < 0 {
			continue
		}
		insts = append(insts, instance{row: ds.Rows[i], label: label, weight: 1})
	}
	if len(insts) == 0 {
		return failure.ModelError("J48 fit", fmt.Errorf("no training rows with a known class"))
	}

	dt.Root = dt.buildTree(insts)
	if !dt.Unpruned {
		dt.prune(dt.Root, insts)
	}
	dt.attrs = nil
	return nil
}

func (dt *DecisionTree) classCounts(insts []instance) []float64 {
	counts := make([]float64, dt.numClasses)
	for _, in := range insts {
		counts[in.label] += in.weight
	}
	return counts
}

func (dt *DecisionTree) buildTree(insts []instance) *TreeNode {
	node := &TreeNode{Counts: dt.classCounts(insts)}
	node.Class = argmax(node.Counts)

	total := node.weight()
	if total < 2*float64(dt.MinNumObj) || floats.Max(node.Counts) == total {
		node.makeLeaf()
		return node
	}

	best := dt.selectSplit(insts, total)
	if !best.valid {
		node.makeLeaf()
		return node
	}

	node.Feature = best.feature
	node.Nominal = best.nominal
	node.Threshold = best.threshold

	subsets, branchWeights := dt.partition(node, insts)
	node.BranchWeights = branchWeights
	node.Children = make([]*TreeNode, len(subsets))
	for b, subset := range subsets {
		if len(subset) == 0 {
			node.Children[b] = &TreeNode{
				IsLeaf: true,
				Class:  node.Class,
				Counts: make([]float64, dt.numClasses),
				Probs:  normalized(node.Counts),
			}
			continue
		}
		node.Children[b] = dt.buildTree(subset)
	}

	// collapse splits that do not reduce training error
	leafErrors := total - floats.Max(node.Counts)
	if node.trainingErrors() >= leafErrors-1e-3 {
		node.makeLeaf()
	}

	return node
}

// selectSplit follows C4.5: among valid splits whose information gain reaches
// the average, take the one with the highest gain ratio.
func (dt *DecisionTree) selectSplit(insts []instance, total float64) splitCandidate {
	var candidates []splitCandidate
	sumGain := 0.0

	for j, attr := range dt.attrs {
		if j == dt.classIndex {
			continue
		}
		var c splitCandidate
		if attr.IsNominal() {
			c = dt.nominalSplit(insts, j, attr.NumValues(), total)
		} else {
			c = dt.numericSplit(insts, j, total)
		}
		if c.valid {
			candidates = append(candidates, c)
			sumGain += c.gain
		}
	}

	if len(candidates) == 0 {
		return splitCandidate{}
	}

	avgGain := sumGain / float64(len(candidates))
	best := splitCandidate{}
	for _, c := range candidates {
		if c.gain >= avgGain-1e-3 && (!best.valid || c.gainRatio > best.gainRatio) {
			best = c
		}
	}
	return best
}

func (dt *DecisionTree) nominalSplit(insts []instance, feature, numValues int, total float64) splitCandidate {
	if numValues < 2 {
		return splitCandidate{}
	}

	bags := make([][]float64, numValues)
	for b := range bags {
		bags[b] = make([]float64, dt.numClasses)
	}
	known := make([]float64, dt.numClasses)
	for _, in := range insts {
		v := in.row[feature]
		if data.IsMissing(v) {
			continue
		}
		bags[int(v)][in.label] += in.weight
		known[in.label] += in.weight
	}

	enough := 0
	for _, bag := range bags {
		if floats.Sum(bag) >= float64(dt.MinNumObj) {
			enough++
		}
	}
	if enough < 2 {
		return splitCandidate{}
	}

	gain := infoGain(known, bags, total)
	if gain <= 1e-6 {
		return splitCandidate{}
	}
	ratio, ok := gainRatio(gain, bags, total)
	if !ok {
		return splitCandidate{}
	}

	return splitCandidate{feature: feature, nominal: true, gain: gain, gainRatio: ratio, valid: true}
}

func (dt *DecisionTree) numericSplit(insts []instance, feature int, total float64) splitCandidate {
	known := make([]instance, 0, len(insts))
	for _, in := range insts {
		if !data.IsMissing(in.row[feature]) {
			known = append(known, in)
		}
	}
	if len(known) < 2 {
		return splitCandidate{}
	}
	sort.SliceStable(known, func(a, b int) bool {
		return known[a].row[feature] < known[b].row[feature]
	})

	knownDist := dt.classCounts(known)
	knownWeight := floats.Sum(knownDist)

	minSplit := 0.1 * knownWeight / float64(dt.numClasses)
	if minSplit <= float64(dt.MinNumObj) {
		minSplit = float64(dt.MinNumObj)
	} else if minSplit > 25 {
		minSplit = 25
	}
	if knownWeight < 2*minSplit {
		return splitCandidate{}
	}

	left := make([]float64, dt.numClasses)
	right := append([]float64(nil), knownDist...)
	bags := [][]float64{left, right}
	leftWeight := 0.0

	bestGain := math.Inf(-1)
	bestIndex := -1
	numSplits := 0

	for i := 0; i < len(known)-1; i++ {
		in := known[i]
		left[in.label] += in.weight
		right[in.label] -= in.weight
		leftWeight += in.weight

		if known[i].row[feature]+1e-5 >= known[i+1].row[feature] {
			continue
		}
		if leftWeight < minSplit || knownWeight-leftWeight < minSplit {
			continue
		}
		numSplits++
		gain := infoGain(knownDist, bags, total)
		if gain > bestGain {
			bestGain = gain
			bestIndex = i
		}
	}

	if bestIndex < 0 {
		return splitCandidate{}
	}

	threshold := known[bestIndex].row[feature]
	finalBags := [][]float64{make([]float64, dt.numClasses), make([]float64, dt.numClasses)}
	for _, in := range known {
		if in.row[feature] <= threshold {
			finalBags[0][in.label] += in.weight
		} else {
			finalBags[1][in.label] += in.weight
		}
	}

	gain := bestGain - math.Log2(float64(numSplits))/knownWeight
	if gain <= 0 {
		return splitCandidate{}
	}
	ratio, ok := gainRatio(gain, finalBags, total)
	if !ok {
		return splitCandidate{}
	}

	return splitCandidate{feature: feature, threshold: threshold, gain: gain, gainRatio: ratio, valid: true}
}

// partition sends each instance down its branch; instances missing the split
// value go down every branch with weight proportional to the branch size.
func (dt *DecisionTree) partition(node *TreeNode, insts []instance) ([][]instance, []float64) {
	numBranches := 2
	if node.Nominal {
		numBranches = dt.attrs[node.Feature].NumValues()
	}

	subsets := make([][]instance, numBranches)
	branchWeights := make([]float64, numBranches)
	var unknown []instance

	for _, in := range insts {
		v := in.row[node.Feature]
		if data.IsMissing(v) {
			unknown = append(unknown, in)
			continue
		}
		b := node.branch(v)
		subsets[b] = append(subsets[b], in)
		branchWeights[b] += in.weight
	}

	normalize(branchWeights)
	for _, in := range unknown {
		for b, w := range branchWeights {
			if w > 0 {
				subsets[b] = append(subsets[b], instance{row: in.row, label: in.label, weight: in.weight * w})
			}
		}
	}

	return subsets, branchWeights
}

// prune works bottom-up over the instances that reach each node. A node becomes
// a leaf when that is no worse than keeping it; otherwise, with subtree raising,
// its largest branch replaces it when that branch does no worse on all of the
// node's instances.
func (dt *DecisionTree) prune(node *TreeNode, insts []instance) {
	if node.IsLeaf {
		return
	}
	subsets, _ := dt.partition(node, insts)
	for b, child := range node.Children {
		dt.prune(child, subsets[b])
	}

	largest := argmax(node.BranchWeights)
	errorsLargest := math.Inf(1)
	if dt.SubtreeRaising {
		errorsLargest = dt.branchErrors(node.Children[largest], insts)
	}
	errorsLeaf := distributionErrors(node.Counts, dt.ConfidenceFactor)
	errorsTree := dt.estimatedErrors(node)

	switch {
	case errorsLeaf <= errorsTree+0.1 && errorsLeaf <= errorsLargest+0.1:
		node.makeLeaf()
	case errorsLargest <= errorsTree+0.1:
		parentProbs := normalized(node.Counts)
		*node = *node.Children[largest]
		dt.redistribute(node, insts, parentProbs)
		dt.prune(node, insts)
	}
}

// branchErrors estimates the errors of the subtree at node if insts reached it.
func (dt *DecisionTree) branchErrors(node *TreeNode, insts []instance) float64 {
	if node.IsLeaf {
		return distributionErrors(dt.classCounts(insts), dt.ConfidenceFactor)
	}
	subsets, _ := dt.partition(node, insts)
	sum := 0.0
	for b, child := range node.Children {
		sum += dt.branchErrors(child, subsets[b])
	}
	return sum
}

// redistribute recomputes the class and branch weights of a raised subtree
// from the instances that now reach it.
func (dt *DecisionTree) redistribute(node *TreeNode, insts []instance, parentProbs []float64) {
	node.Counts = dt.classCounts(insts)
	total := node.weight()
	if total > 0 {
		node.Class = argmax(node.Counts)
	}

	if node.IsLeaf {
		if total > 0 {
			node.Probs = normalized(node.Counts)
		} else {
			node.Probs = append([]float64(nil), parentProbs...)
		}
		return
	}

	subsets, branchWeights := dt.partition(node, insts)
	node.BranchWeights = branchWeights
	probs := parentProbs
	if total > 0 {
		probs = normalized(node.Counts)
	}
	for b, child := range node.Children {
		dt.redistribute(child, subsets[b], probs)
	}
}

func (dt *DecisionTree) estimatedErrors(node *TreeNode) float64 {
	if node.IsLeaf {
		return distributionErrors(node.Counts, dt.ConfidenceFactor)
	}
	sum := 0.0
	for _, child := range node.Children {
		sum += dt.estimatedErrors(child)
	}
	return sum
}

// distributionErrors is the pessimistic error estimate of a leaf holding counts.
func distributionErrors(counts []float64, cf float64) float64 {
	total := floats.Sum(counts)
	if total == 0 {
		return 0
	}
	errors := total - floats.Max(counts)
	return errors + addErrs(total, errors, cf)
}

// addErrs is the C4.5 pessimistic estimate of extra errors on n instances
// with e observed errors at confidence cf.
func addErrs(n, e, cf float64) float64 {
	if n <= 0 {
		return 0
	}
	if e < 1 {
		base := n * (1 - math.Pow(cf, 1/n))
		if e == 0 {
			return base
		}
		return base + e*(addErrs(n, 1, cf)-base)
	}
	if e+0.5 >= n {
		return math.Max(n-e, 0)
	}

	z := distuv.UnitNormal.Quantile(1 - cf)
	f := (e + 0.5) / n
	r := (f + z*z/(2*n) + z*math.Sqrt(f/n-f*f/n+z*z/(4*n*n))) / (1 + z*z/n)
	return r*n - e
}

func entropy(counts []float64) float64 {
	total := floats.Sum(counts)
	if total <= 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c > 0 {
			p := c / total
			h -= p * math.Log2(p)
		}
	}
	return h
}

// infoGain is the gain over known values, scaled by the fraction of known weight.
func infoGain(known []float64, bags [][]float64, total float64) float64 {
	knownWeight := floats.Sum(known)
	if knownWeight <= 0 {
		return 0
	}
	after := 0.0
	for _, bag := range bags {
		w := floats.Sum(bag)
		if w > 0 {
			after += w / knownWeight * entropy(bag)
		}
	}
	return knownWeight / total * (entropy(known) - after)
}

func gainRatio(gain float64, bags [][]float64, total float64) (float64, bool) {
	split := 0.0
	knownWeight := 0.0
	for _, bag := range bags {
		w := floats.Sum(bag)
		knownWeight += w
		if w > 0 {
			p := w / total
			split -= p * math.Log2(p)
		}
	}
	if unknown := total - knownWeight; unknown > 1e-9 {
		p := unknown / total
		split -= p * math.Log2(p)
	}
	if split <= 1e-9 {
		return 0, false
	}
	return gain / split, true
}

func normalized(counts []float64) []float64 {
	out := append([]float64(nil), counts...)
	normalize(out)
	return out
}

func (dt *DecisionTree) PredictProba(ds *data.Dataset) ([][]float64, error) {
	if err := dt.checkPredict(ds); err != nil {
		return nil, err
	}

	proba := make([][]float64, ds.NumRows())
	for i, row := range ds.Rows {
		proba[i] = dt.distribution(dt.Root, row)
	}
	return proba, nil
}

func (dt *DecisionTree) distribution(node *TreeNode, row []float64) []float64 {
	if node.IsLeaf {
		return append([]float64(nil), node.Probs...)
	}

	v := row[node.Feature]
	b := -1
	if !data.IsMissing(v) {
		b = node.branch(v)
	}
	if b >= 0 {
		return dt.distribution(node.Children[b], row)
	}

	out := make([]float64, dt.numClasses)
	for k, child := range node.Children {
		if node.BranchWeights[k] > 0 {
			floats.AddScaled(out, node.BranchWeights[k], dt.distribution(child, row))
		}
	}
	return out
}

func (dt *DecisionTree) Predict(ds *data.Dataset) ([]int, error) {
	proba, err := dt.PredictProba(ds)
	if err != nil {
		return nil, err
	}
	return predictFromProba(proba), nil
}

func (dt *DecisionTree) Reset() {
	dt.resetBase()
	dt.Root = nil
}

func (dt *DecisionTree) NumLeaves() int {
	return countNodes(dt.Root, true)
}

func (dt *DecisionTree) Size() int {
	return countNodes(dt.Root, false)
}

func countNodes(node *TreeNode, leavesOnly bool) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return 1
	}
	n := 0
	if !leavesOnly {
		n = 1
	}
	for _, child := range node.Children {
		n += countNodes(child, leavesOnly)
	}
	return n
}
