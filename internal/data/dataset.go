package data

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

type AttributeType int

const (
	Numeric AttributeType = iota
	Nominal
)

func (t AttributeType) String() string {
	if t == Nominal {
		return "nominal"
	}
	return "numeric"
}

// Attribute describes one column. Nominal values keep the order in which
// they were first seen; a nominal cell stores the index into Values.
type Attribute struct {
	Name   string
	Type   AttributeType
	Values []string
	index  map[string]int
}

func NewNumericAttribute(name string) *Attribute {
	return &Attribute{Name: name, Type: Numeric}
}

func NewNominalAttribute(name string, values []string) *Attribute {
	a := &Attribute{Name: name, Type: Nominal, index: make(map[string]int)}
	for _, v := range values {
		a.AddValue(v)
	}
	return a
}

func (a *Attribute) IsNominal() bool {
	return a.Type == Nominal
}

func (a *Attribute) NumValues() int {
	return len(a.Values)
}

// AddValue registers v if it is new and returns its index.
func (a *Attribute) AddValue(v string) int {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if idx, ok := a.index[v]; ok {
		return idx
	}
	a.index[v] = len(a.Values)
	a.Values = append(a.Values, v)
	return len(a.Values) - 1
}

func (a *Attribute) IndexOf(v string) (int, bool) {
	idx, ok := a.index[v]
	return idx, ok
}

func (a *Attribute) clone() *Attribute {
	if a.Type == Numeric {
		return NewNumericAttribute(a.Name)
	}
	return NewNominalAttribute(a.Name, a.Values)
}

// Dataset is an in-memory table. Missing cells hold NaN.
type Dataset struct {
	Relation   string
	Attributes []*Attribute
	Rows       [][]float64
	classIndex int
}

func NewDataset(relation string, attrs []*Attribute) *Dataset {
	return &Dataset{
		Relation:   relation,
		Attributes: attrs,
		classIndex: -1,
	}
}

func Missing() float64 {
	return math.NaN()
}

func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

func (ds *Dataset) NumAttributes() int {
	return len(ds.Attributes)
}

func (ds *Dataset) NumRows() int {
	return len(ds.Rows)
}

func (ds *Dataset) ClassIndex() int {
	return ds.classIndex
}

func (ds *Dataset) SetClassIndex(idx int) error {
	if idx < -1 || idx >= len(ds.Attributes) {
		return fmt.Errorf("class index %d out of range [0, %d)", idx, len(ds.Attributes))
	}
	ds.classIndex = idx
	return nil
}

func (ds *Dataset) ClassAttribute() *Attribute {
	if ds.classIndex < 0 {
		return nil
	}
	return ds.Attributes[ds.classIndex]
}

// NumClasses is the number of class values, or 0 when the class is unset or numeric.
func (ds *Dataset) NumClasses() int {
	class := ds.ClassAttribute()
	if class == nil || !class.IsNominal() {
		return 0
	}
	return class.NumValues()
}

func (ds *Dataset) ClassValue(row int) float64 {
	return ds.Rows[row][ds.classIndex]
}

// Labels returns the class index of every row, -1 where the class is missing.
func (ds *Dataset) Labels() []int {
	labels := make([]int, len(ds.Rows))
	for i, row := range ds.Rows {
		v := row[ds.classIndex]
		if IsMissing(v) {
			labels[i] = -1
		} else {
			labels[i] = int(v)
		}
	}
	return labels
}

func (ds *Dataset) ClassCounts() []int {
	counts := make([]int, ds.NumClasses())
	for _, label := range ds.Labels() {
		if label >= 0 && label < len(counts) {
			counts[label]++
		}
	}
	return counts
}

func (ds *Dataset) ValueString(row, col int) string {
	v := ds.Rows[row][col]
	if IsMissing(v) {
		return "?"
	}
	attr := ds.Attributes[col]
	if attr.IsNominal() {
		return attr.Values[int(v)]
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (ds *Dataset) CountMissing() int {
	missing := 0
	for _, row := range ds.Rows {
		for _, v := range row {
			if IsMissing(v) {
				missing++
			}
		}
	}
	return missing
}

// EmptyCopy returns a dataset with the same header and no rows.
func (ds *Dataset) EmptyCopy() *Dataset {
	attrs := make([]*Attribute, len(ds.Attributes))
	for i, a := range ds.Attributes {
		attrs[i] = a.clone()
	}
	out := NewDataset(ds.Relation, attrs)
	out.classIndex = ds.classIndex
	return out
}

func (ds *Dataset) Copy() *Dataset {
	out := ds.EmptyCopy()
	out.Rows = make([][]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		out.Rows[i] = make([]float64, len(row))
		copy(out.Rows[i], row)
	}
	return out
}

// Subset shares the header and row slices of ds.
func (ds *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		Relation:   ds.Relation,
		Attributes: ds.Attributes,
		Rows:       make([][]float64, len(indices)),
		classIndex: ds.classIndex,
	}
	for i, idx := range indices {
		out.Rows[i] = ds.Rows[idx]
	}
	return out
}

// SameHeader reports whether other has the same attribute layout as ds,
// including the order of every nominal value list.
func (ds *Dataset) SameHeader(other *Dataset) bool {
	if len(ds.Attributes) != len(other.Attributes) || ds.classIndex != other.classIndex {
		return false
	}
	for i, a := range ds.Attributes {
		b := other.Attributes[i]
		if a.Name != b.Name || a.Type != b.Type || !slices.Equal(a.Values, b.Values) {
			return false
		}
	}
	return true
}
