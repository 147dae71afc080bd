package data

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type DataValidator struct{}

func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

func (dv *DataValidator) ValidateDataset(ds *Dataset) error {
	if ds == nil || len(ds.Rows) == 0 {
		return fmt.Errorf("dataset is empty")
	}

	nAttrs := len(ds.Attributes)
	if nAttrs == 0 {
		return fmt.Errorf("attributes cannot be empty")
	}

	for i, row := range ds.Rows {
		if len(row) != nAttrs {
			return fmt.Errorf("inconsistent attribute count at row %d: expected %d, got %d", i, nAttrs, len(row))
		}
	}

	if ds.ClassIndex() < 0 || ds.ClassIndex() >= nAttrs {
		return fmt.Errorf("class index %d out of range", ds.ClassIndex())
	}

	return nil
}

func (dv *DataValidator) ValidateLabels(ds *Dataset) error {
	class := ds.ClassAttribute()
	if class == nil {
		return fmt.Errorf("no class attribute set")
	}
	if !class.IsNominal() {
		return fmt.Errorf("class attribute %q must be nominal", class.Name)
	}
	return nil
}

type AttributeStats struct {
	Name     string
	Type     AttributeType
	Distinct int
	Missing  int
	Min      decimal.Decimal
	Max      decimal.Decimal
	Mean     decimal.Decimal
}

func (dv *DataValidator) GetDatasetStats(ds *Dataset) map[string]any {
	if ds == nil || len(ds.Rows) == 0 {
		return map[string]any{}
	}

	stats := make(map[string]any)
	stats["samples"] = ds.NumRows()
	stats["attributes"] = ds.NumAttributes()
	stats["classes"] = ds.NumClasses()
	stats["class_distribution"] = ds.ClassCounts()
	stats["missing"] = ds.CountMissing()

	attrStats := make([]AttributeStats, ds.NumAttributes())
	for j, attr := range ds.Attributes {
		s := AttributeStats{Name: attr.Name, Type: attr.Type}
		var values []decimal.Decimal
		for _, row := range ds.Rows {
			if IsMissing(row[j]) {
				s.Missing++
				continue
			}
			if !attr.IsNominal() {
				values = append(values, decimal.NewFromFloat(row[j]))
			}
		}
		if attr.IsNominal() {
			s.Distinct = attr.NumValues()
		} else {
			s.Distinct = countDistinct(ds, j)
			s.Min = findMin(values)
			s.Max = findMax(values)
			s.Mean = calculateMean(values)
		}
		attrStats[j] = s
	}
	stats["attribute_stats"] = attrStats

	return stats
}

func countDistinct(ds *Dataset, col int) int {
	seen := make(map[uint64]bool)
	for _, row := range ds.Rows {
		if !IsMissing(row[col]) {
			seen[math.Float64bits(row[col])] = true
		}
	}
	return len(seen)
}

func findMin(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Min(values[0], values[1:]...)
}

func findMax(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Max(values[0], values[1:]...)
}

func calculateMean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))
}
