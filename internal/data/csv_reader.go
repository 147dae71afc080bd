package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/failure"
)

type ReaderOptions struct {
	HasHeader     bool
	MissingTokens []string
	TrimSpace     bool
	// ClassIndex selects the class column; -1 means the last one.
	ClassIndex int
	// NominalClass forces the class column to be nominal even when its values parse as numbers.
	NominalClass bool
}

func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		MissingTokens: []string{"?", ""},
		TrimSpace:     true,
		ClassIndex:    -1,
		NominalClass:  true,
	}
}

type CSVReader struct {
	filename string
	opts     ReaderOptions
}

func NewCSVReader(filename string, opts ReaderOptions) (*CSVReader, error) {
	if filename == "" {
		return nil, failure.IOError("open", fmt.Errorf("no dataset path given"))
	}
	if opts.ClassIndex < -1 {
		return nil, failure.ConfigError("reader options", fmt.Errorf("invalid class index %d", opts.ClassIndex))
	}
	return &CSVReader{filename: filename, opts: opts}, nil
}

// Load reads the whole file into a Dataset.
func (cr *CSVReader) Load() (*Dataset, error) {
	file, err := os.Open(cr.filename)
	if err != nil {
		return nil, failure.IOError("open "+cr.filename, err)
	}
	defer file.Close()

	relation := strings.TrimSuffix(filepath.Base(cr.filename), filepath.Ext(cr.filename))
	return Load(file, relation, cr.opts)
}

// Load parses comma-separated records from r. Attribute types are inferred:
// a column is numeric when every non-missing value is a decimal number.
func Load(r io.Reader, relation string, opts ReaderOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = opts.TrimSpace

	records, err := reader.ReadAll()
	if err != nil {
		return nil, failure.IOError("read "+relation, err)
	}

	var headers []string
	if opts.HasHeader && len(records) > 0 {
		headers = records[0]
		records = records[1:]
	}

	if len(records) == 0 {
		return nil, failure.IOError("read "+relation, fmt.Errorf("insufficient data in file"))
	}

	nCols := len(records[0])
	if headers == nil {
		headers = make([]string, nCols)
		for j := range headers {
			headers[j] = fmt.Sprintf("att%d", j+1)
		}
	}

	classIndex := opts.ClassIndex
	if classIndex == -1 {
		classIndex = nCols - 1
	}
	if classIndex >= nCols {
		return nil, failure.IOError("read "+relation, fmt.Errorf("class index %d out of range for %d columns", classIndex, nCols))
	}

	missing := make(map[string]bool, len(opts.MissingTokens))
	for _, tok := range opts.MissingTokens {
		missing[tok] = true
	}

	cells := make([][]string, len(records))
	for i, record := range records {
		cells[i] = make([]string, nCols)
		for j, val := range record {
			if opts.TrimSpace {
				val = strings.TrimSpace(val)
			}
			cells[i][j] = val
		}
	}

	attrs := make([]*Attribute, nCols)
	numericValues := make([][]float64, nCols)
	for j := 0; j < nCols; j++ {
		var parsed []float64
		if !(j == classIndex && opts.NominalClass) {
			parsed = parseNumericColumn(cells, j, missing)
		}
		if parsed != nil {
			attrs[j] = NewNumericAttribute(headers[j])
			numericValues[j] = parsed
		} else {
			attrs[j] = NewNominalAttribute(headers[j], nil)
		}
	}

	ds := NewDataset(relation, attrs)
	ds.Rows = make([][]float64, len(cells))
	for i, row := range cells {
		values := make([]float64, nCols)
		for j, val := range row {
			switch {
			case missing[val]:
				values[j] = Missing()
			case attrs[j].IsNominal():
				values[j] = float64(attrs[j].AddValue(val))
			default:
				values[j] = numericValues[j][i]
			}
		}
		ds.Rows[i] = values
	}

	if err := ds.SetClassIndex(classIndex); err != nil {
		return nil, failure.IOError("read "+relation, err)
	}

	return ds, nil
}

// parseNumericColumn returns the parsed column, or nil if any value is not numeric.
func parseNumericColumn(cells [][]string, col int, missing map[string]bool) []float64 {
	values := make([]float64, len(cells))
	for i, row := range cells {
		val := row[col]
		if missing[val] {
			values[i] = Missing()
			continue
		}
		d, err := decimal.NewFromString(val)
		if err != nil {
			return nil
		}
		values[i] = d.InexactFloat64()
	}
	return values
}
