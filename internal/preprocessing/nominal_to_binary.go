package preprocessing

import (
	"github.com/lbx1205717363-source/IN6227-Data-Mining-Assignment/internal/data"
)

type columnMapping struct {
	source int
	// expand: one indicator per value; otherwise a nominal column becomes a
	// single indicator for its second value.
	nominal bool
	expand  bool
	width   int
}

// NominalToBinary replaces every non-class nominal attribute with numeric 0/1
// indicators. Attributes with more than two values (or all nominal attributes
// when TransformAllValues is set) get one indicator per value; binary ones get
// a single indicator. The class column is copied unchanged.
type NominalToBinary struct {
	TransformAllValues bool

	header   *data.Dataset
	output   *data.Dataset
	mappings []columnMapping
}

func NewNominalToBinary(transformAllValues bool) *NominalToBinary {
	return &NominalToBinary{TransformAllValues: transformAllValues}
}

func (n *NominalToBinary) Name() string {
	return "NominalToBinary"
}

func (n *NominalToBinary) Fit(ds *data.Dataset) error {
	if err := checkFittable(n.Name(), ds); err != nil {
		return err
	}

	var attrs []*data.Attribute
	n.mappings = make([]columnMapping, 0, ds.NumAttributes())
	newClassIndex := -1

	for j, attr := range ds.Attributes {
		m := columnMapping{source: j, width: 1}
		switch {
		case j == ds.ClassIndex() || !attr.IsNominal():
			if j == ds.ClassIndex() {
				newClassIndex = len(attrs)
			}
			if attr.IsNominal() {
				attrs = append(attrs, data.NewNominalAttribute(attr.Name, attr.Values))
			} else {
				attrs = append(attrs, data.NewNumericAttribute(attr.Name))
			}
		case attr.NumValues() > 2 || n.TransformAllValues:
			m.nominal = true
			m.expand = true
			m.width = attr.NumValues()
			for _, v := range attr.Values {
				attrs = append(attrs, data.NewNumericAttribute(attr.Name+"="+v))
			}
		default:
			m.nominal = true
			name := attr.Name
			if attr.NumValues() == 2 {
				name += "=" + attr.Values[1]
			}
			attrs = append(attrs, data.NewNumericAttribute(name))
		}
		n.mappings = append(n.mappings, m)
	}

	out := data.NewDataset(ds.Relation, attrs)
	if err := out.SetClassIndex(newClassIndex); err != nil {
		return err
	}
	n.output = out
	n.header = ds.EmptyCopy()
	return nil
}

// OutputHeader is the attribute layout produced by Transform.
func (n *NominalToBinary) OutputHeader() *data.Dataset {
	if n.output == nil {
		return nil
	}
	return n.output.EmptyCopy()
}

func (n *NominalToBinary) Transform(ds *data.Dataset) (*data.Dataset, error) {
	if err := checkTransformable(n.Name(), n.header, ds); err != nil {
		return nil, err
	}

	out := n.output.EmptyCopy()
	width := out.NumAttributes()
	out.Rows = make([][]float64, len(ds.Rows))

	for i, row := range ds.Rows {
		values := make([]float64, 0, width)
		for _, m := range n.mappings {
			v := row[m.source]
			switch {
			case !m.nominal:
				values = append(values, v)
			case data.IsMissing(v):
				for k := 0; k < m.width; k++ {
					values = append(values, data.Missing())
				}
			case m.expand:
				for k := 0; k < m.width; k++ {
					if int(v) == k {
						values = append(values, 1)
					} else {
						values = append(values, 0)
					}
				}
			default:
				if int(v) == 1 {
					values = append(values, 1)
				} else {
					values = append(values, 0)
				}
			}
		}
		out.Rows[i] = values
	}

	return out, nil
}

func (n *NominalToBinary) FitTransform(ds *data.Dataset) (*data.Dataset, error) {
	if err := n.Fit(ds); err != nil {
		return nil, err
	}
	return n.Transform(ds)
}
