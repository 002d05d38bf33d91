package profile

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CramersV returns the bias-corrected Cramér's V (Bergsma and Wicher) of t.
// Degenerate tables yield NaN together with ErrUndefinedAssociation; callers
// that only need the value may ignore the error.
func CramersV(t *ContingencyTable) (float64, error) {
	n := float64(t.Total())
	r, k := t.Shape()
	if n <= 1 || r == 0 || k == 0 {
		return math.NaN(), ErrUndefinedAssociation
	}
	obs := make([]float64, 0, r*k)
	exp := make([]float64, 0, r*k)
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			obs = append(obs, float64(t.Count(i, j)))
			exp = append(exp, float64(t.rowSums[i])*float64(t.colSums[j])/n)
		}
	}
	chi2 := stat.ChiSquare(obs, exp)
	phi2 := chi2 / n
	rf, kf := float64(r), float64(k)
	phi2corr := math.Max(0, phi2-(kf-1)*(rf-1)/(n-1))
	rcorr := rf - (rf-1)*(rf-1)/(n-1)
	kcorr := kf - (kf-1)*(kf-1)/(n-1)
	denom := math.Min(kcorr-1, rcorr-1)
	if denom <= 0 {
		return math.NaN(), ErrUndefinedAssociation
	}
	if perfect(t) {
		return 1, nil
	}
	return math.Min(1, math.Sqrt(phi2corr/denom)), nil
}

// perfect reports whether t pairs every row with exactly one column and vice
// versa. Such tables have V == 1 exactly; the chi-square sum only reaches it
// up to rounding.
func perfect(t *ContingencyTable) bool {
	r, k := t.Shape()
	if r != k {
		return false
	}
	for i := 0; i < r; i++ {
		if t.rowSums[i] == 0 || t.colSums[i] == 0 {
			return false
		}
	}
	return len(t.counts) == r
}

// AssociationMatrix holds Cramér's V for every ordered pair of columns.
// Values[i][j] is the association of Columns[i] with Columns[j]; NaN marks
// an undefined pair.
type AssociationMatrix struct {
	Columns []string
	Values  [][]float64
}

// NewAssociationMatrix allocates an n×n matrix filled with NaN.
func NewAssociationMatrix(columns []string) *AssociationMatrix {
	m := &AssociationMatrix{Columns: append([]string(nil), columns...), Values: make([][]float64, len(columns))}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(columns))
		for j := range m.Values[i] {
			m.Values[i][j] = math.NaN()
		}
	}
	return m
}

// Get looks up the association of two columns by name.
func (m *AssociationMatrix) Get(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return m.Values[i][j], true
}

func (m *AssociationMatrix) index(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MarshalJSON writes undefined associations as null.
func (m *AssociationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]Value, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]Value, len(row))
		for j, v := range row {
			values[i][j] = Value(v)
		}
	}
	return json.Marshal(struct {
		Columns []string  `json:"columns"`
		Values  [][]Value `json:"values"`
	}{m.Columns, values})
}

// MarshalYAML writes undefined associations as null.
func (m *AssociationMatrix) MarshalYAML() (any, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				values[i][j] = &v
			}
		}
	}
	return struct {
		Columns []string     `yaml:"columns"`
		Values  [][]*float64 `yaml:"values"`
	}{m.Columns, values}, nil
}

// Value is a float that encodes NaN as JSON null.
type Value float64

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return f, nil
}
