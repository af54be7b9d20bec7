package cleaning

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

// Metadata aggregates per-column statistics. Maps are never nil so that an
// empty numeric set serializes as {} rather than null.
type Metadata struct {
	MissingPercent map[string]float64            `json:"missing_percent" yaml:"missing_percent"`
	Cardinality    map[string]int                `json:"cardinality" yaml:"cardinality"`
	Skewness       map[string]float64            `json:"skewness" yaml:"skewness"`
	Correlation    map[string]map[string]float64 `json:"correlation" yaml:"correlation"`
	ColumnTypes    map[string]ColumnType         `json:"column_types" yaml:"column_types"`
	Outliers       map[string]int                `json:"outliers" yaml:"outliers"`
}

// MissingStats maps column name to missing percentage (0-100, two decimals).
func MissingStats(t *table.Table) map[string]float64 {
	out := make(map[string]float64, t.NumCols())
	for _, c := range t.Columns() {
		out[c.Name] = missingPercent(c, t.NumRows())
	}
	return out
}

func missingPercent(c table.Column, rows int) float64 {
	if rows == 0 {
		return 0
	}
	return round2(float64(c.NullCount()) * 100 / float64(rows))
}

// ComputeMetadata derives missing ratios and cardinality for every column,
// and skewness plus pairwise Pearson correlation for numeric columns.
func ComputeMetadata(t *table.Table, types map[string]ColumnType) Metadata {
	md := Metadata{
		MissingPercent: MissingStats(t),
		Cardinality:    make(map[string]int, t.NumCols()),
		Skewness:       map[string]float64{},
		Correlation:    map[string]map[string]float64{},
		ColumnTypes:    make(map[string]ColumnType, len(types)),
		Outliers:       map[string]int{},
	}
	for k, v := range types {
		md.ColumnTypes[k] = v
	}
	var numeric []table.Column
	for _, c := range t.Columns() {
		md.Cardinality[c.Name] = c.Distinct()
		if types[c.Name] != Numeric || c.Kind != table.KindNumber {
			continue
		}
		numeric = append(numeric, c)
		if s, ok := skewness(c.Floats()); ok {
			md.Skewness[c.Name] = s
		}
	}
	if len(numeric) >= 2 {
		md.Correlation = correlationMatrix(numeric)
	}
	return md
}

// skewness is the bias-corrected sample skewness, rounded to two decimals.
// Fewer than three values yield no estimate; a constant column is 0.
func skewness(vals []float64) (float64, bool) {
	if len(vals) < 3 {
		return 0, false
	}
	if stat.Variance(vals, nil) == 0 {
		return 0, true
	}
	s := stat.Skew(vals, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, true
	}
	return round2(s), true
}

// correlationMatrix computes Pearson r over rows where both columns are
// present. Degenerate pairs (fewer than two shared rows or zero variance)
// report 0. The result is symmetric with a unit diagonal.
func correlationMatrix(cols []table.Column) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(cols))
	for _, c := range cols {
		out[c.Name] = map[string]float64{c.Name: 1}
	}
	for a := 0; a < len(cols); a++ {
		for b := a + 1; b < len(cols); b++ {
			r := round2(pairwisePearson(cols[a], cols[b]))
			out[cols[a].Name][cols[b].Name] = r
			out[cols[b].Name][cols[a].Name] = r
		}
	}
	return out
}

func pairwisePearson(x, y table.Column) float64 {
	var xs, ys []float64
	for i := range x.Values {
		xv, okx := table.ToFloat(x.Values[i])
		yv, oky := table.ToFloat(y.Values[i])
		if !okx || !oky {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)
	}
	if len(xs) < 2 {
		return 0
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
