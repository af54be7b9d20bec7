package cleaning

import (
	"time"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

// ColumnType is the semantic type inferred for a column.
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
	Datetime    ColumnType = "datetime"
	Identifier  ColumnType = "identifier"
)

const (
	identifierRatio   = 0.95
	identifierMinRows = 50
	dateSampleSize    = 10
)

// classifyRule maps a predicate over a column to a type. Rules are evaluated
// in order and the first match wins; the last rule always matches.
type classifyRule struct {
	Name  string
	Label ColumnType
	Match func(c table.Column, rows int) bool
}

var classifyRules = []classifyRule{
	{
		Name:  "native_datetime",
		Label: Datetime,
		Match: func(c table.Column, _ int) bool { return c.Kind == table.KindTime },
	},
	{
		Name:  "numeric_high_cardinality",
		Label: Identifier,
		Match: func(c table.Column, rows int) bool { return c.Kind == table.KindNumber && highCardinality(c, rows) },
	},
	{
		Name:  "numeric",
		Label: Numeric,
		Match: func(c table.Column, _ int) bool { return c.Kind == table.KindNumber },
	},
	{
		Name:  "text_parses_as_dates",
		Label: Datetime,
		Match: func(c table.Column, _ int) bool { return c.Kind == table.KindText && sampleParsesAsDates(c) },
	},
	{
		Name:  "text_high_cardinality",
		Label: Identifier,
		Match: func(c table.Column, rows int) bool { return c.Kind == table.KindText && highCardinality(c, rows) },
	},
	{
		Name:  "categorical_fallback",
		Label: Categorical,
		Match: func(table.Column, int) bool { return true },
	},
}

// ClassifyColumn returns the type of c and the name of the rule that decided it.
// rows is the table row count, which may differ from the non-missing count.
func ClassifyColumn(c table.Column, rows int) (ColumnType, string) {
	for _, r := range classifyRules {
		if r.Match(c, rows) {
			return r.Label, r.Name
		}
	}
	return Categorical, "categorical_fallback"
}

// Classification is the classifier output for one table.
type Classification struct {
	Types map[string]ColumnType
	Rules map[string]string
}

// Classify types every column of t.
func Classify(t *table.Table) Classification {
	out := Classification{
		Types: make(map[string]ColumnType, t.NumCols()),
		Rules: make(map[string]string, t.NumCols()),
	}
	for _, c := range t.Columns() {
		typ, rule := ClassifyColumn(c, t.NumRows())
		out.Types[c.Name] = typ
		out.Rules[c.Name] = rule
	}
	return out
}

// highCardinality reports near-unique columns: distinct non-missing values
// over row count above 0.95, on tables with more than 50 rows.
func highCardinality(c table.Column, rows int) bool {
	if rows <= identifierMinRows {
		return false
	}
	return float64(c.Distinct())/float64(rows) > identifierRatio
}

// sampleParsesAsDates checks the first ten non-missing values. A column with
// no values at all is not a date column.
func sampleParsesAsDates(c table.Column) bool {
	checked := 0
	for _, v := range c.Values {
		if table.IsNull(v) {
			continue
		}
		if _, ok := parseDate(v); !ok {
			return false
		}
		checked++
		if checked == dateSampleSize {
			break
		}
	}
	return checked > 0
}

var dateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"2006-01-02T15:04:05", "2006-01", "Jan 2, 2006", "January 2, 2006", "2 Jan 2006",
}

// parseDate accepts time values and strings in common layouts. Numbers are
// never treated as dates.
func parseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		for _, l := range dateLayouts {
			if t, err := time.Parse(l, x); err == nil {
				return t, true
			}
		}
		if t, err := cast.ToTimeE(x); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
