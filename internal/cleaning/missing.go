package cleaning

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

// missingTokens are the spellings of "no value" recognized in text columns.
// Comparison is by Unicode case folding, so "N/A", "Null" and "NAN" match too.
var missingTokens = []string{
	"", " ", "n/a", "na", "null", "none",
	"?", "??", "???",
	"missing",
	"-", "--", "---",
	"nan",
}

type missingMatcher struct {
	fold   cases.Caser
	tokens map[string]struct{}
}

// newMissingMatcher returns a matcher owned by one caller; a Caser is stateful.
func newMissingMatcher() *missingMatcher {
	m := &missingMatcher{fold: cases.Fold(), tokens: make(map[string]struct{}, len(missingTokens))}
	for _, tok := range missingTokens {
		m.tokens[m.fold.String(tok)] = struct{}{}
	}
	return m
}

func (m *missingMatcher) match(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, hit := m.tokens[m.fold.String(s)]
	return hit
}

// StandardizeMissing replaces missing-value tokens in text columns with nil
// and reports how many cells changed. Number and time columns pass through.
func StandardizeMissing(t *table.Table) (*table.Table, int, error) {
	m := newMissingMatcher()
	out := t
	replaced := 0
	for _, c := range t.Columns() {
		if c.Kind != table.KindText {
			continue
		}
		var vals []any
		for i, v := range c.Values {
			if v == nil || !m.match(v) {
				continue
			}
			if vals == nil {
				vals = make([]any, len(c.Values))
				copy(vals, c.Values)
			}
			vals[i] = nil
			replaced++
		}
		if vals == nil {
			continue
		}
		next, err := out.WithColumn(table.Column{Name: c.Name, Kind: c.Kind, Values: vals})
		if err != nil {
			return nil, 0, err
		}
		out = next
	}
	if out == t {
		out = t.Clone()
	}
	return out, replaced, nil
}

// CoerceNumericText re-types text columns whose every non-missing cell is a
// plain number into number columns and returns the names it converted.
func CoerceNumericText(t *table.Table) (*table.Table, []string, error) {
	out := t
	var converted []string
	for _, c := range t.Columns() {
		if c.Kind != table.KindText {
			continue
		}
		nums, ok := numericValues(c)
		if !ok {
			continue
		}
		next, err := out.WithColumn(table.Column{Name: c.Name, Kind: table.KindNumber, Values: nums})
		if err != nil {
			return nil, nil, err
		}
		out = next
		converted = append(converted, c.Name)
	}
	return out, converted, nil
}

func numericValues(c table.Column) ([]any, bool) {
	nums := make([]any, len(c.Values))
	seen := 0
	for i, v := range c.Values {
		if table.IsNull(v) {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return nil, false
		}
		f, ok := table.ToFloat(v)
		if !ok {
			return nil, false
		}
		nums[i] = f
		seen++
	}
	return nums, seen > 0
}
