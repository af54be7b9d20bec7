package cleaning

import (
	"fmt"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

// Strategy names the fill method applied to a column.
type Strategy string

const (
	StrategyNone        Strategy = "none"
	StrategyMedian      Strategy = "median_imputation"
	StrategyMode        Strategy = "mode_imputation"
	StrategyUnknown     Strategy = "filled_with_unknown"
	StrategyForwardFill Strategy = "forward_fill"
	StrategyKept        Strategy = "no_imputation"
	StrategyExcluded    Strategy = "excluded"
	StrategyDropped     Strategy = "dropped"
)

// Action is the outcome recorded for a column in the report.
type Action string

const (
	ActionNone     Action = "no_action_needed"
	ActionImputed  Action = "imputed"
	ActionKept     Action = "kept_as_is"
	ActionExcluded Action = "excluded_from_visualization"
	ActionRemoved  Action = "column_removed"
)

// UnknownFill replaces missing categorical cells when no unique mode exists.
const UnknownFill = "Unknown"

const (
	highMissingWarning     = "high missing percentage"
	datetimeFallbackReason = "datetime conversion failed, treated as categorical"
)

// Imputation records what the imputation engine did to one column.
type Imputation struct {
	Column         string
	MissingPercent float64
	ColumnType     ColumnType
	Strategy       Strategy
	Description    string
	Action         Action
	Reason         string
	HighMissing    bool
	FillValue      string
	CellsFilled    int
	Warning        string
	// Err is the recovered failure behind a fallback strategy, if any.
	Err error
}

// Impute fills missing cells of c according to its type. It is only
// meaningful for columns whose policy is PolicyImpute; the returned column is
// always a fresh copy.
func Impute(c table.Column, d PolicyDecision) (table.Column, Imputation) {
	imp := Imputation{
		Column:         c.Name,
		MissingPercent: d.MissingPercent,
		ColumnType:     d.ColumnType,
		HighMissing:    d.HighMissing,
		Action:         ActionImputed,
	}
	if d.HighMissing {
		imp.Warning = highMissingWarning
	}
	switch d.ColumnType {
	case Numeric:
		return imputeMedian(c, imp)
	case Datetime:
		out, res, dce := imputeDatetime(c, imp)
		if dce == nil {
			return out, res
		}
		imp.ColumnType = Categorical
		out, res = fillConstant(c, imp, UnknownFill)
		res.Description = fmt.Sprintf("%s; filled with %q", datetimeFallbackReason, UnknownFill)
		res.Warning = datetimeFallbackReason
		res.Err = dce
		return out, res
	case Identifier:
		imp.Strategy = StrategyKept
		imp.Action = ActionKept
		imp.Description = "left unchanged"
		imp.Reason = "identifier column, imputation not meaningful"
		return c.Clone(), imp
	default:
		return imputeMode(c, imp)
	}
}

func imputeMedian(c table.Column, imp Imputation) (table.Column, Imputation) {
	vals := c.Floats()
	if len(vals) == 0 {
		imp.Strategy = StrategyKept
		imp.Action = ActionKept
		imp.Description = "no values to take a median from"
		return c.Clone(), imp
	}
	m := median(vals)
	out := c.Clone()
	for i, v := range out.Values {
		if table.IsNull(v) {
			out.Values[i] = m
			imp.CellsFilled++
		}
	}
	imp.Strategy = StrategyMedian
	imp.FillValue = table.String(m)
	imp.Description = fmt.Sprintf("filled with median %s", imp.FillValue)
	return out, imp
}

func imputeMode(c table.Column, imp Imputation) (table.Column, Imputation) {
	mode, ok := uniqueMode(c)
	if !ok {
		out, res := fillConstant(c, imp, UnknownFill)
		res.Description = fmt.Sprintf("no single most frequent value, filled with %q", UnknownFill)
		return out, res
	}
	out := c.Clone()
	for i, v := range out.Values {
		if table.IsNull(v) {
			out.Values[i] = mode
			imp.CellsFilled++
		}
	}
	imp.Strategy = StrategyMode
	imp.FillValue = table.String(mode)
	imp.Description = fmt.Sprintf("filled with most frequent value %q", imp.FillValue)
	return out, imp
}

// uniqueMode returns the most frequent non-missing value. A tie for the top
// count, or no values at all, reports false.
func uniqueMode(c table.Column) (any, bool) {
	counts := make(map[string]int)
	first := make(map[string]any)
	best, bestCount, tied := "", 0, false
	for _, v := range c.Values {
		if table.IsNull(v) {
			continue
		}
		k := table.Key(v)
		if _, ok := first[k]; !ok {
			first[k] = v
		}
		counts[k]++
		switch n := counts[k]; {
		case n > bestCount:
			best, bestCount, tied = k, n, false
		case n == bestCount && k != best:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return nil, false
	}
	return first[best], true
}

func fillConstant(c table.Column, imp Imputation, fill string) (table.Column, Imputation) {
	out := table.Column{Name: c.Name, Kind: table.KindText, Values: make([]any, len(c.Values))}
	for i, v := range c.Values {
		if table.IsNull(v) {
			out.Values[i] = fill
			imp.CellsFilled++
			continue
		}
		if c.Kind == table.KindText {
			out.Values[i] = v
		} else {
			out.Values[i] = table.String(v)
		}
	}
	imp.Strategy = StrategyUnknown
	imp.FillValue = fill
	return out, imp
}

// imputeDatetime parses every present cell, then forward fills and back
// fills the gaps. Any unparsable cell aborts with *DatetimeConversionError.
func imputeDatetime(c table.Column, imp Imputation) (table.Column, Imputation, *DatetimeConversionError) {
	parsed := make([]any, len(c.Values))
	for i, v := range c.Values {
		if table.IsNull(v) {
			continue
		}
		t, ok := parseDate(v)
		if !ok {
			return table.Column{}, imp, &DatetimeConversionError{Column: c.Name, Row: i, Value: table.String(v)}
		}
		parsed[i] = t
	}
	var last any
	for i, v := range parsed {
		if v != nil {
			last = v
			continue
		}
		if last != nil {
			parsed[i] = last
			imp.CellsFilled++
		}
	}
	var next any
	for i := len(parsed) - 1; i >= 0; i-- {
		if parsed[i] != nil {
			next = parsed[i]
			continue
		}
		if next != nil {
			parsed[i] = next
			imp.CellsFilled++
		}
	}
	imp.Strategy = StrategyForwardFill
	imp.Description = "forward fill, then back fill for leading gaps"
	return table.Column{Name: c.Name, Kind: table.KindTime, Values: parsed}, imp, nil
}
