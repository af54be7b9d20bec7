package cleaning

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

func decisionFor(c table.Column, typ ColumnType) PolicyDecision {
	return Decide(c.Name, missingPercent(c, c.Len()), typ)
}

func TestImputeNumericMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []any
		want   []any
		fill   string
	}{
		{"odd count", []any{1, nil, 3, 10}, []any{1.0, 3.0, 3.0, 10.0}, "3"},
		{"even count", []any{4, 1, nil, 3, 2}, []any{4.0, 1.0, 2.5, 3.0, 2.0}, "2.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := table.NewColumn("n", table.KindNumber, tc.values...)
			out, imp := Impute(c, decisionFor(c, Numeric))
			if diff := cmp.Diff(tc.want, out.Values); diff != "" {
				t.Fatalf("values mismatch (-want +got):\n%s", diff)
			}
			if out.NullCount() != 0 {
				t.Fatalf("nulls remain after median imputation")
			}
			if imp.Strategy != StrategyMedian || imp.FillValue != tc.fill || imp.CellsFilled != 1 || imp.Action != ActionImputed {
				t.Fatalf("imputation = %+v", imp)
			}
			if c.NullCount() != 1 {
				t.Fatalf("input column mutated")
			}
		})
	}
}

func TestImputeCategoricalMode(t *testing.T) {
	c := table.NewColumn("c", table.KindText, "a", "b", "a", nil, nil)
	out, imp := Impute(c, decisionFor(c, Categorical))
	if diff := cmp.Diff([]any{"a", "b", "a", "a", "a"}, out.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if imp.Strategy != StrategyMode || imp.FillValue != "a" || imp.CellsFilled != 2 {
		t.Fatalf("imputation = %+v", imp)
	}
	if !imp.HighMissing || imp.Warning != highMissingWarning {
		t.Fatalf("40%% missing should carry the high-missing warning: %+v", imp)
	}
}

func TestImputeCategoricalTieFallsBackToUnknown(t *testing.T) {
	c := table.NewColumn("c", table.KindText, "a", "b", nil, "b", "a")
	out, imp := Impute(c, decisionFor(c, Categorical))
	if got := out.Values[2]; got != UnknownFill {
		t.Fatalf("filled %v, want %q", got, UnknownFill)
	}
	if imp.Strategy != StrategyUnknown || imp.Action != ActionImputed {
		t.Fatalf("imputation = %+v", imp)
	}
}

func TestImputeDatetimeFillsForwardThenBackward(t *testing.T) {
	c := table.NewColumn("d", table.KindText, nil, "2024-01-02", nil, "2024-01-05", nil)
	out, imp := Impute(c, decisionFor(c, Datetime))
	if out.Kind != table.KindTime {
		t.Fatalf("kind = %v, want time", out.Kind)
	}
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	want := []any{d2, d2, d2, d5, d5}
	if diff := cmp.Diff(want, out.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if imp.Strategy != StrategyForwardFill || imp.CellsFilled != 3 || imp.ColumnType != Datetime || imp.Err != nil {
		t.Fatalf("imputation = %+v", imp)
	}
}

func TestImputeDatetimeFallsBackToCategorical(t *testing.T) {
	c := table.NewColumn("d", table.KindText, "2024-01-02", "not a date", nil, "2024-01-04")
	out, imp := Impute(c, decisionFor(c, Datetime))
	var dce *DatetimeConversionError
	if !errors.As(imp.Err, &dce) {
		t.Fatalf("expected *DatetimeConversionError, got %v", imp.Err)
	}
	if dce.Row != 1 || dce.Value != "not a date" {
		t.Fatalf("conversion error = %+v", dce)
	}
	if imp.ColumnType != Categorical || imp.Strategy != StrategyUnknown || imp.Warning != datetimeFallbackReason {
		t.Fatalf("imputation = %+v", imp)
	}
	want := []any{"2024-01-02", "not a date", UnknownFill, "2024-01-04"}
	if diff := cmp.Diff(want, out.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestImputeIdentifierIsKept(t *testing.T) {
	c := table.NewColumn("user_id", table.KindNumber, userIDs()...)
	out, imp := Impute(c, decisionFor(c, Identifier))
	if imp.Action != ActionKept || imp.Strategy != StrategyKept || imp.CellsFilled != 0 {
		t.Fatalf("imputation = %+v", imp)
	}
	if diff := cmp.Diff(c.Values, out.Values); diff != "" {
		t.Fatalf("identifier changed (-in +out):\n%s", diff)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{5, 1, 3}); got != 3 {
		t.Fatalf("median = %v", got)
	}
	if got := median([]float64{1, 2, 3, 10}); got != 2.5 {
		t.Fatalf("median = %v", got)
	}
	if got := quantile(nil, 0.5); got != 0 {
		t.Fatalf("quantile of empty = %v", got)
	}
}
