package table

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

func TestNewColumnNormalizesNumbers(t *testing.T) {
	c := NewColumn("n", KindNumber, 1, int64(2), "3.5", nil, math.NaN(), float32(4))
	want := []any{1.0, 2.0, 3.5, nil, nil, 4.0}
	if diff := cmp.Diff(want, c.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if c.NullCount() != 2 {
		t.Fatalf("null count = %d, want 2", c.NullCount())
	}
	if got := c.Floats(); len(got) != 4 {
		t.Fatalf("floats = %v", got)
	}
}

func TestNewReportsAllStructuralProblems(t *testing.T) {
	_, err := New(
		NewColumn("a", KindText, "x", "y"),
		NewColumn("a", KindText, "x", "y"),
		NewColumn("b", KindText, "x"),
		NewColumn("", KindText, "x", "y"),
		NewColumn("c", KindNumber, "not a number", 1),
	)
	if err == nil {
		t.Fatalf("expected error")
	}
	var se *StructureError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *StructureError", err)
	}
	if n := len(multierr.Errors(se.Err)); n != 4 {
		t.Fatalf("problems = %d, want 4: %v", n, err)
	}
	if !strings.Contains(err.Error(), "duplicate name") {
		t.Fatalf("missing duplicate message: %v", err)
	}
}

func TestDropAndSelectRowsDoNotMutate(t *testing.T) {
	tb, err := New(
		NewColumn("id", KindNumber, 1, 2, 3),
		NewColumn("name", KindText, "a", "b", "c"),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dropped := tb.Drop("id", "missing")
	if dropped.NumCols() != 1 || tb.NumCols() != 2 {
		t.Fatalf("drop cols = %d (orig %d)", dropped.NumCols(), tb.NumCols())
	}
	if _, ok := dropped.Column("name"); !ok {
		t.Fatalf("name column lost")
	}
	sub := tb.SelectRows([]int{2, 0})
	if sub.NumRows() != 2 {
		t.Fatalf("rows = %d", sub.NumRows())
	}
	if diff := cmp.Diff([]any{3.0, "c"}, []any{sub.cols[0].Values[0], sub.cols[1].Values[0]}); diff != "" {
		t.Fatalf("row 0 (-want +got):\n%s", diff)
	}
	sub.cols[0].Values[0] = 99.0
	if tb.cols[0].Values[2] != 3.0 {
		t.Fatalf("SelectRows shares storage with source")
	}
}

func TestWithColumnReplacesInPlaceOrder(t *testing.T) {
	tb, _ := New(
		NewColumn("a", KindText, "1", "2"),
		NewColumn("b", KindText, "x", "y"),
	)
	next, err := tb.WithColumn(NewColumn("a", KindNumber, 1, 2))
	if err != nil {
		t.Fatalf("with column: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, next.Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	a, _ := next.Column("a")
	if a.Kind != KindNumber {
		t.Fatalf("kind = %v", a.Kind)
	}
	orig, _ := tb.Column("a")
	if orig.Kind != KindText {
		t.Fatalf("receiver mutated")
	}
	if _, err := tb.WithColumn(NewColumn("c", KindText, "only one")); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestKeyKeepsTypesApart(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	keys := map[string]any{}
	for _, v := range []any{nil, 1.0, "1", "1.0", day, "2024-03-01"} {
		k := Key(v)
		if prev, dup := keys[k]; dup {
			t.Fatalf("Key(%#v) collides with Key(%#v)", v, prev)
		}
		keys[k] = v
	}
	if Key(math.NaN()) != Key(nil) {
		t.Fatalf("NaN and nil should share the missing key")
	}
}

func TestRowKeyAndDistinct(t *testing.T) {
	tb, _ := New(
		NewColumn("a", KindText, "x", "x", nil, nil),
		NewColumn("b", KindNumber, 1, 1, nil, nil),
	)
	if tb.RowKey(0) != tb.RowKey(1) || tb.RowKey(2) != tb.RowKey(3) || tb.RowKey(0) == tb.RowKey(2) {
		t.Fatalf("unexpected row keys")
	}
	a, _ := tb.Column("a")
	if a.Distinct() != 1 {
		t.Fatalf("distinct = %d, want 1", a.Distinct())
	}
}

func TestRowKeyIsUnambiguous(t *testing.T) {
	tb, _ := New(
		NewColumn("a", KindText, "x\x1fsy", "x", "ab", "a"),
		NewColumn("b", KindText, "z", "y\x1fsz", "c", "bc"),
	)
	if tb.RowKey(0) == tb.RowKey(1) {
		t.Fatalf("rows 0 and 1 share key %q", tb.RowKey(0))
	}
	if tb.RowKey(2) == tb.RowKey(3) {
		t.Fatalf("rows 2 and 3 share key %q", tb.RowKey(2))
	}
}

func TestStringFormatting(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{2.5, "2.5"},
		{1000.0, "1000"},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "2024-01-02"},
		{time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC), "2024-01-02 13:04:05"},
		{"text", "text"},
		{42, "42"},
	}
	for _, tc := range cases {
		if got := String(tc.in); got != tc.want {
			t.Fatalf("String(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToFloat(t *testing.T) {
	if f, ok := ToFloat(" 12.5 "); !ok || f != 12.5 {
		t.Fatalf("ToFloat string = %v %v", f, ok)
	}
	for _, v := range []any{"abc", "", true, "inf", math.Inf(1), nil} {
		if _, ok := ToFloat(v); ok {
			t.Fatalf("ToFloat(%#v) should fail", v)
		}
	}
}
