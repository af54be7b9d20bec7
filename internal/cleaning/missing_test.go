package cleaning

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

func mustTable(t *testing.T, cols ...table.Column) *table.Table {
	t.Helper()
	tb, err := table.New(cols...)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tb
}

func column(t *testing.T, tb *table.Table, name string) table.Column {
	t.Helper()
	c, ok := tb.Column(name)
	if !ok {
		t.Fatalf("column %q not found in %v", name, tb.Names())
	}
	return c
}

func TestStandardizeMissingReplacesTokens(t *testing.T) {
	in := mustTable(t,
		table.NewColumn("s", table.KindText, "a", "N/A", "null", "  ", "??", "NaN", "Missing", "---", "none", "x"),
		table.NewColumn("n", table.KindNumber, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
	)
	out, replaced, err := StandardizeMissing(in)
	if err != nil {
		t.Fatalf("StandardizeMissing: %v", err)
	}
	if replaced != 7 {
		t.Fatalf("replaced = %d, want 7", replaced)
	}
	want := []any{"a", nil, nil, "  ", nil, nil, nil, nil, nil, "x"}
	if diff := cmp.Diff(want, column(t, out, "s").Values); diff != "" {
		t.Fatalf("standardized values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(column(t, in, "n").Values, column(t, out, "n").Values); diff != "" {
		t.Fatalf("number column changed (-in +out):\n%s", diff)
	}
	if got := column(t, in, "s").Values[1]; got != "N/A" {
		t.Fatalf("input mutated: %v", got)
	}
}

func TestStandardizeMissingIsIdempotent(t *testing.T) {
	in := mustTable(t,
		table.NewColumn("s", table.KindText, "NULL", "ok", "-", "?", "NA", ""),
	)
	once, _, err := StandardizeMissing(in)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, replaced, err := StandardizeMissing(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if replaced != 0 {
		t.Fatalf("second pass replaced %d cells", replaced)
	}
	if diff := cmp.Diff(once.Columns(), twice.Columns()); diff != "" {
		t.Fatalf("second pass changed table (-once +twice):\n%s", diff)
	}
}

func TestMissingMatcherCaseVariants(t *testing.T) {
	m := newMissingMatcher()
	for _, s := range []string{"N/a", "NULL", "None", "MISSING", "nAn", "???", "--", " "} {
		if !m.match(s) {
			t.Fatalf("%q should be a missing token", s)
		}
	}
	for _, s := range []string{"0", "n.a", "????", "----", "nil", "unknown"} {
		if m.match(s) {
			t.Fatalf("%q should not be a missing token", s)
		}
	}
}

func TestCoerceNumericText(t *testing.T) {
	in := mustTable(t,
		table.NewColumn("n", table.KindText, "1", "2.5", nil),
		table.NewColumn("s", table.KindText, "1", "x", nil),
		table.NewColumn("empty", table.KindText, nil, nil, nil),
	)
	out, converted, err := CoerceNumericText(in)
	if err != nil {
		t.Fatalf("CoerceNumericText: %v", err)
	}
	if diff := cmp.Diff([]string{"n"}, converted); diff != "" {
		t.Fatalf("converted mismatch (-want +got):\n%s", diff)
	}
	n := column(t, out, "n")
	if n.Kind != table.KindNumber {
		t.Fatalf("n kind = %v", n.Kind)
	}
	if diff := cmp.Diff([]any{1.0, 2.5, nil}, n.Values); diff != "" {
		t.Fatalf("n values mismatch (-want +got):\n%s", diff)
	}
	if column(t, out, "s").Kind != table.KindText || column(t, out, "empty").Kind != table.KindText {
		t.Fatalf("non-numeric columns were re-typed")
	}
}

func TestRemoveDuplicatesKeepsFirstOccurrence(t *testing.T) {
	in := mustTable(t,
		table.NewColumn("a", table.KindNumber, 1, 1, 2, 1),
		table.NewColumn("b", table.KindText, nil, nil, "x", nil),
	)
	out, removed := RemoveDuplicates(in)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if diff := cmp.Diff([]any{1.0, 2.0}, column(t, out, "a").Values); diff != "" {
		t.Fatalf("a mismatch (-want +got):\n%s", diff)
	}
	if in.NumRows() != 4 {
		t.Fatalf("input mutated")
	}
}

func TestRemoveDuplicatesKeepsRowsWithSeparatorLikeText(t *testing.T) {
	in := mustTable(t,
		table.NewColumn("a", table.KindText, "x\x1fsy", "x"),
		table.NewColumn("b", table.KindText, "z", "y\x1fsz"),
	)
	out, removed := RemoveDuplicates(in)
	if removed != 0 || out.NumRows() != 2 {
		t.Fatalf("removed = %d, rows = %d; distinct rows must both survive", removed, out.NumRows())
	}
}

func TestRemoveDuplicatesDoesNotMergeTokenSpellings(t *testing.T) {
	in := mustTable(t,
		table.NewColumn("a", table.KindText, "N/A", "null"),
	)
	if _, removed := RemoveDuplicates(in); removed != 0 {
		t.Fatalf("removed = %d, want 0 before standardization", removed)
	}
}
