package table

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

// Kind is the storage kind of a column, independent of its inferred semantic type.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "text"
	}
}

// Column is a named sequence of cell values. A nil value is a missing cell.
// Number columns hold float64, time columns hold time.Time and text columns
// hold strings (other scalars are tolerated and rendered with cast.ToString).
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// NewColumn builds a column and normalizes its values: NaN becomes nil and,
// for number columns, integer and string inputs are converted to float64.
func NewColumn(name string, kind Kind, values ...any) Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = normalize(kind, v)
	}
	return Column{Name: name, Kind: kind, Values: out}
}

func normalize(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return nil
	}
	if kind == KindNumber {
		if f, ok := ToFloat(v); ok {
			return f
		}
	}
	return v
}

// Len returns the number of cells.
func (c Column) Len() int { return len(c.Values) }

// NullCount returns the number of missing cells.
func (c Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if IsNull(v) {
			n++
		}
	}
	return n
}

// Floats returns the non-missing values that convert to finite numbers.
func (c Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := ToFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// Distinct returns the number of distinct non-missing values.
func (c Column) Distinct() int {
	seen := make(map[string]struct{}, len(c.Values))
	for _, v := range c.Values {
		if IsNull(v) {
			continue
		}
		seen[Key(v)] = struct{}{}
	}
	return len(seen)
}

// Clone returns a deep copy of the column's value slice.
func (c Column) Clone() Column {
	vals := make([]any, len(c.Values))
	copy(vals, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: vals}
}

// Table is an ordered set of uniquely named columns sharing a row count.
// Tables are snapshots: every transforming method returns a new Table and
// leaves the receiver untouched.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New validates and assembles columns into a Table. All structural problems
// are reported together.
func New(cols ...Column) (*Table, error) {
	var err error
	index := make(map[string]int, len(cols))
	rows := -1
	for i, c := range cols {
		if c.Name == "" {
			err = multierr.Append(err, fmt.Errorf("column %d: empty name", i))
		} else if _, dup := index[c.Name]; dup {
			err = multierr.Append(err, fmt.Errorf("column %q: duplicate name", c.Name))
		} else {
			index[c.Name] = i
		}
		if rows < 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			err = multierr.Append(err, fmt.Errorf("column %q: %d rows, want %d", c.Name, c.Len(), rows))
		}
		err = multierr.Append(err, checkKind(c))
	}
	if err != nil {
		return nil, &StructureError{Err: err}
	}
	if rows < 0 {
		rows = 0
	}
	return &Table{cols: cols, index: index, rows: rows}, nil
}

func checkKind(c Column) error {
	for i, v := range c.Values {
		if v == nil {
			continue
		}
		switch c.Kind {
		case KindNumber:
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("column %q row %d: %T in number column", c.Name, i, v)
			}
			if math.IsInf(f, 0) {
				return fmt.Errorf("column %q row %d: infinite value", c.Name, i)
			}
		case KindTime:
			if _, ok := v.(time.Time); !ok {
				return fmt.Errorf("column %q row %d: %T in time column", c.Name, i, v)
			}
		}
	}
	return nil
}

// StructureError reports a table that cannot be assembled, e.g. mismatched
// column lengths or duplicate names.
type StructureError struct {
	Err error
}

func (e *StructureError) Error() string {
	errs := multierr.Errors(e.Err)
	if len(errs) == 1 {
		return fmt.Sprintf("invalid table: %v", errs[0])
	}
	return fmt.Sprintf("invalid table (%d problems): %v", len(errs), e.Err)
}

func (e *StructureError) Unwrap() error { return e.Err }

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in order. Callers must not modify the value slices.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Has reports whether a column with the given name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// RowKey returns a string identifying the contents of row i; equal rows
// (including rows whose missing cells line up) share a key. Each cell key is
// length-prefixed so cell text can never shift a boundary.
func (t *Table) RowKey(i int) string {
	var b []byte
	for _, c := range t.cols {
		k := Key(c.Values[i])
		b = strconv.AppendInt(b, int64(len(k)), 10)
		b = append(b, ':')
		b = append(b, k...)
	}
	return string(b)
}

// WithColumn returns a new Table in which the named column is replaced by c,
// or c is appended when no such column exists.
func (t *Table) WithColumn(c Column) (*Table, error) {
	cols := t.Columns()
	if i, ok := t.index[c.Name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return New(cols...)
}

// Drop returns a new Table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	cols := make([]Column, 0, len(t.cols))
	index := make(map[string]int, len(t.cols))
	for _, c := range t.cols {
		if skip[c.Name] {
			continue
		}
		index[c.Name] = len(cols)
		cols = append(cols, c)
	}
	rows := t.rows
	if len(cols) == 0 {
		rows = 0
	}
	return &Table{cols: cols, index: index, rows: rows}
}

// SelectRows returns a new Table holding only the given rows, in the given order.
func (t *Table) SelectRows(rows []int) *Table {
	cols := make([]Column, len(t.cols))
	for j, c := range t.cols {
		vals := make([]any, len(rows))
		for k, r := range rows {
			vals[k] = c.Values[r]
		}
		cols[j] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	index := make(map[string]int, len(t.index))
	for k, v := range t.index {
		index[k] = v
	}
	return &Table{cols: cols, index: index, rows: len(rows)}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	all := make([]int, t.rows)
	for i := range all {
		all[i] = i
	}
	return t.SelectRows(all)
}
