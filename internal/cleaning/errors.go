package cleaning

import (
	"errors"
	"fmt"
)

// EmptyInputError is returned when the input table has no rows or no columns.
// No report is produced.
type EmptyInputError struct {
	Rows    int
	Columns int
}

func (e *EmptyInputError) Error() string {
	if e.Columns == 0 {
		return "empty input: table has no columns"
	}
	return fmt.Sprintf("empty input: table has %d columns but no rows", e.Columns)
}

// DatetimeConversionError reports a cell in a datetime-typed column that
// does not parse as a date. The imputation engine recovers from it by
// treating the column as categorical.
type DatetimeConversionError struct {
	Column string
	Row    int
	Value  string
}

func (e *DatetimeConversionError) Error() string {
	return fmt.Sprintf("column %q row %d: cannot parse %q as a date", e.Column, e.Row+1, e.Value)
}

// ErrReportInvariant marks an assembled report whose column accounting does
// not add up. It indicates a bug, not bad input.
var ErrReportInvariant = errors.New("report invariant violated")
