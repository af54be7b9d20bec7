package cleaning

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// Stage names in execution order.
const (
	StageRemoveDuplicates   = "remove_duplicates"
	StageStandardizeMissing = "standardize_missing"
	StageClassifyColumns    = "classify_columns"
	StageComputeMetadata    = "compute_metadata"
	StageApplyPolicy        = "apply_missing_policy"
	StageImputeMissing      = "impute_missing"
	StageDetectOutliers     = "detect_outliers"
	StageAssembleReport     = "assemble_report"
)

// Stages is the fixed stage log recorded in every report.
func Stages() []string {
	return []string{
		StageRemoveDuplicates,
		StageStandardizeMissing,
		StageClassifyColumns,
		StageComputeMetadata,
		StageApplyPolicy,
		StageImputeMissing,
		StageDetectOutliers,
		StageAssembleReport,
	}
}

// Report is the audit record of one pipeline run. It holds only strings,
// numbers, slices and maps so it encodes directly to JSON or YAML.
type Report struct {
	RunID           string                    `json:"run_id" yaml:"run_id"`
	Stages          []string                  `json:"stages" yaml:"stages"`
	Summary         Summary                   `json:"summary" yaml:"summary"`
	InputColumns    []string                  `json:"input_columns" yaml:"input_columns"`
	Columns         []string                  `json:"columns" yaml:"columns"`
	Decisions       map[string]ColumnDecision `json:"decisions" yaml:"decisions"`
	Buckets         Buckets                   `json:"buckets" yaml:"buckets"`
	ExcludedColumns []string                  `json:"excluded_columns" yaml:"excluded_columns"`
	DroppedColumns  []string                  `json:"dropped_columns" yaml:"dropped_columns"`
	DuplicateRows   int                       `json:"duplicate_rows" yaml:"duplicate_rows"`
	Metadata        Metadata                  `json:"metadata" yaml:"metadata"`
	Warnings        []Warning                 `json:"warnings" yaml:"warnings"`
}

// Summary holds before/after counts.
type Summary struct {
	OriginalRows      int `json:"original_rows" yaml:"original_rows"`
	OriginalColumns   int `json:"original_columns" yaml:"original_columns"`
	FinalRows         int `json:"final_rows" yaml:"final_rows"`
	FinalColumns      int `json:"final_columns" yaml:"final_columns"`
	DuplicatesRemoved int `json:"duplicates_removed" yaml:"duplicates_removed"`
	ImputedColumns    int `json:"imputed_columns" yaml:"imputed_columns"`
	ExcludedColumns   int `json:"excluded_columns" yaml:"excluded_columns"`
	DroppedColumns    int `json:"dropped_columns" yaml:"dropped_columns"`
}

// ColumnDecision is everything the pipeline decided about one input column.
type ColumnDecision struct {
	MissingPercent     float64    `json:"missing_percent" yaml:"missing_percent"`
	ColumnType         ColumnType `json:"column_type" yaml:"column_type"`
	ClassificationRule string     `json:"classification_rule" yaml:"classification_rule"`
	Policy             Policy     `json:"policy" yaml:"policy"`
	Strategy           Strategy   `json:"strategy" yaml:"strategy"`
	Action             Action     `json:"action" yaml:"action"`
	Reason             string     `json:"reason" yaml:"reason"`
	Description        string     `json:"description,omitempty" yaml:"description,omitempty"`
	HighMissing        bool       `json:"high_missing_warning" yaml:"high_missing_warning"`
	FillValue          string     `json:"fill_value,omitempty" yaml:"fill_value,omitempty"`
	CellsFilled        int        `json:"cells_filled" yaml:"cells_filled"`
	Warning            string     `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// Buckets partitions the input columns by outcome.
type Buckets struct {
	NoAction []string `json:"no_action" yaml:"no_action"`
	Imputed  []string `json:"imputed" yaml:"imputed"`
	Excluded []string `json:"excluded" yaml:"excluded"`
	Dropped  []string `json:"dropped" yaml:"dropped"`
}

// Warning is a per-column note surfaced to the reader of the report.
type Warning struct {
	Column  string `json:"column" yaml:"column"`
	Message string `json:"message" yaml:"message"`
}

// assembly carries the stage outputs into the report assembler.
type assembly struct {
	runID       string
	original    []string
	origRows    int
	final       []string
	finalRows   int
	duplicates  int
	rules       map[string]string
	policies    map[string]PolicyDecision
	imputations map[string]Imputation
	metadata    Metadata
	outliers    map[string]int
	finalTypes  map[string]ColumnType
}

func assembleReport(a assembly) *Report {
	r := &Report{
		RunID:           a.runID,
		Stages:          Stages(),
		InputColumns:    append([]string{}, a.original...),
		Columns:         append([]string{}, a.final...),
		Decisions:       make(map[string]ColumnDecision, len(a.original)),
		Buckets:         Buckets{NoAction: []string{}, Imputed: []string{}, Excluded: []string{}, Dropped: []string{}},
		ExcludedColumns: []string{},
		DroppedColumns:  []string{},
		DuplicateRows:   a.duplicates,
		Metadata:        a.metadata,
		Warnings:        []Warning{},
	}
	r.Metadata.Outliers = a.outliers
	if r.Metadata.Outliers == nil {
		r.Metadata.Outliers = map[string]int{}
	}
	for name, typ := range a.finalTypes {
		r.Metadata.ColumnTypes[name] = typ
	}

	for _, name := range a.original {
		p := a.policies[name]
		d := ColumnDecision{
			MissingPercent:     p.MissingPercent,
			ColumnType:         p.ColumnType,
			ClassificationRule: a.rules[name],
			Policy:             p.Policy,
			Reason:             p.Reason,
			HighMissing:        p.HighMissing,
		}
		switch p.Policy {
		case PolicyDrop:
			d.Strategy, d.Action = StrategyDropped, ActionRemoved
			d.Warning = "column removed, " + p.Reason
			r.DroppedColumns = append(r.DroppedColumns, name)
			r.Buckets.Dropped = append(r.Buckets.Dropped, name)
		case PolicyExclude:
			d.Strategy, d.Action = StrategyExcluded, ActionExcluded
			d.Warning = "excluded from visualization, " + p.Reason
			r.ExcludedColumns = append(r.ExcludedColumns, name)
			r.Buckets.Excluded = append(r.Buckets.Excluded, name)
		case PolicyImpute:
			imp := a.imputations[name]
			d.ColumnType = imp.ColumnType
			d.Strategy = imp.Strategy
			d.Action = imp.Action
			d.Description = imp.Description
			d.FillValue = imp.FillValue
			d.CellsFilled = imp.CellsFilled
			d.Warning = imp.Warning
			if imp.Reason != "" {
				d.Reason = imp.Reason
			}
			if imp.Action == ActionImputed {
				r.Buckets.Imputed = append(r.Buckets.Imputed, name)
			} else {
				r.Buckets.NoAction = append(r.Buckets.NoAction, name)
			}
		default:
			d.Strategy, d.Action = StrategyNone, ActionNone
			r.Buckets.NoAction = append(r.Buckets.NoAction, name)
		}
		if d.Warning != "" {
			r.Warnings = append(r.Warnings, Warning{Column: name, Message: d.Warning})
		}
		r.Decisions[name] = d
	}

	r.Summary = Summary{
		OriginalRows:      a.origRows,
		OriginalColumns:   len(a.original),
		FinalRows:         a.finalRows,
		FinalColumns:      len(a.final),
		DuplicatesRemoved: a.duplicates,
		ImputedColumns:    len(r.Buckets.Imputed),
		ExcludedColumns:   len(r.Buckets.Excluded),
		DroppedColumns:    len(r.Buckets.Dropped),
	}
	return r
}

// Validate checks the column accounting of the report. All violations are
// returned together, each wrapping ErrReportInvariant.
func (r *Report) Validate() error {
	var err error
	if r.Summary.FinalColumns != r.Summary.OriginalColumns-len(r.DroppedColumns) {
		err = multierr.Append(err, fmt.Errorf("%w: final columns %d != original %d - dropped %d",
			ErrReportInvariant, r.Summary.FinalColumns, r.Summary.OriginalColumns, len(r.DroppedColumns)))
	}
	if len(r.Columns) != r.Summary.FinalColumns {
		err = multierr.Append(err, fmt.Errorf("%w: %d final column names for %d final columns",
			ErrReportInvariant, len(r.Columns), r.Summary.FinalColumns))
	}
	final := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		final[c] = true
	}
	for _, c := range r.ExcludedColumns {
		if !final[c] {
			err = multierr.Append(err, fmt.Errorf("%w: excluded column %q missing from cleaned table", ErrReportInvariant, c))
		}
	}
	for _, c := range r.DroppedColumns {
		if final[c] {
			err = multierr.Append(err, fmt.Errorf("%w: dropped column %q still in cleaned table", ErrReportInvariant, c))
		}
	}
	seen := make(map[string]int, len(r.Decisions))
	for _, bucket := range [][]string{r.Buckets.NoAction, r.Buckets.Imputed, r.Buckets.Excluded, r.Buckets.Dropped} {
		for _, c := range bucket {
			seen[c]++
		}
	}
	names := make([]string, 0, len(r.Decisions))
	for c := range r.Decisions {
		names = append(names, c)
	}
	sort.Strings(names)
	for _, c := range names {
		if seen[c] != 1 {
			err = multierr.Append(err, fmt.Errorf("%w: column %q is in %d buckets", ErrReportInvariant, c, seen[c]))
		}
		delete(seen, c)
	}
	for c := range seen {
		err = multierr.Append(err, fmt.Errorf("%w: bucketed column %q has no decision", ErrReportInvariant, c))
	}
	if len(r.Decisions) != r.Summary.OriginalColumns {
		err = multierr.Append(err, fmt.Errorf("%w: %d decisions for %d input columns",
			ErrReportInvariant, len(r.Decisions), r.Summary.OriginalColumns))
	}
	return err
}
