package cleaning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

// Options configures a pipeline run.
type Options struct {
	// CoerceNumericText re-types text columns that hold only numbers after
	// missing tokens are removed.
	CoerceNumericText bool
	Logger            *zap.Logger
}

// DefaultOptions returns the options used by the CLI when nothing is configured.
func DefaultOptions() Options {
	return Options{CoerceNumericText: true}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// runner executes stages one after another and logs each of them.
type runner struct {
	log *zap.Logger
	cur *table.Table
}

func (r *runner) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()
	if err != nil {
		r.log.Error("cleaning: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log.Debug("cleaning: stage complete",
		zap.String("stage", name),
		zap.Int64("duration_ms", duration),
		zap.Int("rows", r.cur.NumRows()),
		zap.Int("columns", r.cur.NumCols()),
	)
	return nil
}

func checkInput(t *table.Table) error {
	if t == nil {
		return &EmptyInputError{}
	}
	if t.NumCols() == 0 || t.NumRows() == 0 {
		return &EmptyInputError{Rows: t.NumRows(), Columns: t.NumCols()}
	}
	return nil
}

// prepared is the state shared by Run and ProfileTable after the first four stages.
type prepared struct {
	duplicates int
	cls        Classification
	md         Metadata
}

func (r *runner) prepare(opt Options) (prepared, error) {
	var p prepared
	err := r.stage(StageRemoveDuplicates, func() error {
		r.cur, p.duplicates = RemoveDuplicates(r.cur)
		return nil
	})
	if err != nil {
		return p, err
	}
	err = r.stage(StageStandardizeMissing, func() error {
		next, replaced, err := StandardizeMissing(r.cur)
		if err != nil {
			return err
		}
		if opt.CoerceNumericText {
			var converted []string
			next, converted, err = CoerceNumericText(next)
			if err != nil {
				return err
			}
			if len(converted) > 0 {
				r.log.Debug("cleaning: re-typed numeric text columns", zap.Strings("columns", converted))
			}
		}
		r.log.Debug("cleaning: missing tokens replaced", zap.Int("cells", replaced))
		r.cur = next
		return nil
	})
	if err != nil {
		return p, err
	}
	err = r.stage(StageClassifyColumns, func() error {
		p.cls = Classify(r.cur)
		return nil
	})
	if err != nil {
		return p, err
	}
	err = r.stage(StageComputeMetadata, func() error {
		p.md = ComputeMetadata(r.cur, p.cls.Types)
		return nil
	})
	return p, err
}

// Run cleans t and returns the cleaned table with its audit report. The
// input table is never modified. Only empty or structurally invalid input
// fails; per-column problems are recorded in the report.
func Run(t *table.Table, opt Options) (*table.Table, *Report, error) {
	if err := checkInput(t); err != nil {
		return nil, nil, err
	}
	runID := uuid.NewString()
	r := &runner{log: opt.logger().With(zap.String("run_id", runID)), cur: t}
	start := time.Now()

	p, err := r.prepare(opt)
	if err != nil {
		return nil, nil, err
	}

	policies := make(map[string]PolicyDecision, t.NumCols())
	var dropped []string
	err = r.stage(StageApplyPolicy, func() error {
		for _, name := range r.cur.Names() {
			d := Decide(name, p.md.MissingPercent[name], p.cls.Types[name])
			policies[name] = d
			if d.Policy == PolicyDrop {
				dropped = append(dropped, name)
			}
		}
		r.cur = r.cur.Drop(dropped...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	imputations := make(map[string]Imputation)
	finalTypes := make(map[string]ColumnType, r.cur.NumCols())
	for _, name := range r.cur.Names() {
		finalTypes[name] = p.cls.Types[name]
	}
	err = r.stage(StageImputeMissing, func() error {
		for _, c := range r.cur.Columns() {
			d := policies[c.Name]
			if d.Policy != PolicyImpute {
				continue
			}
			filled, imp := Impute(c, d)
			if imp.Err != nil {
				r.log.Warn("cleaning: datetime conversion failed, using categorical fill",
					zap.String("column", c.Name),
					zap.Error(imp.Err),
				)
			}
			next, err := r.cur.WithColumn(filled)
			if err != nil {
				return err
			}
			r.cur = next
			imputations[c.Name] = imp
			finalTypes[c.Name] = imp.ColumnType
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var outliers map[string]int
	err = r.stage(StageDetectOutliers, func() error {
		outliers = DetectOutliers(r.cur, finalTypes)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var report *Report
	err = r.stage(StageAssembleReport, func() error {
		report = assembleReport(assembly{
			runID:       runID,
			original:    t.Names(),
			origRows:    t.NumRows(),
			final:       r.cur.Names(),
			finalRows:   r.cur.NumRows(),
			duplicates:  p.duplicates,
			rules:       p.cls.Rules,
			policies:    policies,
			imputations: imputations,
			metadata:    p.md,
			outliers:    outliers,
			finalTypes:  finalTypes,
		})
		return report.Validate()
	})
	if err != nil {
		return nil, nil, err
	}

	r.log.Info("cleaning: run complete",
		zap.Int("rows", report.Summary.FinalRows),
		zap.Int("columns", report.Summary.FinalColumns),
		zap.Int("duplicates", report.DuplicateRows),
		zap.Int("imputed", report.Summary.ImputedColumns),
		zap.Int("excluded", report.Summary.ExcludedColumns),
		zap.Int("dropped", report.Summary.DroppedColumns),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return r.cur, report, nil
}

// Profile describes a table without applying any policy. It runs the
// duplicate, standardization, classification and metadata stages only.
type Profile struct {
	Rows          int             `json:"rows" yaml:"rows"`
	DuplicateRows int             `json:"duplicate_rows" yaml:"duplicate_rows"`
	Columns       []ColumnProfile `json:"columns" yaml:"columns"`
	Metadata      Metadata        `json:"metadata" yaml:"metadata"`
}

// ColumnProfile is one row of a Profile.
type ColumnProfile struct {
	Name               string     `json:"name" yaml:"name"`
	Kind               string     `json:"kind" yaml:"kind"`
	ColumnType         ColumnType `json:"column_type" yaml:"column_type"`
	ClassificationRule string     `json:"classification_rule" yaml:"classification_rule"`
	MissingPercent     float64    `json:"missing_percent" yaml:"missing_percent"`
	Cardinality        int        `json:"cardinality" yaml:"cardinality"`
	Skewness           *float64   `json:"skewness,omitempty" yaml:"skewness,omitempty"`
	Policy             Policy     `json:"policy" yaml:"policy"`
}

// ProfileTable runs the inspection stages over t.
func ProfileTable(t *table.Table, opt Options) (*Profile, error) {
	if err := checkInput(t); err != nil {
		return nil, err
	}
	r := &runner{log: opt.logger(), cur: t}
	p, err := r.prepare(opt)
	if err != nil {
		return nil, err
	}
	out := &Profile{Rows: r.cur.NumRows(), DuplicateRows: p.duplicates, Metadata: p.md}
	for _, c := range r.cur.Columns() {
		cp := ColumnProfile{
			Name:               c.Name,
			Kind:               c.Kind.String(),
			ColumnType:         p.cls.Types[c.Name],
			ClassificationRule: p.cls.Rules[c.Name],
			MissingPercent:     p.md.MissingPercent[c.Name],
			Cardinality:        p.md.Cardinality[c.Name],
		}
		if s, ok := p.md.Skewness[c.Name]; ok {
			s := s
			cp.Skewness = &s
		}
		cp.Policy = Decide(c.Name, cp.MissingPercent, cp.ColumnType).Policy
		out.Columns = append(out.Columns, cp)
	}
	return out, nil
}
