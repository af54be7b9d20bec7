package cleaning

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Markdown renders the report as a compact plain-text document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLEANING SUMMARY]\n")
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}
	s := r.Summary
	b.WriteString(fmt.Sprintf("Rows: %d -> %d (duplicates removed %d)\n", s.OriginalRows, s.FinalRows, s.DuplicatesRemoved))
	b.WriteString(fmt.Sprintf("Columns: %d -> %d\n", s.OriginalColumns, s.FinalColumns))
	b.WriteString(fmt.Sprintf("Imputed: %d, excluded: %d, dropped: %d\n", s.ImputedColumns, s.ExcludedColumns, s.DroppedColumns))
	b.WriteString(fmt.Sprintf("Stages: %s\n", strings.Join(r.Stages, " > ")))

	b.WriteString("\n[COLUMN DECISIONS]\n")
	for _, name := range r.InputColumns {
		d, ok := r.Decisions[name]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s, missing %.2f%% -> %s", safeName(name), d.ColumnType, d.MissingPercent, d.Action))
		if d.Description != "" {
			b.WriteString(" (" + d.Description + ")")
		} else if d.Reason != "" {
			b.WriteString(" (" + d.Reason + ")")
		}
		if skew, ok := r.Metadata.Skewness[name]; ok {
			b.WriteString(fmt.Sprintf("; skew %.2f", skew))
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range r.Warnings {
			b.WriteString(fmt.Sprintf("- %s: %s\n", safeName(w.Column), w.Message))
		}
	}

	if pairs := topCorrelations(r.Metadata.Correlation, 10); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.2f\n", safeName(p.A), safeName(p.B), p.R))
		}
	}

	if len(r.Metadata.Outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		names := make([]string, 0, len(r.Metadata.Outliers))
		for k := range r.Metadata.Outliers {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			b.WriteString(fmt.Sprintf("- %s: %d values with |z|>%.0f\n", safeName(k), r.Metadata.Outliers[k], outlierZ))
		}
	}
	return b.String()
}

// Markdown renders the profile as a schema listing.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET PROFILE]\n")
	b.WriteString(fmt.Sprintf("Rows: %d (duplicates %d)\n", p.Rows, p.DuplicateRows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Columns)))
	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s via %s (storage %s, missing %.2f%%, distinct %d",
			safeName(c.Name), c.ColumnType, c.ClassificationRule, c.Kind, c.MissingPercent, c.Cardinality))
		if c.Skewness != nil {
			b.WriteString(fmt.Sprintf(", skew %.2f", *c.Skewness))
		}
		b.WriteString(fmt.Sprintf(") policy %s\n", c.Policy))
	}
	if pairs := topCorrelations(p.Metadata.Correlation, 10); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, pr := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.2f\n", safeName(pr.A), safeName(pr.B), pr.R))
		}
	}
	return b.String()
}

type corrPair struct {
	A, B string
	R    float64
}

// topCorrelations lists each off-diagonal pair once, strongest |r| first.
func topCorrelations(m map[string]map[string]float64, limit int) []corrPair {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	var pairs []corrPair
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if r, ok := m[names[i]][names[j]]; ok {
				pairs = append(pairs, corrPair{A: names[i], B: names[j], R: r})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return strings.ReplaceAll(s, "\n", " ")
}
