package ingest

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tidyset-cli/internal/table"
)

// Options controls how raw files are decoded into a table.
type Options struct {
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, chosen by extension (.tsv is tab, otherwise comma).
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // if 0, any of ',' '.' ' ' other than the decimal separator is stripped
	// XLSX sheet selection: name wins over the 1-based index.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns the dot-decimal, comma-thousands locale.
func DefaultOptions() Options {
	return Options{
		DecimalSeparator:   '.',
		ThousandsSeparator: ',',
		SheetIndex:         1,
	}
}

// Reader decodes one file format into a header and string records.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (header []string, rows [][]string, err error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
	Register(docxReader{})
}

// ErrNoData is returned when a document holds nothing tabular.
var ErrNoData = errors.New("no extractable data")

// UnsupportedFormatError is returned for files no reader accepts.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	ext := filepath.Ext(e.Path)
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file format %s for %s (use .csv, .tsv, .xlsx or .docx)", ext, filepath.Base(e.Path))
}

// ReadFile selects a reader by filename and decodes the file into a table.
func ReadFile(path string, opt Options) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	for _, r := range registry {
		if !r.CanRead(path) {
			continue
		}
		header, rows, err := r.Read(path, opt)
		if err != nil {
			return nil, err
		}
		return FromRecords(header, rows, opt)
	}
	return nil, &UnsupportedFormatError{Path: path}
}

// defaultNA are the cell spellings treated as missing while decoding, before
// any cleaning happens. Matching is exact.
var defaultNA = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// FromRecords builds a table from a header row and string records. Cells in
// the default NA set become nil. A column whose remaining cells all parse as
// numbers becomes a number column; everything else stays text.
func FromRecords(header []string, rows [][]string, opt Options) (*table.Table, error) {
	names := mangleHeader(header)
	ncol := len(names)
	vals := make([][]any, ncol)
	for j := range vals {
		vals[j] = make([]any, len(rows))
	}
	for i, rec := range rows {
		if len(rec) > ncol {
			return nil, fmt.Errorf("row %d: expected %d fields, saw %d", i+2, ncol, len(rec))
		}
		for j := 0; j < ncol; j++ {
			if j >= len(rec) {
				vals[j][i] = nil
				continue
			}
			if _, na := defaultNA[rec[j]]; na {
				vals[j][i] = nil
				continue
			}
			vals[j][i] = rec[j]
		}
	}
	cols := make([]table.Column, ncol)
	for j, name := range names {
		cols[j] = inferColumn(name, vals[j], opt)
	}
	return table.New(cols...)
}

func inferColumn(name string, vals []any, opt Options) table.Column {
	nums := make([]any, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		f, ok := parseNumeric(v.(string), opt)
		if !ok {
			return table.Column{Name: name, Kind: table.KindText, Values: vals}
		}
		nums[i] = f
	}
	return table.Column{Name: name, Kind: table.KindNumber, Values: nums}
}

// mangleHeader trims names, fills blanks as "Unnamed: i" and suffixes
// repeats as name.1, name.2.
func mangleHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			for {
				n++
				cand := fmt.Sprintf("%s.%d", name, n)
				if _, taken := seen[cand]; !taken {
					seen[name] = n
					name = cand
					break
				}
			}
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	var ok bool
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep == dec {
				continue
			}
			if raw, ok = stripGroups(raw, sep, dec); !ok {
				return 0, false
			}
		}
	} else if thou != dec {
		if raw, ok = stripGroups(raw, thou, dec); !ok {
			return 0, false
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// stripGroups removes the thousands separator sep from the integer part of
// raw. Separated groups must be well formed (1-3 leading digits, then groups
// of exactly 3), otherwise the cell is not a number.
func stripGroups(raw string, sep, dec rune) (string, bool) {
	if !strings.ContainsRune(raw, sep) {
		return raw, true
	}
	intPart, frac := raw, ""
	if i := strings.IndexRune(raw, dec); i >= 0 {
		intPart, frac = raw[:i], raw[i:]
	}
	if strings.ContainsRune(frac, sep) {
		return "", false
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") || strings.HasPrefix(intPart, "+") {
		sign, intPart = intPart[:1], intPart[1:]
	}
	groups := strings.Split(intPart, string(sep))
	for i, g := range groups {
		if g == "" || strings.Trim(g, "0123456789") != "" {
			return "", false
		}
		if (i == 0 && len(g) > 3) || (i > 0 && len(g) != 3) {
			return "", false
		}
	}
	return sign + strings.Join(groups, "") + frac, true
}
