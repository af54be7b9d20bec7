package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tidyset-cli/internal/cleaning"
	cfgpkg "github.com/KaramelBytes/tidyset-cli/internal/config"
	"github.com/KaramelBytes/tidyset-cli/internal/ingest"
	"github.com/KaramelBytes/tidyset-cli/internal/table"
	"github.com/KaramelBytes/tidyset-cli/internal/utils"
)

// ingestFlags are the file-decoding flags shared by clean, clean-batch and inspect.
type ingestFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (f *ingestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ','|';'|'|'|'tab' (default by extension)")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'|'auto' (overrides config)")
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'|'auto' (overrides config)")
	cmd.Flags().IntVar(&f.maxRows, "max-rows", 0, "maximum data rows to read (0 = config value or unlimited)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// options merges flags over the configured defaults.
func (f *ingestFlags) options(c *cfgpkg.Global) (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	var err error
	if opt.Delimiter, err = parseDelimiter(firstNonEmpty(f.delimiter, c.Delimiter)); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator, err = parseDecimal(firstNonEmpty(f.decimal, c.DecimalSeparator)); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = parseThousands(firstNonEmpty(f.thousands, c.ThousandsSeparator)); err != nil {
		return opt, err
	}
	if opt.DecimalSeparator != 0 && opt.DecimalSeparator == opt.ThousandsSeparator {
		if f.thousands != "" {
			return opt, fmt.Errorf("--decimal and --thousands cannot both be %q", string(opt.DecimalSeparator))
		}
		// configured thousands separator clashes with a --decimal override
		opt.ThousandsSeparator = 0
	}
	opt.MaxRows = c.MaxRows
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	opt.SheetName = f.sheetName
	if f.sheetIndex > 0 {
		opt.SheetIndex = f.sheetIndex
	}
	return opt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	case "\t", "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "", "auto":
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma'|'auto')", s)
	}
}

func parseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	case "", "auto":
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space'|'auto')", s)
	}
}

func parseReportFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return "json", nil
	case "yaml", "yml":
		return "yaml", nil
	case "markdown", "md":
		return "markdown", nil
	default:
		return "", fmt.Errorf("unsupported report format: %s (use json|yaml|markdown)", s)
	}
}

func reportExt(format string) string {
	switch format {
	case "yaml":
		return ".yaml"
	case "markdown":
		return ".md"
	}
	return ".json"
}

type markdowner interface {
	Markdown() string
}

func encodeReport(v markdowner, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return utils.YAML(v)
	case "markdown":
		return []byte(v.Markdown()), nil
	default:
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}
}

func cleaningOptions(c *cfgpkg.Global, noCoerce bool, log *zap.Logger) cleaning.Options {
	opt := cleaning.DefaultOptions()
	opt.CoerceNumericText = c.CoerceNumericText && !noCoerce
	opt.Logger = log
	return opt
}

// cleanFile decodes one input file and runs the cleaning pipeline on it.
func cleanFile(path string, in ingest.Options, opt cleaning.Options) (*table.Table, *cleaning.Report, error) {
	t, err := ingest.ReadFile(path, in)
	if err != nil {
		return nil, nil, err
	}
	opt.Logger.Debug("ingest: table loaded", zap.Int("rows", t.NumRows()), zap.Int("columns", t.NumCols()))
	out, rep, err := cleaning.Run(t, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("clean %s: %w", filepath.Base(path), err)
	}
	return out, rep, nil
}

func writeTableCSV(path string, t *table.Table) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := ingest.WriteCSV(&buf, t); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func writeOutput(path string, data []byte) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, data)
}

// fileStem is the base name without extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
