package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	clOutput   string
	clReport   string
	clFormat   string
	clNoCoerce bool
	clIngest   ingestFlags
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean one CSV/TSV/XLSX/DOCX table and write the cleaned table plus an audit report",
	Long: `Clean removes duplicate rows, standardizes missing-value spellings, classifies every column,
then imputes, excludes or drops columns based on how much data is missing.

The cleaned table is written as CSV (default: <name>.cleaned.csv next to the input, or in output_dir).
The report is written to --report, or printed to stdout when --report is not given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c := currentConfig()
		in, err := clIngest.options(c)
		if err != nil {
			return err
		}
		format, err := parseReportFormat(firstNonEmpty(clFormat, c.ReportFormat))
		if err != nil {
			return err
		}
		log := logger.With(zap.String("file", filepath.Base(path)))
		out, rep, err := cleanFile(path, in, cleaningOptions(c, clNoCoerce, log))
		if err != nil {
			return err
		}

		outPath := clOutput
		if outPath == "" {
			dir := c.OutputDir
			if dir == "" {
				dir = filepath.Dir(path)
			}
			outPath = filepath.Join(dir, fileStem(path)+".cleaned.csv")
		}
		if err := writeTableCSV(outPath, out); err != nil {
			return fmt.Errorf("write cleaned table: %w", err)
		}
		body, err := encodeReport(rep, format)
		if err != nil {
			return err
		}

		s := rep.Summary
		status := cmd.ErrOrStderr()
		fmt.Fprintf(status, "✓ Cleaned %s: %d×%d → %d×%d (duplicates %d, imputed %d, excluded %d, dropped %d)\n",
			filepath.Base(path), s.OriginalRows, s.OriginalColumns, s.FinalRows, s.FinalColumns,
			s.DuplicatesRemoved, s.ImputedColumns, s.ExcludedColumns, s.DroppedColumns)
		for _, w := range rep.Warnings {
			fmt.Fprintf(status, "⚠ %s: %s\n", w.Column, w.Message)
		}
		fmt.Fprintf(status, "✓ Wrote cleaned table to %s\n", outPath)
		if clReport == "" {
			_, err := cmd.OutOrStdout().Write(body)
			return err
		}
		if err := writeOutput(clReport, body); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(status, "✓ Wrote report to %s\n", clReport)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clOutput, "output", "o", "", "path for the cleaned CSV")
	cleanCmd.Flags().StringVarP(&clReport, "report", "r", "", "path for the report (default: print to stdout)")
	cleanCmd.Flags().StringVar(&clFormat, "format", "", "report format: json|yaml|markdown (overrides config)")
	cleanCmd.Flags().BoolVar(&clNoCoerce, "no-coerce", false, "keep numeric-looking text columns as text")
	clIngest.register(cleanCmd)
}
