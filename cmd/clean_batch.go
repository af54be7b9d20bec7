package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tidyset-cli/internal/cleaning"
	"github.com/KaramelBytes/tidyset-cli/internal/utils"
)

var (
	cbOutDir   string
	cbJobs     int
	cbFormat   string
	cbQuiet    bool
	cbNoCoerce bool
	cbIngest   ingestFlags
)

type batchResult struct {
	index  int
	input  string
	table  string
	report string
	rep    *cleaning.Report
	err    error
}

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Clean multiple CSV/TSV/XLSX/DOCX files concurrently with progress",
	Long: `Clean every matched file and write <name>.cleaned.csv plus <name>.report.<ext> into --out-dir.
When two inputs share a name the later one is written as <name>__2, <name>__3 and so on.
A failing file does not stop the others; the command exits non-zero if any file failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := utils.ExpandGlobs(args)
		if err != nil {
			return err
		}
		c := currentConfig()
		outDir := firstNonEmpty(cbOutDir, c.OutputDir)
		if outDir == "" {
			return fmt.Errorf("--out-dir is required (or set output_dir in config)")
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return err
		}
		in, err := cbIngest.options(c)
		if err != nil {
			return err
		}
		format, err := parseReportFormat(firstNonEmpty(cbFormat, c.ReportFormat))
		if err != nil {
			return err
		}
		jobs := c.BatchJobs
		if cbJobs > 0 {
			jobs = cbJobs
		}
		ext := ".report" + reportExt(format)

		// Output names are planned up front so that workers never race on a stem.
		reserved := map[string]bool{}
		stems := make([]string, len(files))
		for i, f := range files {
			stems[i] = utils.UniqueStem(outDir, fileStem(f), []string{".cleaned.csv", ext}, reserved)
		}

		total := len(files)
		var mu sync.Mutex
		p := pool.NewWithResults[batchResult]().WithMaxGoroutines(jobs)
		for i, path := range files {
			i, path := i, path // per-iteration copies (Go 1.22 loopvar semantics under go 1.21)
			p.Go(func() batchResult {
				if !cbQuiet {
					mu.Lock()
					fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
					mu.Unlock()
				}
				res := batchResult{index: i, input: path, table: stems[i] + ".cleaned.csv", report: stems[i] + ext}
				log := logger.With(zap.String("file", filepath.Base(path)))
				out, rep, err := cleanFile(path, in, cleaningOptions(c, cbNoCoerce, log))
				if err != nil {
					res.err = err
					return res
				}
				res.rep = rep
				if err := writeTableCSV(res.table, out); err != nil {
					res.err = fmt.Errorf("write cleaned table: %w", err)
					return res
				}
				body, err := encodeReport(rep, format)
				if err == nil {
					err = writeOutput(res.report, body)
				}
				if err != nil {
					res.err = fmt.Errorf("write report: %w", err)
				}
				return res
			})
		}
		results := p.Wait()
		sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })

		failed := 0
		status := cmd.ErrOrStderr()
		for _, r := range results {
			if r.err != nil {
				failed++
				logger.Error("batch: file failed", zap.String("file", r.input), zap.Error(r.err))
				fmt.Fprintf(status, "✗ %s: %v\n", filepath.Base(r.input), r.err)
				continue
			}
			if cbQuiet {
				continue
			}
			s := r.rep.Summary
			fmt.Fprintf(status, "✓ %s → %s (%d×%d → %d×%d)\n", filepath.Base(r.input), filepath.Base(r.table),
				s.OriginalRows, s.OriginalColumns, s.FinalRows, s.FinalColumns)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		if !cbQuiet {
			fmt.Fprintf(status, "✓ Cleaned %d files into %s\n", total, outDir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	cleanBatchCmd.Flags().StringVar(&cbOutDir, "out-dir", "", "directory for cleaned tables and reports (default: output_dir from config)")
	cleanBatchCmd.Flags().IntVar(&cbJobs, "jobs", 0, "files cleaned in parallel (default: batch_jobs from config)")
	cleanBatchCmd.Flags().StringVar(&cbFormat, "format", "", "report format: json|yaml|markdown (overrides config)")
	cleanBatchCmd.Flags().BoolVar(&cbQuiet, "quiet", false, "suppress progress output")
	cleanBatchCmd.Flags().BoolVar(&cbNoCoerce, "no-coerce", false, "keep numeric-looking text columns as text")
	cbIngest.register(cleanBatchCmd)
}
