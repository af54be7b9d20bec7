package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tidyset-cli/internal/cleaning"
	"github.com/KaramelBytes/tidyset-cli/internal/ingest"
)

var (
	inFormat   string
	inNoCoerce bool
	inIngest   ingestFlags
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show inferred column types, missing percentages and the policy each column would get",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c := currentConfig()
		in, err := inIngest.options(c)
		if err != nil {
			return err
		}
		format := "markdown"
		if inFormat != "" {
			if format, err = parseReportFormat(inFormat); err != nil {
				return err
			}
		}
		t, err := ingest.ReadFile(path, in)
		if err != nil {
			return err
		}
		opt := cleaningOptions(c, inNoCoerce, logger.With(zap.String("file", filepath.Base(path))))
		p, err := cleaning.ProfileTable(t, opt)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", filepath.Base(path), err)
		}
		body, err := encodeReport(p, format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(body)
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inFormat, "format", "", "output format: markdown|json|yaml (default markdown)")
	inspectCmd.Flags().BoolVar(&inNoCoerce, "no-coerce", false, "keep numeric-looking text columns as text")
	inIngest.register(inspectCmd)
}
