package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tidyset-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TidySet configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		fmt.Fprintf(out, "report_format: %s\n", c.ReportFormat)
		if c.OutputDir != "" {
			fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		}
		fmt.Fprintf(out, "delimiter: %s\n", describeSeparator(c.Delimiter))
		fmt.Fprintf(out, "decimal_separator: %s\n", describeSeparator(c.DecimalSeparator))
		fmt.Fprintf(out, "thousands_separator: %s\n", describeSeparator(c.ThousandsSeparator))
		fmt.Fprintf(out, "max_rows: %d\n", c.MaxRows)
		fmt.Fprintf(out, "coerce_numeric_text: %t\n", c.CoerceNumericText)
		fmt.Fprintf(out, "batch_jobs: %d\n", c.BatchJobs)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "log_level":
			switch strings.ToLower(val) {
			case "debug", "info", "warn", "error":
				cfg.LogLevel = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		case "log_format":
			switch strings.ToLower(val) {
			case "console", "json":
				cfg.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use console or json)", val)
			}
		case "report_format":
			f, err := parseReportFormat(val)
			if err != nil {
				return err
			}
			cfg.ReportFormat = f
		case "output_dir":
			cfg.OutputDir = val
		case "delimiter":
			if _, err := parseDelimiter(val); err != nil {
				return err
			}
			cfg.Delimiter = val
		case "decimal_separator":
			if _, err := parseDecimal(val); err != nil {
				return err
			}
			cfg.DecimalSeparator = val
		case "thousands_separator":
			if _, err := parseThousands(val); err != nil {
				return err
			}
			cfg.ThousandsSeparator = val
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for max_rows: %v", val)
			}
			cfg.MaxRows = i
		case "coerce_numeric_text":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for coerce_numeric_text: %w", err)
			}
			cfg.CoerceNumericText = b
		case "batch_jobs":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for batch_jobs: %v", val)
			}
			cfg.BatchJobs = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func describeSeparator(s string) string {
	switch s {
	case "":
		return "auto"
	case "\t":
		return "tab"
	case " ":
		return "space"
	}
	return s
}
