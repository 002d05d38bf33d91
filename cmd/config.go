package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/catprofile/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set catprofile configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "report_dir: %s\n", cfg.ReportDir)
		fmt.Fprintf(out, "cat_limit: %d\n", cfg.CatLimit)
		if len(cfg.MissingValues) > 0 {
			fmt.Fprintf(out, "missing_values: %s\n", strings.Join(cfg.MissingValues, ","))
		}
		fmt.Fprintf(out, "auto_prepare_default: %t\n", cfg.AutoPrepareDefault)
		fmt.Fprintf(out, "auto_prepare_interactive: %t\n", cfg.AutoPrepareInteractive)
		fmt.Fprintf(out, "workers: %d\n", cfg.Workers)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		if cfg.MetricsBackend != "" {
			fmt.Fprintf(out, "metrics_backend: %s\n", cfg.MetricsBackend)
		}
		if len(cfg.MetricsTags) > 0 {
			fmt.Fprintf(out, "metrics_tags: %s\n", strings.Join(cfg.MetricsTags, ","))
		}
		fmt.Fprintf(out, "serve_addr: %s\n", cfg.ServeAddr)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long:  "Set a config value and save to disk. Keys: " + strings.Join(cfgpkg.Keys, ", "),
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
		case "report_dir":
			cfg.ReportDir = val
		case "cat_limit":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for cat_limit: %v", val)
			}
			cfg.CatLimit = i
		case "missing_values":
			cfg.MissingValues = splitList(val)
		case "auto_prepare_default", "auto_prepare_interactive":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for %s: %w", key, err)
			}
			if key == "auto_prepare_default" {
				cfg.AutoPrepareDefault = b
			} else {
				cfg.AutoPrepareInteractive = b
			}
		case "workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for workers: %v", val)
			}
			cfg.Workers = i
		case "delimiter":
			if _, err := parseDelimiter(val, ""); err != nil {
				return err
			}
			cfg.Delimiter = val
		case "metrics_backend":
			switch strings.ToLower(val) {
			case "datadog":
				cfg.MetricsBackend = "datadog"
			case "none", "":
				cfg.MetricsBackend = ""
			default:
				return fmt.Errorf("invalid metrics_backend: %s (use datadog or none)", val)
			}
		case "metrics_tags":
			cfg.MetricsTags = splitList(val)
		case "serve_addr":
			cfg.ServeAddr = val
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

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
