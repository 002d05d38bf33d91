package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/catprofile/internal/config"
	"github.com/KaramelBytes/catprofile/internal/metrics"
	"github.com/KaramelBytes/catprofile/internal/metrics/datadog"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "catprofile",
	Short: "catprofile: profile the categorical columns of a dataset",
	Long: `catprofile reads a CSV, XLSX, HTML table or SQL query result and writes an HTML
report describing every categorical column: frequency tables, memory usage,
Cramér's V associations and pairwise contingency tables.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.catprofile/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output (per-column progress notes)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// currentConfig returns the loaded configuration or built-in defaults.
func currentConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	if c, err := cfgpkg.Load(cfgFile); err == nil {
		cfg = c
		return cfg
	}
	return &cfgpkg.Global{ReportDir: "report", CatLimit: 20, AutoPrepareInteractive: true, ServeAddr: ":8080"}
}

// newMetrics builds the configured metrics backend. Callers must Close it.
func newMetrics(ctx context.Context, c *cfgpkg.Global) (metrics.Backend, error) {
	switch c.MetricsBackend {
	case "", "none":
		return metrics.Nop{}, nil
	case "datadog":
		var tags []string
		for _, t := range c.MetricsTags {
			tags = append(tags, datadog.ParseTagsCSV(t)...)
		}
		b, err := datadog.NewBackend(ctx, datadog.Options{JobName: "catprofile", Tags: tags})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown metrics_backend: %s (use datadog or leave empty)", c.MetricsBackend)
	}
}
