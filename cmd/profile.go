package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/catprofile/internal/chart"
	cfgpkg "github.com/KaramelBytes/catprofile/internal/config"
	"github.com/KaramelBytes/catprofile/internal/dataset"
	"github.com/KaramelBytes/catprofile/internal/prepare"
	"github.com/KaramelBytes/catprofile/internal/profile"
	"github.com/KaramelBytes/catprofile/internal/report"
)

// runFlags tune the profiling run itself.
type runFlags struct {
	mode          string
	catLimit      int
	missingValues []string
	autoPrepare   bool
	outputDir     string
	format        string
	workers       int
	decimalSep    string
	thousandsSep  string
	quiet         bool
}

var (
	profileSrc sourceFlags
	profileRun runFlags
)

var profileCmd = &cobra.Command{
	Use:   "profile <file|dsn>",
	Short: "Profile the categorical columns of a dataset and write a report",
	Long: `Profile a CSV/TSV, XLSX, HTML table or SQLite file and write the report.

With --driver (sqlite, postgres, sqlserver) the argument is a DSN and --table
or --query selects the rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if profileRun.quiet {
			out = io.Discard
		}
		c := currentConfig()
		p, opt, closeFn, err := newRun(cmd, c, profileRun, out)
		if err != nil {
			return err
		}
		defer closeFn()

		ds, err := loadDataset(cmd.Context(), args[0], profileSrc, c.Delimiter)
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		path, err := profileOne(cmd.Context(), p, ds, opt, profileRun, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s report to %s\n", opt.Mode, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	addSourceFlags(profileCmd, &profileSrc)
	profileCmd.Flags().StringVar(&profileSrc.name, "name", "", "dataset title shown in the report (default: file base name)")
	profileCmd.Flags().StringVar(&profileSrc.table, "table", "", "SQL table to read (with --driver or a .db file)")
	profileCmd.Flags().StringVar(&profileSrc.query, "query", "", "SQL query to read; wins over --table")
	profileCmd.Flags().StringVar(&profileSrc.driver, "driver", "", "treat the argument as a DSN: sqlite|postgres|sqlserver")
	addRunFlags(profileCmd, &profileRun)
}

func addSourceFlags(c *cobra.Command, s *sourceFlags) {
	c.Flags().StringVar(&s.delimiter, "delimiter", "", "CSV delimiter: ',', ';', 'tab' (default: sniff)")
	c.Flags().StringVar(&s.sheetName, "sheet-name", "", "XLSX: sheet name to read (defaults to first sheet)")
	c.Flags().IntVar(&s.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().StringVar(&s.selector, "selector", "", "HTML: CSS selector of the table to read (default: first table)")
}

func addRunFlags(c *cobra.Command, r *runFlags) {
	c.Flags().StringVar(&r.mode, "mode", "default", "report mode: default|interactive")
	c.Flags().IntVar(&r.catLimit, "cat-limit", 0, "maximum categories per column (default from config, 20)")
	c.Flags().StringSliceVar(&r.missingValues, "missing-values", nil, "extra tokens treated as missing (comma-separated)")
	c.Flags().BoolVar(&r.autoPrepare, "auto-prepare", false, "normalize missing tokens and order numeric/date columns (default: on for interactive)")
	c.Flags().StringVarP(&r.outputDir, "output-dir", "o", "", "directory for reports (default from config, ./report)")
	c.Flags().StringVar(&r.format, "format", "html", "output format: html|json|yaml|markdown")
	c.Flags().IntVar(&r.workers, "workers", 0, "parallel workers for pair statistics (0 = NumCPU)")
	c.Flags().StringVar(&r.decimalSep, "decimal", "", "decimal separator for numeric columns: '.' or ',' (default: auto)")
	c.Flags().StringVar(&r.thousandsSep, "thousands", "", "thousands separator for numeric columns: ',', '.', ' ' (default: auto)")
	c.Flags().BoolVar(&r.quiet, "quiet", false, "suppress progress output")
}

// newRun resolves flags against the config into a pipeline and its options.
// The returned close func flushes metrics.
func newRun(cmd *cobra.Command, c *cfgpkg.Global, r runFlags, out io.Writer) (*profile.Pipeline, profile.Options, func(), error) {
	mode, err := profile.ParseMode(r.mode)
	if err != nil {
		return nil, profile.Options{}, nil, err
	}
	if _, err := report.ParseFormat(r.format); err != nil {
		return nil, profile.Options{}, nil, err
	}
	opt := c.Options(mode)
	if cmd.Flags().Changed("cat-limit") {
		if r.catLimit <= 0 {
			return nil, profile.Options{}, nil, fmt.Errorf("--cat-limit must be positive")
		}
		opt.CatLimit = r.catLimit
	}
	if len(r.missingValues) > 0 {
		opt.MissingValues = append(opt.MissingValues, r.missingValues...)
	}
	if cmd.Flags().Changed("auto-prepare") {
		opt.AutoPrepare = r.autoPrepare
	}
	if cmd.Flags().Changed("workers") {
		opt.Workers = r.workers
	}

	prep := prepare.NewAuto()
	if prep.DecimalSeparator, err = decimalSeparator(r.decimalSep); err != nil {
		return nil, profile.Options{}, nil, err
	}
	if prep.ThousandsSeparator, err = thousandsSeparator(r.thousandsSep); err != nil {
		return nil, profile.Options{}, nil, err
	}

	m, err := newMetrics(context.Background(), c)
	if err != nil {
		return nil, profile.Options{}, nil, err
	}
	closeFn := func() {
		if err := m.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: metrics flush failed: %v\n", err)
		}
	}
	p := &profile.Pipeline{
		Preparer: prep,
		Charts:   chart.Renderer{},
		Progress: profile.NewWriterProgress(out, debug),
		Metrics:  m,
	}
	return p, opt, closeFn, nil
}

// profileOne runs the pipeline over ds and saves the report, returning its path.
func profileOne(ctx context.Context, p *profile.Pipeline, ds *dataset.Dataset, opt profile.Options, r runFlags, c *cfgpkg.Global) (string, error) {
	f, err := report.ParseFormat(r.format)
	if err != nil {
		return "", err
	}
	if opt.Title == "" {
		opt.Title = ds.Name
	}
	res, err := p.Run(ctx, ds, opt)
	if err != nil {
		return "", fmt.Errorf("profile %s: %w", ds.Name, err)
	}
	dir := r.outputDir
	if dir == "" {
		dir = c.ReportDir
	}
	path, err := report.Writer{Dir: dir}.Save(res, f)
	if err != nil {
		return "", err
	}
	return path, nil
}

func decimalSeparator(v string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "":
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", v)
	}
}

func thousandsSeparator(v string) (rune, error) {
	switch strings.ToLower(v) {
	case ",":
		return ',', nil
	case ".":
		return '.', nil
	case "space", " ":
		return ' ', nil
	case "":
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", v)
	}
}
