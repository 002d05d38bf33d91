package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

var (
	batchSrc sourceFlags
	batchRun runFlags
)

var profileBatchCmd = &cobra.Command{
	Use:   "profile-batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX/HTML/SQLite files with progress",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		out := cmd.OutOrStdout()
		pipelineOut := out
		if batchRun.quiet {
			pipelineOut = io.Discard
		}
		c := currentConfig()
		p, opt, closeFn, err := newRun(cmd, c, batchRun, pipelineOut)
		if err != nil {
			return err
		}
		defer closeFn()

		var failed int
		for i, f := range files {
			if !batchRun.quiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, len(files), filepath.Base(f))
			}
			ds, err := loadDataset(cmd.Context(), f, batchSrc, c.Delimiter)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Skipping %s: %v\n", f, err)
				continue
			}
			path, err := profileOne(cmd.Context(), p, ds, opt, batchRun, c)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Skipping %s: %v\n", f, err)
				continue
			}
			fmt.Fprintf(out, "✓ Wrote %s report to %s\n", opt.Mode, path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileBatchCmd)
	addSourceFlags(profileBatchCmd, &batchSrc)
	addRunFlags(profileBatchCmd, &batchRun)
}

// expandInputs resolves globs, keeps literal paths that exist, dedups and sorts.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}
