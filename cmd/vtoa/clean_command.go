package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vtoa/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean <directory>",
		Short: "Remove temp files left in a directory by interrupted runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := filepath.Abs(stripQuotes(args[0]))
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			out := cmd.OutOrStdout()

			if dryRun {
				artifacts, err := staging.ListArtifacts(dir)
				if err != nil {
					return fmt.Errorf("list temp files: %w", err)
				}
				cutoff := time.Now().Add(-olderThan)
				rows := [][]string{}
				for _, a := range artifacts {
					if a.ModTime.Before(cutoff) {
						rows = append(rows, []string{a.Name, formatBytes(a.Size), a.ModTime.Format(time.DateTime)})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No stale temp files found")
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Size", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
				fmt.Fprintf(out, "%d file(s) would be removed\n", len(rows))
				return nil
			}

			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			result := staging.CleanStale(cmd.Context(), dir, olderThan, logger)
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", filepath.Base(path))
			}
			for _, e := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to remove %s: %v\n", e.Path, e.Error)
			}
			fmt.Fprintf(out, "Removed %d stale temp file(s)\n", len(result.Removed))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d temp file(s) could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Only remove temp files older than this")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the files instead of removing them")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
