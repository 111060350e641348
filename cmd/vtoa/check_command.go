package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"vtoa/internal/deps"
	"vtoa/internal/preflight"
)

var errCheckFailed = errors.New("required checks failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [directory]",
		Short: "Report external tools and directory access",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			missingRequired := false
			for _, s := range statuses {
				if !s.Available && !s.Optional {
					missingRequired = true
				}
				rows = append(rows, []string{s.Name, depState(s), s.Source, depDetail(s)})
			}
			fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
			fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Source", "Path"}, rows, nil))

			mediaDir := ""
			if len(args) == 1 {
				if mediaDir, err = filepath.Abs(stripQuotes(args[0])); err != nil {
					return fmt.Errorf("resolve directory: %w", err)
				}
			}
			results := preflight.RunAll(cmd.Context(), cfg, mediaDir)
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Preflight", colorize))
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintf(out, "  %-*s %s\n", statusLabelWidth, "ML silence default:", yesNo(cfg.Conversion.UseMLDetection))

			if missingRequired || len(preflight.Failed(results)) > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
}

func depState(s deps.Status) string {
	switch {
	case s.Available:
		return "ok"
	case s.Optional:
		return "missing (optional)"
	default:
		return "missing"
	}
}

func depDetail(s deps.Status) string {
	if s.Available {
		return s.Command
	}
	return s.Detail
}
