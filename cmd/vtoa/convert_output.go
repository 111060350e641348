package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vtoa/internal/batch"
	"vtoa/internal/config"
	"vtoa/internal/pipeline"
)

const (
	bannerWidth  = 60
	detailIndent = "      "
	markOK       = "✓"
	markFailed   = "✗"
)

func renderBanner(title string) string {
	rule := strings.Repeat("=", bannerWidth)
	pad := (bannerWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	return rule + "\n" + strings.Repeat(" ", pad) + title + "\n" + rule
}

// progressPrinter renders batch progress the way a sequential run reads:
// a header when a file starts and a status line when it ends. With several
// workers the status line repeats the label so interleaved lines stay clear.
type progressPrinter struct {
	out      io.Writer
	job      config.Job
	parallel bool
	colorize bool
}

func newProgressPrinter(out io.Writer, job config.Job, workers int, colorize bool) *progressPrinter {
	return &progressPrinter{out: out, job: job, parallel: workers > 1, colorize: colorize}
}

func (p *progressPrinter) print(ev batch.Progress) {
	name := filepath.Base(ev.Candidate)
	if !ev.Done {
		fmt.Fprintf(p.out, "\n%s Converting: %s\n", ev.Label(), name)
		if output, err := pipeline.OutputPath(ev.Candidate, p.job); err == nil {
			fmt.Fprintf(p.out, "%sOutput: %s\n", detailIndent, filepath.Base(output))
		}
		return
	}

	prefix := detailIndent
	if p.parallel {
		prefix = ev.Label() + " " + name + " "
	}
	fmt.Fprintf(p.out, "%sStatus: %s\n", prefix, p.status(ev.Outcome))
}

func (p *progressPrinter) status(o pipeline.Outcome) string {
	var text, color string
	switch {
	case o.Succeeded:
		text, color = markOK+" Completed", ansiGreen
		if o.FellBack {
			text += " (threshold silence fallback)"
		}
	case o.Skipped:
		text, color = "- Skipped", ansiYellow
	default:
		text, color = markFailed+" FAILED", ansiRed
	}
	if p.colorize {
		return color + text + ansiReset
	}
	return text
}

// printSummary writes the counts table, the per-file error block, and the
// closing line.
func printSummary(out io.Writer, report batch.Report, colorize bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderBanner("SUMMARY"))

	rows := [][]string{
		{"Total files", strconv.Itoa(report.Total())},
		{"Successful", strconv.Itoa(report.Succeeded())},
		{"Failed", strconv.Itoa(report.Failed())},
	}
	if n := report.Skipped(); n > 0 {
		rows = append(rows, []string{"Skipped", strconv.Itoa(n)})
	}
	if n := report.FellBack(); n > 0 {
		rows = append(rows, []string{"Silence fallback", strconv.Itoa(n)})
	}
	rows = append(rows, []string{"Elapsed", report.Duration.Round(100*time.Millisecond).String()})
	fmt.Fprintln(out, renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	failures := report.Failures()
	if len(failures) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderBanner("ERRORS"))
		for _, o := range failures {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "File: %s\n", filepath.Base(o.Source))
			fmt.Fprintln(out, "Error:")
			for _, line := range strings.Split(failureText(o), "\n") {
				fmt.Fprintf(out, "  %s\n", line)
			}
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, strings.Repeat("=", bannerWidth))
	}
	fmt.Fprintln(out)

	switch {
	case len(failures) > 0:
		fmt.Fprintln(out, colorText(fmt.Sprintf("Conversion completed with %d error(s).", len(failures)), ansiRed, colorize))
	case report.Skipped() > 0:
		fmt.Fprintln(out, colorText(fmt.Sprintf("Conversion interrupted; %d file(s) not started.", report.Skipped()), ansiYellow, colorize))
	default:
		fmt.Fprintln(out, colorText("All files converted successfully!", ansiGreen, colorize))
	}
}

func failureText(o pipeline.Outcome) string {
	if reason := strings.TrimSpace(o.Reason()); reason != "" {
		return reason
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return "unknown error"
}
