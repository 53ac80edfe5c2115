// Package writer contains the default plain-text results writer. It
// renders per-scenario summaries, per-suite summaries and two run-level
// files: Summary_totals.txt (one counts row per scenario) and
// Summary_errors.txt (every failed query of the run).
package writer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/plugin"
	"github.com/kadlec/drover/internal/props"
)

const (
	namePad    = 50
	resultsPad = 6

	dateFormat = "2006-01-02 15:04:05"
	tsFormat   = "_20060102_150405"

	totalsFile = "Summary_totals.txt"
	errorsFile = "Summary_errors.txt"
)

// Default writes scenario results as plain text under the run output
// directory. The zero value is not usable; construct with NewDefault.
type Default struct {
	log *slog.Logger
	now func() time.Time

	outputDir  string
	totalsPath string
	errorsPath string
}

var _ plugin.ResultWriter = (*Default)(nil)

// Option configures a Default writer.
type Option func(*Default)

// WithNow replaces the wall clock, for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(w *Default) { w.now = now }
}

// NewDefault creates the default results writer.
func NewDefault(log *slog.Logger, opts ...Option) *Default {
	w := &Default{log: log, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Init binds the writer to the run's output directory. It declines the run
// when the directory is unset, cannot be created or is not a directory.
func (w *Default) Init(p *props.Properties) bool {
	dir := p.OutputDir()
	if dir == "" {
		w.log.Error("cannot write results, output directory is not set")
		return false
	}
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		w.log.Error("cannot write results, output path is not a directory", "path", dir)
		return false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.log.Error("cannot write results, output directory cannot be created", "path", dir, "error", err)
		return false
	}
	w.outputDir = dir
	w.totalsPath = filepath.Join(dir, totalsFile)
	w.errorsPath = filepath.Join(dir, errorsFile)
	return true
}

// Destroy releases the output binding.
func (w *Default) Destroy() error {
	w.outputDir = ""
	w.totalsPath = ""
	w.errorsPath = ""
	return nil
}

// WriteScenario renders one scenario: its summary file, its row in the
// run totals, its failed queries in the run errors file and one summary
// pair per suite. Failures are reported, not fatal to the run.
func (w *Default) WriteScenario(scen *model.Scenario) error {
	if err := w.writeSummary(scen); err != nil {
		return fmt.Errorf("write summary of scenario %s: %w", scen.ID, err)
	}
	scenDir := filepath.Join(w.outputDir, scen.ID)
	if err := os.MkdirAll(scenDir, 0o755); err != nil {
		return fmt.Errorf("create output directory of scenario %s: %w", scen.ID, err)
	}
	for _, su := range scen.Suites {
		if err := w.writeSuite(scenDir, su); err != nil {
			return fmt.Errorf("write result of suite %s: %w", su.ID, err)
		}
	}
	return nil
}

// writeSummary writes Summary_<scenario>.txt and appends the scenario to
// the run-level totals and errors files, creating their headers on first
// use.
func (w *Default) writeSummary(scen *model.Scenario) error {
	var sb strings.Builder
	w.scenarioHeader(&sb, scen)
	failedQueries(&sb, scen)
	if err := os.WriteFile(filepath.Join(w.outputDir, "Summary_"+scen.ID+".txt"), []byte(sb.String()), 0o644); err != nil {
		return err
	}

	var totals strings.Builder
	if _, err := os.Stat(w.totalsPath); os.IsNotExist(err) {
		totals.WriteString("==============\n")
		totals.WriteString("Summary totals\n")
		totals.WriteString("==============\n")
		countsRow(&totals, "Scenario", "Pass", "Fail", "Skip", "Total")
	}
	pass, fail, all := scen.Passed(), scen.Failed(), scen.All()
	countsRow(&totals, scen.ID,
		fmt.Sprint(pass), fmt.Sprint(fail), fmt.Sprint(all-fail-pass), fmt.Sprint(all))
	if err := appendFile(w.totalsPath, totals.String()); err != nil {
		return err
	}

	var errs strings.Builder
	if _, err := os.Stat(w.errorsPath); os.IsNotExist(err) {
		errs.WriteString("==============\n")
		errs.WriteString("Summary errors\n")
		errs.WriteString("==============\n")
	}
	failedQueries(&errs, scen)
	return appendFile(w.errorsPath, errs.String())
}

// writeSuite writes the suite's cumulative summary (<suite>.txt, appended
// across runs over the same output directory) and a per-run snapshot
// (<suite>_<timestamp>.txt, truncated).
func (w *Default) writeSuite(scenDir string, su *model.Suite) error {
	var sb strings.Builder
	suiteHeader(&sb, su)
	suiteResults(&sb, su)

	snapshot := su.ID + w.now().Format(tsFormat) + ".txt"
	if err := os.WriteFile(filepath.Join(scenDir, snapshot), []byte(sb.String()), 0o644); err != nil {
		return err
	}
	// separate appended blocks
	sb.WriteString("\n\n")
	return appendFile(filepath.Join(scenDir, su.ID+".txt"), sb.String())
}

func (w *Default) scenarioHeader(sb *strings.Builder, scen *model.Scenario) {
	fmt.Fprintf(sb, "Scenario - %s\n", scen.ID)
	sb.WriteString("======================\n")
	fmt.Fprintf(sb, "Start Time:           %s\n", w.formatTime(scen.StartTime))
	fmt.Fprintf(sb, "End Time:             %s\n", w.formatTime(scen.EndTime))
	fmt.Fprintf(sb, "Elapsed:              %s\n", elapsed(scen.Duration()))
	sb.WriteString("----------------------\n")
	fmt.Fprintf(sb, "Number of all suites: %d\n", len(scen.Suites))
	countsRow(sb, "Name", "Pass", "Fail", "Skip", "Total")
	var allPass, allFail, allSkip, allAll int
	for _, su := range scen.Suites {
		pass, fail, all := su.Passed(), su.Failed(), su.All()
		skip := all - fail - pass
		countsRow(sb, su.ID,
			fmt.Sprint(pass), fmt.Sprint(fail), fmt.Sprint(skip), fmt.Sprint(all))
		allPass += pass
		allFail += fail
		allSkip += skip
		allAll += all
	}
	sb.WriteString("----------------------\n")
	countsRow(sb, "Totals",
		fmt.Sprint(allPass), fmt.Sprint(allFail), fmt.Sprint(allSkip), fmt.Sprint(allAll))
}

func suiteHeader(sb *strings.Builder, su *model.Suite) {
	fmt.Fprintf(sb, "Suite - %s\n", su.ID)
	sb.WriteString("============================\n")
	fmt.Fprintf(sb, "Start Time:                 %s\n", su.StartTime.Format(dateFormat))
	fmt.Fprintf(sb, "End Time:                   %s\n", su.EndTime.Format(dateFormat))
	fmt.Fprintf(sb, "Elapsed:                    %s\n", elapsed(su.Duration()))
	fmt.Fprintf(sb, "Number of all queries:      %d\n", su.All())
	fmt.Fprintf(sb, "Number of skipped queries:  %d\n", su.Skipped())
	fmt.Fprintf(sb, "Number of executed queries: %d\n", su.Executed())
	fmt.Fprintf(sb, "Number of passed queries:   %d\n", su.Passed())
	fmt.Fprintf(sb, "Number of failed queries:   %d\n", su.Failed())
	sb.WriteString("============================\n")
}

func suiteResults(sb *strings.Builder, su *model.Suite) {
	executed := su.ExecutedQueries()
	if len(executed) == 0 {
		return
	}
	sb.WriteString("\n")
	for _, q := range executed {
		fmt.Fprintf(sb, "%s: %s\n", q.ID, q.Result)
	}
}

// failedQueries appends the failed-queries block for one scenario; it
// appends nothing when every executed query passed.
func failedQueries(sb *strings.Builder, scen *model.Scenario) {
	failed := scen.FailedQueries()
	if len(failed) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString("----------------------\n")
	fmt.Fprintf(sb, "Failed queries [%s]\n", scen.ID)
	for _, fq := range failed {
		fmt.Fprintf(sb, "    %s_%s - %s\n", fq.Suite, fq.Query.ID, fq.Query.Result.Detail)
	}
}

func countsRow(sb *strings.Builder, name, pass, fail, skip, total string) {
	sb.WriteString(pad(name, namePad))
	sb.WriteString(pad(pass, resultsPad))
	sb.WriteString(pad(fail, resultsPad))
	sb.WriteString(pad(skip, resultsPad))
	sb.WriteString(pad(total, resultsPad))
	sb.WriteString("\n")
}

// formatTime renders t, substituting the current time when t was never
// stamped.
func (w *Default) formatTime(t time.Time) string {
	if t.IsZero() {
		t = w.now()
	}
	return t.Format(dateFormat)
}

// pad right-pads s with spaces to length; longer strings pass through
// unchanged.
func pad(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// elapsed renders a duration as hh:mm:ss.mmm.
func elapsed(d time.Duration) string {
	if d < 0 {
		return fmt.Sprintf("%d", d.Milliseconds())
	}
	ms := d.Milliseconds()
	sec := ms / 1000
	ms -= sec * 1000
	min := sec / 60
	sec -= min * 60
	hours := min / 60
	min -= hours * 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, min, sec, ms)
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
