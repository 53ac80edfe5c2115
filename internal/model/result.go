package model

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScenarioCounts is the per-scenario record kept inside a RunResult.
// Skipped scenarios keep the totals of their attached suites with zero
// executed queries, so run-level skip counts stay meaningful.
type ScenarioCounts struct {
	ID       string `yaml:"id"`
	Status   string `yaml:"status"`
	Passed   int    `yaml:"passed"`
	Failed   int    `yaml:"failed"`
	Skipped  int    `yaml:"skipped"`
	All      int    `yaml:"all"`
	Duration string `yaml:"duration,omitempty"`
}

// RunResult aggregates scenario counts for one run. Records keep scenario
// completion order. Collect must not be called after the orchestrator has
// finalized the run.
type RunResult struct {
	Scenarios []ScenarioCounts
}

// Collect folds one terminal scenario into the result. It is additive and
// called exactly once per scenario, whether the scenario ran or was skipped.
func (r *RunResult) Collect(s *Scenario) {
	r.Scenarios = append(r.Scenarios, ScenarioCounts{
		ID:       s.ID,
		Status:   s.Status.String(),
		Passed:   s.Passed(),
		Failed:   s.Failed(),
		Skipped:  s.Skipped(),
		All:      s.All(),
		Duration: s.Duration().String(),
	})
}

// Passed returns the run-level passed count.
func (r *RunResult) Passed() int {
	n := 0
	for _, s := range r.Scenarios {
		n += s.Passed
	}
	return n
}

// Failed returns the run-level failed count.
func (r *RunResult) Failed() int {
	n := 0
	for _, s := range r.Scenarios {
		n += s.Failed
	}
	return n
}

// Skipped returns the run-level skipped count.
func (r *RunResult) Skipped() int {
	n := 0
	for _, s := range r.Scenarios {
		n += s.Skipped
	}
	return n
}

// All returns the run-level query count.
func (r *RunResult) All() int {
	n := 0
	for _, s := range r.Scenarios {
		n += s.All
	}
	return n
}

// DumpTo writes the result as result.yaml inside dir, creating dir if
// needed.
func (r *RunResult) DumpTo(dir string) error {
	if dir == "" {
		return fmt.Errorf("dump run result: output directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dump run result: %w", err)
	}
	doc := struct {
		Scenarios []ScenarioCounts `yaml:"scenarios"`
		Totals    ScenarioCounts   `yaml:"totals"`
	}{
		Scenarios: r.Scenarios,
		Totals: ScenarioCounts{
			ID:      "totals",
			Passed:  r.Passed(),
			Failed:  r.Failed(),
			Skipped: r.Skipped(),
			All:     r.All(),
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("dump run result: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "result.yaml"), data, 0o644)
}
