// Package source discovers scenario definitions and constructs scenarios
// from them, including suite discovery.
//
// A Source is a lazy, single-pass sequence: construction only lists and
// filters candidate files, each Next call loads one scenario's properties
// layer and its suites. The emission order is the lexicographic order of
// the raw file names; run reports depend on this being stable.
package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/props"
)

// ScenarioFileSuffix is the suffix scenario definition files must carry
// when the scenario path is a directory.
const ScenarioFileSuffix = ".properties"

// SuiteFileSuffix is the suffix suite definition files must carry.
const SuiteFileSuffix = ".yaml"

// SuiteLoader parses one suite definition file into a populated suite.
// Implemented by internal/loader.
type SuiteLoader interface {
	LoadSuite(path string) (*model.Suite, error)
}

// Source yields scenario-construction requests for one run.
type Source struct {
	log    *slog.Logger
	base   *props.Properties
	loader SuiteLoader
	files  []string // absolute or caller-relative paths, ordered
	idx    int
}

// New builds a source over the scenario path configured in runProps.
//
// A missing path yields an empty source with a warning; that is not an
// error. Pattern compilation failures are errors: without valid filters the
// scenario set would be undefined.
func New(runProps *props.Properties, l SuiteLoader, log *slog.Logger) (*Source, error) {
	s := &Source{log: log, base: runProps.Copy(), loader: l}

	path := s.base.Scenario()
	info, err := os.Stat(path)
	if path == "" || err != nil {
		log.Warn("no scenarios to run", "path", path)
		return s, nil
	}
	if !info.IsDir() {
		s.files = []string{path}
		return s, nil
	}

	incl, err := s.base.IncludeScenario()
	if err != nil {
		return nil, err
	}
	excl, err := s.base.ExcludeScenario()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		log.Warn("cannot list scenario directory", "path", path, "error", err)
		return s, nil
	}
	var names []string
	for _, e := range entries {
		name := strings.TrimSpace(e.Name())
		if e.IsDir() || !strings.HasSuffix(name, ScenarioFileSuffix) {
			continue
		}
		key := strings.TrimSuffix(name, ScenarioFileSuffix)
		if incl.MatchString(key) && !excl.MatchString(key) {
			names = append(names, e.Name())
		}
	}
	// os.ReadDir already sorts, but the ordering is a correctness
	// requirement for reproducible reports; keep it explicit.
	sort.Strings(names)
	for _, n := range names {
		s.files = append(s.files, filepath.Join(path, n))
	}
	if len(s.files) == 0 {
		log.Warn("no scenarios to run", "path", path)
	}
	return s, nil
}

// Names returns the ordered identifiers of every scenario the source will
// attempt, for progress notification.
func (s *Source) Names() []string {
	out := make([]string, len(s.files))
	for i, f := range s.files {
		out[i] = model.IDFromFilename(filepath.Base(f))
	}
	return out
}

// Remaining reports whether Next will yield more construction attempts.
func (s *Source) Remaining() bool { return s.idx < len(s.files) }

// Next constructs the next scenario. The second return is false when the
// sequence is exhausted. A (nil, true) return means this candidate failed
// to construct; the failure has been logged and the run continues.
func (s *Source) Next() (*model.Scenario, bool) {
	if !s.Remaining() {
		return nil, false
	}
	file := s.files[s.idx]
	s.idx++

	scen, err := s.createScenario(file)
	if err != nil {
		s.log.Error("unable to create scenario", "file", file, "error", err)
		return nil, true
	}
	return scen, true
}

// createScenario loads the per-scenario properties layer, merges it over
// the run configuration and discovers the scenario's suites.
func (s *Source) createScenario(file string) (*model.Scenario, error) {
	layer, err := props.Load(file)
	if err != nil {
		return nil, err
	}
	merged := props.Merge(s.base, layer)
	if err := merged.Resolve(); err != nil {
		return nil, err
	}

	budget, err := merged.TimeBudget()
	if err != nil {
		return nil, err
	}

	scen := model.NewScenario(model.IDFromFilename(filepath.Base(file)), merged)
	scen.TimeBudget = budget

	if err := s.discoverSuites(scen, merged); err != nil {
		return nil, err
	}
	return scen, nil
}

// discoverSuites lists the test-definitions directory and attaches every
// matching suite. An unlistable directory fails the whole scenario.
func (s *Source) discoverSuites(scen *model.Scenario, p *props.Properties) error {
	qsd := p.QuerySetDir()
	if qsd == "" {
		s.log.Warn("query set directory is not defined", "scenario", scen.ID)
	}
	tqd := p.TestQueriesDir()
	if tqd == "" {
		s.log.Warn("test queries directory is not defined", "scenario", scen.ID)
	}
	dir := filepath.Join(p.ArtifactsDir(), qsd, tqd)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot load test queries from %s: %w", dir, err)
	}

	incl, err := p.IncludeSuite()
	if err != nil {
		return err
	}
	excl, err := p.ExcludeSuite()
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		name := strings.TrimSpace(e.Name())
		if e.IsDir() || !strings.HasSuffix(name, SuiteFileSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	// Directory listing order is not guaranteed by the storage layer;
	// impose a deterministic one.
	sort.Strings(names)

	for _, name := range names {
		key := strings.TrimSuffix(strings.TrimSpace(name), SuiteFileSuffix)
		if !incl.MatchString(key) || excl.MatchString(key) {
			s.log.Debug("skipping suite", "suite", key, "scenario", scen.ID)
			continue
		}
		suite, err := s.loader.LoadSuite(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		scen.AddSuite(suite)
	}
	return nil
}
