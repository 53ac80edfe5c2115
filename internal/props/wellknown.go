package props

import (
	"fmt"
	"regexp"
	"time"
)

// Well-known configuration keys.
const (
	KeyScenario        = "scenario"
	KeyIncludeScenario = "include.scenario"
	KeyExcludeScenario = "exclude.scenario"
	KeyArtifactsDir    = "artifacts.dir"
	KeyOutputDir       = "output.dir"
	KeyResultMode      = "result.mode"
	KeyQuerySetDir     = "query.set.dir"
	KeyTestQueriesDir  = "test.queries.dir"
	KeyIncludeSuite    = "include.suite"
	KeyExcludeSuite    = "exclude.suite"
	KeyTimeBudget      = "scenario.time.max"
	KeyTargetDatabase  = "target.database"

	// KeyArtifactsAbsolute and KeyScenarioAbsolute mark the respective
	// paths as already absolute so the run registry does not rebase them.
	KeyArtifactsAbsolute = "artifacts.path.absolute"
	KeyScenarioAbsolute  = "scenarios.path.absolute"
)

// Scenario returns the scenario file or directory path.
func (p *Properties) Scenario() string { return p.GetDefault(KeyScenario, "") }

// ArtifactsDir returns the artifact root directory.
func (p *Properties) ArtifactsDir() string { return p.GetDefault(KeyArtifactsDir, "") }

// OutputDir returns the run output directory.
func (p *Properties) OutputDir() string { return p.GetDefault(KeyOutputDir, "") }

// ResultMode returns the configured result mode name, empty when unset.
func (p *Properties) ResultMode() string { return p.GetDefault(KeyResultMode, "") }

// QuerySetDir returns the query-set sub-path under the artifact root.
func (p *Properties) QuerySetDir() string { return p.GetDefault(KeyQuerySetDir, "") }

// TestQueriesDir returns the test-queries sub-path under the query set.
func (p *Properties) TestQueriesDir() string { return p.GetDefault(KeyTestQueriesDir, "") }

// TargetDatabase returns the query target data source name.
func (p *Properties) TargetDatabase() string { return p.GetDefault(KeyTargetDatabase, "") }

// IncludeScenario returns the compiled scenario include pattern.
// Unset means include everything.
func (p *Properties) IncludeScenario() (*regexp.Regexp, error) {
	return p.includePattern(KeyIncludeScenario)
}

// ExcludeScenario returns the compiled scenario exclude pattern.
// Unset means exclude nothing.
func (p *Properties) ExcludeScenario() (*regexp.Regexp, error) {
	return p.excludePattern(KeyExcludeScenario)
}

// IncludeSuite returns the compiled suite include pattern.
func (p *Properties) IncludeSuite() (*regexp.Regexp, error) {
	return p.includePattern(KeyIncludeSuite)
}

// ExcludeSuite returns the compiled suite exclude pattern.
func (p *Properties) ExcludeSuite() (*regexp.Regexp, error) {
	return p.excludePattern(KeyExcludeSuite)
}

// TimeBudget returns the per-scenario execution budget, zero when unset.
func (p *Properties) TimeBudget() (time.Duration, error) {
	v, ok := p.Get(KeyTimeBudget)
	if !ok || v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("property %s: %w", KeyTimeBudget, err)
	}
	return d, nil
}

func (p *Properties) includePattern(key string) (*regexp.Regexp, error) {
	return compileFull(p.GetDefault(key, ".*"), key)
}

// excludePattern compiles an exclude key. Unset compiles to a pattern that
// full-matches only the empty string, which no identifier is.
func (p *Properties) excludePattern(key string) (*regexp.Regexp, error) {
	return compileFull(p.GetDefault(key, ""), key)
}

// compileFull anchors expr so matches are full-string, never substring.
func compileFull(expr, key string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", key, err)
	}
	return re, nil
}
