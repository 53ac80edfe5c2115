package source

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadlec/drover/internal/loader"
	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/props"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture builds an artifact tree with one suite definition and a scenario
// directory with the given scenario files, and returns run properties
// pointing at both.
func fixture(t *testing.T, scenarioFiles ...string) *props.Properties {
	t.Helper()
	root := t.TempDir()

	queriesDir := filepath.Join(root, "artifacts", "qs", "queries")
	require.NoError(t, os.MkdirAll(queriesDir, 0o755))
	writeFile(t, filepath.Join(queriesDir, "basic.yaml"), `
queries:
  - id: q1
    sql: SELECT 1
`)

	scenDir := filepath.Join(root, "scenarios")
	require.NoError(t, os.MkdirAll(scenDir, 0o755))
	for _, name := range scenarioFiles {
		writeFile(t, filepath.Join(scenDir, name), "scenario.note=from "+name+"\n")
	}

	p := props.New()
	p.Set(props.KeyScenario, scenDir)
	p.Set(props.KeyArtifactsDir, filepath.Join(root, "artifacts"))
	p.Set(props.KeyQuerySetDir, "qs")
	p.Set(props.KeyTestQueriesDir, "queries")
	return p
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func drain(t *testing.T, s *Source) []*model.Scenario {
	t.Helper()
	var out []*model.Scenario
	for {
		scen, ok := s.Next()
		if !ok {
			return out
		}
		if scen != nil {
			out = append(out, scen)
		}
	}
}

func TestSource_IncludeExcludeFiltering(t *testing.T) {
	p := fixture(t, "A1.properties", "A2.properties", "B1.properties")
	p.Set(props.KeyIncludeScenario, "A.*")
	p.Set(props.KeyExcludeScenario, "A2")

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"A1"}, s.Names())
	scens := drain(t, s)
	require.Len(t, scens, 1)
	assert.Equal(t, "A1", scens[0].ID)
}

func TestSource_LexicographicOrderByRawFilename(t *testing.T) {
	p := fixture(t, "b.properties", "a10.properties", "a2.properties", "A.properties")

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)

	// Raw filename order: capital letters sort before lowercase.
	assert.Equal(t, []string{"A", "a10", "a2", "b"}, s.Names())
}

func TestSource_SingleFileSkipsFiltering(t *testing.T) {
	p := fixture(t, "only.properties")
	// Point at the file itself; the exclude pattern would reject it if
	// filtering applied.
	p.Set(props.KeyScenario, filepath.Join(filepath.Dir(p.Scenario()), "scenarios", "only.properties"))
	p.Set(props.KeyExcludeScenario, "only")

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)

	scens := drain(t, s)
	require.Len(t, scens, 1)
	assert.Equal(t, "only", scens[0].ID)
}

func TestSource_MissingPathYieldsEmpty(t *testing.T) {
	p := props.New()
	p.Set(props.KeyScenario, filepath.Join(t.TempDir(), "nope"))

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err, "a missing path is a warning, not an error")
	assert.Empty(t, s.Names())
	assert.Empty(t, drain(t, s))
}

func TestSource_InvalidPatternIsError(t *testing.T) {
	p := fixture(t, "a.properties")
	p.Set(props.KeyIncludeScenario, "([unclosed")

	_, err := New(p, loader.YAML{}, quietLogger())
	assert.Error(t, err)
}

func TestSource_ScenarioLayerMergesOverRunProps(t *testing.T) {
	p := fixture(t, "one.properties")
	p.Set("scenario.note", "from run config")
	p.Set("untouched", "still here")

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)
	scens := drain(t, s)
	require.Len(t, scens, 1)

	v, _ := scens[0].Props.Get("scenario.note")
	assert.Equal(t, "from one.properties", v, "scenario layer wins")
	v, _ = scens[0].Props.Get("untouched")
	assert.Equal(t, "still here", v)

	// The run configuration must not see scenario-layer mutations.
	v, _ = p.Get("scenario.note")
	assert.Equal(t, "from run config", v)
}

func TestSource_SuiteDiscoveryAttachesSortedSuites(t *testing.T) {
	p := fixture(t, "one.properties")
	dir := filepath.Join(p.ArtifactsDir(), "qs", "queries")
	writeFile(t, filepath.Join(dir, "zeta.yaml"), "queries:\n  - id: q\n    sql: SELECT 1\n")
	writeFile(t, filepath.Join(dir, "alpha.yaml"), "queries:\n  - id: q\n    sql: SELECT 1\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a suite")

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)
	scens := drain(t, s)
	require.Len(t, scens, 1)

	var ids []string
	for _, su := range scens[0].Suites {
		ids = append(ids, su.ID)
	}
	assert.Equal(t, []string{"alpha", "basic", "zeta"}, ids)
}

func TestSource_SuiteIncludeExclude(t *testing.T) {
	p := fixture(t, "one.properties")
	dir := filepath.Join(p.ArtifactsDir(), "qs", "queries")
	writeFile(t, filepath.Join(dir, "smoke1.yaml"), "queries:\n  - id: q\n    sql: SELECT 1\n")
	writeFile(t, filepath.Join(dir, "smoke2.yaml"), "queries:\n  - id: q\n    sql: SELECT 1\n")
	p.Set(props.KeyIncludeSuite, "smoke.*")
	p.Set(props.KeyExcludeSuite, "smoke2")

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)
	scens := drain(t, s)
	require.Len(t, scens, 1)
	require.Len(t, scens[0].Suites, 1)
	assert.Equal(t, "smoke1", scens[0].Suites[0].ID)
}

func TestSource_UnlistableSuiteDirFailsScenario(t *testing.T) {
	p := fixture(t, "one.properties", "two.properties")
	p.Set(props.KeyQuerySetDir, "no-such-dir")

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)

	// Both candidates fail construction, the sequence itself continues.
	attempts := 0
	for {
		scen, ok := s.Next()
		if !ok {
			break
		}
		attempts++
		assert.Nil(t, scen)
	}
	assert.Equal(t, 2, attempts)
}

func TestSource_UnresolvedPlaceholderFailsScenario(t *testing.T) {
	p := fixture(t, "bad.properties", "good.properties")
	scenDir := p.Scenario()
	writeFile(t, filepath.Join(scenDir, "bad.properties"), "broken=${never.defined}\n")

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)

	scens := drain(t, s)
	require.Len(t, scens, 1, "the broken scenario is dropped, the good one survives")
	assert.Equal(t, "good", scens[0].ID)
}

func TestSource_SinglePassNonRestartable(t *testing.T) {
	p := fixture(t, "one.properties")
	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)

	drain(t, s)
	_, ok := s.Next()
	assert.False(t, ok)
	_, ok = s.Next()
	assert.False(t, ok)
}

func TestSource_TimeBudgetFromProperties(t *testing.T) {
	p := fixture(t, "timed.properties")
	writeFile(t, filepath.Join(p.Scenario(), "timed.properties"),
		fmt.Sprintf("%s=250ms\n", props.KeyTimeBudget))

	s, err := New(p, loader.YAML{}, quietLogger())
	require.NoError(t, err)
	scens := drain(t, s)
	require.Len(t, scens, 1)
	assert.Equal(t, "250ms", scens[0].TimeBudget.String())
}
