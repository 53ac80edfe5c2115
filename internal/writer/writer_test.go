package writer

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/props"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
}

func newTestWriter(t *testing.T) (*Default, string) {
	t.Helper()
	dir := t.TempDir()
	w := NewDefault(slog.Default(), WithNow(fixedNow))
	p := props.New()
	p.Set(props.KeyOutputDir, dir)
	require.True(t, w.Init(p))
	return w, dir
}

// scenarioA has one mismatch, one error and one skipped query spread over
// two suites.
func scenarioA() *model.Scenario {
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	s1 := &model.Suite{
		ID:        "s1",
		StartTime: start,
		EndTime:   start.Add(40 * time.Second),
	}
	s1.AddQuery(&model.Query{ID: "q1", SQL: "SELECT 1", Result: &model.QueryResult{Kind: model.QueryPass}})
	s1.AddQuery(&model.Query{ID: "q2", SQL: "SELECT 2", Result: &model.QueryResult{
		Kind: model.QueryMismatch, Detail: "expected 2 rows, got 3",
	}})
	s1.AddQuery(&model.Query{ID: "q3", SQL: "SELECT 3"})

	s2 := &model.Suite{
		ID:        "s2",
		StartTime: start.Add(40 * time.Second),
		EndTime:   start.Add(90 * time.Second),
	}
	s2.AddQuery(&model.Query{ID: "q1", SQL: "SELEKT", Result: &model.QueryResult{
		Kind: model.QueryError, Detail: "syntax error",
	}})

	sc := model.NewScenario("scen-a", props.New())
	sc.Status = model.StatusDone
	sc.StartTime = start
	sc.EndTime = start.Add(90*time.Second + 250*time.Millisecond)
	sc.AddSuite(s1)
	sc.AddSuite(s2)
	return sc
}

// scenarioB passes cleanly, so it must not appear in the errors file.
func scenarioB() *model.Scenario {
	start := time.Date(2026, 8, 29, 10, 2, 0, 0, time.UTC)

	s1 := &model.Suite{
		ID:        "s1",
		StartTime: start,
		EndTime:   start.Add(10 * time.Second),
	}
	s1.AddQuery(&model.Query{ID: "q1", SQL: "SELECT 1", Result: &model.QueryResult{Kind: model.QueryPass}})

	sc := model.NewScenario("scen-b", props.New())
	sc.Status = model.StatusDone
	sc.StartTime = start
	sc.EndTime = start.Add(10 * time.Second)
	sc.AddSuite(s1)
	return sc
}

func TestWriteScenario_Golden(t *testing.T) {
	w, dir := newTestWriter(t)
	require.NoError(t, w.WriteScenario(scenarioA()))
	require.NoError(t, w.WriteScenario(scenarioB()))

	read := func(name string) []byte {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return data
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "scenario_summary", read("Summary_scen-a.txt"))
	g.Assert(t, "suite_snapshot", read(filepath.Join("scen-a", "s1_20260829_120000.txt")))
	g.Assert(t, "summary_totals", read("Summary_totals.txt"))
	g.Assert(t, "summary_errors", read("Summary_errors.txt"))
}

func TestCumulativeSuiteSummaryAppends(t *testing.T) {
	w, dir := newTestWriter(t)
	require.NoError(t, w.WriteScenario(scenarioA()))
	require.NoError(t, w.WriteScenario(scenarioA()))

	data, err := os.ReadFile(filepath.Join(dir, "scen-a", "s1.txt"))
	require.NoError(t, err)
	snapshot, err := os.ReadFile(filepath.Join(dir, "scen-a", "s1_20260829_120000.txt"))
	require.NoError(t, err)

	want := string(snapshot) + "\n\n" + string(snapshot) + "\n\n"
	assert.Equal(t, want, string(data))
}

func TestInitRejectsMissingOutputDir(t *testing.T) {
	w := NewDefault(slog.Default())
	assert.False(t, w.Init(props.New()))
}

func TestInitRejectsFileAsOutputDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	p := props.New()
	p.Set(props.KeyOutputDir, path)

	w := NewDefault(slog.Default())
	assert.False(t, w.Init(p))
}

func TestInitCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	p := props.New()
	p.Set(props.KeyOutputDir, dir)

	w := NewDefault(slog.Default())
	require.True(t, w.Init(p))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestFormatTimeFallsBackToNow(t *testing.T) {
	w := NewDefault(slog.Default(), WithNow(fixedNow))
	assert.Equal(t, "2026-08-29 12:00:00", w.formatTime(time.Time{}))
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab    ", pad("ab", 6))
	assert.Equal(t, "abcdefg", pad("abcdefg", 6))
	assert.Equal(t, "abcdef", pad("abcdef", 6))
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, "00:00:00.000", elapsed(0))
	assert.Equal(t, "00:01:30.250", elapsed(90*time.Second+250*time.Millisecond))
	assert.Equal(t, "02:03:04.005", elapsed(2*time.Hour+3*time.Minute+4*time.Second+5*time.Millisecond))
}
