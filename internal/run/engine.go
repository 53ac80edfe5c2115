package run

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/plugin"
)

// Target is the query-serving system under test, as the engine sees it.
// Implemented by internal/target; tests use fakes.
//
// Before is the readiness probe: false skips the scenario without teardown.
// ExecuteSuite runs every query of the suite and records results on the
// queries; it must observe ctx cancellation between queries. After is
// best-effort teardown; its failure is never escalated beyond a log line.
type Target interface {
	Before(ctx context.Context, scen *model.Scenario) bool
	ExecuteSuite(ctx context.Context, scen *model.Scenario, suite *model.Suite) error
	After(ctx context.Context, scen *model.Scenario) error
}

// engine drives one scenario through its lifecycle:
//
//	CREATED -> SETUP -> READY_CHECK -> RUNNING -> AFTER -> DONE
//
// with ABORTED terminal from SETUP (hook rejection) or READY_CHECK (probe
// failure). Once READY_CHECK passes, AFTER runs unconditionally.
type engine struct {
	log    *slog.Logger
	clock  Clock
	target Target
	hooks  []plugin.SetupHook
	mode   plugin.ResultMode
}

// runScenario executes one scenario. All failures are contained: whatever
// happens, the scenario comes back in a terminal state ready for
// aggregation and writers.
func (e *engine) runScenario(ctx context.Context, scen *model.Scenario) {
	scen.Status = model.StatusSetup
	proceed := true
	for _, hook := range e.hooks {
		if !e.invokeHook(hook, scen) {
			proceed = false
			break
		}
	}

	// Stateful comparison strategies rebind to the scenario's resolved
	// configuration exactly once per scenario, skipped or not.
	e.mode.ResetConfiguration(scen.Props)

	if !proceed {
		e.log.Warn("skipping scenario, set up procedure failed", "scenario", scen.ID)
		scen.Status = model.StatusAborted
		return
	}

	scen.Status = model.StatusReadyCheck
	scen.StartTime = e.clock.Now()
	if !e.target.Before(ctx, scen) {
		e.log.Warn("skipping scenario, target ping failed", "scenario", scen.ID)
		scen.Status = model.StatusAborted
		scen.EndTime = e.clock.Now()
		return
	}

	scen.Status = model.StatusRunning
	e.runSuites(ctx, scen)

	scen.Status = model.StatusAfter
	if err := e.target.After(ctx, scen); err != nil {
		e.log.Warn("scenario teardown failed", "scenario", scen.ID, "error", err)
	}

	scen.Status = model.StatusDone
	scen.EndTime = e.clock.Now()
}

// runSuites executes attached suites in order. The first failure ends the
// scenario's suite execution; remaining suites stay skipped.
func (e *engine) runSuites(ctx context.Context, scen *model.Scenario) {
	for _, suite := range scen.Suites {
		if err := ctx.Err(); err != nil {
			e.log.Warn("scenario interrupted by cancellation", "scenario", scen.ID, "suite", suite.ID)
			return
		}
		if scen.TimeBudget > 0 && e.clock.Now().Sub(scen.StartTime) > scen.TimeBudget {
			e.log.Error("scenario has been interrupted",
				"error", &TimeBudgetError{
					Scenario: scen.ID,
					Budget:   scen.TimeBudget,
					Elapsed:  e.clock.Now().Sub(scen.StartTime),
				})
			return
		}

		suite.StartTime = e.clock.Now()
		err := e.executeSuite(ctx, scen, suite)
		suite.EndTime = e.clock.Now()
		if err != nil {
			if IsTimeBudget(err) {
				e.log.Error("scenario has been interrupted", "scenario", scen.ID, "error", err)
			} else {
				e.log.Error("suite execution failed", "scenario", scen.ID, "suite", suite.ID, "error", err)
			}
			return
		}
	}
}

// invokeHook runs a single set up hook. A panicking hook counts as a
// rejection of the scenario.
func (e *engine) invokeHook(hook plugin.SetupHook, scen *model.Scenario) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("set up hook panicked", "scenario", scen.ID, "panic", r)
			ok = false
		}
	}()
	return hook(scen)
}

// executeSuite delegates to the target, containing panics so a hostile
// collaborator cannot take down the run loop.
func (e *engine) executeSuite(ctx context.Context, scen *model.Scenario, suite *model.Suite) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("suite %q panicked: %v", suite.ID, r)
		}
	}()
	return e.target.ExecuteSuite(ctx, scen, suite)
}
