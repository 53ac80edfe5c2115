package run

import (
	"errors"
	"fmt"
	"time"
)

// TimeBudgetError reports that a scenario exceeded its execution budget.
// It terminates only the affected scenario's suite execution; teardown
// still runs and partial counts are still aggregated.
type TimeBudgetError struct {
	Scenario string
	Budget   time.Duration
	Elapsed  time.Duration
}

func (e *TimeBudgetError) Error() string {
	return fmt.Sprintf("scenario %q exceeded its time budget (%s elapsed, %s allowed)",
		e.Scenario, e.Elapsed, e.Budget)
}

// IsTimeBudget reports whether err is a TimeBudgetError, unwrapping as
// needed.
func IsTimeBudget(err error) bool {
	var te *TimeBudgetError
	return errors.As(err, &te)
}

// TargetUnavailableError reports that the query target could not be
// reached. Readiness failures skip the scenario with a warning.
type TargetUnavailableError struct {
	Target string
	Err    error
}

func (e *TargetUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("target %q not available: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("target %q not available", e.Target)
}

func (e *TargetUnavailableError) Unwrap() error { return e.Err }

// StateError reports an operation attempted in the wrong run state, such as
// registering a progress observer while a run is in flight.
type StateError struct {
	Op    string
	State RunState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while run state is %s", e.Op, e.State)
}

// IsStateError reports whether err is a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
