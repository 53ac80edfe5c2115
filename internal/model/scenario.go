package model

import (
	"fmt"
	"time"

	"github.com/kadlec/drover/internal/props"
)

// ScenarioStatus tracks a scenario through its lifecycle.
type ScenarioStatus int

const (
	StatusCreated ScenarioStatus = iota
	StatusSetup
	StatusReadyCheck
	StatusRunning
	StatusAfter
	StatusDone
	StatusAborted
)

// String returns the lower-case status name.
func (s ScenarioStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusSetup:
		return "setup"
	case StatusReadyCheck:
		return "ready-check"
	case StatusRunning:
		return "running"
	case StatusAfter:
		return "after"
	case StatusDone:
		return "done"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("ScenarioStatus(%d)", int(s))
	}
}

// Scenario is one complete test attempt against a configuration. It owns an
// ordered set of suites and its own resolved properties layer; the layer is
// a copy, so mutations never leak into the run configuration.
//
// Scenarios live for exactly one run-loop iteration. Only their aggregated
// counts survive the iteration.
type Scenario struct {
	ID         string
	Suites     []*Suite
	Status     ScenarioStatus
	StartTime  time.Time
	EndTime    time.Time
	TimeBudget time.Duration
	Props      *props.Properties
}

// NewScenario creates a scenario in the Created state.
func NewScenario(id string, p *props.Properties) *Scenario {
	return &Scenario{ID: id, Status: StatusCreated, Props: p}
}

// AddSuite attaches a suite. Suites execute in attachment order.
func (s *Scenario) AddSuite(su *Suite) {
	s.Suites = append(s.Suites, su)
}

// All returns the number of queries across all suites.
func (s *Scenario) All() int {
	n := 0
	for _, su := range s.Suites {
		n += su.All()
	}
	return n
}

// Executed returns the number of executed queries across all suites.
func (s *Scenario) Executed() int {
	n := 0
	for _, su := range s.Suites {
		n += su.Executed()
	}
	return n
}

// Passed returns the number of passed queries across all suites.
func (s *Scenario) Passed() int {
	n := 0
	for _, su := range s.Suites {
		n += su.Passed()
	}
	return n
}

// Failed returns the number of failed queries across all suites.
func (s *Scenario) Failed() int {
	n := 0
	for _, su := range s.Suites {
		n += su.Failed()
	}
	return n
}

// Skipped returns the number of skipped queries across all suites.
func (s *Scenario) Skipped() int { return s.All() - s.Executed() }

// FailedQueries returns every executed query that did not pass, in suite
// attachment order. The second element of each pair names the owning suite.
func (s *Scenario) FailedQueries() []FailedQuery {
	var out []FailedQuery
	for _, su := range s.Suites {
		for _, q := range su.Queries {
			if q.Executed() && !q.Result.Passed() {
				out = append(out, FailedQuery{Suite: su.ID, Query: q})
			}
		}
	}
	return out
}

// FailedQuery pairs a failed query with the id of its owning suite.
type FailedQuery struct {
	Suite string
	Query *Query
}

// Duration returns the elapsed execution time, or zero if the scenario never
// started.
func (s *Scenario) Duration() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
