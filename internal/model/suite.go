package model

import "time"

// Suite is a named group of queries sharing a definition file. Queries keep
// the order of the definition file.
type Suite struct {
	ID        string
	Queries   []*Query
	StartTime time.Time
	EndTime   time.Time
}

// AddQuery appends a query to the suite.
func (s *Suite) AddQuery(q *Query) {
	s.Queries = append(s.Queries, q)
}

// All returns the number of queries in the suite.
func (s *Suite) All() int { return len(s.Queries) }

// Executed returns the number of queries with a recorded outcome.
func (s *Suite) Executed() int {
	n := 0
	for _, q := range s.Queries {
		if q.Executed() {
			n++
		}
	}
	return n
}

// Passed returns the number of passed queries.
func (s *Suite) Passed() int {
	n := 0
	for _, q := range s.Queries {
		if q.Executed() && q.Result.Passed() {
			n++
		}
	}
	return n
}

// Failed returns the number of executed queries that did not pass.
func (s *Suite) Failed() int {
	n := 0
	for _, q := range s.Queries {
		if q.Executed() && !q.Result.Passed() {
			n++
		}
	}
	return n
}

// Skipped returns the number of queries without a recorded outcome.
func (s *Suite) Skipped() int { return s.All() - s.Executed() }

// ExecutedQueries returns the executed queries in definition order.
func (s *Suite) ExecutedQueries() []*Query {
	out := make([]*Query, 0, len(s.Queries))
	for _, q := range s.Queries {
		if q.Executed() {
			out = append(out, q)
		}
	}
	return out
}

// Duration returns the elapsed execution time, or zero if the suite never
// started.
func (s *Suite) Duration() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
