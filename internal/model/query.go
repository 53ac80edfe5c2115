package model

import "fmt"

// QueryResultKind classifies the outcome of one executed query.
type QueryResultKind int

const (
	// QueryPass means the query executed and matched expectations.
	QueryPass QueryResultKind = iota
	// QueryMismatch means the query executed but its result did not match
	// the expectation attached to it.
	QueryMismatch
	// QueryError means the query failed to execute at all.
	QueryError
)

// String returns the summary-file representation of the kind.
func (k QueryResultKind) String() string {
	switch k {
	case QueryPass:
		return "pass"
	case QueryMismatch:
		return "fail"
	case QueryError:
		return "error"
	default:
		return fmt.Sprintf("QueryResultKind(%d)", int(k))
	}
}

// QueryResult is the outcome of one executed query. Detail carries
// diagnostic text for mismatches and errors; it is empty for passes.
type QueryResult struct {
	Kind   QueryResultKind
	Detail string
}

// Passed reports whether the query matched expectations.
func (r QueryResult) Passed() bool { return r.Kind == QueryPass }

// String renders the result as a single summary line.
func (r QueryResult) String() string {
	if r.Detail == "" {
		return r.Kind.String()
	}
	return r.Kind.String() + " - " + r.Detail
}

// Query is one comparison unit. A query belongs to exactly one suite.
//
// Result is nil until the query has been executed; a nil Result counts as
// skipped.
type Query struct {
	// ID is unique within the owning suite.
	ID string
	// SQL is the statement sent to the target.
	SQL string
	// ExpectedRows is an optional row-count expectation. Negative means
	// no expectation: any successful execution passes.
	ExpectedRows int
	// Result is set by the target collaborator after execution.
	Result *QueryResult
}

// Executed reports whether the query has a recorded outcome.
func (q *Query) Executed() bool { return q.Result != nil }
