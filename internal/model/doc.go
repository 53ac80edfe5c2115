// Package model defines the result hierarchy shared by the whole tool:
// a Query belongs to a Suite, a Suite to a Scenario, and a RunResult
// aggregates every Scenario of one run.
//
// Counts obey two invariants at every level:
//
//	executed = passed + failed
//	skipped  = all - executed
//
// All types here are plain data; execution and aggregation logic lives in
// internal/run.
package model
