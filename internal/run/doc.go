// Package run owns the execution of one run: the orchestrator's run loop,
// the per-scenario lifecycle engine and the result aggregator.
//
// A run executes scenarios strictly sequentially in discovery order; the
// only concurrency choice is which goroutine hosts the loop. Cancellation
// is cooperative: Stop cancels the run context and relies on collaborator
// calls to observe it.
package run
