package run

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kadlec/drover/internal/loader"
	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/plugin"
	"github.com/kadlec/drover/internal/props"
	"github.com/kadlec/drover/internal/source"
)

// RunState is the explicit lifecycle of an orchestrator, guarded by the
// same lock as cancellation signaling.
type RunState int

const (
	StateNotStarted RunState = iota
	StateRunning
	StateFinished
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// ProgressObserver receives run progress notifications. Starting is called
// once at loop start with the full ordered list of scenario names about to
// be attempted; Finished is called exactly once with the finalized result.
type ProgressObserver interface {
	Starting(scenarioNames []string)
	Finished(result *model.RunResult)
}

// Orchestrator drives one run at a time over a fixed configuration and
// plugin set. Start may be called again after a run finished; two runs
// never overlap on one orchestrator.
type Orchestrator struct {
	log     *slog.Logger
	clock   Clock
	props   *props.Properties
	plugins *plugin.Registry
	target  Target
	loader  source.SuiteLoader

	mu        sync.Mutex
	state     RunState
	cancel    context.CancelFunc
	done      chan struct{}
	observers []ProgressObserver
	result    *model.RunResult
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithSuiteLoader replaces the YAML suite loader.
func WithSuiteLoader(l source.SuiteLoader) Option {
	return func(o *Orchestrator) { o.loader = l }
}

// New creates an orchestrator over the run configuration p. The registry
// supplies setup hooks, the result mode and writers; target executes
// queries.
func New(p *props.Properties, plugins *plugin.Registry, target Target, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:     slog.Default(),
		clock:   SystemClock(),
		props:   p,
		plugins: plugins,
		target:  target,
		loader:  loader.YAML{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterObserver registers a progress observer for the next run. It
// fails with a StateError while a run is in flight.
func (o *Orchestrator) RegisterObserver(obs ProgressObserver) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateRunning {
		return &StateError{Op: "register observer", State: o.state}
	}
	if obs != nil {
		o.observers = append(o.observers, obs)
	}
	return nil
}

// UnregisterObserver removes a previously registered observer. It fails
// with a StateError while a run is in flight.
func (o *Orchestrator) UnregisterObserver(obs ProgressObserver) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateRunning {
		return &StateError{Op: "unregister observer", State: o.state}
	}
	for i, cur := range o.observers {
		if cur == obs {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			break
		}
	}
	return nil
}

// Start begins a run. With synchronous true the loop runs on the calling
// goroutine and Start returns when the run has finished; otherwise the
// loop runs on its own goroutine and Start returns immediately. Starting
// while a run is in flight fails with a StateError.
func (o *Orchestrator) Start(synchronous bool) error {
	o.mu.Lock()
	if o.state == StateRunning {
		o.mu.Unlock()
		return &StateError{Op: "start run", State: StateRunning}
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.state = StateRunning
	o.cancel = cancel
	o.done = make(chan struct{})
	o.result = nil
	done := o.done
	o.mu.Unlock()

	if synchronous {
		o.runLoop(ctx, done)
		return nil
	}
	go o.runLoop(ctx, done)
	return nil
}

// Stop requests cooperative cancellation of an in-flight run. It is a
// no-op when no run is in flight. Cancellation interrupts whatever
// collaborator call is active only if that call observes the run context.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateRunning && o.cancel != nil {
		o.cancel()
	}
}

// WaitFor blocks until the current run's loop has finished. It returns
// immediately when no run was ever started.
func (o *Orchestrator) WaitFor() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

// State returns the current run state.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns the finalized result of the last run, nil while a run is
// in flight or before the first run.
func (o *Orchestrator) Result() *model.RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// runLoop is the run itself. It always finalizes: the result is dumped,
// the result mode and every retained writer are destroyed exactly once and
// observers get Finished exactly once, however the loop terminated.
func (o *Orchestrator) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	rp := o.props.Copy()
	if err := rp.Resolve(); err != nil {
		o.log.Warn("run configuration has unresolved placeholders", "error", err)
	}
	if err := rp.DumpTo(rp.OutputDir()); err != nil {
		o.log.Warn("cannot dump run configuration", "error", err)
	}

	mode := o.plugins.ModeByName(rp.ResultMode())
	writers := o.plugins.ActiveWriters(rp)

	src, err := source.New(rp, o.loader, o.log)
	if err != nil {
		o.log.Error("cannot construct scenario source", "error", err)
		src = new(source.Source)
	}

	names := src.Names()
	o.mu.Lock()
	observers := make([]ProgressObserver, len(o.observers))
	copy(observers, o.observers)
	o.mu.Unlock()
	for _, obs := range observers {
		o.notify(func() { obs.Starting(names) }, "observer starting")
	}

	agg := &aggregator{}
	defer func() {
		result := agg.finalize()
		if err := result.DumpTo(rp.OutputDir()); err != nil {
			o.log.Warn("cannot dump run result", "error", err)
		}
		if err := mode.Destroy(); err != nil {
			o.log.Warn("result mode destroy failed", "mode", mode.Name(), "error", err)
		}
		for _, obs := range observers {
			obs := obs
			o.notify(func() { obs.Finished(result) }, "observer finished")
		}
		for _, w := range writers {
			if err := o.destroyWriter(w); err != nil {
				o.log.Warn("writer destroy failed", "error", err)
			}
		}
		o.mu.Lock()
		o.result = result
		o.state = StateFinished
		o.cancel = nil
		o.mu.Unlock()
	}()

	eng := &engine{
		log:    o.log,
		clock:  o.clock,
		target: o.target,
		hooks:  o.plugins.SetupHooks(),
		mode:   mode,
	}

	for src.Remaining() {
		if ctx.Err() != nil {
			o.log.Warn("run cancelled, remaining scenarios skipped")
			return
		}
		scen, ok := src.Next()
		if !ok {
			return
		}
		if scen == nil {
			continue
		}
		eng.runScenario(ctx, scen)
		agg.collect(scen)
		for _, w := range writers {
			if err := o.writeScenario(w, scen); err != nil {
				o.log.Error("writer failed for scenario", "scenario", scen.ID, "error", err)
			}
		}
	}
}

// writeScenario offers one finished scenario to one writer, containing
// panics so a bad writer cannot take down the run loop.
func (o *Orchestrator) writeScenario(w plugin.ResultWriter, scen *model.Scenario) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("writer panicked: %v", r)
		}
	}()
	return w.WriteScenario(scen)
}

// destroyWriter tears down one writer, containing panics so finalization
// reaches the remaining writers and the run state transition.
func (o *Orchestrator) destroyWriter(w plugin.ResultWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("writer destroy panicked: %v", r)
		}
	}()
	return w.Destroy()
}

// notify invokes an observer callback, containing panics so one observer
// cannot break the run or starve the others.
func (o *Orchestrator) notify(f func(), what string) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("progress notification panicked", "callback", what, "panic", r)
		}
	}()
	f()
}
