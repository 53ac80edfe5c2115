// Package plugin defines the three extension points of a run and the
// registry that holds their implementations.
//
// Implementations are registered explicitly at process startup; there is no
// environment scanning. The capability roles are:
//
//   - setup hooks, consulted in registration order before a scenario runs;
//   - exactly one result mode, selected by name from the run configuration;
//   - zero or more result writers, each offered the run configuration once.
package plugin

import (
	"log/slog"
	"strings"

	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/props"
)

// SetupHook runs before a scenario executes and reports whether the
// scenario should proceed. The first hook returning false short-circuits
// the remaining hooks and skips the scenario.
type SetupHook func(*model.Scenario) bool

// ResultMode is a comparison strategy bound to a run. ResetConfiguration is
// invoked once per scenario with the scenario's resolved configuration, so
// stateful modes can rebind. Destroy is invoked exactly once at run end.
type ResultMode interface {
	Name() string
	ResetConfiguration(*props.Properties)
	Destroy() error
}

// ResultWriter consumes completed (or skipped) scenarios. Init is offered
// the run configuration; only writers returning true are retained. Retained
// writers receive one WriteScenario call per scenario in completion order
// and exactly one Destroy call at run end, however the run terminated.
type ResultWriter interface {
	Init(*props.Properties) bool
	WriteScenario(*model.Scenario) error
	Destroy() error
}

// Registry holds registered implementations of the three roles. It is
// populated at startup and read-only afterwards; it is not safe for
// concurrent registration.
type Registry struct {
	log     *slog.Logger
	hooks   []SetupHook
	modes   []ResultMode
	writers []ResultWriter
}

// NewRegistry creates an empty registry logging through log.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log}
}

// RegisterSetupHook appends a setup hook. Registration order is invocation
// order.
func (r *Registry) RegisterSetupHook(h SetupHook) {
	if h != nil {
		r.hooks = append(r.hooks, h)
	}
}

// RegisterResultMode adds a result mode candidate for name selection.
func (r *Registry) RegisterResultMode(m ResultMode) {
	if m != nil {
		r.modes = append(r.modes, m)
	}
}

// RegisterWriter adds a result writer candidate.
func (r *Registry) RegisterWriter(w ResultWriter) {
	if w != nil {
		r.writers = append(r.writers, w)
	}
}

// SetupHooks returns the hooks in registration order.
func (r *Registry) SetupHooks() []SetupHook {
	out := make([]SetupHook, len(r.hooks))
	copy(out, r.hooks)
	return out
}

// ModeByName selects the result mode matching name case-insensitively.
// An empty or unknown name selects NoneMode and logs a warning.
func (r *Registry) ModeByName(name string) ResultMode {
	if name == "" {
		r.log.Warn("no result mode configured, falling back to none")
		return NoneMode{}
	}
	for _, m := range r.modes {
		if strings.EqualFold(m.Name(), name) {
			return m
		}
	}
	r.log.Warn("unknown result mode, falling back to none", "mode", name)
	return NoneMode{}
}

// ActiveWriters offers the run configuration to every registered writer and
// returns those that accepted it, in registration order.
func (r *Registry) ActiveWriters(p *props.Properties) []ResultWriter {
	var out []ResultWriter
	for _, w := range r.writers {
		if w.Init(p) {
			out = append(out, w)
		}
	}
	return out
}

// NoneMode is the no-op result mode used when nothing else is selected.
type NoneMode struct{}

func (NoneMode) Name() string                          { return "none" }
func (NoneMode) ResetConfiguration(*props.Properties)  {}
func (NoneMode) Destroy() error                        { return nil }
