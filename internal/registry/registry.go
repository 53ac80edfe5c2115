// Package registry tracks active runs by identifier. It allocates fresh
// run identifiers, caches a bounded number of run handles and falls back
// to a persisted-run store for runs that were evicted or belong to an
// earlier process.
//
// All mutations happen under a single writer; lookups share a read lock.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kadlec/drover/internal/model"
	"github.com/kadlec/drover/internal/props"
	"github.com/kadlec/drover/internal/run"
)

// DefaultCacheLimit bounds the number of concurrently tracked run handles.
const DefaultCacheLimit = 2 << 12

// RunRecord is the durable snapshot of a finished run, as kept by the
// persisted store.
type RunRecord struct {
	ID         string
	OutputDir  string
	Status     string
	CreatedAt  time.Time
	FinishedAt time.Time
	Passed     int
	Failed     int
	Skipped    int
	All        int
}

// PersistedStore is the fallback lookup collaborator. Implemented by
// internal/store.
type PersistedStore interface {
	Save(rec RunRecord) error
	Load(id string) (RunRecord, bool, error)
	Delete(id string) error
}

// Factory builds the orchestrator for a newly allocated run from its
// derived configuration.
type Factory func(p *props.Properties) *run.Orchestrator

// Config carries the registry's roots and policies.
type Config struct {
	// ResultRoot holds one output directory per run, named by run id.
	ResultRoot string
	// ArtifactRoot rebases relative artifact paths.
	ArtifactRoot string
	// ScenarioRoot rebases relative scenario paths.
	ScenarioRoot string
	// CacheLimit bounds the handle cache; zero means DefaultCacheLimit.
	CacheLimit int
	// Store is the optional persisted-run collaborator.
	Store PersistedStore
}

// Handle is one tracked run. Orchestrator is nil for handles resurrected
// from the persisted store.
type Handle struct {
	ID        string
	OutputDir string
	CreatedAt time.Time
	Props     *props.Properties

	orch      *run.Orchestrator
	persisted *RunRecord
}

// Orchestrator returns the live orchestrator, nil for persisted handles.
func (h *Handle) Orchestrator() *run.Orchestrator { return h.orch }

// Persisted returns the stored record for handles loaded from the
// persisted store, nil for live handles.
func (h *Handle) Persisted() *RunRecord { return h.persisted }

// Registry allocates and tracks runs.
type Registry struct {
	log     *slog.Logger
	cfg     Config
	factory Factory

	mu    sync.RWMutex
	ids   idGenerator
	cache map[string]*Handle
	order []string // cache keys, oldest inserted first
}

// New creates a registry. factory must not be nil.
func New(cfg Config, factory Factory, log *slog.Logger) *Registry {
	if cfg.CacheLimit <= 0 {
		cfg.CacheLimit = DefaultCacheLimit
	}
	return &Registry{
		log:     log,
		cfg:     cfg,
		factory: factory,
		ids:     idGenerator{log: log},
		cache:   make(map[string]*Handle),
	}
}

// Allocate generates a fresh identifier, derives the run configuration,
// stores the handle and starts the run in the background.
func (r *Registry) Allocate(p *props.Properties) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextFreeID()
	derived := p.Copy()
	outDir := filepath.Join(r.cfg.ResultRoot, id)
	derived.Set(props.KeyOutputDir, outDir)
	if !derived.Bool(props.KeyArtifactsAbsolute, false) {
		derived.Set(props.KeyArtifactsDir, absJoin(r.cfg.ArtifactRoot, derived.ArtifactsDir()))
	}
	if !derived.Bool(props.KeyScenarioAbsolute, false) {
		derived.Set(props.KeyScenario, absJoin(r.cfg.ScenarioRoot, derived.Scenario()))
	}

	orch := r.factory(derived)
	if orch == nil {
		return nil, fmt.Errorf("allocate run %s: orchestrator factory returned nil", id)
	}
	h := &Handle{
		ID:        id,
		OutputDir: outDir,
		CreatedAt: time.Now(),
		Props:     derived,
		orch:      orch,
	}
	if r.cfg.Store != nil {
		if err := orch.RegisterObserver(&persistObserver{reg: r, handle: h}); err != nil {
			return nil, fmt.Errorf("allocate run %s: %w", id, err)
		}
	}
	r.store(id, h)
	if err := orch.Start(false); err != nil {
		return nil, fmt.Errorf("allocate run %s: %w", id, err)
	}
	return h, nil
}

// Get looks up a run handle, first in the cache, then in the persisted
// store. The second return is false when the id is unknown to both.
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	h, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return h, true
	}
	if r.cfg.Store == nil {
		return nil, false
	}
	rec, ok, err := r.cfg.Store.Load(id)
	if err != nil {
		r.log.Error("persisted run lookup failed", "id", id, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &Handle{
		ID:        rec.ID,
		OutputDir: rec.OutputDir,
		CreatedAt: rec.CreatedAt,
		persisted: &rec,
	}, true
}

// Delete removes the in-memory entry, the run's on-disk artifacts and the
// persisted record. Deleting an absent id is a no-op.
func (r *Registry) Delete(id string) error {
	if id == "" {
		return nil
	}
	r.mu.Lock()
	outDir := filepath.Join(r.cfg.ResultRoot, id)
	if h, ok := r.cache[id]; ok {
		outDir = h.OutputDir
		delete(r.cache, id)
		for i, k := range r.order {
			if k == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if r.cfg.Store != nil {
		if err := r.cfg.Store.Delete(id); err != nil {
			return fmt.Errorf("delete run %s: %w", id, err)
		}
	}
	return nil
}

// Cached returns the number of cached handles.
func (r *Registry) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// store inserts a handle under the caller's write lock, evicting the
// oldest-inserted entries until the new entry fits. Eviction never clears
// more than it must.
func (r *Registry) store(id string, h *Handle) {
	if _, exists := r.cache[id]; !exists {
		for len(r.cache) >= r.cfg.CacheLimit && len(r.order) > 0 {
			oldest := r.order[0]
			r.order = r.order[1:]
			delete(r.cache, oldest)
			r.log.Debug("evicted run handle from cache", "id", oldest)
		}
		r.order = append(r.order, id)
	}
	r.cache[id] = h
}

// nextFreeID advances the odometer until it produces an identifier whose
// output directory does not already exist on disk. Collisions are retried
// internally, never surfaced. Only a successful stat marks a candidate as
// occupied; any stat error means the directory is usable, so a broken
// result root cannot spin the odometer forever.
func (r *Registry) nextFreeID() string {
	for {
		id := r.ids.nextID()
		if _, err := os.Stat(filepath.Join(r.cfg.ResultRoot, id)); err != nil {
			return id
		}
	}
}

func absJoin(root, path string) string {
	joined := filepath.Join(root, path)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return joined
	}
	return abs
}

// persistObserver saves a run's record when it finishes.
type persistObserver struct {
	reg    *Registry
	handle *Handle
}

func (persistObserver) Starting([]string) {}

func (p *persistObserver) Finished(res *model.RunResult) {
	rec := RunRecord{
		ID:         p.handle.ID,
		OutputDir:  p.handle.OutputDir,
		Status:     "finished",
		CreatedAt:  p.handle.CreatedAt,
		FinishedAt: time.Now(),
		Passed:     res.Passed(),
		Failed:     res.Failed(),
		Skipped:    res.Skipped(),
		All:        res.All(),
	}
	if err := p.reg.cfg.Store.Save(rec); err != nil {
		p.reg.log.Error("cannot persist finished run", "id", p.handle.ID, "error", err)
	}
}
