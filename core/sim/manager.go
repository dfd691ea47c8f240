package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/history"
	"github.com/parcelops/fleetsim/core/kpi"
	"github.com/parcelops/fleetsim/core/logger"
	"github.com/parcelops/fleetsim/internal/eventbus"
)

// GraphBuilder turns an opaque map location descriptor into a road network.
type GraphBuilder func(mapLocation string) (graph.Provider, error)

// StartRequest carries the caller-tunable parameters of a new run.
type StartRequest struct {
	AgentCount    int     `json:"agent_count"`
	PackageCount  int     `json:"package_count"`
	MapLocation   string  `json:"map_location"`
	BufferPercent float64 `json:"buffer_percent"`
	Seed          int64   `json:"seed"`
}

// Manager supervises at most one active run and answers the control surface.
// Starting a second run while one is active is rejected, never queued.
type Manager struct {
	mu       sync.Mutex
	build    GraphBuilder
	defaults Config
	engine   *Engine

	log  logger.Logger
	bus  eventbus.EventBus
	hist history.LogStore
	kpis kpi.Store
}

// NewManager wires the supervisor. bus, hist and kpis may be nil; defaults
// are applied per run.
func NewManager(build GraphBuilder, defaults Config, log logger.Logger, bus eventbus.EventBus, hist history.LogStore, kpis kpi.Store) (*Manager, error) {
	if build == nil || log == nil {
		return nil, fmt.Errorf("sim: nil parameter provided to NewManager")
	}
	if bus == nil {
		bus = eventbus.New()
	}
	if hist == nil {
		hist = history.NopStore{}
	}
	if kpis == nil {
		kpis = kpi.NewMemoryStore()
	}
	return &Manager{build: build, defaults: defaults, log: log, bus: bus, hist: hist, kpis: kpis}, nil
}

// Bus returns the event bus every run publishes on.
func (m *Manager) Bus() eventbus.EventBus { return m.bus }

// Start seeds a new run and launches its loop. Returns ErrRunActive while a
// run is in progress.
func (m *Manager) Start(req StartRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine != nil && m.engine.Running() {
		return "", ErrRunActive
	}
	cfg := m.defaults
	cfg.RunID = uuid.NewString()
	if req.AgentCount > 0 {
		cfg.AgentCount = req.AgentCount
	}
	if req.PackageCount > 0 {
		cfg.PackageCount = req.PackageCount
	}
	if req.BufferPercent > 0 {
		cfg.BufferPercent = req.BufferPercent
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	provider, err := m.build(req.MapLocation)
	if err != nil {
		return "", fmt.Errorf("build graph: %w", err)
	}
	engine, err := NewEngine(provider, cfg, m.log, m.bus, m.hist, m.kpis)
	if err != nil {
		return "", err
	}
	if err := engine.Start(); err != nil {
		return "", err
	}
	m.engine = engine
	m.log.Infof("run %s started (%d agents, %d packages, map %q)",
		cfg.RunID, cfg.AgentCount, cfg.PackageCount, req.MapLocation)
	return cfg.RunID, nil
}

// Stop stops the active run. Idempotent; reports whether anything stopped.
func (m *Manager) Stop() bool {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return false
	}
	return engine.Stop()
}

// Pause suspends the active loop. Reports whether the flag changed.
func (m *Manager) Pause() bool {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return false
	}
	return engine.Pause()
}

// Resume clears the pause flag. Reports whether the flag changed.
func (m *Manager) Resume() bool {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return false
	}
	return engine.Resume()
}

// Status answers even when no run was ever started.
func (m *Manager) Status() Status {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return Status{}
	}
	return engine.Status()
}

// Snapshot returns the last run's full state; ok is false before any run.
func (m *Manager) Snapshot() (Snapshot, bool) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return Snapshot{}, false
	}
	return engine.Snapshot(), true
}

// MapInfo describes the active run's network.
func (m *Manager) MapInfo() (MapInfo, error) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return MapInfo{}, ErrNoRun
	}
	return engine.MapInfo()
}

// AddOrders injects tasks into the active run.
func (m *Manager) AddOrders(dropoffs []graph.NodeID, count int) (int, error) {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()
	if engine == nil {
		return 0, ErrNoRun
	}
	return engine.InjectTasks(dropoffs, count)
}

// History queries the shared history store.
func (m *Manager) History(ctx context.Context, q history.Query) ([]history.Record, error) {
	return m.hist.Query(ctx, q)
}

// KPIs returns stored aggregates for one agent, or all agents when empty.
func (m *Manager) KPIs(agentID string) ([]kpi.Record, error) {
	return m.kpis.Query(agentID)
}

// BackfillKPIs folds the whole history store back into the KPI store.
func (m *Manager) BackfillKPIs(ctx context.Context) error {
	records, err := m.hist.Query(ctx, history.Query{})
	if err != nil {
		return err
	}
	return kpi.Backfill(m.kpis, records)
}
