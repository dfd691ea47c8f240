package agent

import (
	"fmt"

	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/logger"
	"github.com/parcelops/fleetsim/core/model"
)

// Status describes what an agent is currently doing.
type Status int

const (
	// StatusAvailable means the agent is parked at the depot, charging and
	// listening for auctions.
	StatusAvailable Status = iota
	// StatusBusy means the agent is out on a delivery tour.
	StatusBusy
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Config holds the static parameters of one agent.
type Config struct {
	ID           string
	Capacity     int
	MaxBattery   float64
	DrainPerUnit float64
	// MinWorkingBufferPercent is threaded through every feasibility call but
	// does not yet tighten the battery comparison.
	MinWorkingBufferPercent float64
}

// Agent is an autonomous delivery worker. It owns its manifest, battery and
// route; the coordinator only talks to it through HandleCFP, EvaluateBids and
// the per-tick Update. None of the methods are safe for concurrent use: the
// simulation lock serializes every call.
type Agent struct {
	ID     string
	Status Status

	Location graph.NodeID

	Capacity     int
	Manifest     []*model.Task
	DropoffOrder []graph.NodeID
	Path         []graph.NodeID

	Battery      float64
	MaxBattery   float64
	DrainPerUnit float64

	MinWorkingBufferPercent float64

	graph graph.Provider
	log   logger.Logger
}

// New creates an agent parked at the given start node with a full battery.
func New(cfg Config, g graph.Provider, start graph.NodeID, log logger.Logger) (*Agent, error) {
	if g == nil || log == nil {
		return nil, fmt.Errorf("agent: nil parameter provided to New")
	}
	if cfg.ID == "" {
		return nil, fmt.Errorf("agent: empty id")
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("agent %s: capacity must be positive", cfg.ID)
	}
	if cfg.MaxBattery <= 0 {
		return nil, fmt.Errorf("agent %s: max battery must be positive", cfg.ID)
	}
	return &Agent{
		ID:                      cfg.ID,
		Status:                  StatusAvailable,
		Location:                start,
		Capacity:                cfg.Capacity,
		Battery:                 cfg.MaxBattery,
		MaxBattery:              cfg.MaxBattery,
		DrainPerUnit:            cfg.DrainPerUnit,
		MinWorkingBufferPercent: cfg.MinWorkingBufferPercent,
		graph:                   g,
		log:                     log,
	}, nil
}

// AtCapacity reports whether the manifest is full.
func (a *Agent) AtCapacity() bool { return len(a.Manifest) >= a.Capacity }

// manifestDropoffs returns the distinct dropoff nodes of the manifest in
// first-seen order.
func (a *Agent) manifestDropoffs() []graph.NodeID {
	seen := make(map[graph.NodeID]struct{}, len(a.Manifest))
	nodes := make([]graph.NodeID, 0, len(a.Manifest))
	for _, t := range a.Manifest {
		if _, ok := seen[t.Dropoff]; ok {
			continue
		}
		seen[t.Dropoff] = struct{}{}
		nodes = append(nodes, t.Dropoff)
	}
	return nodes
}

// Update advances the agent by one tick. Busy agents take one step along
// their route. Available agents at the depot recharge instantly, then decide
// whether to keep waiting for auctions or to depart with what they hold:
// they leave once the manifest is full, the queue has drained, or none of the
// queued tasks would fit their battery anymore.
func (a *Agent) Update(depot graph.NodeID, pending []*model.Task) MoveReport {
	if a.Status == StatusBusy {
		return a.Move()
	}
	if a.Location != depot {
		return MoveReport{}
	}
	if a.Battery < a.MaxBattery {
		a.Battery = a.MaxBattery
	}
	if len(a.Manifest) == 0 {
		return MoveReport{}
	}
	switch {
	case a.AtCapacity():
		a.log.Infof("agent %s: manifest full (%d), departing", a.ID, len(a.Manifest))
		a.PlanRoute()
	case len(pending) == 0:
		a.log.Infof("agent %s: queue empty, departing with %d packages", a.ID, len(a.Manifest))
		a.PlanRoute()
	default:
		for _, t := range pending {
			if a.feasible(t.Dropoff, depot, a.MinWorkingBufferPercent) {
				return MoveReport{}
			}
		}
		a.log.Infof("agent %s: no queued task fits the battery, departing early with %d packages", a.ID, len(a.Manifest))
		a.PlanRoute()
	}
	return MoveReport{}
}
