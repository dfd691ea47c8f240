package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parcelops/fleetsim/core/agent"
	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/model"
)

// NodeDef declares a node that carries no edge, or attaches coordinates to
// one that does. Nodes referenced by edges do not need an entry here.
type NodeDef struct {
	ID  int64   `yaml:"id"`
	Lat float64 `yaml:"lat,omitempty"`
	Lng float64 `yaml:"lng,omitempty"`
}

type EdgeDef struct {
	From   int64   `yaml:"from"`
	To     int64   `yaml:"to"`
	Weight float64 `yaml:"weight"`
}

type GraphDef struct {
	Nodes []NodeDef `yaml:"nodes,omitempty"`
	Edges []EdgeDef `yaml:"edges"`
}

// ToProvider materializes the definition as an in-memory road network.
func (g GraphDef) ToProvider() *graph.MockProvider {
	m := graph.NewMockProvider()
	for _, n := range g.Nodes {
		m.AddNode(graph.NodeID(n.ID))
		if n.Lat != 0 || n.Lng != 0 {
			m.SetCoord(graph.NodeID(n.ID), n.Lat, n.Lng)
		}
	}
	for _, e := range g.Edges {
		m.AddEdge(graph.NodeID(e.From), graph.NodeID(e.To), e.Weight)
	}
	return m
}

type AgentDef struct {
	ID            string  `yaml:"id"`
	Capacity      int     `yaml:"capacity"`
	MaxBattery    float64 `yaml:"max_battery"`
	DrainPerUnit  float64 `yaml:"drain_per_unit"`
	BufferPercent float64 `yaml:"buffer_percent,omitempty"`
}

func (a AgentDef) ToConfig() agent.Config {
	return agent.Config{
		ID:                      a.ID,
		Capacity:                a.Capacity,
		MaxBattery:              a.MaxBattery,
		DrainPerUnit:            a.DrainPerUnit,
		MinWorkingBufferPercent: a.BufferPercent,
	}
}

type TaskDef struct {
	ID      int   `yaml:"id"`
	Dropoff int64 `yaml:"dropoff"`
}

func (t TaskDef) ToModel(pickup graph.NodeID) *model.Task {
	return &model.Task{
		ID:      t.ID,
		Pickup:  pickup,
		Dropoff: graph.NodeID(t.Dropoff),
		Status:  model.TaskPending,
	}
}

// Expected lists the outcomes a scenario asserts. Winners maps task IDs to
// the agent expected to win their auction; Deferred, when set, pins the exact
// number of no-bid rounds.
type Expected struct {
	Delivered int            `yaml:"delivered"`
	Cancelled int            `yaml:"cancelled,omitempty"`
	Deferred  *int           `yaml:"deferred,omitempty"`
	Winners   map[int]string `yaml:"winners,omitempty"`
	MaxTicks  int            `yaml:"max_ticks,omitempty"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Depot       int64      `yaml:"depot"`
	Graph       GraphDef   `yaml:"graph"`
	Agents      []AgentDef `yaml:"agents"`
	Tasks       []TaskDef  `yaml:"tasks"`
	Expected    Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Agents) == 0 {
		return nil, fmt.Errorf("scenario %s: no agents defined", sc.Name)
	}
	if len(sc.Tasks) == 0 {
		return nil, fmt.Errorf("scenario %s: no tasks defined", sc.Name)
	}
	for i := range sc.Tasks {
		if sc.Tasks[i].ID == 0 {
			sc.Tasks[i].ID = i + 1
		}
	}
	return &sc, nil
}
