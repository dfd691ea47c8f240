package graph

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	core "github.com/parcelops/fleetsim/core/graph"
)

// RoadNetwork is a gonum-backed road graph implementing core/graph.Provider.
// The graph is immutable once built; shortest-path trees are computed lazily
// per source node and cached for the lifetime of the network.
type RoadNetwork struct {
	g      *simple.WeightedUndirectedGraph
	coords map[core.NodeID][2]float64
	nodes  []core.NodeID

	mu    sync.Mutex
	trees map[core.NodeID]path.Shortest
}

// Node describes a vertex of a road network under construction.
type Node struct {
	ID  core.NodeID
	Lat float64
	Lng float64
}

// Edge describes a weighted undirected road segment.
type Edge struct {
	From   core.NodeID
	To     core.NodeID
	Length float64
}

// NewRoadNetwork builds an immutable network from node and edge lists.
func NewRoadNetwork(nodes []Node, edges []Edge) (*RoadNetwork, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("road network needs at least one node")
	}
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	coords := make(map[core.NodeID][2]float64, len(nodes))
	ids := make([]core.NodeID, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := coords[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.ID)
		}
		g.AddNode(simple.Node(n.ID))
		coords[n.ID] = [2]float64{n.Lat, n.Lng}
		ids = append(ids, n.ID)
	}
	for _, e := range edges {
		if e.From == e.To {
			return nil, fmt.Errorf("self edge on node %d", e.From)
		}
		if _, ok := coords[e.From]; !ok {
			return nil, fmt.Errorf("edge references unknown node %d", e.From)
		}
		if _, ok := coords[e.To]; !ok {
			return nil, fmt.Errorf("edge references unknown node %d", e.To)
		}
		if e.Length < 0 {
			return nil, fmt.Errorf("negative length on edge %d-%d", e.From, e.To)
		}
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(e.From),
			T: simple.Node(e.To),
			W: e.Length,
		})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &RoadNetwork{
		g:      g,
		coords: coords,
		nodes:  ids,
		trees:  make(map[core.NodeID]path.Shortest),
	}, nil
}

func (r *RoadNetwork) tree(from core.NodeID) path.Shortest {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trees[from]
	if !ok {
		t = path.DijkstraFrom(simple.Node(from), r.g)
		r.trees[from] = t
	}
	return t
}

// PathLength returns the shortest-path distance from a to b, or +Inf when no
// route exists.
func (r *RoadNetwork) PathLength(a, b core.NodeID) float64 {
	if a == b {
		return 0
	}
	if r.g.Node(int64(a)) == nil || r.g.Node(int64(b)) == nil {
		return math.Inf(1)
	}
	return r.tree(a).WeightTo(int64(b))
}

// Path returns a shortest path from a to b excluding a itself.
func (r *RoadNetwork) Path(a, b core.NodeID) ([]core.NodeID, error) {
	if a == b {
		return nil, nil
	}
	if r.g.Node(int64(a)) == nil || r.g.Node(int64(b)) == nil {
		return nil, core.ErrNoPath
	}
	seq, w := r.tree(a).To(int64(b))
	if math.IsInf(w, 1) || len(seq) == 0 {
		return nil, core.ErrNoPath
	}
	out := make([]core.NodeID, 0, len(seq)-1)
	for _, n := range seq[1:] {
		out = append(out, core.NodeID(n.ID()))
	}
	return out, nil
}

// Reachable reports whether b can be reached from a.
func (r *RoadNetwork) Reachable(a, b core.NodeID) bool {
	return !math.IsInf(r.PathLength(a, b), 1)
}

// EdgeWeight returns the weight of the direct edge between adjacent nodes.
func (r *RoadNetwork) EdgeWeight(u, v core.NodeID) (float64, error) {
	e := r.g.WeightedEdge(int64(u), int64(v))
	if e == nil {
		return 0, core.ErrNoEdge
	}
	return e.Weight(), nil
}

// Nodes lists every node in ascending id order.
func (r *RoadNetwork) Nodes() []core.NodeID {
	out := make([]core.NodeID, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Coord returns the geographic coordinates attached to a node.
func (r *RoadNetwork) Coord(n core.NodeID) (lat, lng float64, ok bool) {
	c, ok := r.coords[n]
	if !ok {
		return 0, 0, false
	}
	return c[0], c[1], true
}
