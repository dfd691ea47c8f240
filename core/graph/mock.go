package graph

import "math"

// MockProvider is an in-memory Provider over an explicit edge list, meant for
// tests and tiny synthetic networks. Every query recomputes shortest paths
// from scratch.
type MockProvider struct {
	nodes  []NodeID
	seen   map[NodeID]struct{}
	edges  map[NodeID]map[NodeID]float64
	coords map[NodeID][2]float64
}

// NewMockProvider returns an empty mock network.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		seen:   make(map[NodeID]struct{}),
		edges:  make(map[NodeID]map[NodeID]float64),
		coords: make(map[NodeID][2]float64),
	}
}

// AddNode registers an isolated node.
func (m *MockProvider) AddNode(n NodeID) { m.addNode(n) }

// AddEdge connects two nodes in both directions with the given weight.
func (m *MockProvider) AddEdge(u, v NodeID, w float64) {
	m.addNode(u)
	m.addNode(v)
	if m.edges[u] == nil {
		m.edges[u] = make(map[NodeID]float64)
	}
	if m.edges[v] == nil {
		m.edges[v] = make(map[NodeID]float64)
	}
	m.edges[u][v] = w
	m.edges[v][u] = w
}

// SetCoord attaches presentation coordinates to a node.
func (m *MockProvider) SetCoord(n NodeID, lat, lng float64) {
	m.addNode(n)
	m.coords[n] = [2]float64{lat, lng}
}

func (m *MockProvider) addNode(n NodeID) {
	if _, ok := m.seen[n]; ok {
		return
	}
	m.seen[n] = struct{}{}
	m.nodes = append(m.nodes, n)
}

// Nodes lists every node in insertion order.
func (m *MockProvider) Nodes() []NodeID {
	out := make([]NodeID, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// EdgeWeight returns the weight of the direct edge between u and v.
func (m *MockProvider) EdgeWeight(u, v NodeID) (float64, error) {
	if w, ok := m.edges[u][v]; ok {
		return w, nil
	}
	return 0, ErrNoEdge
}

// PathLength returns the shortest-path distance from a to b, or +Inf when b
// cannot be reached.
func (m *MockProvider) PathLength(a, b NodeID) float64 {
	dist, _ := m.dijkstra(a, b)
	return dist
}

// Path returns the shortest path from a to b excluding a, empty when a == b.
func (m *MockProvider) Path(a, b NodeID) ([]NodeID, error) {
	if a == b {
		return nil, nil
	}
	dist, prev := m.dijkstra(a, b)
	if math.IsInf(dist, 1) {
		return nil, ErrNoPath
	}
	var rev []NodeID
	for n := b; n != a; n = prev[n] {
		rev = append(rev, n)
	}
	out := make([]NodeID, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out, nil
}

// Reachable reports whether b can be reached from a.
func (m *MockProvider) Reachable(a, b NodeID) bool {
	return !math.IsInf(m.PathLength(a, b), 1)
}

// Coord returns the coordinates attached to a node.
func (m *MockProvider) Coord(n NodeID) (float64, float64, bool) {
	c, ok := m.coords[n]
	return c[0], c[1], ok
}

func (m *MockProvider) dijkstra(a, b NodeID) (float64, map[NodeID]NodeID) {
	prev := make(map[NodeID]NodeID, len(m.nodes))
	if _, ok := m.seen[a]; !ok {
		return math.Inf(1), prev
	}
	if _, ok := m.seen[b]; !ok {
		return math.Inf(1), prev
	}
	dist := make(map[NodeID]float64, len(m.nodes))
	done := make(map[NodeID]bool, len(m.nodes))
	for _, n := range m.nodes {
		dist[n] = math.Inf(1)
	}
	dist[a] = 0
	for {
		var cur NodeID
		best := math.Inf(1)
		found := false
		for _, n := range m.nodes {
			if !done[n] && dist[n] < best {
				best = dist[n]
				cur = n
				found = true
			}
		}
		if !found || cur == b {
			break
		}
		done[cur] = true
		for nb, w := range m.edges[cur] {
			if nd := dist[cur] + w; nd < dist[nb] {
				dist[nb] = nd
				prev[nb] = cur
			}
		}
	}
	return dist[b], prev
}
