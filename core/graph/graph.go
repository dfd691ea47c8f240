package graph

// NodeID identifies a vertex of the road network.
type NodeID int64

// Provider exposes shortest-path queries over a static, non-negatively
// weighted road network. Implementations must be safe for concurrent readers.
type Provider interface {
	// PathLength returns the shortest-path distance from a to b, or
	// math.Inf(1) when b cannot be reached from a.
	PathLength(a, b NodeID) float64
	// Path returns the node sequence of a shortest path from a to b,
	// excluding a itself and ending with b. It returns an empty path when
	// a == b and ErrNoPath when b cannot be reached.
	Path(a, b NodeID) ([]NodeID, error)
	// Reachable reports whether a route from a to b exists.
	Reachable(a, b NodeID) bool
	// EdgeWeight returns the weight of the direct edge between two adjacent
	// nodes, or ErrNoEdge when they are not adjacent.
	EdgeWeight(u, v NodeID) (float64, error)
	// Nodes lists every node of the network in a stable order.
	Nodes() []NodeID
}

// CoordProvider is implemented by providers that carry geographic coordinates
// for their nodes. Coordinates are presentation data only and play no role in
// routing.
type CoordProvider interface {
	Coord(n NodeID) (lat, lng float64, ok bool)
}
