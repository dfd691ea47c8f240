package graph

import (
	"fmt"
	"math/rand"

	core "github.com/parcelops/fleetsim/core/graph"
)

// GridSpec parameterizes a synthetic city grid. Nodes are laid out row-major
// on a lattice; every lateral neighbor pair is connected by an edge whose
// length is the spacing perturbed by up to Jitter in both directions.
type GridSpec struct {
	Rows    int
	Cols    int
	Spacing float64
	Jitter  float64
	Seed    int64
	// BaseLat and BaseLng anchor the grid's presentation coordinates.
	BaseLat float64
	BaseLng float64
	// CellDeg is the coordinate delta between adjacent lattice nodes.
	CellDeg float64
}

// SetDefaults fills in zero-valued fields of the spec.
func (s *GridSpec) SetDefaults() {
	if s.Rows == 0 {
		s.Rows = 12
	}
	if s.Cols == 0 {
		s.Cols = 12
	}
	if s.Spacing == 0 {
		s.Spacing = 100
	}
	if s.Jitter == 0 {
		s.Jitter = 0.25
	}
	if s.BaseLat == 0 {
		s.BaseLat = 48.8566
	}
	if s.BaseLng == 0 {
		s.BaseLng = 2.3522
	}
	if s.CellDeg == 0 {
		s.CellDeg = 0.0015
	}
}

// Validate rejects specs that cannot produce a usable road network.
func (s GridSpec) Validate() error {
	if s.Rows < 2 || s.Cols < 2 {
		return fmt.Errorf("grid needs at least 2x2 nodes, got %dx%d", s.Rows, s.Cols)
	}
	if s.Spacing <= 0 {
		return fmt.Errorf("grid spacing must be positive")
	}
	if s.Jitter < 0 || s.Jitter >= 1 {
		return fmt.Errorf("grid jitter must be in [0,1)")
	}
	return nil
}

// GenerateGrid produces the node and edge lists of a synthetic grid.
func GenerateGrid(spec GridSpec) ([]Node, []Edge, error) {
	spec.SetDefaults()
	if err := spec.Validate(); err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewSource(spec.Seed))
	id := func(row, col int) core.NodeID {
		return core.NodeID(row*spec.Cols + col)
	}
	length := func() float64 {
		return spec.Spacing * (1 + spec.Jitter*(2*rng.Float64()-1))
	}

	nodes := make([]Node, 0, spec.Rows*spec.Cols)
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			nodes = append(nodes, Node{
				ID:  id(r, c),
				Lat: spec.BaseLat + float64(r)*spec.CellDeg,
				Lng: spec.BaseLng + float64(c)*spec.CellDeg,
			})
		}
	}
	edges := make([]Edge, 0, 2*spec.Rows*spec.Cols)
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			if c+1 < spec.Cols {
				edges = append(edges, Edge{From: id(r, c), To: id(r, c+1), Length: length()})
			}
			if r+1 < spec.Rows {
				edges = append(edges, Edge{From: id(r, c), To: id(r+1, c), Length: length()})
			}
		}
	}
	return nodes, edges, nil
}

// NewGridNetwork generates a synthetic grid and builds a network from it.
func NewGridNetwork(spec GridSpec) (*RoadNetwork, error) {
	nodes, edges, err := GenerateGrid(spec)
	if err != nil {
		return nil, err
	}
	return NewRoadNetwork(nodes, edges)
}
