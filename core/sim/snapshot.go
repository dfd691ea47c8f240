package sim

import (
	"time"

	"github.com/parcelops/fleetsim/core/graph"
)

// pathPrefixLen bounds the planned-path prefix exposed in snapshots.
const pathPrefixLen = 10

// LatLng is a presentation coordinate pair attached to a node.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AgentSnapshot is the externally visible state of one agent.
type AgentSnapshot struct {
	ID             string   `json:"id"`
	Location       int64    `json:"location"`
	Coords         *LatLng  `json:"coords,omitempty"`
	Status         string   `json:"status"`
	Battery        float64  `json:"battery"`
	MaxBattery     float64  `json:"max_battery"`
	PackageCount   int      `json:"package_count"`
	Capacity       int      `json:"capacity"`
	NextPath       []int64  `json:"next_path"`
	NextPathCoords []LatLng `json:"next_path_coords,omitempty"`
	DropoffOrder   []int64  `json:"dropoff_order"`
}

// TaskSnapshot is the externally visible state of one task.
type TaskSnapshot struct {
	ID            int     `json:"id"`
	Status        string  `json:"status"`
	Pickup        int64   `json:"pickup"`
	Dropoff       int64   `json:"dropoff"`
	DropoffCoords *LatLng `json:"dropoff_coords,omitempty"`
	AssignedAgent string  `json:"assigned_agent,omitempty"`
}

// Snapshot is a consistent copy of the whole run state, taken under the
// engine lock and safe to serialize after release.
type Snapshot struct {
	RunID          string          `json:"run_id"`
	Tick           int             `json:"tick"`
	Running        bool            `json:"running"`
	Paused         bool            `json:"paused"`
	Depot          int64           `json:"depot"`
	DepotCoords    *LatLng         `json:"depot_coords,omitempty"`
	PendingCount   int             `json:"pending_count"`
	CompletedCount int             `json:"completed_count"`
	CancelledCount int             `json:"cancelled_count"`
	TotalCount     int             `json:"total_count"`
	Agents         []AgentSnapshot `json:"agents"`
	Tasks          []TaskSnapshot  `json:"tasks"`

	// StepDuration is how long the producing tick took. Metrics only, not
	// part of the serialized snapshot.
	StepDuration time.Duration `json:"-"`
}

// Status is the compact run status for polling callers.
type Status struct {
	RunID          string `json:"run_id"`
	Running        bool   `json:"running"`
	Paused         bool   `json:"paused"`
	Tick           int    `json:"tick"`
	CompletedCount int    `json:"completed_count"`
	TotalCount     int    `json:"total_count"`
	Fault          string `json:"fault,omitempty"`
}

// MapInfo describes the loaded network for map rendering.
type MapInfo struct {
	Center      LatLng  `json:"center"`
	BoundsMin   LatLng  `json:"bounds_min"`
	BoundsMax   LatLng  `json:"bounds_max"`
	Depot       int64   `json:"depot"`
	DepotCoords *LatLng `json:"depot_coords,omitempty"`
	NodeCount   int     `json:"node_count"`
}

func coordOf(p graph.Provider, n graph.NodeID) *LatLng {
	cp, ok := p.(graph.CoordProvider)
	if !ok {
		return nil
	}
	lat, lng, ok := cp.Coord(n)
	if !ok {
		return nil
	}
	return &LatLng{Lat: lat, Lng: lng}
}
