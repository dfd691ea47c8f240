package agent

import (
	"math"

	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/model"
)

// MoveReport summarizes the effects of one motion tick.
type MoveReport struct {
	Delivered []*model.Task
	Distance  float64
	Stranded  bool
	Returned  bool // finished the tour and parked at the depot
}

// feasible simulates serving every manifest dropoff plus one candidate and
// reports whether the current battery covers the whole tour and the leg back
// to the depot. The tour is a greedy nearest-neighbor walk from the agent's
// position, recomputed from scratch on every call; O(k^2) path queries for k
// distinct stops.
//
// TODO: apply bufferPercent as a reserve margin in the battery comparison.
func (a *Agent) feasible(candidate, depot graph.NodeID, bufferPercent float64) bool {
	remaining := a.manifestDropoffs()
	if !containsNode(remaining, candidate) {
		remaining = append(remaining, candidate)
	}
	current := a.Location
	total := 0.0

	for len(remaining) > 0 {
		idx := -1
		nearest := math.Inf(1)
		for i, node := range remaining {
			if d := a.graph.PathLength(current, node); d < nearest {
				nearest = d
				idx = i
			}
		}
		if idx < 0 {
			return false
		}
		total += nearest
		current = remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	home := a.graph.PathLength(current, depot)
	if math.IsInf(home, 1) {
		return false
	}
	total += home

	return a.Battery >= total*a.DrainPerUnit
}

// PlanRoute builds the delivery tour and flips the agent to busy. Stops are
// visited greedily by nearest-neighbor, the flattened node path is stitched
// from shortest-path segments, and the tour ends with the ride home. All
// pickups sit at the depot, so the first manifest entry names the return
// node. Unreachable stops are dropped with a warning instead of aborting the
// whole plan.
func (a *Agent) PlanRoute() {
	if len(a.Manifest) == 0 {
		return
	}
	a.Status = StatusBusy

	remaining := a.manifestDropoffs()
	order := make([]graph.NodeID, 0, len(remaining))
	path := make([]graph.NodeID, 0, 64)
	current := a.Location
	total := 0.0

	a.log.Infof("agent %s: planning route to %d unique dropoffs", a.ID, len(remaining))

	for len(remaining) > 0 {
		idx := -1
		nearest := math.Inf(1)
		reachable := remaining[:0]
		for _, node := range remaining {
			d := a.graph.PathLength(current, node)
			if math.IsInf(d, 1) {
				a.log.Warnf("agent %s: no path to dropoff %d, skipping", a.ID, node)
				continue
			}
			if d < nearest {
				nearest = d
				idx = len(reachable)
			}
			reachable = append(reachable, node)
		}
		remaining = reachable
		if idx < 0 {
			break
		}
		next := remaining[idx]
		seg, err := a.graph.Path(current, next)
		if err != nil {
			a.log.Warnf("agent %s: no path to dropoff %d, skipping", a.ID, next)
			remaining = append(remaining[:idx], remaining[idx+1:]...)
			continue
		}
		total += nearest
		path = append(path, seg...)
		order = append(order, next)
		current = next
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	depot := a.Manifest[0].Pickup
	if seg, err := a.graph.Path(current, depot); err != nil {
		a.log.Warnf("agent %s: no path back to depot %d", a.ID, depot)
	} else {
		total += a.graph.PathLength(current, depot)
		path = append(path, seg...)
	}

	a.Path = path
	a.DropoffOrder = order
	a.log.Infof("agent %s: route ready, %d nodes, %.2f distance, est. drain %.1f (battery %.1f)",
		a.ID, len(a.Path), total, total*a.DrainPerUnit, a.Battery)
}

// Move takes one step along the planned path. An empty path means the tour is
// over: the agent parks, clears its manifest and goes back to listening for
// auctions. With an exhausted battery the agent stays put. A missing edge on
// the way is logged and crossed at zero cost so a data gap cannot wedge the
// run.
func (a *Agent) Move() MoveReport {
	if len(a.Path) == 0 {
		a.log.Infof("agent %s: finished route and returned to depot", a.ID)
		a.Status = StatusAvailable
		a.Manifest = nil
		a.DropoffOrder = nil
		return MoveReport{Returned: true}
	}
	if a.Battery <= 0 {
		a.log.Warnf("agent %s: out of battery, stopped at node %d", a.ID, a.Location)
		return MoveReport{Stranded: true}
	}

	next := a.Path[0]
	a.Path = a.Path[1:]
	cost, err := a.graph.EdgeWeight(a.Location, next)
	if err != nil {
		a.log.Errorf("agent %s: edge %d-%d not found, stepping at zero cost", a.ID, a.Location, next)
		cost = 0
	}
	a.Battery -= cost * a.DrainPerUnit
	if a.Battery < 0 {
		a.Battery = 0
	}
	a.Location = next

	rep := MoveReport{Distance: cost}
	if len(a.DropoffOrder) > 0 && a.Location == a.DropoffOrder[0] {
		node := a.DropoffOrder[0]
		a.DropoffOrder = a.DropoffOrder[1:]
		a.log.Infof("agent %s: arrived at dropoff %d", a.ID, node)
		kept := a.Manifest[:0]
		for _, t := range a.Manifest {
			if t.Dropoff == node {
				t.Complete()
				rep.Delivered = append(rep.Delivered, t)
				a.log.Infof("agent %s: delivered package %d", a.ID, t.ID)
			} else {
				kept = append(kept, t)
			}
		}
		a.Manifest = kept
	}
	return rep
}

func containsNode(nodes []graph.NodeID, n graph.NodeID) bool {
	for _, v := range nodes {
		if v == n {
			return true
		}
	}
	return false
}
