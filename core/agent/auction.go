package agent

import (
	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/model"
)

// HandleCFP answers a call for proposal. The agent abstains unless it is
// available at the depot with spare capacity and enough battery to serve its
// manifest plus the offered task. The bid is the direct two-leg distance
// depot -> pickup -> dropoff: a measure of how well-positioned the agent is
// for this one task, not the cost of the whole tour.
func (a *Agent) HandleCFP(task *model.Task, depot graph.NodeID) (model.Bid, bool) {
	if a.Status != StatusAvailable || a.Location != depot {
		return model.Bid{}, false
	}
	if a.AtCapacity() {
		return model.Bid{}, false
	}
	if !a.feasible(task.Dropoff, depot, a.MinWorkingBufferPercent) {
		a.log.Debugf("agent %s: rejecting task %d, battery cannot cover the full tour", a.ID, task.ID)
		return model.Bid{}, false
	}
	distance := a.graph.PathLength(a.Location, task.Pickup) + a.graph.PathLength(task.Pickup, task.Dropoff)
	a.log.Infof("agent %s: bidding %.2f for task %d (holding %d)", a.ID, distance, task.ID, len(a.Manifest))
	return model.Bid{AgentID: a.ID, Distance: distance}, true
}

// EvaluateBids applies the shared winner rule to the full bid set. Every
// bidder runs the exact same computation, so all of them converge on one
// winner without the coordinator announcing it. Returns true when this agent
// is the winner and accepted the task.
func (a *Agent) EvaluateBids(bids model.BidSet, task *model.Task) bool {
	best, ok := bids.Best()
	if !ok || best.AgentID != a.ID {
		return false
	}
	a.log.Infof("agent %s: won task %d with %.2f (holding %d)", a.ID, task.ID, best.Distance, len(a.Manifest)+1)
	a.Manifest = append(a.Manifest, task)
	task.Assign(a.ID)
	if a.AtCapacity() {
		a.log.Infof("agent %s: capacity reached, planning route", a.ID)
		a.PlanRoute()
	}
	return true
}
