package depot

import (
	"fmt"

	"github.com/parcelops/fleetsim/core/agent"
	"github.com/parcelops/fleetsim/core/events"
	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/logger"
	"github.com/parcelops/fleetsim/core/model"
)

// Coordinator owns the pending task queue and the agent roster and runs the
// contract-net auction, one task per round. It never picks a winner itself:
// it collects bids, relays the full set back to every bidder and lets their
// shared evaluation rule converge on one acceptance. Roster order is fixed at
// registration and doubles as the bid tie-break order. Not safe for
// concurrent use; the simulation lock serializes every call.
type Coordinator struct {
	DepotLocation graph.NodeID

	pending []*model.Task
	agents  []*agent.Agent
	graph   graph.Provider
	log     logger.Logger
}

// Round describes the outcome of one auction round.
type Round struct {
	Held     bool // false when no round ran this tick
	TaskID   int
	Outcome  events.AuctionOutcome
	Winner   string
	Distance float64
	Bids     int
}

// New creates a coordinator parked at the given depot node.
func New(g graph.Provider, depot graph.NodeID, log logger.Logger) (*Coordinator, error) {
	if g == nil || log == nil {
		return nil, fmt.Errorf("depot: nil parameter provided to New")
	}
	return &Coordinator{DepotLocation: depot, graph: g, log: log}, nil
}

// Register appends agents to the roster. Registration order is the tie-break
// order for the whole run.
func (c *Coordinator) Register(agents ...*agent.Agent) {
	c.agents = append(c.agents, agents...)
}

// Agents returns the roster in registration order.
func (c *Coordinator) Agents() []*agent.Agent { return c.agents }

// AddTasks appends tasks to the tail of the pending queue, preserving their
// arrival order.
func (c *Coordinator) AddTasks(tasks ...*model.Task) {
	c.pending = append(c.pending, tasks...)
	c.log.Infof("depot: %d new packages, %d waiting", len(tasks), len(c.pending))
}

// Pending returns the live pending queue. Callers must treat it as read-only.
func (c *Coordinator) Pending() []*model.Task { return c.pending }

// PendingCount returns the number of queued tasks.
func (c *Coordinator) PendingCount() int { return len(c.pending) }

// RunAuction runs at most one auction round. Nothing happens unless a task is
// queued and at least one agent is available. A task whose dropoff cannot be
// reached from its pickup is cancelled outright. A task nobody bids on goes
// back to the tail of the queue. Otherwise every bidder evaluates the full
// bid set; anything but exactly one acceptance is a protocol consistency
// fault returned as an error.
func (c *Coordinator) RunAuction() (Round, error) {
	if len(c.pending) == 0 || !c.anyAvailable() {
		return Round{}, nil
	}

	task := c.pending[0]
	c.pending = c.pending[1:]
	c.log.Infof("depot: auctioning task %d (dropoff %d)", task.ID, task.Dropoff)

	if !c.graph.Reachable(task.Pickup, task.Dropoff) {
		task.Cancel()
		c.log.Warnf("depot: no path for task %d, cancelling", task.ID)
		return Round{Held: true, TaskID: task.ID, Outcome: events.AuctionCancelled}, nil
	}

	var bids model.BidSet
	var bidders []*agent.Agent
	for _, ag := range c.agents {
		if bid, ok := ag.HandleCFP(task, c.DepotLocation); ok {
			bids = append(bids, bid)
			bidders = append(bidders, ag)
		}
	}

	if len(bids) == 0 {
		c.pending = append(c.pending, task)
		c.log.Infof("depot: no bids for task %d, back to the queue", task.ID)
		return Round{Held: true, TaskID: task.ID, Outcome: events.AuctionDeferred}, nil
	}

	c.log.Infof("depot: %d proposals for task %d, relaying to bidders", len(bids), task.ID)
	accepted := 0
	for _, ag := range bidders {
		if ag.EvaluateBids(bids, task) {
			accepted++
		}
	}
	if accepted != 1 || task.Status != model.TaskAssigned {
		return Round{Held: true, TaskID: task.ID}, fmt.Errorf(
			"depot: task %d accepted by %d of %d bidders: %w", task.ID, accepted, len(bids), ErrConsistency)
	}

	best, _ := bids.Best()
	return Round{
		Held:     true,
		TaskID:   task.ID,
		Outcome:  events.AuctionAssigned,
		Winner:   task.AssignedAgent,
		Distance: best.Distance,
		Bids:     len(bids),
	}, nil
}

func (c *Coordinator) anyAvailable() bool {
	for _, ag := range c.agents {
		if ag.Status == agent.StatusAvailable {
			return true
		}
	}
	return false
}
