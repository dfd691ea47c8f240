package depot

import (
	"errors"
	"testing"

	"github.com/parcelops/fleetsim/core/agent"
	"github.com/parcelops/fleetsim/core/events"
	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/model"
	"github.com/parcelops/fleetsim/infra/logger"
)

const depotNode = graph.NodeID(1)

// symmetric builds a star around the depot: every dropoff is 10 away.
func symmetric() *graph.MockProvider {
	g := graph.NewMockProvider()
	g.AddEdge(1, 2, 10)
	g.AddEdge(1, 3, 10)
	return g
}

func newAgent(t *testing.T, id string, g graph.Provider) *agent.Agent {
	t.Helper()
	ag, err := agent.New(agent.Config{
		ID:           id,
		Capacity:     5,
		MaxBattery:   1000,
		DrainPerUnit: 1,
	}, g, depotNode, logger.NopLogger{})
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return ag
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, depotNode, logger.NopLogger{}); err == nil {
		t.Fatalf("expected error for nil graph")
	}
	if _, err := New(symmetric(), depotNode, nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

func TestRunAuctionNothingQueued(t *testing.T) {
	c, err := New(symmetric(), depotNode, logger.NopLogger{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.Register(newAgent(t, "agent-01", symmetric()))
	round, err := c.RunAuction()
	if err != nil || round.Held {
		t.Fatalf("empty queue must not hold a round: %+v %v", round, err)
	}
}

func TestRunAuctionNoAvailableAgent(t *testing.T) {
	g := symmetric()
	c, _ := New(g, depotNode, logger.NopLogger{})
	ag := newAgent(t, "agent-01", g)
	ag.Status = agent.StatusBusy
	c.Register(ag)
	c.AddTasks(&model.Task{ID: 1, Pickup: depotNode, Dropoff: 2})

	round, err := c.RunAuction()
	if err != nil || round.Held {
		t.Fatalf("round must not run without available agents")
	}
	if c.PendingCount() != 1 {
		t.Fatalf("task must stay queued")
	}
}

// Two agents, symmetric graph: equal bids, the earlier roster entry wins.
func TestRunAuctionTieGoesToRosterOrder(t *testing.T) {
	g := symmetric()
	c, _ := New(g, depotNode, logger.NopLogger{})
	first := newAgent(t, "agent-01", g)
	second := newAgent(t, "agent-02", g)
	c.Register(first, second)
	task := &model.Task{ID: 1, Pickup: depotNode, Dropoff: 2}
	c.AddTasks(task)

	round, err := c.RunAuction()
	if err != nil {
		t.Fatalf("auction: %v", err)
	}
	if round.Outcome != events.AuctionAssigned || round.Winner != "agent-01" {
		t.Fatalf("expected agent-01 to win the tie, got %+v", round)
	}
	if task.Status != model.TaskAssigned || task.AssignedAgent != "agent-01" {
		t.Fatalf("task not assigned to the winner: %+v", task)
	}
	if round.Bids != 2 || round.Distance != 10 {
		t.Fatalf("unexpected round stats: %+v", round)
	}
}

// A task whose dropoff has no route is cancelled before any CFP goes out.
func TestRunAuctionUnreachableTaskCancelled(t *testing.T) {
	g := symmetric()
	g.AddNode(9)
	c, _ := New(g, depotNode, logger.NopLogger{})
	c.Register(newAgent(t, "agent-01", g))
	task := &model.Task{ID: 1, Pickup: depotNode, Dropoff: 9}
	c.AddTasks(task)

	round, err := c.RunAuction()
	if err != nil {
		t.Fatalf("auction: %v", err)
	}
	if round.Outcome != events.AuctionCancelled {
		t.Fatalf("expected cancellation, got %+v", round)
	}
	if task.Status != model.TaskCancelled {
		t.Fatalf("task must be cancelled, got %v", task.Status)
	}
	if c.PendingCount() != 0 {
		t.Fatalf("cancelled task must not be requeued")
	}
}

// No bids: the task goes back to the tail of the queue.
func TestRunAuctionNoBidsDefersTask(t *testing.T) {
	g := symmetric()
	c, _ := New(g, depotNode, logger.NopLogger{})
	ag := newAgent(t, "agent-01", g)
	ag.Battery = 0.1 // cannot cover any tour, so it abstains
	ag.MaxBattery = 0.1
	c.Register(ag)
	first := &model.Task{ID: 1, Pickup: depotNode, Dropoff: 2}
	second := &model.Task{ID: 2, Pickup: depotNode, Dropoff: 3}
	c.AddTasks(first, second)

	round, err := c.RunAuction()
	if err != nil {
		t.Fatalf("auction: %v", err)
	}
	if round.Outcome != events.AuctionDeferred {
		t.Fatalf("expected deferral, got %+v", round)
	}
	pending := c.Pending()
	if len(pending) != 2 || pending[0].ID != 2 || pending[1].ID != 1 {
		t.Fatalf("deferred task must move to the tail: %+v", pending)
	}
}

// Two agents sharing an ID both match the winner rule: the coordinator must
// flag the double acceptance as a consistency fault.
func TestRunAuctionConsistencyFault(t *testing.T) {
	g := symmetric()
	c, _ := New(g, depotNode, logger.NopLogger{})
	c.Register(newAgent(t, "agent-01", g), newAgent(t, "agent-01", g))
	task := &model.Task{ID: 1, Pickup: depotNode, Dropoff: 2}
	c.AddTasks(task)

	defer func() {
		// The second acceptance panics on the already-assigned task; either
		// surface counts as the invariant violation being caught loudly.
		if recover() != nil {
			return
		}
	}()
	_, err := c.RunAuction()
	if !errors.Is(err, ErrConsistency) {
		t.Fatalf("expected consistency fault, got %v", err)
	}
}

func TestAddTasksPreservesOrder(t *testing.T) {
	c, _ := New(symmetric(), depotNode, logger.NopLogger{})
	c.AddTasks(&model.Task{ID: 1}, &model.Task{ID: 2})
	c.AddTasks(&model.Task{ID: 3})
	pending := c.Pending()
	if len(pending) != 3 || pending[0].ID != 1 || pending[2].ID != 3 {
		t.Fatalf("queue order broken: %+v", pending)
	}
}
