package model

import "testing"

func TestTaskLifecycle(t *testing.T) {
	task := &Task{ID: 1, Pickup: 0, Dropoff: 5}
	if task.Status != TaskPending {
		t.Fatalf("expected pending got %v", task.Status)
	}
	task.Assign("agent-01")
	if task.Status != TaskAssigned || task.AssignedAgent != "agent-01" {
		t.Fatalf("unexpected state after assign: %v %q", task.Status, task.AssignedAgent)
	}
	task.Complete()
	if task.Status != TaskDelivered {
		t.Fatalf("expected delivered got %v", task.Status)
	}
	if !task.Terminal() {
		t.Fatalf("delivered task should be terminal")
	}
}

func TestTaskCancelRequiresPending(t *testing.T) {
	task := &Task{ID: 2}
	task.Cancel()
	if task.Status != TaskCancelled {
		t.Fatalf("expected cancelled got %v", task.Status)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double cancel")
		}
	}()
	task.Cancel()
}

func TestTaskAssignRequiresPending(t *testing.T) {
	task := &Task{ID: 3}
	task.Assign("agent-01")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double assign")
		}
	}()
	task.Assign("agent-02")
}

func TestBidSetBest(t *testing.T) {
	bids := BidSet{
		{AgentID: "agent-01", Distance: 12},
		{AgentID: "agent-02", Distance: 7},
		{AgentID: "agent-03", Distance: 7},
	}
	best, ok := bids.Best()
	if !ok {
		t.Fatalf("expected a winner")
	}
	if best.AgentID != "agent-02" {
		t.Fatalf("tie should go to the earliest bidder, got %s", best.AgentID)
	}
	if _, ok := (BidSet{}).Best(); ok {
		t.Fatalf("empty set should have no winner")
	}
}
