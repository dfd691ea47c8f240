package model

import (
	"fmt"

	"github.com/parcelops/fleetsim/core/graph"
)

// TaskStatus tracks a delivery task through its lifecycle.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskAssigned
	TaskDelivered
	TaskCancelled
)

// String returns a human-readable representation of the status.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskAssigned:
		return "assigned"
	case TaskDelivered:
		return "delivered"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task represents a single delivery: one package carried from its pickup node
// to its dropoff node. Valid transitions are pending -> assigned -> delivered
// and pending -> cancelled; any other mutation is a programming error and
// panics.
type Task struct {
	ID            int
	Pickup        graph.NodeID
	Dropoff       graph.NodeID
	Status        TaskStatus
	AssignedAgent string // empty until assigned
}

// Assign marks the task as won by the given agent. The task must be pending.
func (t *Task) Assign(agentID string) {
	if t.Status != TaskPending {
		panic(fmt.Sprintf("task %d: assign while %s", t.ID, t.Status))
	}
	t.Status = TaskAssigned
	t.AssignedAgent = agentID
}

// Complete marks the task as delivered. The task must be assigned.
func (t *Task) Complete() {
	if t.Status != TaskAssigned {
		panic(fmt.Sprintf("task %d: complete while %s", t.ID, t.Status))
	}
	t.Status = TaskDelivered
}

// Cancel marks the task as undeliverable. The task must be pending.
func (t *Task) Cancel() {
	if t.Status != TaskPending {
		panic(fmt.Sprintf("task %d: cancel while %s", t.ID, t.Status))
	}
	t.Status = TaskCancelled
}

// Terminal reports whether the task reached a final status.
func (t *Task) Terminal() bool {
	return t.Status == TaskDelivered || t.Status == TaskCancelled
}
