// Package history persists the notable events of a run: auction rounds,
// deliveries and strandings. Stores are queryable after the fact, which is
// what the KPI backfill and the history API endpoint build on.
package history

import (
	"context"
	"time"
)

// Kind classifies a history record.
type Kind string

const (
	KindAuction   Kind = "auction"
	KindDelivery  Kind = "delivery"
	KindStranding Kind = "stranding"
)

// Record captures one simulation event.
type Record struct {
	Time     time.Time `json:"time"`
	RunID    string    `json:"run_id"`
	Tick     int       `json:"tick"`
	Kind     Kind      `json:"kind"`
	TaskID   int       `json:"task_id,omitempty"`
	AgentID  string    `json:"agent_id,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	Distance float64   `json:"distance,omitempty"`
	Node     int64     `json:"node,omitempty"`
}

// Query defines filters for retrieving records. Zero values match everything.
type Query struct {
	Kind     Kind
	AgentID  string
	TaskID   int
	FromTick int
	ToTick   int // 0 means unbounded
	Start    time.Time
	End      time.Time
}

func (q Query) matches(r Record) bool {
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.AgentID != "" && r.AgentID != q.AgentID {
		return false
	}
	if q.TaskID != 0 && r.TaskID != q.TaskID {
		return false
	}
	if r.Tick < q.FromTick {
		return false
	}
	if q.ToTick != 0 && r.Tick > q.ToTick {
		return false
	}
	if !q.Start.IsZero() && r.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Time.After(q.End) {
		return false
	}
	return true
}

// LogStore persists and retrieves run history records.
type LogStore interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record. Used when history persistence is disabled.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
