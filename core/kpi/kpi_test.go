package kpi

import (
	"testing"

	"github.com/parcelops/fleetsim/core/history"
)

func TestMemoryStore_Aggregation(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Add(Record{AgentID: "agent-01", RunID: "r1", Distance: 10, Energy: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(Record{AgentID: "agent-01", RunID: "r1", Distance: 5, Deliveries: 1}); err != nil {
		t.Fatalf("add2: %v", err)
	}
	recs, err := s.Query("agent-01")
	if err != nil || len(recs) != 1 {
		t.Fatalf("query: %v len=%d", err, len(recs))
	}
	if recs[0].Distance != 15 || recs[0].Energy != 2 || recs[0].Deliveries != 1 {
		t.Fatalf("unexpected aggregate: %+v", recs[0])
	}
}

func TestRecordEnergyPerDelivery(t *testing.T) {
	r := Record{Energy: 6, Deliveries: 3}
	if r.EnergyPerDelivery() != 2 {
		t.Fatalf("expected 2 got %f", r.EnergyPerDelivery())
	}
	if (Record{Energy: 6}).EnergyPerDelivery() != 0 {
		t.Fatalf("no deliveries should yield 0")
	}
}

func TestBackfill(t *testing.T) {
	s := NewMemoryStore()
	records := []history.Record{
		{RunID: "r1", Kind: history.KindAuction, AgentID: "agent-01", Outcome: "assigned"},
		{RunID: "r1", Kind: history.KindAuction, Outcome: "deferred"},
		{RunID: "r1", Kind: history.KindDelivery, AgentID: "agent-01"},
		{RunID: "r1", Kind: history.KindDelivery, AgentID: "agent-01"},
	}
	if err := Backfill(s, records); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	recs, err := s.Query("agent-01")
	if err != nil || len(recs) != 1 {
		t.Fatalf("query: %v len=%d", err, len(recs))
	}
	if recs[0].Wins != 1 || recs[0].Deliveries != 2 {
		t.Fatalf("unexpected aggregate: %+v", recs[0])
	}
}
