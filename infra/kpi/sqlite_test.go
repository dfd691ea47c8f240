package kpi

import (
	"testing"

	core "github.com/parcelops/fleetsim/core/kpi"
)

func TestSQLiteStore_MergeQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:kpi_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Add(core.Record{AgentID: "agent-01", RunID: "r1", Distance: 10, Energy: 1, Deliveries: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(core.Record{AgentID: "agent-01", RunID: "r1", Distance: 4, Wins: 1}); err != nil {
		t.Fatalf("add2: %v", err)
	}
	recs, err := store.Query("agent-01")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(recs))
	}
	if recs[0].Distance != 14 || recs[0].Deliveries != 1 || recs[0].Wins != 1 {
		t.Fatalf("unexpected aggregate: %+v", recs[0])
	}
}
