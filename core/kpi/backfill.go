package kpi

import "github.com/parcelops/fleetsim/core/history"

// Backfill rebuilds delivery and auction-win counts from history records.
// Motion totals (distance, energy) are produced live by the engine and
// cannot be recovered from history, so they stay zero here.
func Backfill(store Store, records []history.Record) error {
	for _, r := range records {
		if r.AgentID == "" {
			continue
		}
		rec := Record{AgentID: r.AgentID, RunID: r.RunID}
		switch r.Kind {
		case history.KindDelivery:
			rec.Deliveries = 1
		case history.KindAuction:
			if r.Outcome != "assigned" {
				continue
			}
			rec.Wins = 1
		default:
			continue
		}
		if err := store.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
