// Package export serializes run reports for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/parcelops/fleetsim/core/kpi"
	"github.com/parcelops/fleetsim/core/sim"
)

// Report is the final tally of a run plus per-agent aggregates.
type Report struct {
	RunID     string       `json:"run_id"`
	Ticks     int          `json:"ticks"`
	Delivered int          `json:"delivered"`
	Cancelled int          `json:"cancelled"`
	Total     int          `json:"total"`
	Agents    []kpi.Record `json:"agents"`
}

// FromSnapshot builds a report from a final run snapshot and its KPI records.
func FromSnapshot(snap sim.Snapshot, agents []kpi.Record) Report {
	return Report{
		RunID:     snap.RunID,
		Ticks:     snap.Tick,
		Delivered: snap.CompletedCount,
		Cancelled: snap.CancelledCount,
		Total:     snap.TotalCount,
		Agents:    agents,
	}
}

// WriteJSON writes the report to w in JSON format.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV writes the per-agent aggregates to w as CSV.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"agent_id", "run_id", "distance", "energy", "deliveries", "wins"}); err != nil {
		return err
	}
	for _, a := range r.Agents {
		rec := []string{
			a.AgentID,
			a.RunID,
			strconv.FormatFloat(a.Distance, 'f', -1, 64),
			strconv.FormatFloat(a.Energy, 'f', -1, 64),
			strconv.Itoa(a.Deliveries),
			strconv.Itoa(a.Wins),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
