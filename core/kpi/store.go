package kpi

// Store persists KPI records.
type Store interface {
	// Add merges the record into the aggregate for its agent and run.
	Add(Record) error
	// Query returns the aggregates of one agent across runs, or of every
	// agent when agentID is empty.
	Query(agentID string) ([]Record, error)
}
