// Package kpi aggregates the performance indicators of a run per agent:
// distance traveled, energy drained and packages delivered.
package kpi

// Record aggregates KPIs for one agent over one run.
type Record struct {
	AgentID    string
	RunID      string
	Distance   float64
	Energy     float64
	Deliveries int
	Wins       int
}

// EnergyPerDelivery returns the average energy spent per delivered package.
func (r Record) EnergyPerDelivery() float64 {
	if r.Deliveries == 0 {
		return 0
	}
	return r.Energy / float64(r.Deliveries)
}
