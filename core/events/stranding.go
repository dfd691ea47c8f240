package events

import "github.com/parcelops/fleetsim/core/graph"

// StrandingEvent is published when a busy agent cannot move because its
// battery is exhausted.
type StrandingEvent struct {
	Tick     int
	AgentID  string
	Location graph.NodeID
}
