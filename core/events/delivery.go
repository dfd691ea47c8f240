package events

import "github.com/parcelops/fleetsim/core/graph"

// DeliveryEvent is published when an agent hands a package over at its
// dropoff node.
type DeliveryEvent struct {
	Tick    int
	AgentID string
	TaskID  int
	Node    graph.NodeID
}
