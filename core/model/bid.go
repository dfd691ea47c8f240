package model

// Bid is one agent's offer for a task: the distance it would travel from the
// depot through the pickup to the dropoff.
type Bid struct {
	AgentID  string
	Distance float64
}

// BidSet holds the bids of one auction round in the order the agents were
// polled. That order doubles as the tie-break: on equal distances the
// earliest bidder wins.
type BidSet []Bid

// Best returns the winning bid. Every bidder applies the same rule to the
// same set, so all of them agree on the winner without extra coordination.
// ok is false when the set is empty.
func (b BidSet) Best() (Bid, bool) {
	if len(b) == 0 {
		return Bid{}, false
	}
	best := b[0]
	for _, bid := range b[1:] {
		if bid.Distance < best.Distance {
			best = bid
		}
	}
	return best, true
}
