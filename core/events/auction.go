package events

// AuctionOutcome describes how an auction round ended.
type AuctionOutcome string

const (
	// AuctionAssigned means exactly one agent won and took the task.
	AuctionAssigned AuctionOutcome = "assigned"
	// AuctionCancelled means the task had no pickup-to-dropoff route and was
	// dropped for good.
	AuctionCancelled AuctionOutcome = "cancelled"
	// AuctionDeferred means nobody bid and the task went back to the queue.
	AuctionDeferred AuctionOutcome = "deferred"
)

// AuctionEvent is published after every auction round.
type AuctionEvent struct {
	Tick     int
	TaskID   int
	Outcome  AuctionOutcome
	Winner   string  // empty unless assigned
	Distance float64 // winning bid distance
	Bids     int
}
