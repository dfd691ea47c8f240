package mqtt

// OrderRequest is an order injection received from the orders topic. Dropoff
// pins the package to a specific node; when nil the engine picks reachable
// dropoffs at random. Count defaults to one package.
type OrderRequest struct {
	Dropoff *int64 `json:"dropoff,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Publisher pushes run state to interested parties and accepts order
// injections from them.
type Publisher interface {
	// PublishState sends the current run snapshot. The payload is
	// marshaled by the implementation.
	PublishState(runID string, state any) error

	// PublishCompletion sends the final tally of a finished run.
	PublishCompletion(runID string, summary any) error

	// SubscribeOrders registers a handler invoked for every order request
	// received on the orders topic.
	SubscribeOrders(fn func(OrderRequest)) error

	// Disconnect closes the connection gracefully.
	Disconnect()
}
