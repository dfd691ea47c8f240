package events

// CompletionEvent is published once when a run terminates, either because
// every task reached a terminal status or because the run was stopped.
type CompletionEvent struct {
	RunID      string
	TotalTicks int
	Delivered  int
	Cancelled  int
}
