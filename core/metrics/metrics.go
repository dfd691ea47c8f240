package metrics

import "time"

// TickEvent summarizes one simulation step.
type TickEvent struct {
	Tick      int
	Pending   int
	Completed int
	Total     int
	Batteries map[string]float64
	Duration  time.Duration
	Time      time.Time
}

// MetricsSink records per-tick simulation state for observability purposes.
type MetricsSink interface {
	RecordTick(ev TickEvent) error
}

// AuctionRoundEvent captures the outcome of one auction round.
type AuctionRoundEvent struct {
	Tick     int
	TaskID   int
	Outcome  string
	Winner   string
	Distance float64
	Bids     int
	Time     time.Time
}

// AuctionRecorder records auction round outcomes.
type AuctionRecorder interface {
	RecordAuctionRound(ev AuctionRoundEvent) error
}

// DeliveryEvent captures a package handed over at its dropoff node.
type DeliveryEvent struct {
	Tick    int
	TaskID  int
	AgentID string
	Node    int64
	Time    time.Time
}

// DeliveryRecorder records completed deliveries.
type DeliveryRecorder interface {
	RecordDelivery(ev DeliveryEvent) error
}

// StrandingEvent captures an agent stuck mid-route with an empty battery.
type StrandingEvent struct {
	Tick     int
	AgentID  string
	Location int64
	Time     time.Time
}

// StrandingRecorder records stranded agents.
type StrandingRecorder interface {
	RecordStranding(ev StrandingEvent) error
}

// RunCompletionEvent captures the end of a run.
type RunCompletionEvent struct {
	RunID      string
	TotalTicks int
	Delivered  int
	Cancelled  int
	Time       time.Time
}

// RunCompletionRecorder records run completions.
type RunCompletionRecorder interface {
	RecordRunCompletion(ev RunCompletionEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickEvent) error                   { return nil }
func (NopSink) RecordAuctionRound(AuctionRoundEvent) error   { return nil }
func (NopSink) RecordDelivery(DeliveryEvent) error           { return nil }
func (NopSink) RecordStranding(StrandingEvent) error         { return nil }
func (NopSink) RecordRunCompletion(RunCompletionEvent) error { return nil }
