package metrics

import (
	"context"
	"time"

	"github.com/parcelops/fleetsim/core/events"
	coremetrics "github.com/parcelops/fleetsim/core/metrics"
	"github.com/parcelops/fleetsim/core/sim"
	"github.com/parcelops/fleetsim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// simulation events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev any) {
	switch e := ev.(type) {
	case sim.Snapshot:
		batteries := make(map[string]float64, len(e.Agents))
		for _, a := range e.Agents {
			batteries[a.ID] = a.Battery
		}
		_ = sink.RecordTick(coremetrics.TickEvent{
			Tick:      e.Tick,
			Pending:   e.PendingCount,
			Completed: e.CompletedCount,
			Total:     e.TotalCount,
			Batteries: batteries,
			Duration:  e.StepDuration,
			Time:      time.Now(),
		})
	case events.AuctionEvent:
		if r, ok := sink.(coremetrics.AuctionRecorder); ok {
			_ = r.RecordAuctionRound(coremetrics.AuctionRoundEvent{
				Tick:     e.Tick,
				TaskID:   e.TaskID,
				Outcome:  string(e.Outcome),
				Winner:   e.Winner,
				Distance: e.Distance,
				Bids:     e.Bids,
				Time:     time.Now(),
			})
		}
	case events.DeliveryEvent:
		if r, ok := sink.(coremetrics.DeliveryRecorder); ok {
			_ = r.RecordDelivery(coremetrics.DeliveryEvent{
				Tick:    e.Tick,
				TaskID:  e.TaskID,
				AgentID: e.AgentID,
				Node:    int64(e.Node),
				Time:    time.Now(),
			})
		}
	case events.StrandingEvent:
		if r, ok := sink.(coremetrics.StrandingRecorder); ok {
			_ = r.RecordStranding(coremetrics.StrandingEvent{
				Tick:     e.Tick,
				AgentID:  e.AgentID,
				Location: int64(e.Location),
				Time:     time.Now(),
			})
		}
	case events.CompletionEvent:
		if r, ok := sink.(coremetrics.RunCompletionRecorder); ok {
			_ = r.RecordRunCompletion(coremetrics.RunCompletionEvent{
				RunID:      e.RunID,
				TotalTicks: e.TotalTicks,
				Delivered:  e.Delivered,
				Cancelled:  e.Cancelled,
				Time:       time.Now(),
			})
		}
	}
}
