package scenarios

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/parcelops/fleetsim/core/agent"
	"github.com/parcelops/fleetsim/core/depot"
	"github.com/parcelops/fleetsim/core/events"
	"github.com/parcelops/fleetsim/core/graph"
	coremetrics "github.com/parcelops/fleetsim/core/metrics"
	"github.com/parcelops/fleetsim/core/model"
	"github.com/parcelops/fleetsim/infra/logger"
	"github.com/parcelops/fleetsim/infra/metrics"
)

const defaultMaxTicks = 200

// RunScenario builds the world a scenario file describes and drives it tick
// by tick, moving agents before the auction round exactly like the engine
// does, until every task is terminal or the tick limit runs out. Outcomes
// are asserted against the scenario's expectations and cross-checked through
// a Prometheus sink on a private registry.
func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sinkIf, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	sink, ok := sinkIf.(*metrics.PromSink)
	if !ok {
		t.Fatalf("expected *metrics.PromSink, got %T", sinkIf)
	}

	provider := sc.Graph.ToProvider()
	depotNode := graph.NodeID(sc.Depot)

	coord, err := depot.New(provider, depotNode, logger.NopLogger{})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	roster := make([]*agent.Agent, 0, len(sc.Agents))
	for _, def := range sc.Agents {
		ag, err := agent.New(def.ToConfig(), provider, depotNode, logger.NopLogger{})
		if err != nil {
			t.Fatalf("agent %s: %v", def.ID, err)
		}
		roster = append(roster, ag)
	}
	coord.Register(roster...)

	tasks := make([]*model.Task, 0, len(sc.Tasks))
	for _, def := range sc.Tasks {
		tasks = append(tasks, def.ToModel(depotNode))
	}
	coord.AddTasks(tasks...)

	maxTicks := sc.Expected.MaxTicks
	if maxTicks <= 0 {
		maxTicks = defaultMaxTicks
	}

	delivered, deferred := 0, 0
	winners := make(map[int]string)
	done := false

	for tick := 1; tick <= maxTicks && !done; tick++ {
		for _, ag := range roster {
			rep := ag.Update(coord.DepotLocation, coord.Pending())
			for _, task := range rep.Delivered {
				delivered++
				if err := sink.RecordDelivery(coremetrics.DeliveryEvent{
					Tick:    tick,
					TaskID:  task.ID,
					AgentID: ag.ID,
					Node:    int64(task.Dropoff),
				}); err != nil {
					t.Fatalf("record delivery: %v", err)
				}
			}
		}

		round, err := coord.RunAuction()
		if err != nil {
			t.Fatalf("scenario %s: auction fault at tick %d: %v", sc.Name, tick, err)
		}
		if round.Held {
			if err := sink.RecordAuctionRound(coremetrics.AuctionRoundEvent{
				Tick:     tick,
				TaskID:   round.TaskID,
				Outcome:  string(round.Outcome),
				Winner:   round.Winner,
				Distance: round.Distance,
				Bids:     round.Bids,
			}); err != nil {
				t.Fatalf("record round: %v", err)
			}
			switch round.Outcome {
			case events.AuctionAssigned:
				winners[round.TaskID] = round.Winner
			case events.AuctionDeferred:
				deferred++
			}
		}

		done = allTerminal(tasks)
	}

	if !done {
		t.Fatalf("scenario %s: tasks still open after %d ticks", sc.Name, maxTicks)
	}

	cancelled := 0
	for _, task := range tasks {
		if task.Status == model.TaskCancelled {
			cancelled++
		}
	}

	if delivered != sc.Expected.Delivered {
		t.Errorf("scenario %s: expected %d delivered, got %d", sc.Name, sc.Expected.Delivered, delivered)
	}
	if cancelled != sc.Expected.Cancelled {
		t.Errorf("scenario %s: expected %d cancelled, got %d", sc.Name, sc.Expected.Cancelled, cancelled)
	}
	if sc.Expected.Deferred != nil && deferred != *sc.Expected.Deferred {
		t.Errorf("scenario %s: expected %d deferred rounds, got %d", sc.Name, *sc.Expected.Deferred, deferred)
	}
	for taskID, want := range sc.Expected.Winners {
		if got := winners[taskID]; got != want {
			t.Errorf("scenario %s: task %d won by %q, want %q", sc.Name, taskID, got, want)
		}
	}

	if got := counterValue(t, reg, "fleetsim_deliveries_total"); int(got) != delivered {
		t.Errorf("scenario %s: delivery counter %v disagrees with %d observed", sc.Name, got, delivered)
	}
}

func allTerminal(tasks []*model.Task) bool {
	for _, task := range tasks {
		if !task.Terminal() {
			return false
		}
	}
	return true
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += counterOf(m)
		}
		return total
	}
	return 0
}

func counterOf(m *dto.Metric) float64 {
	if c := m.GetCounter(); c != nil {
		return c.GetValue()
	}
	return 0
}
