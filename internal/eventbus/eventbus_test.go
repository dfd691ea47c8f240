package eventbus

import "testing"

// deliveryNote stands in for the heterogeneous event types (snapshots,
// auction and delivery events) the untyped bus carries in the simulation.
type deliveryNote struct {
	AgentID string
	TaskID  int
}

func TestBusCarriesMixedEvents(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()

	bus.Publish(deliveryNote{AgentID: "agent-01", TaskID: 7})
	bus.Publish("run-complete")

	if got, ok := (<-ch).(deliveryNote); !ok || got.AgentID != "agent-01" || got.TaskID != 7 {
		t.Fatalf("expected delivery for agent-01 task 7, got %#v", got)
	}
	if got, ok := (<-ch).(string); !ok || got != "run-complete" {
		t.Fatalf("expected completion marker, got %#v", got)
	}
	bus.Unsubscribe(ch)
}

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := New()
	ws := bus.Subscribe()
	mqtt := bus.Subscribe()
	bus.Publish(deliveryNote{AgentID: "agent-02", TaskID: 3})
	for name, ch := range map[string]<-chan Event{"ws": ws, "mqtt": mqtt} {
		ev, ok := (<-ch).(deliveryNote)
		if !ok || ev.TaskID != 3 {
			t.Fatalf("%s subscriber: expected task 3, got %#v", name, ev)
		}
	}
	bus.Unsubscribe(ws)
	bus.Unsubscribe(mqtt)
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
