package mqtt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/parcelops/fleetsim/core/events"
	coregraph "github.com/parcelops/fleetsim/core/graph"
	coremqtt "github.com/parcelops/fleetsim/core/mqtt"
	"github.com/parcelops/fleetsim/core/sim"
	"github.com/parcelops/fleetsim/internal/eventbus"
)

func TestStatePublisherForwardsSnapshots(t *testing.T) {
	bus := eventbus.New()
	pub := NewMockPublisher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartStatePublisher(ctx, bus, pub)

	bus.Publish(sim.Snapshot{RunID: "r1", Tick: 1})
	bus.Publish(sim.Snapshot{RunID: "r1", Tick: 2})
	bus.Publish(events.CompletionEvent{RunID: "r1", Delivered: 5})

	deadline := time.After(2 * time.Second)
	for pub.StateCount("r1") < 2 || !pub.Completed("r1") {
		select {
		case <-deadline:
			t.Fatalf("bridge did not forward: states=%d complete=%v", pub.StateCount("r1"), pub.Completed("r1"))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

type fakeReceiver struct {
	dropoffs []coregraph.NodeID
	count    int
	err      error
}

func (f *fakeReceiver) AddOrders(dropoffs []coregraph.NodeID, count int) (int, error) {
	f.dropoffs = dropoffs
	f.count = count
	if f.err != nil {
		return 0, f.err
	}
	return len(dropoffs) + count, nil
}

func TestConnectOrders(t *testing.T) {
	pub := NewMockPublisher()
	recv := &fakeReceiver{}
	if err := ConnectOrders(pub, recv); err != nil {
		t.Fatalf("connect: %v", err)
	}

	node := int64(42)
	pub.Inject(coremqtt.OrderRequest{Dropoff: &node, Count: 3})
	if len(recv.dropoffs) != 1 || recv.dropoffs[0] != 42 || recv.count != 3 {
		t.Fatalf("order not forwarded: %+v %d", recv.dropoffs, recv.count)
	}

	// An empty request still injects one random package.
	pub.Inject(coremqtt.OrderRequest{})
	if recv.count != 1 || len(recv.dropoffs) != 0 {
		t.Fatalf("default count not applied: %+v %d", recv.dropoffs, recv.count)
	}

	// Receiver errors must not propagate.
	recv.err = fmt.Errorf("no run")
	pub.Inject(coremqtt.OrderRequest{Count: 2})
}
