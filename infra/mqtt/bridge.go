package mqtt

import (
	"context"

	"github.com/parcelops/fleetsim/core/events"
	coregraph "github.com/parcelops/fleetsim/core/graph"
	coremqtt "github.com/parcelops/fleetsim/core/mqtt"
	"github.com/parcelops/fleetsim/core/sim"
	"github.com/parcelops/fleetsim/infra/logger"
	"github.com/parcelops/fleetsim/internal/eventbus"
)

// StartStatePublisher subscribes to the event bus and forwards run state to
// the broker. It stops when the context is canceled.
func StartStatePublisher(ctx context.Context, bus eventbus.EventBus, pub coremqtt.Publisher) {
	if bus == nil || pub == nil {
		return
	}
	log := logger.New("mqtt_bridge")
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
				switch e := ev.(type) {
				case sim.Snapshot:
					if err := pub.PublishState(e.RunID, e); err != nil {
						log.Errorf("publish state: %v", err)
					}
				case events.CompletionEvent:
					if err := pub.PublishCompletion(e.RunID, e); err != nil {
						log.Errorf("publish completion: %v", err)
					}
				}
			}
		}
	}()
}

// OrderReceiver accepts order injections into the active run.
type OrderReceiver interface {
	AddOrders(dropoffs []coregraph.NodeID, count int) (int, error)
}

// ConnectOrders wires the orders topic to the run manager. Requests without a
// pinned dropoff default to one randomly placed package.
func ConnectOrders(pub coremqtt.Publisher, recv OrderReceiver) error {
	log := logger.New("mqtt_bridge")
	return pub.SubscribeOrders(func(req coremqtt.OrderRequest) {
		var dropoffs []coregraph.NodeID
		if req.Dropoff != nil {
			dropoffs = []coregraph.NodeID{coregraph.NodeID(*req.Dropoff)}
		}
		count := req.Count
		if count == 0 && len(dropoffs) == 0 {
			count = 1
		}
		added, err := recv.AddOrders(dropoffs, count)
		if err != nil {
			log.Warnf("order request dropped: %v", err)
			return
		}
		log.Infof("injected %d orders from broker", added)
	})
}
