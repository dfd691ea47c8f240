package mqtt

import (
	"fmt"
	"sync"

	coremqtt "github.com/parcelops/fleetsim/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	mu          sync.Mutex
	States      map[string][]any
	Completions map[string]any
	FailRuns    map[string]bool
	handler     func(coremqtt.OrderRequest)
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		States:      make(map[string][]any),
		Completions: make(map[string]any),
		FailRuns:    make(map[string]bool),
	}
}

// PublishState records the snapshot or fails when configured to.
func (m *MockPublisher) PublishState(runID string, state any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRuns[runID] {
		return fmt.Errorf("publish failed")
	}
	m.States[runID] = append(m.States[runID], state)
	return nil
}

// PublishCompletion records the run summary.
func (m *MockPublisher) PublishCompletion(runID string, summary any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRuns[runID] {
		return fmt.Errorf("publish failed")
	}
	m.Completions[runID] = summary
	return nil
}

// SubscribeOrders stores the handler for later injection via Inject.
func (m *MockPublisher) SubscribeOrders(fn func(coremqtt.OrderRequest)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
	return nil
}

// Inject delivers an order request to the subscribed handler.
func (m *MockPublisher) Inject(req coremqtt.OrderRequest) {
	m.mu.Lock()
	fn := m.handler
	m.mu.Unlock()
	if fn != nil {
		fn(req)
	}
}

// StateCount returns the number of snapshots recorded for a run.
func (m *MockPublisher) StateCount(runID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.States[runID])
}

// Completed reports whether a completion was recorded for a run.
func (m *MockPublisher) Completed(runID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Completions[runID]
	return ok
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}
