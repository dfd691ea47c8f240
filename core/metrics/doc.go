// Package metrics defines interfaces and implementations for collecting
// simulation metrics. Sinks like PromSink and InfluxSink record events such
// as auction rounds or deliveries and can be combined with a MultiSink. The
// factory helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics
