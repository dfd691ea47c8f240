// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - AuctionEvent: outcome of one auction round
//   - DeliveryEvent: a package handed over at its dropoff
//   - StrandingEvent: an agent stuck without battery mid-route
//   - CompletionEvent: end of a run
package events
