// Package sim owns a simulation run end to end: seeding the world, the
// tick loop that advances agents and auctions, snapshot queries, and the
// single-active-run Manager the control surface talks to.
//
// One authoritative loop drives a run. Within a tick, agent motion strictly
// precedes the auction round, so deliveries completed this tick are visible
// to this tick's feasibility checks. All mutation happens under the engine
// mutex; events are published only after the lock is released.
package sim
