package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/parcelops/fleetsim/core/agent"
	"github.com/parcelops/fleetsim/core/depot"
	"github.com/parcelops/fleetsim/core/events"
	"github.com/parcelops/fleetsim/core/graph"
	"github.com/parcelops/fleetsim/core/history"
	"github.com/parcelops/fleetsim/core/kpi"
	"github.com/parcelops/fleetsim/core/logger"
	"github.com/parcelops/fleetsim/core/model"
	"github.com/parcelops/fleetsim/internal/eventbus"
)

// placementAttempts bounds the search for a reachable dropoff node.
const placementAttempts = 1000

// Config holds the parameters of one run.
type Config struct {
	RunID         string  `json:"run_id"`
	AgentCount    int     `json:"agent_count"`
	PackageCount  int     `json:"package_count"`
	Capacity      int     `json:"capacity"`
	MaxBattery    float64 `json:"max_battery"`
	DrainPerUnit  float64 `json:"drain_per_unit"`
	BufferPercent float64 `json:"buffer_percent"`
	Seed          int64   `json:"seed"`

	StepInterval      time.Duration `json:"-"`
	PausePollInterval time.Duration `json:"-"`
	StopWait          time.Duration `json:"-"`
}

// SetDefaults applies the stock fleet parameters.
func (c *Config) SetDefaults() {
	if c.AgentCount == 0 {
		c.AgentCount = 3
	}
	if c.PackageCount == 0 {
		c.PackageCount = 20
	}
	if c.Capacity == 0 {
		c.Capacity = 5
	}
	if c.MaxBattery == 0 {
		c.MaxBattery = 100
	}
	if c.DrainPerUnit == 0 {
		c.DrainPerUnit = 0.005
	}
	if c.BufferPercent == 0 {
		c.BufferPercent = 0.3
	}
	if c.StepInterval == 0 {
		c.StepInterval = 500 * time.Millisecond
	}
	if c.PausePollInterval == 0 {
		c.PausePollInterval = 100 * time.Millisecond
	}
	if c.StopWait == 0 {
		c.StopWait = 2 * time.Second
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.AgentCount < 1 {
		return fmt.Errorf("agent_count must be positive")
	}
	if c.PackageCount < 0 {
		return fmt.Errorf("package_count must not be negative")
	}
	if c.BufferPercent < 0 || c.BufferPercent >= 1 {
		return fmt.Errorf("buffer_percent must be in [0, 1)")
	}
	return nil
}

// Engine owns all mutable state of one run: the coordinator, the roster and
// the task set, guarded by a single mutex. Events are published on the bus
// only after the lock is released so slow consumers cannot stall a tick.
type Engine struct {
	mu    sync.Mutex
	cfg   Config
	runID string

	provider graph.Provider
	coord    *depot.Coordinator
	agents   []*agent.Agent
	tasks    []*model.Task

	tick       int
	running    bool
	paused     bool
	finished   bool
	fault      error
	nextTaskID int
	stranded   map[string]bool
	rng        *rand.Rand

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	endOnce  sync.Once

	log  logger.Logger
	bus  eventbus.EventBus
	hist history.LogStore
	kpis kpi.Store
}

// NewEngine seeds a new world: the depot is drawn at random from the
// provider's nodes, every agent starts there fully charged, and each package
// gets a random dropoff reachable from the depot.
func NewEngine(provider graph.Provider, cfg Config, log logger.Logger, bus eventbus.EventBus, hist history.LogStore, kpis kpi.Store) (*Engine, error) {
	if provider == nil || log == nil {
		return nil, fmt.Errorf("sim: nil parameter provided to NewEngine")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bus == nil {
		bus = eventbus.New()
	}
	if hist == nil {
		hist = history.NopStore{}
	}
	if kpis == nil {
		kpis = kpi.NewMemoryStore()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	nodes := provider.Nodes()
	if len(nodes) == 0 {
		return nil, fmt.Errorf("sim: provider has no nodes")
	}
	depotNode := nodes[rng.Intn(len(nodes))]

	coord, err := depot.New(provider, depotNode, log)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		runID:    cfg.RunID,
		provider: provider,
		coord:    coord,
		stranded: make(map[string]bool),
		rng:      rng,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      log,
		bus:      bus,
		hist:     hist,
		kpis:     kpis,
	}

	for i := 1; i <= cfg.AgentCount; i++ {
		ag, err := agent.New(agent.Config{
			ID:                      fmt.Sprintf("agent-%02d", i),
			Capacity:                cfg.Capacity,
			MaxBattery:              cfg.MaxBattery,
			DrainPerUnit:            cfg.DrainPerUnit,
			MinWorkingBufferPercent: cfg.BufferPercent,
		}, provider, depotNode, log)
		if err != nil {
			return nil, err
		}
		e.agents = append(e.agents, ag)
	}
	coord.Register(e.agents...)

	for i := 0; i < cfg.PackageCount; i++ {
		task, err := e.newTask(0, true)
		if err != nil {
			return nil, err
		}
		e.tasks = append(e.tasks, task)
	}
	coord.AddTasks(e.tasks...)

	log.Infof("sim %s: world seeded, depot %d, %d agents, %d packages (seed %d)",
		e.runID, depotNode, len(e.agents), len(e.tasks), seed)
	return e, nil
}

// newTask allocates the next task. With random true the dropoff is drawn from
// the provider's nodes until one is reachable from the depot; otherwise the
// given dropoff is used as is (the auction pre-check cancels unreachable
// ones).
func (e *Engine) newTask(dropoff graph.NodeID, random bool) (*model.Task, error) {
	e.nextTaskID++
	depotNode := e.coord.DepotLocation
	if random {
		nodes := e.provider.Nodes()
		found := false
		for i := 0; i < placementAttempts; i++ {
			n := nodes[e.rng.Intn(len(nodes))]
			if n != depotNode && e.provider.Reachable(depotNode, n) {
				dropoff = n
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sim: no reachable dropoff found for task %d", e.nextTaskID)
		}
	}
	return &model.Task{ID: e.nextTaskID, Pickup: depotNode, Dropoff: dropoff}, nil
}

// RunID returns the identifier of this run.
func (e *Engine) RunID() string { return e.runID }

// tickEmissions collects everything one step wants to publish after the lock
// is released.
type tickEmissions struct {
	deliveries []events.DeliveryEvent
	strandings []events.StrandingEvent
	auction    *events.AuctionEvent
	kpiDeltas  []kpi.Record
	snapshot   Snapshot
}

// Step advances the run by one tick: every agent moves or re-evaluates its
// departure first, then at most one auction round runs. It reports whether
// the run reached a terminal state. Exported for deterministic tests and the
// headless runner; the background loop calls it too.
func (e *Engine) Step() (bool, error) {
	start := time.Now()
	e.mu.Lock()
	if e.finished {
		fault := e.fault
		e.mu.Unlock()
		return true, fault
	}
	e.tick++
	em := tickEmissions{}

	for _, ag := range e.agents {
		rep := ag.Update(e.coord.DepotLocation, e.coord.Pending())
		if rep.Distance > 0 {
			em.kpiDeltas = append(em.kpiDeltas, kpi.Record{
				AgentID:  ag.ID,
				RunID:    e.runID,
				Distance: rep.Distance,
				Energy:   rep.Distance * ag.DrainPerUnit,
			})
		}
		for _, task := range rep.Delivered {
			em.deliveries = append(em.deliveries, events.DeliveryEvent{
				Tick:    e.tick,
				AgentID: ag.ID,
				TaskID:  task.ID,
				Node:    task.Dropoff,
			})
			em.kpiDeltas = append(em.kpiDeltas, kpi.Record{AgentID: ag.ID, RunID: e.runID, Deliveries: 1})
		}
		if rep.Stranded && !e.stranded[ag.ID] {
			em.strandings = append(em.strandings, events.StrandingEvent{
				Tick:     e.tick,
				AgentID:  ag.ID,
				Location: ag.Location,
			})
		}
		e.stranded[ag.ID] = rep.Stranded
	}

	round, err := e.coord.RunAuction()
	if err != nil {
		e.fault = err
		e.log.Errorf("sim %s: %v", e.runID, err)
	}
	if round.Held {
		em.auction = &events.AuctionEvent{
			Tick:     e.tick,
			TaskID:   round.TaskID,
			Outcome:  round.Outcome,
			Winner:   round.Winner,
			Distance: round.Distance,
			Bids:     round.Bids,
		}
		if round.Outcome == events.AuctionAssigned {
			em.kpiDeltas = append(em.kpiDeltas, kpi.Record{AgentID: round.Winner, RunID: e.runID, Wins: 1})
		}
	}

	done := e.fault != nil || e.allTerminalLocked()
	if done {
		e.finished = true
	}
	em.snapshot = e.snapshotLocked()
	em.snapshot.StepDuration = time.Since(start)
	fault := e.fault
	e.mu.Unlock()

	e.emit(em)
	return done, fault
}

func (e *Engine) emit(em tickEmissions) {
	now := time.Now()
	for _, ev := range em.deliveries {
		e.bus.Publish(ev)
		e.appendHistory(history.Record{
			Time: now, RunID: e.runID, Tick: ev.Tick,
			Kind: history.KindDelivery, TaskID: ev.TaskID, AgentID: ev.AgentID, Node: int64(ev.Node),
		})
	}
	for _, ev := range em.strandings {
		e.bus.Publish(ev)
		e.appendHistory(history.Record{
			Time: now, RunID: e.runID, Tick: ev.Tick,
			Kind: history.KindStranding, AgentID: ev.AgentID, Node: int64(ev.Location),
		})
	}
	if em.auction != nil {
		e.bus.Publish(*em.auction)
		e.appendHistory(history.Record{
			Time: now, RunID: e.runID, Tick: em.auction.Tick,
			Kind: history.KindAuction, TaskID: em.auction.TaskID, AgentID: em.auction.Winner,
			Outcome: string(em.auction.Outcome), Distance: em.auction.Distance,
		})
	}
	for _, delta := range em.kpiDeltas {
		if err := e.kpis.Add(delta); err != nil {
			e.log.Errorf("sim %s: kpi add: %v", e.runID, err)
		}
	}
	e.bus.Publish(em.snapshot)
}

func (e *Engine) appendHistory(rec history.Record) {
	ctx, cancel := contextWithTimeout()
	defer cancel()
	if err := e.hist.Append(ctx, rec); err != nil {
		e.log.Errorf("sim %s: history append: %v", e.runID, err)
	}
}

func (e *Engine) allTerminalLocked() bool {
	for _, t := range e.tasks {
		if !t.Terminal() {
			return false
		}
	}
	return true
}

// Start launches the background loop. It fails when the loop already runs.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrRunActive
	}
	if e.finished {
		e.mu.Unlock()
		return fmt.Errorf("sim: run %s already finished", e.runID)
	}
	e.running = true
	e.mu.Unlock()
	go e.loop()
	return nil
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	for {
		select {
		case <-e.stopCh:
			e.finish()
			return
		default:
		}
		if e.Paused() {
			time.Sleep(e.cfg.PausePollInterval)
			continue
		}
		done, err := e.Step()
		if done || err != nil {
			e.finish()
			return
		}
		select {
		case <-e.stopCh:
			e.finish()
			return
		case <-time.After(e.cfg.StepInterval):
		}
	}
}

// finish flips the run to its terminal state and publishes the completion
// event exactly once.
func (e *Engine) finish() {
	e.endOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.finished = true
		delivered, cancelled := 0, 0
		for _, t := range e.tasks {
			switch t.Status {
			case model.TaskDelivered:
				delivered++
			case model.TaskCancelled:
				cancelled++
			}
		}
		ev := events.CompletionEvent{
			RunID:      e.runID,
			TotalTicks: e.tick,
			Delivered:  delivered,
			Cancelled:  cancelled,
		}
		e.mu.Unlock()
		e.log.Infof("sim %s: finished after %d ticks, %d delivered, %d cancelled",
			e.runID, ev.TotalTicks, ev.Delivered, ev.Cancelled)
		e.bus.Publish(ev)
	})
}

// Stop requests a cooperative stop and waits up to StopWait for the loop to
// exit. An in-flight tick is never cancelled. Reports whether a running loop
// was stopped.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	wasRunning := e.running
	e.mu.Unlock()
	e.stopOnce.Do(func() { close(e.stopCh) })
	if !wasRunning {
		e.finish()
		return false
	}
	select {
	case <-e.doneCh:
	case <-time.After(e.cfg.StopWait):
		e.log.Warnf("sim %s: loop did not exit within %s", e.runID, e.cfg.StopWait)
	}
	return true
}

// RunToCompletion drives the run synchronously without pacing, for the
// headless runner and tests. maxTicks bounds runaway worlds; 0 means no
// bound.
func (e *Engine) RunToCompletion(maxTicks int) (Status, error) {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	var lastErr error
	for {
		done, err := e.Step()
		if err != nil {
			lastErr = err
		}
		if done {
			break
		}
		if maxTicks > 0 && e.Tick() >= maxTicks {
			e.log.Warnf("sim %s: hit tick bound %d before completion", e.runID, maxTicks)
			break
		}
	}
	e.finish()
	return e.Status(), lastErr
}

// Pause sets the cooperative pause flag. Reports whether the flag changed.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.paused {
		return false
	}
	e.paused = true
	return true
}

// Resume clears the pause flag. Reports whether the flag changed.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		return false
	}
	e.paused = false
	return true
}

// Paused reports the pause flag.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Tick returns the current tick index.
func (e *Engine) Tick() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// InjectTasks adds tasks mid-run: explicit dropoffs first, then count extra
// random ones. Returns how many tasks were queued.
func (e *Engine) InjectTasks(dropoffs []graph.NodeID, count int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finished {
		return 0, ErrNoRun
	}
	var added []*model.Task
	for _, d := range dropoffs {
		task, err := e.newTask(d, false)
		if err != nil {
			return len(added), err
		}
		added = append(added, task)
	}
	for i := 0; i < count; i++ {
		task, err := e.newTask(0, true)
		if err != nil {
			return len(added), err
		}
		added = append(added, task)
	}
	e.tasks = append(e.tasks, added...)
	e.coord.AddTasks(added...)
	return len(added), nil
}

// Status returns the compact run status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		RunID:      e.runID,
		Running:    e.running,
		Paused:     e.paused,
		Tick:       e.tick,
		TotalCount: len(e.tasks),
	}
	for _, t := range e.tasks {
		if t.Status == model.TaskDelivered {
			st.CompletedCount++
		}
	}
	if e.fault != nil {
		st.Fault = e.fault.Error()
	}
	return st
}

// Snapshot copies the full run state out under the lock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		RunID:        e.runID,
		Tick:         e.tick,
		Running:      e.running,
		Paused:       e.paused,
		Depot:        int64(e.coord.DepotLocation),
		DepotCoords:  coordOf(e.provider, e.coord.DepotLocation),
		PendingCount: e.coord.PendingCount(),
		TotalCount:   len(e.tasks),
	}
	for _, ag := range e.agents {
		as := AgentSnapshot{
			ID:           ag.ID,
			Location:     int64(ag.Location),
			Coords:       coordOf(e.provider, ag.Location),
			Status:       ag.Status.String(),
			Battery:      ag.Battery,
			MaxBattery:   ag.MaxBattery,
			PackageCount: len(ag.Manifest),
			Capacity:     ag.Capacity,
		}
		prefix := ag.Path
		if len(prefix) > pathPrefixLen {
			prefix = prefix[:pathPrefixLen]
		}
		for _, n := range prefix {
			as.NextPath = append(as.NextPath, int64(n))
			if c := coordOf(e.provider, n); c != nil {
				as.NextPathCoords = append(as.NextPathCoords, *c)
			}
		}
		for _, n := range ag.DropoffOrder {
			as.DropoffOrder = append(as.DropoffOrder, int64(n))
		}
		snap.Agents = append(snap.Agents, as)
	}
	for _, t := range e.tasks {
		ts := TaskSnapshot{
			ID:            t.ID,
			Status:        t.Status.String(),
			Pickup:        int64(t.Pickup),
			Dropoff:       int64(t.Dropoff),
			DropoffCoords: coordOf(e.provider, t.Dropoff),
			AssignedAgent: t.AssignedAgent,
		}
		snap.Tasks = append(snap.Tasks, ts)
		switch t.Status {
		case model.TaskDelivered:
			snap.CompletedCount++
		case model.TaskCancelled:
			snap.CancelledCount++
		}
	}
	return snap
}

// MapInfo summarizes provider coordinates for map rendering.
func (e *Engine) MapInfo() (MapInfo, error) {
	cp, ok := e.provider.(graph.CoordProvider)
	if !ok {
		return MapInfo{}, fmt.Errorf("sim: provider carries no coordinates")
	}
	nodes := e.provider.Nodes()
	info := MapInfo{
		Depot:       int64(e.coord.DepotLocation),
		DepotCoords: coordOf(e.provider, e.coord.DepotLocation),
		NodeCount:   len(nodes),
	}
	first := true
	for _, n := range nodes {
		lat, lng, ok := cp.Coord(n)
		if !ok {
			continue
		}
		if first {
			info.BoundsMin = LatLng{lat, lng}
			info.BoundsMax = LatLng{lat, lng}
			first = false
			continue
		}
		if lat < info.BoundsMin.Lat {
			info.BoundsMin.Lat = lat
		}
		if lng < info.BoundsMin.Lng {
			info.BoundsMin.Lng = lng
		}
		if lat > info.BoundsMax.Lat {
			info.BoundsMax.Lat = lat
		}
		if lng > info.BoundsMax.Lng {
			info.BoundsMax.Lng = lng
		}
	}
	if first {
		return MapInfo{}, fmt.Errorf("sim: provider carries no coordinates")
	}
	info.Center = LatLng{
		Lat: (info.BoundsMin.Lat + info.BoundsMax.Lat) / 2,
		Lng: (info.BoundsMin.Lng + info.BoundsMax.Lng) / 2,
	}
	return info, nil
}
