package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/parcelops/fleetsim/core/metrics"
)

// PromSink records simulation activity in Prometheus metrics.
type PromSink struct {
	ticks         prometheus.Counter
	deliveries    prometheus.Counter
	cancellations prometheus.Counter
	strandings    prometheus.Counter
	rounds        *prometheus.CounterVec
	pending       prometheus.Gauge
	battery       *prometheus.GaugeVec
	duration      prometheus.Histogram
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetsim_ticks_total",
			Help: "Total number of simulation ticks executed",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetsim_deliveries_total",
			Help: "Total number of packages delivered",
		}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetsim_cancellations_total",
			Help: "Total number of tasks cancelled for unreachable dropoffs",
		}),
		strandings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetsim_strandings_total",
			Help: "Total number of agents stranded without battery",
		}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetsim_auction_rounds_total",
			Help: "Auction rounds by outcome",
		}, []string{"outcome"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetsim_pending_tasks",
			Help: "Tasks waiting in the auction queue",
		}),
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleetsim_agent_battery",
			Help: "Remaining battery per agent",
		}, []string{"agent"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetsim_tick_duration_seconds",
			Help:    "Wall-clock time spent computing one tick",
			Buckets: prometheus.DefBuckets,
		}),
	}

	if err := register(reg, &s.ticks); err != nil {
		return nil, err
	}
	if err := register(reg, &s.deliveries); err != nil {
		return nil, err
	}
	if err := register(reg, &s.cancellations); err != nil {
		return nil, err
	}
	if err := register(reg, &s.strandings); err != nil {
		return nil, err
	}
	if err := register(reg, &s.rounds); err != nil {
		return nil, err
	}
	if err := register(reg, &s.pending); err != nil {
		return nil, err
	}
	if err := register(reg, &s.battery); err != nil {
		return nil, err
	}
	if err := register(reg, &s.duration); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds the collector to the registry, reusing the existing collector
// when one with the same descriptor was registered before.
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*c = are.ExistingCollector.(C)
	}
	return nil
}

// RecordTick updates the per-tick gauges and counters.
func (s *PromSink) RecordTick(ev coremetrics.TickEvent) error {
	s.ticks.Inc()
	s.pending.Set(float64(ev.Pending))
	s.duration.Observe(ev.Duration.Seconds())
	for agent, level := range ev.Batteries {
		s.battery.WithLabelValues(agent).Set(level)
	}
	return nil
}

// RecordAuctionRound counts the round under its outcome label.
func (s *PromSink) RecordAuctionRound(ev coremetrics.AuctionRoundEvent) error {
	s.rounds.WithLabelValues(ev.Outcome).Inc()
	if ev.Outcome == "cancelled" {
		s.cancellations.Inc()
	}
	return nil
}

// RecordDelivery increments the delivery counter.
func (s *PromSink) RecordDelivery(coremetrics.DeliveryEvent) error {
	s.deliveries.Inc()
	return nil
}

// RecordStranding increments the stranding counter.
func (s *PromSink) RecordStranding(coremetrics.StrandingEvent) error {
	s.strandings.Inc()
	return nil
}
