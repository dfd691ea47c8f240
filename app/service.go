// Package app assembles the simulation service from configuration: logger,
// metrics sinks, event bus, history store, run manager, HTTP API and the
// optional MQTT bridge.
package app

import (
	"context"
	"fmt"

	"github.com/parcelops/fleetsim/api"
	"github.com/parcelops/fleetsim/config"
	"github.com/parcelops/fleetsim/core/history"
	"github.com/parcelops/fleetsim/core/kpi"
	coremetrics "github.com/parcelops/fleetsim/core/metrics"
	coremqtt "github.com/parcelops/fleetsim/core/mqtt"
	"github.com/parcelops/fleetsim/core/sim"
	infragraph "github.com/parcelops/fleetsim/infra/graph"
	infrakpi "github.com/parcelops/fleetsim/infra/kpi"
	"github.com/parcelops/fleetsim/infra/logger"
	"github.com/parcelops/fleetsim/infra/metrics"
	"github.com/parcelops/fleetsim/infra/mqtt"
	"github.com/parcelops/fleetsim/internal/eventbus"
)

// Service owns the run manager and its external surfaces.
type Service struct {
	Manager *sim.Manager

	cfg    *config.Config
	apiSrv *api.Server
	bus    eventbus.EventBus
	sink   coremetrics.MetricsSink
	hist   history.LogStore
	kpis   kpi.Store
	pub    coremqtt.Publisher
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}

	hist, err := newHistoryStore(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	kpis, err := newKPIStore(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("kpi store: %w", err)
	}

	bus := eventbus.New()
	mgr, err := sim.NewManager(infragraph.Build, cfg.Sim.Runtime(), logger.New("sim"), bus, hist, kpis)
	if err != nil {
		return nil, fmt.Errorf("run manager: %w", err)
	}

	apiSrv, err := api.NewServer(mgr, cfg.API, logger.New("api"))
	if err != nil {
		return nil, fmt.Errorf("api server: %w", err)
	}

	svc := &Service{
		Manager: mgr,
		cfg:     cfg,
		apiSrv:  apiSrv,
		bus:     bus,
		sink:    sink,
		hist:    hist,
		kpis:    kpis,
		log:     logg,
	}

	if cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.pub = pub
	}
	return svc, nil
}

func newHistoryStore(cfg config.HistoryConfig) (history.LogStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return history.NewSQLiteStore(cfg.Path)
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			return history.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return history.NewJSONLStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %s", cfg.Backend)
	}
}

// newKPIStore follows the history backend: with sqlite, KPI aggregates live
// in a second table of the same database; otherwise they stay in memory.
func newKPIStore(cfg config.HistoryConfig) (kpi.Store, error) {
	if cfg.Backend == "sqlite" {
		return infrakpi.NewSQLiteStore(cfg.Path)
	}
	return kpi.NewMemoryStore(), nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)

	if s.pub != nil {
		mqtt.StartStatePublisher(ctx, s.bus, s.pub)
		if err := mqtt.ConnectOrders(s.pub, s.Manager); err != nil {
			s.log.Errorf("mqtt orders subscription: %v", err)
		}
	}

	if s.cfg.Metrics.PrometheusPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	err := s.apiSrv.Run(ctx)
	s.Manager.Stop()
	return err
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Manager.Stop()
	if s.pub != nil {
		s.pub.Disconnect()
	}
	if closer, ok := s.kpis.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.log.Errorf("kpi store close: %v", err)
		}
	}
	if s.hist != nil {
		return s.hist.Close()
	}
	return nil
}
