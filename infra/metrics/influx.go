package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/parcelops/fleetsim/core/metrics"
	"github.com/parcelops/fleetsim/infra/logger"
)

// InfluxSink writes simulation events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTick writes one point per tick with run-level aggregates.
func (s *InfluxSink) RecordTick(ev coremetrics.TickEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sim_tick").
		AddTag("component", "engine").
		AddField("tick", ev.Tick).
		AddField("pending", ev.Pending).
		AddField("completed", ev.Completed).
		AddField("total", ev.Total).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAuctionRound writes the outcome of one auction round.
func (s *InfluxSink) RecordAuctionRound(ev coremetrics.AuctionRoundEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("auction_round").
		AddTag("outcome", ev.Outcome).
		AddTag("task_id", strconv.Itoa(ev.TaskID)).
		AddTag("component", "coordinator")
	if ev.Winner != "" {
		p = p.AddTag("winner", ev.Winner)
	}
	p = p.AddField("tick", ev.Tick).
		AddField("distance", round3(ev.Distance)).
		AddField("bids", ev.Bids).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDelivery writes a completed delivery.
func (s *InfluxSink) RecordDelivery(ev coremetrics.DeliveryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("delivery_event").
		AddTag("agent_id", ev.AgentID).
		AddTag("task_id", strconv.Itoa(ev.TaskID)).
		AddTag("component", "agent").
		AddField("tick", ev.Tick).
		AddField("node", ev.Node).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStranding writes a stranded-agent event.
func (s *InfluxSink) RecordStranding(ev coremetrics.StrandingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("stranding_event").
		AddTag("agent_id", ev.AgentID).
		AddTag("component", "agent").
		AddField("tick", ev.Tick).
		AddField("location", ev.Location).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRunCompletion writes the final tally of a run.
func (s *InfluxSink) RecordRunCompletion(ev coremetrics.RunCompletionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("run_complete").
		AddTag("run_id", ev.RunID).
		AddTag("component", "engine").
		AddField("total_ticks", ev.TotalTicks).
		AddField("delivered", ev.Delivered).
		AddField("cancelled", ev.Cancelled).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
