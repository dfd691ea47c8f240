package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/parcelops/fleetsim/core/metrics"
)

func TestInfluxSink_RecordDelivery(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.DeliveryEvent{
		Tick:    12,
		TaskID:  4,
		AgentID: "agent-02",
		Node:    17,
		Time:    now,
	}
	if err := sink.RecordDelivery(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := write.NewPointWithMeasurement("delivery_event").
		AddTag("agent_id", "agent-02").
		AddTag("task_id", "4").
		AddTag("component", "agent").
		AddField("tick", 12).
		AddField("node", int64(17)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body:\n got %s\nwant %s", body, expected)
	}
}

func TestInfluxSink_RecordTick(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	if err := sink.RecordTick(coremetrics.TickEvent{
		Tick:      1,
		Pending:   3,
		Completed: 2,
		Total:     5,
		Duration:  2 * time.Millisecond,
		Time:      time.Now(),
	}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.HasPrefix(body, "sim_tick,component=engine") {
		t.Errorf("unexpected measurement: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
		if _, ok := sink.(coremetrics.NopSink); !ok {
			t.Fatalf("expected NopSink fallback, got %T", sink)
		}
	})

	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"name":"influxdb","status":"pass"}`))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()
		sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
		if _, ok := sink.(*InfluxSink); !ok {
			t.Fatalf("expected InfluxSink, got %T", sink)
		}
	})
}
