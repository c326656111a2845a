package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	if err := (<-ch).Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	t.Fatal("metric is neither a counter nor a gauge")
	return 0
}

func TestRecordRequest(t *testing.T) {
	before := counterValue(t, requests.WithLabelValues("date", "error"))
	RecordRequest("date", errors.New("timeout"), 2*time.Second)
	after := counterValue(t, requests.WithLabelValues("date", "error"))
	if after != before+1 {
		t.Errorf("requests_total{date,error} = %v, want %v", after, before+1)
	}
}

func TestGauges(t *testing.T) {
	SetSondeTemperature(9.2)
	if got := counterValue(t, sondeTemperature); got != 9.2 {
		t.Errorf("sonde temperature = %v, want 9.2", got)
	}

	SetBoilerTemperatures(map[string]float64{"outside": -5, "hot_water": 50})
	if got := counterValue(t, boilerTemperature.WithLabelValues("outside")); got != -5 {
		t.Errorf("boiler temperature{outside} = %v, want -5", got)
	}
}

func TestRegisterMetricsTwice(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()
	RecordFrame("send")
	RecordProgramRetry()
	RecordObservation("request", "a1540018")
}
