package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const weatherState = `{"entity_id":"weather.home","state":"cloudy","attributes":{"temperature":9.3,"humidity":"81","pressure":"n/a"}}`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestTemperature(t *testing.T) {
	tests := []struct {
		name  string
		field string
		body  string
		want  float64
	}{
		{"numeric attribute", "temperature", weatherState, 9.3},
		{"string attribute", "humidity", weatherState, 81},
		{"state", "", `{"entity_id":"sensor.outside","state":" -4.5 ","attributes":{}}`, -4.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/states/weather.home" {
					t.Errorf("path = %s, want /api/states/weather.home", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer secret" {
					t.Errorf("Authorization = %q, want Bearer secret", got)
				}
				_, _ = w.Write([]byte(tt.body))
			})

			ha := NewHomeAssistant(Config{Host: srv.URL + "/", Token: "secret", EntityID: "weather.home", TemperatureField: tt.field})
			got, err := ha.Temperature(context.Background())
			if err != nil {
				t.Fatalf("Temperature() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Temperature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTemperatureParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		body  string
	}{
		{"unknown field", "wind", weatherState},
		{"not a number", "pressure", weatherState},
		{"malformed json", "temperature", `{"state":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				_, _ = w.Write([]byte(tt.body))
			})

			ha := NewHomeAssistant(Config{Host: srv.URL, EntityID: "weather.home", TemperatureField: tt.field})
			ha.SetRetry(3, time.Millisecond)
			_, err := ha.Temperature(context.Background())
			if !IsType(err, ErrTypeParse) {
				t.Errorf("Temperature() error = %v, want parse error", err)
			}
			if calls != 1 {
				t.Errorf("server called %d times, want 1 (parse errors are final)", calls)
			}
		})
	}
}

func TestTemperatureRetries(t *testing.T) {
	var calls int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(weatherState))
	})

	ha := NewHomeAssistant(Config{Host: srv.URL, EntityID: "weather.home", TemperatureField: "temperature"})
	ha.SetRetry(3, time.Millisecond)
	got, err := ha.Temperature(context.Background())
	if err != nil {
		t.Fatalf("Temperature() error = %v", err)
	}
	if got != 9.3 || calls != 3 {
		t.Errorf("Temperature() = %v after %d calls, want 9.3 after 3", got, calls)
	}
}

func TestTemperatureFinalErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, ErrTypeAuth},
		{"unknown entity", http.StatusNotFound, ErrTypeHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			})

			ha := NewHomeAssistant(Config{Host: srv.URL, EntityID: "weather.home"})
			ha.SetRetry(3, time.Millisecond)
			_, err := ha.Temperature(context.Background())
			if !IsType(err, tt.wantType) {
				t.Errorf("Temperature() error = %v, want %v", err, tt.wantType)
			}
			if calls != 1 {
				t.Errorf("server called %d times, want 1", calls)
			}
		})
	}
}

func TestTemperatureCanceled(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	ha := NewHomeAssistant(Config{Host: srv.URL, EntityID: "weather.home"})
	ha.SetRetry(3, time.Hour)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := ha.Temperature(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Temperature() error = %v, want context.Canceled", err)
	}
}

func TestStateURL(t *testing.T) {
	ha := NewHomeAssistant(Config{Host: "http://ha.local:8123/", EntityID: "sensor.outside"})
	if got := ha.StateURL(); got != "http://ha.local:8123/api/states/sensor.outside" {
		t.Errorf("StateURL() = %s", got)
	}
}
