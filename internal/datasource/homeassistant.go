package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/version"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second
)

// Config holds the Home Assistant settings
type Config struct {
	Host             string `yaml:"host" toml:"host"`
	Token            string `yaml:"token" toml:"token"`
	EntityID         string `yaml:"entity_id" toml:"entity_id"`
	TemperatureField string `yaml:"temperature_field,omitempty" toml:"temperature_field,omitempty"`
}

// State is the subset of a Home Assistant entity state the client reads.
type State struct {
	EntityID   string                     `json:"entity_id"`
	State      string                     `json:"state"`
	Attributes map[string]json.RawMessage `json:"attributes"`
}

// HomeAssistant reads a temperature from a Home Assistant entity.
type HomeAssistant struct {
	config Config

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration
}

var _ connect.TemperatureSource = (*HomeAssistant)(nil)

// NewHomeAssistant creates a client for cfg.
func NewHomeAssistant(cfg Config) *HomeAssistant {
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	return &HomeAssistant{
		config:        cfg,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetRetry configures retry behavior
func (h *HomeAssistant) SetRetry(maxRetries int, retryDelay time.Duration) {
	h.MaxRetries = maxRetries
	h.RetryDelay = retryDelay
}

// StateURL returns the REST endpoint of the configured entity.
func (h *HomeAssistant) StateURL() string {
	return fmt.Sprintf("%s/api/states/%s", h.config.Host, h.config.EntityID)
}

// Temperature fetches the entity state and extracts the temperature.
func (h *HomeAssistant) Temperature(ctx context.Context) (float64, error) {
	var lastErr error
	currentDelay := h.RetryDelay

	for attempt := 0; attempt <= h.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying Home Assistant request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(currentDelay):
			}
			currentDelay *= 2
			if currentDelay > h.MaxRetryDelay {
				currentDelay = h.MaxRetryDelay
			}
		}

		state, err := h.fetchState(ctx)
		if err == nil {
			return h.extract(state)
		}
		lastErr = err

		if !IsRetryable(err) {
			return 0, err
		}
	}

	return 0, lastErr
}

// fetchState performs a single GET of the entity state.
func (h *HomeAssistant) fetchState(ctx context.Context) (*State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.StateURL(), nil)
	if err != nil {
		return nil, NewNetworkError("failed to create GET request", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.config.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, NewAuthError("Home Assistant rejected the token")
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unknown entity %s", h.config.EntityID))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	var state State
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, NewParseError("failed to parse entity state", err)
	}
	return &state, nil
}

// extract reads the configured attribute, or the state when none is set.
// Numbers and numeric strings are accepted.
func (h *HomeAssistant) extract(state *State) (float64, error) {
	field := h.config.TemperatureField
	if field == "" {
		return parseTemperature(state.State)
	}

	raw, ok := state.Attributes[field]
	if !ok {
		return 0, NewParseError(fmt.Sprintf("unknown field %s", field), nil)
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, NewParseError(fmt.Sprintf("field %s is not a temperature: %s", field, raw), err)
	}
	return parseTemperature(text)
}

func parseTemperature(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, NewParseError(fmt.Sprintf("cannot parse temperature %q", s), err)
	}
	return v, nil
}
