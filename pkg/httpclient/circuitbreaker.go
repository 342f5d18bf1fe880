package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects requests outright.
var ErrCircuitOpen = gobreaker.ErrOpenState

// circuitState tracks breaker state per gateway: 0 closed, 1 half-open, 2 open.
var circuitState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "outbound_circuit_state",
		Help: "State of the outbound circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"gateway"},
)

func stateGaugeValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

// CircuitBreakerConfig tunes when the breaker trips and recovers.
type CircuitBreakerConfig struct {
	// Name identifies the gateway in logs and metrics.
	Name string
	// MaxRequests allowed through while half-open; 0 means one.
	MaxRequests uint32
	// Interval between internal count resets while closed.
	Interval time.Duration
	// Timeout the breaker stays open before probing again.
	Timeout time.Duration
	// FailureRatio of failed requests that trips the breaker,
	// evaluated only once MinRequests have been seen.
	FailureRatio float64
	MinRequests  uint32
}

// CircuitBreakerClient guards a retrying Client with a gobreaker circuit.
// A 5xx response counts as a failure along with transport errors.
type CircuitBreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
	name    string
}

// NewCircuitBreakerClient wraps client with a breaker configured from cfg.
func NewCircuitBreakerClient(client *Client, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("gateway", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			circuitState.WithLabelValues(name).Set(stateGaugeValue(to))
		},
	})

	circuitState.WithLabelValues(cfg.Name).Set(stateGaugeValue(gobreaker.StateClosed))

	return &CircuitBreakerClient{
		client:  client,
		breaker: breaker,
		logger:  logger,
		name:    cfg.Name,
	}
}

// Do runs the request through the breaker.
func (c *CircuitBreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			// Drain so the connection can be reused, then fail the call.
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
		}
		return resp, nil
	})
}

// Post sends a POST through the breaker.
func (c *CircuitBreakerClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create POST request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

// State exposes the breaker state, mainly for readiness reporting and tests.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}
