package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrDataUnavailable is returned when every attempt of a logical call has
	// failed. It wraps the message of the last underlying failure.
	ErrDataUnavailable = errors.New("data unavailable after retries")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming.
	Name string

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per logical call,
	// including the first one. Default: 3
	MaxAttempts int

	// InitialBackoff is the delay before the first retry; each subsequent
	// retry multiplies it by BackoffMultiplier (1s, 2s, 4s, ...).
	// Default: 1 second
	InitialBackoff time.Duration

	// BackoffMultiplier scales the delay between consecutive retries.
	// Default: 2.0
	BackoffMultiplier float64

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig
}

// DefaultClientConfig returns sensible defaults for the resilient client.
func DefaultClientConfig(name string) ClientConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:              name,
		Timeout:           10 * time.Second,
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		BackoffMultiplier: 2.0,
		CircuitBreaker:    &cbConfig,
	}
}

// Client is a resilient HTTP client with circuit breaker and retry logic.
type Client struct {
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	config         ClientConfig

	// onOutcome is notified with the result of each logical call (nil on
	// success). Set by Registry.Register before the client serves traffic.
	onOutcome func(err error)
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.BackoffMultiplier == 0 {
		cfg.BackoffMultiplier = 2.0
	}

	var cb *gobreaker.CircuitBreaker[*http.Response]
	if cfg.CircuitBreaker != nil {
		cb = NewCircuitBreaker[*http.Response](*cfg.CircuitBreaker) //nolint:bodyclose // type param, not response
	} else {
		defaultCB := DefaultCircuitBreakerConfig(cfg.Name)
		cb = NewCircuitBreaker[*http.Response](defaultCB) //nolint:bodyclose // type param, not response
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: cb,
		config:         cfg,
	}
}

// Do executes an HTTP request with circuit breaker protection and retry logic.
// Non-2xx responses and transport errors are retried with exponential backoff
// until MaxAttempts is exhausted; the surfaced error then wraps
// ErrDataUnavailable together with the last failure's message.
// Returns immediately with ErrCircuitOpen if the circuit breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialBackoff
	bo.Multiplier = c.config.BackoffMultiplier
	bo.RandomizationFactor = 0 // deterministic 1s, 2s, 4s schedule
	bo.MaxElapsedTime = 0

	retries := uint64(0)
	if c.config.MaxAttempts > 1 {
		retries = uint64(c.config.MaxAttempts - 1)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx)

	var (
		resp    *http.Response
		lastErr error
	)

	operation := func() error {
		r, err := c.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes on success
			// Clone the request for retry safety.
			reqClone := req.Clone(ctx)
			r, err := c.httpClient.Do(reqClone)
			if err != nil {
				return nil, err
			}

			if r.StatusCode < 200 || r.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(r.Body, 512))
				r.Body.Close()
				return nil, &StatusError{StatusCode: r.StatusCode, Body: strings.TrimSpace(string(body))}
			}

			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			lastErr = err
			return err
		}

		resp = r
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			c.reportOutcome(ErrCircuitOpen)
			return nil, ErrCircuitOpen
		}
		if lastErr == nil {
			lastErr = err
		}
		wrapped := fmt.Errorf("%w: %s", ErrDataUnavailable, lastErr.Error())
		c.reportOutcome(wrapped)
		return nil, wrapped
	}

	c.reportOutcome(nil)
	return resp, nil
}

func (c *Client) reportOutcome(err error) {
	if c.onOutcome != nil {
		c.onOutcome(err)
	}
}

// StatusError represents a non-success HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.circuitBreaker.Counts()
}
