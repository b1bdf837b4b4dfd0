package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

var (
	errServerError      = errors.New("server error")
	errUnexpectedStatus = errors.New("unexpected status code")
	errCircuitOpen      = errors.New("circuit breaker open")
)

// Retry is the backoff applied between attempts of one fetch. The zero value
// disables retries.
type Retry struct {
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (r Retry) delay(attempt int) time.Duration {
	d := r.InitialInterval << attempt
	if r.MaxInterval > 0 && (d > r.MaxInterval || d <= 0) {
		d = r.MaxInterval
	}
	return d
}

// HTTPOption tunes an HTTP source.
type HTTPOption func(*HTTP)

// WithRetry retries failed fetches with exponential backoff.
func WithRetry(r Retry) HTTPOption {
	return func(h *HTTP) {
		h.retry = r
	}
}

// WithTripAfter opens the breaker after n consecutive failed fetches.
func WithTripAfter(n uint32) HTTPOption {
	return func(h *HTTP) {
		h.tripAfter = n
	}
}

// HTTP fetches names relative to a base URL through a circuit breaker.
type HTTP struct {
	baseURL   string
	client    *http.Client
	retry     Retry
	tripAfter uint32
	breaker   *gobreaker.CircuitBreaker
}

// NewHTTP creates an HTTP source. By default failed fetches are not retried;
// after five consecutive failures the breaker opens for a minute and fetches
// fail fast.
func NewHTTP(client *http.Client, baseURL string, options ...HTTPOption) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	h := &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		tripAfter: 5,
	}
	for _, option := range options {
		option(h)
	}

	h.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "table-source",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     1 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= h.tripAfter
		},
	})
	return h
}

// Open downloads name. The caller closes the returned body.
func (h *HTTP) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	u, err := url.JoinPath(h.baseURL, name)
	if err != nil {
		return nil, fmt.Errorf("build url for %s: %w", name, err)
	}

	resp, err := h.fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", table.ErrNotFound, u)
	}
	return resp.Body, nil
}

// fetch GETs u, retrying per h.retry. An open breaker is never retried.
func (h *HTTP) fetch(ctx context.Context, u string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := h.attempt(ctx, u)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, errCircuitOpen) || attempt >= h.retry.Attempts {
			return nil, err
		}

		timer := time.NewTimer(h.retry.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (h *HTTP) attempt(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	result, err := h.breaker.Execute(func() (interface{}, error) {
		resp, err := h.client.Do(req)
		if err != nil {
			return nil, err
		}
		if err := checkStatus(resp); err != nil {
			resp.Body.Close()
			return nil, err
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

// checkStatus accepts 2xx and 404. Open maps 404 to table.ErrNotFound.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
