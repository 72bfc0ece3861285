/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/xid"
	"golang.org/x/time/rate"

	"github.com/typstudio/editorkit/log"
)

// RequestIDRoundTripper sets X-Request-ID header taken from the context or generated with xid.
type RequestIDRoundTripper struct {
	Delegate http.RoundTripper
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *RequestIDRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("X-Request-ID") != "" {
		return rt.Delegate.RoundTrip(r)
	}
	requestID := GetRequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = xid.New().String()
	}
	r = r.Clone(r.Context()) // Per RoundTripper contract.
	r.Header.Set("X-Request-ID", requestID)
	return rt.Delegate.RoundTrip(r)
}

// UserAgentRoundTripper sets User-Agent HTTP header if it's empty.
type UserAgentRoundTripper struct {
	Delegate  http.RoundTripper
	UserAgent string
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *UserAgentRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.UserAgent == "" || r.Header.Get("User-Agent") != "" {
		return rt.Delegate.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", rt.UserAgent)
	return rt.Delegate.RoundTrip(r)
}

// LoggingRoundTripper logs bridge calls.
type LoggingRoundTripper struct {
	Delegate             http.RoundTripper
	Logger               log.FieldLogger
	Mode                 LoggingMode
	SlowRequestThreshold time.Duration
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Mode == LoggingModeNone || rt.Logger == nil {
		return rt.Delegate.RoundTrip(r)
	}

	start := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	elapsed := time.Since(start)

	failed := err != nil || (resp != nil && resp.StatusCode >= http.StatusBadRequest)
	if elapsed < rt.SlowRequestThreshold || (rt.Mode == LoggingModeFailed && !failed) {
		return resp, err
	}

	fields := []log.Field{
		log.String("command", GetCommandFromContext(r.Context())),
		log.String("request_id", r.Header.Get("X-Request-ID")),
		log.DurationIn(elapsed, time.Millisecond),
	}
	if resp != nil {
		fields = append(fields, log.Int("status", resp.StatusCode))
	}
	if err != nil {
		rt.Logger.Error(fmt.Sprintf("bridge call %s %s failed", r.Method, r.URL.Path), append(fields, log.Error(err))...)
		return resp, err
	}
	if failed {
		rt.Logger.Warn(fmt.Sprintf("bridge call %s %s rejected", r.Method, r.URL.Path), fields...)
		return resp, err
	}
	rt.Logger.Info(fmt.Sprintf("bridge call %s %s", r.Method, r.URL.Path), fields...)
	return resp, err
}

// MetricsRoundTripper measures bridge calls.
type MetricsRoundTripper struct {
	Delegate  http.RoundTripper
	Collector MetricsCollector
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *MetricsRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Collector == nil {
		return rt.Delegate.RoundTrip(r)
	}
	status := "0"
	start := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	rt.Collector.CallDuration(GetCommandFromContext(r.Context()), status, time.Since(start))
	return resp, err
}

// RateLimitingRoundTripper limits the rate of outgoing bridge calls.
type RateLimitingRoundTripper struct {
	Delegate    http.RoundTripper
	WaitTimeout time.Duration

	limiter *rate.Limiter
}

// NewRateLimitingRoundTripper creates a new RateLimitingRoundTripper.
func NewRateLimitingRoundTripper(
	delegate http.RoundTripper, limit, burst int, waitTimeout time.Duration,
) (*RateLimitingRoundTripper, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}
	if burst < 0 {
		return nil, fmt.Errorf("burst must be positive")
	}
	if burst == 0 {
		burst = 1
	}
	if waitTimeout == 0 {
		waitTimeout = DefaultRateLimitWaitTimeout
	}
	return &RateLimitingRoundTripper{
		Delegate:    delegate,
		WaitTimeout: waitTimeout,
		limiter:     rate.NewLimiter(rate.Limit(limit), burst),
	}, nil
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *RateLimitingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), rt.WaitTimeout)
	defer cancel()

	if err := rt.limiter.Wait(ctx); err != nil {
		if r.Body != nil {
			_ = r.Body.Close() // Per RoundTripper contract.
		}
		if errors.Is(r.Context().Err(), context.Canceled) {
			return nil, r.Context().Err()
		}
		return nil, &RateLimitingWaitError{Inner: err}
	}
	return rt.Delegate.RoundTrip(r)
}
