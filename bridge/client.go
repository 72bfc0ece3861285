/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/typstudio/editorkit/log"
)

const maxErrorBodySize = 64 * 1024

// Invoker invokes named backend commands with a structured argument object.
// If result is not nil, the command's result is decoded into it.
type Invoker interface {
	Invoke(ctx context.Context, command string, args interface{}, result interface{}) error
}

// InvokerFunc is an adapter to allow the use of ordinary functions as Invoker.
type InvokerFunc func(ctx context.Context, command string, args interface{}, result interface{}) error

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, command string, args interface{}, result interface{}) error {
	return f(ctx, command, args, result)
}

// Opts provides options for NewClientWithOpts.
type Opts struct {
	// Logger is used for logging calls and retries. Disabled logger is used if nil.
	Logger log.FieldLogger

	// MetricsCollector is a metrics collector. Metrics are disabled if nil.
	MetricsCollector MetricsCollector

	// Delegate is the innermost RoundTripper. Clone of http.DefaultTransport is used if nil.
	Delegate http.RoundTripper

	// IdempotentCommands lists commands that are safe to retry.
	IdempotentCommands []string
}

// Client is the HTTP implementation of Invoker.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	logger      log.FieldLogger
	retryPolicy RetryPolicy
	idempotent  map[string]bool
}

var _ Invoker = (*Client)(nil)

// NewClient creates a new bridge client.
func NewClient(cfg *Config) (*Client, error) {
	return NewClientWithOpts(cfg, Opts{})
}

// NewClientWithOpts creates a new bridge client with options.
// Round-tripper chain (outermost first): request id, user agent, rate limiting, metrics, logging.
func NewClientWithOpts(cfg *Config, opts Opts) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse bridge url: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}

	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}
	delegate = &LoggingRoundTripper{
		Delegate:             delegate,
		Logger:               opts.Logger,
		Mode:                 cfg.Log.Mode,
		SlowRequestThreshold: cfg.Log.SlowRequestThreshold,
	}
	if opts.MetricsCollector != nil {
		delegate = &MetricsRoundTripper{Delegate: delegate, Collector: opts.MetricsCollector}
	}
	if cfg.RateLimit.Enabled {
		if delegate, err = NewRateLimitingRoundTripper(
			delegate, cfg.RateLimit.Limit, cfg.RateLimit.Burst, cfg.RateLimit.WaitTimeout,
		); err != nil {
			return nil, fmt.Errorf("create rate limiting round tripper: %w", err)
		}
	}
	delegate = &UserAgentRoundTripper{Delegate: delegate, UserAgent: cfg.UserAgent}
	delegate = &RequestIDRoundTripper{Delegate: delegate}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: delegate, Timeout: cfg.Timeout},
		logger:     opts.Logger,
		idempotent: make(map[string]bool, len(opts.IdempotentCommands)),
	}
	for _, command := range opts.IdempotentCommands {
		c.idempotent[command] = true
	}
	if cfg.Retries.Enabled {
		c.retryPolicy = ExponentialBackoffPolicy{
			InitialInterval:  cfg.Retries.InitialInterval,
			MaxRetryAttempts: cfg.Retries.MaxRetryAttempts,
		}
	}
	return c, nil
}

// BaseURL returns the URL of the backend service.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Invoke calls the backend command. Idempotent commands are retried on transport errors,
// 5xx and 429 responses when retries are enabled.
func (c *Client) Invoke(ctx context.Context, command string, args interface{}, result interface{}) error {
	body := []byte("{}")
	if args != nil {
		var err error
		if body, err = json.Marshal(args); err != nil {
			return fmt.Errorf("marshal arguments of %s: %w", command, err)
		}
	}

	ctx = NewContextWithCommand(ctx, command)
	if GetRequestIDFromContext(ctx) == "" {
		ctx = NewContextWithRequestID(ctx, xid.New().String())
	}

	call := func(ctx context.Context) error {
		return c.do(ctx, command, body, result)
	}
	if c.retryPolicy == nil || !c.isIdempotent(ctx, command) {
		return call(ctx)
	}
	notify := func(err error, delay time.Duration) {
		c.logger.Warn("retrying bridge call",
			log.String("command", command), log.Duration("delay", delay), log.Error(err))
	}
	return doWithRetry(ctx, c.retryPolicy, isRetryableError, notify, call)
}

func (c *Client) isIdempotent(ctx context.Context, command string) bool {
	if hint, ok := getIdempotentHintFromContext(ctx); ok {
		return hint
	}
	return c.idempotent[command]
}

func (c *Client) do(ctx context.Context, command string, body []byte, result interface{}) error {
	u := c.BaseURL()
	u.Path += "/invoke/" + url.PathEscape(command)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request for %s: %w", command, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", command, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &CommandError{Command: command, StatusCode: resp.StatusCode, Message: parseErrorMessage(msg)}
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: decode result of %s: %s", ErrMalformedResponse, command, err.Error())
	}
	return nil
}

// parseErrorMessage extracts the backend error message. The backend serializes errors either
// as a JSON string or as an object with "error" field; anything else is taken verbatim.
func parseErrorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(body, &s) == nil {
		return s
	}
	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &obj) == nil {
		if obj.Error != "" {
			return obj.Error
		}
		if obj.Message != "" {
			return obj.Message
		}
	}
	return string(body)
}
