/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"

	"github.com/typstudio/editorkit/log"
)

// Event is a frame of the backend event stream.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EventHandler handles the payload of a backend event.
type EventHandler func(ctx context.Context, payload json.RawMessage) error

// Dialer opens WebSocket connections. *websocket.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// ListenerOpts provides options for NewListenerWithOpts.
type ListenerOpts struct {
	Logger log.FieldLogger
	Dialer Dialer
}

// Listener receives backend events over WebSocket and dispatches them to handlers registered by event name.
type Listener struct {
	url       string
	userAgent string
	events    EventsConfig
	dialer    Dialer
	logger    log.FieldLogger

	mu         sync.RWMutex
	handlers   map[string]map[uint64]EventHandler
	nextID     uint64
	connected  atomic.Bool
	deliveries atomic.Int64
}

// NewListener creates a new Listener.
func NewListener(cfg *Config) (*Listener, error) {
	return NewListenerWithOpts(cfg, ListenerOpts{})
}

// NewListenerWithOpts creates a new Listener with options.
func NewListenerWithOpts(cfg *Config, opts ListenerOpts) (*Listener, error) {
	wsURL, err := eventsURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Listener{
		url:       wsURL,
		userAgent: cfg.UserAgent,
		events:    cfg.Events,
		dialer:    opts.Dialer,
		logger:    opts.Logger,
		handlers:  make(map[string]map[uint64]EventHandler),
	}, nil
}

// On registers handler for the event. The returned function removes the registration.
func (l *Listener) On(event string, handler EventHandler) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	if l.handlers[event] == nil {
		l.handlers[event] = make(map[uint64]EventHandler)
	}
	l.handlers[event][id] = handler

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.handlers[event], id)
	}
}

// Connected reports whether the event stream is currently connected.
func (l *Listener) Connected() bool {
	return l.connected.Load()
}

// Delivered returns the number of events dispatched so far.
func (l *Listener) Delivered() int64 {
	return l.deliveries.Load()
}

// Run connects to the event stream and dispatches events until ctx is done.
// Broken connections are re-established with exponential backoff when reconnecting is enabled.
// Run returns nil when ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	if !l.events.Reconnect {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.events.ReconnectInterval
	b.MaxElapsedTime = 0
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			b.Reset()
		}
		delay := b.NextBackOff()
		l.logger.Warn("backend event stream interrupted, reconnecting",
			log.Duration("delay", delay), log.Error(err))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// Dispatch delivers the event to registered handlers. Handler errors are logged.
func (l *Listener) Dispatch(ctx context.Context, ev Event) {
	l.mu.RLock()
	handlers := make([]EventHandler, 0, len(l.handlers[ev.Name]))
	for _, h := range l.handlers[ev.Name] {
		handlers = append(handlers, h)
	}
	l.mu.RUnlock()

	l.deliveries.Inc()
	for _, h := range handlers {
		if err := h(ctx, ev.Payload); err != nil {
			l.logger.Error("backend event handler failed", log.String("event", ev.Name), log.Error(err))
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	header := http.Header{}
	if l.userAgent != "" {
		header.Set("User-Agent", l.userAgent)
	}
	conn, resp, err := l.dialer.DialContext(ctx, l.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial backend event stream: %w", err)
	}
	defer func() { _ = conn.Close() }()

	l.connected.Store(true)
	defer l.connected.Store(false)
	l.logger.Info("connected to backend event stream", log.String("url", l.url))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		var ev Event
		if err = conn.ReadJSON(&ev); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				l.logger.Warn("malformed backend event skipped", log.Error(err))
				continue
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read backend event: %w", err)
		}
		if ev.Name == "" {
			continue
		}
		l.Dispatch(ctx, ev)
	}
}

func eventsURL(baseURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("parse bridge url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported bridge url scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/events"
	return parsed.String(), nil
}
