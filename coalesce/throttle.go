/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package coalesce

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/typstudio/editorkit/log"
)

// Func is an operation wrapped by Throttle.
type Func[T any] func(ctx context.Context, args T) error

// ExecutionKind tells whether an execution was started by the call itself or by draining the pending slot.
type ExecutionKind string

// Execution kinds.
const (
	ExecutionKindImmediate ExecutionKind = "immediate"
	ExecutionKindDeferred  ExecutionKind = "deferred"
)

// PanicError is returned (or reported) when the wrapped operation panics.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("coalesce: operation panicked: %v", e.Value)
}

// DeferredError describes a failure of an execution that no caller waits for.
type DeferredError[T any] struct {
	Args T
	Err  error
}

type pendingCall[T any] struct {
	ctx  context.Context
	args T
}

// Opts represents options for the Throttle.
type Opts[T any] struct {
	// Name identifies the throttle in logs and metrics.
	Name string

	// Logger is used for reporting deferred failures. Disabled logger is used if nil.
	Logger log.FieldLogger

	// MetricsCollector receives execution statistics. Metrics are disabled if nil.
	MetricsCollector MetricsCollector

	// DeferredErrorPolicy defines what happens with errors of deferred executions.
	// DeferredErrorPolicyLog is used by default.
	DeferredErrorPolicy DeferredErrorPolicy

	// DeferredErrorHandler is called for each deferred failure when DeferredErrorPolicyNotify is used.
	DeferredErrorHandler func(DeferredError[T])

	// ErrorsBufferSize is a capacity of the channel returned by Errors (DeferredErrorPolicyNotify only).
	// Errors are dropped when the channel is full.
	ErrorsBufferSize int
}

// Throttle wraps an operation so it never runs concurrently with itself.
// A call made while idle executes immediately in the caller's goroutine.
// A call made while an execution is in flight is stored in the pending slot (replacing
// whatever was there) and runs after the current execution settles.
type Throttle[T any] struct {
	fn   Func[T]
	opts Opts[T]

	mu      sync.Mutex
	busy    bool
	pending *pendingCall[T]
	idle    chan struct{}

	errs chan DeferredError[T]
}

// New creates a new Throttle with default options.
func New[T any](fn Func[T]) *Throttle[T] {
	return NewWithOpts(fn, Opts[T]{})
}

// NewWithOpts creates a new Throttle with the given options.
func NewWithOpts[T any](fn Func[T], opts Opts[T]) *Throttle[T] {
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetrics{}
	}
	if opts.DeferredErrorPolicy == "" {
		opts.DeferredErrorPolicy = DeferredErrorPolicyLog
	}
	t := &Throttle[T]{fn: fn, opts: opts}
	if opts.DeferredErrorPolicy == DeferredErrorPolicyNotify && opts.ErrorsBufferSize > 0 {
		t.errs = make(chan DeferredError[T], opts.ErrorsBufferSize)
	}
	return t
}

// Call executes the operation immediately if the throttle is idle and then keeps running
// buffered calls until the pending slot is empty. The returned error is the error of the
// immediate execution; failures of deferred executions are handled by DeferredErrorPolicy.
// If an execution is in flight, Call buffers args and returns nil without waiting.
func (t *Throttle[T]) Call(ctx context.Context, args T) error {
	if !t.acquire(ctx, args) {
		return nil
	}
	return t.run(ctx, args)
}

// Trigger is a fire-and-forget version of Call. If the throttle is idle, execution and draining
// happen in a new goroutine and Trigger returns true. Otherwise args are buffered and false is returned.
// An error of the execution started by Trigger is handled as a deferred one.
func (t *Throttle[T]) Trigger(ctx context.Context, args T) bool {
	if !t.acquire(ctx, args) {
		return false
	}
	go func() {
		if err := t.run(ctx, args); err != nil {
			t.handleDeferredError(args, err)
		}
	}()
	return true
}

// Wait blocks until the throttle becomes idle or ctx is done.
func (t *Throttle[T]) Wait(ctx context.Context) error {
	t.mu.Lock()
	if !t.busy {
		t.mu.Unlock()
		return nil
	}
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Busy reports whether an execution is in flight.
func (t *Throttle[T]) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// Pending returns arguments of the buffered call, if any.
func (t *Throttle[T]) Pending() (args T, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		return args, false
	}
	return t.pending.args, true
}

// Errors returns a channel with failures of deferred executions.
// It's nil unless DeferredErrorPolicyNotify is used with positive ErrorsBufferSize.
func (t *Throttle[T]) Errors() <-chan DeferredError[T] {
	return t.errs
}

// acquire marks the throttle busy and returns true, or buffers the call and returns false.
func (t *Throttle[T]) acquire(ctx context.Context, args T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.busy {
		if t.pending != nil {
			t.opts.MetricsCollector.IncDropped(t.opts.Name)
		}
		t.pending = &pendingCall[T]{ctx: ctx, args: args}
		t.opts.MetricsCollector.IncBuffered(t.opts.Name)
		return false
	}
	t.busy = true
	t.idle = make(chan struct{})
	return true
}

// next takes the buffered call out of the pending slot.
// If the slot is empty, the throttle goes idle under the same lock, so a call can't be stranded.
func (t *Throttle[T]) next() (pendingCall[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending != nil {
		c := *t.pending
		t.pending = nil
		return c, true
	}
	t.busy = false
	close(t.idle)
	return pendingCall[T]{}, false
}

func (t *Throttle[T]) run(ctx context.Context, args T) error {
	err := t.execute(ctx, args, ExecutionKindImmediate)
	for {
		c, ok := t.next()
		if !ok {
			return err
		}
		if dErr := t.execute(c.ctx, c.args, ExecutionKindDeferred); dErr != nil {
			t.handleDeferredError(c.args, dErr)
		}
	}
}

func (t *Throttle[T]) execute(ctx context.Context, args T, kind ExecutionKind) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			const stackSize = 8192
			stack := make([]byte, stackSize)
			stack = stack[:runtime.Stack(stack, false)]
			err = &PanicError{Value: p, Stack: stack}
		}
		t.opts.MetricsCollector.ObserveExecution(t.opts.Name, kind, err == nil, time.Since(start))
	}()
	return t.fn(ctx, args)
}

func (t *Throttle[T]) handleDeferredError(args T, err error) {
	switch t.opts.DeferredErrorPolicy {
	case DeferredErrorPolicyIgnore:
	case DeferredErrorPolicyNotify:
		de := DeferredError[T]{Args: args, Err: err}
		if t.opts.DeferredErrorHandler != nil {
			t.opts.DeferredErrorHandler(de)
		}
		if t.errs != nil {
			select {
			case t.errs <- de:
			default:
				t.opts.Logger.Warn("deferred error dropped, errors channel is full",
					log.String("throttle", t.opts.Name), log.Error(err))
			}
		}
	default:
		t.opts.Logger.Error("deferred execution failed", log.String("throttle", t.opts.Name), log.Error(err))
	}
}
