/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package preview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/typstudio/editorkit/coalesce"
	"github.com/typstudio/editorkit/ipc"
	"github.com/typstudio/editorkit/log"
	"github.com/typstudio/editorkit/shell"
)

// ErrNoDocument is returned by RenderPage before the first successful compilation.
var ErrNoDocument = errors.New("no compiled document")

// StaleRenderError is returned when the backend answers a render request with a different nonce.
type StaleRenderError struct {
	Want uint64
	Got  uint64
}

func (e *StaleRenderError) Error() string {
	return fmt.Sprintf("stale render response: nonce %d, want %d", e.Got, e.Want)
}

// Edit is a new content of the edited file.
type Edit struct {
	Path    string
	Content string
}

// Backend is the part of *ipc.Backend the synchronizer needs.
type Backend interface {
	WriteFileText(ctx context.Context, path, content string) error
	Render(ctx context.Context, page int, scale float64, nonce uint64) (ipc.RenderResponse, error)
}

var _ Backend = (*ipc.Backend)(nil)

// SynchronizerOpts provides options for NewSynchronizerWithOpts.
type SynchronizerOpts struct {
	Logger log.FieldLogger

	// ThrottleConfig configures the handling of failed deferred writes. Defaults are used if nil.
	ThrottleConfig *coalesce.Config

	// ThrottleMetrics receives statistics of the edit throttle.
	ThrottleMetrics coalesce.MetricsCollector

	// CacheMetrics receives statistics of the page cache.
	CacheMetrics CacheMetricsCollector

	// DeferredErrorHandler receives failed deferred writes when the notify policy is configured.
	DeferredErrorHandler func(coalesce.DeferredError[Edit])
}

// Synchronizer pushes edits to the backend and renders pages of the compiled document.
type Synchronizer struct {
	backend  Backend
	shell    *shell.Shell
	logger   log.FieldLogger
	scale    float64
	throttle *coalesce.Throttle[Edit]
	cache    *PageCache
	nonce    atomic.Uint64

	mu       sync.RWMutex
	document *ipc.Document
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(backend Backend, sh *shell.Shell, cfg *Config) (*Synchronizer, error) {
	return NewSynchronizerWithOpts(backend, sh, cfg, SynchronizerOpts{})
}

// NewSynchronizerWithOpts creates a new Synchronizer with options.
func NewSynchronizerWithOpts(backend Backend, sh *shell.Shell, cfg *Config, opts SynchronizerOpts) (*Synchronizer, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.ThrottleConfig == nil {
		opts.ThrottleConfig = coalesce.NewDefaultConfig()
	}
	cache, err := NewPageCache(cfg.Cache.MaxPages, cfg.Cache.MaxSize, opts.CacheMetrics)
	if err != nil {
		return nil, err
	}
	s := &Synchronizer{
		backend: backend,
		shell:   sh,
		logger:  opts.Logger,
		scale:   cfg.Render.Scale,
		cache:   cache,
	}
	throttleOpts := coalesce.Opts[Edit]{
		Name:                 "preview_write",
		Logger:               opts.Logger,
		MetricsCollector:     opts.ThrottleMetrics,
		DeferredErrorHandler: opts.DeferredErrorHandler,
	}
	coalesce.ApplyTo(opts.ThrottleConfig, &throttleOpts)
	s.throttle = coalesce.NewWithOpts(s.write, throttleOpts)
	return s, nil
}

// Edit pushes the new content of the file to the backend. If a write is in flight,
// the edit is buffered (replacing any earlier buffered edit) and Edit returns nil at once.
func (s *Synchronizer) Edit(ctx context.Context, path, content string) error {
	return s.throttle.Call(ctx, Edit{Path: path, Content: content})
}

// EditAsync is a non-blocking version of Edit.
func (s *Synchronizer) EditAsync(ctx context.Context, path, content string) {
	s.throttle.Trigger(ctx, Edit{Path: path, Content: content})
}

// Wait blocks until all pushed edits are written or ctx is done.
func (s *Synchronizer) Wait(ctx context.Context) error {
	return s.throttle.Wait(ctx)
}

// Errors returns failed deferred writes when the notify policy with a buffer is configured.
func (s *Synchronizer) Errors() <-chan coalesce.DeferredError[Edit] {
	return s.throttle.Errors()
}

func (s *Synchronizer) write(ctx context.Context, e Edit) error {
	s.shell.SetPreviewState(shell.PreviewStateCompiling)
	if err := s.backend.WriteFileText(ctx, e.Path, e.Content); err != nil {
		s.shell.SetPreviewState(shell.PreviewStateCompileError)
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	return nil
}

// Follow applies typst_compile events of the source to the shell and the document.
func (s *Synchronizer) Follow(src ipc.EventSource) (unsubscribe func()) {
	return ipc.OnCompile(src, func(_ context.Context, ev ipc.CompileEvent) error {
		s.HandleCompile(ev)
		return nil
	})
}

// HandleCompile applies the result of a compilation.
// A compiled document makes the preview idle and drops cached pages of older documents.
// Diagnostics without a document put the preview into the compile error state
// and keep the last document viewable.
func (s *Synchronizer) HandleCompile(ev ipc.CompileEvent) {
	if ev.Document == nil {
		if len(ev.Diagnostics) > 0 {
			s.logger.Warn("document compilation failed",
				log.Int("diagnostics", len(ev.Diagnostics)),
				log.String("message", ev.Diagnostics[0].Message))
			s.shell.SetPreviewState(shell.PreviewStateCompileError)
		}
		return
	}

	doc := *ev.Document
	s.mu.Lock()
	s.document = &doc
	s.mu.Unlock()

	if removed := s.cache.RetainHash(doc.Hash); removed > 0 {
		s.logger.Debug("outdated pages dropped", log.Int("pages", removed))
	}
	s.shell.SetPreviewState(shell.PreviewStateIdle)
}

// Document returns the last successfully compiled document.
func (s *Synchronizer) Document() (ipc.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.document == nil {
		return ipc.Document{}, false
	}
	return *s.document, true
}

// RenderPage returns the page (1-based) of the current document rendered at scale.
// A scale <= 0 means the configured default scale.
func (s *Synchronizer) RenderPage(ctx context.Context, page int, scale float64) (*Page, error) {
	doc, ok := s.Document()
	if !ok {
		return nil, ErrNoDocument
	}
	if page < 1 || page > doc.Pages {
		return nil, fmt.Errorf("page %d is out of range [1, %d]", page, doc.Pages)
	}
	if scale <= 0 {
		scale = s.scale
	}

	key := PageKey{Hash: doc.Hash, Page: page, Scale: scale}
	p, cached, err := s.cache.GetOrRender(key, func() (*Page, error) {
		return s.render(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	if cached {
		s.logger.Debug("page served from cache", log.Int("page", page))
		return p, nil
	}
	// The backend renders its latest document, which may have replaced the one of key.Hash.
	if cur, ok := s.Document(); !ok || cur.Hash != key.Hash {
		s.cache.Remove(key)
	}
	return p, nil
}

func (s *Synchronizer) render(ctx context.Context, key PageKey) (*Page, error) {
	nonce := s.nonce.Inc()
	resp, err := s.backend.Render(ctx, key.Page, key.Scale, nonce)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", key.Page, err)
	}
	if resp.Nonce != nonce {
		return nil, &StaleRenderError{Want: nonce, Got: resp.Nonce}
	}
	img, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("decode image of page %d: %w", key.Page, err)
	}
	return &Page{Key: key, Image: img, Width: resp.Width, Height: resp.Height, Nonce: nonce}, nil
}

// Cache returns the cache of rendered pages.
func (s *Synchronizer) Cache() *PageCache {
	return s.cache
}
