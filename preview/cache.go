/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package preview

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
)

var errRenderAborted = errors.New("page render aborted")

// PageKey identifies a rendered page.
type PageKey struct {
	Hash  string
	Page  int
	Scale float64
}

// Page is a rendered page of the document.
type Page struct {
	Key    PageKey
	Image  []byte
	Width  float64
	Height float64
	Nonce  uint64
}

// PageCache is an LRU cache of rendered pages bounded by the number of pages
// and by the total size of their images.
type PageCache struct {
	maxPages int
	maxSize  uint64

	mu      sync.Mutex
	lruList *list.List
	pages   map[PageKey]*list.Element // value is a lruList element holding *Page
	size    uint64

	renders renderGroup

	metricsCollector CacheMetricsCollector
}

// NewPageCache creates a new PageCache. maxSize of 0 disables the size bound.
// Metrics are disabled if metricsCollector is nil.
func NewPageCache(maxPages int, maxSize uint64, metricsCollector CacheMetricsCollector) (*PageCache, error) {
	if maxPages <= 0 {
		return nil, fmt.Errorf("maxPages must be greater than 0")
	}
	if metricsCollector == nil {
		metricsCollector = disabledCacheMetrics{}
	}
	return &PageCache{
		maxPages:         maxPages,
		maxSize:          maxSize,
		lruList:          list.New(),
		pages:            make(map[PageKey]*list.Element),
		metricsCollector: metricsCollector,
	}, nil
}

// Get returns the cached page.
func (c *PageCache) Get(key PageKey) (*Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.pages[key]
	if !ok {
		c.metricsCollector.IncMisses()
		return nil, false
	}
	c.lruList.MoveToFront(elem)
	c.metricsCollector.IncHits()
	return elem.Value.(*Page), true
}

// Add puts the page into the cache evicting the least recently used pages if needed.
// A page larger than the size bound is not cached.
func (c *PageCache) Add(page *Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && uint64(len(page.Image)) > c.maxSize {
		return
	}
	if elem, ok := c.pages[page.Key]; ok {
		c.size -= uint64(len(elem.Value.(*Page).Image))
		c.lruList.Remove(elem)
	}
	c.pages[page.Key] = c.lruList.PushFront(page)
	c.size += uint64(len(page.Image))

	evicted := 0
	for len(c.pages) > c.maxPages || (c.maxSize > 0 && c.size > c.maxSize) {
		c.removeOldest()
		evicted++
	}
	if evicted > 0 {
		c.metricsCollector.AddEvictions(evicted)
	}
	c.metricsCollector.SetAmount(len(c.pages), c.size)
}

// GetOrRender returns the cached page or renders it with render and caches the result.
// Concurrent calls for the same key share a single render.
func (c *PageCache) GetOrRender(key PageKey, render func() (*Page, error)) (page *Page, cached bool, err error) {
	if page, cached = c.Get(key); cached {
		return page, true, nil
	}
	page, err = c.renders.Do(key, func() (*Page, error) {
		if p, ok := c.peek(key); ok {
			return p, nil
		}
		p, renderErr := render()
		if renderErr != nil {
			return nil, renderErr
		}
		c.Add(p)
		return p, nil
	})
	return page, false, err
}

// Remove removes the page with the key. It reports whether the page was cached.
func (c *PageCache) Remove(key PageKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.pages[key]
	if !ok {
		return false
	}
	c.size -= uint64(len(elem.Value.(*Page).Image))
	c.lruList.Remove(elem)
	delete(c.pages, key)
	c.metricsCollector.SetAmount(len(c.pages), c.size)
	return true
}

// RetainHash removes pages of all documents except the one with the given hash.
// It returns the number of removed pages.
func (c *PageCache) RetainHash(hash string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.pages {
		if key.Hash == hash {
			continue
		}
		c.size -= uint64(len(elem.Value.(*Page).Image))
		c.lruList.Remove(elem)
		delete(c.pages, key)
		removed++
	}
	if removed > 0 {
		c.metricsCollector.SetAmount(len(c.pages), c.size)
	}
	return removed
}

// Purge clears the cache. Removed pages are not counted as evictions.
func (c *PageCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages = make(map[PageKey]*list.Element)
	c.lruList.Init()
	c.size = 0
	c.metricsCollector.SetAmount(0, 0)
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// Size returns the total size of cached images in bytes.
func (c *PageCache) Size() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *PageCache) peek(key PageKey) (*Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.pages[key]; ok {
		return elem.Value.(*Page), true
	}
	return nil, false
}

func (c *PageCache) removeOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	c.lruList.Remove(elem)
	page := elem.Value.(*Page)
	delete(c.pages, page.Key)
	c.size -= uint64(len(page.Image))
}

type renderCall struct {
	wg   sync.WaitGroup
	page *Page
	err  error
}

// renderGroup suppresses duplicate renders of the same page.
type renderGroup struct {
	mu    sync.Mutex
	calls map[PageKey]*renderCall
}

func (g *renderGroup) Do(key PageKey, fn func() (*Page, error)) (*Page, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[PageKey]*renderCall)
	}
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.page, c.err
	}
	c := &renderCall{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	defer func() {
		c.wg.Done()
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
	}()
	c.err = errRenderAborted
	c.page, c.err = fn()
	return c.page, c.err
}
