/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package preview

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func makePage(hash string, num int, size int) *Page {
	return &Page{Key: PageKey{Hash: hash, Page: num, Scale: 1}, Image: make([]byte, size)}
}

func TestNewPageCache(t *testing.T) {
	_, err := NewPageCache(0, 0, nil)
	require.EqualError(t, err, "maxPages must be greater than 0")
}

func TestPageCache_EvictsByCount(t *testing.T) {
	metrics := NewPrometheusCacheMetrics("")
	cache, err := NewPageCache(2, 0, metrics)
	require.NoError(t, err)

	cache.Add(makePage("h1", 1, 10))
	cache.Add(makePage("h1", 2, 10))
	_, ok := cache.Get(PageKey{Hash: "h1", Page: 1, Scale: 1}) // page 1 becomes the most recent
	require.True(t, ok)
	cache.Add(makePage("h1", 3, 10))

	require.Equal(t, 2, cache.Len())
	_, ok = cache.Get(PageKey{Hash: "h1", Page: 2, Scale: 1})
	require.False(t, ok)
	_, ok = cache.Get(PageKey{Hash: "h1", Page: 3, Scale: 1})
	require.True(t, ok)

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.PagesAmount))
	require.Equal(t, 20.0, testutil.ToFloat64(metrics.SizeBytes))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.HitsTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.MissesTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.EvictionsTotal))
}

func TestPageCache_EvictsBySize(t *testing.T) {
	cache, err := NewPageCache(10, 100, nil)
	require.NoError(t, err)

	cache.Add(makePage("h1", 1, 40))
	cache.Add(makePage("h1", 2, 40))
	cache.Add(makePage("h1", 3, 40))
	require.Equal(t, 2, cache.Len())
	require.Equal(t, uint64(80), cache.Size())

	// Too large to be cached at all.
	cache.Add(makePage("h1", 4, 101))
	require.Equal(t, 2, cache.Len())

	// Replacing a page accounts for the old image.
	cache.Add(makePage("h1", 3, 10))
	require.Equal(t, uint64(50), cache.Size())
}

func TestPageCache_RetainHashAndPurge(t *testing.T) {
	cache, err := NewPageCache(10, 0, nil)
	require.NoError(t, err)

	cache.Add(makePage("old", 1, 5))
	cache.Add(makePage("old", 2, 5))
	cache.Add(makePage("new", 1, 7))

	require.Equal(t, 2, cache.RetainHash("new"))
	require.Equal(t, 1, cache.Len())
	require.Equal(t, uint64(7), cache.Size())
	require.Equal(t, 0, cache.RetainHash("new"))

	cache.Add(makePage("new", 2, 3))
	require.True(t, cache.Remove(PageKey{Hash: "new", Page: 2, Scale: 1}))
	require.False(t, cache.Remove(PageKey{Hash: "new", Page: 2, Scale: 1}))
	require.Equal(t, uint64(7), cache.Size())

	cache.Purge()
	require.Equal(t, 0, cache.Len())
	require.Equal(t, uint64(0), cache.Size())
}

func TestPageCache_GetOrRender(t *testing.T) {
	cache, err := NewPageCache(10, 0, nil)
	require.NoError(t, err)
	key := PageKey{Hash: "h", Page: 1, Scale: 2}

	_, _, err = cache.GetOrRender(key, func() (*Page, error) { return nil, errors.New("backend is down") })
	require.EqualError(t, err, "backend is down")
	require.Equal(t, 0, cache.Len())

	release := make(chan struct{})
	var renders int
	var mu sync.Mutex
	render := func() (*Page, error) {
		mu.Lock()
		renders++
		mu.Unlock()
		<-release
		return &Page{Key: key, Image: []byte{1, 2, 3}}, nil
	}

	const n = 5
	var wg sync.WaitGroup
	pages := make([]*Page, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, renderErr := cache.GetOrRender(key, render)
			require.NoError(t, renderErr)
			pages[i] = p
		}(i)
	}
	close(release)
	wg.Wait()

	require.LessOrEqual(t, renders, n)
	for _, p := range pages {
		require.Equal(t, []byte{1, 2, 3}, p.Image)
	}

	p, cached, err := cache.GetOrRender(key, func() (*Page, error) {
		t.Fatal("cached page should not be rendered again")
		return nil, nil
	})
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, key, p.Key)
}
