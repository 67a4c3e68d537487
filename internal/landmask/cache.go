package landmask

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
)

// CachedClassifier wraps a Classifier with an in-memory LRU cache keyed by
// point rounded to ~1 m. Neighbouring spots share most of their ring
// samples, so batch runs hit the cache often.
type CachedClassifier struct {
	inner Classifier

	mu         sync.Mutex
	maxEntries int
	order      *list.List
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	water bool
}

func NewCachedClassifier(inner Classifier, maxEntries int) *CachedClassifier {
	return &CachedClassifier{
		inner:      inner,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *CachedClassifier) IsWater(ctx context.Context, points []orb.Point) ([]bool, error) {
	out := make([]bool, len(points))
	var (
		missIdx []int
		missPts []orb.Point
	)

	for i, p := range points {
		if water, ok := c.get(cacheKey(p)); ok {
			out[i] = water
			continue
		}
		missIdx = append(missIdx, i)
		missPts = append(missPts, p)
	}

	if len(missPts) == 0 {
		return out, nil
	}

	res, err := c.inner.IsWater(ctx, missPts)
	if err != nil {
		return nil, err
	}
	if len(res) != len(missPts) {
		return nil, fmt.Errorf("classifier returned %d results for %d points", len(res), len(missPts))
	}

	for j, i := range missIdx {
		out[i] = res[j]
		c.put(cacheKey(missPts[j]), res[j])
	}
	return out, nil
}

func (c *CachedClassifier) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(p orb.Point) string {
	return fmt.Sprintf("%.5f,%.5f", p.Lon(), p.Lat())
}

func (c *CachedClassifier) get(key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false, false
	}
	c.order.MoveToFront(e)
	return e.Value.(*cacheEntry).water, true
}

func (c *CachedClassifier) put(key string, water bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.Value.(*cacheEntry).water = water
		c.order.MoveToFront(e)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, water: water})

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
