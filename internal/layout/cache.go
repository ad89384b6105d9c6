package layout

import "rvabi/internal/types"

type cacheEntry struct {
	Layout TypeLayout
	Err    *LayoutError
}

// cache memoizes layouts per base TypeID. Types are immutable once the
// signature is loaded, so entries never need invalidation.
type cache struct {
	byType map[types.TypeID]*cacheEntry
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]*cacheEntry, 64)}
}

func (c *cache) get(id types.TypeID) (*cacheEntry, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.byType[id]
	return e, ok
}

func (c *cache) put(id types.TypeID, e *cacheEntry) {
	if c == nil {
		return
	}
	if e == nil {
		delete(c.byType, id)
		return
	}
	c.byType[id] = e
}
