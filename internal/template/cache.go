package template

import "sync"

// Cache memoizes built catalogs by template ID so a batch enumerates each
// template's fields exactly once regardless of recipient count. A cache is
// created per batch and discarded with it; template edits made mid-batch
// are deliberately invisible.
type Cache struct {
	defaults Defaults

	mu       sync.Mutex
	catalogs map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	cat  *Catalog
	err  error
}

// NewCache creates an empty catalog cache with the given field-size
// defaults.
func NewCache(defaults Defaults) *Cache {
	return &Cache{
		defaults: defaults.withFallbacks(),
		catalogs: make(map[string]*cacheEntry),
	}
}

// Catalog returns the catalog for the template identified by id, building
// it from load on first use. Concurrent callers for the same id share a
// single build; a build error is cached like a result, since retrying the
// same bytes cannot succeed.
func (c *Cache) Catalog(id string, load func() ([]byte, error)) (*Catalog, error) {
	c.mu.Lock()
	entry, ok := c.catalogs[id]
	if !ok {
		entry = &cacheEntry{}
		c.catalogs[id] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		data, err := load()
		if err != nil {
			entry.err = err
			return
		}
		entry.cat, entry.err = BuildCatalog(data, c.defaults)
	})
	return entry.cat, entry.err
}
