package render

import "github.com/xonecas/coppice/internal/supply"

// Cache memoizes rendered messages by id. Re-adding replaces, invalidating
// an absent id is a no-op. There is no eviction: the forest is bounded by
// the visible session.
type Cache struct {
	rendered map[supply.Id]RenderedMessage
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{rendered: make(map[supply.Id]RenderedMessage)}
}

// Get returns the cached rendering for id.
func (c *Cache) Get(id supply.Id) (RenderedMessage, bool) {
	r, ok := c.rendered[id]
	return r, ok
}

// Add stores a rendering, replacing any previous one for the same id.
func (c *Cache) Add(r RenderedMessage) {
	c.rendered[r.ID] = r
}

// Invalidate drops the rendering for id.
func (c *Cache) Invalidate(id supply.Id) {
	delete(c.rendered, id)
}

// InvalidateAll drops every cached rendering.
func (c *Cache) InvalidateAll() {
	c.rendered = make(map[supply.Id]RenderedMessage)
}
