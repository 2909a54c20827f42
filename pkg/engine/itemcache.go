package engine

import (
	"context"
	"sync"

	"lostfound/pkg/client"
	"lostfound/pkg/models"
)

// ItemCache is a read-through cache of item metadata. There is no per-id
// endpoint; a miss triggers a bulk fetch and the lookup retries against
// the refreshed map.
type ItemCache struct {
	mu    sync.Mutex
	api   API
	items map[string]models.Item
}

// NewItemCache returns an empty cache backed by api.
func NewItemCache(api API) *ItemCache {
	return &ItemCache{api: api, items: make(map[string]models.Item)}
}

// GetByID returns the item or ErrItemNotFound. On a cache miss it
// refetches the full item list once; an item still absent after that is
// not found.
func (c *ItemCache) GetByID(ctx context.Context, id string) (models.Item, error) {
	c.mu.Lock()
	it, ok := c.items[id]
	c.mu.Unlock()
	if ok {
		return it, nil
	}

	items, err := c.api.Items(ctx, client.ItemQuery{})
	if err != nil {
		return models.Item{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		c.items[it.ItemID] = it
	}
	if it, ok := c.items[id]; ok {
		return it, nil
	}
	return models.Item{}, ErrItemNotFound
}

// Invalidate drops a cached entry so the next lookup refetches. Used
// after resolve changes an item's status.
func (c *ItemCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()
}
