package dimension

import (
	"sync"
	"time"

	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

// itemCache cache de lecturas del maestro de ítems con TTL explícito.
// Reemplaza el cache global de proceso de la versión anterior: lo posee el
// resolver, se invalida por tiempo y es seguro para uso concurrente.
type itemCache struct {
	ttl time.Duration
	now func() time.Time // inyectable para tests

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	item      *entity.Item
	expiresAt time.Time
}

func newItemCache(ttl time.Duration) *itemCache {
	return &itemCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// get devuelve el ítem cacheado si existe y no expiró.
func (c *itemCache) get(id string) (*entity.Item, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.item, true
}

func (c *itemCache) put(id string, item *entity.Item) {
	c.mu.Lock()
	c.entries[id] = cacheEntry{item: item, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// invalidate elimina una entrada (tras actualizar el ítem) o todo el cache (id vacío).
func (c *itemCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == "" {
		c.entries = make(map[string]cacheEntry)
		return
	}
	delete(c.entries, id)
}
