package tower

import (
	"sync"

	"github.com/cory-johannsen/questmon/internal/game/board"
)

// boardCache holds recently used layouts keyed by seed, evicting the oldest
// insertion once full. All methods are safe for concurrent use.
type boardCache struct {
	mu    sync.RWMutex
	size  int
	items map[uint32]*board.Layout
	order []uint32
}

// newBoardCache creates a cache holding at most size layouts.
// A size <= 0 disables caching.
func newBoardCache(size int) *boardCache {
	return &boardCache{
		size:  size,
		items: make(map[uint32]*board.Layout, max(size, 0)),
	}
}

func (c *boardCache) get(seed uint32) (*board.Layout, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.items[seed]
	return l, ok
}

func (c *boardCache) put(l *board.Layout) {
	if c.size <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[l.Seed]; ok {
		c.items[l.Seed] = l
		return
	}
	if len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[l.Seed] = l
	c.order = append(c.order, l.Seed)
}

func (c *boardCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
