package tower

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/questmon/internal/game/board"
)

func TestBoardCache_EvictsOldest(t *testing.T) {
	c := newBoardCache(2)
	for _, seed := range []uint32{1, 2, 3} {
		c.put(board.NewLayout(seed, nil, nil, nil, 0))
	}
	assert.Equal(t, 2, c.len())
	_, ok := c.get(1)
	assert.False(t, ok)
	_, ok = c.get(3)
	assert.True(t, ok)
}

func TestBoardCache_DisabledWhenSizeZero(t *testing.T) {
	c := newBoardCache(0)
	c.put(board.NewLayout(1, nil, nil, nil, 0))
	_, ok := c.get(1)
	assert.False(t, ok)
}
