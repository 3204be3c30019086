package tower

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/questmon/internal/game/board"
)

// MemoryStore is an in-process ProgressStore, StarLedger and BoardStore.
// It backs tests and database-less runs. All methods are safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	progress map[uuid.UUID]*Progress
	stars    map[uuid.UUID]int
	boards   map[uint32]*board.Layout
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		progress: make(map[uuid.UUID]*Progress),
		stars:    make(map[uuid.UUID]int),
		boards:   make(map[uint32]*board.Layout),
		now:      time.Now,
	}
}

// Get implements ProgressStore.
func (m *MemoryStore) Get(_ context.Context, userID uuid.UUID) (*Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[userID]
	if !ok {
		return nil, ErrProgressNotFound
	}
	return p.Clone(), nil
}

// Create implements ProgressStore.
func (m *MemoryStore) Create(_ context.Context, p *Progress) (*Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.progress[p.UserID]; ok {
		return nil, ErrProgressExists
	}
	c := p.Clone()
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.progress[p.UserID] = c
	return c.Clone(), nil
}

// Update implements ProgressStore.
func (m *MemoryStore) Update(_ context.Context, userID uuid.UUID, fn func(*Progress) error) (*Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(userID, fn)
}

// Purchase implements ProgressStore.
func (m *MemoryStore) Purchase(_ context.Context, userID uuid.UUID, cost int, _ string, fn func(*Progress) error) (*Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stars[userID] < cost {
		return nil, ErrInsufficientStars
	}
	p, err := m.apply(userID, fn)
	if err != nil {
		return nil, err
	}
	m.stars[userID] -= cost
	return p, nil
}

// apply mutates a copy so a failing fn leaves the stored progress untouched.
// Caller must hold m.mu.
func (m *MemoryStore) apply(userID uuid.UUID, fn func(*Progress) error) (*Progress, error) {
	cur, ok := m.progress[userID]
	if !ok {
		return nil, ErrProgressNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = m.now()
	m.progress[userID] = next
	return next.Clone(), nil
}

// Balance implements StarLedger.
func (m *MemoryStore) Balance(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stars[userID], nil
}

// Earn implements StarLedger.
func (m *MemoryStore) Earn(_ context.Context, userID uuid.UUID, amount int, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stars[userID] += amount
	return nil
}

// Load implements BoardStore.
func (m *MemoryStore) Load(_ context.Context, seed uint32) (*board.Layout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.boards[seed]
	if !ok {
		return nil, ErrBoardNotFound
	}
	return l, nil
}

// SaveIfAbsent implements BoardStore.
func (m *MemoryStore) SaveIfAbsent(_ context.Context, l *board.Layout) (*board.Layout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.boards[l.Seed]; ok {
		return existing, nil
	}
	m.boards[l.Seed] = l
	return l, nil
}
