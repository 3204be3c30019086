package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/tower"
)

// BoardRepository stores generated layouts as JSONB keyed by seed and
// implements tower.BoardStore.
type BoardRepository struct {
	db *pgxpool.Pool
}

// NewBoardRepository creates a BoardRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBoardRepository(db *pgxpool.Pool) *BoardRepository {
	return &BoardRepository{db: db}
}

// Load returns the layout stored for seed.
//
// Postcondition: Returns the layout or tower.ErrBoardNotFound.
func (r *BoardRepository) Load(ctx context.Context, seed uint32) (*board.Layout, error) {
	var l board.Layout
	err := r.db.QueryRow(ctx,
		`SELECT layout FROM tower_boards WHERE seed = $1`, int64(seed),
	).Scan(&l)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tower.ErrBoardNotFound
		}
		return nil, fmt.Errorf("querying board %d: %w", seed, err)
	}
	return board.NewLayout(l.Seed, l.Ladders, l.Traps, l.Eggs, l.Fallbacks), nil
}

// SaveIfAbsent stores l unless a layout for l.Seed exists.
//
// Postcondition: Returns the layout stored for l.Seed, which is l only when
// no earlier layout was present.
func (r *BoardRepository) SaveIfAbsent(ctx context.Context, l *board.Layout) (*board.Layout, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tower_boards (seed, layout, fallbacks)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (seed) DO NOTHING`,
		int64(l.Seed), l, l.Fallbacks,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting board %d: %w", l.Seed, err)
	}
	return r.Load(ctx, l.Seed)
}
