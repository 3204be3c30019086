package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/tower"
)

const progressColumns = `id, user_id, seed, current_floor, dice_count, monsters_collected,
	total_climbs, highest_floor, last_roll_result, last_event_type, last_event_floor,
	created_at, updated_at`

// ProgressRepository persists tower progress and implements tower.ProgressStore.
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a ProgressRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get retrieves the progress for userID.
//
// Postcondition: Returns the progress or tower.ErrProgressNotFound.
func (r *ProgressRepository) Get(ctx context.Context, userID uuid.UUID) (*tower.Progress, error) {
	p, err := scanProgress(r.db.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM tower_progress WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tower.ErrProgressNotFound
		}
		return nil, fmt.Errorf("querying tower progress: %w", err)
	}
	return p, nil
}

// Create inserts p.
//
// Precondition: p.ID and p.UserID must be set.
// Postcondition: Returns the stored progress with timestamps set, or
// tower.ErrProgressExists if the user already has progress.
func (r *ProgressRepository) Create(ctx context.Context, p *tower.Progress) (*tower.Progress, error) {
	out, err := scanProgress(r.db.QueryRow(ctx,
		`INSERT INTO tower_progress
		 (id, user_id, seed, current_floor, dice_count, monsters_collected,
		  total_climbs, highest_floor, last_roll_result, last_event_type, last_event_floor)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+progressColumns,
		p.ID, p.UserID, int64(p.Seed), p.CurrentFloor, p.DiceCount, monstersArg(p.Monsters),
		p.TotalClimbs, p.HighestFloor, nullInt(p.LastRoll), nullKind(p.LastEventKind), nullInt(p.LastEventFloor),
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, tower.ErrProgressExists
		}
		return nil, fmt.Errorf("inserting tower progress: %w", err)
	}
	return out, nil
}

// Update locks userID's row, applies fn and writes the result in one transaction.
//
// Postcondition: Returns the updated progress. When fn fails or the user has
// no progress nothing is written and the error is returned.
func (r *ProgressRepository) Update(ctx context.Context, userID uuid.UUID, fn func(*tower.Progress) error) (*tower.Progress, error) {
	var out *tower.Progress
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		p, err := lockProgress(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		out, err = saveProgress(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Purchase debits cost stars and applies fn in one transaction.
//
// Postcondition: Returns the updated progress, or tower.ErrInsufficientStars
// when the balance is below cost, in which case nothing is written.
func (r *ProgressRepository) Purchase(ctx context.Context, userID uuid.UUID, cost int, description string, fn func(*tower.Progress) error) (*tower.Progress, error) {
	var out *tower.Progress
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		// The progress row lock serialises concurrent purchases by one user.
		p, err := lockProgress(ctx, tx, userID)
		if err != nil {
			return err
		}
		balance, err := starBalance(ctx, tx, userID)
		if err != nil {
			return err
		}
		if balance < cost {
			return fmt.Errorf("%w: balance %d, cost %d", tower.ErrInsufficientStars, balance, cost)
		}
		if err := fn(p); err != nil {
			return err
		}
		if cost > 0 {
			if _, err := tx.Exec(ctx,
				`INSERT INTO star_transactions (user_id, amount, type, description)
				 VALUES ($1, $2, $3, $4)`,
				userID, -cost, txSpend, description,
			); err != nil {
				return fmt.Errorf("recording star spend: %w", err)
			}
		}
		out, err = saveProgress(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockProgress(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*tower.Progress, error) {
	p, err := scanProgress(tx.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM tower_progress WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tower.ErrProgressNotFound
		}
		return nil, fmt.Errorf("locking tower progress: %w", err)
	}
	return p, nil
}

func saveProgress(ctx context.Context, tx pgx.Tx, p *tower.Progress) (*tower.Progress, error) {
	out, err := scanProgress(tx.QueryRow(ctx,
		`UPDATE tower_progress SET
		   seed = $2, current_floor = $3, dice_count = $4, monsters_collected = $5,
		   total_climbs = $6, highest_floor = $7, last_roll_result = $8,
		   last_event_type = $9, last_event_floor = $10, updated_at = NOW()
		 WHERE user_id = $1
		 RETURNING `+progressColumns,
		p.UserID, int64(p.Seed), p.CurrentFloor, p.DiceCount, monstersArg(p.Monsters),
		p.TotalClimbs, p.HighestFloor, nullInt(p.LastRoll), nullKind(p.LastEventKind), nullInt(p.LastEventFloor),
	))
	if err != nil {
		return nil, fmt.Errorf("updating tower progress: %w", err)
	}
	return out, nil
}

func scanProgress(row pgx.Row) (*tower.Progress, error) {
	var (
		p         tower.Progress
		seed      int64
		lastRoll  *int
		lastKind  *string
		lastFloor *int
	)
	err := row.Scan(
		&p.ID, &p.UserID, &seed, &p.CurrentFloor, &p.DiceCount, &p.Monsters,
		&p.TotalClimbs, &p.HighestFloor, &lastRoll, &lastKind, &lastFloor,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Seed = uint32(seed)
	if lastRoll != nil {
		p.LastRoll = *lastRoll
	}
	if lastKind != nil {
		p.LastEventKind = board.Kind(*lastKind)
	}
	if lastFloor != nil {
		p.LastEventFloor = *lastFloor
	}
	if p.Monsters == nil {
		p.Monsters = []string{}
	}
	return &p, nil
}

// monstersArg keeps a nil slice from being written as SQL NULL.
func monstersArg(m []string) []string {
	if m == nil {
		return []string{}
	}
	return m
}

func nullInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func nullKind(k board.Kind) *string {
	if k == "" {
		return nil
	}
	s := string(k)
	return &s
}
