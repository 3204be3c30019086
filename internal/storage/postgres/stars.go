package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Star transaction types.
const (
	txEarn  = "earn"
	txSpend = "spend"
)

// StarRepository records star transactions and implements tower.StarLedger.
// A user's balance is the sum of their transaction amounts.
type StarRepository struct {
	db *pgxpool.Pool
}

// NewStarRepository creates a StarRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewStarRepository(db *pgxpool.Pool) *StarRepository {
	return &StarRepository{db: db}
}

// Balance returns the star balance of userID; users without transactions have 0.
func (r *StarRepository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return starBalance(ctx, r.db, userID)
}

// Earn records a credit of amount stars.
//
// Precondition: amount > 0.
func (r *StarRepository) Earn(ctx context.Context, userID uuid.UUID, amount int, description string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO star_transactions (user_id, amount, type, description)
		 VALUES ($1, $2, $3, $4)`,
		userID, amount, txEarn, description,
	)
	if err != nil {
		return fmt.Errorf("recording star earn: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func starBalance(ctx context.Context, q querier, userID uuid.UUID) (int, error) {
	var balance int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM star_transactions WHERE user_id = $1`,
		userID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("querying star balance: %w", err)
	}
	return balance, nil
}
