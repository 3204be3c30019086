package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/monster"
	"github.com/cory-johannsen/questmon/internal/game/tower"
	"github.com/cory-johannsen/questmon/internal/storage/postgres"
	"github.com/cory-johannsen/questmon/internal/testutil"
)

// All repository tests share one container; each uses fresh user ids or seeds.
func TestRepositories(t *testing.T) {
	pc := testutil.NewMigratedPostgres(t)
	progress := postgres.NewProgressRepository(pc.RawPool)
	stars := postgres.NewStarRepository(pc.RawPool)
	boards := postgres.NewBoardRepository(pc.RawPool)

	t.Run("progress round trip", func(t *testing.T) {
		ctx := context.Background()
		user := uuid.New()

		_, err := progress.Get(ctx, user)
		assert.ErrorIs(t, err, tower.ErrProgressNotFound)

		in := tower.NewProgress(user, 4000000000, 3)
		created, err := progress.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in.ID, created.ID)
		assert.Equal(t, uint32(4000000000), created.Seed)
		assert.Empty(t, created.Monsters)
		assert.False(t, created.CreatedAt.IsZero())

		_, err = progress.Create(ctx, tower.NewProgress(user, 1, 1))
		assert.ErrorIs(t, err, tower.ErrProgressExists)

		updated, err := progress.Update(ctx, user, func(p *tower.Progress) error {
			p.CurrentFloor = 31
			p.HighestFloor = 31
			p.DiceCount = 2
			p.LastRoll = 6
			p.LastEventKind = board.KindLadder
			p.LastEventFloor = 16
			p.Monsters = append(p.Monsters, "egg:slime")
			return nil
		})
		require.NoError(t, err)

		got, err := progress.Get(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, updated.CurrentFloor, got.CurrentFloor)
		assert.Equal(t, 31, got.CurrentFloor)
		assert.Equal(t, 6, got.LastRoll)
		assert.Equal(t, board.KindLadder, got.LastEventKind)
		assert.Equal(t, 16, got.LastEventFloor)
		assert.Equal(t, []string{"egg:slime"}, got.Monsters)
	})

	t.Run("failed update writes nothing", func(t *testing.T) {
		ctx := context.Background()
		user := uuid.New()
		_, err := progress.Create(ctx, tower.NewProgress(user, 9, 0))
		require.NoError(t, err)

		_, err = progress.Update(ctx, user, func(p *tower.Progress) error {
			p.CurrentFloor = 50
			return tower.ErrNoDice
		})
		assert.ErrorIs(t, err, tower.ErrNoDice)

		got, err := progress.Get(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, tower.StartFloor, got.CurrentFloor)

		_, err = progress.Update(ctx, uuid.New(), func(*tower.Progress) error { return nil })
		assert.ErrorIs(t, err, tower.ErrProgressNotFound)
	})

	t.Run("concurrent updates serialise", func(t *testing.T) {
		ctx := context.Background()
		user := uuid.New()
		_, err := progress.Create(ctx, tower.NewProgress(user, 9, 0))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = progress.Update(ctx, user, func(p *tower.Progress) error { return tower.AddDice(p, 1) })
			}()
		}
		wg.Wait()

		got, err := progress.Get(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 10, got.DiceCount)
	})

	t.Run("stars and purchase", func(t *testing.T) {
		ctx := context.Background()
		user := uuid.New()
		_, err := progress.Create(ctx, tower.NewProgress(user, 9, 0))
		require.NoError(t, err)

		balance, err := stars.Balance(ctx, user)
		require.NoError(t, err)
		assert.Zero(t, balance)

		_, err = progress.Purchase(ctx, user, 5, "purchase 2 dice", func(p *tower.Progress) error { return tower.AddDice(p, 2) })
		assert.True(t, errors.Is(err, tower.ErrInsufficientStars))

		require.NoError(t, stars.Earn(ctx, user, 7, "quest"))
		p, err := progress.Purchase(ctx, user, 5, "purchase 2 dice", func(p *tower.Progress) error { return tower.AddDice(p, 2) })
		require.NoError(t, err)
		assert.Equal(t, 2, p.DiceCount)

		balance, err = stars.Balance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 2, balance)
	})

	t.Run("boards keep the first layout", func(t *testing.T) {
		pc.Truncate(t)
		ctx := context.Background()
		cfg := board.DefaultConfig()
		cfg.Milestones = board.MilestonesFromCatalog(monster.DefaultCatalog())
		gen, err := board.NewGenerator(cfg, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = boards.Load(ctx, 42)
		assert.ErrorIs(t, err, tower.ErrBoardNotFound)

		first, err := gen.Generate(42)
		require.NoError(t, err)
		stored, err := boards.SaveIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, first.Ladders, stored.Ladders)
		assert.Equal(t, first.Traps, stored.Traps)
		assert.Equal(t, first.Eggs, stored.Eggs)

		plain, err := board.Generate(42)
		require.NoError(t, err)
		again, err := boards.SaveIfAbsent(ctx, plain)
		require.NoError(t, err)
		assert.Equal(t, first.Eggs, again.Eggs, "stored layout must win")

		e, ok := again.At(16)
		require.True(t, ok)
		assert.Equal(t, 31, e.Target)
	})
}
