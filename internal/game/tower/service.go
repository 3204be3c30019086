package tower

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/dice"
	"github.com/cory-johannsen/questmon/internal/game/monster"
)

// ErrBoardNotFound is returned by a BoardStore that holds no layout for a seed.
var ErrBoardNotFound = errors.New("board not found")

// ProgressStore persists tower progress.
type ProgressStore interface {
	// Get returns the progress for userID or ErrProgressNotFound.
	Get(ctx context.Context, userID uuid.UUID) (*Progress, error)
	// Create stores p or returns ErrProgressExists.
	Create(ctx context.Context, p *Progress) (*Progress, error)
	// Update loads userID's progress under a row lock, applies fn and writes
	// the result back. Nothing is written when fn returns an error.
	Update(ctx context.Context, userID uuid.UUID, fn func(*Progress) error) (*Progress, error)
	// Purchase debits cost stars from userID and applies fn to the progress
	// in one transaction, or returns ErrInsufficientStars.
	Purchase(ctx context.Context, userID uuid.UUID, cost int, description string, fn func(*Progress) error) (*Progress, error)
}

// StarLedger records star earnings.
type StarLedger interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Earn(ctx context.Context, userID uuid.UUID, amount int, description string) error
}

// BoardStore persists generated layouts by seed so a player's board never
// changes once generated.
type BoardStore interface {
	// Load returns the layout stored for seed or ErrBoardNotFound.
	Load(ctx context.Context, seed uint32) (*board.Layout, error)
	// SaveIfAbsent stores l unless a layout for l.Seed already exists and
	// returns whichever layout is stored.
	SaveIfAbsent(ctx context.Context, l *board.Layout) (*board.Layout, error)
}

// Config holds the tunable rules of the tower service.
type Config struct {
	StartingDice   int
	ResetBonusDice int
	// RollExpression is the dice expression rolled on every climb, e.g. "1d6".
	RollExpression string
	BoardCacheSize int
}

// Service orchestrates tower progress over persisted boards.
// All methods are safe for concurrent use.
type Service struct {
	cfg      Config
	gen      *board.Generator
	catalog  *monster.Catalog
	progress ProgressStore
	stars    StarLedger
	boards   BoardStore
	roller   *dice.Roller
	seeds    dice.Source
	cache    *boardCache
	loads    singleflight.Group
	logger   *zap.Logger
}

// NewService creates a Service.
//
// Precondition: every dependency must be non-nil; src must be safe for
// concurrent use.
// Postcondition: Returns a Service, or an error when cfg is invalid.
func NewService(
	cfg Config,
	gen *board.Generator,
	catalog *monster.Catalog,
	progress ProgressStore,
	stars StarLedger,
	boards BoardStore,
	src dice.Source,
	logger *zap.Logger,
) (*Service, error) {
	if cfg.StartingDice < 0 {
		return nil, fmt.Errorf("starting dice must be >= 0, got %d", cfg.StartingDice)
	}
	if cfg.ResetBonusDice < 0 {
		return nil, fmt.Errorf("reset bonus dice must be >= 0, got %d", cfg.ResetBonusDice)
	}
	roller, err := dice.NewLoggedRoller(cfg.RollExpression, src, logger)
	if err != nil {
		return nil, fmt.Errorf("roll expression: %w", err)
	}
	if roller.Expression().Min() < 1 {
		return nil, fmt.Errorf("roll expression %q can roll below 1", cfg.RollExpression)
	}
	return &Service{
		cfg:      cfg,
		gen:      gen,
		catalog:  catalog,
		progress: progress,
		stars:    stars,
		boards:   boards,
		roller:   roller,
		seeds:    src,
		cache:    newBoardCache(cfg.BoardCacheSize),
		logger:   logger,
	}, nil
}

// Board returns the layout for seed, generating and persisting it on first use.
//
// Postcondition: Every call for the same seed returns an identical layout,
// including after the generator changes, because the first stored layout wins.
func (s *Service) Board(ctx context.Context, seed uint32) (*board.Layout, error) {
	if l, ok := s.cache.get(seed); ok {
		return l, nil
	}
	v, err, _ := s.loads.Do(strconv.FormatUint(uint64(seed), 10), func() (any, error) {
		// Concurrent callers share this load, so one caller's cancellation
		// must not fail the others.
		ctx := context.WithoutCancel(ctx)
		l, err := s.boards.Load(ctx, seed)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, ErrBoardNotFound) {
			return nil, fmt.Errorf("loading board %d: %w", seed, err)
		}
		l, err = s.gen.Generate(seed)
		if err != nil {
			return nil, fmt.Errorf("generating board %d: %w", seed, err)
		}
		if l.Fallbacks > 0 {
			s.logger.Warn("persisting board with placement fallbacks",
				zap.Uint32("seed", seed), zap.Int("fallbacks", l.Fallbacks))
		}
		stored, err := s.boards.SaveIfAbsent(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("saving board %d: %w", seed, err)
		}
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	l := v.(*board.Layout)
	s.cache.put(l)
	return l, nil
}

// Progress returns userID's progress, starting a new climb on first access.
func (s *Service) Progress(ctx context.Context, userID uuid.UUID) (*Progress, error) {
	p, err := s.progress.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProgressNotFound) {
		return nil, err
	}
	p, err = s.progress.Create(ctx, NewProgress(userID, s.newSeed(), s.cfg.StartingDice))
	if errors.Is(err, ErrProgressExists) {
		return s.progress.Get(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("tower progress created",
		zap.String("user_id", userID.String()),
		zap.Uint32("seed", p.Seed),
		zap.Int("dice", p.DiceCount),
	)
	return p, nil
}

// ErrSeedChanged is returned when every climb attempt raced a concurrent
// reset that replaced the player's board.
var ErrSeedChanged = errors.New("seed changed during climb")

// maxClimbAttempts bounds retries after ErrSeedChanged.
const maxClimbAttempts = 3

// Roll spends one die and climbs userID's board by the configured expression.
// The board is resolved before the progress row is locked.
//
// Postcondition: Returns the updated progress and the climb, ErrNoDice, or
// ErrSeedChanged after maxClimbAttempts lost races with ResetTower.
func (s *Service) Roll(ctx context.Context, userID uuid.UUID) (*Progress, ClimbResult, error) {
	var (
		p   *Progress
		res ClimbResult
		err error
	)
	for attempt := 1; ; attempt++ {
		p, res, err = s.roll(ctx, userID)
		if !errors.Is(err, ErrSeedChanged) || attempt == maxClimbAttempts {
			break
		}
	}
	if err != nil {
		return nil, ClimbResult{}, err
	}
	s.logger.Info("tower climb",
		zap.String("user_id", userID.String()),
		zap.Int("roll", res.Roll),
		zap.Int("from", res.From),
		zap.Int("floor", res.Floor),
		zap.Bool("reached_top", res.ReachedTop),
	)
	return p, res, nil
}

func (s *Service) roll(ctx context.Context, userID uuid.UUID) (*Progress, ClimbResult, error) {
	cur, err := s.Progress(ctx, userID)
	if err != nil {
		return nil, ClimbResult{}, err
	}
	layout, err := s.Board(ctx, cur.Seed)
	if err != nil {
		return nil, ClimbResult{}, err
	}
	var res ClimbResult
	p, err := s.progress.Update(ctx, userID, func(p *Progress) error {
		if p.DiceCount <= 0 {
			return ErrNoDice
		}
		if p.Seed != layout.Seed {
			return ErrSeedChanged
		}
		roll := s.roller.Roll(zap.String("user_id", userID.String()))
		var err error
		res, err = Climb(p, layout, roll.Total())
		return err
	})
	if err != nil {
		return nil, ClimbResult{}, err
	}
	return p, res, nil
}

// AddDice awards n dice to userID.
func (s *Service) AddDice(ctx context.Context, userID uuid.UUID, n int) (*Progress, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, n)
	}
	return s.update(ctx, userID, func(p *Progress) error { return AddDice(p, n) })
}

// PurchaseDice buys n dice with stars and returns the progress and the cost.
func (s *Service) PurchaseDice(ctx context.Context, userID uuid.UUID, n int) (*Progress, int, error) {
	if n <= 0 {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidAmount, n)
	}
	if _, err := s.Progress(ctx, userID); err != nil {
		return nil, 0, err
	}
	cost := DiceCost(n)
	p, err := s.progress.Purchase(ctx, userID, cost, fmt.Sprintf("purchase %d dice", n),
		func(p *Progress) error { return AddDice(p, n) })
	if err != nil {
		return nil, 0, err
	}
	return p, cost, nil
}

// HatchEgg hatches userID's index-th unhatched egg.
func (s *Service) HatchEgg(ctx context.Context, userID uuid.UUID, index int) (*Progress, string, error) {
	var hatched string
	p, err := s.update(ctx, userID, func(p *Progress) error {
		var err error
		hatched, err = HatchEgg(p, index)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return p, hatched, nil
}

// GrantEgg awards an unhatched egg of a catalog monster to userID. Evolved
// forms cannot be granted as eggs.
func (s *Service) GrantEgg(ctx context.Context, userID uuid.UUID, monsterID string) (*Progress, error) {
	m, err := s.catalog.Get(monsterID)
	if err != nil {
		return nil, err
	}
	if m.Evolved {
		return nil, fmt.Errorf("%w: %q is an evolved form", ErrInvalidMonster, monsterID)
	}
	return s.update(ctx, userID, func(p *Progress) error { return GrantEgg(p, monsterID) })
}

// EvolveMonster merges EvolutionCost of userID's hatched monsterID copies
// into its evolved form.
//
// Postcondition: Returns the progress and the evolved id, or
// ErrMonsterNotFound, ErrCannotEvolve or ErrNotEnoughCopies.
func (s *Service) EvolveMonster(ctx context.Context, userID uuid.UUID, monsterID string) (*Progress, string, error) {
	var evolved string
	p, err := s.update(ctx, userID, func(p *Progress) error {
		var err error
		evolved, err = Evolve(p, s.catalog, monsterID)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("monster evolved",
		zap.String("user_id", userID.String()),
		zap.String("monster_id", monsterID),
		zap.String("evolved_id", evolved),
	)
	return p, evolved, nil
}

// GrantStars credits amount stars to userID.
func (s *Service) GrantStars(ctx context.Context, userID uuid.UUID, amount int, description string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return s.stars.Earn(ctx, userID, amount, description)
}

// StarBalance returns userID's star balance.
func (s *Service) StarBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.stars.Balance(ctx, userID)
}

// ResetTower starts userID on a new board after reaching the top.
func (s *Service) ResetTower(ctx context.Context, userID uuid.UUID) (*Progress, error) {
	seed := s.newSeed()
	p, err := s.update(ctx, userID, func(p *Progress) error {
		return Reset(p, seed, s.cfg.ResetBonusDice)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tower reset",
		zap.String("user_id", userID.String()),
		zap.Uint32("seed", p.Seed),
		zap.Int("dice", p.DiceCount),
	)
	return p, nil
}

// update applies fn to userID's progress, creating it first when absent.
func (s *Service) update(ctx context.Context, userID uuid.UUID, fn func(*Progress) error) (*Progress, error) {
	p, err := s.progress.Update(ctx, userID, fn)
	if !errors.Is(err, ErrProgressNotFound) {
		return p, err
	}
	if _, err := s.Progress(ctx, userID); err != nil {
		return nil, err
	}
	return s.progress.Update(ctx, userID, fn)
}

func (s *Service) newSeed() uint32 {
	return uint32(s.seeds.Intn(math.MaxInt32))
}
