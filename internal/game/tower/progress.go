// Package tower implements a player's climb through a generated board:
// rolling, event relocation, egg collection, dice economy and resets.
package tower

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/monster"
)

// Floors a climb starts and ends on.
const (
	StartFloor = board.BoardMin
	TopFloor   = board.BoardMax
)

// Dice economy: StarsPerDicePair stars buy two dice; odd amounts round up.
const StarsPerDicePair = 5

// EvolutionCost is the number of hatched copies merged into one evolved form.
const EvolutionCost = 5

// EventEgg marks a landing that collected a milestone egg.
const EventEgg board.Kind = "egg"

// eggPrefix marks an unhatched entry in Progress.Monsters.
const eggPrefix = "egg:"

var (
	// ErrNoDice is returned when a climb is attempted without dice.
	ErrNoDice = errors.New("no dice left")
	// ErrInvalidRoll is returned when a roll is not positive.
	ErrInvalidRoll = errors.New("roll must be positive")
	// ErrInvalidAmount is returned when a dice or star amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrEggNotFound is returned when an egg index does not address an unhatched egg.
	ErrEggNotFound = errors.New("egg not found")
	// ErrInvalidMonster is returned when a monster id is empty or malformed.
	ErrInvalidMonster = errors.New("invalid monster id")
	// ErrTowerNotComplete is returned when a reset is requested before reaching the top.
	ErrTowerNotComplete = errors.New("tower not complete")
	// ErrProgressNotFound is returned when a user has no tower progress.
	ErrProgressNotFound = errors.New("tower progress not found")
	// ErrProgressExists is returned when progress is created twice for a user.
	ErrProgressExists = errors.New("tower progress already exists")
	// ErrInsufficientStars is returned when a purchase exceeds the star balance.
	ErrInsufficientStars = errors.New("insufficient stars")
	// ErrCannotEvolve is returned for monsters without an evolved form.
	ErrCannotEvolve = errors.New("monster cannot evolve")
	// ErrNotEnoughCopies is returned when fewer than EvolutionCost hatched
	// copies are held.
	ErrNotEnoughCopies = errors.New("not enough copies to evolve")
)

// Progress is one player's persistent tower state.
type Progress struct {
	ID     uuid.UUID
	UserID uuid.UUID
	// Seed selects the board the player is climbing.
	Seed         uint32
	CurrentFloor int
	DiceCount    int
	// Monsters holds hatched monster ids and unhatched "egg:<id>" entries in
	// the order they were collected.
	Monsters       []string
	TotalClimbs    int
	HighestFloor   int
	LastRoll       int
	LastEventKind  board.Kind
	LastEventFloor int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewProgress returns a fresh climb for userID on the board for seed.
//
// Precondition: dice >= 0.
func NewProgress(userID uuid.UUID, seed uint32, dice int) *Progress {
	return &Progress{
		ID:           uuid.New(),
		UserID:       userID,
		Seed:         seed,
		CurrentFloor: StartFloor,
		DiceCount:    dice,
		Monsters:     []string{},
		HighestFloor: StartFloor,
	}
}

// Clone returns a deep copy of p.
func (p *Progress) Clone() *Progress {
	c := *p
	c.Monsters = slices.Clone(p.Monsters)
	return &c
}

// ReachedTop reports whether the player stands on the top floor.
func (p *Progress) ReachedTop() bool { return p.CurrentFloor >= TopFloor }

// Eggs returns the monster ids of unhatched eggs, in collection order.
func (p *Progress) Eggs() []string {
	var out []string
	for _, m := range p.Monsters {
		if id, ok := strings.CutPrefix(m, eggPrefix); ok {
			out = append(out, id)
		}
	}
	return out
}

// Hatched returns the ids of hatched monsters, in collection order.
func (p *Progress) Hatched() []string {
	var out []string
	for _, m := range p.Monsters {
		if !strings.HasPrefix(m, eggPrefix) {
			out = append(out, m)
		}
	}
	return out
}

// ClimbResult describes one roll.
type ClimbResult struct {
	Roll int
	From int
	// Landed is the floor reached by the roll before any relocation.
	Landed int
	// Floor is where the player ends the turn.
	Floor      int
	Event      *board.Event
	Egg        *board.Egg
	ReachedTop bool
}

// Climb spends one die and advances p by roll on layout.
//
// Precondition: p and layout must be non-nil.
// Postcondition: On success DiceCount decreases by one, TotalClimbs increases
// by one, CurrentFloor is within [StartFloor, TopFloor] and HighestFloor is
// never lowered. On error p is unchanged.
func Climb(p *Progress, layout *board.Layout, roll int) (ClimbResult, error) {
	if p.DiceCount <= 0 {
		return ClimbResult{}, ErrNoDice
	}
	if roll < 1 {
		return ClimbResult{}, fmt.Errorf("%w: %d", ErrInvalidRoll, roll)
	}

	res := ClimbResult{Roll: roll, From: p.CurrentFloor}
	res.Landed = min(p.CurrentFloor+roll, TopFloor)
	res.Floor = res.Landed

	p.LastEventKind = ""
	p.LastEventFloor = 0
	if ev, ok := layout.At(res.Landed); ok {
		res.Event = &ev
		res.Floor = ev.Target
		p.LastEventKind = ev.Kind
		p.LastEventFloor = ev.Source
	} else if egg, ok := layout.EggAt(res.Landed); ok {
		res.Egg = &egg
		p.Monsters = append(p.Monsters, eggPrefix+egg.MonsterID)
		p.LastEventKind = EventEgg
		p.LastEventFloor = egg.Floor
	}

	p.CurrentFloor = res.Floor
	p.DiceCount--
	p.TotalClimbs++
	p.HighestFloor = max(p.HighestFloor, p.CurrentFloor)
	p.LastRoll = roll
	res.ReachedTop = p.ReachedTop()
	return res, nil
}

// AddDice awards n dice.
//
// Precondition: n > 0, otherwise ErrInvalidAmount.
func AddDice(p *Progress, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, n)
	}
	p.DiceCount += n
	return nil
}

// DiceCost returns the star price of n dice.
//
// Precondition: n >= 0.
func DiceCost(n int) int {
	return (n + 1) / 2 * StarsPerDicePair
}

// HatchEgg hatches the index-th unhatched egg, counting eggs only, and
// returns the hatched monster id.
func HatchEgg(p *Progress, index int) (string, error) {
	if index >= 0 {
		seen := 0
		for i, m := range p.Monsters {
			id, ok := strings.CutPrefix(m, eggPrefix)
			if !ok {
				continue
			}
			if seen == index {
				p.Monsters[i] = id
				return id, nil
			}
			seen++
		}
	}
	return "", fmt.Errorf("%w: index %d", ErrEggNotFound, index)
}

// GrantEgg appends an unhatched egg for monsterID. Duplicates are allowed.
func GrantEgg(p *Progress, monsterID string) error {
	if monsterID == "" || strings.HasPrefix(monsterID, eggPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidMonster, monsterID)
	}
	p.Monsters = append(p.Monsters, eggPrefix+monsterID)
	return nil
}

// Evolve merges EvolutionCost hatched copies of id into its evolved form and
// returns the evolved id. Unhatched eggs do not count as copies.
//
// Precondition: p and catalog must be non-nil.
// Postcondition: On success the most recently collected copies are removed
// and the evolved form is appended. On error p is unchanged.
func Evolve(p *Progress, catalog *monster.Catalog, id string) (string, error) {
	if _, err := catalog.Get(id); err != nil {
		return "", err
	}
	evolved, ok := catalog.Evolution(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrCannotEvolve, id)
	}
	if n := countHatched(p, id); n < EvolutionCost {
		return "", fmt.Errorf("%w: %q has %d, needs %d", ErrNotEnoughCopies, id, n, EvolutionCost)
	}

	removed := 0
	for i := len(p.Monsters) - 1; i >= 0 && removed < EvolutionCost; i-- {
		if p.Monsters[i] == id {
			p.Monsters = slices.Delete(p.Monsters, i, i+1)
			removed++
		}
	}
	p.Monsters = append(p.Monsters, evolved)
	return evolved, nil
}

func countHatched(p *Progress, id string) int {
	n := 0
	for _, m := range p.Monsters {
		if m == id {
			n++
		}
	}
	return n
}

// Reset starts a new climb on the board for seed once the top is reached.
//
// Precondition: bonus >= 0.
// Postcondition: CurrentFloor is StartFloor, DiceCount grows by bonus, and
// Monsters, TotalClimbs and HighestFloor are kept.
func Reset(p *Progress, seed uint32, bonus int) error {
	if !p.ReachedTop() {
		return fmt.Errorf("%w: on floor %d", ErrTowerNotComplete, p.CurrentFloor)
	}
	if bonus < 0 {
		return fmt.Errorf("%w: bonus %d", ErrInvalidAmount, bonus)
	}
	p.Seed = seed
	p.CurrentFloor = StartFloor
	p.DiceCount += bonus
	p.LastRoll = 0
	p.LastEventKind = ""
	p.LastEventFloor = 0
	return nil
}
