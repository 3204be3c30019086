// Package board generates Monster Tower layouts: ladders, traps and milestone
// eggs placed on a 100-floor linear track as a pure function of a seed.
package board

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/questmon/internal/game/monster"
)

// Track bounds and displacement limits.
const (
	BoardMin = 1
	BoardMax = 100
	MoveMin  = 7
	MoveMax  = 20
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid board config")

// ErrPlacementExhausted is returned in strict mode when a zone has no source
// with a free target left and the degenerate fallback would be taken.
var ErrPlacementExhausted = errors.New("board placement exhausted")

// Kind distinguishes events that move a player up from those that move them down.
type Kind string

// Event kinds.
const (
	KindLadder Kind = "ladder"
	KindTrap   Kind = "trap"
)

// Event relocates a player who lands on Source to Target.
//
// Invariant: Delta == |Target - Source|.
type Event struct {
	Source int  `json:"source"`
	Target int  `json:"target"`
	Kind   Kind `json:"kind"`
	Delta  int  `json:"delta"`
}

// Egg awards a monster egg to a player who lands on Floor.
type Egg struct {
	Floor     int    `json:"floor"`
	MonsterID string `json:"monster_id"`
}

// Zone is an inclusive range of floors from which exactly one event originates.
type Zone struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether pos lies within the zone.
func (z Zone) Contains(pos int) bool { return pos >= z.From && pos <= z.To }

func (z Zone) String() string { return fmt.Sprintf("[%d,%d]", z.From, z.To) }

// Milestone is a reserved floor that awards an egg drawn from Pool.
type Milestone struct {
	Floor int
	Pool  []string
}

// Config is the fixed placement configuration of a Generator.
type Config struct {
	// LadderZones are processed in order, all before any trap zone.
	LadderZones []Zone
	// TrapZones are processed in order after every ladder is placed.
	TrapZones []Zone
	// Reserved floors never host an event source or target.
	Reserved []int
	MoveMin  int
	MoveMax  int
	// Milestones are optional; when empty the layout carries no eggs.
	Milestones []Milestone
	// Strict turns the degenerate placement fallback into ErrPlacementExhausted.
	Strict bool
}

// DefaultConfig returns the documented tower configuration without milestones.
func DefaultConfig() Config {
	return Config{
		LadderZones: []Zone{
			{From: 5, To: 22},
			{From: 23, To: 40},
			{From: 41, To: 58},
			{From: 59, To: 76},
			{From: 77, To: 93},
		},
		TrapZones: []Zone{
			{From: 10, To: 27},
			{From: 28, To: 45},
			{From: 46, To: 63},
			{From: 64, To: 81},
			{From: 82, To: 98},
		},
		Reserved: []int{1, 25, 50, 75, 100},
		MoveMin:  MoveMin,
		MoveMax:  MoveMax,
	}
}

// milestoneFloors maps catalog habitats onto the reserved milestone floors.
var milestoneFloors = map[monster.Habitat]int{
	monster.HabitatForest:  25,
	monster.HabitatCrystal: 50,
	monster.HabitatMagma:   75,
	monster.HabitatSky:     100,
}

// MilestonesFromCatalog builds one milestone per habitat, bottom to top.
//
// Postcondition: Habitats with an empty pool are omitted.
func MilestonesFromCatalog(c *monster.Catalog) []Milestone {
	var out []Milestone
	for _, h := range monster.Habitats {
		pool := c.Pool(h)
		if len(pool) == 0 {
			continue
		}
		out = append(out, Milestone{Floor: milestoneFloors[h], Pool: pool})
	}
	return out
}

// PlacementError describes which zone exhausted its candidates.
type PlacementError struct {
	Seed   uint32
	Kind   Kind
	Index  int
	Zone   Zone
	Reason string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("%s: seed %d %s zone %d %s: %s",
		ErrPlacementExhausted, e.Seed, e.Kind, e.Index, e.Zone, e.Reason)
}

// Unwrap lets errors.Is match ErrPlacementExhausted.
func (e *PlacementError) Unwrap() error { return ErrPlacementExhausted }
