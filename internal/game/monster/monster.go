// Package monster defines the catalog of monsters that hatch from tower eggs.
package monster

import (
	"errors"
	"fmt"
)

// Habitat groups monsters into the pool drawn for one milestone floor.
type Habitat string

// Known habitats, ordered from the bottom of the tower to the top.
const (
	HabitatForest  Habitat = "forest"
	HabitatCrystal Habitat = "crystal"
	HabitatMagma   Habitat = "magma"
	HabitatSky     Habitat = "sky"
)

// Habitats lists every known habitat in tower order.
var Habitats = []Habitat{HabitatForest, HabitatCrystal, HabitatMagma, HabitatSky}

// Valid reports whether h is a known habitat.
func (h Habitat) Valid() bool {
	switch h {
	case HabitatForest, HabitatCrystal, HabitatMagma, HabitatSky:
		return true
	}
	return false
}

// ErrMonsterNotFound is returned when a catalog lookup misses.
var ErrMonsterNotFound = errors.New("monster not found")

// Monster is a single collectible creature.
type Monster struct {
	ID      string
	Name    string
	Emoji   string
	Habitat Habitat
	// EvolvesTo names the evolved form this monster merges into, if any.
	EvolvesTo string
	// Evolved marks forms obtained only by evolution. They never hatch from
	// milestone eggs.
	Evolved bool
}

// Catalog is an immutable, ordered set of monsters. Safe for concurrent reads.
type Catalog struct {
	ordered []Monster
	byID    map[string]Monster
}

// NewCatalog builds a Catalog from monsters.
//
// Precondition: IDs must be unique and non-empty; habitats must be valid.
// Postcondition: Returns a Catalog preserving input order or a validation error.
func NewCatalog(monsters []Monster) (*Catalog, error) {
	c := &Catalog{
		ordered: make([]Monster, 0, len(monsters)),
		byID:    make(map[string]Monster, len(monsters)),
	}
	for i, m := range monsters {
		if m.ID == "" {
			return nil, fmt.Errorf("monster[%d]: id must not be empty", i)
		}
		if !m.Habitat.Valid() {
			return nil, fmt.Errorf("monster %q: unknown habitat %q", m.ID, m.Habitat)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("monster %q: duplicate id", m.ID)
		}
		c.ordered = append(c.ordered, m)
		c.byID[m.ID] = m
	}
	for _, m := range c.ordered {
		if m.EvolvesTo == "" {
			continue
		}
		if m.Evolved {
			return nil, fmt.Errorf("monster %q: evolved forms cannot evolve again", m.ID)
		}
		target, ok := c.byID[m.EvolvesTo]
		if !ok {
			return nil, fmt.Errorf("monster %q: evolves_to %q is not in the catalog", m.ID, m.EvolvesTo)
		}
		if !target.Evolved {
			return nil, fmt.Errorf("monster %q: evolves_to %q is not an evolved form", m.ID, m.EvolvesTo)
		}
	}
	return c, nil
}

// Get returns the monster with the given id.
func (c *Catalog) Get(id string) (Monster, error) {
	m, ok := c.byID[id]
	if !ok {
		return Monster{}, fmt.Errorf("%w: %q", ErrMonsterNotFound, id)
	}
	return m, nil
}

// Len returns the number of monsters in the catalog.
func (c *Catalog) Len() int { return len(c.ordered) }

// Evolution returns the evolved form of id.
//
// Postcondition: ok is false when id is unknown or has no evolved form.
func (c *Catalog) Evolution(id string) (string, bool) {
	m, ok := c.byID[id]
	if !ok || m.EvolvesTo == "" {
		return "", false
	}
	return m.EvolvesTo, true
}

// Pool returns the ids of every egg-bearing monster living in h, in catalog
// order. Evolved forms are excluded.
func (c *Catalog) Pool(h Habitat) []string {
	var ids []string
	for _, m := range c.ordered {
		if m.Habitat == h && !m.Evolved {
			ids = append(ids, m.ID)
		}
	}
	return ids
}
