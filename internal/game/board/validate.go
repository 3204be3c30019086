package board

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate checks the static placement constraints of c.
//
// Every zone must lie on the board and hold at least one non-reserved floor
// whose target window contains a non-reserved floor. Prior placements are
// not accounted for; strict mode catches exhaustion at generation time.
//
// Postcondition: Returns nil or an error wrapping ErrInvalidConfig that lists
// every violation.
func (c Config) Validate() error {
	var errs []string

	if c.MoveMin < 1 {
		errs = append(errs, fmt.Sprintf("move_min must be >= 1, got %d", c.MoveMin))
	}
	if c.MoveMax < c.MoveMin {
		errs = append(errs, fmt.Sprintf("move_max %d must be >= move_min %d", c.MoveMax, c.MoveMin))
	}

	reserved := make(map[int]bool, len(c.Reserved))
	for _, r := range c.Reserved {
		if r < BoardMin || r > BoardMax {
			errs = append(errs, fmt.Sprintf("reserved floor %d outside [%d,%d]", r, BoardMin, BoardMax))
		}
		reserved[r] = true
	}

	if len(errs) == 0 {
		errs = append(errs, c.validateZones("ladder", KindLadder, c.LadderZones, reserved)...)
		errs = append(errs, c.validateZones("trap", KindTrap, c.TrapZones, reserved)...)
	}

	seen := make(map[int]bool, len(c.Milestones))
	for i, m := range c.Milestones {
		if !reserved[m.Floor] {
			errs = append(errs, fmt.Sprintf("milestone[%d] floor %d must be reserved", i, m.Floor))
		}
		if seen[m.Floor] {
			errs = append(errs, fmt.Sprintf("milestone[%d] floor %d duplicated", i, m.Floor))
		}
		seen[m.Floor] = true
		if len(m.Pool) == 0 {
			errs = append(errs, fmt.Sprintf("milestone[%d] pool must not be empty", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

func (c Config) validateZones(name string, kind Kind, zones []Zone, reserved map[int]bool) []string {
	var errs []string
	trial := &placement{cfg: &c, used: reserved}
	for i, z := range zones {
		if z.From > z.To {
			errs = append(errs, fmt.Sprintf("%s zone %d %s: from must be <= to", name, i, z))
			continue
		}
		if z.From < BoardMin || z.To > BoardMax {
			errs = append(errs, fmt.Sprintf("%s zone %d %s outside [%d,%d]", name, i, z, BoardMin, BoardMax))
			continue
		}
		feasible := false
		for s := z.From; s <= z.To && !feasible; s++ {
			feasible = !reserved[s] && len(trial.targets(kind, s)) > 0
		}
		if !feasible {
			errs = append(errs, fmt.Sprintf("%s zone %d %s has no floor with a reachable target", name, i, z))
		}
	}
	return errs
}

// Verify checks l against the placement invariants of cfg and returns every
// violation joined, or nil.
func Verify(l *Layout, cfg Config) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(l.Ladders) != len(cfg.LadderZones) {
		fail("ladder count %d, want %d", len(l.Ladders), len(cfg.LadderZones))
	}
	if len(l.Traps) != len(cfg.TrapZones) {
		fail("trap count %d, want %d", len(l.Traps), len(cfg.TrapZones))
	}

	check := func(kind Kind, events []Event, zones []Zone) {
		for i, e := range events {
			if e.Kind != kind {
				fail("%s %d has kind %q", kind, i, e.Kind)
			}
			if i < len(zones) && !zones[i].Contains(e.Source) {
				fail("%s %d source %d outside zone %s", kind, i, e.Source, zones[i])
			}
			if e.Delta != abs(e.Target-e.Source) {
				fail("%s %d delta %d does not match %d->%d", kind, i, e.Delta, e.Source, e.Target)
			}
			if e.Delta < cfg.MoveMin || e.Delta > cfg.MoveMax {
				fail("%s %d delta %d outside [%d,%d]", kind, i, e.Delta, cfg.MoveMin, cfg.MoveMax)
			}
			switch kind {
			case KindLadder:
				if e.Target <= e.Source {
					fail("ladder %d target %d not above source %d", i, e.Target, e.Source)
				}
				if e.Target > BoardMax-1 {
					fail("ladder %d target %d above %d", i, e.Target, BoardMax-1)
				}
			case KindTrap:
				if e.Target >= e.Source {
					fail("trap %d target %d not below source %d", i, e.Target, e.Source)
				}
				if e.Target < BoardMin+1 {
					fail("trap %d target %d below %d", i, e.Target, BoardMin+1)
				}
			}
		}
	}
	check(KindLadder, l.Ladders, cfg.LadderZones)
	check(KindTrap, l.Traps, cfg.TrapZones)

	claimed := make(map[int]string, len(cfg.Reserved)+2*len(l.Ladders)+2*len(l.Traps))
	claim := func(pos int, owner string) {
		if prev, dup := claimed[pos]; dup {
			fail("floor %d claimed by %s and %s", pos, prev, owner)
			return
		}
		claimed[pos] = owner
	}
	for _, r := range cfg.Reserved {
		claim(r, "reserved")
	}
	for _, e := range append(slices.Clone(l.Ladders), l.Traps...) {
		claim(e.Source, fmt.Sprintf("%s source", e.Kind))
		claim(e.Target, fmt.Sprintf("%s target", e.Kind))
	}

	for _, egg := range l.Eggs {
		idx := slices.IndexFunc(cfg.Milestones, func(m Milestone) bool { return m.Floor == egg.Floor })
		if idx < 0 {
			fail("egg on floor %d is not a milestone", egg.Floor)
			continue
		}
		if !slices.Contains(cfg.Milestones[idx].Pool, egg.MonsterID) {
			fail("egg on floor %d holds %q outside its pool", egg.Floor, egg.MonsterID)
		}
	}

	return errors.Join(errs...)
}
