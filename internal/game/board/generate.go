package board

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/questmon/internal/game/dice"
)

// Generator produces layouts for a validated Config.
// A Generator is immutable and safe for concurrent use; every Generate call
// owns its own PRNG and used-position set.
type Generator struct {
	cfg    Config
	logger *zap.Logger
}

// NewGenerator validates cfg once and returns a Generator for it.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a Generator or an error wrapping ErrInvalidConfig.
func NewGenerator(cfg Config, logger *zap.Logger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// Generate builds the layout for seed using DefaultConfig.
//
// Postcondition: Generate(s) returns identical layouts for identical s.
func Generate(seed uint32) (*Layout, error) {
	g, err := NewGenerator(DefaultConfig(), zap.NewNop())
	if err != nil {
		return nil, err
	}
	return g.Generate(seed)
}

// Config returns the generator's configuration.
func (g *Generator) Config() Config { return g.cfg }

// Generate builds the layout for seed.
//
// Ladder zones are placed before trap zones, and eggs after both: traps must
// see every ladder position, and eggs draw from the tail of the stream so
// they never perturb ladder or trap placement.
//
// Postcondition: len(Ladders) == len(LadderZones), len(Traps) == len(TrapZones).
// In strict mode a fallback returns a *PlacementError instead of a layout.
func (g *Generator) Generate(seed uint32) (*Layout, error) {
	p := &placement{
		cfg:  &g.cfg,
		rng:  dice.NewMulberry32(seed),
		used: make(map[int]bool, len(g.cfg.Reserved)+2*(len(g.cfg.LadderZones)+len(g.cfg.TrapZones))),
	}
	for _, r := range g.cfg.Reserved {
		p.used[r] = true
	}

	ladders := make([]Event, 0, len(g.cfg.LadderZones))
	traps := make([]Event, 0, len(g.cfg.TrapZones))
	fallbacks := 0

	phases := []struct {
		kind  Kind
		zones []Zone
		out   *[]Event
	}{
		{KindLadder, g.cfg.LadderZones, &ladders},
		{KindTrap, g.cfg.TrapZones, &traps},
	}
	for _, ph := range phases {
		for i, z := range ph.zones {
			ev, reason := p.place(ph.kind, z)
			if reason != "" {
				perr := &PlacementError{Seed: seed, Kind: ph.kind, Index: i, Zone: z, Reason: reason}
				if g.cfg.Strict {
					return nil, perr
				}
				fallbacks++
				g.logger.Warn("board placement fell back",
					zap.Uint32("seed", seed),
					zap.String("kind", string(ph.kind)),
					zap.Int("zone", i),
					zap.Int("source", ev.Source),
					zap.Int("target", ev.Target),
					zap.String("reason", reason),
				)
			}
			*ph.out = append(*ph.out, ev)
		}
	}

	eggs := make([]Egg, 0, len(g.cfg.Milestones))
	for _, m := range g.cfg.Milestones {
		eggs = append(eggs, Egg{Floor: m.Floor, MonsterID: m.Pool[p.rng.Intn(len(m.Pool))]})
	}

	return NewLayout(seed, ladders, traps, eggs, fallbacks), nil
}

// placement is the per-call accumulator threaded through zone processing.
type placement struct {
	cfg  *Config
	rng  *dice.Mulberry32
	used map[int]bool
}

// place claims a source in z and a target for it.
// A non-empty reason reports that the degenerate fallback was taken.
func (p *placement) place(kind Kind, z Zone) (Event, string) {
	pool := make([]int, 0, z.To-z.From+1)
	for pos := z.From; pos <= z.To; pos++ {
		if !p.used[pos] {
			pool = append(pool, pos)
		}
	}
	// Fisher-Yates, j = floor(rng * (i+1)).
	for i := len(pool) - 1; i > 0; i-- {
		j := p.rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	var reason string
	source := -1
	for _, s := range pool {
		if len(p.targets(kind, s)) > 0 {
			source = s
			break
		}
	}
	if source < 0 {
		if len(pool) > 0 {
			source = pool[0]
			reason = "no source with a free target"
		} else {
			source = z.From
			reason = "no free source"
		}
	}
	p.used[source] = true

	target := 0
	if cands := p.targets(kind, source); len(cands) > 0 {
		target = cands[p.rng.Intn(len(cands))]
	} else {
		target, _ = window(kind, source, p.cfg)
		if reason == "" {
			reason = "no free target"
		}
	}
	p.used[target] = true

	return Event{Source: source, Target: target, Kind: kind, Delta: abs(target - source)}, reason
}

// targets lists the free positions in source's target window, ascending.
func (p *placement) targets(kind Kind, source int) []int {
	lo, hi := window(kind, source, p.cfg)
	var out []int
	for t := lo; t <= hi; t++ {
		if p.used[t] || t == source {
			continue
		}
		if d := abs(t - source); d < p.cfg.MoveMin || d > p.cfg.MoveMax {
			continue
		}
		out = append(out, t)
	}
	return out
}

// window returns the inclusive target window for a source. Ladders never
// target the goal floor and traps never target the start floor.
func window(kind Kind, source int, cfg *Config) (lo, hi int) {
	if kind == KindLadder {
		return source + cfg.MoveMin, min(source+cfg.MoveMax, BoardMax-1)
	}
	return max(source-cfg.MoveMax, BoardMin+1), max(source-cfg.MoveMin, BoardMin+1)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
