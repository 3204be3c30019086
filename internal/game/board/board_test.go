package board

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/questmon/internal/game/monster"
)

func newTestGenerator(t *testing.T, cfg Config) *Generator {
	t.Helper()
	g, err := NewGenerator(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return g
}

func TestGenerate_Seed42Golden(t *testing.T) {
	l, err := Generate(42)
	require.NoError(t, err)

	assert.Equal(t, []Event{
		{Source: 16, Target: 31, Kind: KindLadder, Delta: 15},
		{Source: 38, Target: 56, Kind: KindLadder, Delta: 18},
		{Source: 48, Target: 59, Kind: KindLadder, Delta: 11},
		{Source: 64, Target: 83, Kind: KindLadder, Delta: 19},
		{Source: 79, Target: 94, Kind: KindLadder, Delta: 15},
	}, l.Ladders)
	assert.Equal(t, []Event{
		{Source: 17, Target: 10, Kind: KindTrap, Delta: 7},
		{Source: 37, Target: 29, Kind: KindTrap, Delta: 8},
		{Source: 49, Target: 35, Kind: KindTrap, Delta: 14},
		{Source: 71, Target: 58, Kind: KindTrap, Delta: 13},
		{Source: 98, Target: 82, Kind: KindTrap, Delta: 16},
	}, l.Traps)
	assert.Zero(t, l.Fallbacks)
	assert.Empty(t, l.Eggs)
}

func TestGenerate_Seed42Scenario(t *testing.T) {
	a, err := Generate(42)
	require.NoError(t, err)
	b, err := Generate(42)
	require.NoError(t, err)

	assert.Equal(t, a.Ladders, b.Ladders)
	assert.Equal(t, a.Traps, b.Traps)
	require.Len(t, a.Ladders, 5)
	require.Len(t, a.Traps, 5)
	for _, l := range a.Ladders {
		assert.True(t, l.Source >= 5 && l.Source <= 93, "ladder source %d", l.Source)
		assert.Greater(t, l.Target, l.Source)
		assert.True(t, l.Delta >= 7 && l.Delta <= 20, "ladder delta %d", l.Delta)
	}
	for _, tr := range a.Traps {
		assert.True(t, tr.Source >= 10 && tr.Source <= 98, "trap source %d", tr.Source)
		assert.Less(t, tr.Target, tr.Source)
		assert.True(t, tr.Delta >= 7 && tr.Delta <= 20, "trap delta %d", tr.Delta)
	}
}

// TestGenerate_InvariantsHold_Property checks determinism, counts, zone
// membership, direction, delta bounds, collisions and boundary rules for
// arbitrary seeds.
func TestGenerate_InvariantsHold_Property(t *testing.T) {
	g := newTestGenerator(t, DefaultConfig())
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint32().Draw(rt, "seed")
		l, err := g.Generate(seed)
		if err != nil {
			rt.Fatalf("Generate(%d): %v", seed, err)
		}
		if err := Verify(l, g.Config()); err != nil {
			rt.Fatalf("seed %d: %v", seed, err)
		}
		again, err := g.Generate(seed)
		if err != nil {
			rt.Fatalf("Generate(%d) again: %v", seed, err)
		}
		assert.Equal(rt, l.Ladders, again.Ladders)
		assert.Equal(rt, l.Traps, again.Traps)
	})
}

func TestGenerate_NoCollisions(t *testing.T) {
	l, err := Generate(2026)
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, r := range DefaultConfig().Reserved {
		seen[r] = true
	}
	for _, e := range l.Events() {
		for _, pos := range []int{e.Source, e.Target} {
			assert.False(t, seen[pos], "floor %d used twice", pos)
			seen[pos] = true
		}
	}
	assert.Len(t, seen, 5+20)
}

func TestGenerate_CrossSeedVariation(t *testing.T) {
	layouts := map[string]bool{}
	for seed := uint32(0); seed < 20; seed++ {
		l, err := Generate(seed)
		require.NoError(t, err)
		layouts[fmt.Sprint(l.Ladders, l.Traps)] = true
	}
	assert.Greater(t, len(layouts), 1, "layouts must vary with the seed")
}

// TestGenerate_FallbackNeverTriggersForDefaultConfig guards against zone or
// constant drift that would make the degenerate fallback reachable.
func TestGenerate_FallbackNeverTriggersForDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	g := newTestGenerator(t, cfg)
	for seed := uint32(0); seed < 5000; seed++ {
		l, err := g.Generate(seed * 2654435761)
		require.NoError(t, err, "seed %d", seed)
		require.Zero(t, l.Fallbacks)
	}
}

// tightConfig leaves the second ladder zone a single source whose only
// target can be taken by the first ladder.
func tightConfig() Config {
	return Config{
		LadderZones: []Zone{{From: 91, To: 91}, {From: 92, To: 92}},
		Reserved:    []int{1, 100},
		MoveMin:     MoveMin,
		MoveMax:     MoveMax,
	}
}

func TestGenerate_FallbackIsObservable(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g, err := NewGenerator(tightConfig(), zap.New(core))
	require.NoError(t, err)

	// Seed 42 sends the first ladder to 99, exhausting the second zone.
	l, err := g.Generate(42)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Fallbacks)
	assert.Equal(t, Event{Source: 91, Target: 99, Kind: KindLadder, Delta: 8}, l.Ladders[0])
	assert.Equal(t, Event{Source: 92, Target: 99, Kind: KindLadder, Delta: 7}, l.Ladders[1])
	assert.Equal(t, 1, logs.FilterMessage("board placement fell back").Len())
	assert.Error(t, Verify(l, g.Config()), "fallback layout collides on floor 99")
}

func TestGenerate_StrictModeRejectsFallback(t *testing.T) {
	cfg := tightConfig()
	cfg.Strict = true
	g := newTestGenerator(t, cfg)

	_, err := g.Generate(42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlacementExhausted))

	var perr *PlacementError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindLadder, perr.Kind)
	assert.Equal(t, 1, perr.Index)
	assert.Equal(t, Zone{From: 92, To: 92}, perr.Zone)
	assert.Equal(t, uint32(42), perr.Seed)
}

func TestGenerate_EggsDoNotPerturbEvents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Milestones = MilestonesFromCatalog(monster.DefaultCatalog())
	g := newTestGenerator(t, cfg)

	for _, seed := range []uint32{0, 42, 123, 999, 2026} {
		withEggs, err := g.Generate(seed)
		require.NoError(t, err)
		plain, err := Generate(seed)
		require.NoError(t, err)

		assert.Equal(t, plain.Ladders, withEggs.Ladders)
		assert.Equal(t, plain.Traps, withEggs.Traps)
		require.Len(t, withEggs.Eggs, 4)
		assert.NoError(t, Verify(withEggs, cfg))

		for i, floor := range []int{25, 50, 75, 100} {
			egg, ok := withEggs.EggAt(floor)
			require.True(t, ok, "egg on floor %d", floor)
			assert.Contains(t, cfg.Milestones[i].Pool, egg.MonsterID)
		}
	}
}

func TestLayout_At(t *testing.T) {
	l, err := Generate(42)
	require.NoError(t, err)

	e, ok := l.At(16)
	require.True(t, ok)
	assert.Equal(t, 31, e.Target)
	assert.Equal(t, KindLadder, e.Kind)

	e, ok = l.At(98)
	require.True(t, ok)
	assert.Equal(t, KindTrap, e.Kind)

	_, ok = l.At(2)
	assert.False(t, ok)
	_, ok = l.EggAt(25)
	assert.False(t, ok)
}

func TestLayout_EventsSortedBySource(t *testing.T) {
	l, err := Generate(7)
	require.NoError(t, err)
	events := l.Events()
	require.Len(t, events, 10)
	for i := 1; i < len(events); i++ {
		assert.Less(t, events[i-1].Source, events[i].Source)
	}
}

func TestGenerator_ConcurrentUse(t *testing.T) {
	g := newTestGenerator(t, DefaultConfig())
	want := make([]*Layout, 32)
	for i := range want {
		l, err := g.Generate(uint32(i))
		require.NoError(t, err)
		want[i] = l
	}

	var wg sync.WaitGroup
	got := make([]*Layout, len(want))
	for i := range want {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := g.Generate(uint32(i))
			if err == nil {
				got[i] = l
			}
		}(i)
	}
	wg.Wait()

	for i := range want {
		require.NotNil(t, got[i])
		assert.Equal(t, want[i].Ladders, got[i].Ladders)
		assert.Equal(t, want[i].Traps, got[i].Traps)
	}
}

func TestConfig_ValidateDefault(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfig_ValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"move_min zero":      func(c *Config) { c.MoveMin = 0 },
		"move_max below min": func(c *Config) { c.MoveMax = c.MoveMin - 1 },
		"zone inverted":      func(c *Config) { c.LadderZones[0] = Zone{From: 22, To: 5} },
		"zone off board":     func(c *Config) { c.TrapZones[4] = Zone{From: 82, To: 101} },
		"reserved off board": func(c *Config) { c.Reserved = append(c.Reserved, 0) },
		"zone all reserved": func(c *Config) {
			c.LadderZones[0] = Zone{From: 25, To: 25}
		},
		"trap zone unreachable": func(c *Config) { c.TrapZones[0] = Zone{From: 2, To: 8} },
		"ladder zone at top":    func(c *Config) { c.LadderZones[4] = Zone{From: 93, To: 99} },
		"milestone not reserved": func(c *Config) {
			c.Milestones = []Milestone{{Floor: 30, Pool: []string{"slime"}}}
		},
		"milestone empty pool": func(c *Config) {
			c.Milestones = []Milestone{{Floor: 25}}
		},
		"milestone duplicated": func(c *Config) {
			c.Milestones = []Milestone{{Floor: 25, Pool: []string{"a"}}, {Floor: 25, Pool: []string{"b"}}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			_, err = NewGenerator(cfg, zaptest.NewLogger(t))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestVerify_DetectsViolations(t *testing.T) {
	cfg := DefaultConfig()
	good, err := Generate(42)
	require.NoError(t, err)
	require.NoError(t, Verify(good, cfg))

	cases := map[string]func(l *Layout){
		"missing ladder": func(l *Layout) { l.Ladders = l.Ladders[:4] },
		"ladder points down": func(l *Layout) {
			l.Ladders[0] = Event{Source: 16, Target: 9, Kind: KindLadder, Delta: 7}
		},
		"delta too large": func(l *Layout) {
			l.Traps[4] = Event{Source: 98, Target: 70, Kind: KindTrap, Delta: 28}
		},
		"delta mismatch": func(l *Layout) { l.Ladders[1].Delta = 9 },
		"source outside zone": func(l *Layout) {
			l.Ladders[0] = Event{Source: 30, Target: 40, Kind: KindLadder, Delta: 10}
		},
		"target collides with reserved": func(l *Layout) {
			l.Ladders[0] = Event{Source: 16, Target: 25, Kind: KindLadder, Delta: 9}
		},
		"egg off milestone": func(l *Layout) { l.Eggs = []Egg{{Floor: 30, MonsterID: "slime"}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			l := NewLayout(good.Seed,
				append([]Event(nil), good.Ladders...),
				append([]Event(nil), good.Traps...),
				nil, 0)
			mutate(l)
			assert.Error(t, Verify(l, cfg))
		})
	}
}

func TestMilestonesFromCatalog(t *testing.T) {
	ms := MilestonesFromCatalog(monster.DefaultCatalog())
	require.Len(t, ms, 4)
	assert.Equal(t, 25, ms[0].Floor)
	assert.Equal(t, 100, ms[3].Floor)
	assert.Contains(t, ms[2].Pool, "flame_bird")

	partial, err := monster.NewCatalog([]monster.Monster{{ID: "x", Habitat: monster.HabitatSky}})
	require.NoError(t, err)
	ms = MilestonesFromCatalog(partial)
	require.Len(t, ms, 1)
	assert.Equal(t, Milestone{Floor: 100, Pool: []string{"x"}}, ms[0])
}
