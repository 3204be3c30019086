package monster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 26, c.Len())
	for _, h := range Habitats {
		assert.NotEmpty(t, c.Pool(h), "habitat %q must have monsters", h)
	}
	assert.Equal(t, []string{"slime", "wind_slime", "mossy_golem", "mushroom_kin", "nian_beast"}, c.Pool(HabitatForest))

	m, err := c.Get("flame_bird")
	require.NoError(t, err)
	assert.Equal(t, HabitatMagma, m.Habitat)
}

func TestDefaultCatalog_Evolutions(t *testing.T) {
	c := DefaultCatalog()
	for base, evolved := range map[string]string{
		"slime":         "evolved_slime",
		"water_spirit":  "evolved_water_spirit",
		"flame_bird":    "evolved_flame_bird",
		"thunder_cloud": "evolved_thunder_cloud",
	} {
		got, ok := c.Evolution(base)
		require.True(t, ok, base)
		assert.Equal(t, evolved, got)

		m, err := c.Get(evolved)
		require.NoError(t, err)
		assert.True(t, m.Evolved)
		for _, h := range Habitats {
			assert.NotContains(t, c.Pool(h), evolved, "evolved forms never hatch from eggs")
		}
	}

	_, ok := c.Evolution("moon_bunny")
	assert.False(t, ok)
	_, ok = c.Evolution("evolved_slime")
	assert.False(t, ok)
	_, ok = c.Evolution("nope")
	assert.False(t, ok)
}

func TestNewCatalog_RejectsBadEvolution(t *testing.T) {
	evolved := Monster{ID: "big", Habitat: HabitatSky, Evolved: true}

	_, err := NewCatalog([]Monster{{ID: "a", Habitat: HabitatSky, EvolvesTo: "missing"}})
	assert.Error(t, err)

	_, err = NewCatalog([]Monster{{ID: "a", Habitat: HabitatSky, EvolvesTo: "b"}, {ID: "b", Habitat: HabitatSky}})
	assert.Error(t, err, "target must be an evolved form")

	_, err = NewCatalog([]Monster{evolved, {ID: "bigger", Habitat: HabitatSky, Evolved: true, EvolvesTo: "big"}})
	assert.Error(t, err, "evolved forms cannot chain")

	c, err := NewCatalog([]Monster{{ID: "a", Habitat: HabitatSky, EvolvesTo: "big"}, evolved})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, c.Pool(HabitatSky))
}

func TestCatalog_GetMissing(t *testing.T) {
	_, err := DefaultCatalog().Get("nope")
	assert.ErrorIs(t, err, ErrMonsterNotFound)
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog([]Monster{{ID: "", Habitat: HabitatSky}})
	assert.Error(t, err)

	_, err = NewCatalog([]Monster{{ID: "a", Habitat: "volcano"}})
	assert.Error(t, err)

	_, err = NewCatalog([]Monster{{ID: "a", Habitat: HabitatSky}, {ID: "a", Habitat: HabitatSky}})
	assert.Error(t, err)
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monsters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
monsters:
  - id: a
    name: A
    habitat: forest
  - id: b
    name: B
    habitat: sky
    evolves_to: big_b
  - id: big_b
    name: Big B
    habitat: sky
    evolved: true
`), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	evolved, ok := c.Evolution("b")
	require.True(t, ok)
	assert.Equal(t, "big_b", evolved)
	assert.Equal(t, []string{"b"}, c.Pool(HabitatSky))
	assert.Empty(t, c.Pool(HabitatMagma))
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog("/nonexistent/monsters.yaml")
	assert.Error(t, err)
}

func TestLoadCatalogFromBytes_BadYAML(t *testing.T) {
	_, err := LoadCatalogFromBytes([]byte("monsters: [::"))
	assert.Error(t, err)
}

// Property: Pool partitions the catalog; every monster appears in exactly one pool.
func TestPropertyPoolsPartitionCatalog(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		monsters := make([]Monster, n)
		for i := range monsters {
			monsters[i] = Monster{
				ID:      rapid.StringMatching(`[a-z]{6}`).Draw(t, "id") + string(rune('a'+i%26)) + string(rune('a'+i/26)),
				Habitat: rapid.SampledFrom(Habitats).Draw(t, "habitat"),
			}
		}
		c, err := NewCatalog(monsters)
		if err != nil {
			t.Fatalf("NewCatalog: %v", err)
		}
		total := 0
		for _, h := range Habitats {
			total += len(c.Pool(h))
		}
		if total != c.Len() {
			t.Fatalf("pools cover %d monsters, catalog has %d", total, c.Len())
		}
	})
}
