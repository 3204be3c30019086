package monster

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed monsters.yaml
var defaultCatalogYAML []byte

// yamlCatalogFile is the top-level YAML structure for catalog files.
type yamlCatalogFile struct {
	Monsters []yamlMonster `yaml:"monsters"`
}

type yamlMonster struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Emoji     string `yaml:"emoji"`
	Habitat   string `yaml:"habitat"`
	EvolvesTo string `yaml:"evolves_to"`
	Evolved   bool   `yaml:"evolved"`
}

// LoadCatalog reads and validates a catalog YAML file.
//
// Precondition: path must point to a YAML catalog file.
// Postcondition: Returns a validated Catalog or a non-nil error.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading monster catalog %s: %w", path, err)
	}
	return LoadCatalogFromBytes(data)
}

// LoadCatalogFromBytes parses and validates a catalog from YAML bytes.
func LoadCatalogFromBytes(data []byte) (*Catalog, error) {
	var file yamlCatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing monster catalog YAML: %w", err)
	}
	monsters := make([]Monster, 0, len(file.Monsters))
	for _, ym := range file.Monsters {
		monsters = append(monsters, Monster{
			ID:        ym.ID,
			Name:      ym.Name,
			Emoji:     ym.Emoji,
			Habitat:   Habitat(ym.Habitat),
			EvolvesTo: ym.EvolvesTo,
			Evolved:   ym.Evolved,
		})
	}
	c, err := NewCatalog(monsters)
	if err != nil {
		return nil, fmt.Errorf("validating monster catalog: %w", err)
	}
	return c, nil
}

// DefaultCatalog returns the catalog shipped with the binary.
//
// Postcondition: Never returns nil; panics if the embedded file is invalid.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalogFromBytes(defaultCatalogYAML)
	if err != nil {
		panic("monster: embedded catalog invalid: " + err.Error())
	}
	return c
}
