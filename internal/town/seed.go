package town

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed describes one town to pre-create at startup.
type Seed struct {
	// FriendlyName is the display name of the seeded town.
	FriendlyName string
	// Public controls whether the town appears in the public listing.
	Public bool
}

// yamlSeedFile is the top-level YAML structure for seed files.
type yamlSeedFile struct {
	Towns []yamlSeedTown `yaml:"towns"`
}

// yamlSeedTown is the YAML representation of one seed town.
type yamlSeedTown struct {
	FriendlyName string `yaml:"friendly_name"`
	Public       bool   `yaml:"public"`
}

// LoadSeedsFromFile reads and validates a seed-town YAML file.
//
// Precondition: path must point to a valid YAML seed file.
// Postcondition: Returns the listed seeds or a non-nil error.
func LoadSeedsFromFile(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	return LoadSeedsFromBytes(data)
}

// LoadSeedsFromBytes parses and validates seeds from YAML bytes.
//
// Postcondition: Returns the listed seeds or a non-nil error; every seed has
// a non-empty friendly name.
func LoadSeedsFromBytes(data []byte) ([]Seed, error) {
	var file yamlSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing seed YAML: %w", err)
	}

	seeds := make([]Seed, 0, len(file.Towns))
	for i, t := range file.Towns {
		if t.FriendlyName == "" {
			return nil, fmt.Errorf("seed town %d: friendly_name must not be empty", i)
		}
		seeds = append(seeds, Seed{FriendlyName: t.FriendlyName, Public: t.Public})
	}
	return seeds, nil
}

// SeedTowns creates one town per seed.
//
// Postcondition: Returns a summary per created town, in seed order. On error
// towns created before the failure remain registered.
func (r *Registry) SeedTowns(seeds []Seed) ([]Summary, error) {
	out := make([]Summary, 0, len(seeds))
	for _, seed := range seeds {
		t, _, err := r.CreateTown(seed.FriendlyName, seed.Public)
		if err != nil {
			return out, fmt.Errorf("seeding town %q: %w", seed.FriendlyName, err)
		}
		out = append(out, Summary{
			ID:           t.ID,
			FriendlyName: t.FriendlyName(),
			Capacity:     t.Capacity(),
		})
	}
	return out, nil
}
