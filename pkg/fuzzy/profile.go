package fuzzy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a named quantization parameter set loaded from a YAML file.
// Deployments pin a profile by name; the file lets operators keep testnet
// and production thresholds side by side.
type Profile struct {
	Name              string  `yaml:"name"`
	GridSize          float64 `yaml:"grid_size"`
	AngleBins         int     `yaml:"angle_bins"`
	MinMinutiaOverlap int     `yaml:"min_minutia_overlap"`
	MinFingerMatches  int     `yaml:"min_finger_matches"`
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfile reads the profile file at path and returns the parameters of
// the profile with the given name.
func LoadProfile(path, name string) (Params, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read profile file: %w", err)
	}
	return parseProfile(raw, name)
}

func parseProfile(raw []byte, name string) (Params, error) {
	var file profileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Params{}, fmt.Errorf("parse profile file: %w", err)
	}

	for _, p := range file.Profiles {
		if p.Name != name {
			continue
		}
		params := Params{
			GridSize:          p.GridSize,
			AngleBins:         p.AngleBins,
			MinMinutiaOverlap: p.MinMinutiaOverlap,
			MinFingerMatches:  p.MinFingerMatches,
		}
		if err := params.Validate(); err != nil {
			return Params{}, fmt.Errorf("profile %q: %w", name, err)
		}
		return params, nil
	}
	return Params{}, fmt.Errorf("profile %q not found", name)
}
