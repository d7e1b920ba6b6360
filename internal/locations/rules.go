package locations

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules overrides the noise filter, health policy and preview size.
// Fields left out of the file keep their defaults.
type Rules struct {
	Noise        NoiseFilter  `yaml:"noise"`
	Health       HealthPolicy `yaml:"health"`
	PreviewLimit int          `yaml:"preview_limit"`
}

// DefaultRules returns the built-in rules.
func DefaultRules() Rules {
	return Rules{
		Noise:        DefaultNoiseFilter(),
		Health:       DefaultHealthPolicy(),
		PreviewLimit: 5,
	}
}

// LoadRules reads rules from a YAML file with a top-level "locations" key.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return Rules{}, eris.Wrapf(err, "locations: read rules %s", path)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules on top of the defaults.
func ParseRules(data []byte) (Rules, error) {
	wrapper := struct {
		Locations Rules `yaml:"locations"`
	}{Locations: DefaultRules()}

	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Rules{}, eris.Wrap(err, "locations: parse rules")
	}
	return wrapper.Locations, nil
}

// Grouper returns a Grouper applying the rules' noise filter.
func (r Rules) Grouper() Grouper {
	return Grouper{Noise: r.Noise}
}

// Aggregator returns an Aggregator applying the rules' policy and preview.
func (r Rules) Aggregator() Aggregator {
	return Aggregator{Policy: r.Health, PreviewLimit: r.PreviewLimit}
}
