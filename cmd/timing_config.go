package cmd

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	sim "github.com/gpubridge/gpubridge/sim"
)

// LoadTimingConfig reads timing parameters from a YAML file, starting from
// the package defaults so the file only needs to name what it overrides.
func LoadTimingConfig(path string) (sim.TimingConfig, error) {
	cfg := sim.DefaultTimingConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading timing config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing timing config")
	}
	return cfg, nil
}
