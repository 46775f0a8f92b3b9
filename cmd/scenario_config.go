package cmd

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// KernelSpec describes one kernel launch in a scenario: the kernel's id and
// how many device cycles it runs for.
type KernelSpec struct {
	ID     uint64 `yaml:"id"`
	Cycles int64  `yaml:"cycles"`
}

// CopySpec describes one functional bulk transfer: a source buffer of the
// given size copied to a freshly allocated destination.
type CopySpec struct {
	Bytes uint64 `yaml:"bytes"`
}

// ScenarioConfig is a workload scenario for the bridge: a set of kernel
// launches and bulk copies queued on the stream at simulation start.
type ScenarioConfig struct {
	Kernels []KernelSpec `yaml:"kernels"`
	Copies  []CopySpec   `yaml:"copies"`
}

// DefaultScenario is the built-in demo workload used when no scenario file
// is given.
func DefaultScenario() *ScenarioConfig {
	return &ScenarioConfig{
		Kernels: []KernelSpec{
			{ID: 1, Cycles: 100},
			{ID: 2, Cycles: 250},
		},
		Copies: []CopySpec{
			{Bytes: 4096},
		},
	}
}

// LoadScenarioConfig reads and parses a YAML scenario file.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scenario config")
	}
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing scenario config")
	}
	return &cfg, nil
}

// Validate checks kernel ids and sizes before the scenario is enqueued.
// A scenario needs at least one kernel: only the completion drain can
// reactivate the suspended host context.
func (c *ScenarioConfig) Validate() error {
	if len(c.Kernels) == 0 {
		return errors.New("scenario must launch at least one kernel")
	}
	seen := make(map[uint64]bool)
	for _, k := range c.Kernels {
		if k.ID == 0 {
			return errors.New("kernel id 0 is reserved")
		}
		if seen[k.ID] {
			return errors.Errorf("duplicate kernel id %d", k.ID)
		}
		seen[k.ID] = true
		if k.Cycles <= 0 {
			return errors.Errorf("kernel %d: cycles must be > 0, got %d", k.ID, k.Cycles)
		}
	}
	for i, cp := range c.Copies {
		if cp.Bytes == 0 {
			return errors.Errorf("copy %d: bytes must be > 0", i)
		}
	}
	return nil
}
