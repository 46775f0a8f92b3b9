package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenarioConfig_ParsesKernelsAndCopies(t *testing.T) {
	path := writeTempFile(t, "scenario.yaml", `
kernels:
  - id: 1
    cycles: 100
  - id: 2
    cycles: 50
copies:
  - bytes: 4096
`)

	cfg, err := LoadScenarioConfig(path)

	require.NoError(t, err)
	require.Len(t, cfg.Kernels, 2)
	assert.Equal(t, uint64(1), cfg.Kernels[0].ID)
	assert.Equal(t, int64(100), cfg.Kernels[0].Cycles)
	require.Len(t, cfg.Copies, 1)
	assert.Equal(t, uint64(4096), cfg.Copies[0].Bytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoadScenarioConfig_MissingFile_Errors(t *testing.T) {
	_, err := LoadScenarioConfig("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestDefaultScenario_IsValid(t *testing.T) {
	assert.NoError(t, DefaultScenario().Validate())
}

func TestScenarioConfig_Validate_RejectsBadScenarios(t *testing.T) {
	cases := []struct {
		name string
		cfg  ScenarioConfig
	}{
		{"reserved kernel id", ScenarioConfig{Kernels: []KernelSpec{{ID: 0, Cycles: 10}}}},
		{"duplicate kernel id", ScenarioConfig{Kernels: []KernelSpec{{ID: 1, Cycles: 10}, {ID: 1, Cycles: 20}}}},
		{"non-positive cycles", ScenarioConfig{Kernels: []KernelSpec{{ID: 1, Cycles: 0}}}},
		{"zero-byte copy", ScenarioConfig{
			Kernels: []KernelSpec{{ID: 1, Cycles: 10}},
			Copies:  []CopySpec{{Bytes: 0}},
		}},
		{"no kernels", ScenarioConfig{Copies: []CopySpec{{Bytes: 16}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.cfg.Validate())
		})
	}
}
