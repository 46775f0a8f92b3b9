package sim

import "github.com/pkg/errors"

// Default address-space constants for the device allocator. The device gets
// its own brk pointer well above the low addresses the host OS hands out;
// the first allocation lands at a fixed 0x100 offset above it.
const (
	DefaultBrkPoint = 0x8000000
	DefaultNextAddr = 0x8000100

	// DefaultPageSize is the host page granularity used to back device memory.
	DefaultPageSize = 4096
)

// TimingConfig holds the immutable timing parameters of the bridge, fixed at
// construction. Delays are expressed in device cycles and converted to host
// ticks through TickConversion.
type TimingConfig struct {
	StreamDelay    int64   `yaml:"stream_delay"`     // ticks between stream dispatch wake-ups
	LaunchDelay    float64 `yaml:"launch_delay"`     // device cycles from launch to first device tick
	ReturnDelay    float64 `yaml:"return_delay"`     // device cycles from completion to visibility
	TickConversion float64 `yaml:"tick_conversion"`  // host ticks per device cycle
	SharedMemDelay float64 `yaml:"shared_mem_delay"` // device cycles per shared-memory access (consumed by shader cores)
	PageSize       uint64  `yaml:"page_size"`        // host page granularity for device memory backing
}

// DefaultTimingConfig returns the timing parameters used when no overrides
// are given.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		StreamDelay:    1,
		LaunchDelay:    2,
		ReturnDelay:    1,
		TickConversion: 10,
		SharedMemDelay: 30,
		PageSize:       DefaultPageSize,
	}
}

// Validate checks that the timing parameters are usable.
func (c TimingConfig) Validate() error {
	if c.TickConversion <= 0 {
		return errors.Errorf("tick_conversion must be > 0, got %v", c.TickConversion)
	}
	if c.StreamDelay < 1 {
		return errors.Errorf("stream_delay must be >= 1, got %d", c.StreamDelay)
	}
	if c.LaunchDelay < 0 {
		return errors.Errorf("launch_delay must be >= 0, got %v", c.LaunchDelay)
	}
	if c.ReturnDelay < 0 {
		return errors.Errorf("return_delay must be >= 0, got %v", c.ReturnDelay)
	}
	if c.SharedMemDelay < 0 {
		return errors.Errorf("shared_mem_delay must be >= 0, got %v", c.SharedMemDelay)
	}
	if c.PageSize == 0 || c.PageSize&(c.PageSize-1) != 0 {
		return errors.Errorf("page_size must be a power of two, got %d", c.PageSize)
	}
	return nil
}
