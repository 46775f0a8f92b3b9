package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleDevice_RunsKernelForRequestedCycles(t *testing.T) {
	// GIVEN a kernel of 3 cycles
	s := NewSimulator(math.MaxInt64)
	d := NewCycleDevice(s, 0)
	d.Launch(1, 3)

	// WHEN cycling twice
	d.Cycle()
	d.Cycle()

	// THEN nothing has finished yet
	assert.True(t, d.Active())
	assert.Equal(t, KernelTerm{}, d.FinishedKernel())

	// WHEN the last cycle executes at tick 42
	s.Clock = 42
	d.Cycle()

	// THEN the kernel is reported exactly once with that tick
	term := d.FinishedKernel()
	assert.Equal(t, uint64(1), term.ID)
	assert.Equal(t, int64(42), term.ReportTick)
	assert.Equal(t, KernelTerm{}, d.FinishedKernel())
	assert.False(t, d.Active())
}

func TestCycleDevice_QueuedKernels_RunOneAtATime(t *testing.T) {
	s := NewSimulator(math.MaxInt64)
	d := NewCycleDevice(s, 0)
	d.Launch(1, 1)
	d.Launch(2, 1)

	d.Cycle()
	first := d.FinishedKernel()
	require.Equal(t, uint64(1), first.ID)
	assert.True(t, d.Active(), "second kernel still queued")

	d.Cycle()
	second := d.FinishedKernel()
	assert.Equal(t, uint64(2), second.ID)
	assert.False(t, d.Active())
}

func TestCycleDevice_DeadlockCheck_TripsPastWatchdog(t *testing.T) {
	// GIVEN a watchdog bound of 5 cycles and a 10-cycle kernel
	s := NewSimulator(math.MaxInt64)
	d := NewCycleDevice(s, 5)
	d.Launch(1, 10)

	for i := 0; i < 5; i++ {
		d.Cycle()
	}
	assert.NoError(t, d.DeadlockCheck())

	d.Cycle()
	assert.Error(t, d.DeadlockCheck())
}

func TestCycleDevice_DeadlockCheck_ResetsOnCompletion(t *testing.T) {
	s := NewSimulator(math.MaxInt64)
	d := NewCycleDevice(s, 5)
	d.Launch(1, 4)
	d.Launch(2, 4)

	for i := 0; i < 8; i++ {
		d.Cycle()
		assert.NoError(t, d.DeadlockCheck())
	}
}

func TestCycleDevice_Launch_InvalidArguments_Panic(t *testing.T) {
	s := NewSimulator(math.MaxInt64)
	d := NewCycleDevice(s, 0)

	assert.Panics(t, func() { d.Launch(0, 10) })
	assert.Panics(t, func() { d.Launch(1, 0) })
}

func TestCycleDevice_IdleCycle_IsHarmless(t *testing.T) {
	s := NewSimulator(math.MaxInt64)
	d := NewCycleDevice(s, 0)

	d.Cycle()

	assert.False(t, d.Active())
	assert.NoError(t, d.DeadlockCheck())
}
