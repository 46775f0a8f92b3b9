package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBacker records every page-commit request for inspection.
type recordingBacker struct {
	commits []uint64
	size    uint64
}

func (rb *recordingBacker) CommitPage(addr, size uint64) {
	rb.commits = append(rb.commits, addr)
	rb.size = size
}

func TestAddressAllocator_FirstAllocation_StartsAtFixedOffset(t *testing.T) {
	a := NewAddressAllocator(&recordingBacker{}, DefaultPageSize)

	addr := a.Allocate(10)

	assert.Equal(t, uint64(DefaultNextAddr), addr)
	assert.Equal(t, uint64(DefaultNextAddr+10), a.NextAddr())
}

func TestAddressAllocator_Addresses_StrictlyIncreasingAndNonOverlapping(t *testing.T) {
	// GIVEN a sequence of allocations of varying lengths
	a := NewAddressAllocator(&recordingBacker{}, DefaultPageSize)
	lengths := []uint64{10, 0x2000, 1, 4096, 100}

	// WHEN allocating them all
	var prevAddr, prevEnd uint64
	var total uint64
	for i, l := range lengths {
		addr := a.Allocate(l)
		// THEN each address is strictly above the previous region's end
		if i > 0 {
			if addr <= prevAddr {
				t.Errorf("allocation %d: addr 0x%x not above previous 0x%x", i, addr, prevAddr)
			}
			if addr < prevEnd {
				t.Errorf("allocation %d: addr 0x%x overlaps previous region ending 0x%x", i, addr, prevEnd)
			}
		}
		prevAddr, prevEnd = addr, addr+l
		total += l
	}

	// AND the frontier equals the initial value plus the sum of lengths
	assert.Equal(t, uint64(DefaultNextAddr)+total, a.NextAddr())
	assert.Equal(t, len(lengths), a.Regions())
}

func TestAddressAllocator_BrkPoint_PageAlignedAndCoversAllocations(t *testing.T) {
	a := NewAddressAllocator(&recordingBacker{}, DefaultPageSize)

	for _, l := range []uint64{1, 4095, 4096, 4097, 123456} {
		end := a.Allocate(l) + l
		brk := a.BrkPoint()
		assert.Zero(t, brk%DefaultPageSize, "brk point 0x%x not page aligned", brk)
		assert.GreaterOrEqual(t, brk, end, "brk point 0x%x below allocated end 0x%x", brk, end)
	}
}

func TestAddressAllocator_CommitsPageAlignedChunks(t *testing.T) {
	rb := &recordingBacker{}
	a := NewAddressAllocator(rb, DefaultPageSize)

	// Crosses two page boundaries beyond the initial brk point.
	a.Allocate(0x2000)

	require.NotEmpty(t, rb.commits)
	assert.Equal(t, uint64(DefaultPageSize), rb.size)
	for _, addr := range rb.commits {
		assert.Zero(t, addr%DefaultPageSize, "commit at 0x%x not page aligned", addr)
	}
	// Committed pages must cover [brkPoint0, addr+length).
	last := rb.commits[len(rb.commits)-1]
	assert.GreaterOrEqual(t, last+DefaultPageSize, uint64(DefaultNextAddr)+0x2000)
}

func TestAddressAllocator_NoRecommit_WithinCommittedRange(t *testing.T) {
	// GIVEN a large first allocation
	rb := &recordingBacker{}
	a := NewAddressAllocator(rb, DefaultPageSize)
	a.Allocate(0x4000)
	committed := len(rb.commits)

	// WHEN a small allocation fits below the brk point
	a.Allocate(16)

	// THEN no further pages are requested
	if len(rb.commits) != committed {
		t.Errorf("expected no new commits, got %d more", len(rb.commits)-committed)
	}
}

func TestAddressAllocator_Region_TracksOutstandingAllocations(t *testing.T) {
	a := NewAddressAllocator(&recordingBacker{}, DefaultPageSize)

	addr := a.Allocate(64)

	length, ok := a.Region(addr)
	require.True(t, ok)
	assert.Equal(t, uint64(64), length)

	_, ok = a.Region(addr + 1)
	assert.False(t, ok)
}

func TestAddressAllocator_Free_IsFatal(t *testing.T) {
	a := NewAddressAllocator(&recordingBacker{}, DefaultPageSize)
	addr := a.Allocate(32)

	assert.PanicsWithValue(t,
		"AddressAllocator: Free(0x8000100) is not implemented",
		func() { a.Free(addr) })
}

func TestAddressAllocator_ZeroLength_Panics(t *testing.T) {
	a := NewAddressAllocator(&recordingBacker{}, DefaultPageSize)
	assert.Panics(t, func() { a.Allocate(0) })
}

func TestNewAddressAllocator_NonPowerOfTwoPageSize_Panics(t *testing.T) {
	assert.Panics(t, func() { NewAddressAllocator(&recordingBacker{}, 1000) })
	assert.Panics(t, func() { NewAddressAllocator(&recordingBacker{}, 0) })
}
