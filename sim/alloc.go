package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// AddressAllocator hands out device-visible addresses from a flat range with
// a bump pointer. The device has its own brk pointer; backing host pages are
// committed lazily, page by page, the first time the frontier crosses them.
// Freed space is never reused and regions are never coalesced.
type AddressAllocator struct {
	backing  PageBacker
	pageSize uint64

	// nextAddr is the next address to hand out; brkPoint is the boundary
	// below which backing pages are already committed. Both only grow.
	nextAddr uint64
	brkPoint uint64

	allocated map[uint64]uint64 // base address -> length, one entry per outstanding region
}

// NewAddressAllocator creates an allocator backed by the given page service.
func NewAddressAllocator(backing PageBacker, pageSize uint64) *AddressAllocator {
	if pageSize == 0 || pageSize&(pageSize-1) != 0 {
		panic(fmt.Sprintf("AddressAllocator: page size must be a power of two, got %d", pageSize))
	}
	return &AddressAllocator{
		backing:   backing,
		pageSize:  pageSize,
		nextAddr:  DefaultNextAddr,
		brkPoint:  DefaultBrkPoint,
		allocated: make(map[uint64]uint64),
	}
}

// Allocate returns the base address of a fresh region of the given length,
// committing any backing pages the region newly requires. Addresses are
// strictly increasing across calls.
func (a *AddressAllocator) Allocate(length uint64) uint64 {
	if length == 0 {
		panic("AddressAllocator: Allocate length must be > 0")
	}
	addr := a.nextAddr

	if end := addr + length; end > a.brkPoint {
		// brkPoint stays page-aligned, so chunk starts are aligned too.
		for chunk := a.brkPoint; chunk < end; chunk += a.pageSize {
			a.backing.CommitPage(chunk, a.pageSize)
		}
		a.brkPoint = roundUp(end, a.pageSize)
	}

	a.nextAddr += length
	a.allocated[addr] = length

	logrus.Debugf("giving the device %d bytes at address 0x%x", length, addr)
	return addr
}

// Free is not implemented: the current design keeps no free list and never
// reclaims pages. Calling it is a fatal contract violation rather than a
// silent no-op.
func (a *AddressAllocator) Free(addr uint64) {
	panic(fmt.Sprintf("AddressAllocator: Free(0x%x) is not implemented", addr))
}

// NextAddr returns the frontier address the next allocation will receive.
func (a *AddressAllocator) NextAddr() uint64 {
	return a.nextAddr
}

// BrkPoint returns the committed-page high-water mark.
func (a *AddressAllocator) BrkPoint() uint64 {
	return a.brkPoint
}

// Region returns the length of the outstanding region at base address addr.
func (a *AddressAllocator) Region(addr uint64) (uint64, bool) {
	length, ok := a.allocated[addr]
	return length, ok
}

// Regions returns the number of outstanding regions.
func (a *AddressAllocator) Regions() int {
	return len(a.allocated)
}

func roundUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
