package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// PageBacker is the host memory-backing service: it commits one page-aligned
// chunk of host memory so the device can use it.
type PageBacker interface {
	CommitPage(addr, size uint64)
}

// PageMemory is a sparse, page-granular host memory image. Pages must be
// committed before they are read or written; touching an uncommitted page is
// a contract violation, mirroring the host page-table behavior.
type PageMemory struct {
	pageSize uint64
	pages    map[uint64][]byte
}

// NewPageMemory creates an empty memory image with the given page size.
func NewPageMemory(pageSize uint64) *PageMemory {
	if pageSize == 0 || pageSize&(pageSize-1) != 0 {
		panic(fmt.Sprintf("PageMemory: page size must be a power of two, got %d", pageSize))
	}
	return &PageMemory{
		pageSize: pageSize,
		pages:    make(map[uint64][]byte),
	}
}

// PageSize returns the page granularity of the image.
func (m *PageMemory) PageSize() uint64 {
	return m.pageSize
}

// Committed reports whether the page containing addr is committed.
func (m *PageMemory) Committed(addr uint64) bool {
	_, ok := m.pages[addr&^(m.pageSize-1)]
	return ok
}

// CommitPage commits every page overlapping [addr, addr+size). Committing an
// already-committed page is a no-op, so callers may commit ranges liberally.
func (m *PageMemory) CommitPage(addr, size uint64) {
	for base := addr &^ (m.pageSize - 1); base < addr+size; base += m.pageSize {
		if _, ok := m.pages[base]; !ok {
			logrus.Debugf("committing page at 0x%x", base)
			m.pages[base] = make([]byte, m.pageSize)
		}
	}
}

// page returns the backing slice for the page containing addr.
func (m *PageMemory) page(addr uint64) []byte {
	p, ok := m.pages[addr&^(m.pageSize-1)]
	if !ok {
		panic(fmt.Sprintf("PageMemory: access to uncommitted page at 0x%x", addr))
	}
	return p
}

// WriteBlob copies data into the image starting at addr, crossing page
// boundaries as needed.
func (m *PageMemory) WriteBlob(addr uint64, data []byte) {
	for len(data) > 0 {
		p := m.page(addr)
		off := addr & (m.pageSize - 1)
		n := copy(p[off:], data)
		data = data[n:]
		addr += uint64(n)
	}
}

// ReadBlob fills buf with bytes from the image starting at addr.
func (m *PageMemory) ReadBlob(addr uint64, buf []byte) {
	for len(buf) > 0 {
		p := m.page(addr)
		off := addr & (m.pageSize - 1)
		n := copy(buf, p[off:])
		buf = buf[n:]
		addr += uint64(n)
	}
}
