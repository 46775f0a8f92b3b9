package sim

import "github.com/sirupsen/logrus"

// ThreadContext models the host execution context that issues device work.
// Suspension is cooperative: Suspend only flips a flag and the caller returns
// control to the event loop; Activate flips it back when the bridge decides
// the context may resume. The context also owns the memory image the
// functional access path operates on.
type ThreadContext struct {
	mem       *PageMemory
	suspended bool
}

// NewThreadContext creates an active context over the given memory image.
func NewThreadContext(mem *PageMemory) *ThreadContext {
	return &ThreadContext{mem: mem}
}

// Mem returns the context's memory image.
func (tc *ThreadContext) Mem() *PageMemory {
	return tc.mem
}

// Suspended reports whether the context is currently suspended.
func (tc *ThreadContext) Suspended() bool {
	return tc.suspended
}

// Suspend marks the context suspended. Suspending twice is a contract
// violation: the bridge hands out exactly one pending unblock at a time.
func (tc *ThreadContext) Suspend() {
	if tc.suspended {
		panic("ThreadContext: already suspended")
	}
	logrus.Debug("host context suspended")
	tc.suspended = true
}

// Activate reactivates a suspended context. Activating an active context is
// harmless and mirrors the host's own semantics.
func (tc *ThreadContext) Activate() {
	logrus.Debug("host context activated")
	tc.suspended = false
}
