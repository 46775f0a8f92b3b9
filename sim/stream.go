package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// StreamOp is a single producer-queued action to be dispatched onto the
// device. Operations execute from within a stream-dispatch callback, exactly
// one per dispatch.
type StreamOp interface {
	Execute(b *Bridge)
}

// KernelLaunchOp launches a kernel on the device and starts the bridge's
// device clock. IssueTick is the host tick at which the producer issued the
// launch; time already spent queued counts against the launch delay.
type KernelLaunchOp struct {
	KernelID  uint64
	Cycles    int64
	IssueTick int64
	Device    *CycleDevice
}

// Execute launches the kernel and begins the device clock.
func (op *KernelLaunchOp) Execute(b *Bridge) {
	op.Device.Launch(op.KernelID, op.Cycles)
	b.BeginRunning(op.IssueTick)
}

func (op *KernelLaunchOp) String() string {
	return fmt.Sprintf("kernel-launch{id=%d cycles=%d}", op.KernelID, op.Cycles)
}

// MemcpyOp copies bytes between two device-visible regions through the
// functional access path. It is functionally correct but not timing-modeled,
// and completes at dispatch.
type MemcpyOp struct {
	Src   uint64
	Dst   uint64
	Count uint64
}

// Execute performs the copy.
func (op *MemcpyOp) Execute(b *Bridge) {
	buf := make([]byte, op.Count)
	b.ReadFunctional(op.Src, buf)
	b.WriteFunctional(op.Dst, buf)
}

func (op *MemcpyOp) String() string {
	return fmt.Sprintf("memcpy{src=0x%x dst=0x%x count=%d}", op.Src, op.Dst, op.Count)
}

// StreamManager is the producer side of the bridge: a FIFO of pending
// device-bound operations plus the set of launched kernels awaiting
// retirement. The device runs one kernel at a time, so an operation is ready
// only while nothing is in flight.
type StreamManager struct {
	pending  []StreamOp
	inFlight map[uint64]StreamOp
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		inFlight: make(map[uint64]StreamOp),
	}
}

// Enqueue appends an operation to the back of the producer queue.
func (sm *StreamManager) Enqueue(op StreamOp) {
	sm.pending = append(sm.pending, op)
}

// Ready reports whether an operation is pending and the device is free to
// take it.
func (sm *StreamManager) Ready() bool {
	return len(sm.pending) > 0 && len(sm.inFlight) == 0
}

// Empty reports whether no work remains at all, pending or in flight.
func (sm *StreamManager) Empty() bool {
	return len(sm.pending) == 0 && len(sm.inFlight) == 0
}

// Pending returns the number of queued, not-yet-dispatched operations.
func (sm *StreamManager) Pending() int {
	return len(sm.pending)
}

// Front dequeues the next ready operation, moving kernel launches into the
// in-flight set until RegisterFinished retires them. Returns nil when
// nothing is ready.
func (sm *StreamManager) Front() StreamOp {
	if !sm.Ready() {
		return nil
	}
	op := sm.pending[0]
	sm.pending = sm.pending[1:]
	if launch, ok := op.(*KernelLaunchOp); ok {
		sm.inFlight[launch.KernelID] = op
	}
	return op
}

// RegisterFinished retires a launched kernel. Retiring a kernel that was
// never launched is a contract violation.
func (sm *StreamManager) RegisterFinished(kernelID uint64) {
	if _, ok := sm.inFlight[kernelID]; !ok {
		panic(fmt.Sprintf("StreamManager: kernel %d finished but was never launched", kernelID))
	}
	delete(sm.inFlight, kernelID)
	logrus.Debugf("stream: kernel %d retired", kernelID)
}
