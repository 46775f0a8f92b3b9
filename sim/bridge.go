package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Bridge is the timing bridge between the host tick domain and the device
// cycle domain. It owns the completion queue, the stream dispatch guard, the
// device address allocator, and the suspend/unblock protocol. One Bridge
// exists per simulation; collaborators receive it explicitly at setup.
type Bridge struct {
	host    *Simulator
	device  Device
	streams *StreamManager
	ctx     *ThreadContext
	timing  TimingConfig

	alloc       *AddressAllocator
	completions CompletionQueue
	metrics     *Metrics
	cores       []*ShaderCore

	// running is true between a kernel launch and its first completion
	// observation. streamScheduled is true exactly while a stream dispatch
	// wake-up is armed; together they are the only re-entrancy guards the
	// single-threaded event model needs.
	running         bool
	streamScheduled bool
	unblockNeeded   bool
	kernelStartTick int64
}

// NewBridge wires a bridge to its collaborators. The timing configuration
// must already be validated.
func NewBridge(host *Simulator, device Device, streams *StreamManager, ctx *ThreadContext, timing TimingConfig) *Bridge {
	if err := timing.Validate(); err != nil {
		panic(fmt.Sprintf("Bridge: invalid timing config: %v", err))
	}
	return &Bridge{
		host:    host,
		device:  device,
		streams: streams,
		ctx:     ctx,
		timing:  timing,
		alloc:   NewAddressAllocator(ctx.Mem(), timing.PageSize),
		metrics: NewMetrics(),
	}
}

// Now returns the current host tick.
func (b *Bridge) Now() int64 {
	return b.host.Now()
}

// Timing returns the bridge's immutable timing parameters.
func (b *Bridge) Timing() TimingConfig {
	return b.timing
}

// Metrics returns the bridge's statistics sink.
func (b *Bridge) Metrics() *Metrics {
	return b.metrics
}

// Running reports whether a kernel launch is awaiting its first completion
// observation.
func (b *Bridge) Running() bool {
	return b.running
}

// StreamScheduled reports whether a stream dispatch wake-up is armed.
func (b *Bridge) StreamScheduled() bool {
	return b.streamScheduled
}

// remainingDelay converts a configured delay (in device cycles) to host
// ticks and subtracts the time already elapsed since the device-side event,
// flooring at one tick so forward progress is always guaranteed.
func remainingDelay(now, since int64, delayCycles, conv float64) int64 {
	delay := int64(delayCycles*conv) - (now - since)
	if delay < 1 {
		return 1
	}
	return delay
}

// DeviceTick is the device clock driver, invoked on every device-tick event:
// observe a newly finished kernel, drain ripe completions, step or re-arm
// the device, check for deadlock, and wake the stream scheduler if work is
// ready.
func (b *Bridge) DeviceTick(now int64) {
	if term := b.device.FinishedKernel(); term.ID != 0 {
		delay := remainingDelay(now, term.ReportTick, b.timing.ReturnDelay, b.timing.TickConversion)
		b.completions.Push(CompletionRecord{KernelID: term.ID, ReadyTick: now + delay})
		logrus.Debugf("kernel %d completion visible at %d", term.ID, now+delay)
		// Let the producer observe the freed device promptly.
		b.StreamRequestTick(1)
		b.running = false
	}

	for !b.completions.Empty() && b.completions.Front().ReadyTick < now {
		rec := b.completions.Pop()
		logrus.Debugf("device finished kernel id %d, retiring at %d", rec.KernelID, now)
		b.streams.RegisterFinished(rec.KernelID)
		b.metrics.RecordKernelTime(rec.ReadyTick - b.kernelStartTick)

		if b.unblockNeeded && b.streams.Empty() && b.completions.Empty() {
			logrus.Debug("stream manager is empty, unblocking")
			b.Unblock()
			b.unblockNeeded = false
		}
	}

	if b.device.Active() {
		b.device.Cycle()
		b.DeviceRequestTick(1)
	} else if !b.completions.Empty() {
		b.host.Schedule(&DeviceTickEvent{time: b.completions.Front().ReadyTick + 1, bridge: b})
	}

	if err := b.device.DeadlockCheck(); err != nil {
		panic(fmt.Sprintf("Bridge: device deadlock: %v", err))
	}

	if b.streams.Ready() && !b.streamScheduled {
		b.StreamRequestTick(b.timing.StreamDelay)
	}
}

// StreamTick dispatches at most one pending stream operation, then re-arms
// itself while more remain ready.
func (b *Bridge) StreamTick(now int64) {
	b.streamScheduled = false

	if op := b.streams.Front(); op != nil {
		logrus.Debugf("dispatching stream operation %v at %d", op, now)
		op.Execute(b)
	}

	if b.streams.Ready() {
		b.StreamRequestTick(b.timing.StreamDelay)
	}
}

// BeginRunning starts the device clock for a kernel launched at launchTime.
// Time the launch already spent in flight counts against the configured
// launch delay. Launching while a launch is outstanding is a contract
// violation.
func (b *Bridge) BeginRunning(launchTime int64) {
	now := b.host.Now()
	logrus.Debugf("beginning kernel execution at %d", now)
	if b.running {
		panic("Bridge: BeginRunning called while a kernel is already running")
	}
	b.running = true
	b.kernelStartTick = now

	delay := remainingDelay(now, launchTime, b.timing.LaunchDelay, b.timing.TickConversion)
	b.host.Schedule(&DeviceTickEvent{time: now + delay, bridge: b})
}

// DeviceRequestTick arms a device-tick event the given number of device
// cycles ahead.
func (b *Bridge) DeviceRequestTick(cycles float64) {
	wakeup := int64(cycles*b.timing.TickConversion) + b.host.Now()
	b.host.Schedule(&DeviceTickEvent{time: wakeup, bridge: b})
}

// StreamRequestTick arms a stream-dispatch wake-up the given number of ticks
// ahead, unless one is already armed. At most one dispatch timer exists at
// any instant.
func (b *Bridge) StreamRequestTick(ticks int64) {
	if b.streamScheduled {
		logrus.Debug("already scheduled a stream dispatch, ignoring")
		return
	}
	b.host.Schedule(&StreamDispatchEvent{time: b.host.Now() + ticks, bridge: b})
	b.streamScheduled = true
}

// EnqueueStream hands a producer operation to the stream manager and makes
// sure a dispatch wake-up is armed.
func (b *Bridge) EnqueueStream(op StreamOp) {
	b.streams.Enqueue(op)
	if b.streams.Ready() {
		b.StreamRequestTick(b.timing.StreamDelay)
	}
}

// RequestSuspend records that the host context wants to be reactivated once
// all device-bound work drains. It returns true when the caller must suspend
// its context; false means the work already drained and no suspension is
// needed.
func (b *Bridge) RequestSuspend() bool {
	if !b.streams.Empty() {
		logrus.Debug("suspend request: need to activate host context later")
		b.unblockNeeded = true
		return true
	}
	logrus.Debug("suspend request: already done")
	return false
}

// Unblock reactivates the suspended host context. Calling it while the
// context is active is a contract violation.
func (b *Bridge) Unblock() {
	if !b.ctx.Suspended() {
		panic("Bridge: Unblock called but host context is not suspended")
	}
	b.ctx.Activate()
}

// AllocMemory hands the device a fresh region of device-visible memory.
func (b *Bridge) AllocMemory(length uint64) uint64 {
	return b.alloc.Allocate(length)
}

// FreeMemory is the (unimplemented, fatal) deallocation entry point.
func (b *Bridge) FreeMemory(addr uint64) {
	b.alloc.Free(addr)
}

// Allocator exposes the device address allocator.
func (b *Bridge) Allocator() *AddressAllocator {
	return b.alloc
}

// WriteFunctional copies data into the host memory image at addr, bypassing
// all timing machinery.
func (b *Bridge) WriteFunctional(addr uint64, data []byte) {
	logrus.Debugf("writing to addr 0x%x", addr)
	b.ctx.Mem().WriteBlob(addr, data)
}

// ReadFunctional fills buf from the host memory image at addr, bypassing all
// timing machinery.
func (b *Bridge) ReadFunctional(addr uint64, buf []byte) {
	logrus.Debugf("reading from addr 0x%x", addr)
	b.ctx.Mem().ReadBlob(addr, buf)
}

// RegisterShaderCore adds a shader core to the bridge's registry and returns
// its id.
func (b *Bridge) RegisterShaderCore(sc *ShaderCore) int {
	sc.ID = len(b.cores)
	b.cores = append(b.cores, sc)
	return sc.ID
}

// GetShaderCore returns the registered core with the given id.
func (b *Bridge) GetShaderCore(id int) *ShaderCore {
	if id < 0 || id >= len(b.cores) {
		panic(fmt.Sprintf("Bridge: no shader core with id %d", id))
	}
	return b.cores[id]
}

// ShaderCores returns the registered cores for reporting.
func (b *Bridge) ShaderCores() []*ShaderCore {
	return b.cores
}
