// Package sim provides the discrete-event co-simulation bridge between a
// host (CPU-side) timeline measured in ticks and a cycle-stepped device
// (GPU-style accelerator) timeline measured in device cycles.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - simulator.go: the host event loop and tick-ordered event queue
//   - event.go: the event types that drive the bridge (device tick, stream dispatch)
//   - bridge.go: the device clock driver, completion drain, and suspend protocol
//
// # Architecture
//
// The bridge coordinates two clock domains. Host time advances through the
// Simulator's event queue; device time advances one cycle per delivered
// device-tick event, scaled by TimingConfig.TickConversion. The pieces:
//   - alloc.go: bump allocator handing out device-visible addresses,
//     lazily backed by host pages
//   - completion.go: FIFO of finished kernels awaiting delayed retirement
//   - stream.go: producer queue of device-bound operations, dispatched
//     one at a time
//   - device.go: the Device collaborator interface and a reference
//     cycle-counting implementation
//   - memory.go, context.go: the host memory image and execution context
//     the functional (untimed) access path runs against
//
// All state is mutated only from within event callbacks delivered by the
// single-threaded Simulator loop; no locking is required or present.
package sim
