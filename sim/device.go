package sim

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// KernelTerm identifies a finished kernel and the host tick at which the
// device reported it done. An ID of 0 signals "no finished kernel".
type KernelTerm struct {
	ID         uint64
	ReportTick int64
}

// Device is the cycle-stepped execution collaborator the bridge drives. The
// bridge only ever touches it from within device-tick callbacks.
type Device interface {
	// Cycle advances the device by one device cycle.
	Cycle()
	// Active reports whether the device has work to step.
	Active() bool
	// FinishedKernel pops the next kernel the device has finished, or the
	// zero KernelTerm when there is none.
	FinishedKernel() KernelTerm
	// DeadlockCheck returns a non-nil error when the device detects it can
	// make no further progress. The bridge treats that as fatal.
	DeadlockCheck() error
}

// kernelRun is one kernel executing on the CycleDevice.
type kernelRun struct {
	id        uint64
	remaining int64
}

// CycleDevice is a deterministic reference Device: each launched kernel runs
// for a fixed number of device cycles, one kernel at a time, and is reported
// finished exactly once with the tick at which its last cycle executed.
type CycleDevice struct {
	host *Simulator

	current *kernelRun
	queue   []kernelRun
	done    []KernelTerm

	// Watchdog: cycles executed since the last kernel completion. A kernel
	// that runs past the bound trips the deadlock check.
	cyclesSinceDone int64
	watchdogCycles  int64
}

// DefaultWatchdogCycles bounds how many device cycles a single kernel may run
// before the deadlock check trips.
const DefaultWatchdogCycles = 1_000_000

// NewCycleDevice creates an idle device. watchdogCycles <= 0 selects the
// default bound.
func NewCycleDevice(host *Simulator, watchdogCycles int64) *CycleDevice {
	if watchdogCycles <= 0 {
		watchdogCycles = DefaultWatchdogCycles
	}
	return &CycleDevice{
		host:           host,
		watchdogCycles: watchdogCycles,
	}
}

// Launch queues a kernel to run for the given number of device cycles.
func (d *CycleDevice) Launch(id uint64, cycles int64) {
	if id == 0 {
		panic("CycleDevice: kernel id 0 is reserved for \"none\"")
	}
	if cycles <= 0 {
		panic("CycleDevice: kernel cycle count must be > 0")
	}
	logrus.Debugf("device: launching kernel %d for %d cycles", id, cycles)
	d.queue = append(d.queue, kernelRun{id: id, remaining: cycles})
}

// Active reports whether a kernel is running or queued.
func (d *CycleDevice) Active() bool {
	return d.current != nil || len(d.queue) > 0
}

// Cycle advances the device one cycle, starting the next queued kernel if
// the device is idle.
func (d *CycleDevice) Cycle() {
	if d.current == nil {
		if len(d.queue) == 0 {
			return
		}
		d.current = &d.queue[0]
		d.queue = d.queue[1:]
	}

	d.current.remaining--
	d.cyclesSinceDone++
	if d.current.remaining == 0 {
		logrus.Debugf("device: kernel %d finished at tick %d", d.current.id, d.host.Now())
		d.done = append(d.done, KernelTerm{ID: d.current.id, ReportTick: d.host.Now()})
		d.current = nil
		d.cyclesSinceDone = 0
	}
}

// FinishedKernel pops the oldest unreported completion.
func (d *CycleDevice) FinishedKernel() KernelTerm {
	if len(d.done) == 0 {
		return KernelTerm{}
	}
	term := d.done[0]
	d.done = d.done[1:]
	return term
}

// DeadlockCheck trips when the running kernel has executed more cycles than
// the watchdog bound without completing.
func (d *CycleDevice) DeadlockCheck() error {
	if d.cyclesSinceDone > d.watchdogCycles {
		return errors.Errorf("kernel %d has run %d cycles without completing (bound %d)",
			d.current.id, d.cyclesSinceDone, d.watchdogCycles)
	}
	return nil
}
