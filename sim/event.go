package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in ticks) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Simulator)
}

// DeviceTickEvent delivers one step of the device clock domain to the bridge:
// completion observation, drain, device cycle, and re-arm.
type DeviceTickEvent struct {
	time   int64   // Scheduled execution time (in ticks)
	bridge *Bridge // The bridge whose device clock this event drives
}

// Timestamp returns the scheduled time of the DeviceTickEvent.
func (e *DeviceTickEvent) Timestamp() int64 {
	return e.time
}

// Execute runs the bridge's device clock driver.
func (e *DeviceTickEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< DeviceTick at %d ticks", e.time)
	e.bridge.DeviceTick(e.time)
}

// StreamDispatchEvent wakes the stream scheduler to dispatch the next pending
// device-bound operation, if one is ready.
type StreamDispatchEvent struct {
	time   int64
	bridge *Bridge
}

// Timestamp returns the scheduled time of the StreamDispatchEvent.
func (e *StreamDispatchEvent) Timestamp() int64 {
	return e.time
}

// Execute runs the bridge's stream dispatch handler.
func (e *StreamDispatchEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< StreamDispatch at %d ticks", e.time)
	e.bridge.StreamTick(e.time)
}
