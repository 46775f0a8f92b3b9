// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// queuedEvent pairs an Event with a monotonically increasing sequence number
// so that events scheduled for the same tick fire in scheduling order.
type queuedEvent struct {
	ev  Event
	seq uint64
}

// EventQueue implements heap.Interface and orders events by timestamp,
// breaking ties deterministically by scheduling order.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue struct {
	items   []queuedEvent
	nextSeq uint64
}

func (eq *EventQueue) Len() int { return len(eq.items) }

func (eq *EventQueue) Less(i, j int) bool {
	ei, ej := eq.items[i], eq.items[j]
	if ei.ev.Timestamp() != ej.ev.Timestamp() {
		return ei.ev.Timestamp() < ej.ev.Timestamp()
	}
	return ei.seq < ej.seq
}

func (eq *EventQueue) Swap(i, j int) { eq.items[i], eq.items[j] = eq.items[j], eq.items[i] }

func (eq *EventQueue) Push(x any) {
	eq.items = append(eq.items, x.(queuedEvent))
}

func (eq *EventQueue) Pop() any {
	old := eq.items
	n := len(old)
	item := old[n-1]
	eq.items = old[0 : n-1]
	return item
}

// Simulator is the host event engine: it holds simulation time and delivers
// scheduled events in non-decreasing tick order. It is the "schedule a
// callback for tick T" service everything else in this package builds on.
type Simulator struct {
	Clock   int64
	Horizon int64
	queue   EventQueue
}

// NewSimulator creates a Simulator that runs until its event queue drains
// or the horizon (in ticks) is exceeded.
func NewSimulator(horizon int64) *Simulator {
	return &Simulator{
		Clock:   0,
		Horizon: horizon,
	}
}

// Now returns the current simulation time in ticks.
func (s *Simulator) Now() int64 {
	return s.Clock
}

// Schedule arms ev to fire at its timestamp. Scheduling into the past is a
// contract violation: event callbacks must only ever arm present or future
// work.
func (s *Simulator) Schedule(ev Event) {
	if ev.Timestamp() < s.Clock {
		panic(fmt.Sprintf("Simulator: scheduling event at tick %d before current tick %d", ev.Timestamp(), s.Clock))
	}
	item := queuedEvent{ev: ev, seq: s.queue.nextSeq}
	s.queue.nextSeq++
	heap.Push(&s.queue, item)
}

// Pending returns the number of events currently armed.
func (s *Simulator) Pending() int {
	return s.queue.Len()
}

// Run pops events in tick order, advancing the clock, until no events remain
// or the horizon is crossed.
func (s *Simulator) Run() {
	for s.queue.Len() > 0 {
		item := heap.Pop(&s.queue).(queuedEvent)
		s.Clock = item.ev.Timestamp()
		logrus.Debugf("[tick %07d] Executing %T", s.Clock, item.ev)
		item.ev.Execute(s)
		if s.Clock > s.Horizon {
			break
		}
	}
	logrus.Infof("[tick %07d] Simulation ended", s.Clock)
}
