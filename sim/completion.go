// Implements the CompletionQueue, which holds finished device kernels until
// their injected return latency has elapsed and they can be retired.

package sim

import (
	"fmt"
	"strings"
)

// CompletionRecord marks a kernel the device reported finished. KernelID 0
// means "none". ReadyTick is the host tick after which the completion becomes
// visible to the producer side.
type CompletionRecord struct {
	KernelID  uint64
	ReadyTick int64
}

// CompletionQueue is a FIFO of completion records. Insertion order is also
// non-decreasing in ReadyTick: the device finishes one kernel at a time and
// the delay arithmetic is monotonic, so no reordering is ever needed.
type CompletionQueue struct {
	queue []CompletionRecord
}

// Push appends a record to the back of the queue.
func (cq *CompletionQueue) Push(rec CompletionRecord) {
	cq.queue = append(cq.queue, rec)
}

// Front returns the oldest record without removing it.
// Callers must check Empty() first.
func (cq *CompletionQueue) Front() CompletionRecord {
	return cq.queue[0]
}

// Pop removes and returns the oldest record.
// Callers must check Empty() first.
func (cq *CompletionQueue) Pop() CompletionRecord {
	rec := cq.queue[0]
	cq.queue = cq.queue[1:]
	return rec
}

// Len returns the number of records awaiting retirement.
func (cq *CompletionQueue) Len() int {
	return len(cq.queue)
}

// Empty reports whether no completions are pending.
func (cq *CompletionQueue) Empty() bool {
	return len(cq.queue) == 0
}

func (cq *CompletionQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, rec := range cq.queue {
		sb.WriteString(fmt.Sprintf("kernel %d ready at %d", rec.KernelID, rec.ReadyTick))
		if i < len(cq.queue)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
