package sim

// ShaderCore is one execution core of the device as seen by the bridge's
// statistics: the bridge does not model core internals, it only registers
// cores and reports their memory-system counters at shutdown.
type ShaderCore struct {
	ID int

	// NumRetry counts memory accesses the core had to retry; MaxOutstanding
	// tracks the high-water mark of in-flight accesses. Cores update these
	// themselves during execution.
	NumRetry       uint64
	MaxOutstanding uint64
}

// RecordRetry bumps the retry counter.
func (sc *ShaderCore) RecordRetry() {
	sc.NumRetry++
}

// RecordOutstanding updates the in-flight high-water mark.
func (sc *ShaderCore) RecordOutstanding(n uint64) {
	if n > sc.MaxOutstanding {
		sc.MaxOutstanding = n
	}
}
