package cotask

import (
	"runtime"
	"runtime/debug"
	"time"
)

// ManualGC turns off the automatic garbage collector so that heap
// reclamation only happens inside a scheduled Collector task, never as an
// unscheduled pause in the middle of a fixed-step routine. limit, if
// positive, is a soft memory limit past which the runtime collects anyway.
// The returned func restores the previous settings.
func ManualGC(limit int64) (restore func()) {
	percent := debug.SetGCPercent(-1)
	prevLimit := int64(-1)
	if limit > 0 {
		prevLimit = debug.SetMemoryLimit(limit)
	}
	return func() {
		debug.SetGCPercent(percent)
		if prevLimit >= 0 {
			debug.SetMemoryLimit(prevLimit)
		}
	}
}

// GCStats is updated by a Collector after every collection.
type GCStats struct {
	Collections uint64
	LastPause   time.Duration
	HeapAlloc   uint64
}

// Collector returns a routine running a full collection on every step.
// Register it as the lowest-priority Task. stats may be nil.
func Collector(stats *GCStats) Routine {
	var ms runtime.MemStats
	return RoutineFunc(func(*Step) error {
		runtime.GC()
		if stats != nil {
			runtime.ReadMemStats(&ms)
			stats.Collections++
			stats.LastPause = time.Duration(ms.PauseNs[(ms.NumGC+255)%256])
			stats.HeapAlloc = ms.HeapAlloc
		}
		return nil
	})
}
