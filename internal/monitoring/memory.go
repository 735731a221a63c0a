package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// MemoryStats is one runtime snapshot.
type MemoryStats struct {
	HeapAlloc    uint64    `json:"heap_alloc_bytes"`
	HeapSys      uint64    `json:"heap_sys_bytes"`
	HeapObjects  uint64    `json:"heap_objects"`
	NumGC        uint32    `json:"num_gc"`
	PauseTotalNs uint64    `json:"gc_pause_total_ns"`
	NumGoroutine int       `json:"num_goroutine"`
	Timestamp    time.Time `json:"timestamp"`
}

// MemoryMonitor samples runtime memory statistics into Metrics.
type MemoryMonitor struct {
	metrics  *Metrics
	logger   *Logger
	interval time.Duration
	logEvery int

	mutex sync.RWMutex
	last  MemoryStats
}

// NewMemoryMonitor samples every interval and logs a summary every tenth sample.
func NewMemoryMonitor(interval time.Duration, metrics *Metrics, logger *Logger) *MemoryMonitor {
	return &MemoryMonitor{
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		logEvery: 10,
	}
}

// Run samples until ctx is done.
func (mm *MemoryMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()

	mm.Collect()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := mm.Collect()
			if n%mm.logEvery == 0 {
				mm.logStats(stats)
			}
		}
	}
}

// Collect takes one sample and returns it.
func (mm *MemoryMonitor) Collect() MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := MemoryStats{
		HeapAlloc:    ms.HeapAlloc,
		HeapSys:      ms.HeapSys,
		HeapObjects:  ms.HeapObjects,
		NumGC:        ms.NumGC,
		PauseTotalNs: ms.PauseTotalNs,
		NumGoroutine: runtime.NumGoroutine(),
		Timestamp:    time.Now(),
	}

	mm.mutex.Lock()
	mm.last = stats
	mm.mutex.Unlock()

	if mm.metrics != nil {
		mm.metrics.RecordGCMetrics(int64(ms.NumGC), int64(ms.PauseTotalNs), int64(ms.HeapAlloc), int64(ms.HeapSys))
	}
	return stats
}

// Last returns the most recent sample.
func (mm *MemoryMonitor) Last() MemoryStats {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()
	return mm.last
}

func (mm *MemoryMonitor) logStats(stats MemoryStats) {
	if mm.logger == nil {
		return
	}
	mm.logger.SystemLogger("memory_stats", fmt.Sprintf(
		"heap:%dMB/%dMB objects:%d gc:%d goroutines:%d",
		stats.HeapAlloc/(1024*1024),
		stats.HeapSys/(1024*1024),
		stats.HeapObjects,
		stats.NumGC,
		stats.NumGoroutine,
	))
}
