package daemon

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats reports resource usage of the running daemon.
type ProcessStats struct {
	RSSBytes   uint64
	CPUPercent float64
	Threads    int32
	Goroutines int
}

// collectProcessStats samples the current process. Fields that cannot be read
// on this platform stay zero.
func collectProcessStats(ctx context.Context) ProcessStats {
	stats := ProcessStats{Goroutines: runtime.NumGoroutine()}
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return stats
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = cpu
	}
	if threads, err := proc.NumThreadsWithContext(ctx); err == nil {
		stats.Threads = threads
	}
	return stats
}
