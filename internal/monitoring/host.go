package monitoring

import (
	"context"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of the machine the app runs on.
type HostStats struct {
	MemoryUsedPercent float64 `json:"memoryUsedPercent"`
	Load1             float64 `json:"load1"`
}

// ReadHostStats collects memory usage and the one minute load average.
// Fields the platform cannot report are left at zero.
func ReadHostStats(ctx context.Context) HostStats {
	var stats HostStats
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryUsedPercent = vm.UsedPercent
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		stats.Load1 = avg.Load1
	}
	return stats
}
